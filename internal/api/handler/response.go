package handler

import (
	"github.com/labstack/echo/v4"
)

// envelope is the success body of every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Success: true, Data: data})
}

func respondMessage(c echo.Context, code int, msg string, data any) error {
	return c.JSON(code, envelope{Success: true, Message: msg, Data: data})
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewErrorResponse builds the failure body for msg.
func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Message: msg}
}
