package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/Matfen2/daftlink-demo/internal/api/middleware"
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

// ctxUser returns the caller resolved by the Auth middleware. A missing user
// means the route was mounted without Auth, which is reported as 401 rather
// than dereferencing nil further down.
func ctxUser(c echo.Context) (*domain.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, fmt.Errorf("%w: missing authentication", domain.ErrUnauthenticated)
	}
	return u, nil
}

// bind decodes the request body and runs struct validation. Both failures
// surface as validation errors.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Invalid("invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return domain.Invalid(err.Error())
	}
	return nil
}
