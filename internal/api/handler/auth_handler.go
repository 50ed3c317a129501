package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Matfen2/daftlink-demo/internal/api/metrics"
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

type AuthHandler struct {
	authService  ports.AuthService
	chainService ports.ChainService
}

func NewAuthHandler(authService ports.AuthService, chainService ports.ChainService) *AuthHandler {
	return &AuthHandler{authService: authService, chainService: chainService}
}

// Register creates a new account and returns a session token.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  envelope{data=authResponse}
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Register(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}

	return respondMessage(c, http.StatusCreated, "account created", authResponse{Token: token, User: toUserResponse(user)})
}

// Login authenticates with email and password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  envelope{data=authResponse}
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.AuthFailuresTotal.WithLabelValues("invalid_credentials").Inc()
		}
		return err
	}

	return respond(c, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

// Me returns the authenticated account.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=userResponse}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	caller, err := ctxUser(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Me(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toUserResponse(user))
}

// UpdateMe edits the profile of the authenticated account.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Profile fields to change"
// @Success      200   {object}  envelope{data=userResponse}
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/me [put]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	caller, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), caller, req.toInput())
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "profile updated", toUserResponse(user))
}

// UpdatePassword changes the password and returns a fresh token.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      passwordRequest  true  "Current and new password"
// @Success      200   {object}  envelope{data=tokenResponse}
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/password [put]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	caller, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req passwordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token, err := h.authService.UpdatePassword(c.Request().Context(), caller, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "password updated", tokenResponse{Token: token})
}

// Stats aggregates engagement over every chain of the authenticated account.
//
// @Summary      Account statistics
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope{data=userStatsResponse}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/stats [get]
func (h *AuthHandler) Stats(c echo.Context) error {
	caller, err := ctxUser(c)
	if err != nil {
		return err
	}

	stats, err := h.chainService.AggregateUserStats(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, toUserStatsResponse(stats))
}
