package domain

import "errors"

var (
	ErrValidation = errors.New("validation failed")

	ErrUnauthenticated    = errors.New("not authorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")

	ErrPlanRequired     = errors.New("plan does not include this feature")
	ErrQuotaExceeded    = errors.New("chain limit reached")
	ErrCapacityExceeded = errors.New("maximum number of participants reached")

	ErrChainNotFound = errors.New("chain not found")
	ErrUserNotFound  = errors.New("user not found")

	ErrUserExists    = errors.New("user already exists")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already taken")
)

// ValidationError carries a client-safe description of rejected input.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
