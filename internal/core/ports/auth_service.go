package ports

import (
	"context"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

// RegisterInput carries the data needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Username string
}

// ProfileInput carries a profile edit. Nil fields are left untouched.
type ProfileInput struct {
	Name     *string
	Username *string
	Bio      *string
	Avatar   *string
}

// AuthService covers account registration, login and self-service edits.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User, input ProfileInput) (*domain.User, error)
	UpdatePassword(ctx context.Context, user *domain.User, current, next string) (string, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// TokenVerifier checks identity tokens and returns the embedded user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticator resolves the caller behind a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	// AuthenticateOptional never fails; a nil user means anonymous.
	AuthenticateOptional(ctx context.Context, token string) *domain.User
}
