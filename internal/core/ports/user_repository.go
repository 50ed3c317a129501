package ports

import (
	"context"
	"time"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

// ProfileUpdate carries the profile fields a user may change on their account.
type ProfileUpdate struct {
	Name     string
	Username string
	Bio      string
	Avatar   string
}

// UserRepository defines persistence for accounts and their credentials.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail expects an already normalized address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// PasswordHasher is the one-way credential verifier.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}
