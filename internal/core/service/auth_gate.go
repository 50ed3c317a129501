package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

// AuthGate resolves the caller behind a bearer token. It never writes.
type AuthGate struct {
	tokens ports.TokenVerifier
	users  ports.UserRepository
	log    zerolog.Logger
}

func NewAuthGate(tokens ports.TokenVerifier, users ports.UserRepository, log zerolog.Logger) *AuthGate {
	return &AuthGate{tokens: tokens, users: users, log: log}
}

// Authenticate verifies token and loads its active owner. Every rejection
// wraps domain.ErrUnauthenticated; the underlying reason is only logged.
func (g *AuthGate) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		g.log.Debug().Err(err).Msg("token rejected")
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			g.log.Debug().Str("user_id", userID).Msg("token owner no longer exists")
			return nil, fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !user.IsActive {
		g.log.Debug().Str("user_id", userID).Msg("token owner is deactivated")
		return nil, fmt.Errorf("%w: account disabled", domain.ErrUnauthenticated)
	}

	return user, nil
}

// AuthenticateOptional behaves like Authenticate but degrades every failure
// to an anonymous (nil) caller.
func (g *AuthGate) AuthenticateOptional(ctx context.Context, token string) *domain.User {
	if token == "" {
		return nil
	}
	user, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil
	}
	return user
}
