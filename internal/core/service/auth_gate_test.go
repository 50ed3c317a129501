package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

func newTestGate(t *testing.T) (*AuthGate, *stubUserRepo, *stubTokens) {
	t.Helper()
	users := newStubUserRepo()
	tokens := &stubTokens{}
	return NewAuthGate(tokens, users, zerolog.Nop()), users, tokens
}

func TestAuthGate_Authenticate_Success(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	u := users.add(&domain.User{Name: "Ann", Email: "ann@example.com", Plan: domain.PlanFree, IsActive: true})
	token, _ := tokens.Issue(u.ID)

	got, err := gate.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID || got.Email != "ann@example.com" {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestAuthGate_Authenticate_Rejects(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	disabled := users.add(&domain.User{Name: "Old", Email: "old@example.com", Plan: domain.PlanFree})
	disabledToken, _ := tokens.Issue(disabled.ID)
	ghostToken, _ := tokens.Issue("user-999")

	tests := map[string]string{
		"missing":   "",
		"malformed": "garbage",
		"ghost":     ghostToken,
		"disabled":  disabledToken,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := gate.Authenticate(context.Background(), token)
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthGate_Authenticate_KeepsTokenReason(t *testing.T) {
	gate, _, _ := newTestGate(t)

	_, err := gate.Authenticate(context.Background(), "garbage")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected wrapped ErrTokenInvalid, got %v", err)
	}
}

func TestAuthGate_AuthenticateOptional(t *testing.T) {
	gate, users, tokens := newTestGate(t)
	u := users.add(&domain.User{Name: "Ann", Email: "ann@example.com", Plan: domain.PlanFree, IsActive: true})
	token, _ := tokens.Issue(u.ID)

	if got := gate.AuthenticateOptional(context.Background(), token); got == nil || got.ID != u.ID {
		t.Fatalf("expected user %s, got %+v", u.ID, got)
	}
	for _, bad := range []string{"", "garbage", "token-for-user-404"} {
		if got := gate.AuthenticateOptional(context.Background(), bad); got != nil {
			t.Fatalf("expected anonymous for %q, got %+v", bad, got)
		}
	}
}
