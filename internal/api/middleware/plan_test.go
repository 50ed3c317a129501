package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

func TestRequirePlan(t *testing.T) {
	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{"pro allowed", &domain.User{Plan: domain.PlanPro}, nil},
		{"enterprise allowed", &domain.User{Plan: domain.PlanEnterprise}, nil},
		{"free denied", &domain.User{Plan: domain.PlanFree}, domain.ErrPlanRequired},
		{"anonymous", nil, domain.ErrUnauthenticated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newCtx("")
			if tc.user != nil {
				SetUser(c, tc.user)
			}

			called := false
			handler := RequirePlan(domain.PlanPro, domain.PlanEnterprise)(func(c echo.Context) error {
				called = true
				return c.NoContent(http.StatusOK)
			})

			err := handler(c)
			if tc.wantErr == nil {
				if err != nil || !called || rec.Code != http.StatusOK {
					t.Fatalf("expected pass-through, got err=%v called=%v code=%d", err, called, rec.Code)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if called {
				t.Fatalf("next must not run")
			}
		})
	}
}
