package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler(nil)

	c, rec := newRequest(http.MethodGet, "/health", "", nil)
	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	expectStatus(t, rec, http.StatusOK)
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := map[string]struct {
		checks map[string]DependencyCheck
		code   int
		status string
	}{
		"all up":     {checks: map[string]DependencyCheck{"mongodb": ok, "redis": ok}, code: http.StatusOK, status: "ok"},
		"redis down": {checks: map[string]DependencyCheck{"mongodb": ok, "redis": down}, code: http.StatusServiceUnavailable, status: "degraded"},
		"no checks":  {checks: nil, code: http.StatusOK, status: "ok"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			h := NewHealthHandler(tc.checks)
			c, rec := newRequest(http.MethodGet, "/health/ready", "", nil)
			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			expectStatus(t, rec, tc.code)

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tc.status || len(resp.Dependencies) != len(tc.checks) {
				t.Fatalf("unexpected body: %+v", resp)
			}
			if tc.status == "degraded" && resp.Dependencies["redis"].Error != "connection refused" {
				t.Fatalf("expected redis error surfaced, got %+v", resp.Dependencies["redis"])
			}
		})
	}
}

func TestHealthHandler_Readiness_BoundedByTimeout(t *testing.T) {
	var deadline time.Time
	h := NewHealthHandler(map[string]DependencyCheck{
		"slow": func(ctx context.Context) error {
			deadline, _ = ctx.Deadline()
			return nil
		},
	})

	c, _ := newRequest(http.MethodGet, "/health/ready", "", nil)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if deadline.IsZero() || time.Until(deadline) > readinessTimeout {
		t.Fatalf("expected a deadline within %s, got %v", readinessTimeout, deadline)
	}
}
