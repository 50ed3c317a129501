package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Matfen2/daftlink-demo/internal/api/handler"
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

type stubAuthenticator struct {
	users map[string]*domain.User
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, domain.ErrUnauthenticated
}

func (s *stubAuthenticator) AuthenticateOptional(ctx context.Context, token string) *domain.User {
	u, _ := s.Authenticate(ctx, token)
	return u
}

// routerChains answers just enough of the chain engine for routing tests.
type routerChains struct {
	ports.ChainService
	updated int
}

func (s *routerChains) ListOwned(_ context.Context, owner *domain.User, in ports.ListChainsInput) (*ports.ChainPage, error) {
	return &ports.ChainPage{Page: 1, Limit: 10}, nil
}

func (s *routerChains) Update(_ context.Context, _ *domain.User, id string, _ ports.ChainPatch) (*domain.Chain, error) {
	s.updated++
	return &domain.Chain{ID: id, Status: domain.ChainActive, MaxParticipants: 1, ExpiresInDays: 1}, nil
}

func (s *routerChains) RecordView(context.Context, string) error { return nil }

func (s *routerChains) ListPublic(_ context.Context, username string) (*ports.PublicProfile, []*domain.Chain, error) {
	return &ports.PublicProfile{Username: username}, nil, nil
}

type routerAuth struct{ ports.AuthService }

func (routerAuth) Me(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Name: "Alice", Plan: domain.PlanFree}, nil
}

type routerFixture struct {
	e      *echo.Echo
	chains *routerChains
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	chains := &routerChains{}
	e := NewRouter(Dependencies{
		Log:          zerolog.Nop(),
		AuthService:  routerAuth{},
		ChainService: chains,
		Authenticator: &stubAuthenticator{users: map[string]*domain.User{
			"free-token": {ID: "user-1", Username: "alice", Plan: domain.PlanFree, IsActive: true},
			"pro-token":  {ID: "user-2", Username: "bob", Plan: domain.PlanPro, IsActive: true},
		}},
		Health: map[string]handler.DependencyCheck{
			"mongodb": func(context.Context) error { return nil },
		},
		PublicRate:  0.001,
		PublicBurst: 2,
		Registerer:  reg,
		Gatherer:    reg,
	})
	return &routerFixture{e: e, chains: chains}
}

func (f *routerFixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func failure(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var body handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	if body.Success {
		t.Fatalf("expected failure envelope, got %s", rec.Body.String())
	}
	return body
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d", rec.Code)
	}

	rec := f.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected request metrics exposed, got %q", rec.Body.String())
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/health", "", "")
	if id := rec.Header().Get(echo.HeaderXRequestID); len(id) != 36 {
		t.Fatalf("expected a uuid request id, got %q", id)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/chains", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := failure(t, rec); body.Message != "not authorized, no token" {
		t.Fatalf("unexpected message %q", body.Message)
	}

	rec = f.do(http.MethodGet, "/api/chains", "forged", "")
	if rec.Code != http.StatusUnauthorized || failure(t, rec).Message != "not authorized" {
		t.Fatalf("expected generic 401, got %d %s", rec.Code, rec.Body.String())
	}

	if rec := f.do(http.MethodGet, "/api/chains", "free-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestRouter_UsersAliases(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/api/auth/me", "/api/users/me"} {
		if rec := f.do(http.MethodGet, path, "free-token", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_FeaturedRequiresPaidPlan(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPut, "/api/chains/chain-1/featured", "free-token", `{"featured":true}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for free plan, got %d", rec.Code)
	}
	if f.chains.updated != 0 {
		t.Fatal("engine must not be reached for a free plan")
	}

	rec = f.do(http.MethodPut, "/api/chains/chain-1/featured", "pro-token", `{"featured":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for pro plan, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/chains/public/alice", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data struct {
			IsOwner bool `json:"isOwner"`
		} `json:"data"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Data.IsOwner {
		t.Fatal("anonymous caller cannot be the owner")
	}

	rec = f.do(http.MethodGet, "/api/chains/public/alice", "free-token", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Data.IsOwner {
		t.Fatal("expected owner view with the owner's token")
	}
}

func TestRouter_EngagementIsRateLimited(t *testing.T) {
	f := newRouterFixture(t)

	for i := 0; i < 2; i++ {
		if rec := f.do(http.MethodPost, "/api/chains/chain-1/view", "", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := f.do(http.MethodPost, "/api/chains/chain-1/view", "", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", rec.Code)
	}
	failure(t, rec)
}

func TestRouter_UnknownRoute(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	failure(t, rec)
}

