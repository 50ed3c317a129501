package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Matfen2/daftlink-demo/internal/api/middleware"
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error)
	loginFn          func(ctx context.Context, email, password string) (string, *domain.User, error)
	meFn             func(ctx context.Context, id string) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, u *domain.User, in ports.ProfileInput) (*domain.User, error)
	updatePasswordFn func(ctx context.Context, u *domain.User, current, next string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, id string) (*domain.User, error) {
	return s.meFn(ctx, id)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, u *domain.User, in ports.ProfileInput) (*domain.User, error) {
	return s.updateProfileFn(ctx, u, in)
}

func (s *stubAuthService) UpdatePassword(ctx context.Context, u *domain.User, current, next string) (string, error) {
	return s.updatePasswordFn(ctx, u, current, next)
}

// stubChainService embeds the interface so tests only implement what they call;
// anything else panics on the nil embedded value.
type stubChainService struct {
	ports.ChainService

	createFn     func(ctx context.Context, owner *domain.User, in ports.CreateChainInput) (*domain.Chain, error)
	getFn        func(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error)
	updateFn     func(ctx context.Context, owner *domain.User, id string, p ports.ChainPatch) (*domain.Chain, error)
	deleteFn     func(ctx context.Context, owner *domain.User, id string) error
	duplicateFn  func(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error)
	reorderFn    func(ctx context.Context, owner *domain.User, ids []string) error
	statsFn      func(ctx context.Context, owner *domain.User, id string) (*ports.ChainStats, error)
	listOwnedFn  func(ctx context.Context, owner *domain.User, in ports.ListChainsInput) (*ports.ChainPage, error)
	listPublicFn func(ctx context.Context, username string) (*ports.PublicProfile, []*domain.Chain, error)
	aggregateFn  func(ctx context.Context, owner *domain.User) (*ports.UserStats, error)
	viewFn       func(ctx context.Context, id string) error
	clickFn      func(ctx context.Context, id string) (string, error)
	joinFn       func(ctx context.Context, id string) (*domain.Chain, error)
}

func (s *stubChainService) Create(ctx context.Context, owner *domain.User, in ports.CreateChainInput) (*domain.Chain, error) {
	return s.createFn(ctx, owner, in)
}

func (s *stubChainService) Get(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error) {
	return s.getFn(ctx, owner, id)
}

func (s *stubChainService) Update(ctx context.Context, owner *domain.User, id string, p ports.ChainPatch) (*domain.Chain, error) {
	return s.updateFn(ctx, owner, id, p)
}

func (s *stubChainService) Delete(ctx context.Context, owner *domain.User, id string) error {
	return s.deleteFn(ctx, owner, id)
}

func (s *stubChainService) Duplicate(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error) {
	return s.duplicateFn(ctx, owner, id)
}

func (s *stubChainService) Reorder(ctx context.Context, owner *domain.User, ids []string) error {
	return s.reorderFn(ctx, owner, ids)
}

func (s *stubChainService) Stats(ctx context.Context, owner *domain.User, id string) (*ports.ChainStats, error) {
	return s.statsFn(ctx, owner, id)
}

func (s *stubChainService) ListOwned(ctx context.Context, owner *domain.User, in ports.ListChainsInput) (*ports.ChainPage, error) {
	return s.listOwnedFn(ctx, owner, in)
}

func (s *stubChainService) ListPublic(ctx context.Context, username string) (*ports.PublicProfile, []*domain.Chain, error) {
	return s.listPublicFn(ctx, username)
}

func (s *stubChainService) AggregateUserStats(ctx context.Context, owner *domain.User) (*ports.UserStats, error) {
	return s.aggregateFn(ctx, owner)
}

func (s *stubChainService) RecordView(ctx context.Context, id string) error {
	return s.viewFn(ctx, id)
}

func (s *stubChainService) RecordClick(ctx context.Context, id string) (string, error) {
	return s.clickFn(ctx, id)
}

func (s *stubChainService) AddParticipant(ctx context.Context, id string) (*domain.Chain, error) {
	return s.joinFn(ctx, id)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testUser() *domain.User {
	return &domain.User{ID: "user-1", Name: "Alice Martin", Email: "alice@example.com", Username: "alice", Plan: domain.PlanFree, IsActive: true}
}

func testChain() *domain.Chain {
	return &domain.Chain{
		ID:              "chain-1",
		UserID:          "user-1",
		Name:            "Headphones",
		Category:        domain.CategoryElectronics,
		PriceInitial:    200,
		PriceFinal:      150,
		Discount:        50,
		URL:             "https://shop.example.com/headphones",
		ExpiresAt:       fixedNow.Add(72 * time.Hour),
		ExpiresInDays:   3,
		MaxParticipants: 10,
		Status:          domain.ChainActive,
		Stats:           domain.ChainStats{Views: 4, Clicks: 1},
		Settings:        domain.DefaultSettings(),
	}
}

// newRequest builds an echo context with the validator installed. A non-nil
// user is injected the way the Auth middleware would.
func newRequest(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		middleware.SetUser(c, user)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	if resp["success"] != true {
		t.Fatalf("expected success envelope, got %v", resp)
	}
	return resp
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	d, ok := decode(t, rec)["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %s", rec.Body.String())
	}
	return d
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d (%s)", want, rec.Code, rec.Body.String())
	}
}
