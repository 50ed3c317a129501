package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int

	touchErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
		if user.Username != "" && u.Username == user.Username {
			return nil, domain.ErrUsernameTaken
		}
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	created, err := r.Create(context.Background(), u)
	if err != nil {
		panic(err)
	}
	return created
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Name, u.Username, u.Bio, u.Avatar = update.Name, update.Username, update.Bio, update.Avatar
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.touchErr != nil {
		return r.touchErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

// ---------------------------------------------------------------------------
// In-memory chain repository, honouring the same guards as the Mongo one
// ---------------------------------------------------------------------------

type stubChainRepo struct {
	mu     sync.Mutex
	chains map[string]*domain.Chain
	nextID int

	createErr error
}

func newStubChainRepo() *stubChainRepo {
	return &stubChainRepo{chains: make(map[string]*domain.Chain)}
}

func cloneChain(c *domain.Chain) *domain.Chain {
	clone := *c
	return &clone
}

func (r *stubChainRepo) Create(_ context.Context, c *domain.Chain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	c.ID = fmt.Sprintf("chain-%d", r.nextID)
	r.chains[c.ID] = cloneChain(c)
	return nil
}

// put stores c as-is, bypassing the engine. Used to seed fixtures.
func (r *stubChainRepo) put(c *domain.Chain) *domain.Chain {
	if err := r.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

func (r *stubChainRepo) get(id string) *domain.Chain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneChain(r.chains[id])
}

func (r *stubChainRepo) FindByID(_ context.Context, id string) (*domain.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chains[id]
	if !ok {
		return nil, domain.ErrChainNotFound
	}
	return cloneChain(c), nil
}

func (r *stubChainRepo) FindOwned(_ context.Context, id, userID string) (*domain.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chains[id]
	if !ok || c.UserID != userID {
		return nil, domain.ErrChainNotFound
	}
	return cloneChain(c), nil
}

func (r *stubChainRepo) Update(_ context.Context, c *domain.Chain) (*domain.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.chains[c.ID]
	if !ok || stored.UserID != c.UserID {
		return nil, domain.ErrChainNotFound
	}
	next := cloneChain(c)
	next.Stats = stored.Stats
	next.CurrentParticipants = stored.CurrentParticipants
	next.Order = stored.Order
	next.CreatedAt = stored.CreatedAt
	r.chains[c.ID] = next
	return cloneChain(next), nil
}

func (r *stubChainRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chains[id]
	if !ok || c.UserID != userID {
		return domain.ErrChainNotFound
	}
	delete(r.chains, id)
	return nil
}

func (r *stubChainRepo) Count(_ context.Context, userID string, status domain.ChainStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.chains {
		if c.UserID == userID && (status == "" || c.Status == status) {
			n++
		}
	}
	return n, nil
}

func (r *stubChainRepo) List(_ context.Context, f ports.ChainListFilter) ([]*domain.Chain, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Chain
	for _, c := range r.chains {
		if c.UserID != f.UserID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.PublicOnly && !c.Settings.IsPublic {
			continue
		}
		matched = append(matched, cloneChain(c))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if f.Sort.Desc {
			return stubLess(matched[j], matched[i], f.Sort.Field)
		}
		return stubLess(matched[i], matched[j], f.Sort.Field)
	})

	total := int64(len(matched))
	start := min(f.Skip, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

func stubLess(a, b *domain.Chain, field ports.ChainSortField) bool {
	switch field {
	case ports.SortOrder:
		return a.Order < b.Order
	case ports.SortName:
		return strings.Compare(a.Name, b.Name) < 0
	case ports.SortPriceFinal:
		return a.PriceFinal < b.PriceFinal
	case ports.SortViews:
		return a.Stats.Views < b.Stats.Views
	case ports.SortClicks:
		return a.Stats.Clicks < b.Stats.Clicks
	case ports.SortExpiresAt:
		return a.ExpiresAt.Before(b.ExpiresAt)
	case ports.SortUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (r *stubChainRepo) SetOrder(_ context.Context, id, userID string, order int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chains[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	c.Order = order
	return true, nil
}

func (r *stubChainRepo) IncrementActive(_ context.Context, id string, counter ports.EngagementCounter) (*domain.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chains[id]
	if !ok || c.Status != domain.ChainActive {
		return nil, domain.ErrChainNotFound
	}
	switch counter {
	case ports.CounterViews:
		c.Stats.Views++
	case ports.CounterClicks:
		c.Stats.Clicks++
	}
	return cloneChain(c), nil
}

func (r *stubChainRepo) AddParticipant(_ context.Context, id string) (*domain.Chain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chains[id]
	if !ok {
		return nil, domain.ErrChainNotFound
	}
	if c.CurrentParticipants >= c.MaxParticipants {
		return nil, domain.ErrCapacityExceeded
	}
	c.CurrentParticipants++
	return cloneChain(c), nil
}

func (r *stubChainRepo) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.chains {
		if c.Status == domain.ChainActive && c.ExpiresAt.Before(now) {
			c.Status = domain.ChainExpired
			c.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *stubChainRepo) Totals(_ context.Context, userID string) (ports.ChainTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t ports.ChainTotals
	for _, c := range r.chains {
		if c.UserID != userID {
			continue
		}
		t.Views += c.Stats.Views
		t.Clicks += c.Stats.Clicks
		t.Revenue += c.Stats.Revenue
	}
	return t, nil
}

// ---------------------------------------------------------------------------
// Credential and token stubs
// ---------------------------------------------------------------------------

// plainHasher stores passwords with a reversible prefix so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Compare(hash, plain string) bool { return hash == "hashed:"+plain }

type stubTokens struct {
	issued []string
}

func (s *stubTokens) Issue(userID string) (string, error) {
	s.issued = append(s.issued, userID)
	return "token-for-" + userID, nil
}

func (s *stubTokens) Verify(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "token-for-")
	if !ok || id == "" {
		return "", domain.ErrTokenInvalid
	}
	return id, nil
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
