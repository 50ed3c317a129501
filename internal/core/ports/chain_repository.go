package ports

import (
	"context"
	"time"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

// ChainSortField names a sortable chain attribute.
type ChainSortField string

const (
	SortCreatedAt  ChainSortField = "createdAt"
	SortUpdatedAt  ChainSortField = "updatedAt"
	SortName       ChainSortField = "name"
	SortOrder      ChainSortField = "order"
	SortExpiresAt  ChainSortField = "expiresAt"
	SortPriceFinal ChainSortField = "priceFinal"
	SortViews      ChainSortField = "views"
	SortClicks     ChainSortField = "clicks"
)

// ChainSort orders a listing.
type ChainSort struct {
	Field ChainSortField
	Desc  bool
}

// EngagementCounter names an atomically incremented stats counter.
type EngagementCounter string

const (
	CounterViews  EngagementCounter = "views"
	CounterClicks EngagementCounter = "clicks"
)

// ChainListFilter carries the query parameters for listing chains.
type ChainListFilter struct {
	UserID     string             // always set; listings are owner-scoped
	Status     domain.ChainStatus // empty = any status
	PublicOnly bool               // settings.isPublic = true
	Sort       ChainSort
	Skip       int64
	Limit      int64 // 0 = no limit
}

// ChainTotals is the per-owner sum of engagement counters.
type ChainTotals struct {
	Views   int64
	Clicks  int64
	Revenue float64
}

// ChainRepository defines persistence operations for chains. Counter
// mutations must be atomic at document level.
type ChainRepository interface {
	Create(ctx context.Context, c *domain.Chain) error
	FindByID(ctx context.Context, id string) (*domain.Chain, error)
	// FindOwned returns domain.ErrChainNotFound when the chain is missing or
	// belongs to someone else.
	FindOwned(ctx context.Context, id, userID string) (*domain.Chain, error)
	// Update writes the editable fields of c (never stats or participants)
	// and returns the stored document.
	Update(ctx context.Context, c *domain.Chain) (*domain.Chain, error)
	Delete(ctx context.Context, id, userID string) error
	Count(ctx context.Context, userID string, status domain.ChainStatus) (int64, error)
	List(ctx context.Context, filter ChainListFilter) ([]*domain.Chain, int64, error)
	// SetOrder reports whether an owned chain matched.
	SetOrder(ctx context.Context, id, userID string, order int) (bool, error)
	// IncrementActive adds one to counter on an active chain only.
	IncrementActive(ctx context.Context, id string, counter EngagementCounter) (*domain.Chain, error)
	// AddParticipant increments currentParticipants while it is below the cap.
	AddParticipant(ctx context.Context, id string) (*domain.Chain, error)
	// ExpireOverdue moves active chains with expiresAt before now to expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	Totals(ctx context.Context, userID string) (ChainTotals, error)
}
