package ports

import (
	"context"
	"time"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
)

// CreateChainInput carries all data needed to create a chain. Zero values of
// Emoji, Category, ExpiresInDays, MaxParticipants and Status select defaults.
type CreateChainInput struct {
	Name            string
	Emoji           string
	Description     string
	Category        domain.Category
	PriceInitial    float64
	PriceFinal      float64
	URL             string
	ExpiresInDays   int
	MaxParticipants int64
	Status          domain.ChainStatus
	Settings        domain.SettingsPatch
}

// ChainPatch is a partial update. Nil fields are left untouched; non-nil
// fields are applied even when they hold a zero value.
type ChainPatch struct {
	Name            *string
	Emoji           *string
	Description     *string
	Category        *domain.Category
	PriceInitial    *float64
	PriceFinal      *float64
	URL             *string
	ExpiresInDays   *int
	MaxParticipants *int64
	Status          *domain.ChainStatus
	Settings        *domain.SettingsPatch
}

// ListChainsInput carries the query of the owner's chain listing.
type ListChainsInput struct {
	Status string // "all" or empty = no filter
	Sort   string // e.g. "-createdAt", "order"
	Page   int
	Limit  int
}

// ChainPage is one page of the owner's chains.
type ChainPage struct {
	Chains []*domain.Chain
	Total  int64
	Page   int
	Limit  int
	Pages  int
}

// ChainStats is the per-chain engagement summary with derived rates.
type ChainStats struct {
	domain.ChainStats
	ConversionRate       float64
	DaysLeft             int
	ParticipantsProgress float64
}

// PublicProfile is the owner summary shown next to public chains. It never
// carries the email or the credential hash.
type PublicProfile struct {
	Name     string
	Username string
	Avatar   string
	Bio      string
	Initials string
}

// UserStats aggregates engagement across every chain of one owner.
type UserStats struct {
	TotalViews        int64
	TotalClicks       int64
	TotalRevenue      float64
	ConversionRate    float64
	ChainsCount       int64
	ActiveChainsCount int64
}

// ChainService is the quota and lifecycle engine; it is the only component
// allowed to mutate chains.
type ChainService interface {
	Create(ctx context.Context, owner *domain.User, input CreateChainInput) (*domain.Chain, error)
	Get(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error)
	Update(ctx context.Context, owner *domain.User, id string, patch ChainPatch) (*domain.Chain, error)
	Delete(ctx context.Context, owner *domain.User, id string) error
	Duplicate(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error)
	Reorder(ctx context.Context, owner *domain.User, ids []string) error
	Stats(ctx context.Context, owner *domain.User, id string) (*ChainStats, error)
	ListOwned(ctx context.Context, owner *domain.User, input ListChainsInput) (*ChainPage, error)
	ListPublic(ctx context.Context, username string) (*PublicProfile, []*domain.Chain, error)
	AggregateUserStats(ctx context.Context, owner *domain.User) (*UserStats, error)

	RecordView(ctx context.Context, id string) error
	RecordClick(ctx context.Context, id string) (string, error)
	AddParticipant(ctx context.Context, id string) (*domain.Chain, error)

	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
