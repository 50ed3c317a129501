package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	copySuffix = " (copy)"
)

// featuredPlans may mark a chain as featured.
var featuredPlans = []domain.Plan{domain.PlanPro, domain.PlanEnterprise}

var sortFields = map[string]ports.ChainSortField{
	"createdAt":  ports.SortCreatedAt,
	"updatedAt":  ports.SortUpdatedAt,
	"name":       ports.SortName,
	"order":      ports.SortOrder,
	"expiresAt":  ports.SortExpiresAt,
	"priceFinal": ports.SortPriceFinal,
	"views":      ports.SortViews,
	"clicks":     ports.SortClicks,
}

// ChainService is the quota and lifecycle engine. It holds no state between
// calls; all shared state lives in the repositories.
type ChainService struct {
	chains ports.ChainRepository
	users  ports.UserRepository
	log    zerolog.Logger
	now    func() time.Time
}

func NewChainService(chains ports.ChainRepository, users ports.UserRepository, log zerolog.Logger) *ChainService {
	return &ChainService{chains: chains, users: users, log: log, now: time.Now}
}

// Create persists a new chain for owner after checking the plan quota.
func (s *ChainService) Create(ctx context.Context, owner *domain.User, in ports.CreateChainInput) (*domain.Chain, error) {
	count, err := s.chains.Count(ctx, owner.ID, "")
	if err != nil {
		return nil, fmt.Errorf("create chain: count: %w", err)
	}
	if limit, ok := owner.Plan.ChainLimit(); ok && count >= limit {
		return nil, fmt.Errorf("%w for plan %s (%d chains)", domain.ErrQuotaExceeded, owner.Plan, limit)
	}

	now := s.now().UTC()
	c := &domain.Chain{
		UserID:          owner.ID,
		Name:            strings.TrimSpace(in.Name),
		Emoji:           in.Emoji,
		Description:     in.Description,
		Category:        in.Category,
		PriceInitial:    in.PriceInitial,
		PriceFinal:      in.PriceFinal,
		URL:             in.URL,
		MaxParticipants: in.MaxParticipants,
		Status:          in.Status,
		Settings:        in.Settings.Apply(domain.DefaultSettings()),
		Order:           int(count),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if c.Emoji == "" {
		c.Emoji = domain.DefaultEmoji
	}
	if c.Category == "" {
		c.Category = domain.CategoryOther
	}
	if c.MaxParticipants == 0 {
		c.MaxParticipants = domain.DefaultMaxParticipants
	}
	if c.Status == "" {
		c.Status = domain.ChainActive
	}
	days := in.ExpiresInDays
	if days == 0 {
		days = domain.DefaultExpiresInDays
	}
	c.ScheduleExpiry(now, days)
	c.RecomputeDiscount()

	if c.Settings.Featured {
		if err := domain.RequirePlan(owner, featuredPlans...); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.chains.Create(ctx, c); err != nil {
		s.log.Error().Err(err).Str("user_id", owner.ID).Msg("failed to create chain")
		return nil, fmt.Errorf("create chain: %w", err)
	}

	s.log.Info().Str("chain_id", c.ID).Str("user_id", owner.ID).Str("plan", string(owner.Plan)).Msg("chain created")
	return c, nil
}

func (s *ChainService) Get(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error) {
	return s.chains.FindOwned(ctx, id, owner.ID)
}

// Update applies the fields present in patch to an owned chain.
func (s *ChainService) Update(ctx context.Context, owner *domain.User, id string, patch ports.ChainPatch) (*domain.Chain, error) {
	c, err := s.chains.FindOwned(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}

	if patch.Settings != nil && patch.Settings.Featured != nil && *patch.Settings.Featured {
		if err := domain.RequirePlan(owner, featuredPlans...); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	applyPatch(c, patch, now)
	c.RecomputeDiscount()
	c.UpdatedAt = now

	if err := c.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.chains.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("chain_id", id).Str("user_id", owner.ID).Msg("chain updated")
	return updated, nil
}

func applyPatch(c *domain.Chain, p ports.ChainPatch, now time.Time) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Emoji != nil {
		c.Emoji = *p.Emoji
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.PriceInitial != nil {
		c.PriceInitial = *p.PriceInitial
	}
	if p.PriceFinal != nil {
		c.PriceFinal = *p.PriceFinal
	}
	if p.URL != nil {
		c.URL = *p.URL
	}
	if p.MaxParticipants != nil {
		c.MaxParticipants = *p.MaxParticipants
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Settings != nil {
		c.Settings = p.Settings.Apply(c.Settings)
	}
	// Re-anchored on now, not on the creation time.
	if p.ExpiresInDays != nil {
		c.ScheduleExpiry(now, *p.ExpiresInDays)
	}
}

func (s *ChainService) Delete(ctx context.Context, owner *domain.User, id string) error {
	if err := s.chains.Delete(ctx, id, owner.ID); err != nil {
		return err
	}
	s.log.Info().Str("chain_id", id).Str("user_id", owner.ID).Msg("chain deleted")
	return nil
}

// Duplicate copies an owned chain into a fresh draft. The copy is not
// counted against the plan quota.
func (s *ChainService) Duplicate(ctx context.Context, owner *domain.User, id string) (*domain.Chain, error) {
	src, err := s.chains.FindOwned(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.chains.Count(ctx, owner.ID, "")
	if err != nil {
		return nil, fmt.Errorf("duplicate chain: count: %w", err)
	}

	now := s.now().UTC()
	dup := &domain.Chain{
		UserID:          owner.ID,
		Name:            copyName(src.Name),
		Emoji:           src.Emoji,
		Description:     src.Description,
		Category:        src.Category,
		PriceInitial:    src.PriceInitial,
		PriceFinal:      src.PriceFinal,
		URL:             src.URL,
		MaxParticipants: src.MaxParticipants,
		Status:          domain.ChainDraft,
		Settings:        src.Settings,
		Order:           int(count),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	days := src.ExpiresInDays
	if days < 1 {
		days = domain.DefaultExpiresInDays
	}
	dup.ScheduleExpiry(now, days)
	dup.RecomputeDiscount()

	// An owner who lost the plan keeps the copy but not the highlight.
	if dup.Settings.Featured && domain.RequirePlan(owner, featuredPlans...) != nil {
		dup.Settings.Featured = false
	}
	if err := dup.Validate(); err != nil {
		return nil, err
	}
	if err := s.chains.Create(ctx, dup); err != nil {
		return nil, fmt.Errorf("duplicate chain: %w", err)
	}

	s.log.Info().Str("chain_id", dup.ID).Str("source_id", src.ID).Str("user_id", owner.ID).Msg("chain duplicated")
	return dup, nil
}

// copyName appends copySuffix, shortening the base so the result still fits.
func copyName(name string) string {
	base := []rune(name)
	if room := domain.MaxNameLength - len([]rune(copySuffix)); len(base) > room {
		base = base[:room]
	}
	return strings.TrimSpace(string(base)) + copySuffix
}

// Reorder sets order = index for every listed chain the owner holds. Ids
// that are not owned are skipped without error; chains left out of ids keep
// their current order.
func (s *ChainService) Reorder(ctx context.Context, owner *domain.User, ids []string) error {
	for i, id := range ids {
		matched, err := s.chains.SetOrder(ctx, id, owner.ID, i)
		if err != nil {
			return fmt.Errorf("reorder chain %s: %w", id, err)
		}
		if !matched {
			s.log.Debug().Str("chain_id", id).Str("user_id", owner.ID).Msg("reorder skipped chain not owned by caller")
		}
	}
	return nil
}

func (s *ChainService) Stats(ctx context.Context, owner *domain.User, id string) (*ports.ChainStats, error) {
	c, err := s.chains.FindOwned(ctx, id, owner.ID)
	if err != nil {
		return nil, err
	}
	return &ports.ChainStats{
		ChainStats:           c.Stats,
		ConversionRate:       c.ConversionRate(),
		DaysLeft:             c.DaysLeft(s.now()),
		ParticipantsProgress: c.ParticipantsProgress(),
	}, nil
}

func (s *ChainService) ListOwned(ctx context.Context, owner *domain.User, in ports.ListChainsInput) (*ports.ChainPage, error) {
	var status domain.ChainStatus
	if raw := strings.TrimSpace(in.Status); raw != "" && raw != "all" {
		status = domain.ChainStatus(raw)
		if !status.Valid() {
			return nil, domain.Invalid("unknown status filter " + raw)
		}
	}

	sort, err := parseSort(in.Sort)
	if err != nil {
		return nil, err
	}

	page := in.Page
	if page < 1 {
		page = defaultPage
	}
	limit := in.Limit
	switch {
	case limit < 1:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}

	chains, total, err := s.chains.List(ctx, ports.ChainListFilter{
		UserID: owner.ID,
		Status: status,
		Sort:   sort,
		Skip:   int64(page-1) * int64(limit),
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}

	return &ports.ChainPage{
		Chains: chains,
		Total:  total,
		Page:   page,
		Limit:  limit,
		Pages:  int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// parseSort accepts "field" or "-field"; an empty value means newest first.
func parseSort(raw string) (ports.ChainSort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ports.ChainSort{Field: ports.SortCreatedAt, Desc: true}, nil
	}
	desc := strings.HasPrefix(raw, "-")
	field, ok := sortFields[strings.TrimLeft(raw, "-+")]
	if !ok {
		return ports.ChainSort{}, domain.Invalid("unsupported sort field " + raw)
	}
	return ports.ChainSort{Field: field, Desc: desc}, nil
}

// ListPublic returns the active, public chains of username in display order.
func (s *ChainService) ListPublic(ctx context.Context, username string) (*ports.PublicProfile, []*domain.Chain, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil, domain.ErrUserNotFound
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	chains, _, err := s.chains.List(ctx, ports.ChainListFilter{
		UserID:     user.ID,
		Status:     domain.ChainActive,
		PublicOnly: true,
		Sort:       ports.ChainSort{Field: ports.SortOrder},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list public chains: %w", err)
	}

	return &ports.PublicProfile{
		Name:     user.Name,
		Username: user.Username,
		Avatar:   user.Avatar,
		Bio:      user.Bio,
		Initials: user.Initials(),
	}, chains, nil
}

func (s *ChainService) AggregateUserStats(ctx context.Context, owner *domain.User) (*ports.UserStats, error) {
	totals, err := s.chains.Totals(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	all, err := s.chains.Count(ctx, owner.ID, "")
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: count: %w", err)
	}
	active, err := s.chains.Count(ctx, owner.ID, domain.ChainActive)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: count active: %w", err)
	}

	return &ports.UserStats{
		TotalViews:        totals.Views,
		TotalClicks:       totals.Clicks,
		TotalRevenue:      totals.Revenue,
		ConversionRate:    domain.Percent(totals.Clicks, totals.Views),
		ChainsCount:       all,
		ActiveChainsCount: active,
	}, nil
}

// RecordView counts one view on an active chain.
func (s *ChainService) RecordView(ctx context.Context, id string) error {
	_, err := s.chains.IncrementActive(ctx, id, ports.CounterViews)
	return err
}

// RecordClick counts one click on an active chain and returns its target URL.
func (s *ChainService) RecordClick(ctx context.Context, id string) (string, error) {
	c, err := s.chains.IncrementActive(ctx, id, ports.CounterClicks)
	if err != nil {
		return "", err
	}
	return c.URL, nil
}

func (s *ChainService) AddParticipant(ctx context.Context, id string) (*domain.Chain, error) {
	return s.chains.AddParticipant(ctx, id)
}

// SweepExpired transitions every overdue active chain to expired. Running it
// again with the same now is a no-op.
func (s *ChainService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.chains.ExpireOverdue(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired chains: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Time("now", now).Msg("expired chains swept")
	}
	return n, nil
}
