package handler

import (
	"time"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

func toChainResponse(c *domain.Chain, now time.Time) chainResponse {
	return chainResponse{
		ID:                   c.ID,
		UserID:               c.UserID,
		Name:                 c.Name,
		Emoji:                c.Emoji,
		Description:          c.Description,
		Category:             c.Category,
		PriceInitial:         c.PriceInitial,
		PriceFinal:           c.PriceFinal,
		Discount:             c.Discount,
		URL:                  c.URL,
		ExpiresAt:            c.ExpiresAt,
		ExpiresInDays:        c.ExpiresInDays,
		MaxParticipants:      c.MaxParticipants,
		CurrentParticipants:  c.CurrentParticipants,
		Status:               c.Status,
		Stats:                c.Stats,
		Settings:             c.Settings,
		Order:                c.Order,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
		DaysLeft:             c.DaysLeft(now),
		IsExpired:            c.IsExpired(now),
		ConversionRate:       c.ConversionRate(),
		ParticipantsProgress: c.ParticipantsProgress(),
	}
}

func toChainResponses(chains []*domain.Chain, now time.Time) []chainResponse {
	out := make([]chainResponse, 0, len(chains))
	for _, c := range chains {
		out = append(out, toChainResponse(c, now))
	}
	return out
}

// toPublicChainResponses strips the owner reference from every chain.
func toPublicChainResponses(chains []*domain.Chain, now time.Time) []chainResponse {
	out := toChainResponses(chains, now)
	for i := range out {
		out[i].UserID = ""
	}
	return out
}

func toChainListResponse(p *ports.ChainPage, now time.Time) chainListResponse {
	return chainListResponse{
		Chains: toChainResponses(p.Chains, now),
		Pagination: paginationResponse{
			Page:  p.Page,
			Limit: p.Limit,
			Total: p.Total,
			Pages: p.Pages,
		},
	}
}

func toChainStatsResponse(s *ports.ChainStats) chainStatsResponse {
	return chainStatsResponse{
		Views:                s.Views,
		Clicks:               s.Clicks,
		Conversions:          s.Conversions,
		Revenue:              s.Revenue,
		ConversionRate:       s.ConversionRate,
		DaysLeft:             s.DaysLeft,
		ParticipantsProgress: s.ParticipantsProgress,
	}
}

func toPublicProfileResponse(p *ports.PublicProfile) publicProfileResponse {
	return publicProfileResponse(*p)
}
