package handler

import (
	"time"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

// --- Request types ---

type settingsRequest struct {
	IsPublic         *bool `json:"isPublic"`
	ShowParticipants *bool `json:"showParticipants"`
	ShowCountdown    *bool `json:"showCountdown"`
	Featured         *bool `json:"featured"`
}

func (r *settingsRequest) toPatch() domain.SettingsPatch {
	if r == nil {
		return domain.SettingsPatch{}
	}
	return domain.SettingsPatch(*r)
}

type createChainRequest struct {
	Name            string           `json:"name"            validate:"required,max=100"`
	Emoji           string           `json:"emoji"           validate:"max=16"`
	Description     string           `json:"description"     validate:"max=500"`
	Category        string           `json:"category"        validate:"omitempty,oneof=Electronics Fashion Home Sports Beauty Gaming Other"`
	PriceInitial    float64          `json:"priceInitial"    validate:"gte=0"`
	PriceFinal      float64          `json:"priceFinal"      validate:"gte=0"`
	URL             string           `json:"url"             validate:"required,httpurl"`
	ExpiresInDays   int              `json:"expiresInDays"   validate:"gte=0"`
	MaxParticipants int64            `json:"maxParticipants" validate:"gte=0"`
	Status          string           `json:"status"          validate:"omitempty,oneof=draft active paused expired completed"`
	Settings        *settingsRequest `json:"settings"`
}

func (r createChainRequest) toInput() ports.CreateChainInput {
	return ports.CreateChainInput{
		Name:            r.Name,
		Emoji:           r.Emoji,
		Description:     r.Description,
		Category:        domain.Category(r.Category),
		PriceInitial:    r.PriceInitial,
		PriceFinal:      r.PriceFinal,
		URL:             r.URL,
		ExpiresInDays:   r.ExpiresInDays,
		MaxParticipants: r.MaxParticipants,
		Status:          domain.ChainStatus(r.Status),
		Settings:        r.Settings.toPatch(),
	}
}

// updateChainRequest distinguishes absent fields (nil) from zero values.
type updateChainRequest struct {
	Name            *string          `json:"name"            validate:"omitempty,max=100"`
	Emoji           *string          `json:"emoji"           validate:"omitempty,max=16"`
	Description     *string          `json:"description"     validate:"omitempty,max=500"`
	Category        *string          `json:"category"        validate:"omitempty,oneof=Electronics Fashion Home Sports Beauty Gaming Other"`
	PriceInitial    *float64         `json:"priceInitial"    validate:"omitempty,gte=0"`
	PriceFinal      *float64         `json:"priceFinal"      validate:"omitempty,gte=0"`
	URL             *string          `json:"url"             validate:"omitempty,httpurl"`
	ExpiresInDays   *int             `json:"expiresInDays"   validate:"omitempty,gte=1"`
	MaxParticipants *int64           `json:"maxParticipants" validate:"omitempty,gte=1"`
	Status          *string          `json:"status"          validate:"omitempty,oneof=draft active paused expired completed"`
	Settings        *settingsRequest `json:"settings"`
}

func (r updateChainRequest) toPatch() ports.ChainPatch {
	p := ports.ChainPatch{
		Name:            r.Name,
		Emoji:           r.Emoji,
		Description:     r.Description,
		PriceInitial:    r.PriceInitial,
		PriceFinal:      r.PriceFinal,
		URL:             r.URL,
		ExpiresInDays:   r.ExpiresInDays,
		MaxParticipants: r.MaxParticipants,
	}
	if r.Category != nil {
		cat := domain.Category(*r.Category)
		p.Category = &cat
	}
	if r.Status != nil {
		st := domain.ChainStatus(*r.Status)
		p.Status = &st
	}
	if r.Settings != nil {
		s := r.Settings.toPatch()
		p.Settings = &s
	}
	return p
}

type reorderRequest struct {
	ChainIDs []string `json:"chainIds" validate:"required"`
}

type featuredRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

type listChainsQuery struct {
	Status string `query:"status"`
	Sort   string `query:"sort"`
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
}

// --- Response types ---

// chainResponse is a chain with its derived, never-stored fields.
type chainResponse struct {
	ID                   string               `json:"id"`
	UserID               string               `json:"userId,omitempty"`
	Name                 string               `json:"name"`
	Emoji                string               `json:"emoji"`
	Description          string               `json:"description"`
	Category             domain.Category      `json:"category"`
	PriceInitial         float64              `json:"priceInitial"`
	PriceFinal           float64              `json:"priceFinal"`
	Discount             float64              `json:"discount"`
	URL                  string               `json:"url"`
	ExpiresAt            time.Time            `json:"expiresAt"`
	ExpiresInDays        int                  `json:"expiresInDays"`
	MaxParticipants      int64                `json:"maxParticipants"`
	CurrentParticipants  int64                `json:"currentParticipants"`
	Status               domain.ChainStatus   `json:"status"`
	Stats                domain.ChainStats    `json:"stats"`
	Settings             domain.ChainSettings `json:"settings"`
	Order                int                  `json:"order"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
	DaysLeft             int                  `json:"daysLeft"`
	IsExpired            bool                 `json:"isExpired"`
	ConversionRate       float64              `json:"conversionRate"`
	ParticipantsProgress float64              `json:"participantsProgress"`
}

type paginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type chainListResponse struct {
	Chains     []chainResponse    `json:"chains"`
	Pagination paginationResponse `json:"pagination"`
}

type chainStatsResponse struct {
	Views                int64   `json:"views"`
	Clicks               int64   `json:"clicks"`
	Conversions          int64   `json:"conversions"`
	Revenue              float64 `json:"revenue"`
	ConversionRate       float64 `json:"conversionRate"`
	DaysLeft             int     `json:"daysLeft"`
	ParticipantsProgress float64 `json:"participantsProgress"`
}

type publicProfileResponse struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Initials string `json:"initials"`
}

type publicChainsResponse struct {
	User    publicProfileResponse `json:"user"`
	Chains  []chainResponse       `json:"chains"`
	IsOwner bool                  `json:"isOwner"`
}

type clickResponse struct {
	URL string `json:"url"`
}
