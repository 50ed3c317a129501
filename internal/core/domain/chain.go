package domain

import (
	"fmt"
	"math"
	"regexp"
	"time"
	"unicode/utf8"
)

// ChainStatus represents the lifecycle state of a chain.
type ChainStatus string

const (
	ChainDraft     ChainStatus = "draft"
	ChainActive    ChainStatus = "active"
	ChainPaused    ChainStatus = "paused"
	ChainExpired   ChainStatus = "expired"
	ChainCompleted ChainStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ChainStatus) Valid() bool {
	switch s {
	case ChainDraft, ChainActive, ChainPaused, ChainExpired, ChainCompleted:
		return true
	}
	return false
}

// Category classifies the product a chain points to.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryFashion     Category = "Fashion"
	CategoryHome        Category = "Home"
	CategorySports      Category = "Sports"
	CategoryBeauty      Category = "Beauty"
	CategoryGaming      Category = "Gaming"
	CategoryOther       Category = "Other"
)

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryFashion, CategoryHome, CategorySports,
		CategoryBeauty, CategoryGaming, CategoryOther:
		return true
	}
	return false
}

const (
	DefaultEmoji           = "🔗"
	DefaultExpiresInDays   = 7
	DefaultMaxParticipants = 100

	MaxNameLength        = 100
	MaxDescriptionLength = 500

	day = 24 * time.Hour
)

var productURLPattern = regexp.MustCompile(`^https?://.+`)

// ValidProductURL reports whether u is an absolute http(s) URL.
func ValidProductURL(u string) bool {
	return productURLPattern.MatchString(u)
}

// ChainStats holds the engagement counters of a chain.
type ChainStats struct {
	Views       int64   `json:"views"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// ChainSettings holds the display flags of a chain.
type ChainSettings struct {
	IsPublic         bool `json:"isPublic"`
	ShowParticipants bool `json:"showParticipants"`
	ShowCountdown    bool `json:"showCountdown"`
	Featured         bool `json:"featured"`
}

// DefaultSettings is applied to new chains before any caller overrides.
func DefaultSettings() ChainSettings {
	return ChainSettings{IsPublic: true, ShowParticipants: true, ShowCountdown: true}
}

// SettingsPatch is a shallow, field-by-field override of ChainSettings.
type SettingsPatch struct {
	IsPublic         *bool
	ShowParticipants *bool
	ShowCountdown    *bool
	Featured         *bool
}

// Apply merges the present fields of p over s.
func (p SettingsPatch) Apply(s ChainSettings) ChainSettings {
	if p.IsPublic != nil {
		s.IsPublic = *p.IsPublic
	}
	if p.ShowParticipants != nil {
		s.ShowParticipants = *p.ShowParticipants
	}
	if p.ShowCountdown != nil {
		s.ShowCountdown = *p.ShowCountdown
	}
	if p.Featured != nil {
		s.Featured = *p.Featured
	}
	return s
}

// Chain is the core aggregate: a time-boxed discount link owned by one user.
type Chain struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"userId"`
	Name                string        `json:"name"`
	Emoji               string        `json:"emoji"`
	Description         string        `json:"description"`
	Category            Category      `json:"category"`
	PriceInitial        float64       `json:"priceInitial"`
	PriceFinal          float64       `json:"priceFinal"`
	Discount            float64       `json:"discount"`
	URL                 string        `json:"url"`
	ExpiresAt           time.Time     `json:"expiresAt"`
	ExpiresInDays       int           `json:"expiresInDays"`
	MaxParticipants     int64         `json:"maxParticipants"`
	CurrentParticipants int64         `json:"currentParticipants"`
	Status              ChainStatus   `json:"status"`
	Stats               ChainStats    `json:"stats"`
	Settings            ChainSettings `json:"settings"`
	Order               int           `json:"order"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// RecomputeDiscount derives the discount from the two prices.
func (c *Chain) RecomputeDiscount() {
	c.Discount = c.PriceInitial - c.PriceFinal
}

// ScheduleExpiry anchors the countdown at from.
func (c *Chain) ScheduleExpiry(from time.Time, days int) {
	c.ExpiresInDays = days
	c.ExpiresAt = from.Add(time.Duration(days) * day)
}

// DaysLeft is the number of started days until expiry, never negative.
func (c *Chain) DaysLeft(now time.Time) int {
	left := c.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

// IsExpired reports whether the chain's deadline has passed at now.
func (c *Chain) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// ConversionRate is clicks/views as a percentage with one decimal.
func (c *Chain) ConversionRate() float64 {
	return Percent(c.Stats.Clicks, c.Stats.Views)
}

// ParticipantsProgress is the filled share of the participant cap, in percent.
func (c *Chain) ParticipantsProgress() float64 {
	return Percent(c.CurrentParticipants, c.MaxParticipants)
}

// Percent returns part/whole*100 rounded to one decimal, or 0 when whole is 0.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// Validate checks the invariants a chain must satisfy before it is persisted.
func (c *Chain) Validate() error {
	switch n := utf8.RuneCountInString(c.Name); {
	case n == 0:
		return Invalid("name is required")
	case n > MaxNameLength:
		return Invalid(fmt.Sprintf("name cannot exceed %d characters", MaxNameLength))
	}
	if utf8.RuneCountInString(c.Description) > MaxDescriptionLength {
		return Invalid(fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength))
	}
	if !c.Category.Valid() {
		return Invalid("category is not supported")
	}
	if c.PriceInitial < 0 || c.PriceFinal < 0 {
		return Invalid("prices cannot be negative")
	}
	if !ValidProductURL(c.URL) {
		return Invalid("url must start with http:// or https://")
	}
	if c.ExpiresInDays < 1 {
		return Invalid("expiresInDays must be at least 1")
	}
	if c.MaxParticipants < 1 {
		return Invalid("maxParticipants must be at least 1")
	}
	if c.CurrentParticipants < 0 || c.CurrentParticipants > c.MaxParticipants {
		return Invalid("maxParticipants cannot be lower than the current participant count")
	}
	if !c.Status.Valid() {
		return Invalid("status is not supported")
	}
	return nil
}
