package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// chainLimits is the per-plan ceiling on owned chains. Plans absent from the
// table are unbounded.
var chainLimits = map[Plan]int64{
	PlanFree: 3,
	PlanPro:  20,
}

// ChainLimit returns the maximum number of chains the plan may own and
// whether such a ceiling exists at all.
func (p Plan) ChainLimit() (int64, bool) {
	limit, ok := chainLimits[p]
	return limit, ok
}

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// User models an account owning chains.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Username     string     `json:"username,omitempty"`
	Plan         Plan       `json:"plan"`
	IsActive     bool       `json:"isActive"`
	Bio          string     `json:"bio,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// Initials returns up to two upper-cased letters derived from the name.
func (u *User) Initials() string {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return "U"
	}
	words := strings.Fields(name)
	if len(words) >= 2 {
		return strings.ToUpper(string([]rune(words[0])[:1]) + string([]rune(words[1])[:1]))
	}
	r := []rune(name)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequirePlan fails with ErrPlanRequired unless the user's plan is one of
// allowed. A nil user is treated as unauthenticated.
func RequirePlan(u *User, allowed ...Plan) error {
	if u == nil {
		return ErrUnauthenticated
	}
	if slices.Contains(allowed, u.Plan) {
		return nil
	}
	names := make([]string, len(allowed))
	for i, p := range allowed {
		names[i] = string(p)
	}
	return fmt.Errorf("%w: requires plan %s", ErrPlanRequired, strings.Join(names, " or "))
}
