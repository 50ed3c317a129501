package handler

import (
	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

type registerRequest struct {
	Name     string `json:"name"     validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"omitempty,min=3,max=30"`
}

func (r registerRequest) toInput() ports.RegisterInput {
	return ports.RegisterInput{Name: r.Name, Email: r.Email, Password: r.Password, Username: r.Username}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name     *string `json:"name"     validate:"omitempty,max=50"`
	Username *string `json:"username" validate:"omitempty,max=30"`
	Bio      *string `json:"bio"      validate:"omitempty,max=200"`
	Avatar   *string `json:"avatar"`
}

func (r profileRequest) toInput() ports.ProfileInput {
	return ports.ProfileInput{Name: r.Name, Username: r.Username, Bio: r.Bio, Avatar: r.Avatar}
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6"`
}

// userResponse is the account as shown to its owner.
type userResponse struct {
	*domain.User
	Initials string `json:"initials"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{User: u, Initials: u.Initials()}
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  userResponse `json:"user"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userStatsResponse struct {
	TotalViews        int64   `json:"totalViews"`
	TotalClicks       int64   `json:"totalClicks"`
	TotalRevenue      float64 `json:"totalRevenue"`
	ConversionRate    float64 `json:"conversionRate"`
	ChainsCount       int64   `json:"chainsCount"`
	ActiveChainsCount int64   `json:"activeChainsCount"`
}

func toUserStatsResponse(s *ports.UserStats) userStatsResponse {
	return userStatsResponse(*s)
}
