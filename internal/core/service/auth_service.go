package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Matfen2/daftlink-demo/internal/core/domain"
	"github.com/Matfen2/daftlink-demo/internal/core/ports"
)

const minPasswordLength = 6

// AuthService implements registration, login and account self-service.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, *domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" || email == "" {
		return "", nil, domain.Invalid("name and email are required")
	}
	if len(in.Password) < minPasswordLength {
		return "", nil, domain.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return "", nil, err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	if err := s.ensureUsernameFree(ctx, username); err != nil {
		return "", nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		Plan:         domain.PlanFree,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return token, created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.Invalid("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("%w: account disabled", domain.ErrUnauthenticated)
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, user *domain.User, in ports.ProfileInput) (*domain.User, error) {
	update := ports.ProfileUpdate{
		Name:     user.Name,
		Username: user.Username,
		Bio:      user.Bio,
		Avatar:   user.Avatar,
	}
	if in.Name != nil {
		update.Name = strings.TrimSpace(*in.Name)
		if update.Name == "" {
			return nil, domain.Invalid("name is required")
		}
	}
	if in.Username != nil {
		update.Username = strings.TrimSpace(*in.Username)
		if update.Username != "" && update.Username != user.Username {
			if err := s.ensureUsernameFree(ctx, update.Username); err != nil {
				return nil, err
			}
		}
	}
	if in.Bio != nil {
		update.Bio = *in.Bio
	}
	if in.Avatar != nil {
		update.Avatar = *in.Avatar
	}

	return s.users.UpdateProfile(ctx, user.ID, update)
}

// UpdatePassword replaces the credential and returns a fresh token.
func (s *AuthService) UpdatePassword(ctx context.Context, user *domain.User, current, next string) (string, error) {
	if current == "" || next == "" {
		return "", domain.Invalid("current and new password are required")
	}
	if len(next) < minPasswordLength {
		return "", domain.Invalid(fmt.Sprintf("new password must be at least %d characters", minPasswordLength))
	}

	stored, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if !s.hasher.Compare(stored.PasswordHash, current) {
		return "", domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return s.tokens.Issue(user.ID)
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrEmailTaken
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *AuthService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return domain.ErrUsernameTaken
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}
