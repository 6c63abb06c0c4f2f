package auth

import (
	"context"
	"time"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	userservice "github.com/medesk/helpdesk-api/internal/service/user"
	"github.com/medesk/helpdesk-api/pkg/auth"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
	"github.com/medesk/helpdesk-api/pkg/security"
)

type Service struct {
	users  repository.UserRepository
	sync   *userservice.Service
	tokens auth.JWTService
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, sync *userservice.Service, tokens auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		users:  users,
		sync:   sync,
		tokens: tokens,
		hasher: hasher,
	}
}

type AuthResult struct {
	User   *model.User     `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Sync exchanges an external identity for a local session, creating the
// account on first contact.
func (s *Service) Sync(ctx context.Context, auth0ID, email, name string) (*AuthResult, error) {
	user, err := s.sync.GetOrCreate(ctx, auth0ID, email, name)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}
	return s.issue(user)
}

// Login authenticates a local account by email and password. Only seeded
// admin accounts carry a password hash; everyone else authenticates through
// the external identity provider.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}
	if user.PasswordHash == nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if err := s.hasher.Compare(*user.PasswordHash, password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	return s.issue(user)
}

func (s *Service) issue(user *model.User) (*AuthResult, error) {
	pair, err := s.tokens.GenerateTokenPair(user.ID, user.ClinicID, user.RoleID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}
