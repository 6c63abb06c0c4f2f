package user

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/email"
	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	"github.com/medesk/helpdesk-api/internal/util"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

// Default clinic provisioned for users arriving without one.
const (
	DefaultClinicCode = "DEMO001"
	DefaultClinicName = "Clinica Esempio"
)

type Service struct {
	users   repository.UserRepository
	clinics repository.ClinicRepository
	rbac    repository.RBACRepository
	outbox  repository.OutboxRepository
	auditor *audit.Service
	mailer  email.Service
}

func NewService(
	users repository.UserRepository,
	clinics repository.ClinicRepository,
	rbac repository.RBACRepository,
	outbox repository.OutboxRepository,
	auditor *audit.Service,
	mailer email.Service,
) *Service {
	return &Service{
		users:   users,
		clinics: clinics,
		rbac:    rbac,
		outbox:  outbox,
		auditor: auditor,
		mailer:  mailer,
	}
}

// GetOrCreate syncs an external identity to a local user. Match order:
// external id, then email (adopting the identity), then a fresh account in
// the default clinic with the system user role. The last login timestamp is
// refreshed on every call.
func (s *Service) GetOrCreate(ctx context.Context, auth0ID, userEmail, name string) (*model.User, error) {
	if auth0ID == "" {
		return nil, apperrors.Validation("external identity is required")
	}
	if !util.IsValidEmail(userEmail) {
		return nil, apperrors.Validation("invalid email address")
	}

	user, err := s.users.GetByAuth0ID(ctx, auth0ID)
	if err == nil {
		return s.touchLogin(ctx, user)
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	user, err = s.users.GetByEmail(ctx, userEmail)
	if err == nil {
		// Existing local account: adopt the external identity.
		user.Auth0ID = &auth0ID
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return s.touchLogin(ctx, user)
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	clinic, err := s.defaultClinic(ctx)
	if err != nil {
		return nil, err
	}
	role, err := s.rbac.GetSystemRoleByName(ctx, model.RoleNameUser)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default role: %w", err)
	}

	now := time.Now()
	user = &model.User{
		Email:       userEmail,
		Name:        name,
		ClinicID:    clinic.ID,
		RoleID:      role.ID,
		Auth0ID:     &auth0ID,
		IsActive:    true,
		LastLoginAt: &now,
		Preferences: model.DefaultUserPreferences(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, "user.created", user)
	s.auditor.Log(ctx, user.ID, "create", "user", user.ID.String(), &audit.LogOptions{
		Metadata: map[string]string{"source": "identity_sync"},
	})
	_ = s.mailer.SendWelcome(ctx, user.Email, user.Name)
	return user, nil
}

type CreateInput struct {
	Email    string
	Name     string
	ClinicID *uuid.UUID
	RoleID   *uuid.UUID
	Auth0ID  *string
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*model.User, error) {
	if !util.IsValidEmail(input.Email) {
		return nil, apperrors.Validation("invalid email address")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("user name is required")
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.Conflict("a user with this email already exists")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}
	if input.Auth0ID != nil {
		if _, err := s.users.GetByAuth0ID(ctx, *input.Auth0ID); err == nil {
			return nil, apperrors.Conflict("a user with this external identity already exists")
		} else if !apperrors.IsNotFound(err) {
			return nil, err
		}
	}

	var clinicID uuid.UUID
	if input.ClinicID != nil {
		clinic, err := s.clinics.Get(ctx, *input.ClinicID)
		if err != nil {
			return nil, err
		}
		clinicID = clinic.ID
	} else {
		clinic, err := s.defaultClinic(ctx)
		if err != nil {
			return nil, err
		}
		clinicID = clinic.ID
	}

	var roleID uuid.UUID
	if input.RoleID != nil {
		role, err := s.rbac.GetRole(ctx, *input.RoleID)
		if err != nil {
			return nil, err
		}
		roleID = role.ID
	} else {
		role, err := s.rbac.GetSystemRoleByName(ctx, model.RoleNameUser)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default role: %w", err)
		}
		roleID = role.ID
	}

	user := &model.User{
		Email:       input.Email,
		Name:        strings.TrimSpace(input.Name),
		ClinicID:    clinicID,
		RoleID:      roleID,
		Auth0ID:     input.Auth0ID,
		IsActive:    true,
		Preferences: model.DefaultUserPreferences(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, "user.created", user)
	s.auditor.Log(ctx, actorID, "create", "user", user.ID.String(), &audit.LogOptions{Changes: user})
	_ = s.mailer.SendWelcome(ctx, user.Email, user.Name)
	return user, nil
}

type UpdateInput struct {
	Name     *string
	RoleID   *uuid.UUID
	ClinicID *uuid.UUID
	IsActive *bool
}

func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.Validation("user name is required")
		}
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.RoleID != nil {
		if _, err := s.rbac.GetRole(ctx, *input.RoleID); err != nil {
			return nil, err
		}
		user.RoleID = *input.RoleID
	}
	if input.ClinicID != nil {
		if _, err := s.clinics.Get(ctx, *input.ClinicID); err != nil {
			return nil, err
		}
		user.ClinicID = *input.ClinicID
	}
	if input.IsActive != nil {
		if !*input.IsActive && id == actorID {
			return nil, apperrors.Validation("Cannot deactivate your own account")
		}
		user.IsActive = *input.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "update", "user", user.ID.String(), &audit.LogOptions{Changes: user})
	return user, nil
}

// Deactivate disables the account. Users are never hard-deleted; a user may
// not deactivate themselves.
func (s *Service) Deactivate(ctx context.Context, actorID, id uuid.UUID) error {
	if id == actorID {
		return apperrors.Validation("Cannot deactivate your own account")
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.publish(ctx, "user.deactivated", user)
	s.auditor.Log(ctx, actorID, "deactivate", "user", id.String(), nil)
	return nil
}

func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs model.UserPreferences) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if prefs.Dashboard.ItemsPerPage <= 0 {
		return nil, apperrors.Validation("items per page must be positive")
	}

	user.Preferences = prefs
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.Get(ctx, id)
}

// ListByClinic returns the clinic's users with their role resolved. A nil
// clinic id lists everyone.
func (s *Service) ListByClinic(ctx context.Context, clinicID *uuid.UUID) ([]*model.UserWithRole, error) {
	users, err := s.users.List(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	roles := make(map[uuid.UUID]*model.Role)
	out := make([]*model.UserWithRole, 0, len(users))
	for _, u := range users {
		uw := &model.UserWithRole{User: *u}
		role, ok := roles[u.RoleID]
		if !ok {
			role, err = s.rbac.GetRole(ctx, u.RoleID)
			if apperrors.IsNotFound(err) {
				role = nil
			} else if err != nil {
				return nil, err
			}
			roles[u.RoleID] = role
		}
		uw.Role = role
		out = append(out, uw)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, clinicID *uuid.UUID) (*model.UserStats, error) {
	users, err := s.users.List(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	stats := &model.UserStats{ByRole: make(map[string]int)}
	roleNames := make(map[uuid.UUID]string)
	for _, u := range users {
		stats.Total++
		if u.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}

		name, ok := roleNames[u.RoleID]
		if !ok {
			role, err := s.rbac.GetRole(ctx, u.RoleID)
			if apperrors.IsNotFound(err) {
				name = "unknown"
			} else if err != nil {
				return nil, err
			} else {
				name = role.Name
			}
			roleNames[u.RoleID] = name
		}
		stats.ByRole[name]++
	}
	return stats, nil
}

func (s *Service) touchLogin(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// defaultClinic returns the demo clinic, provisioning it on first use.
func (s *Service) defaultClinic(ctx context.Context) (*model.Clinic, error) {
	clinic, err := s.clinics.GetByCode(ctx, DefaultClinicCode)
	if err == nil {
		return clinic, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	clinic = &model.Clinic{
		Name:     DefaultClinicName,
		Code:     DefaultClinicCode,
		Settings: model.DefaultClinicSettings(),
		IsActive: true,
	}
	if err := s.clinics.Create(ctx, clinic); err != nil {
		return nil, err
	}
	return clinic, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
		Status:    string(model.OutboxStatusPending),
	})
}
