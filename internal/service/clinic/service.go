package clinic

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	"github.com/medesk/helpdesk-api/internal/util"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type Service struct {
	clinics repository.ClinicRepository
	users   repository.UserRepository
	tickets repository.TicketRepository
	auditor *audit.Service
}

func NewService(
	clinics repository.ClinicRepository,
	users repository.UserRepository,
	tickets repository.TicketRepository,
	auditor *audit.Service,
) *Service {
	return &Service{
		clinics: clinics,
		users:   users,
		tickets: tickets,
		auditor: auditor,
	}
}

type CreateInput struct {
	Name     string
	Code     string
	Address  string
	Phone    string
	Email    string
	Settings *model.ClinicSettings
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*model.Clinic, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("clinic name is required")
	}
	if !util.IsValidClinicCode(input.Code) {
		return nil, apperrors.Validation("clinic code must be 3-10 alphanumeric characters")
	}
	if input.Email != "" && !util.IsValidEmail(input.Email) {
		return nil, apperrors.Validation("invalid email address")
	}

	if _, err := s.clinics.GetByCode(ctx, input.Code); err == nil {
		return nil, apperrors.Conflict("a clinic with this code already exists")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	settings := model.DefaultClinicSettings()
	if input.Settings != nil {
		settings = *input.Settings
	}

	clinic := &model.Clinic{
		Name:     strings.TrimSpace(input.Name),
		Code:     input.Code,
		Address:  input.Address,
		Phone:    input.Phone,
		Email:    input.Email,
		Settings: settings,
		IsActive: true,
	}
	if err := s.clinics.Create(ctx, clinic); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "create", "clinic", clinic.ID.String(), &audit.LogOptions{Changes: clinic})
	return clinic, nil
}

type UpdateInput struct {
	Name     *string
	Address  *string
	Phone    *string
	Email    *string
	Settings *model.ClinicSettings
	IsActive *bool
}

// Update patches the clinic. The code is immutable after creation; clinics
// are never deleted, only deactivated here.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (*model.Clinic, error) {
	clinic, err := s.clinics.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.Validation("clinic name is required")
		}
		clinic.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		clinic.Address = *input.Address
	}
	if input.Phone != nil {
		clinic.Phone = *input.Phone
	}
	if input.Email != nil {
		if *input.Email != "" && !util.IsValidEmail(*input.Email) {
			return nil, apperrors.Validation("invalid email address")
		}
		clinic.Email = *input.Email
	}
	if input.Settings != nil {
		if input.Settings.DefaultSLAHours <= 0 {
			return nil, apperrors.Validation("default SLA hours must be positive")
		}
		clinic.Settings = *input.Settings
	}
	if input.IsActive != nil {
		clinic.IsActive = *input.IsActive
	}

	if err := s.clinics.Update(ctx, clinic); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "update", "clinic", clinic.ID.String(), &audit.LogOptions{Changes: clinic})
	return clinic, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	return s.clinics.Get(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*model.Clinic, error) {
	return s.clinics.GetByCode(ctx, code)
}

func (s *Service) ListActive(ctx context.Context) ([]*model.Clinic, error) {
	return s.clinics.ListActive(ctx)
}

func (s *Service) Stats(ctx context.Context, id uuid.UUID) (*model.ClinicStats, error) {
	if _, err := s.clinics.Get(ctx, id); err != nil {
		return nil, err
	}

	activeUsers, err := s.users.CountActiveByClinic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}
	totalTickets, err := s.tickets.CountByClinic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	openTickets, err := s.tickets.CountByClinicStatus(ctx, id, model.TicketStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to count open tickets: %w", err)
	}

	return &model.ClinicStats{
		ActiveUsers:  activeUsers,
		TotalTickets: totalTickets,
		OpenTickets:  openTickets,
	}, nil
}
