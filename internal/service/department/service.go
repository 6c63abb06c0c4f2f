package department

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type Service struct {
	departments repository.DepartmentRepository
	clinics     repository.ClinicRepository
	users       repository.UserRepository
	categories  repository.CategoryRepository
	tickets     repository.TicketRepository
	auditor     *audit.Service
}

func NewService(
	departments repository.DepartmentRepository,
	clinics repository.ClinicRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	tickets repository.TicketRepository,
	auditor *audit.Service,
) *Service {
	return &Service{
		departments: departments,
		clinics:     clinics,
		users:       users,
		categories:  categories,
		tickets:     tickets,
		auditor:     auditor,
	}
}

type CreateInput struct {
	Name      string
	ClinicID  uuid.UUID
	ManagerID *uuid.UUID
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*model.Department, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("department name is required")
	}

	if _, err := s.clinics.Get(ctx, input.ClinicID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if _, err := s.departments.GetByName(ctx, input.ClinicID, name); err == nil {
		return nil, apperrors.Conflict("a department with this name already exists in the clinic")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	if input.ManagerID != nil {
		if err := s.verifyManager(ctx, *input.ManagerID, input.ClinicID); err != nil {
			return nil, err
		}
	}

	department := &model.Department{
		Name:      name,
		ClinicID:  input.ClinicID,
		ManagerID: input.ManagerID,
		IsActive:  true,
	}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "create", "department", department.ID.String(), &audit.LogOptions{Changes: department})
	return department, nil
}

type UpdateInput struct {
	Name      *string
	ManagerID *uuid.UUID
	IsActive  *bool
}

func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (*model.Department, error) {
	department, err := s.departments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.Validation("department name is required")
		}
		if name != department.Name {
			if _, err := s.departments.GetByName(ctx, department.ClinicID, name); err == nil {
				return nil, apperrors.Conflict("a department with this name already exists in the clinic")
			} else if !apperrors.IsNotFound(err) {
				return nil, err
			}
		}
		department.Name = name
	}
	if input.ManagerID != nil {
		if err := s.verifyManager(ctx, *input.ManagerID, department.ClinicID); err != nil {
			return nil, err
		}
		department.ManagerID = input.ManagerID
	}
	if input.IsActive != nil {
		department.IsActive = *input.IsActive
	}

	if err := s.departments.Update(ctx, department); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "update", "department", department.ID.String(), &audit.LogOptions{Changes: department})
	return department, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := s.departments.Get(ctx, id); err != nil {
		return err
	}

	categories, err := s.categories.ListByDepartment(ctx, id)
	if err != nil {
		return err
	}
	if len(categories) > 0 {
		return apperrors.ReferentialIntegrity("Cannot delete department: categories are still assigned to this department")
	}

	if err := s.departments.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Log(ctx, actorID, "delete", "department", id.String(), nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	return s.departments.Get(ctx, id)
}

// ListByClinic returns the clinic's departments with managers resolved.
func (s *Service) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.DepartmentWithManager, error) {
	departments, err := s.departments.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.DepartmentWithManager, 0, len(departments))
	for _, d := range departments {
		dw := &model.DepartmentWithManager{Department: *d}
		if d.ManagerID != nil {
			if manager, err := s.users.Get(ctx, *d.ManagerID); err == nil {
				dw.Manager = manager
			}
		}
		out = append(out, dw)
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, id uuid.UUID) (*model.DepartmentStats, error) {
	if _, err := s.departments.Get(ctx, id); err != nil {
		return nil, err
	}

	categories, err := s.categories.ListByDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &model.DepartmentStats{}
	for _, c := range categories {
		stats.TotalCategories++
		if c.IsActive {
			stats.ActiveCategories++
		}
		count, err := s.tickets.CountByCategory(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count category tickets: %w", err)
		}
		stats.TotalTickets += count
	}
	return stats, nil
}

func (s *Service) verifyManager(ctx context.Context, managerID, clinicID uuid.UUID) error {
	manager, err := s.users.Get(ctx, managerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NotFound("manager")
		}
		return err
	}
	if manager.ClinicID != clinicID {
		return apperrors.Validation("manager belongs to a different clinic")
	}
	return nil
}
