package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	categoryservice "github.com/medesk/helpdesk-api/internal/service/category"
	rbacservice "github.com/medesk/helpdesk-api/internal/service/rbac"
	userservice "github.com/medesk/helpdesk-api/internal/service/user"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
	"github.com/medesk/helpdesk-api/pkg/security"
)

const (
	demoAdminEmail = "admin@clinica-esempio.it"
	demoAdminName  = "Amministratore Demo"
)

// Summary reports what InitializeDatabase created.
type Summary struct {
	Permissions int       `json:"permissions"`
	Roles       int       `json:"roles"`
	ClinicID    uuid.UUID `json:"clinic_id"`
	Departments int       `json:"departments"`
	Categories  int       `json:"categories"`
	AdminUserID uuid.UUID `json:"admin_user_id"`
}

type Service struct {
	rbac        *rbacservice.Service
	rbacRepo    repository.RBACRepository
	clinics     repository.ClinicRepository
	departments repository.DepartmentRepository
	categories  *categoryservice.Service
	users       repository.UserRepository
	truncate    repository.TruncateRepository
	hasher      security.PasswordHasher
	logger      *zerolog.Logger
}

func NewService(
	rbac *rbacservice.Service,
	rbacRepo repository.RBACRepository,
	clinics repository.ClinicRepository,
	departments repository.DepartmentRepository,
	categories *categoryservice.Service,
	users repository.UserRepository,
	truncate repository.TruncateRepository,
	hasher security.PasswordHasher,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		rbac:        rbac,
		rbacRepo:    rbacRepo,
		clinics:     clinics,
		departments: departments,
		categories:  categories,
		users:       users,
		truncate:    truncate,
		hasher:      hasher,
		logger:      logger,
	}
}

// InitializeDatabase seeds a fresh database: permission catalog, system
// roles, the demo clinic with departments and categories, and a local admin
// account. Refuses to run against a database that already holds permissions.
func (s *Service) InitializeDatabase(ctx context.Context, adminPassword string) (*Summary, error) {
	count, err := s.rbacRepo.CountPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect database: %w", err)
	}
	if count > 0 {
		return nil, apperrors.Conflict("database already initialized")
	}

	perms, err := s.rbac.SeedSystemPermissions(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.rbac.SeedSystemRoles(ctx)
	if err != nil {
		return nil, err
	}

	clinic := &model.Clinic{
		Name:     userservice.DefaultClinicName,
		Code:     userservice.DefaultClinicCode,
		Email:    "info@clinica-esempio.it",
		Settings: model.DefaultClinicSettings(),
		IsActive: true,
	}
	if err := s.clinics.Create(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to create demo clinic: %w", err)
	}

	departmentNames := []string{"IT", "Risorse Umane"}
	departmentIDs := make(map[string]uuid.UUID, len(departmentNames))
	for _, name := range departmentNames {
		dept := &model.Department{
			Name:     name,
			ClinicID: clinic.ID,
			IsActive: true,
		}
		if err := s.departments.Create(ctx, dept); err != nil {
			return nil, fmt.Errorf("failed to create department %s: %w", name, err)
		}
		departmentIDs[name] = dept.ID
	}

	adminRole, err := s.rbacRepo.GetSystemRoleByName(ctx, model.RoleNameAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve admin role: %w", err)
	}

	hash, err := s.hasher.Hash(adminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		Email:        demoAdminEmail,
		Name:         demoAdminName,
		ClinicID:     clinic.ID,
		RoleID:       adminRole.ID,
		PasswordHash: &hash,
		IsActive:     true,
		Preferences:  model.DefaultUserPreferences(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create demo admin: %w", err)
	}

	itDeptID := departmentIDs["IT"]
	hrDeptID := departmentIDs["Risorse Umane"]
	demoCategories := []categoryservice.CreateInput{
		{
			Name:         "Supporto Tecnico",
			Description:  strPtr("Problemi tecnici e supporto IT"),
			ClinicID:     clinic.ID,
			DepartmentID: &itDeptID,
			Visibility:   model.VisibilityPublic,
		},
		{
			Name:         "Richieste HR",
			Description:  strPtr("Richieste relative alle risorse umane"),
			ClinicID:     clinic.ID,
			DepartmentID: &hrDeptID,
			Visibility:   model.VisibilityPublic,
		},
		{
			Name:        "Manutenzione",
			Description: strPtr("Richieste di manutenzione strutture"),
			ClinicID:    clinic.ID,
			Visibility:  model.VisibilityPublic,
		},
	}
	for _, input := range demoCategories {
		if _, err := s.categories.Create(ctx, admin.ID, input); err != nil {
			return nil, fmt.Errorf("failed to create category %s: %w", input.Name, err)
		}
	}

	s.logger.Info().
		Str("clinic_id", clinic.ID.String()).
		Str("admin_user_id", admin.ID.String()).
		Msg("database initialized")

	return &Summary{
		Permissions: len(perms),
		Roles:       len(roles),
		ClinicID:    clinic.ID,
		Departments: len(departmentNames),
		Categories:  len(demoCategories),
		AdminUserID: admin.ID,
	}, nil
}

func strPtr(s string) *string { return &s }

// ResetDatabase wipes every table. Destructive; callers must gate it behind
// the development-reset config flag.
func (s *Service) ResetDatabase(ctx context.Context) error {
	if err := s.truncate.TruncateAll(ctx); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	s.logger.Warn().Msg("database reset: all tables truncated")
	return nil
}
