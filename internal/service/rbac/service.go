package rbac

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

// permissionSpec is one row of the fixed permission catalog.
type permissionSpec struct {
	resource string
	actions  []string
	scopes   []string
}

// The catalog seeded by SeedSystemPermissions. Order matters: roles derived
// at seed time reference permission ids in catalog order.
var permissionCatalog = []permissionSpec{
	{"tickets", []string{"read", "write", "delete"}, []string{model.ScopeOwn, model.ScopeClinic, model.ScopeGlobal}},
	{"users", []string{"read", "write", "delete"}, []string{model.ScopeClinic, model.ScopeGlobal}},
	{"clinics", []string{"read", "write", "delete"}, []string{model.ScopeGlobal}},
	{"categories", []string{"read", "write", "delete", "approve"}, []string{model.ScopeClinic}},
	{"settings", []string{"read", "write"}, []string{model.ScopeClinic, model.ScopeGlobal}},
	{"reports", []string{"read"}, []string{model.ScopeClinic, model.ScopeGlobal}},
}

// systemRoleSpec derives a system role's permission set from the catalog at
// seed time. The membership predicate is evaluated once; later catalog
// changes do not retrofit existing roles.
type systemRoleSpec struct {
	name        string
	description string
	includes    func(p *model.Permission) bool
}

var systemRoleSpecs = []systemRoleSpec{
	{
		name:        model.RoleNameUser,
		description: "Utente base che può creare e gestire i propri ticket",
		includes: func(p *model.Permission) bool {
			return (p.Resource == "tickets" && p.Scope == model.ScopeOwn) ||
				(p.Resource == "tickets" && p.Action == "read" && p.Scope == model.ScopeClinic) ||
				(p.Resource == "categories" && p.Action == "read")
		},
	},
	{
		name:        model.RoleNameAgent,
		description: "Agente che può gestire ticket della propria clinica",
		includes: func(p *model.Permission) bool {
			return p.Scope == model.ScopeClinic ||
				(p.Resource == "tickets" && p.Scope == model.ScopeOwn)
		},
	},
	{
		name:        model.RoleNameAdmin,
		description: "Amministratore con accesso completo al sistema",
		includes: func(p *model.Permission) bool {
			return true
		},
	},
}

type Service struct {
	repo    repository.RBACRepository
	users   repository.UserRepository
	auditor *audit.Service

	// invalidate flushes the authorization decision cache after a role or
	// permission mutation. May be nil in tests.
	invalidate func()
}

func NewService(repo repository.RBACRepository, users repository.UserRepository, auditor *audit.Service, invalidate func()) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		auditor:    auditor,
		invalidate: invalidate,
	}
}

func (s *Service) flushDecisions() {
	if s.invalidate != nil {
		s.invalidate()
	}
}

// SeedSystemPermissions creates the fixed permission catalog. Idempotent:
// if any permission row already exists the stored set is returned untouched.
func (s *Service) SeedSystemPermissions(ctx context.Context) ([]*model.Permission, error) {
	count, err := s.repo.CountPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count permissions: %w", err)
	}
	if count > 0 {
		return s.repo.ListPermissions(ctx)
	}

	var created []*model.Permission
	for _, spec := range permissionCatalog {
		for _, action := range spec.actions {
			for _, scope := range spec.scopes {
				perm := &model.Permission{
					Resource: spec.resource,
					Action:   action,
					Scope:    scope,
				}
				perm.ID = uuid.New()
				if err := s.repo.CreatePermission(ctx, perm); err != nil {
					return nil, fmt.Errorf("failed to seed permission %s:%s:%s: %w", spec.resource, action, scope, err)
				}
				created = append(created, perm)
			}
		}
	}

	s.flushDecisions()
	return created, nil
}

// SeedSystemRoles derives the three system roles from the current permission
// catalog. Idempotent: if any system role exists, nothing is created.
func (s *Service) SeedSystemRoles(ctx context.Context) ([]*model.Role, error) {
	count, err := s.repo.CountSystemRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count system roles: %w", err)
	}
	if count > 0 {
		return s.repo.ListRoles(ctx, nil)
	}

	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	if len(perms) == 0 {
		return nil, apperrors.Validation("permissions must be seeded before system roles")
	}

	var roles []*model.Role
	for _, spec := range systemRoleSpecs {
		var ids model.UUIDList
		for _, p := range perms {
			if spec.includes(p) {
				ids = append(ids, p.ID)
			}
		}

		role := &model.Role{
			Name:        spec.name,
			Description: spec.description,
			Permissions: ids,
			IsSystem:    true,
		}
		role.ID = uuid.New()
		if err := s.repo.CreateRole(ctx, role); err != nil {
			return nil, fmt.Errorf("failed to seed role %s: %w", spec.name, err)
		}
		roles = append(roles, role)
	}

	s.flushDecisions()
	return roles, nil
}

func (s *Service) CreateRole(ctx context.Context, actorID uuid.UUID, role *model.Role) error {
	if len(strings.TrimSpace(role.Name)) < 2 {
		return apperrors.Validation("role name must be at least 2 characters")
	}

	// Every referenced permission must exist, or the whole call fails.
	for _, permID := range role.Permissions {
		if _, err := s.repo.GetPermission(ctx, permID); err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.Validation("one or more permissions not found")
			}
			return fmt.Errorf("failed to verify permission: %w", err)
		}
	}

	role.IsSystem = false
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	s.flushDecisions()
	s.auditor.Log(ctx, actorID, "create", "role", role.ID.String(), &audit.LogOptions{Changes: role})
	return nil
}

func (s *Service) UpdateRole(ctx context.Context, actorID, id uuid.UUID, name, description *string, permissions *model.UUIDList) (*model.Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, apperrors.Validation("Cannot modify system roles")
	}

	if name != nil {
		if len(strings.TrimSpace(*name)) < 2 {
			return nil, apperrors.Validation("role name must be at least 2 characters")
		}
		role.Name = *name
	}
	if description != nil {
		role.Description = *description
	}
	if permissions != nil {
		for _, permID := range *permissions {
			if _, err := s.repo.GetPermission(ctx, permID); err != nil {
				if apperrors.IsNotFound(err) {
					return nil, apperrors.Validation("one or more permissions not found")
				}
				return nil, fmt.Errorf("failed to verify permission: %w", err)
			}
		}
		role.Permissions = *permissions
	}

	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.flushDecisions()
	s.auditor.Log(ctx, actorID, "update", "role", role.ID.String(), &audit.LogOptions{Changes: role})
	return role, nil
}

func (s *Service) DeleteRole(ctx context.Context, actorID, id uuid.UUID) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperrors.Validation("Cannot delete system roles")
	}

	assigned, err := s.users.CountByRole(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count role assignments: %w", err)
	}
	if assigned > 0 {
		return apperrors.ReferentialIntegrity("Cannot delete role: users are still assigned to this role")
	}

	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.flushDecisions()
	s.auditor.Log(ctx, actorID, "delete", "role", id.String(), nil)
	return nil
}

func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (*model.RoleWithPermissions, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &model.RoleWithPermissions{Role: *role}
	for _, permID := range role.Permissions {
		perm, err := s.repo.GetPermission(ctx, permID)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load permission: %w", err)
		}
		out.PermissionDetails = append(out.PermissionDetails, perm)
	}
	return out, nil
}

// ListRoles returns roles visible for a clinic: its own roles plus, when
// includeSystem is set, the global system roles. A nil clinicID lists
// every role.
func (s *Service) ListRoles(ctx context.Context, clinicID *uuid.UUID, includeSystem bool) ([]*model.Role, error) {
	roles, err := s.repo.ListRoles(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	if clinicID != nil && includeSystem {
		all, err := s.repo.ListRoles(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list system roles: %w", err)
		}
		for _, r := range all {
			if r.IsSystem {
				roles = append(roles, r)
			}
		}
		return roles, nil
	}

	if !includeSystem {
		filtered := roles[:0]
		for _, r := range roles {
			if !r.IsSystem {
				filtered = append(filtered, r)
			}
		}
		roles = filtered
	}
	return roles, nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]*model.Permission, error) {
	return s.repo.ListPermissions(ctx)
}
