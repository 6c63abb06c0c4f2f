package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/model"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

func (r *rbacRepository) CreateRole(ctx context.Context, role *model.Role) error {
	query := `
		INSERT INTO roles (id, name, description, clinic_id, permissions, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		role.ID,
		role.Name,
		role.Description,
		role.ClinicID,
		role.Permissions,
		role.IsSystem,
		role.CreatedAt,
		role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *rbacRepository) GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	query := `
		SELECT id, name, description, clinic_id, permissions, is_system, created_at, updated_at
		FROM roles
		WHERE id = $1
	`
	var role model.Role
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("role")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

func (r *rbacRepository) GetSystemRoleByName(ctx context.Context, name string) (*model.Role, error) {
	query := `
		SELECT id, name, description, clinic_id, permissions, is_system, created_at, updated_at
		FROM roles
		WHERE is_system = TRUE AND name = $1
	`
	var role model.Role
	err := r.db.GetContext(ctx, &role, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("role")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get system role: %w", err)
	}
	return &role, nil
}

func (r *rbacRepository) UpdateRole(ctx context.Context, role *model.Role) error {
	query := `
		UPDATE roles
		SET name = $1, description = $2, permissions = $3, updated_at = $4
		WHERE id = $5
	`
	role.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		role.Name,
		role.Description,
		role.Permissions,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("role")
	}

	return nil
}

func (r *rbacRepository) DeleteRole(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("role")
	}

	return nil
}

func (r *rbacRepository) ListRoles(ctx context.Context, clinicID *uuid.UUID) ([]*model.Role, error) {
	var query string
	var args []interface{}

	if clinicID != nil {
		query = `
			SELECT id, name, description, clinic_id, permissions, is_system, created_at, updated_at
			FROM roles
			WHERE clinic_id = $1
			ORDER BY created_at ASC
		`
		args = append(args, *clinicID)
	} else {
		query = `
			SELECT id, name, description, clinic_id, permissions, is_system, created_at, updated_at
			FROM roles
			ORDER BY created_at ASC
		`
	}

	var roles []*model.Role
	err := r.db.SelectContext(ctx, &roles, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *rbacRepository) CountSystemRoles(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM roles WHERE is_system = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("failed to count system roles: %w", err)
	}
	return count, nil
}

func (r *rbacRepository) CreatePermission(ctx context.Context, permission *model.Permission) error {
	query := `
		INSERT INTO permissions (id, resource, action, scope, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if permission.ID == uuid.Nil {
		permission.ID = uuid.New()
	}
	permission.CreatedAt = time.Now()
	permission.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		permission.ID,
		permission.Resource,
		permission.Action,
		permission.Scope,
		permission.CreatedAt,
		permission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create permission: %w", err)
	}
	return nil
}

func (r *rbacRepository) GetPermission(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	query := `
		SELECT id, resource, action, scope, created_at, updated_at
		FROM permissions
		WHERE id = $1
	`
	var permission model.Permission
	err := r.db.GetContext(ctx, &permission, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("permission")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return &permission, nil
}

func (r *rbacRepository) ListPermissions(ctx context.Context) ([]*model.Permission, error) {
	query := `
		SELECT id, resource, action, scope, created_at, updated_at
		FROM permissions
		ORDER BY resource ASC, action ASC, scope ASC
	`
	var permissions []*model.Permission
	err := r.db.SelectContext(ctx, &permissions, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return permissions, nil
}

func (r *rbacRepository) CountPermissions(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM permissions`)
	if err != nil {
		return 0, fmt.Errorf("failed to count permissions: %w", err)
	}
	return count, nil
}
