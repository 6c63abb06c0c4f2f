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

func (r *departmentRepository) Create(ctx context.Context, department *model.Department) error {
	query := `
		INSERT INTO departments (id, name, clinic_id, manager_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if department.ID == uuid.Nil {
		department.ID = uuid.New()
	}
	department.CreatedAt = time.Now()
	department.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		department.ID,
		department.Name,
		department.ClinicID,
		department.ManagerID,
		department.IsActive,
		department.CreatedAt,
		department.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

func (r *departmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	query := `
		SELECT id, name, clinic_id, manager_id, is_active, created_at, updated_at
		FROM departments
		WHERE id = $1
	`
	var department model.Department
	err := r.db.GetContext(ctx, &department, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("department")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &department, nil
}

func (r *departmentRepository) GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Department, error) {
	query := `
		SELECT id, name, clinic_id, manager_id, is_active, created_at, updated_at
		FROM departments
		WHERE clinic_id = $1 AND name = $2
	`
	var department model.Department
	err := r.db.GetContext(ctx, &department, query, clinicID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("department")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department by name: %w", err)
	}
	return &department, nil
}

func (r *departmentRepository) Update(ctx context.Context, department *model.Department) error {
	query := `
		UPDATE departments
		SET name = $1, manager_id = $2, is_active = $3, updated_at = $4
		WHERE id = $5
	`
	department.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		department.Name,
		department.ManagerID,
		department.IsActive,
		department.UpdatedAt,
		department.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("department")
	}

	return nil
}

func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("department")
	}

	return nil
}

func (r *departmentRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Department, error) {
	query := `
		SELECT id, name, clinic_id, manager_id, is_active, created_at, updated_at
		FROM departments
		WHERE clinic_id = $1
		ORDER BY name ASC
	`
	var departments []*model.Department
	err := r.db.SelectContext(ctx, &departments, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}
