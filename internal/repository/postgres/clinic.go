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

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, code, address, phone, email, settings, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if clinic.ID == uuid.Nil {
		clinic.ID = uuid.New()
	}
	clinic.CreatedAt = time.Now()
	clinic.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.Code,
		clinic.Address,
		clinic.Phone,
		clinic.Email,
		clinic.Settings,
		clinic.IsActive,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `
		SELECT id, name, code, address, phone, email, settings, is_active, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("clinic")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) GetByCode(ctx context.Context, code string) (*model.Clinic, error) {
	query := `
		SELECT id, name, code, address, phone, email, settings, is_active, created_at, updated_at
		FROM clinics
		WHERE code = $1
	`
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("clinic")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic by code: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, address = $2, phone = $3, email = $4, settings = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	clinic.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		clinic.Name,
		clinic.Address,
		clinic.Phone,
		clinic.Email,
		clinic.Settings,
		clinic.IsActive,
		clinic.UpdatedAt,
		clinic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinic: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("clinic")
	}

	return nil
}

func (r *clinicRepository) ListActive(ctx context.Context) ([]*model.Clinic, error) {
	query := `
		SELECT id, name, code, address, phone, email, settings, is_active, created_at, updated_at
		FROM clinics
		WHERE is_active = TRUE
		ORDER BY name ASC
	`
	var clinics []*model.Clinic
	err := r.db.SelectContext(ctx, &clinics, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}
