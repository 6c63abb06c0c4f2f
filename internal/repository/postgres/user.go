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

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, name, clinic_id, role_id, auth0_id, password_hash,
			is_active, last_login_at, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.ClinicID,
		user.RoleID,
		user.Auth0ID,
		user.PasswordHash,
		user.IsActive,
		user.LastLoginAt,
		user.Preferences,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, name, clinic_id, role_id, auth0_id, password_hash,
			is_active, last_login_at, preferences, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, name, clinic_id, role_id, auth0_id, password_hash,
			is_active, last_login_at, preferences, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*model.User, error) {
	query := `
		SELECT id, email, name, clinic_id, role_id, auth0_id, password_hash,
			is_active, last_login_at, preferences, created_at, updated_at
		FROM users
		WHERE auth0_id = $1
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, auth0ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by auth0 id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET email = $1, name = $2, clinic_id = $3, role_id = $4, auth0_id = $5,
			password_hash = $6, is_active = $7, last_login_at = $8, preferences = $9,
			updated_at = $10
		WHERE id = $11
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Name,
		user.ClinicID,
		user.RoleID,
		user.Auth0ID,
		user.PasswordHash,
		user.IsActive,
		user.LastLoginAt,
		user.Preferences,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("user")
	}

	return nil
}

func (r *userRepository) List(ctx context.Context, clinicID *uuid.UUID) ([]*model.User, error) {
	var query string
	var args []interface{}

	if clinicID != nil {
		query = `
			SELECT id, email, name, clinic_id, role_id, auth0_id, password_hash,
				is_active, last_login_at, preferences, created_at, updated_at
			FROM users
			WHERE clinic_id = $1
			ORDER BY created_at ASC
		`
		args = append(args, *clinicID)
	} else {
		query = `
			SELECT id, email, name, clinic_id, role_id, auth0_id, password_hash,
				is_active, last_login_at, preferences, created_at, updated_at
			FROM users
			ORDER BY created_at ASC
		`
	}

	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

func (r *userRepository) CountActiveByClinic(ctx context.Context, clinicID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE clinic_id = $1 AND is_active = TRUE`, clinicID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}
