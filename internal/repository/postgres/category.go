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

const categoryColumns = `id, name, slug, description, clinic_id, department_id, visibility,
	requires_approval, is_active, parent_id, path, depth, sort_order, synonyms,
	created_at, updated_at`

// Create inserts the category. The sibling order is the current sibling
// count, computed by the insert statement itself so concurrent creates under
// the same parent cannot race a separate count query.
func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, clinic_id, department_id, visibility,
			requires_approval, is_active, parent_id, path, depth, sort_order, synonyms,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			(SELECT COUNT(*) FROM categories
			 WHERE clinic_id = $5 AND parent_id IS NOT DISTINCT FROM $10),
			$13, $14, $15)
		RETURNING sort_order
	`
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()

	err := r.db.GetContext(ctx, &category.Order, query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.ClinicID,
		category.DepartmentID,
		category.Visibility,
		category.RequiresApproval,
		category.IsActive,
		category.ParentID,
		category.Path,
		category.Depth,
		category.Synonyms,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	var category model.Category
	err := r.db.GetContext(ctx, &category, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("category")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, clinicID uuid.UUID, slug string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE clinic_id = $1 AND slug = $2`

	var category model.Category
	err := r.db.GetContext(ctx, &category, query, clinicID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("category")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return &category, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	query := `
		UPDATE categories
		SET name = $1, description = $2, department_id = $3, visibility = $4,
			requires_approval = $5, is_active = $6, synonyms = $7, updated_at = $8
		WHERE id = $9
	`
	category.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		category.Name,
		category.Description,
		category.DepartmentID,
		category.Visibility,
		category.RequiresApproval,
		category.IsActive,
		category.Synonyms,
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("category")
	}

	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("category")
	}

	return nil
}

func (r *categoryRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, filter model.CategoryFilter) ([]*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE clinic_id = $1`
	args := []interface{}{clinicID}

	if filter.Visibility != nil {
		args = append(args, *filter.Visibility)
		query += fmt.Sprintf(" AND visibility = $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	query += " ORDER BY depth ASC, sort_order ASC"

	var categories []*model.Category
	err := r.db.SelectContext(ctx, &categories, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE department_id = $1 ORDER BY depth ASC, sort_order ASC`

	var categories []*model.Category
	err := r.db.SelectContext(ctx, &categories, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories by department: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) ListPending(ctx context.Context, clinicID *uuid.UUID) ([]*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE requires_approval = TRUE AND is_active = FALSE`
	args := []interface{}{}

	if clinicID != nil {
		args = append(args, *clinicID)
		query += fmt.Sprintf(" AND clinic_id = $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	var categories []*model.Category
	err := r.db.SelectContext(ctx, &categories, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending categories: %w", err)
	}
	return categories, nil
}
