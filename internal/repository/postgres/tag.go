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

const tagColumns = `id, name, slug, description, clinic_id, category_id, color, is_active,
	usage_count, synonyms, ai_generated, created_at, updated_at`

func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) error {
	query := `
		INSERT INTO tags (id, name, slug, description, clinic_id, category_id, color, is_active,
			usage_count, synonyms, ai_generated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	tag.CreatedAt = time.Now()
	tag.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		tag.ID,
		tag.Name,
		tag.Slug,
		tag.Description,
		tag.ClinicID,
		tag.CategoryID,
		tag.Color,
		tag.IsActive,
		tag.UsageCount,
		tag.Synonyms,
		tag.AIGenerated,
		tag.CreatedAt,
		tag.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (r *tagRepository) Get(ctx context.Context, id uuid.UUID) (*model.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE id = $1`

	var tag model.Tag
	err := r.db.GetContext(ctx, &tag, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tag")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

func (r *tagRepository) GetBySlug(ctx context.Context, clinicID uuid.UUID, slug string) (*model.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE clinic_id = $1 AND slug = $2`

	var tag model.Tag
	err := r.db.GetContext(ctx, &tag, query, clinicID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tag")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag by slug: %w", err)
	}
	return &tag, nil
}

func (r *tagRepository) Update(ctx context.Context, tag *model.Tag) error {
	query := `
		UPDATE tags
		SET name = $1, slug = $2, description = $3, category_id = $4, color = $5,
			is_active = $6, synonyms = $7, ai_generated = $8, updated_at = $9
		WHERE id = $10
	`
	tag.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		tag.Name,
		tag.Slug,
		tag.Description,
		tag.CategoryID,
		tag.Color,
		tag.IsActive,
		tag.Synonyms,
		tag.AIGenerated,
		tag.UpdatedAt,
		tag.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("tag")
	}

	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("tag")
	}

	return nil
}

func (r *tagRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, filter model.TagFilter) ([]*model.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE clinic_id = $1`
	args := []interface{}{clinicID}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}
	query += " ORDER BY usage_count DESC, name ASC"

	var tags []*model.Tag
	err := r.db.SelectContext(ctx, &tags, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (r *tagRepository) IncrementUsage(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE tags
		SET usage_count = usage_count + 1, updated_at = $1
		WHERE id = $2
		RETURNING usage_count
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, time.Now(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.NotFound("tag")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment tag usage: %w", err)
	}
	return count, nil
}
