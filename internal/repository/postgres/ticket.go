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

const ticketColumns = `id, title, description, status, priority, category_id, clinic_id,
	creator_id, assignee_id, visibility, custom_fields, sla_deadline, tags,
	created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	query := `
		INSERT INTO tickets (id, title, description, status, priority, category_id, clinic_id,
			creator_id, assignee_id, visibility, custom_fields, sla_deadline, tags,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.ClinicID,
		ticket.CreatorID,
		ticket.AssigneeID,
		ticket.Visibility,
		ticket.CustomFields,
		ticket.SLADeadline,
		ticket.Tags,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) Get(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	var ticket model.Ticket
	err := r.db.GetContext(ctx, &ticket, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("ticket")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *model.Ticket) error {
	query := `
		UPDATE tickets
		SET title = $1, description = $2, status = $3, priority = $4, category_id = $5,
			assignee_id = $6, visibility = $7, custom_fields = $8, sla_deadline = $9,
			tags = $10, updated_at = $11
		WHERE id = $12
	`
	ticket.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.AssigneeID,
		ticket.Visibility,
		ticket.CustomFields,
		ticket.SLADeadline,
		ticket.Tags,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("ticket")
	}

	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter model.TicketFilter) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE 1=1`
	args := []interface{}{}

	if filter.ClinicID != uuid.Nil {
		args = append(args, filter.ClinicID)
		query += fmt.Sprintf(" AND clinic_id = $%d", len(args))
	}
	if filter.CreatorID != uuid.Nil {
		args = append(args, filter.CreatorID)
		query += fmt.Sprintf(" AND creator_id = $%d", len(args))
	}
	if filter.AssigneeID != uuid.Nil {
		args = append(args, filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	var tickets []*model.Ticket
	err := r.db.SelectContext(ctx, &tickets, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

func (r *ticketRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tickets WHERE category_id = $1`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets by category: %w", err)
	}
	return count, nil
}

func (r *ticketRepository) CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tickets WHERE clinic_id = $1`, clinicID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets by clinic: %w", err)
	}
	return count, nil
}

func (r *ticketRepository) CountByClinicStatus(ctx context.Context, clinicID uuid.UUID, status string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM tickets WHERE clinic_id = $1 AND status = $2`, clinicID, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets by status: %w", err)
	}
	return count, nil
}

func (r *ticketRepository) AttachTag(ctx context.Context, ticketID, tagID uuid.UUID) error {
	query := `
		INSERT INTO ticket_tags (ticket_id, tag_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticket_id, tag_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, ticketID, tagID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to attach tag to ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) CountTagAssociations(ctx context.Context, tagID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM ticket_tags WHERE tag_id = $1`, tagID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tag associations: %w", err)
	}
	return count, nil
}
