package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medesk/helpdesk-api/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

type clinicRepository struct {
	db *sqlx.DB
}

type rbacRepository struct {
	db *sqlx.DB
}

type departmentRepository struct {
	db *sqlx.DB
}

type categoryRepository struct {
	db *sqlx.DB
}

type tagRepository struct {
	db *sqlx.DB
}

type ticketRepository struct {
	db *sqlx.DB
}

type auditRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewClinicRepository(db *sqlx.DB) repository.ClinicRepository {
	return &clinicRepository{db: db}
}

func NewRBACRepository(db *sqlx.DB) repository.RBACRepository {
	return &rbacRepository{db: db}
}

func NewDepartmentRepository(db *sqlx.DB) repository.DepartmentRepository {
	return &departmentRepository{db: db}
}

func NewCategoryRepository(db *sqlx.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func NewTagRepository(db *sqlx.DB) repository.TagRepository {
	return &tagRepository{db: db}
}

func NewTicketRepository(db *sqlx.DB) repository.TicketRepository {
	return &ticketRepository{db: db}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

type truncateRepository struct {
	db *sqlx.DB
}

func NewTruncateRepository(db *sqlx.DB) repository.TruncateRepository {
	return &truncateRepository{db: db}
}

// TruncateAll clears every table in reverse dependency order. Development
// reset only.
func (r *truncateRepository) TruncateAll(ctx context.Context) error {
	tables := []string{
		"audit_logs",
		"outbox_events",
		"ticket_tags",
		"tickets",
		"tags",
		"categories",
		"departments",
		"users",
		"roles",
		"permissions",
		"clinics",
	}

	for _, table := range tables {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
