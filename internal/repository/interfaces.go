package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByAuth0ID(ctx context.Context, auth0ID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, clinicID *uuid.UUID) ([]*model.User, error)
	CountByRole(ctx context.Context, roleID uuid.UUID) (int, error)
	CountActiveByClinic(ctx context.Context, clinicID uuid.UUID) (int, error)
}

type ClinicRepository interface {
	Create(ctx context.Context, clinic *model.Clinic) error
	Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	GetByCode(ctx context.Context, code string) (*model.Clinic, error)
	Update(ctx context.Context, clinic *model.Clinic) error
	ListActive(ctx context.Context) ([]*model.Clinic, error)
}

type RBACRepository interface {
	CreateRole(ctx context.Context, role *model.Role) error
	GetRole(ctx context.Context, id uuid.UUID) (*model.Role, error)
	GetSystemRoleByName(ctx context.Context, name string) (*model.Role, error)
	UpdateRole(ctx context.Context, role *model.Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	ListRoles(ctx context.Context, clinicID *uuid.UUID) ([]*model.Role, error)
	CountSystemRoles(ctx context.Context) (int, error)

	CreatePermission(ctx context.Context, permission *model.Permission) error
	GetPermission(ctx context.Context, id uuid.UUID) (*model.Permission, error)
	ListPermissions(ctx context.Context) ([]*model.Permission, error)
	CountPermissions(ctx context.Context) (int, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, department *model.Department) error
	Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
	GetByName(ctx context.Context, clinicID uuid.UUID, name string) (*model.Department, error)
	Update(ctx context.Context, department *model.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Department, error)
}

type CategoryRepository interface {
	// Create inserts the category, assigning its sibling order (current
	// sibling count) atomically with the insert.
	Create(ctx context.Context, category *model.Category) error
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	GetBySlug(ctx context.Context, clinicID uuid.UUID, slug string) (*model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, filter model.CategoryFilter) ([]*model.Category, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*model.Category, error)
	ListPending(ctx context.Context, clinicID *uuid.UUID) ([]*model.Category, error)
}

type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	Get(ctx context.Context, id uuid.UUID) (*model.Tag, error)
	GetBySlug(ctx context.Context, clinicID uuid.UUID, slug string) (*model.Tag, error)
	Update(ctx context.Context, tag *model.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, filter model.TagFilter) ([]*model.Tag, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) (int, error)
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	Get(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	Update(ctx context.Context, ticket *model.Ticket) error
	List(ctx context.Context, filter model.TicketFilter) ([]*model.Ticket, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	CountByClinic(ctx context.Context, clinicID uuid.UUID) (int, error)
	CountByClinicStatus(ctx context.Context, clinicID uuid.UUID, status string) (int, error)

	AttachTag(ctx context.Context, ticketID, tagID uuid.UUID) error
	CountTagAssociations(ctx context.Context, tagID uuid.UUID) (int, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*model.AuditLog, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, errorMessage *string) error
}

// TruncateRepository supports the destructive development reset: it clears
// every table in dependency order.
type TruncateRepository interface {
	TruncateAll(ctx context.Context) error
}
