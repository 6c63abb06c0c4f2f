// Package memory holds in-memory repository implementations used by service
// tests. Ordering and not-found semantics mirror the postgres package.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

func stamp(base *model.Base) {
	now := time.Now()
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*model.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&user.Base)
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *UserRepository) GetByAuth0ID(_ context.Context, auth0ID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Auth0ID != nil && *u.Auth0ID == auth0ID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.NotFound("user")
	}
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) List(_ context.Context, clinicID *uuid.UUID) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.users {
		if clinicID != nil && u.ClinicID != *clinicID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) CountByRole(_ context.Context, roleID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) CountActiveByClinic(_ context.Context, clinicID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.users {
		if u.ClinicID == clinicID && u.IsActive {
			n++
		}
	}
	return n, nil
}

type ClinicRepository struct {
	mu      sync.Mutex
	clinics map[uuid.UUID]*model.Clinic
}

func NewClinicRepository() *ClinicRepository {
	return &ClinicRepository{clinics: make(map[uuid.UUID]*model.Clinic)}
}

var _ repository.ClinicRepository = (*ClinicRepository)(nil)

func (r *ClinicRepository) Create(_ context.Context, clinic *model.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&clinic.Base)
	cp := *clinic
	r.clinics[clinic.ID] = &cp
	return nil
}

func (r *ClinicRepository) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clinics[id]
	if !ok {
		return nil, apperrors.NotFound("clinic")
	}
	cp := *c
	return &cp, nil
}

func (r *ClinicRepository) GetByCode(_ context.Context, code string) (*model.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clinics {
		if strings.EqualFold(c.Code, code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("clinic")
}

func (r *ClinicRepository) Update(_ context.Context, clinic *model.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clinics[clinic.ID]; !ok {
		return apperrors.NotFound("clinic")
	}
	clinic.UpdatedAt = time.Now()
	cp := *clinic
	r.clinics[clinic.ID] = &cp
	return nil
}

func (r *ClinicRepository) ListActive(_ context.Context) ([]*model.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Clinic
	for _, c := range r.clinics {
		if c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type RBACRepository struct {
	mu          sync.Mutex
	roles       map[uuid.UUID]*model.Role
	permissions map[uuid.UUID]*model.Permission
	order       []uuid.UUID // role insertion order
	permOrder   []uuid.UUID
}

func NewRBACRepository() *RBACRepository {
	return &RBACRepository{
		roles:       make(map[uuid.UUID]*model.Role),
		permissions: make(map[uuid.UUID]*model.Permission),
	}
}

var _ repository.RBACRepository = (*RBACRepository)(nil)

func (r *RBACRepository) CreateRole(_ context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&role.Base)
	cp := *role
	r.roles[role.ID] = &cp
	r.order = append(r.order, role.ID)
	return nil
}

func (r *RBACRepository) GetRole(_ context.Context, id uuid.UUID) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, apperrors.NotFound("role")
	}
	cp := *role
	return &cp, nil
}

func (r *RBACRepository) GetSystemRoleByName(_ context.Context, name string) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.IsSystem && role.Name == name {
			cp := *role
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("role")
}

func (r *RBACRepository) UpdateRole(_ context.Context, role *model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[role.ID]; !ok {
		return apperrors.NotFound("role")
	}
	role.UpdatedAt = time.Now()
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *RBACRepository) DeleteRole(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return apperrors.NotFound("role")
	}
	delete(r.roles, id)
	return nil
}

func (r *RBACRepository) ListRoles(_ context.Context, clinicID *uuid.UUID) ([]*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Role
	for _, id := range r.order {
		role, ok := r.roles[id]
		if !ok {
			continue
		}
		if clinicID != nil && (role.ClinicID == nil || *role.ClinicID != *clinicID) {
			continue
		}
		cp := *role
		out = append(out, &cp)
	}
	return out, nil
}

func (r *RBACRepository) CountSystemRoles(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, role := range r.roles {
		if role.IsSystem {
			n++
		}
	}
	return n, nil
}

func (r *RBACRepository) CreatePermission(_ context.Context, permission *model.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&permission.Base)
	cp := *permission
	r.permissions[permission.ID] = &cp
	r.permOrder = append(r.permOrder, permission.ID)
	return nil
}

func (r *RBACRepository) GetPermission(_ context.Context, id uuid.UUID) (*model.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.permissions[id]
	if !ok {
		return nil, apperrors.NotFound("permission")
	}
	cp := *p
	return &cp, nil
}

func (r *RBACRepository) ListPermissions(_ context.Context) ([]*model.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Permission
	for _, id := range r.permOrder {
		if p, ok := r.permissions[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *RBACRepository) CountPermissions(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.permissions), nil
}

type DepartmentRepository struct {
	mu          sync.Mutex
	departments map[uuid.UUID]*model.Department
}

func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{departments: make(map[uuid.UUID]*model.Department)}
}

var _ repository.DepartmentRepository = (*DepartmentRepository)(nil)

func (r *DepartmentRepository) Create(_ context.Context, department *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&department.Base)
	cp := *department
	r.departments[department.ID] = &cp
	return nil
}

func (r *DepartmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.departments[id]
	if !ok {
		return nil, apperrors.NotFound("department")
	}
	cp := *d
	return &cp, nil
}

func (r *DepartmentRepository) GetByName(_ context.Context, clinicID uuid.UUID, name string) (*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.departments {
		if d.ClinicID == clinicID && strings.EqualFold(d.Name, name) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("department")
}

func (r *DepartmentRepository) Update(_ context.Context, department *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[department.ID]; !ok {
		return apperrors.NotFound("department")
	}
	department.UpdatedAt = time.Now()
	cp := *department
	r.departments[department.ID] = &cp
	return nil
}

func (r *DepartmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[id]; !ok {
		return apperrors.NotFound("department")
	}
	delete(r.departments, id)
	return nil
}

func (r *DepartmentRepository) ListByClinic(_ context.Context, clinicID uuid.UUID) ([]*model.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Department
	for _, d := range r.departments {
		if d.ClinicID == clinicID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type CategoryRepository struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*model.Category
	seq        int
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{categories: make(map[uuid.UUID]*model.Category)}
}

var _ repository.CategoryRepository = (*CategoryRepository)(nil)

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *CategoryRepository) Create(_ context.Context, category *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&category.Base)
	// Sibling rank is the current sibling count, matching the atomic
	// subselect the SQL insert uses.
	order := 0
	for _, c := range r.categories {
		if c.ClinicID == category.ClinicID && sameParent(c.ParentID, category.ParentID) {
			order++
		}
	}
	category.Order = order
	r.seq++
	category.CreatedAt = category.CreatedAt.Add(time.Duration(r.seq) * time.Microsecond)
	cp := *category
	r.categories[category.ID] = &cp
	return nil
}

func (r *CategoryRepository) Get(_ context.Context, id uuid.UUID) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category")
	}
	cp := *c
	return &cp, nil
}

func (r *CategoryRepository) GetBySlug(_ context.Context, clinicID uuid.UUID, slug string) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.ClinicID == clinicID && c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("category")
}

func (r *CategoryRepository) Update(_ context.Context, category *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.ID]; !ok {
		return apperrors.NotFound("category")
	}
	category.UpdatedAt = time.Now()
	cp := *category
	r.categories[category.ID] = &cp
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return apperrors.NotFound("category")
	}
	delete(r.categories, id)
	return nil
}

func sortCategories(out []*model.Category) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}

func (r *CategoryRepository) ListByClinic(_ context.Context, clinicID uuid.UUID, filter model.CategoryFilter) ([]*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Category
	for _, c := range r.categories {
		if c.ClinicID != clinicID {
			continue
		}
		if filter.Visibility != nil && c.Visibility != *filter.Visibility {
			continue
		}
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sortCategories(out)
	return out, nil
}

func (r *CategoryRepository) ListByDepartment(_ context.Context, departmentID uuid.UUID) ([]*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Category
	for _, c := range r.categories {
		if c.DepartmentID != nil && *c.DepartmentID == departmentID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sortCategories(out)
	return out, nil
}

func (r *CategoryRepository) ListPending(_ context.Context, clinicID *uuid.UUID) ([]*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Category
	for _, c := range r.categories {
		if !c.RequiresApproval || c.IsActive {
			continue
		}
		if clinicID != nil && c.ClinicID != *clinicID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type TagRepository struct {
	mu   sync.Mutex
	tags map[uuid.UUID]*model.Tag
}

func NewTagRepository() *TagRepository {
	return &TagRepository{tags: make(map[uuid.UUID]*model.Tag)}
}

var _ repository.TagRepository = (*TagRepository)(nil)

func (r *TagRepository) Create(_ context.Context, tag *model.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&tag.Base)
	cp := *tag
	r.tags[tag.ID] = &cp
	return nil
}

func (r *TagRepository) Get(_ context.Context, id uuid.UUID) (*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[id]
	if !ok {
		return nil, apperrors.NotFound("tag")
	}
	cp := *t
	return &cp, nil
}

func (r *TagRepository) GetBySlug(_ context.Context, clinicID uuid.UUID, slug string) (*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.ClinicID == clinicID && t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("tag")
}

func (r *TagRepository) Update(_ context.Context, tag *model.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[tag.ID]; !ok {
		return apperrors.NotFound("tag")
	}
	tag.UpdatedAt = time.Now()
	cp := *tag
	r.tags[tag.ID] = &cp
	return nil
}

func (r *TagRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[id]; !ok {
		return apperrors.NotFound("tag")
	}
	delete(r.tags, id)
	return nil
}

func (r *TagRepository) ListByClinic(_ context.Context, clinicID uuid.UUID, filter model.TagFilter) ([]*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Tag
	for _, t := range r.tags {
		if t.ClinicID != clinicID {
			continue
		}
		if filter.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *TagRepository) IncrementUsage(_ context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tags[id]
	if !ok {
		return 0, apperrors.NotFound("tag")
	}
	t.UsageCount++
	t.UpdatedAt = time.Now()
	return t.UsageCount, nil
}

type ticketTagKey struct {
	ticketID uuid.UUID
	tagID    uuid.UUID
}

type TicketRepository struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*model.Ticket
	joins   map[ticketTagKey]struct{}
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		tickets: make(map[uuid.UUID]*model.Ticket),
		joins:   make(map[ticketTagKey]struct{}),
	}
}

var _ repository.TicketRepository = (*TicketRepository)(nil)

func (r *TicketRepository) Create(_ context.Context, ticket *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stamp(&ticket.Base)
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *TicketRepository) Get(_ context.Context, id uuid.UUID) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NotFound("ticket")
	}
	cp := *t
	return &cp, nil
}

func (r *TicketRepository) Update(_ context.Context, ticket *model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return apperrors.NotFound("ticket")
	}
	ticket.UpdatedAt = time.Now()
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *TicketRepository) List(_ context.Context, filter model.TicketFilter) ([]*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Ticket
	for _, t := range r.tickets {
		if filter.ClinicID != uuid.Nil && t.ClinicID != filter.ClinicID {
			continue
		}
		if filter.CreatorID != uuid.Nil && t.CreatorID != filter.CreatorID {
			continue
		}
		if filter.AssigneeID != uuid.Nil && (t.AssigneeID == nil || *t.AssigneeID != filter.AssigneeID) {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *TicketRepository) CountByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tickets {
		if t.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *TicketRepository) CountByClinic(_ context.Context, clinicID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tickets {
		if t.ClinicID == clinicID {
			n++
		}
	}
	return n, nil
}

func (r *TicketRepository) CountByClinicStatus(_ context.Context, clinicID uuid.UUID, status string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tickets {
		if t.ClinicID == clinicID && t.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *TicketRepository) AttachTag(_ context.Context, ticketID, tagID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins[ticketTagKey{ticketID, tagID}] = struct{}{}
	return nil
}

func (r *TicketRepository) CountTagAssociations(_ context.Context, tagID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k := range r.joins {
		if k.tagID == tagID {
			n++
		}
	}
	return n, nil
}

type AuditRepository struct {
	mu   sync.Mutex
	logs []*model.AuditLog
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *AuditRepository) ListByEntity(_ context.Context, entityType, entityID string) ([]*model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AuditLog
	for _, l := range r.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Logs returns everything recorded, oldest first.
func (r *AuditRepository) Logs() []*model.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.AuditLog, len(r.logs))
	copy(out, r.logs)
	return out
}

type OutboxRepository struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

var _ repository.OutboxRepository = (*OutboxRepository)(nil)

func (r *OutboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = string(model.OutboxStatusPending)
	}
	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *OutboxRepository) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutboxEvent
	for _, e := range r.events {
		if e.Status != string(model.OutboxStatusPending) {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id uuid.UUID, status string, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			now := time.Now()
			e.Status = status
			e.ErrorMessage = errorMessage
			e.ProcessedAt = &now
			e.UpdatedAt = now
			return nil
		}
	}
	return apperrors.NotFound("outbox event")
}

// Events returns everything recorded, oldest first.
func (r *OutboxRepository) Events() []*model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.OutboxEvent, len(r.events))
	copy(out, r.events)
	return out
}
