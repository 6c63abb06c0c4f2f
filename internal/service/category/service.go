package category

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/email"
	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	"github.com/medesk/helpdesk-api/internal/util"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

// baseCategory is one of the fixed helpdesk categories seeded by
// InitializeBaseCategories, in sibling order.
type baseCategory struct {
	name     string
	synonyms []string
}

var baseCategories = []baseCategory{
	{"Manutenzioni", []string{"manutenzione", "riparazione", "guasto"}},
	{"Elettromedicali", []string{"elettromedicale", "apparecchiatura", "dispositivo medico"}},
	{"Hardware Computer", []string{"pc", "computer", "stampante", "monitor"}},
	{"Software Gestionale", []string{"gestionale", "software", "applicativo"}},
	{"Rete e Connettività", []string{"rete", "wifi", "internet", "connessione"}},
	{"Telefonia", []string{"telefono", "centralino", "voip"}},
	{"Accessi e Account", []string{"account", "password", "credenziali", "accesso"}},
	{"Richieste HR", []string{"hr", "risorse umane", "personale"}},
	{"Altro", []string{"varie", "generico"}},
}

type Service struct {
	categories  repository.CategoryRepository
	clinics     repository.ClinicRepository
	departments repository.DepartmentRepository
	tickets     repository.TicketRepository
	outbox      repository.OutboxRepository
	auditor     *audit.Service
	mailer      email.Service
}

func NewService(
	categories repository.CategoryRepository,
	clinics repository.ClinicRepository,
	departments repository.DepartmentRepository,
	tickets repository.TicketRepository,
	outbox repository.OutboxRepository,
	auditor *audit.Service,
	mailer email.Service,
) *Service {
	return &Service{
		categories:  categories,
		clinics:     clinics,
		departments: departments,
		tickets:     tickets,
		outbox:      outbox,
		auditor:     auditor,
		mailer:      mailer,
	}
}

type CreateInput struct {
	Name         string
	Description  *string
	ClinicID     uuid.UUID
	DepartmentID *uuid.UUID
	Visibility   string
	ParentID     *uuid.UUID
	Synonyms     []string
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*model.Category, error) {
	if len(strings.TrimSpace(input.Name)) < 2 {
		return nil, apperrors.Validation("category name must be at least 2 characters")
	}
	if input.Visibility == "" {
		input.Visibility = model.VisibilityPublic
	}
	if input.Visibility != model.VisibilityPublic && input.Visibility != model.VisibilityPrivate {
		return nil, apperrors.Validation("visibility must be public or private")
	}

	clinic, err := s.clinics.Get(ctx, input.ClinicID)
	if err != nil {
		return nil, err
	}

	if input.DepartmentID != nil {
		dept, err := s.departments.Get(ctx, *input.DepartmentID)
		if err != nil {
			return nil, err
		}
		if dept.ClinicID != input.ClinicID {
			return nil, apperrors.Validation("department belongs to a different clinic")
		}
	}

	slug := util.GenerateSlug(input.Name)
	if slug == "" {
		return nil, apperrors.Validation("category name produces an empty slug")
	}
	if _, err := s.categories.GetBySlug(ctx, input.ClinicID, slug); err == nil {
		return nil, apperrors.Conflict("a category with this slug already exists in the clinic")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	var path model.UUIDList
	if input.ParentID != nil {
		parent, err := s.categories.Get(ctx, *input.ParentID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NotFound("parent category")
			}
			return nil, err
		}
		if parent.ClinicID != input.ClinicID {
			return nil, apperrors.Validation("parent category belongs to a different clinic")
		}
		path = append(append(model.UUIDList{}, parent.Path...), parent.ID)
	}

	requiresApproval := clinic.Settings.RequireApprovalForCategories

	category := &model.Category{
		Name:             strings.TrimSpace(input.Name),
		Slug:             slug,
		Description:      input.Description,
		ClinicID:         input.ClinicID,
		DepartmentID:     input.DepartmentID,
		Visibility:       input.Visibility,
		RequiresApproval: requiresApproval,
		IsActive:         !requiresApproval,
		ParentID:         input.ParentID,
		Path:             path,
		Depth:            len(path),
		Synonyms:         input.Synonyms,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.publish(ctx, "category.created", category)
	s.auditor.Log(ctx, actorID, "create", "category", category.ID.String(), &audit.LogOptions{Changes: category})
	return category, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.CategoryWithDepartment, error) {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withDepartment(ctx, category), nil
}

// GetFlat lists a clinic's categories ordered by depth then sibling order,
// with departments resolved.
func (s *Service) GetFlat(ctx context.Context, clinicID uuid.UUID, filter model.CategoryFilter) ([]*model.CategoryWithDepartment, error) {
	categories, err := s.categories.ListByClinic(ctx, clinicID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*model.CategoryWithDepartment, 0, len(categories))
	for _, c := range categories {
		out = append(out, s.withDepartment(ctx, c))
	}
	return out, nil
}

// GetPublic lists the clinic's active public categories, for ticket forms
// that any authenticated user can reach.
func (s *Service) GetPublic(ctx context.Context, clinicID uuid.UUID) ([]*model.Category, error) {
	visibility := model.VisibilityPublic
	active := true
	return s.categories.ListByClinic(ctx, clinicID, model.CategoryFilter{
		Visibility: &visibility,
		IsActive:   &active,
	})
}

func (s *Service) withDepartment(ctx context.Context, c *model.Category) *model.CategoryWithDepartment {
	cd := &model.CategoryWithDepartment{Category: *c}
	if c.DepartmentID != nil {
		if dept, err := s.departments.Get(ctx, *c.DepartmentID); err == nil {
			cd.Department = dept
		}
	}
	return cd
}

// GetTree builds the clinic's category forest. Children are sorted by
// sibling order at every level. A category whose parent was excluded by the
// filter is dropped with its subtree.
func (s *Service) GetTree(ctx context.Context, clinicID uuid.UUID, filter model.CategoryFilter) ([]*model.CategoryNode, error) {
	flat, err := s.categories.ListByClinic(ctx, clinicID, filter)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*model.CategoryNode, len(flat))
	for _, c := range flat {
		nodes[c.ID] = &model.CategoryNode{Category: *c}
	}

	var roots []*model.CategoryNode
	for _, c := range flat {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			// Parent filtered out: drop the orphaned subtree.
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	// The flat listing is ordered depth asc, sort_order asc, so children
	// arrive in sibling order and roots in root order.
	return roots, nil
}

type UpdateInput struct {
	Name             *string
	Description      *string
	DepartmentID     *uuid.UUID
	Visibility       *string
	RequiresApproval *bool
	IsActive         *bool
	Synonyms         []string
}

// Update applies a sparse patch. Renaming does not re-derive the slug: the
// slug is fixed at creation so existing references stay valid.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (*model.Category, error) {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if len(strings.TrimSpace(*input.Name)) < 2 {
			return nil, apperrors.Validation("category name must be at least 2 characters")
		}
		category.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	if input.DepartmentID != nil {
		dept, err := s.departments.Get(ctx, *input.DepartmentID)
		if err != nil {
			return nil, err
		}
		if dept.ClinicID != category.ClinicID {
			return nil, apperrors.Validation("department belongs to a different clinic")
		}
		category.DepartmentID = input.DepartmentID
	}
	if input.Visibility != nil {
		if *input.Visibility != model.VisibilityPublic && *input.Visibility != model.VisibilityPrivate {
			return nil, apperrors.Validation("visibility must be public or private")
		}
		category.Visibility = *input.Visibility
	}
	if input.RequiresApproval != nil {
		category.RequiresApproval = *input.RequiresApproval
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.Synonyms != nil {
		category.Synonyms = input.Synonyms
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "update", "category", category.ID.String(), &audit.LogOptions{Changes: category})
	return category, nil
}

// Approve activates a pending category and clears its approval flag.
func (s *Service) Approve(ctx context.Context, actorID, id uuid.UUID) (*model.Category, error) {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	category.IsActive = true
	category.RequiresApproval = false
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}

	s.publish(ctx, "category.approved", category)
	s.auditor.Log(ctx, actorID, "approve", "category", category.ID.String(), nil)
	s.notifyClinic(ctx, category.ClinicID, func(to string) error {
		return s.mailer.SendCategoryApproved(ctx, to, category.Name)
	})
	return category, nil
}

// Reject removes a pending category. The reason is kept in the audit trail
// and mailed to the clinic.
func (s *Service) Reject(ctx context.Context, actorID, id uuid.UUID, reason string) error {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, "category.rejected", category)
	s.auditor.Log(ctx, actorID, "reject", "category", id.String(), &audit.LogOptions{
		Metadata: map[string]string{"reason": reason},
	})
	s.notifyClinic(ctx, category.ClinicID, func(to string) error {
		return s.mailer.SendCategoryRejected(ctx, to, category.Name, reason)
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.tickets.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count category tickets: %w", err)
	}
	if count > 0 {
		return apperrors.ReferentialIntegrity("Cannot delete category: tickets are still assigned to this category")
	}

	// Deleting a parent is allowed; children keep their parent id and the
	// tree builder drops the orphaned subtree.
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, "category.deleted", category)
	s.auditor.Log(ctx, actorID, "delete", "category", id.String(), nil)
	return nil
}

// GetPending lists categories awaiting approval, with clinic and department
// resolved for review. A nil clinicID spans all clinics.
func (s *Service) GetPending(ctx context.Context, clinicID *uuid.UUID) ([]*model.PendingCategory, error) {
	pending, err := s.categories.ListPending(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	out := make([]*model.PendingCategory, 0, len(pending))
	for _, c := range pending {
		pc := &model.PendingCategory{Category: *c}
		if clinic, err := s.clinics.Get(ctx, c.ClinicID); err == nil {
			pc.Clinic = clinic
		}
		if c.DepartmentID != nil {
			if dept, err := s.departments.Get(ctx, *c.DepartmentID); err == nil {
				pc.Department = dept
			}
		}
		out = append(out, pc)
	}
	return out, nil
}

// InitializeBaseCategories wipes the clinic's category tree and reseeds the
// fixed helpdesk set. Fails if any existing category still has tickets.
func (s *Service) InitializeBaseCategories(ctx context.Context, actorID, clinicID uuid.UUID) ([]*model.Category, error) {
	if _, err := s.clinics.Get(ctx, clinicID); err != nil {
		return nil, err
	}

	existing, err := s.categories.ListByClinic(ctx, clinicID, model.CategoryFilter{})
	if err != nil {
		return nil, err
	}
	for _, c := range existing {
		count, err := s.tickets.CountByCategory(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count category tickets: %w", err)
		}
		if count > 0 {
			return nil, apperrors.ReferentialIntegrity("Cannot reset categories: tickets are still assigned to existing categories")
		}
	}

	// Deepest first so no category is removed before its children.
	for i := len(existing) - 1; i >= 0; i-- {
		if err := s.categories.Delete(ctx, existing[i].ID); err != nil {
			return nil, err
		}
	}

	created := make([]*model.Category, 0, len(baseCategories))
	for _, base := range baseCategories {
		category := &model.Category{
			Name:       base.name,
			Slug:       util.GenerateSlug(base.name),
			ClinicID:   clinicID,
			Visibility: model.VisibilityPublic,
			IsActive:   true,
			Synonyms:   base.synonyms,
		}
		if err := s.categories.Create(ctx, category); err != nil {
			return nil, err
		}
		created = append(created, category)
	}

	s.auditor.Log(ctx, actorID, "initialize_base_categories", "clinic", clinicID.String(), &audit.LogOptions{
		Metadata: map[string]int{"removed": len(existing), "created": len(created)},
	})
	return created, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
		Status:    string(model.OutboxStatusPending),
	}
	_ = s.outbox.Create(ctx, event)
}

func (s *Service) notifyClinic(ctx context.Context, clinicID uuid.UUID, send func(to string) error) {
	clinic, err := s.clinics.Get(ctx, clinicID)
	if err != nil || clinic.Email == "" {
		return
	}
	_ = send(clinic.Email)
}
