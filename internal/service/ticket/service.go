package ticket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	"github.com/medesk/helpdesk-api/internal/util"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type Service struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	clinics    repository.ClinicRepository
	users      repository.UserRepository
	tags       repository.TagRepository
	outbox     repository.OutboxRepository
	auditor    *audit.Service
}

func NewService(
	tickets repository.TicketRepository,
	categories repository.CategoryRepository,
	clinics repository.ClinicRepository,
	users repository.UserRepository,
	tags repository.TagRepository,
	outbox repository.OutboxRepository,
	auditor *audit.Service,
) *Service {
	return &Service{
		tickets:    tickets,
		categories: categories,
		clinics:    clinics,
		users:      users,
		tags:       tags,
		outbox:     outbox,
		auditor:    auditor,
	}
}

type CreateInput struct {
	Title        string
	Description  string
	Priority     string
	CategoryID   uuid.UUID
	ClinicID     uuid.UUID
	Visibility   string
	CustomFields model.JSONMap
	Tags         []string
}

func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, input CreateInput) (*model.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.Validation("ticket title is required")
	}
	if input.Priority == "" {
		input.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(input.Priority) {
		return nil, apperrors.Validation("unknown ticket priority")
	}
	if input.Visibility == "" {
		input.Visibility = model.VisibilityPrivate
	}

	clinic, err := s.clinics.Get(ctx, input.ClinicID)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.Get(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category.ClinicID != input.ClinicID {
		return nil, apperrors.Validation("category belongs to a different clinic")
	}
	if !category.IsActive {
		return nil, apperrors.Validation("category is not active")
	}

	deadline := util.SLADeadline(time.Now(), clinic.Settings.DefaultSLAHours)
	ticket := &model.Ticket{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Status:       model.TicketStatusNew,
		Priority:     input.Priority,
		CategoryID:   input.CategoryID,
		ClinicID:     input.ClinicID,
		CreatorID:    creatorID,
		Visibility:   input.Visibility,
		CustomFields: input.CustomFields,
		SLADeadline:  &deadline,
		Tags:         input.Tags,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	// Tag names resolve by slug within the clinic; unknown names are kept on
	// the ticket but get no join row and no usage bump.
	for _, name := range input.Tags {
		tag, err := s.tags.GetBySlug(ctx, input.ClinicID, util.GenerateSlug(name))
		if err != nil {
			continue
		}
		if err := s.tickets.AttachTag(ctx, ticket.ID, tag.ID); err != nil {
			continue
		}
		_, _ = s.tags.IncrementUsage(ctx, tag.ID)
	}

	s.publish(ctx, "ticket.created", ticket)
	s.auditor.Log(ctx, creatorID, "create", "ticket", ticket.ID.String(), &audit.LogOptions{Changes: ticket})
	return ticket, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	return s.tickets.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.TicketFilter) ([]*model.Ticket, error) {
	return s.tickets.List(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*model.Ticket, error) {
	if !model.ValidTicketStatus(status) {
		return nil, apperrors.Validation("unknown ticket status")
	}

	ticket, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := ticket.Status
	ticket.Status = status
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, "ticket.status_changed", ticket)
	s.auditor.Log(ctx, actorID, "update_status", "ticket", id.String(), &audit.LogOptions{
		Changes: map[string]string{"from": previous, "to": status},
	})
	return ticket, nil
}

func (s *Service) Assign(ctx context.Context, actorID, id, assigneeID uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assignee, err := s.users.Get(ctx, assigneeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("assignee")
		}
		return nil, err
	}
	if assignee.ClinicID != ticket.ClinicID {
		return nil, apperrors.Validation("assignee belongs to a different clinic")
	}
	if !assignee.IsActive {
		return nil, apperrors.Validation("assignee is not active")
	}

	ticket.AssigneeID = &assigneeID
	if ticket.Status == model.TicketStatusNew {
		ticket.Status = model.TicketStatusOpen
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, "ticket.assigned", ticket)
	s.auditor.Log(ctx, actorID, "assign", "ticket", id.String(), &audit.LogOptions{
		Changes: map[string]string{"assignee_id": assigneeID.String()},
	})
	return ticket, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.outbox.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
		Status:    string(model.OutboxStatusPending),
	})
}
