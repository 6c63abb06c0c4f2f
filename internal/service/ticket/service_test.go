package ticket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository/memory"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type fixture struct {
	tickets *memory.TicketRepository
	tags    *memory.TagRepository
	users   *memory.UserRepository
	outbox  *memory.OutboxRepository
	svc     *Service

	clinicID   uuid.UUID
	categoryID uuid.UUID
	creatorID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tickets: memory.NewTicketRepository(),
		tags:    memory.NewTagRepository(),
		users:   memory.NewUserRepository(),
		outbox:  memory.NewOutboxRepository(),
	}
	clinics := memory.NewClinicRepository()
	categories := memory.NewCategoryRepository()
	auditor := audit.NewService(memory.NewAuditRepository())
	f.svc = NewService(f.tickets, categories, clinics, f.users, f.tags, f.outbox, auditor)

	ctx := context.Background()
	clinic := &model.Clinic{Name: "Clinica Test", Code: "TEST001", Settings: model.DefaultClinicSettings(), IsActive: true}
	require.NoError(t, clinics.Create(ctx, clinic))
	f.clinicID = clinic.ID

	category := &model.Category{Name: "Hardware Computer", Slug: "hardware-computer", ClinicID: clinic.ID, Visibility: model.VisibilityPublic, IsActive: true}
	require.NoError(t, categories.Create(ctx, category))
	f.categoryID = category.ID

	creator := &model.User{Email: "utente@test.it", Name: "Utente Test", ClinicID: clinic.ID, RoleID: uuid.New(), IsActive: true}
	require.NoError(t, f.users.Create(ctx, creator))
	f.creatorID = creator.ID
	return f
}

func (f *fixture) user(t *testing.T, clinicID uuid.UUID, active bool) *model.User {
	t.Helper()
	u := &model.User{
		Email:    uuid.NewString() + "@test.it",
		Name:     "Agente Test",
		ClinicID: clinicID,
		RoleID:   uuid.New(),
		IsActive: active,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) create(t *testing.T, input CreateInput) *model.Ticket {
	t.Helper()
	if input.Title == "" {
		input.Title = "Il monitor non si accende"
	}
	if input.CategoryID == uuid.Nil {
		input.CategoryID = f.categoryID
	}
	if input.ClinicID == uuid.Nil {
		input.ClinicID = f.clinicID
	}
	ticket, err := f.svc.Create(context.Background(), f.creatorID, input)
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketDefaults(t *testing.T) {
	f := newFixture(t)

	ticket := f.create(t, CreateInput{Title: "  Il monitor non si accende  "})
	assert.Equal(t, "Il monitor non si accende", ticket.Title)
	assert.Equal(t, model.TicketStatusNew, ticket.Status)
	assert.Equal(t, model.PriorityMedium, ticket.Priority)
	assert.Equal(t, model.VisibilityPrivate, ticket.Visibility)
	assert.Equal(t, f.creatorID, ticket.CreatorID)
	assert.Nil(t, ticket.AssigneeID)
}

func TestCreateTicketSLADeadline(t *testing.T) {
	f := newFixture(t)

	before := time.Now()
	ticket := f.create(t, CreateInput{})
	require.NotNil(t, ticket.SLADeadline)

	// Default clinic settings carry a 24 hour SLA.
	expected := before.Add(24 * time.Hour)
	assert.WithinDuration(t, expected, *ticket.SLADeadline, time.Minute)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.creatorID, CreateInput{Title: "   ", CategoryID: f.categoryID, ClinicID: f.clinicID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	_, err = f.svc.Create(ctx, f.creatorID, CreateInput{Title: "Valido", Priority: "urgentissima", CategoryID: f.categoryID, ClinicID: f.clinicID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	_, err = f.svc.Create(ctx, f.creatorID, CreateInput{Title: "Valido", CategoryID: uuid.New(), ClinicID: f.clinicID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))

	_, err = f.svc.Create(ctx, f.creatorID, CreateInput{Title: "Valido", CategoryID: f.categoryID, ClinicID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestCreateTicketCategoryClinicMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinics := memory.NewClinicRepository()
	home := &model.Clinic{Name: "Clinica", Code: "HOME001", Settings: model.DefaultClinicSettings(), IsActive: true}
	other := &model.Clinic{Name: "Altra Clinica", Code: "OTHER01", Settings: model.DefaultClinicSettings(), IsActive: true}
	require.NoError(t, clinics.Create(ctx, home))
	require.NoError(t, clinics.Create(ctx, other))

	// Category from another clinic is rejected even when both exist.
	foreign := &model.Category{Name: "Telefonia", Slug: "telefonia", ClinicID: other.ID, Visibility: model.VisibilityPublic, IsActive: true}
	categories := memory.NewCategoryRepository()
	require.NoError(t, categories.Create(ctx, foreign))

	svc := NewService(f.tickets, categories, clinics, f.users, f.tags, f.outbox, audit.NewService(memory.NewAuditRepository()))
	_, err := svc.Create(ctx, f.creatorID, CreateInput{Title: "Valido", CategoryID: foreign.ID, ClinicID: home.ID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestCreateTicketInactiveCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clinics := memory.NewClinicRepository()
	clinic := &model.Clinic{Name: "Clinica", Code: "TEST002", Settings: model.DefaultClinicSettings(), IsActive: true}
	require.NoError(t, clinics.Create(ctx, clinic))

	categories := memory.NewCategoryRepository()
	inactive := &model.Category{Name: "In attesa", Slug: "in-attesa", ClinicID: clinic.ID, Visibility: model.VisibilityPublic, IsActive: false}
	require.NoError(t, categories.Create(ctx, inactive))

	svc := NewService(f.tickets, categories, clinics, f.users, f.tags, f.outbox, audit.NewService(memory.NewAuditRepository()))
	_, err := svc.Create(ctx, f.creatorID, CreateInput{Title: "Valido", CategoryID: inactive.ID, ClinicID: clinic.ID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestCreateTicketResolvesTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	known := &model.Tag{Name: "Stampante", Slug: "stampante", ClinicID: f.clinicID, IsActive: true}
	require.NoError(t, f.tags.Create(ctx, known))

	ticket := f.create(t, CreateInput{Tags: []string{"Stampante", "Inesistente"}})

	// Both names stay on the ticket; only the resolvable one gets a join row
	// and a usage bump.
	assert.Equal(t, model.StringList{"Stampante", "Inesistente"}, ticket.Tags)

	count, err := f.tickets.CountTagAssociations(ctx, known.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	updated, err := f.tags.Get(ctx, known.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.UsageCount)
}

func TestCreateTicketPublishesEvent(t *testing.T) {
	f := newFixture(t)

	f.create(t, CreateInput{})

	events := f.outbox.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "ticket.created", events[0].EventType)
	assert.Equal(t, string(model.OutboxStatusPending), events[0].Status)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, CreateInput{})

	updated, err := f.svc.UpdateStatus(ctx, f.creatorID, ticket.ID, model.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, updated.Status)

	stored, err := f.tickets.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, stored.Status)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, CreateInput{})

	_, err := f.svc.UpdateStatus(context.Background(), f.creatorID, ticket.ID, "parked")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, CreateInput{})
	agent := f.user(t, f.clinicID, true)

	updated, err := f.svc.Assign(ctx, f.creatorID, ticket.ID, agent.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, agent.ID, *updated.AssigneeID)

	// Assignment moves a fresh ticket out of the new state.
	assert.Equal(t, model.TicketStatusOpen, updated.Status)
}

func TestAssignKeepsNonNewStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, CreateInput{})
	agent := f.user(t, f.clinicID, true)

	_, err := f.svc.UpdateStatus(ctx, f.creatorID, ticket.ID, model.TicketStatusInProgress)
	require.NoError(t, err)

	updated, err := f.svc.Assign(ctx, f.creatorID, ticket.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusInProgress, updated.Status)
}

func TestAssignRejectsCrossClinicAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, CreateInput{})
	outsider := f.user(t, uuid.New(), true)

	_, err := f.svc.Assign(context.Background(), f.creatorID, ticket.ID, outsider.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestAssignRejectsInactiveAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, CreateInput{})
	inactive := f.user(t, f.clinicID, false)

	_, err := f.svc.Assign(context.Background(), f.creatorID, ticket.ID, inactive.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestAssignUnknownAssignee(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, CreateInput{})

	_, err := f.svc.Assign(context.Background(), f.creatorID, ticket.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t, CreateInput{Title: "Primo"})
	second := f.create(t, CreateInput{Title: "Secondo"})

	_, err := f.svc.UpdateStatus(ctx, f.creatorID, first.ID, model.TicketStatusClosed)
	require.NoError(t, err)

	open, err := f.svc.List(ctx, model.TicketFilter{ClinicID: f.clinicID, Status: model.TicketStatusNew})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)
}
