package clinic

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository/memory"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type fixture struct {
	clinics *memory.ClinicRepository
	users   *memory.UserRepository
	tickets *memory.TicketRepository
	svc     *Service

	actorID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clinics: memory.NewClinicRepository(),
		users:   memory.NewUserRepository(),
		tickets: memory.NewTicketRepository(),
		actorID: uuid.New(),
	}
	auditor := audit.NewService(memory.NewAuditRepository())
	f.svc = NewService(f.clinics, f.users, f.tickets, auditor)
	return f
}

func (f *fixture) create(t *testing.T, name, code string) *model.Clinic {
	t.Helper()
	clinic, err := f.svc.Create(context.Background(), f.actorID, CreateInput{Name: name, Code: code})
	require.NoError(t, err)
	return clinic
}

func TestCreateClinic(t *testing.T) {
	f := newFixture(t)

	clinic := f.create(t, "  Clinica San Marco  ", "SANMARCO")
	assert.Equal(t, "Clinica San Marco", clinic.Name)
	assert.Equal(t, "SANMARCO", clinic.Code)
	assert.True(t, clinic.IsActive)
	assert.Equal(t, model.DefaultClinicSettings(), clinic.Settings)
}

func TestCreateClinicValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []CreateInput{
		{Name: "   ", Code: "DEMO001"},
		{Name: "Clinica", Code: "ab"},                                 // too short
		{Name: "Clinica", Code: "ABCDEFGHIJK"},                        // too long
		{Name: "Clinica", Code: "DEMO-001"},                           // non-alphanumeric
		{Name: "Clinica", Code: "DEMO001", Email: "not-an-email"},
	}
	for _, in := range cases {
		_, err := f.svc.Create(ctx, f.actorID, in)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
	}
}

func TestCreateClinicCodeConflict(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Clinica Uno", "DEMO001")

	_, err := f.svc.Create(context.Background(), f.actorID, CreateInput{Name: "Clinica Due", Code: "DEMO001"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestUpdateClinic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clinic := f.create(t, "Clinica", "DEMO001")

	name := "Clinica Rinnovata"
	email := "info@clinica.it"
	inactive := false
	settings := model.ClinicSettings{AllowPublicTickets: false, RequireApprovalForCategories: true, DefaultSLAHours: 48}

	updated, err := f.svc.Update(ctx, f.actorID, clinic.ID, UpdateInput{
		Name:     &name,
		Email:    &email,
		Settings: &settings,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Clinica Rinnovata", updated.Name)
	assert.Equal(t, "info@clinica.it", updated.Email)
	assert.Equal(t, 48, updated.Settings.DefaultSLAHours)
	assert.False(t, updated.IsActive)

	// Code never changes after creation.
	assert.Equal(t, "DEMO001", updated.Code)
}

func TestUpdateClinicRejectsNonPositiveSLA(t *testing.T) {
	f := newFixture(t)
	clinic := f.create(t, "Clinica", "DEMO001")

	bad := model.ClinicSettings{DefaultSLAHours: 0}
	_, err := f.svc.Update(context.Background(), f.actorID, clinic.ID, UpdateInput{Settings: &bad})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestGetByCodeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	clinic := f.create(t, "Clinica", "DEMO001")

	found, err := f.svc.GetByCode(context.Background(), "demo001")
	require.NoError(t, err)
	assert.Equal(t, clinic.ID, found.ID)
}

func TestListActiveOmitsDeactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.create(t, "Clinica Attiva", "ATTIVA01")
	dormant := f.create(t, "Clinica Dismessa", "DISMESSA")

	inactive := false
	_, err := f.svc.Update(ctx, f.actorID, dormant.ID, UpdateInput{IsActive: &inactive})
	require.NoError(t, err)

	clinics, err := f.svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, clinics, 1)
	assert.Equal(t, active.ID, clinics[0].ID)
}

func TestClinicStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clinic := f.create(t, "Clinica", "DEMO001")

	for _, active := range []bool{true, true, false} {
		u := &model.User{Email: uuid.NewString() + "@test.it", Name: "Utente", ClinicID: clinic.ID, RoleID: uuid.New(), IsActive: active}
		require.NoError(t, f.users.Create(ctx, u))
	}
	for _, status := range []string{model.TicketStatusOpen, model.TicketStatusOpen, model.TicketStatusClosed} {
		tk := &model.Ticket{Title: "Ticket", Status: status, Priority: model.PriorityMedium, CategoryID: uuid.New(), ClinicID: clinic.ID, CreatorID: uuid.New(), Visibility: model.VisibilityPrivate}
		require.NoError(t, f.tickets.Create(ctx, tk))
	}

	stats, err := f.svc.Stats(ctx, clinic.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 3, stats.TotalTickets)
	assert.Equal(t, 2, stats.OpenTickets)
}

func TestClinicStatsUnknownClinic(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Stats(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
