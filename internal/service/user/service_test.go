package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medesk/helpdesk-api/internal/email"
	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository/memory"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type fixture struct {
	users   *memory.UserRepository
	clinics *memory.ClinicRepository
	rbac    *memory.RBACRepository
	outbox  *memory.OutboxRepository
	svc     *Service

	userRoleID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   memory.NewUserRepository(),
		clinics: memory.NewClinicRepository(),
		rbac:    memory.NewRBACRepository(),
		outbox:  memory.NewOutboxRepository(),
	}
	auditor := audit.NewService(memory.NewAuditRepository())
	f.svc = NewService(f.users, f.clinics, f.rbac, f.outbox, auditor, email.NewNoopService(&log.Logger))

	role := &model.Role{Name: model.RoleNameUser, IsSystem: true}
	require.NoError(t, f.rbac.CreateRole(context.Background(), role))
	f.userRoleID = role.ID
	return f
}

func TestGetOrCreateNewUser(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.GetOrCreate(context.Background(), "auth0|abc", "mario@example.com", "Mario Rossi")
	require.NoError(t, err)
	assert.Equal(t, "mario@example.com", user.Email)
	assert.Equal(t, f.userRoleID, user.RoleID)
	assert.True(t, user.IsActive)
	assert.NotNil(t, user.LastLoginAt)
	assert.Equal(t, model.DefaultUserPreferences(), user.Preferences)

	// The default clinic is provisioned on first use.
	clinic, err := f.clinics.GetByCode(context.Background(), DefaultClinicCode)
	require.NoError(t, err)
	assert.Equal(t, DefaultClinicName, clinic.Name)
	assert.Equal(t, clinic.ID, user.ClinicID)

	events := f.outbox.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "user.created", events[0].EventType)
}

func TestGetOrCreateReturnsExisting(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.GetOrCreate(context.Background(), "auth0|abc", "mario@example.com", "Mario Rossi")
	require.NoError(t, err)

	second, err := f.svc.GetOrCreate(context.Background(), "auth0|abc", "other@example.com", "Other Name")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "mario@example.com", second.Email)
}

func TestGetOrCreateAdoptsByEmail(t *testing.T) {
	f := newFixture(t)

	clinic := &model.Clinic{Name: "Clinica", Code: "ABC123", Settings: model.DefaultClinicSettings(), IsActive: true}
	require.NoError(t, f.clinics.Create(context.Background(), clinic))

	local := &model.User{
		Email:    "mario@example.com",
		Name:     "Mario Rossi",
		ClinicID: clinic.ID,
		RoleID:   f.userRoleID,
		IsActive: true,
	}
	require.NoError(t, f.users.Create(context.Background(), local))

	user, err := f.svc.GetOrCreate(context.Background(), "auth0|abc", "mario@example.com", "Mario Rossi")
	require.NoError(t, err)
	assert.Equal(t, local.ID, user.ID)
	require.NotNil(t, user.Auth0ID)
	assert.Equal(t, "auth0|abc", *user.Auth0ID)

	// The next sync resolves by external id directly.
	again, err := f.svc.GetOrCreate(context.Background(), "auth0|abc", "mario@example.com", "Mario Rossi")
	require.NoError(t, err)
	assert.Equal(t, local.ID, again.ID)
}

func TestGetOrCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetOrCreate(context.Background(), "", "mario@example.com", "Mario")
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	_, err = f.svc.GetOrCreate(context.Background(), "auth0|abc", "not-an-email", "Mario")
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestCreateDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "mario@example.com", Name: "Mario"})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "mario@example.com", Name: "Altro"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestDeactivateSelfRejected(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "mario@example.com", Name: "Mario"})
	require.NoError(t, err)

	err = f.svc.Deactivate(context.Background(), user.ID, user.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot deactivate your own account")

	// Still active.
	got, err := f.svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestDeactivate(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "mario@example.com", Name: "Mario"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Deactivate(context.Background(), uuid.New(), user.ID))

	got, err := f.svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	var deactivated int
	for _, e := range f.outbox.Events() {
		if e.EventType == "user.deactivated" {
			deactivated++
		}
	}
	assert.Equal(t, 1, deactivated)
}

func TestUpdateSelfDeactivationRejected(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "mario@example.com", Name: "Mario"})
	require.NoError(t, err)

	inactive := false
	_, err = f.svc.Update(context.Background(), user.ID, user.ID, UpdateInput{IsActive: &inactive})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestUpdatePreferences(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "mario@example.com", Name: "Mario"})
	require.NoError(t, err)

	prefs := model.UserPreferences{
		Notifications: model.NotificationPreferences{Email: false, Push: true},
		Dashboard:     model.DashboardPreferences{DefaultView: "all-tickets", ItemsPerPage: 50},
	}
	updated, err := f.svc.UpdatePreferences(context.Background(), user.ID, prefs)
	require.NoError(t, err)
	assert.Equal(t, prefs, updated.Preferences)

	prefs.Dashboard.ItemsPerPage = 0
	_, err = f.svc.UpdatePreferences(context.Background(), user.ID, prefs)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	active, err := f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), uuid.New(), CreateInput{Email: "b@example.com", Name: "B"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Deactivate(context.Background(), uuid.New(), active.ID))

	// A user with a dangling role lands in the "unknown" bucket.
	clinic, err := f.clinics.GetByCode(context.Background(), DefaultClinicCode)
	require.NoError(t, err)
	orphan := &model.User{
		Email:    "c@example.com",
		Name:     "C",
		ClinicID: clinic.ID,
		RoleID:   uuid.New(),
		IsActive: true,
	}
	require.NoError(t, f.users.Create(context.Background(), orphan))

	stats, err := f.svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 2, stats.ByRole[model.RoleNameUser])
	assert.Equal(t, 1, stats.ByRole["unknown"])
}
