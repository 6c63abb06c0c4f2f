package department

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
	departments *memory.DepartmentRepository
	users       *memory.UserRepository
	categories  *memory.CategoryRepository
	tickets     *memory.TicketRepository
	svc         *Service

	clinicID uuid.UUID
	actorID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		departments: memory.NewDepartmentRepository(),
		users:       memory.NewUserRepository(),
		categories:  memory.NewCategoryRepository(),
		tickets:     memory.NewTicketRepository(),
		actorID:     uuid.New(),
	}
	clinics := memory.NewClinicRepository()
	auditor := audit.NewService(memory.NewAuditRepository())
	f.svc = NewService(f.departments, clinics, f.users, f.categories, f.tickets, auditor)

	clinic := &model.Clinic{Name: "Clinica Test", Code: "TEST001", Settings: model.DefaultClinicSettings(), IsActive: true}
	require.NoError(t, clinics.Create(context.Background(), clinic))
	f.clinicID = clinic.ID
	return f
}

func (f *fixture) create(t *testing.T, name string, managerID *uuid.UUID) *model.Department {
	t.Helper()
	department, err := f.svc.Create(context.Background(), f.actorID, CreateInput{
		Name:      name,
		ClinicID:  f.clinicID,
		ManagerID: managerID,
	})
	require.NoError(t, err)
	return department
}

func (f *fixture) user(t *testing.T, clinicID uuid.UUID) *model.User {
	t.Helper()
	u := &model.User{Email: uuid.NewString() + "@test.it", Name: "Responsabile", ClinicID: clinicID, RoleID: uuid.New(), IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestCreateDepartment(t *testing.T) {
	f := newFixture(t)
	manager := f.user(t, f.clinicID)

	department := f.create(t, "  Reparto IT  ", &manager.ID)
	assert.Equal(t, "Reparto IT", department.Name)
	assert.True(t, department.IsActive)
	require.NotNil(t, department.ManagerID)
	assert.Equal(t, manager.ID, *department.ManagerID)
}

func TestCreateDepartmentNameConflict(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Reparto IT", nil)

	_, err := f.svc.Create(context.Background(), f.actorID, CreateInput{Name: "Reparto IT", ClinicID: f.clinicID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestCreateDepartmentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.actorID, CreateInput{Name: "   ", ClinicID: f.clinicID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))

	_, err = f.svc.Create(ctx, f.actorID, CreateInput{Name: "Reparto", ClinicID: uuid.New()})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateDepartmentManagerChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unknown := uuid.New()
	_, err := f.svc.Create(ctx, f.actorID, CreateInput{Name: "Reparto", ClinicID: f.clinicID, ManagerID: &unknown})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	outsider := f.user(t, uuid.New())
	_, err = f.svc.Create(ctx, f.actorID, CreateInput{Name: "Reparto", ClinicID: f.clinicID, ManagerID: &outsider.ID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestUpdateDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	department := f.create(t, "Reparto IT", nil)
	manager := f.user(t, f.clinicID)

	name := "Reparto Tecnico"
	inactive := false
	updated, err := f.svc.Update(ctx, f.actorID, department.ID, UpdateInput{
		Name:      &name,
		ManagerID: &manager.ID,
		IsActive:  &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Reparto Tecnico", updated.Name)
	require.NotNil(t, updated.ManagerID)
	assert.Equal(t, manager.ID, *updated.ManagerID)
	assert.False(t, updated.IsActive)
}

func TestUpdateDepartmentRenameConflict(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Reparto IT", nil)
	other := f.create(t, "Reparto HR", nil)

	name := "Reparto IT"
	_, err := f.svc.Update(context.Background(), f.actorID, other.ID, UpdateInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))

	// Re-applying the department's own name is not a conflict.
	own := "Reparto HR"
	_, err = f.svc.Update(context.Background(), f.actorID, other.ID, UpdateInput{Name: &own})
	require.NoError(t, err)
}

func TestDeleteDepartmentBlockedByCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	department := f.create(t, "Reparto IT", nil)

	category := &model.Category{Name: "Hardware", Slug: "hardware", ClinicID: f.clinicID, DepartmentID: &department.ID, Visibility: model.VisibilityPublic, IsActive: true}
	require.NoError(t, f.categories.Create(ctx, category))

	err := f.svc.Delete(ctx, f.actorID, department.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrReferentialIntegrity, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "categories are still assigned")
}

func TestDeleteDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	department := f.create(t, "Reparto IT", nil)

	require.NoError(t, f.svc.Delete(ctx, f.actorID, department.ID))

	_, err := f.svc.Get(ctx, department.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListByClinicResolvesManagers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	manager := f.user(t, f.clinicID)
	f.create(t, "Reparto IT", &manager.ID)
	f.create(t, "Reparto HR", nil)

	departments, err := f.svc.ListByClinic(ctx, f.clinicID)
	require.NoError(t, err)
	require.Len(t, departments, 2)

	byName := map[string]*model.DepartmentWithManager{}
	for _, d := range departments {
		byName[d.Name] = d
	}
	require.NotNil(t, byName["Reparto IT"].Manager)
	assert.Equal(t, manager.ID, byName["Reparto IT"].Manager.ID)
	assert.Nil(t, byName["Reparto HR"].Manager)
}

func TestDepartmentStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	department := f.create(t, "Reparto IT", nil)

	active := &model.Category{Name: "Hardware", Slug: "hardware", ClinicID: f.clinicID, DepartmentID: &department.ID, Visibility: model.VisibilityPublic, IsActive: true}
	dormant := &model.Category{Name: "Legacy", Slug: "legacy", ClinicID: f.clinicID, DepartmentID: &department.ID, Visibility: model.VisibilityPublic, IsActive: false}
	require.NoError(t, f.categories.Create(ctx, active))
	require.NoError(t, f.categories.Create(ctx, dormant))

	for i := 0; i < 3; i++ {
		tk := &model.Ticket{Title: "Ticket", Status: model.TicketStatusOpen, Priority: model.PriorityMedium, CategoryID: active.ID, ClinicID: f.clinicID, CreatorID: uuid.New(), Visibility: model.VisibilityPrivate}
		require.NoError(t, f.tickets.Create(ctx, tk))
	}

	stats, err := f.svc.Stats(ctx, department.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCategories)
	assert.Equal(t, 1, stats.ActiveCategories)
	assert.Equal(t, 3, stats.TotalTickets)
}
