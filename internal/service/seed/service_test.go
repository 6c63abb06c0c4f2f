package seed

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medesk/helpdesk-api/internal/email"
	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository/memory"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	categoryservice "github.com/medesk/helpdesk-api/internal/service/category"
	rbacservice "github.com/medesk/helpdesk-api/internal/service/rbac"
	userservice "github.com/medesk/helpdesk-api/internal/service/user"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
	"github.com/medesk/helpdesk-api/pkg/security"
)

type truncateRecorder struct {
	calls int
}

func (r *truncateRecorder) TruncateAll(context.Context) error {
	r.calls++
	return nil
}

type fixture struct {
	rbacRepo    *memory.RBACRepository
	clinics     *memory.ClinicRepository
	departments *memory.DepartmentRepository
	categories  *memory.CategoryRepository
	users       *memory.UserRepository
	truncate    *truncateRecorder
	svc         *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rbacRepo:    memory.NewRBACRepository(),
		clinics:     memory.NewClinicRepository(),
		departments: memory.NewDepartmentRepository(),
		categories:  memory.NewCategoryRepository(),
		users:       memory.NewUserRepository(),
		truncate:    &truncateRecorder{},
	}
	log := zerolog.Nop()
	auditor := audit.NewService(memory.NewAuditRepository())
	mailer := email.NewNoopService(&log)

	rbacSvc := rbacservice.NewService(f.rbacRepo, f.users, auditor, nil)
	categorySvc := categoryservice.NewService(
		f.categories, f.clinics, f.departments, memory.NewTicketRepository(),
		memory.NewOutboxRepository(), auditor, mailer,
	)
	f.svc = NewService(
		rbacSvc, f.rbacRepo, f.clinics, f.departments, categorySvc,
		f.users, f.truncate, security.NewBcryptHasher(0), &log,
	)
	return f
}

func TestInitializeDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summary, err := f.svc.InitializeDatabase(ctx, "password-di-prova")
	require.NoError(t, err)

	assert.Equal(t, 28, summary.Permissions)
	assert.Equal(t, 3, summary.Roles)
	assert.Equal(t, 2, summary.Departments)
	assert.Equal(t, 3, summary.Categories)

	clinic, err := f.clinics.Get(ctx, summary.ClinicID)
	require.NoError(t, err)
	assert.Equal(t, userservice.DefaultClinicCode, clinic.Code)
	assert.Equal(t, userservice.DefaultClinicName, clinic.Name)

	admin, err := f.users.Get(ctx, summary.AdminUserID)
	require.NoError(t, err)
	assert.Equal(t, "admin@clinica-esempio.it", admin.Email)
	assert.True(t, admin.IsActive)
	require.NotNil(t, admin.PasswordHash)

	adminRole, err := f.rbacRepo.GetSystemRoleByName(ctx, model.RoleNameAdmin)
	require.NoError(t, err)
	assert.Equal(t, adminRole.ID, admin.RoleID)

	// The seeded admin can log in with the supplied password.
	hasher := security.NewBcryptHasher(0)
	assert.NoError(t, hasher.Compare(*admin.PasswordHash, "password-di-prova"))

	// Demo categories: the first two are bound to the IT and HR departments.
	categories, err := f.categories.ListByClinic(ctx, clinic.ID, model.CategoryFilter{})
	require.NoError(t, err)
	require.Len(t, categories, 3)

	departments, err := f.departments.ListByClinic(ctx, clinic.ID)
	require.NoError(t, err)
	deptByID := make(map[uuid.UUID]string, len(departments))
	for _, d := range departments {
		deptByID[d.ID] = d.Name
	}

	byName := make(map[string]*model.Category, len(categories))
	for _, c := range categories {
		byName[c.Name] = c
	}
	require.NotNil(t, byName["Supporto Tecnico"])
	require.NotNil(t, byName["Supporto Tecnico"].DepartmentID)
	assert.Equal(t, "IT", deptByID[*byName["Supporto Tecnico"].DepartmentID])
	require.NotNil(t, byName["Richieste HR"])
	require.NotNil(t, byName["Richieste HR"].DepartmentID)
	assert.Equal(t, "Risorse Umane", deptByID[*byName["Richieste HR"].DepartmentID])
	require.NotNil(t, byName["Manutenzione"])
	assert.Nil(t, byName["Manutenzione"].DepartmentID)
}

func TestInitializeDatabaseRefusesSecondRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.InitializeDatabase(ctx, "password-di-prova")
	require.NoError(t, err)

	_, err = f.svc.InitializeDatabase(ctx, "password-di-prova")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "database already initialized")
}

func TestResetDatabase(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.ResetDatabase(context.Background()))
	assert.Equal(t, 1, f.truncate.calls)
}
