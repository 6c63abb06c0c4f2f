package rbac

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
	repo  *memory.RBACRepository
	users *memory.UserRepository
	svc   *Service

	invalidations int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  memory.NewRBACRepository(),
		users: memory.NewUserRepository(),
	}
	auditor := audit.NewService(memory.NewAuditRepository())
	f.svc = NewService(f.repo, f.users, auditor, func() { f.invalidations++ })
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	_, err := f.svc.SeedSystemPermissions(context.Background())
	require.NoError(t, err)
	_, err = f.svc.SeedSystemRoles(context.Background())
	require.NoError(t, err)
}

func permSet(t *testing.T, f *fixture, role *model.Role) map[string]bool {
	t.Helper()
	out := make(map[string]bool)
	for _, id := range role.Permissions {
		p, err := f.repo.GetPermission(context.Background(), id)
		require.NoError(t, err)
		out[p.Resource+":"+p.Action+":"+p.Scope] = true
	}
	return out
}

func TestSeedSystemPermissions(t *testing.T) {
	f := newFixture(t)

	perms, err := f.svc.SeedSystemPermissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, perms, 28)

	// Idempotent: a second run creates nothing new.
	again, err := f.svc.SeedSystemPermissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, again, 28)

	count, err := f.repo.CountPermissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 28, count)
}

func TestSeedSystemRoles(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	roles, err := f.repo.ListRoles(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	byName := make(map[string]*model.Role)
	for _, r := range roles {
		assert.True(t, r.IsSystem)
		assert.Nil(t, r.ClinicID)
		byName[r.Name] = r
	}

	// Utente: every own-scope ticket permission, clinic-wide ticket reads,
	// and category reads.
	utente := byName[model.RoleNameUser]
	require.NotNil(t, utente)
	got := permSet(t, f, utente)
	assert.Len(t, got, 5)
	assert.True(t, got["tickets:read:own"])
	assert.True(t, got["tickets:write:own"])
	assert.True(t, got["tickets:delete:own"])
	assert.True(t, got["tickets:read:clinic"])
	assert.True(t, got["categories:read:clinic"])
	assert.False(t, got["tickets:write:clinic"])

	// Agente: everything clinic-scoped plus own-scope tickets.
	agente := byName[model.RoleNameAgent]
	require.NotNil(t, agente)
	got = permSet(t, f, agente)
	assert.Len(t, got, 16)
	assert.True(t, got["tickets:read:own"])
	assert.True(t, got["tickets:delete:own"])
	assert.True(t, got["tickets:delete:clinic"])
	assert.True(t, got["users:write:clinic"])
	assert.True(t, got["users:delete:clinic"])
	assert.True(t, got["categories:approve:clinic"])
	assert.True(t, got["settings:write:clinic"])
	assert.True(t, got["reports:read:clinic"])
	assert.False(t, got["tickets:read:global"])
	assert.False(t, got["reports:read:global"])

	admin := byName[model.RoleNameAdmin]
	require.NotNil(t, admin)
	assert.Len(t, admin.Permissions, 28)
}

func TestSeedSystemRolesIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	_, err := f.svc.SeedSystemRoles(context.Background())
	require.NoError(t, err)

	count, err := f.repo.CountSystemRoles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSeedSystemRolesRequiresPermissions(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SeedSystemRoles(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestCreateRole(t *testing.T) {
	f := newFixture(t)
	perms, err := f.svc.SeedSystemPermissions(context.Background())
	require.NoError(t, err)

	role := &model.Role{
		Name:        "Custom",
		Permissions: model.UUIDList{perms[0].ID},
		IsSystem:    true, // must be ignored
	}
	role.ID = uuid.New()
	require.NoError(t, f.svc.CreateRole(context.Background(), uuid.New(), role))
	assert.False(t, role.IsSystem)

	stored, err := f.repo.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSystem)
}

func TestCreateRoleUnknownPermission(t *testing.T) {
	f := newFixture(t)

	role := &model.Role{Name: "Custom", Permissions: model.UUIDList{uuid.New()}}
	role.ID = uuid.New()
	err := f.svc.CreateRole(context.Background(), uuid.New(), role)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "one or more permissions not found")
}

func TestCreateRoleShortName(t *testing.T) {
	f := newFixture(t)

	role := &model.Role{Name: " x "}
	err := f.svc.CreateRole(context.Background(), uuid.New(), role)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.CodeOf(err))
}

func TestUpdateSystemRoleFails(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	admin, err := f.repo.GetSystemRoleByName(context.Background(), model.RoleNameAdmin)
	require.NoError(t, err)

	name := "Renamed"
	_, err = f.svc.UpdateRole(context.Background(), uuid.New(), admin.ID, &name, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot modify system roles")
}

func TestDeleteSystemRoleFails(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	admin, err := f.repo.GetSystemRoleByName(context.Background(), model.RoleNameAdmin)
	require.NoError(t, err)

	err = f.svc.DeleteRole(context.Background(), uuid.New(), admin.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot delete system roles")
}

func TestDeleteRoleWithAssignedUsers(t *testing.T) {
	f := newFixture(t)

	role := &model.Role{Name: "Custom"}
	role.ID = uuid.New()
	require.NoError(t, f.svc.CreateRole(context.Background(), uuid.New(), role))

	user := &model.User{
		Email:    "user@example.com",
		Name:     "User",
		ClinicID: uuid.New(),
		RoleID:   role.ID,
		IsActive: true,
	}
	require.NoError(t, f.users.Create(context.Background(), user))

	err := f.svc.DeleteRole(context.Background(), uuid.New(), role.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrReferentialIntegrity, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "users are still assigned to this role")
}

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	perms, err := f.svc.SeedSystemPermissions(context.Background())
	require.NoError(t, err)

	role := &model.Role{Name: "Custom"}
	role.ID = uuid.New()
	require.NoError(t, f.svc.CreateRole(context.Background(), uuid.New(), role))

	name := "Renamed"
	newPerms := model.UUIDList{perms[0].ID, perms[1].ID}
	updated, err := f.svc.UpdateRole(context.Background(), uuid.New(), role.ID, &name, nil, &newPerms)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, newPerms, updated.Permissions)
}

func TestGetRoleOmitsDanglingPermissions(t *testing.T) {
	f := newFixture(t)
	perms, err := f.svc.SeedSystemPermissions(context.Background())
	require.NoError(t, err)

	role := &model.Role{Name: "Custom", Permissions: model.UUIDList{perms[0].ID}}
	role.ID = uuid.New()
	require.NoError(t, f.svc.CreateRole(context.Background(), uuid.New(), role))

	// Dangle a reference after creation.
	stored, err := f.repo.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	stored.Permissions = append(stored.Permissions, uuid.New())
	require.NoError(t, f.repo.UpdateRole(context.Background(), stored))

	got, err := f.svc.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	assert.Len(t, got.Permissions, 2)
	assert.Len(t, got.PermissionDetails, 1)
}

func TestListRoles(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	clinicID := uuid.New()
	clinicRole := &model.Role{Name: "Clinic Role", ClinicID: &clinicID}
	clinicRole.ID = uuid.New()
	require.NoError(t, f.svc.CreateRole(context.Background(), uuid.New(), clinicRole))

	// Clinic view with system roles appended.
	roles, err := f.svc.ListRoles(context.Background(), &clinicID, true)
	require.NoError(t, err)
	assert.Len(t, roles, 4)

	// Clinic view without system roles.
	roles, err = f.svc.ListRoles(context.Background(), &clinicID, false)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Clinic Role", roles[0].Name)

	// Global view.
	roles, err = f.svc.ListRoles(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Len(t, roles, 4)
}

func TestMutationsFlushDecisionCache(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before := f.invalidations
	require.Positive(t, before)

	role := &model.Role{Name: "Custom"}
	role.ID = uuid.New()
	require.NoError(t, f.svc.CreateRole(context.Background(), uuid.New(), role))
	assert.Equal(t, before+1, f.invalidations)

	require.NoError(t, f.svc.DeleteRole(context.Background(), uuid.New(), role.ID))
	assert.Equal(t, before+2, f.invalidations)
}
