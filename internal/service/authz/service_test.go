package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository/memory"
)

type fixture struct {
	users *memory.UserRepository
	rbac  *memory.RBACRepository
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewUserRepository()
	rbac := memory.NewRBACRepository()
	return &fixture{users: users, rbac: rbac, svc: NewService(users, rbac)}
}

func (f *fixture) permission(t *testing.T, resource, action, scope string) uuid.UUID {
	t.Helper()
	p := &model.Permission{Resource: resource, Action: action, Scope: scope}
	require.NoError(t, f.rbac.CreatePermission(context.Background(), p))
	return p.ID
}

func (f *fixture) role(t *testing.T, perms ...uuid.UUID) uuid.UUID {
	t.Helper()
	r := &model.Role{Name: "role-" + uuid.NewString()[:8], Permissions: perms}
	require.NoError(t, f.rbac.CreateRole(context.Background(), r))
	return r.ID
}

func (f *fixture) user(t *testing.T, roleID uuid.UUID, active bool) uuid.UUID {
	t.Helper()
	u := &model.User{
		Email:    uuid.NewString()[:8] + "@example.com",
		Name:     "Test User",
		ClinicID: uuid.New(),
		RoleID:   roleID,
		IsActive: active,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func TestCheckUnknownUserDenied(t *testing.T) {
	f := newFixture(t)

	allowed, err := f.svc.Check(context.Background(), uuid.New(), "tickets", "read", nil)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = f.svc.Check(context.Background(), uuid.Nil, "tickets", "read", nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckInactiveUserDenied(t *testing.T) {
	f := newFixture(t)
	perm := f.permission(t, "tickets", "read", model.ScopeGlobal)
	userID := f.user(t, f.role(t, perm), false)

	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "read", nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckDanglingRoleDenied(t *testing.T) {
	f := newFixture(t)
	userID := f.user(t, uuid.New(), true)

	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "read", nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckGlobalScopeGrants(t *testing.T) {
	f := newFixture(t)
	perm := f.permission(t, "users", "write", model.ScopeGlobal)
	userID := f.user(t, f.role(t, perm), true)

	other := uuid.New()
	allowed, err := f.svc.Check(context.Background(), userID, "users", "write", &other)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckClinicScopeGrants(t *testing.T) {
	f := newFixture(t)
	perm := f.permission(t, "tickets", "read", model.ScopeClinic)
	userID := f.user(t, f.role(t, perm), true)

	other := uuid.New()
	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "read", &other)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckOwnScope(t *testing.T) {
	f := newFixture(t)
	perm := f.permission(t, "tickets", "write", model.ScopeOwn)
	userID := f.user(t, f.role(t, perm), true)

	// No target: own-scoped grant clears.
	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "write", nil)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Target is the caller.
	allowed, err = f.svc.Check(context.Background(), userID, "tickets", "write", &userID)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Target is someone else.
	other := uuid.New()
	allowed, err = f.svc.Check(context.Background(), userID, "tickets", "write", &other)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckWrongResourceOrActionDenied(t *testing.T) {
	f := newFixture(t)
	perm := f.permission(t, "tickets", "read", model.ScopeGlobal)
	userID := f.user(t, f.role(t, perm), true)

	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "write", nil)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = f.svc.Check(context.Background(), userID, "users", "read", nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckFirstMatchDecides(t *testing.T) {
	f := newFixture(t)
	own := f.permission(t, "tickets", "write", model.ScopeOwn)
	global := f.permission(t, "tickets", "write", model.ScopeGlobal)

	// Own comes first in array order, so an own-scoped denial wins even
	// though a global grant follows.
	userID := f.user(t, f.role(t, own, global), true)

	other := uuid.New()
	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "write", &other)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Reversed order: global decides first.
	userID2 := f.user(t, f.role(t, global, own), true)
	allowed, err = f.svc.Check(context.Background(), userID2, "tickets", "write", &other)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckDanglingPermissionSkipped(t *testing.T) {
	f := newFixture(t)
	global := f.permission(t, "tickets", "read", model.ScopeGlobal)
	userID := f.user(t, f.role(t, uuid.New(), global), true)

	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "read", nil)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCheckCachesDecision(t *testing.T) {
	f := newFixture(t)
	perm := f.permission(t, "tickets", "read", model.ScopeGlobal)
	roleID := f.role(t, perm)
	userID := f.user(t, roleID, true)

	allowed, err := f.svc.Check(context.Background(), userID, "tickets", "read", nil)
	require.NoError(t, err)
	require.True(t, allowed)

	// Strip the role's permissions behind the cache's back: the cached
	// grant survives until invalidation.
	role, err := f.rbac.GetRole(context.Background(), roleID)
	require.NoError(t, err)
	role.Permissions = nil
	require.NoError(t, f.rbac.UpdateRole(context.Background(), role))

	allowed, err = f.svc.Check(context.Background(), userID, "tickets", "read", nil)
	require.NoError(t, err)
	assert.True(t, allowed)

	f.svc.Invalidate()

	allowed, err = f.svc.Check(context.Background(), userID, "tickets", "read", nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}
