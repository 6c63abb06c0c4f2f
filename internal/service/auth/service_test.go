package auth

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
	userservice "github.com/medesk/helpdesk-api/internal/service/user"
	pkgauth "github.com/medesk/helpdesk-api/pkg/auth"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
	"github.com/medesk/helpdesk-api/pkg/security"
)

type fixture struct {
	users  *memory.UserRepository
	hasher security.PasswordHasher
	tokens pkgauth.JWTService
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  memory.NewUserRepository(),
		hasher: security.NewBcryptHasher(0),
		tokens: pkgauth.NewJWTService("test-secret", "test-refresh-secret", 1, 24),
	}
	rbac := memory.NewRBACRepository()
	auditor := audit.NewService(memory.NewAuditRepository())
	sync := userservice.NewService(
		f.users, memory.NewClinicRepository(), rbac,
		memory.NewOutboxRepository(), auditor, email.NewNoopService(&log.Logger),
	)
	f.svc = NewService(f.users, sync, f.tokens, f.hasher)

	role := &model.Role{Name: model.RoleNameUser, IsSystem: true}
	require.NoError(t, rbac.CreateRole(context.Background(), role))
	return f
}

func (f *fixture) localUser(t *testing.T, email, password string, active bool) *model.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	u := &model.User{
		Email:        email,
		Name:         "Amministratore",
		ClinicID:     uuid.New(),
		RoleID:       uuid.New(),
		PasswordHash: &hash,
		IsActive:     active,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestSyncIssuesTokens(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Sync(context.Background(), "auth0|abc", "mario@example.com", "Mario Rossi")
	require.NoError(t, err)
	assert.Equal(t, "mario@example.com", result.User.Email)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	claims, err := f.tokens.ValidateToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.localUser(t, "admin@clinica-esempio.it", "password-di-prova", true)

	result, err := f.svc.Login(ctx, "admin@clinica-esempio.it", "password-di-prova")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Tokens.AccessToken)

	stored, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.localUser(t, "admin@clinica-esempio.it", "password-di-prova", true)

	// Unknown email and wrong password fail the same way.
	_, err := f.svc.Login(ctx, "nessuno@clinica-esempio.it", "password-di-prova")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "invalid credentials")

	_, err = f.svc.Login(ctx, "admin@clinica-esempio.it", "sbagliata")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLoginPasswordlessAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u := &model.User{Email: "esterno@example.com", Name: "Esterno", ClinicID: uuid.New(), RoleID: uuid.New(), IsActive: true}
	require.NoError(t, f.users.Create(ctx, u))

	_, err := f.svc.Login(ctx, "esterno@example.com", "qualsiasi")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	f.localUser(t, "admin@clinica-esempio.it", "password-di-prova", false)

	_, err := f.svc.Login(context.Background(), "admin@clinica-esempio.it", "password-di-prova")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account is deactivated")
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.localUser(t, "admin@clinica-esempio.it", "password-di-prova", true)

	result, err := f.svc.Login(ctx, "admin@clinica-esempio.it", "password-di-prova")
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Refresh(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.localUser(t, "admin@clinica-esempio.it", "password-di-prova", true)

	result, err := f.svc.Login(ctx, "admin@clinica-esempio.it", "password-di-prova")
	require.NoError(t, err)

	// Access and refresh tokens are signed with different secrets.
	_, err = f.svc.Refresh(ctx, result.Tokens.AccessToken)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.CodeOf(err))
}
