package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

const (
	decisionTTL     = 30 * time.Second
	cleanupInterval = 5 * time.Minute
)

// Service evaluates permission checks. Denial is always a false result,
// never an error: an unknown caller, an inactive account, a dangling role
// or an empty permission list all evaluate to denied.
type Service struct {
	users repository.UserRepository
	rbac  repository.RBACRepository

	// Decisions are cached briefly; role and permission mutations flush the
	// whole cache, so staleness is bounded by the TTL for reads that race a
	// mutation on another instance.
	cache *gocache.Cache
}

func NewService(users repository.UserRepository, rbac repository.RBACRepository) *Service {
	return &Service{
		users: users,
		rbac:  rbac,
		cache: gocache.New(decisionTTL, cleanupInterval),
	}
}

// Check reports whether the user may perform action on resource. targetID
// narrows "own"-scoped grants: nil means no specific target, which an
// own-scoped permission still allows.
func (s *Service) Check(ctx context.Context, userID uuid.UUID, resource, action string, targetID *uuid.UUID) (bool, error) {
	key := decisionKey(userID, resource, action, targetID)
	if cached, found := s.cache.Get(key); found {
		return cached.(bool), nil
	}

	allowed, err := s.evaluate(ctx, userID, resource, action, targetID)
	if err != nil {
		return false, err
	}

	s.cache.Set(key, allowed, gocache.DefaultExpiration)
	return allowed, nil
}

func (s *Service) evaluate(ctx context.Context, userID uuid.UUID, resource, action string, targetID *uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}

	user, err := s.users.Get(ctx, userID)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return false, nil
	}

	role, err := s.rbac.GetRole(ctx, user.RoleID)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load role: %w", err)
	}

	// Permissions are consulted in the role's array order; the first
	// (resource, action) match decides. Dangling permission ids are skipped.
	for _, permID := range role.Permissions {
		perm, err := s.rbac.GetPermission(ctx, permID)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to load permission: %w", err)
		}
		if perm.Resource != resource || perm.Action != action {
			continue
		}

		switch perm.Scope {
		case model.ScopeGlobal:
			return true, nil
		case model.ScopeClinic:
			// No clinic membership verification: a clinic-scoped grant
			// admits the caller regardless of the target's clinic.
			return true, nil
		case model.ScopeOwn:
			return targetID == nil || *targetID == userID, nil
		default:
			return false, nil
		}
	}

	return false, nil
}

// Invalidate drops all cached decisions. Called after any role or
// permission mutation.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

func decisionKey(userID uuid.UUID, resource, action string, targetID *uuid.UUID) string {
	target := ""
	if targetID != nil {
		target = targetID.String()
	}
	return userID.String() + ":" + resource + ":" + action + ":" + target
}
