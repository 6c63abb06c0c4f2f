package model

import (
	"github.com/google/uuid"
)

// Permission scopes. A permission row is an immutable
// (resource, action, scope) triple created only by the seed routine.
const (
	ScopeOwn    = "own"
	ScopeClinic = "clinic"
	ScopeGlobal = "global"
)

// System role names.
const (
	RoleNameUser  = "Utente"
	RoleNameAgent = "Agente"
	RoleNameAdmin = "Amministratore"
)

type Permission struct {
	Base
	Resource string `json:"resource" db:"resource"`
	Action   string `json:"action" db:"action"`
	Scope    string `json:"scope" db:"scope"`
}

// Role groups permissions. System roles (IsSystem) are immutable after
// creation: update and delete on them always fail. A role without a clinic
// id is global.
type Role struct {
	Base
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	ClinicID    *uuid.UUID `json:"clinic_id,omitempty" db:"clinic_id"`
	Permissions UUIDList   `json:"permissions" db:"permissions"`
	IsSystem    bool       `json:"is_system" db:"is_system"`
}

// RoleWithPermissions is a role with its referenced permission rows
// resolved, in permission-id order. Dangling references are omitted.
type RoleWithPermissions struct {
	Role
	PermissionDetails []*Permission `json:"permission_details"`
}
