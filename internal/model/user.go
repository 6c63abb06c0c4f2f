package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// NotificationPreferences control which channels a user is notified on.
type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// DashboardPreferences control the user's default dashboard rendering.
type DashboardPreferences struct {
	DefaultView  string `json:"default_view"`
	ItemsPerPage int    `json:"items_per_page"`
}

// UserPreferences is stored as a single jsonb column.
type UserPreferences struct {
	Notifications NotificationPreferences `json:"notifications"`
	Dashboard     DashboardPreferences    `json:"dashboard"`
}

func (p UserPreferences) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *UserPreferences) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// DefaultUserPreferences returns the preferences assigned to new users.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		Notifications: NotificationPreferences{Email: true, Push: true},
		Dashboard:     DashboardPreferences{DefaultView: "my-tickets", ItemsPerPage: 25},
	}
}

// User represents a helpdesk user. A user belongs to exactly one clinic and
// holds exactly one role at a time. Users are never hard-deleted, only
// deactivated.
type User struct {
	Base
	Email        string          `json:"email" db:"email"`
	Name         string          `json:"name" db:"name"`
	ClinicID     uuid.UUID       `json:"clinic_id" db:"clinic_id"`
	RoleID       uuid.UUID       `json:"role_id" db:"role_id"`
	Auth0ID      *string         `json:"auth0_id,omitempty" db:"auth0_id"`
	PasswordHash *string         `json:"-" db:"password_hash"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	LastLoginAt  *time.Time      `json:"last_login_at,omitempty" db:"last_login_at"`
	Preferences  UserPreferences `json:"preferences" db:"preferences"`
}

// UserWithRole is a user joined with its role for list views.
type UserWithRole struct {
	User
	Role *Role `json:"role,omitempty"`
}

// UserStats aggregates users of a clinic (or all clinics).
type UserStats struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"by_role"`
}
