package model

import (
	"database/sql/driver"
)

// ClinicSettings is stored as a single jsonb column.
type ClinicSettings struct {
	AllowPublicTickets          bool `json:"allow_public_tickets"`
	RequireApprovalForCategories bool `json:"require_approval_for_categories"`
	DefaultSLAHours             int  `json:"default_sla_hours"`
}

func (s ClinicSettings) Value() (driver.Value, error) {
	return jsonValue(s)
}

func (s *ClinicSettings) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// DefaultClinicSettings returns the settings assigned to new clinics.
func DefaultClinicSettings() ClinicSettings {
	return ClinicSettings{
		AllowPublicTickets:          true,
		RequireApprovalForCategories: false,
		DefaultSLAHours:             24,
	}
}

// Clinic is the tenant unit: every user, department, category, tag and
// ticket belongs to exactly one clinic.
type Clinic struct {
	Base
	Name     string         `json:"name" db:"name"`
	Code     string         `json:"code" db:"code"`
	Address  string         `json:"address" db:"address"`
	Phone    string         `json:"phone" db:"phone"`
	Email    string         `json:"email" db:"email"`
	Settings ClinicSettings `json:"settings" db:"settings"`
	IsActive bool           `json:"is_active" db:"is_active"`
}

// ClinicStats summarizes a clinic's activity.
type ClinicStats struct {
	ActiveUsers  int `json:"active_users"`
	TotalTickets int `json:"total_tickets"`
	OpenTickets  int `json:"open_tickets"`
}
