package model

import (
	"github.com/google/uuid"
)

// Department groups categories inside a clinic. The manager, when set, must
// belong to the same clinic.
type Department struct {
	Base
	Name      string     `json:"name" db:"name"`
	ClinicID  uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty" db:"manager_id"`
	IsActive  bool       `json:"is_active" db:"is_active"`
}

// DepartmentWithManager is a department joined with its manager for list views.
type DepartmentWithManager struct {
	Department
	Manager *User `json:"manager,omitempty"`
}

// DepartmentStats aggregates a department's categories and their tickets.
type DepartmentStats struct {
	TotalCategories  int `json:"total_categories"`
	ActiveCategories int `json:"active_categories"`
	TotalTickets     int `json:"total_tickets"`
}
