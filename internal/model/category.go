package model

import (
	"github.com/google/uuid"
)

// Category visibility.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Category is a node in a clinic's category tree.
//
// Hierarchy invariants: Depth equals len(Path); Path equals the parent's
// Path plus the parent id; Order is the sibling rank assigned at creation
// (current sibling count), never renumbered on deletion.
type Category struct {
	Base
	Name             string     `json:"name" db:"name"`
	Slug             string     `json:"slug" db:"slug"`
	Description      *string    `json:"description,omitempty" db:"description"`
	ClinicID         uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	DepartmentID     *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	Visibility       string     `json:"visibility" db:"visibility"`
	RequiresApproval bool       `json:"requires_approval" db:"requires_approval"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	ParentID         *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	Path             UUIDList   `json:"path" db:"path"`
	Depth            int        `json:"depth" db:"depth"`
	Order            int        `json:"order" db:"sort_order"`
	Synonyms         StringList `json:"synonyms" db:"synonyms"`
}

// CategoryNode is a category with its resolved children, sorted by Order.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// CategoryWithDepartment is a category joined with its department.
type CategoryWithDepartment struct {
	Category
	Department *Department `json:"department,omitempty"`
}

// PendingCategory is a category awaiting approval, with its clinic and
// department resolved for review screens.
type PendingCategory struct {
	Category
	Clinic     *Clinic     `json:"clinic,omitempty"`
	Department *Department `json:"department,omitempty"`
}

// CategoryFilter narrows category listings. Nil fields are not applied.
type CategoryFilter struct {
	Visibility *string
	IsActive   *bool
}
