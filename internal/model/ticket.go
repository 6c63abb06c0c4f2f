package model

import (
	"time"

	"github.com/google/uuid"
)

// Ticket statuses.
const (
	TicketStatusNew        = "new"
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

type Ticket struct {
	Base
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Status       string     `json:"status" db:"status"`
	Priority     string     `json:"priority" db:"priority"`
	CategoryID   uuid.UUID  `json:"category_id" db:"category_id"`
	ClinicID     uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	CreatorID    uuid.UUID  `json:"creator_id" db:"creator_id"`
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty" db:"assignee_id"`
	Visibility   string     `json:"visibility" db:"visibility"`
	CustomFields JSONMap    `json:"custom_fields" db:"custom_fields"`
	SLADeadline  *time.Time `json:"sla_deadline,omitempty" db:"sla_deadline"`
	Tags         StringList `json:"tags" db:"tags"`
}

// TicketFilter narrows ticket listings. Zero-value fields are not applied.
type TicketFilter struct {
	ClinicID   uuid.UUID
	CreatorID  uuid.UUID
	AssigneeID uuid.UUID
	Status     string
}

// ValidTicketStatus reports whether s is a known ticket status.
func ValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusNew, TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known ticket priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
