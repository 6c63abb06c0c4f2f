package model

import (
	"github.com/google/uuid"
)

// Tag labels tickets within a clinic. Tags have a lifecycle independent of
// categories; deletion is blocked while any ticket-tag association exists.
type Tag struct {
	Base
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	Description *string    `json:"description,omitempty" db:"description"`
	ClinicID    uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	Color       string     `json:"color" db:"color"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	UsageCount  int        `json:"usage_count" db:"usage_count"`
	Synonyms    StringList `json:"synonyms" db:"synonyms"`
	AIGenerated bool       `json:"ai_generated" db:"ai_generated"`
}

// TagCategoryStats aggregates a category's tags for reporting. A synthetic
// bucket with a nil category collects tags not assigned to any category.
type TagCategoryStats struct {
	Category        *Category `json:"category"`
	TotalTags       int       `json:"total_tags"`
	ActiveTags      int       `json:"active_tags"`
	AIGeneratedTags int       `json:"ai_generated_tags"`
	TotalUsage      int       `json:"total_usage"`
	TopTags         []*Tag    `json:"top_tags"`
}

// TagFilter narrows tag listings. Nil fields are not applied.
type TagFilter struct {
	CategoryID *uuid.UUID
	IsActive   *bool
}
