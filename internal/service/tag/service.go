package tag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	"github.com/medesk/helpdesk-api/internal/util"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

const topTagsPerCategory = 5

type Service struct {
	tags       repository.TagRepository
	categories repository.CategoryRepository
	clinics    repository.ClinicRepository
	tickets    repository.TicketRepository
	auditor    *audit.Service
}

func NewService(
	tags repository.TagRepository,
	categories repository.CategoryRepository,
	clinics repository.ClinicRepository,
	tickets repository.TicketRepository,
	auditor *audit.Service,
) *Service {
	return &Service{
		tags:       tags,
		categories: categories,
		clinics:    clinics,
		tickets:    tickets,
		auditor:    auditor,
	}
}

type CreateInput struct {
	Name        string
	Description *string
	ClinicID    uuid.UUID
	CategoryID  *uuid.UUID
	Color       string
	Synonyms    []string
	AIGenerated bool
}

func (s *Service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*model.Tag, error) {
	if len(strings.TrimSpace(input.Name)) < 2 {
		return nil, apperrors.Validation("tag name must be at least 2 characters")
	}

	if _, err := s.clinics.Get(ctx, input.ClinicID); err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		category, err := s.categories.Get(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category.ClinicID != input.ClinicID {
			return nil, apperrors.Validation("category belongs to a different clinic")
		}
	}

	slug := util.GenerateSlug(input.Name)
	if slug == "" {
		return nil, apperrors.Validation("tag name produces an empty slug")
	}
	if _, err := s.tags.GetBySlug(ctx, input.ClinicID, slug); err == nil {
		return nil, apperrors.Conflict("a tag with this slug already exists in the clinic")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	tag := &model.Tag{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: input.Description,
		ClinicID:    input.ClinicID,
		CategoryID:  input.CategoryID,
		Color:       input.Color,
		IsActive:    true,
		Synonyms:    input.Synonyms,
		AIGenerated: input.AIGenerated,
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "create", "tag", tag.ID.String(), &audit.LogOptions{Changes: tag})
	return tag, nil
}

type UpdateInput struct {
	Name        *string
	Description *string
	CategoryID  *uuid.UUID
	Color       *string
	IsActive    *bool
	Synonyms    []string
}

func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, input UpdateInput) (*model.Tag, error) {
	tag, err := s.tags.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len(name) < 2 {
			return nil, apperrors.Validation("tag name must be at least 2 characters")
		}
		if name != tag.Name {
			slug := util.GenerateSlug(name)
			if slug == "" {
				return nil, apperrors.Validation("tag name produces an empty slug")
			}
			if existing, err := s.tags.GetBySlug(ctx, tag.ClinicID, slug); err == nil && existing.ID != id {
				return nil, apperrors.Conflict("a tag with this slug already exists in the clinic")
			} else if err != nil && !apperrors.IsNotFound(err) {
				return nil, err
			}
			tag.Slug = slug
		}
		tag.Name = name
	}
	if input.Description != nil {
		tag.Description = input.Description
	}
	if input.CategoryID != nil {
		category, err := s.categories.Get(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category.ClinicID != tag.ClinicID {
			return nil, apperrors.Validation("category belongs to a different clinic")
		}
		tag.CategoryID = input.CategoryID
	}
	if input.Color != nil {
		tag.Color = *input.Color
	}
	if input.IsActive != nil {
		tag.IsActive = *input.IsActive
	}
	if input.Synonyms != nil {
		tag.Synonyms = input.Synonyms
	}

	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actorID, "update", "tag", tag.ID.String(), &audit.LogOptions{Changes: tag})
	return tag, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if _, err := s.tags.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.tickets.CountTagAssociations(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count tag associations: %w", err)
	}
	if count > 0 {
		return apperrors.ReferentialIntegrity("Cannot delete tag: tickets are still associated with this tag")
	}

	if err := s.tags.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Log(ctx, actorID, "delete", "tag", id.String(), nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Tag, error) {
	return s.tags.Get(ctx, id)
}

func (s *Service) ListByClinic(ctx context.Context, clinicID uuid.UUID, filter model.TagFilter) ([]*model.Tag, error) {
	return s.tags.ListByClinic(ctx, clinicID, filter)
}

// IncrementUsage bumps the tag's usage counter and returns the new value.
// The counter is monotonic; nothing ever decrements it.
func (s *Service) IncrementUsage(ctx context.Context, id uuid.UUID) (int, error) {
	return s.tags.IncrementUsage(ctx, id)
}

// StatsByCategory groups the clinic's tags per category. Tags without a
// category land in a final bucket with a nil category.
func (s *Service) StatsByCategory(ctx context.Context, clinicID uuid.UUID) ([]*model.TagCategoryStats, error) {
	tags, err := s.tags.ListByClinic(ctx, clinicID, model.TagFilter{})
	if err != nil {
		return nil, err
	}

	buckets := make(map[uuid.UUID]*model.TagCategoryStats)
	unassigned := &model.TagCategoryStats{}
	var order []uuid.UUID

	for _, t := range tags {
		bucket := unassigned
		if t.CategoryID != nil {
			b, ok := buckets[*t.CategoryID]
			if !ok {
				category, err := s.categories.Get(ctx, *t.CategoryID)
				if err != nil && !apperrors.IsNotFound(err) {
					return nil, err
				}
				b = &model.TagCategoryStats{Category: category}
				buckets[*t.CategoryID] = b
				order = append(order, *t.CategoryID)
			}
			bucket = b
		}

		bucket.TotalTags++
		if t.IsActive {
			bucket.ActiveTags++
		}
		if t.AIGenerated {
			bucket.AIGeneratedTags++
		}
		bucket.TotalUsage += t.UsageCount
		bucket.TopTags = append(bucket.TopTags, t)
	}

	out := make([]*model.TagCategoryStats, 0, len(order)+1)
	for _, id := range order {
		out = append(out, buckets[id])
	}
	if unassigned.TotalTags > 0 {
		out = append(out, unassigned)
	}
	for _, b := range out {
		sort.SliceStable(b.TopTags, func(i, j int) bool {
			return b.TopTags[i].UsageCount > b.TopTags[j].UsageCount
		})
		if len(b.TopTags) > topTagsPerCategory {
			b.TopTags = b.TopTags[:topTagsPerCategory]
		}
	}
	return out, nil
}
