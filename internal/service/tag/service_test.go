package tag

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medesk/helpdesk-api/internal/model"
	"github.com/medesk/helpdesk-api/internal/repository/memory"
	"github.com/medesk/helpdesk-api/internal/service/audit"
	apperrors "github.com/medesk/helpdesk-api/pkg/errors"
)

type fixture struct {
	tags       *memory.TagRepository
	categories *memory.CategoryRepository
	clinics    *memory.ClinicRepository
	tickets    *memory.TicketRepository
	svc        *Service

	clinicID uuid.UUID
	actorID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tags:       memory.NewTagRepository(),
		categories: memory.NewCategoryRepository(),
		clinics:    memory.NewClinicRepository(),
		tickets:    memory.NewTicketRepository(),
		actorID:    uuid.New(),
	}
	auditor := audit.NewService(memory.NewAuditRepository())
	f.svc = NewService(f.tags, f.categories, f.clinics, f.tickets, auditor)

	clinic := &model.Clinic{Name: "Clinica Test", Code: "TEST001", Settings: model.DefaultClinicSettings(), IsActive: true}
	require.NoError(t, f.clinics.Create(context.Background(), clinic))
	f.clinicID = clinic.ID
	return f
}

func (f *fixture) create(t *testing.T, name string, categoryID *uuid.UUID) *model.Tag {
	t.Helper()
	tag, err := f.svc.Create(context.Background(), f.actorID, CreateInput{
		Name:       name,
		ClinicID:   f.clinicID,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return tag
}

func TestCreateTag(t *testing.T) {
	f := newFixture(t)

	tag := f.create(t, "Stampante Rotta", nil)
	assert.Equal(t, "stampante-rotta", tag.Slug)
	assert.True(t, tag.IsActive)
	assert.Zero(t, tag.UsageCount)
}

func TestCreateTagSlugConflict(t *testing.T) {
	f := newFixture(t)
	f.create(t, "VPN", nil)

	_, err := f.svc.Create(context.Background(), f.actorID, CreateInput{Name: "VPN", ClinicID: f.clinicID})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))
}

func TestUpdateTagRenameRederivesSlug(t *testing.T) {
	f := newFixture(t)
	tag := f.create(t, "Stampante", nil)
	other := f.create(t, "Scanner", nil)

	// Rename to a free name: slug follows.
	name := "Stampante Laser"
	updated, err := f.svc.Update(context.Background(), f.actorID, tag.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "stampante-laser", updated.Slug)

	// Rename colliding with another tag's slug fails.
	collide := "Scanner"
	_, err = f.svc.Update(context.Background(), f.actorID, tag.ID, UpdateInput{Name: &collide})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConflict, apperrors.CodeOf(err))

	// Re-applying a tag's own name is not a conflict.
	own := "Scanner"
	updated, err = f.svc.Update(context.Background(), f.actorID, other.ID, UpdateInput{Name: &own})
	require.NoError(t, err)
	assert.Equal(t, "scanner", updated.Slug)
}

func TestDeleteTagBlockedByAssociations(t *testing.T) {
	f := newFixture(t)
	tag := f.create(t, "VPN", nil)

	require.NoError(t, f.tickets.AttachTag(context.Background(), uuid.New(), tag.ID))

	err := f.svc.Delete(context.Background(), f.actorID, tag.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrReferentialIntegrity, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "tickets are still associated with this tag")
}

func TestDeleteTag(t *testing.T) {
	f := newFixture(t)
	tag := f.create(t, "VPN", nil)

	require.NoError(t, f.svc.Delete(context.Background(), f.actorID, tag.ID))
	_, err := f.svc.Get(context.Background(), tag.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIncrementUsage(t *testing.T) {
	f := newFixture(t)
	tag := f.create(t, "VPN", nil)

	for want := 1; want <= 3; want++ {
		got, err := f.svc.IncrementUsage(context.Background(), tag.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := f.svc.IncrementUsage(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStatsByCategory(t *testing.T) {
	f := newFixture(t)

	category := &model.Category{
		Name: "Rete", Slug: "rete", ClinicID: f.clinicID,
		Visibility: model.VisibilityPublic, IsActive: true,
	}
	require.NoError(t, f.categories.Create(context.Background(), category))

	assigned := f.create(t, "VPN", &category.ID)
	f.create(t, "WiFi", &category.ID)
	f.create(t, "Varie", nil)

	for i := 0; i < 4; i++ {
		_, err := f.svc.IncrementUsage(context.Background(), assigned.ID)
		require.NoError(t, err)
	}

	stats, err := f.svc.StatsByCategory(context.Background(), f.clinicID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	require.NotNil(t, stats[0].Category)
	assert.Equal(t, category.ID, stats[0].Category.ID)
	assert.Equal(t, 2, stats[0].TotalTags)
	assert.Equal(t, 2, stats[0].ActiveTags)
	assert.Equal(t, 4, stats[0].TotalUsage)
	require.NotEmpty(t, stats[0].TopTags)
	assert.Equal(t, assigned.ID, stats[0].TopTags[0].ID)

	// Unassigned bucket comes last with a nil category.
	assert.Nil(t, stats[1].Category)
	assert.Equal(t, 1, stats[1].TotalTags)
}

func TestStatsByCategoryTruncatesTopTags(t *testing.T) {
	f := newFixture(t)

	category := &model.Category{
		Name: "Rete", Slug: "rete", ClinicID: f.clinicID,
		Visibility: model.VisibilityPublic, IsActive: true,
	}
	require.NoError(t, f.categories.Create(context.Background(), category))

	names := []string{"Uno", "Due", "Tre", "Quattro", "Cinque", "Sei", "Sette"}
	for _, name := range names {
		f.create(t, name, &category.ID)
	}

	stats, err := f.svc.StatsByCategory(context.Background(), f.clinicID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, len(names), stats[0].TotalTags)
	assert.Len(t, stats[0].TopTags, 5)
}
