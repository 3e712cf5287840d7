package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/geo_safety_monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectStore_GetReturnsCopy(t *testing.T) {
	store := NewSubjectStore()
	ctx := context.Background()

	require.NoError(t, store.SaveSubject(ctx, &models.Subject{ID: "s1", SafetyScore: 80, ZoneIDs: []string{"z1"}}))

	got, err := store.GetSubject(ctx, "s1")
	require.NoError(t, err)
	got.ZoneIDs[0] = "changed"
	got.SafetyScore = 1

	again, err := store.GetSubject(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 80, again.SafetyScore)
	assert.Equal(t, []string{"z1"}, again.ZoneIDs)
}

func TestSubjectStore_NotFound(t *testing.T) {
	_, err := NewSubjectStore().GetSubject(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestSubjectStore_ListFilterAndPage(t *testing.T) {
	store := NewSubjectStore()
	ctx := context.Background()
	for i, status := range []models.Status{models.StatusSafe, models.StatusWarning, models.StatusSafe, models.StatusSafe} {
		require.NoError(t, store.SaveSubject(ctx, &models.Subject{ID: string(rune('a' + i)), Status: status}))
	}

	safe, err := store.ListSubjects(ctx, models.SubjectFilter{Status: models.StatusSafe, Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, safe, 2)
	assert.Equal(t, "a", safe[0].ID)
	assert.Equal(t, "c", safe[1].ID)

	rest, err := store.ListSubjects(ctx, models.SubjectFilter{Status: models.StatusSafe, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "d", rest[0].ID)
}

func TestIncidentStore_FiltersAndStats(t *testing.T) {
	store := NewIncidentStore()
	ctx := context.Background()
	now := time.Now()

	open := &models.Incident{ID: uuid.New(), SubjectID: "s1", Type: models.IncidentPanic, Status: models.IncidentOpen, Priority: models.PriorityHigh, CreatedAt: now}
	resolved := &models.Incident{ID: uuid.New(), SubjectID: "s2", Type: models.IncidentMedical, Status: models.IncidentResolved, Priority: models.PriorityLow, CreatedAt: now.Add(time.Second)}
	require.NoError(t, store.Create(ctx, open))
	require.NoError(t, store.Create(ctx, resolved))

	list, err := store.ListIncidents(ctx, models.IncidentFilter{Status: models.IncidentOpen, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)

	list, err = store.ListIncidents(ctx, models.IncidentFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, resolved.ID, list[0].ID, "newest first")

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStats{Open: 1, Resolved: 1}, stats)

	err = store.Update(ctx, &models.Incident{ID: uuid.New()})
	assert.True(t, models.IsNotFound(err))
}
