package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/notes-bot/internal/models"
)

var day = 24 * time.Hour

func fixtureState(now time.Time) State {
	ts := func(d time.Duration) models.Timestamp { return models.NewTimestamp(now.Add(-d)) }
	notes := []models.Note{
		{ID: 1, Title: "banana", Category: "Work", Favorite: true, CreatedAt: ts(30 * day), UpdatedAt: ts(1 * day)},
		{ID: 2, Title: "Apple", Category: "Work", Public: true, CreatedAt: ts(2 * day), UpdatedAt: ts(2 * day)},
		{ID: 3, Title: "cherry", CreatedAt: ts(10 * day), UpdatedAt: ts(5 * day)},
		{ID: 4, Title: "date", Category: "Idea", Public: true, Favorite: true, CreatedAt: ts(1 * day), UpdatedAt: ts(1 * time.Hour)},
	}
	return Reduce(Initial(), NotesFetched{Page: models.Page[models.Note]{Content: notes}})
}

func ids(notes []models.Note) []int64 {
	out := make([]int64, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestVisibleNotes(t *testing.T) {
	now := time.Now()
	s := fixtureState(now)

	assert.Equal(t, []int64{4, 1, 2, 3}, ids(VisibleNotes(s)))

	tests := []struct {
		name    string
		filters Filters
		want    []int64
	}{
		{"title asc", Filters{SortBy: SortByTitle, SortOrder: SortAsc}, []int64{2, 1, 3, 4}},
		{"created desc", Filters{SortBy: SortByCreatedAt}, []int64{4, 2, 3, 1}},
		{"category", Filters{Category: "work", SortBy: SortByTitle, SortOrder: SortAsc}, []int64{2, 1}},
		{"uncategorized", Filters{Category: models.UncategorizedLabel}, []int64{3}},
		{"favorites only", Filters{FavoritesOnly: true}, []int64{4, 1}},
		{"public only", Filters{PublicOnly: true}, []int64{4, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VisibleNotes(Reduce(s, FiltersSet{Filters: tt.filters}))
			assert.Equal(t, tt.want, ids(got))
		})
	}

	s = Reduce(s, FiltersSet{Filters: Filters{PublicOnly: true}})
	s = Reduce(s, FiltersCleared{})
	assert.Len(t, VisibleNotes(s), 4)
}

func TestCategories(t *testing.T) {
	now := time.Now()
	s := fixtureState(now)

	cats := Categories(s, "")
	require.Len(t, cats, 3)
	assert.Equal(t, "Work", cats[0].Name)
	assert.Equal(t, 2, cats[0].Count)
	assert.True(t, cats[0].LastUpdated.Equal(now.Add(-day)))
	assert.Equal(t, "Idea", cats[1].Name)
	assert.Equal(t, models.UncategorizedLabel, cats[2].Name)

	filtered := Categories(s, "unc")
	require.Len(t, filtered, 1)
	assert.Equal(t, models.UncategorizedLabel, filtered[0].Name)
}

func TestSelectDashboard(t *testing.T) {
	now := time.Now()
	s := fixtureState(now)
	s = Reduce(s, StatsFetched{Stats: models.NoteStats{TotalViews: 12}})
	s = Reduce(s, RecentActivitiesFetched{Activities: []models.Activity{
		{ID: 1, Action: models.ActivityViewed, Timestamp: models.NewTimestamp(now.Add(-3 * day))},
		{ID: 2, Action: models.ActivityUpdated, Timestamp: models.NewTimestamp(now.Add(-1 * day))},
	}})
	s = Reduce(s, ActivityRecorded{Activity: models.Activity{LocalID: "x", Action: models.ActivityDeleted, Timestamp: models.NewTimestamp(now)}})

	d := SelectDashboard(s, now)
	assert.Equal(t, 4, d.TotalNotes)
	assert.Equal(t, 2, d.CreatedThisWeek)
	assert.Equal(t, 2, d.FavoriteCount)
	assert.Equal(t, map[string]int{"Work": 2, "Idea": 1, models.UncategorizedLabel: 1}, d.ByCategory)
	assert.Equal(t, []int64{4, 1, 2, 3}, ids(d.RecentNotes))
	require.Len(t, d.RecentActivities, 3)
	assert.Equal(t, "x", d.RecentActivities[0].LocalID)
	assert.Equal(t, int64(1), d.RecentActivities[2].ID)
	assert.Equal(t, 12, d.Stats.TotalViews)
}
