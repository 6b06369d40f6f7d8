package store

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/xaenox/notes-bot/internal/models"
)

const (
	dashboardRecentNotes      = 5
	dashboardRecentActivities = 5
	recentWindow              = 7 * 24 * time.Hour
)

// VisibleNotes applies the notes filters and sort order to the notes
// collection.
func VisibleNotes(s State) []models.Note {
	f := s.Notes.Filters
	out := make([]models.Note, 0, len(s.Notes.Items))
	for _, n := range s.Notes.Items {
		if f.Category != "" && !strings.EqualFold(n.CategoryOrDefault(), f.Category) {
			continue
		}
		if f.FavoritesOnly && !n.Favorite {
			continue
		}
		if f.PublicOnly && !n.Public {
			continue
		}
		out = append(out, n)
	}
	SortNotes(out, f.SortBy, f.SortOrder)
	return out
}

// SortNotes sorts notes in place by updatedAt, createdAt or title.
func SortNotes(notes []models.Note, by, order string) {
	var compare func(a, b models.Note) int
	switch by {
	case SortByTitle:
		compare = func(a, b models.Note) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortByCreatedAt:
		compare = func(a, b models.Note) int { return a.CreatedAt.Compare(b.CreatedAt.Time) }
	default:
		compare = func(a, b models.Note) int { return a.UpdatedAt.Compare(b.UpdatedAt.Time) }
	}
	if order != SortAsc {
		asc := compare
		compare = func(a, b models.Note) int { return asc(b, a) }
	}
	slices.SortStableFunc(notes, compare)
}

// CategorySummary is one row of the categories view.
type CategorySummary struct {
	Name        string
	Count       int
	LastUpdated time.Time
}

// Categories groups the notes collection by category, most used first.
// A non-empty query keeps categories whose name contains it.
func Categories(s State, query string) []CategorySummary {
	byName := make(map[string]*CategorySummary)
	for _, n := range s.Notes.Items {
		name := n.CategoryOrDefault()
		c, ok := byName[name]
		if !ok {
			c = &CategorySummary{Name: name}
			byName[name] = c
		}
		c.Count++
		if n.UpdatedAt.After(c.LastUpdated) {
			c.LastUpdated = n.UpdatedAt.Time
		}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]CategorySummary, 0, len(byName))
	for _, c := range byName {
		if query != "" && !strings.Contains(strings.ToLower(c.Name), query) {
			continue
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b CategorySummary) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Dashboard aggregates what the dashboard view shows.
type Dashboard struct {
	TotalNotes       int
	CreatedThisWeek  int
	FavoriteCount    int
	ByCategory       map[string]int
	RecentNotes      []models.Note
	RecentActivities []models.Activity
	Stats            *models.NoteStats
}

func SelectDashboard(s State, now time.Time) Dashboard {
	d := Dashboard{
		TotalNotes:    len(s.Notes.Items),
		FavoriteCount: len(s.Favorites.IDs),
		ByCategory:    make(map[string]int),
		Stats:         s.Notes.Stats,
	}
	weekAgo := now.Add(-recentWindow)
	for _, n := range s.Notes.Items {
		if n.CreatedAt.After(weekAgo) {
			d.CreatedThisWeek++
		}
		d.ByCategory[n.CategoryOrDefault()]++
	}

	recent := slices.Clone(s.Notes.Items)
	SortNotes(recent, SortByUpdatedAt, SortDesc)
	d.RecentNotes = recent[:min(len(recent), dashboardRecentNotes)]

	d.RecentActivities = RecentActivities(s, dashboardRecentActivities)
	return d
}

// RecentActivities merges locally recorded and fetched activities, newest
// first, and returns at most n of them.
func RecentActivities(s State, n int) []models.Activity {
	all := make([]models.Activity, 0, len(s.Activities.Local)+len(s.Activities.Recent))
	all = append(all, s.Activities.Local...)
	all = append(all, s.Activities.Recent...)
	slices.SortStableFunc(all, func(a, b models.Activity) int {
		return b.Timestamp.Compare(a.Timestamp.Time)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// FavoriteNotes returns the materialized favorite notes.
func FavoriteNotes(s State) []models.Note {
	return s.Favorites.Notes
}
