package store

import (
	"fmt"
	"maps"
	"slices"

	"github.com/xaenox/notes-bot/internal/models"
)

const (
	msgFavoriteFailed  = "Failed to update favorite"
	msgFavoriteAdded   = "Added to favorites"
	msgFavoriteRemoved = "Removed from favorites"
)

// ToggleState is the per-note favorite state: Settled or Pending.
type ToggleState interface {
	toggleState()
}

// Settled means no toggle is in flight for the note.
type Settled struct {
	Favorite bool
}

// Pending is a toggle waiting for the backend. Seq is the latest toggle,
// InFlight the number of unanswered requests. Favorite is the value shown
// while waiting; Base is the last value confirmed by the backend (or the
// pre-toggle value) and is what a failure restores.
type Pending struct {
	Seq      uint64
	InFlight int
	Favorite bool
	Base     Membership
}

func (Settled) toggleState() {}
func (Pending) toggleState() {}

// FavoriteStatus returns the toggle state of a note.
func FavoriteStatus(s State, id int64) ToggleState {
	if p, ok := s.Favorites.Pending[id]; ok {
		return p
	}
	return Settled{Favorite: slices.Contains(s.Favorites.IDs, id)}
}

// IsFavorite reports whether id is in the favorite set as currently shown.
func IsFavorite(s State, id int64) bool {
	return slices.Contains(s.Favorites.IDs, id)
}

// Membership is a position in the favorites collection. IDIndex and
// NoteIndex are -1 when absent.
type Membership struct {
	Favorite  bool
	IDIndex   int
	Note      *models.Note
	NoteIndex int
}

// reduceFavoriteSync handles every action that touches favorite membership.
// Both collections are updated by the same call so they never disagree.
func reduceFavoriteSync(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case FavoriteToggled:
		return favoriteToggled(s, a), true
	case FavoriteToggleSucceeded:
		return favoriteSucceeded(s, a), true
	case FavoriteToggleFailed:
		return favoriteFailed(s, a), true
	case NoteDeleted:
		return noteDeleted(s, a.ID), true
	case FavoritesFetched:
		return favoritesFetched(s, a), true
	case FavoritesCleared:
		return favoritesCleared(s), true
	case NotesFetched:
		s.Notes.Items = nil
		s.Notes.Loading = false
		s.Notes.Pagination = Pagination{
			Page:          a.Page.Number,
			Size:          pageSize(a.Page.Size, s.Notes.Pagination.Size),
			TotalElements: a.Page.TotalElements,
			TotalPages:    a.Page.TotalPages,
		}
		items := make([]models.Note, 0, len(a.Page.Content))
		for _, n := range a.Page.Content {
			var note models.Note
			s, note = reconcile(s, n)
			items = append(items, note)
		}
		s.Notes.Items = items
		return s, true
	case NoteFetched:
		s, note := reconcile(s, a.Note)
		s.Notes.Loading = false
		s.Notes.Current = &note
		s.Notes.Items = replaceNote(s.Notes.Items, note)
		return s, true
	case NoteCreated:
		s, note := reconcile(s, a.Note)
		s.Notes.Items = append([]models.Note{note}, s.Notes.Items...)
		if s.Notes.Stats != nil {
			stats := *s.Notes.Stats
			stats.TotalNotes++
			stats.Total++
			s.Notes.Stats = &stats
		}
		return s, true
	case NoteUpdated:
		s, note := reconcile(s, a.Note)
		s.Notes.Items = replaceNote(s.Notes.Items, note)
		s.Notes.SearchResults = replaceNote(s.Notes.SearchResults, note)
		if s.Notes.Current != nil && s.Notes.Current.ID == note.ID {
			s.Notes.Current = &note
		}
		return s, true
	}
	return s, false
}

func favoriteToggled(s State, a FavoriteToggled) State {
	current := slices.Contains(s.Favorites.IDs, a.NoteID)
	target := !current

	p, pending := s.Favorites.Pending[a.NoteID]
	if !pending {
		p.Base = membershipOf(s.Favorites, a.NoteID)
	}
	p.Seq = a.Seq
	p.InFlight++
	p.Favorite = target
	s = setPending(s, a.NoteID, &p)

	source := a.Snapshot
	if n, ok := findNote(s.Notes.Items, a.NoteID); ok {
		source = &n
	}
	s = setMembership(s, a.NoteID, target, source)
	return patchFavorite(s, a.NoteID, target)
}

// favoriteSucceeded applies the server note. The last response to arrive
// wins; the entry settles once no request is left in flight.
func favoriteSucceeded(s State, a FavoriteToggleSucceeded) State {
	p, ok := s.Favorites.Pending[a.NoteID]
	if !ok {
		// deleted or logged out in the meantime
		return s
	}

	note := a.Note
	note.ID = a.NoteID
	s = setMembership(s, a.NoteID, note.Favorite, &note)
	s = replaceNoteEverywhere(s, note)

	p.InFlight--
	if p.InFlight <= 0 {
		s = setPending(s, a.NoteID, nil)
		msg := msgFavoriteRemoved
		if note.Favorite {
			msg = msgFavoriteAdded
		}
		return notify(s, NotifySuccess, msg)
	}

	p.Favorite = note.Favorite
	p.Base = membershipOf(s.Favorites, a.NoteID)
	return setPending(s, a.NoteID, &p)
}

// favoriteFailed restores Base when the latest toggle failed. A failed
// older toggle changes nothing visible.
func favoriteFailed(s State, a FavoriteToggleFailed) State {
	p, ok := s.Favorites.Pending[a.NoteID]
	if !ok {
		return s
	}

	p.InFlight--
	latest := a.Seq == p.Seq
	if latest {
		s = restoreMembership(s, a.NoteID, p.Base)
		s = patchFavorite(s, a.NoteID, p.Base.Favorite)
		p.Favorite = p.Base.Favorite
	}
	if p.InFlight > 0 {
		return setPending(s, a.NoteID, &p)
	}

	if !latest {
		s = restoreMembership(s, a.NoteID, p.Base)
		s = patchFavorite(s, a.NoteID, p.Base.Favorite)
	}
	s = setPending(s, a.NoteID, nil)

	msg := msgFavoriteFailed
	if a.Message != "" && a.Message != msgFavoriteFailed {
		msg = msgFavoriteFailed + ": " + a.Message
	}
	return notify(s, NotifyError, msg)
}

func noteDeleted(s State, id int64) State {
	s.Notes.Items = removeNote(s.Notes.Items, id)
	s.Notes.SearchResults = removeNote(s.Notes.SearchResults, id)
	s.Notes.PublicNotes = removeNote(s.Notes.PublicNotes, id)
	s.Notes.Selected = removeID(s.Notes.Selected, id)
	if s.Notes.Current != nil && s.Notes.Current.ID == id {
		s.Notes.Current = nil
	}
	if s.Notes.Stats != nil {
		stats := *s.Notes.Stats
		if stats.TotalNotes > 0 {
			stats.TotalNotes--
		}
		if stats.Total > 0 {
			stats.Total--
		}
		s.Notes.Stats = &stats
	}

	s = setPending(s, id, nil)
	return setMembership(s, id, false, nil)
}

func favoritesFetched(s State, a FavoritesFetched) State {
	ids := make([]int64, 0, len(a.Page.Content))
	notes := make([]models.Note, 0, len(a.Page.Content))
	for _, n := range a.Page.Content {
		if slices.Contains(ids, n.ID) {
			continue
		}
		n.Favorite = true
		ids = append(ids, n.ID)
		notes = append(notes, n)
	}

	fav := s.Favorites
	fav.IDs = nilIfEmpty(ids)
	fav.Notes = nilIfEmpty(notes)
	fav.LastFetched = a.At
	fav.TotalElements = a.Page.TotalElements
	fav.TotalPages = a.Page.TotalPages
	fav.CurrentPage = a.Page.Number
	fav.Loading = false
	fav.Error = ""
	s.Favorites = fav

	// in-flight toggles keep their optimistic value
	for id, p := range s.Favorites.Pending {
		var source *models.Note
		if n, ok := findNote(s.Notes.Items, id); ok {
			source = &n
		}
		s = setMembership(s, id, p.Favorite, source)
	}
	return syncNotesWithMembership(s)
}

func favoritesCleared(s State) State {
	s.Favorites = FavoritesState{}
	return syncNotesWithMembership(s)
}

// reconcile folds a note received from the backend into favorite
// membership and returns the note as it should be stored.
func reconcile(s State, note models.Note) (State, models.Note) {
	if p, ok := s.Favorites.Pending[note.ID]; ok {
		note.Favorite = p.Favorite
		if p.Favorite {
			s.Favorites.Notes = replaceNote(s.Favorites.Notes, note)
		}
		return s, note
	}
	s = setMembership(s, note.ID, note.Favorite, &note)
	if note.Favorite {
		s.Favorites.Notes = replaceNote(s.Favorites.Notes, note)
	}
	return s, note
}

func membershipOf(f FavoritesState, id int64) Membership {
	m := Membership{
		IDIndex:   slices.Index(f.IDs, id),
		NoteIndex: -1,
	}
	m.Favorite = m.IDIndex >= 0
	for i, n := range f.Notes {
		if n.ID == id {
			note := n
			m.Note = &note
			m.NoteIndex = i
			break
		}
	}
	return m
}

// setMembership adds or removes id from the favorites collection. A newly
// added id is materialized from source when one is given.
func setMembership(s State, id int64, favorite bool, source *models.Note) State {
	member := slices.Contains(s.Favorites.IDs, id)
	switch {
	case favorite && !member:
		s.Favorites.IDs = append(slices.Clone(s.Favorites.IDs), id)
		if source != nil {
			note := *source
			note.ID = id
			note.Favorite = true
			s.Favorites.Notes = append(slices.Clone(removeNote(s.Favorites.Notes, id)), note)
		}
	case favorite && member:
		if source != nil {
			note := *source
			note.ID = id
			note.Favorite = true
			if _, ok := findNote(s.Favorites.Notes, id); ok {
				s.Favorites.Notes = replaceNote(s.Favorites.Notes, note)
			} else {
				s.Favorites.Notes = append(slices.Clone(s.Favorites.Notes), note)
			}
		}
	case !favorite:
		if member {
			s.Favorites.IDs = removeID(s.Favorites.IDs, id)
		}
		s.Favorites.Notes = removeNote(s.Favorites.Notes, id)
	}
	return s
}

// restoreMembership puts id back exactly where m recorded it.
func restoreMembership(s State, id int64, m Membership) State {
	ids := removeID(s.Favorites.IDs, id)
	notes := removeNote(s.Favorites.Notes, id)
	if m.Favorite {
		ids = slices.Insert(ids, clampIndex(m.IDIndex, len(ids)), id)
		if m.Note != nil {
			notes = slices.Insert(notes, clampIndex(m.NoteIndex, len(notes)), *m.Note)
		}
	}
	s.Favorites.IDs = ids
	s.Favorites.Notes = notes
	return s
}

func setPending(s State, id int64, p *Pending) State {
	_, exists := s.Favorites.Pending[id]
	if p == nil && !exists {
		return s
	}
	pending := maps.Clone(s.Favorites.Pending)
	if pending == nil {
		pending = make(map[int64]Pending)
	}
	if p == nil {
		delete(pending, id)
	} else {
		pending[id] = *p
	}
	if len(pending) == 0 {
		pending = nil
	}
	s.Favorites.Pending = pending
	return s
}

// patchFavorite sets the favorite flag of id wherever the note is shown.
func patchFavorite(s State, id int64, favorite bool) State {
	patch := func(notes []models.Note) []models.Note {
		i := slices.IndexFunc(notes, func(n models.Note) bool { return n.ID == id })
		if i < 0 || notes[i].Favorite == favorite {
			return notes
		}
		notes = slices.Clone(notes)
		notes[i].Favorite = favorite
		return notes
	}
	s.Notes.Items = patch(s.Notes.Items)
	s.Notes.SearchResults = patch(s.Notes.SearchResults)
	s.Notes.PublicNotes = patch(s.Notes.PublicNotes)
	if s.Notes.Current != nil && s.Notes.Current.ID == id {
		current := *s.Notes.Current
		current.Favorite = favorite
		s.Notes.Current = &current
	}
	return s
}

func replaceNoteEverywhere(s State, note models.Note) State {
	s.Notes.Items = replaceNote(s.Notes.Items, note)
	s.Notes.SearchResults = replaceNote(s.Notes.SearchResults, note)
	s.Notes.PublicNotes = replaceNote(s.Notes.PublicNotes, note)
	if s.Notes.Current != nil && s.Notes.Current.ID == note.ID {
		s.Notes.Current = &note
	}
	return s
}

// syncNotesWithMembership makes every held note agree with the id set,
// including search results, public notes and the current note.
func syncNotesWithMembership(s State) State {
	var ids []int64
	collect := func(notes []models.Note) {
		for _, n := range notes {
			if !slices.Contains(ids, n.ID) {
				ids = append(ids, n.ID)
			}
		}
	}
	collect(s.Notes.Items)
	collect(s.Notes.SearchResults)
	collect(s.Notes.PublicNotes)
	if s.Notes.Current != nil {
		collect([]models.Note{*s.Notes.Current})
	}

	for _, id := range ids {
		s = patchFavorite(s, id, slices.Contains(s.Favorites.IDs, id))
	}
	return s
}

// CheckFavoriteInvariant reports the first disagreement between the notes
// collection and the favorites collection.
func CheckFavoriteInvariant(s State) error {
	seen := make(map[int64]bool, len(s.Favorites.IDs))
	for _, id := range s.Favorites.IDs {
		if seen[id] {
			return fmt.Errorf("note %d appears twice in favorite ids", id)
		}
		seen[id] = true
	}
	for _, n := range s.Notes.Items {
		if n.Favorite != seen[n.ID] {
			return fmt.Errorf("note %d: favorite=%t but membership=%t", n.ID, n.Favorite, seen[n.ID])
		}
	}
	for _, n := range s.Favorites.Notes {
		if !n.Favorite {
			return fmt.Errorf("favorite note %d has favorite=false", n.ID)
		}
		if !seen[n.ID] {
			return fmt.Errorf("favorite note %d is missing from favorite ids", n.ID)
		}
	}
	for id, p := range s.Favorites.Pending {
		if p.Favorite != seen[id] {
			return fmt.Errorf("pending toggle for note %d shows %t but membership=%t", id, p.Favorite, seen[id])
		}
	}
	return nil
}

func findNote(notes []models.Note, id int64) (models.Note, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}

func replaceNote(notes []models.Note, note models.Note) []models.Note {
	i := slices.IndexFunc(notes, func(n models.Note) bool { return n.ID == note.ID })
	if i < 0 {
		return notes
	}
	notes = slices.Clone(notes)
	notes[i] = note
	return notes
}

func removeNote(notes []models.Note, id int64) []models.Note {
	if !slices.ContainsFunc(notes, func(n models.Note) bool { return n.ID == id }) {
		return notes
	}
	return nilIfEmpty(slices.DeleteFunc(slices.Clone(notes), func(n models.Note) bool { return n.ID == id }))
}

func removeID(ids []int64, id int64) []int64 {
	if !slices.Contains(ids, id) {
		return ids
	}
	return nilIfEmpty(slices.DeleteFunc(slices.Clone(ids), func(v int64) bool { return v == id }))
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

func clampIndex(i, n int) int {
	if i < 0 || i > n {
		return n
	}
	return i
}

func pageSize(size, fallback int) int {
	if size > 0 {
		return size
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultPageSize
}
