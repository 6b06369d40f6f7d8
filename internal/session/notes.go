package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/favorites"
	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
)

func notesFailed(msg string) store.Action     { return store.NotesFailed{Message: msg} }
func favoritesFailed(msg string) store.Action { return store.FavoritesFailed{Message: msg} }

// FetchNotes loads the current page of notes using the filters and
// pagination held in the store.
func (s *Session) FetchNotes(ctx context.Context) ([]models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	st := s.store.State().Notes
	q := models.NoteQuery{
		Page:      st.Pagination.Page,
		Size:      st.Pagination.Size,
		Category:  st.Filters.Category,
		SortBy:    st.Filters.SortBy,
		SortOrder: st.Filters.SortOrder,
	}

	s.store.Dispatch(store.NotesRequested{})
	page, err := s.client.Notes.List(ctx, q)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load notes", notesFailed)
	}
	next := s.store.Dispatch(store.NotesFetched{Page: *page})
	return store.VisibleNotes(next), nil
}

// FetchNote loads one note and makes it the current note.
func (s *Session) FetchNote(ctx context.Context, id int64) (*models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	s.store.Dispatch(store.NotesRequested{})
	note, err := s.client.Notes.Get(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err, "Note not found", notesFailed)
	}
	next := s.store.Dispatch(store.NoteFetched{Note: *note})
	return next.Notes.Current, nil
}

// CreateNote validates and creates a note. Without a category the
// classifier suggests one, plus tags and a description when missing.
func (s *Session) CreateNote(ctx context.Context, req models.NoteRequest) (*models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if err := ValidateNote(req); err != nil {
		return nil, s.fail(ctx, err, "", notesFailed)
	}
	req = s.suggest(ctx, req)

	note, err := s.client.Notes.Create(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to create note", notesFailed)
	}
	s.store.Dispatch(store.NoteCreated{Note: *note})
	s.recordActivity(models.ActivityCreated, note.ID, note.Title, "Created note")
	s.notify(store.NotifySuccess, "Note created successfully")
	s.logger.Info("Note created",
		zap.Int64("note_id", note.ID),
		zap.String("category", note.Category))
	return note, nil
}

func (s *Session) suggest(ctx context.Context, req models.NoteRequest) models.NoteRequest {
	if req.Category != "" || s.classifier == nil {
		return req
	}
	sug := s.classifier.Suggest(ctx, req.Title+"\n"+req.Content)
	req.Category = sug.Category
	if len(req.Tags) == 0 {
		req.Tags = sug.Tags
	}
	if req.Description == "" && len([]rune(sug.Summary)) <= DescriptionMaxLength {
		req.Description = sug.Summary
	}
	s.logger.Debug("Suggested note category",
		zap.String("category", sug.Category),
		zap.Strings("tags", sug.Tags))
	return req
}

func (s *Session) UpdateNote(ctx context.Context, id int64, req models.NoteRequest) (*models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if err := ValidateNote(req); err != nil {
		return nil, s.fail(ctx, err, "", notesFailed)
	}

	note, err := s.client.Notes.Update(ctx, id, req)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to update note", notesFailed)
	}
	next := s.store.Dispatch(store.NoteUpdated{Note: *note})
	s.recordActivity(models.ActivityUpdated, note.ID, note.Title, "Updated note")
	s.notify(store.NotifySuccess, "Note updated successfully")

	for _, n := range next.Notes.Items {
		if n.ID == note.ID {
			return &n, nil
		}
	}
	return note, nil
}

// DeleteNote deletes a note and drops it from favorites, including any
// toggle still in flight for it.
func (s *Session) DeleteNote(ctx context.Context, id int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	title := s.noteTitle(id)

	if err := s.client.Notes.Delete(ctx, id); err != nil {
		return s.fail(ctx, err, "Failed to delete note", notesFailed)
	}
	s.store.Dispatch(store.NoteDeleted{ID: id})
	s.recordActivity(models.ActivityDeleted, id, title, "Deleted note")
	s.notify(store.NotifySuccess, "Note deleted successfully")
	s.logger.Info("Note deleted", zap.Int64("note_id", id))
	return nil
}

func (s *Session) noteTitle(id int64) string {
	if n := s.findNote(id); n != nil {
		return n.Title
	}
	return ""
}

// findNote looks a note up in every collection the store holds.
func (s *Session) findNote(id int64) *models.Note {
	st := s.store.State()
	if st.Notes.Current != nil && st.Notes.Current.ID == id {
		n := *st.Notes.Current
		return &n
	}
	for _, list := range [][]models.Note{st.Notes.Items, st.Favorites.Notes, st.Notes.SearchResults, st.Notes.PublicNotes} {
		for _, n := range list {
			if n.ID == id {
				return &n
			}
		}
	}
	return nil
}

func (s *Session) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchLength {
		return nil, s.fail(ctx, invalid("query", "Search query must be at least %d characters", MinSearchLength), "", nil)
	}

	f := s.store.State().Notes.Filters
	page, err := s.client.Notes.Search(ctx, query, models.NoteQuery{
		Category:  f.Category,
		SortBy:    f.SortBy,
		SortOrder: f.SortOrder,
	})
	if err != nil {
		return nil, s.fail(ctx, err, "Search failed", notesFailed)
	}
	s.store.Dispatch(store.SearchCompleted{Query: query, Results: page.Content})
	return page.Content, nil
}

func (s *Session) FetchStats(ctx context.Context) (*models.NoteStats, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	stats, err := s.client.Notes.Stats(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load statistics", notesFailed)
	}
	s.store.Dispatch(store.StatsFetched{Stats: *stats})
	return stats, nil
}

func (s *Session) FetchPublicNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := s.client.Notes.Public(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load public notes", notesFailed)
	}
	s.store.Dispatch(store.PublicNotesFetched{Notes: notes})
	return notes, nil
}

// FetchFavorites loads the favorite notes unless they were fetched less
// than FavoritesTTL ago.
func (s *Session) FetchFavorites(ctx context.Context) ([]models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	fav := s.store.State().Favorites
	if !fav.LastFetched.IsZero() && s.now().Sub(fav.LastFetched) < s.cfg.FavoritesTTL {
		return fav.Notes, nil
	}
	return s.loadFavorites(ctx)
}

// RefreshFavorites loads the favorite notes bypassing both the fetch TTL
// and the response cache.
func (s *Session) RefreshFavorites(ctx context.Context) ([]models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.loadFavorites(api.NoCache(ctx))
}

func (s *Session) loadFavorites(ctx context.Context) ([]models.Note, error) {
	s.store.Dispatch(store.FavoritesRequested{})
	page, err := s.client.Notes.Favorites(ctx, models.NoteQuery{Size: s.cfg.FavoritesPageSize})
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to fetch favorites", favoritesFailed)
	}
	next := s.store.Dispatch(store.FavoritesFetched{Page: *page, At: s.now()})
	return next.Favorites.Notes, nil
}

// ToggleFavorite flips the favorite flag optimistically and returns a
// channel that receives the backend settlement. The request outlives ctx
// cancellation so a view may return right away.
func (s *Session) ToggleFavorite(ctx context.Context, id int64) (<-chan favorites.Result, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.favorites.Toggle(context.WithoutCancel(ctx), id, s.findNote(id)), nil
}

// ToggleFavoriteWait flips the favorite flag and waits for the backend.
func (s *Session) ToggleFavoriteWait(ctx context.Context, id int64) (*models.Note, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	return s.favorites.ToggleWait(ctx, id, s.findNote(id))
}
