package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xaenox/notes-bot/internal/models"
)

const (
	pathNotes     = "/api/notes"
	pathSearch    = "/api/notes/search"
	pathStats     = "/api/notes/stats"
	pathFavorites = "/api/notes/favorites"
	pathPublic    = "/api/notes/public"
)

func notePath(id int64) string {
	return fmt.Sprintf("/api/notes/%d", id)
}

func favoritePath(id int64) string {
	return fmt.Sprintf("/api/notes/%d/favorite", id)
}

// NotesService covers the /api/notes endpoints.
type NotesService struct {
	client *Client
}

func encodeQuery(q models.NoteQuery) url.Values {
	v := url.Values{}
	if q.Size > 0 {
		v.Set("page", strconv.Itoa(q.Page))
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Shared {
		v.Set("shared", "true")
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

func (s *NotesService) List(ctx context.Context, q models.NoteQuery) (*models.Page[models.Note], error) {
	var out models.Page[models.Note]
	if err := s.client.get(ctx, pathNotes, encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotesService) Get(ctx context.Context, id int64) (*models.Note, error) {
	var out models.Note
	if err := s.client.get(ctx, notePath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotesService) Create(ctx context.Context, req models.NoteRequest) (*models.Note, error) {
	var out models.Note
	if err := s.client.send(ctx, http.MethodPost, pathNotes, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotesService) Update(ctx context.Context, id int64, req models.NoteRequest) (*models.Note, error) {
	var out models.Note
	if err := s.client.send(ctx, http.MethodPut, notePath(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotesService) Delete(ctx context.Context, id int64) error {
	return s.client.send(ctx, http.MethodDelete, notePath(id), nil, nil, nil)
}

func (s *NotesService) Search(ctx context.Context, query string, q models.NoteQuery) (*models.Page[models.Note], error) {
	v := encodeQuery(q)
	v.Set("query", query)
	var out models.Page[models.Note]
	if err := s.client.get(ctx, pathSearch, v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotesService) Stats(ctx context.Context) (*models.NoteStats, error) {
	var out models.NoteStats
	if err := s.client.get(ctx, pathStats, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleFavorite flips the favorite flag server side and returns the
// authoritative note.
func (s *NotesService) ToggleFavorite(ctx context.Context, id int64) (*models.Note, error) {
	var out models.Note
	if err := s.client.send(ctx, http.MethodPost, favoritePath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotesService) Favorites(ctx context.Context, q models.NoteQuery) (*models.Page[models.Note], error) {
	var out models.Page[models.Note]
	if err := s.client.get(ctx, pathFavorites, encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotesService) Public(ctx context.Context) ([]models.Note, error) {
	var out models.Page[models.Note]
	if err := s.client.get(ctx, pathPublic, nil, &out); err != nil {
		return nil, err
	}
	return out.Content, nil
}
