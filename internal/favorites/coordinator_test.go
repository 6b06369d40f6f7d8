package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
	"go.uber.org/zap"
)

type reply struct {
	note *models.Note
	err  error
}

// gatedToggler answers each call with the reply sent on its channel.
type gatedToggler struct {
	calls   chan int64
	replies chan reply
}

func newGatedToggler() *gatedToggler {
	return &gatedToggler{calls: make(chan int64, 4), replies: make(chan reply)}
}

func (g *gatedToggler) ToggleFavorite(ctx context.Context, id int64) (*models.Note, error) {
	g.calls <- id
	r := <-g.replies
	return r.note, r.err
}

func newStoreWith(notes ...models.Note) *store.Store {
	st := store.New()
	st.Dispatch(store.NotesFetched{Page: models.Page[models.Note]{Content: notes}})
	return st
}

func noteIn(t *testing.T, s store.State, id int64) models.Note {
	t.Helper()
	for _, n := range s.Notes.Items {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("note %d not found", id)
	return models.Note{}
}

func TestCoordinator_OptimisticThenServerValue(t *testing.T) {
	st := newStoreWith(models.Note{ID: 1, Title: "a"})
	toggler := newGatedToggler()
	c := NewCoordinator(st, toggler, zap.NewNop())

	done := c.Toggle(context.Background(), 1, nil)

	s := st.State()
	assert.True(t, noteIn(t, s, 1).Favorite)
	assert.True(t, store.IsFavorite(s, 1))
	assert.IsType(t, store.Pending{}, store.FavoriteStatus(s, 1))

	assert.Equal(t, int64(1), <-toggler.calls)
	toggler.replies <- reply{note: &models.Note{ID: 1, Title: "a", Favorite: true}}
	res := <-done

	require.NoError(t, res.Err)
	assert.True(t, res.Note.Favorite)
	s = st.State()
	assert.True(t, noteIn(t, s, 1).Favorite)
	assert.Equal(t, store.Settled{Favorite: true}, store.FavoriteStatus(s, 1))
	require.NoError(t, store.CheckFavoriteInvariant(s))
}

func TestCoordinator_FailureReverts(t *testing.T) {
	st := newStoreWith(models.Note{ID: 2, Title: "b", Favorite: true})
	before := st.State()
	toggler := newGatedToggler()
	c := NewCoordinator(st, toggler, zap.NewNop())

	done := c.Toggle(context.Background(), 2, nil)
	assert.False(t, noteIn(t, st.State(), 2).Favorite)

	<-toggler.calls
	toggler.replies <- reply{err: errors.New("connection refused")}
	res := <-done
	require.Error(t, res.Err)

	s := st.State()
	assert.Equal(t, before.Notes.Items, s.Notes.Items)
	assert.Equal(t, before.Favorites.IDs, s.Favorites.IDs)
	assert.Equal(t, before.Favorites.Notes, s.Favorites.Notes)

	notes := st.DrainNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, store.NotifyError, notes[0].Kind)
	assert.Equal(t, "Failed to update favorite", notes[0].Message)
}

func TestCoordinator_ErrorHandler(t *testing.T) {
	st := newStoreWith(models.Note{ID: 5, Title: "e"})
	toggler := newGatedToggler()
	c := NewCoordinator(st, toggler, zap.NewNop())

	var seen []error
	c.OnError(func(_ context.Context, err error) bool {
		seen = append(seen, err)
		if errors.Is(err, api.ErrUnauthorized) {
			st.Dispatch(store.LoggedOut{})
			return true
		}
		return false
	})

	done := c.Toggle(context.Background(), 5, nil)
	<-toggler.calls
	toggler.replies <- reply{err: errors.New("timeout")}
	require.Error(t, (<-done).Err)
	assert.False(t, noteIn(t, st.State(), 5).Favorite)
	assert.Len(t, st.DrainNotifications(), 1, "unhandled errors still revert and notify")

	done = c.Toggle(context.Background(), 5, nil)
	<-toggler.calls
	toggler.replies <- reply{err: &api.Error{Status: http.StatusUnauthorized}}
	res := <-done

	assert.ErrorIs(t, res.Err, api.ErrUnauthorized)
	assert.Len(t, seen, 2)
	s := st.State()
	assert.Empty(t, s.Notes.Items)
	assert.Empty(t, s.Favorites.Pending)
	assert.Empty(t, st.DrainNotifications())
}

func TestCoordinator_DeleteWhileInFlight(t *testing.T) {
	st := newStoreWith(models.Note{ID: 3})
	toggler := newGatedToggler()
	c := NewCoordinator(st, toggler, zap.NewNop())

	done := c.Toggle(context.Background(), 3, nil)
	<-toggler.calls
	st.Dispatch(store.NoteDeleted{ID: 3})
	toggler.replies <- reply{note: &models.Note{ID: 3, Favorite: true}}
	<-done

	s := st.State()
	assert.False(t, store.IsFavorite(s, 3))
	assert.Empty(t, s.Favorites.Notes)
	assert.Empty(t, s.Notes.Items)
}

func TestCoordinator_EmptyAnswerIsFailure(t *testing.T) {
	st := newStoreWith(models.Note{ID: 4})
	toggler := newGatedToggler()
	c := NewCoordinator(st, toggler, zap.NewNop())

	done := c.Toggle(context.Background(), 4, nil)
	<-toggler.calls
	toggler.replies <- reply{}
	res := <-done

	assert.ErrorIs(t, res.Err, api.ErrNotFound)
	assert.False(t, store.IsFavorite(st.State(), 4))
}

func TestCoordinator_WithAPIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/notes/7/favorite":
			json.NewEncoder(w).Encode(models.Note{ID: 7, Title: "server copy", Favorite: true})
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Note not found"}`))
		}
	}))
	defer srv.Close()

	client := api.New(api.Config{BaseURL: srv.URL}, nil, zap.NewNop())
	st := newStoreWith(models.Note{ID: 7, Title: "local copy"}, models.Note{ID: 8})
	c := NewCoordinator(st, client.Notes, zap.NewNop())

	note, err := c.ToggleWait(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Equal(t, "server copy", note.Title)
	assert.Equal(t, "server copy", noteIn(t, st.State(), 7).Title)

	_, err = c.ToggleWait(context.Background(), 8, nil)
	require.ErrorIs(t, err, api.ErrNotFound)
	assert.False(t, noteIn(t, st.State(), 8).Favorite)

	notes := st.DrainNotifications()
	require.Len(t, notes, 2)
	assert.Equal(t, "Added to favorites", notes[0].Message)
	assert.Equal(t, "Failed to update favorite: Note not found", notes[1].Message)
}
