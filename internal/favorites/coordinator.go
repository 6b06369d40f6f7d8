package favorites

import (
	"context"
	"sync/atomic"

	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
	"go.uber.org/zap"
)

// Toggler persists a favorite toggle and returns the updated note.
type Toggler interface {
	ToggleFavorite(ctx context.Context, id int64) (*models.Note, error)
}

// Result is the settlement of one toggle.
type Result struct {
	Note *models.Note
	Err  error
}

// ErrorHandler gets the first look at a failed toggle. Returning true means
// the failure was handled and no revert is dispatched.
type ErrorHandler func(ctx context.Context, err error) bool

// Coordinator flips favorite membership optimistically and reconciles it
// with the backend answer.
type Coordinator struct {
	store   *store.Store
	toggler Toggler
	logger  *zap.Logger
	onError ErrorHandler
	seq     atomic.Uint64
}

func NewCoordinator(st *store.Store, toggler Toggler, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:   st,
		toggler: toggler,
		logger:  logger,
	}
}

// OnError installs h. It must be called before the first toggle.
func (c *Coordinator) OnError(h ErrorHandler) {
	c.onError = h
}

// Toggle applies the optimistic flip before returning and persists it in
// the background. The returned channel receives exactly one Result.
func (c *Coordinator) Toggle(ctx context.Context, id int64, snapshot *models.Note) <-chan Result {
	seq := c.seq.Add(1)
	c.store.Dispatch(store.FavoriteToggled{NoteID: id, Seq: seq, Snapshot: snapshot})

	done := make(chan Result, 1)
	go func() {
		defer close(done)
		done <- c.settle(ctx, id, seq)
	}()
	return done
}

// ToggleWait toggles and blocks until the backend answered.
func (c *Coordinator) ToggleWait(ctx context.Context, id int64, snapshot *models.Note) (*models.Note, error) {
	res := <-c.Toggle(ctx, id, snapshot)
	return res.Note, res.Err
}

func (c *Coordinator) settle(ctx context.Context, id int64, seq uint64) Result {
	note, err := c.toggler.ToggleFavorite(ctx, id)
	if err == nil && note == nil {
		err = api.ErrNotFound
	}
	if err != nil {
		c.logger.Warn("Favorite toggle failed",
			zap.Int64("note_id", id),
			zap.Uint64("seq", seq),
			zap.Error(err))
		if c.onError != nil && c.onError(ctx, err) {
			return Result{Err: err}
		}
		c.store.Dispatch(store.FavoriteToggleFailed{
			NoteID:  id,
			Seq:     seq,
			Message: api.Message(err, ""),
		})
		return Result{Err: err}
	}

	c.logger.Debug("Favorite toggle settled",
		zap.Int64("note_id", id),
		zap.Uint64("seq", seq),
		zap.Bool("favorite", note.Favorite))
	c.store.Dispatch(store.FavoriteToggleSucceeded{NoteID: id, Seq: seq, Note: *note})
	return Result{Note: note}
}
