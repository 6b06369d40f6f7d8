package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/classifier"
	"github.com/xaenox/notes-bot/internal/favorites"
	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/storage"
	"github.com/xaenox/notes-bot/internal/store"
)

const (
	DefaultFavoritesTTL      = 30 * time.Second
	DefaultRecentDays        = 30
	DefaultFavoritesPageSize = 100
)

var (
	ErrNotAuthenticated  = errors.New("not logged in")
	ErrTwoFactorRequired = errors.New("two-factor verification required")
)

// Config tunes session behaviour; zero values take the defaults.
type Config struct {
	FavoritesTTL      time.Duration
	RecentDays        int
	FavoritesPageSize int
}

// Session runs the operations of one signed-in client against its own
// store, API client and credential namespace.
type Session struct {
	cfg        Config
	store      *store.Store
	client     *api.Client
	tokens     *storage.TokenStore
	favorites  *favorites.Coordinator
	classifier classifier.Classifier
	logger     *zap.Logger
	now        func() time.Time
}

func New(cfg Config, client *api.Client, tokens *storage.TokenStore, cls classifier.Classifier, logger *zap.Logger) *Session {
	if cfg.FavoritesTTL <= 0 {
		cfg.FavoritesTTL = DefaultFavoritesTTL
	}
	if cfg.RecentDays <= 0 {
		cfg.RecentDays = DefaultRecentDays
	}
	if cfg.FavoritesPageSize <= 0 {
		cfg.FavoritesPageSize = DefaultFavoritesPageSize
	}

	st := store.New()
	s := &Session{
		cfg:        cfg,
		store:      st,
		client:     client,
		tokens:     tokens,
		favorites:  favorites.NewCoordinator(st, client.Notes, logger),
		classifier: cls,
		logger:     logger,
		now:        time.Now,
	}
	s.favorites.OnError(s.expire)
	return s
}

// Open builds a session whose credentials live in namespace of st and
// restores a previously stored login.
func Open(ctx context.Context, cfg Config, apiCfg api.Config, st storage.Storage, namespace string, cls classifier.Classifier, logger *zap.Logger) *Session {
	logger = logger.With(zap.String("namespace", namespace))
	tokens := storage.NewTokenStore(st, namespace)
	s := New(cfg, api.New(apiCfg, tokens, logger), tokens, cls, logger)
	s.Restore(ctx)
	return s
}

func (s *Session) Store() *store.Store {
	return s.store
}

func (s *Session) State() store.State {
	return s.store.State()
}

func (s *Session) Client() *api.Client {
	return s.client
}

// DrainNotifications returns and clears the queued notifications.
func (s *Session) DrainNotifications() []store.Notification {
	return s.store.DrainNotifications()
}

func (s *Session) requireAuth() error {
	if !s.store.State().Auth.Authenticated {
		s.notify(store.NotifyError, Message(ErrNotAuthenticated, ""))
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Session) notify(kind store.NotificationKind, msg string) {
	s.store.Dispatch(store.Notified{Kind: kind, Message: msg})
}

// Message extracts the user facing text of an error returned by a session
// operation.
func Message(err error, def string) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "Please log in first"
	case errors.Is(err, ErrTwoFactorRequired):
		return "Two-factor verification required"
	}
	return api.Message(err, def)
}

// fail reports err through the store. A 401 on an authenticated session
// ends it locally. failed builds the slice failure action; nil queues a
// plain error notification.
func (s *Session) fail(ctx context.Context, err error, def string, failed func(msg string) store.Action) error {
	if s.expire(ctx, err) {
		return err
	}

	msg := Message(err, def)
	if failed != nil {
		s.store.Dispatch(failed(msg))
	} else {
		s.notify(store.NotifyError, msg)
	}
	return err
}

// expire ends an authenticated session the backend rejected with a 401.
func (s *Session) expire(ctx context.Context, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) || !s.store.State().Auth.Authenticated {
		return false
	}
	s.logger.Warn("Session rejected by backend, logging out", zap.Error(err))
	s.clearLocal(ctx)
	s.notify(store.NotifyError, "Your session has expired. Please log in again.")
	return true
}

func (s *Session) clearLocal(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear stored credentials", zap.Error(err))
	}
	s.client.ResetCache()
	s.store.Dispatch(store.LoggedOut{})
}

func (s *Session) recordActivity(action models.ActivityType, id int64, title, description string) {
	if title == "" {
		title = "Untitled Note"
	}
	s.store.Dispatch(store.ActivityRecorded{Activity: models.Activity{
		LocalID:       uuid.NewString(),
		Username:      s.store.State().Auth.Username,
		Action:        action,
		ResourceType:  "NOTE",
		ResourceID:    id,
		ResourceTitle: title,
		Description:   description,
		Timestamp:     models.NewTimestamp(s.now()),
	}})
}
