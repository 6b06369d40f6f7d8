// Package app wires configuration into the logger, storage, classifier and
// session factories shared by the bot and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xaenox/notes-bot/internal/api"
	"github.com/xaenox/notes-bot/internal/classifier"
	"github.com/xaenox/notes-bot/internal/session"
	"github.com/xaenox/notes-bot/internal/storage"
	"github.com/xaenox/notes-bot/pkg/config"
)

func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

func OpenStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	case config.StoragePostgres:
		logger.Info("Using PostgreSQL storage")
		st, err := storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StorageSQLite:
		logger.Info("Using SQLite storage", zap.String("path", cfg.Storage.Path))
		st, err := storage.NewSQLiteStorage(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func NewClassifier(cfg *config.Config, logger *zap.Logger) classifier.Classifier {
	return classifier.New(classifier.GPTConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		MaxTags:     cfg.Classifier.MaxTags,
	}, logger)
}

func APIConfig(cfg *config.Config) api.Config {
	return api.Config{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		UserAgent:       cfg.API.UserAgent,
		RateWindow:      cfg.RateLimit.Window,
		DefaultLimit:    cfg.RateLimit.Default,
		Limits:          cfg.RateLimit.Limits,
		CacheDisabled:   cfg.Cache.Disabled,
		CacheMaxEntries: cfg.Cache.MaxEntries,
		CacheDefaultTTL: cfg.Cache.DefaultTTL,
		CacheTTLs:       cfg.Cache.TTLs,
	}
}

func SessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		FavoritesTTL:      cfg.Favorites.FetchTTL,
		RecentDays:        cfg.Activities.RecentDays,
		FavoritesPageSize: cfg.Favorites.PageSize,
	}
}

// Sessions opens sessions whose credentials live in one shared storage.
type Sessions struct {
	cfg        *config.Config
	storage    storage.Storage
	classifier classifier.Classifier
	logger     *zap.Logger
}

func NewSessions(cfg *config.Config, st storage.Storage, cls classifier.Classifier, logger *zap.Logger) *Sessions {
	return &Sessions{cfg: cfg, storage: st, classifier: cls, logger: logger}
}

// Open restores the session stored under namespace, or an anonymous one.
func (f *Sessions) Open(ctx context.Context, namespace string) *session.Session {
	return session.Open(ctx, SessionConfig(f.cfg), APIConfig(f.cfg), f.storage, namespace, f.classifier, f.logger)
}
