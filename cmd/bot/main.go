package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/app"
	"github.com/xaenox/notes-bot/internal/bot"
	"github.com/xaenox/notes-bot/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	bootstrap, _ := zap.NewProduction()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootstrap.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		bootstrap.Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	if cfg.Telegram.Token == "" {
		logger.Fatal("Telegram token is not configured, set telegram.token or TELEGRAM_TOKEN")
	}

	store, err := app.OpenStorage(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	sessions := app.NewSessions(cfg, store, app.NewClassifier(cfg, logger), logger)

	b, err := bot.New(cfg.Telegram.Token, cfg.Telegram.Debug, cfg.Telegram.UpdateTimeout, sessions, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Bot started", zap.String("api", cfg.API.BaseURL))
	if err := b.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}
