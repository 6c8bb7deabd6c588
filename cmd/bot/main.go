package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tokenbot/internal/config"
	"tokenbot/internal/dialogue"
	"tokenbot/internal/logging"
	"tokenbot/internal/scheduler"
	"tokenbot/internal/session"
	"tokenbot/internal/storage"
	"tokenbot/internal/telegram"
)

func main() {
	logging.Preinit()

	if err := godotenv.Load(".env"); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.Options{
		Level:          cfg.LogLevel,
		TelegramToken:  cfg.TelegramBotToken,
		TelegramChatID: cfg.LogTelegramChatID,
	})

	store, err := storage.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	if err := store.Ping(context.Background()); err != nil {
		slog.Error("database health check failed", "error", err)
		_ = store.Close()
		os.Exit(1)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	ctrl := dialogue.New(store, session.NewManager())

	bot, err := telegram.New(cfg.TelegramBotToken, ctrl, cfg.PollTimeout, dialogue.MsgInternalFailed)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		_ = store.Close()
		os.Exit(1)
	}

	sched := scheduler.New(ctrl, cfg.ConversationIdleTTL, cfg.SweepSpec)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		_ = store.Close()
		os.Exit(1)
	}
	defer sched.Stop()
	slog.Info("conversation sweep", "active", sched.IsRunning())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("bot started")
	bot.Start(ctx)
	slog.Info("shutting down")
}
