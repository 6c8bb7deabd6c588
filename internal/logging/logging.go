package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// Options selects where log records go.
type Options struct {
	Level string
	// When TelegramChatID is set, error records and records carrying a
	// "telegram" attribute are also sent to that chat through the bot.
	TelegramToken  string
	TelegramChatID string
}

// Preinit installs a console logger usable before config is loaded.
func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

// Init installs the handler built from opts as the default logger.
func Init(opts Options) {
	slog.SetDefault(slog.New(NewHandler(opts)))
}

// NewHandler routes records to the console and, if configured, to Telegram.
func NewHandler(opts Options) slog.Handler {
	router := slogmulti.Router()

	router = router.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     ParseLevel(opts.Level),
	}))

	if opts.TelegramChatID != "" && opts.TelegramToken != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     opts.TelegramToken,
				Username:  opts.TelegramChatID,
				AddSource: true,
			}.NewTelegramHandler(),
			forwardToTelegram,
		)
	}

	return router.Handler()
}

func forwardToTelegram(_ context.Context, r slog.Record) bool {
	hasTelegram := false

	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "telegram" {
			hasTelegram = true
			return false
		}
		return true
	})

	return r.Level >= slog.LevelError || hasTelegram
}

// ParseLevel maps a level name to slog.Level, falling back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
