package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required" validate:"required"`
	PollTimeout      int    `env:"POLL_TIMEOUT" envDefault:"60" validate:"gte=0"`

	// Storage
	DBPath string `env:"DB_PATH" envDefault:"data/telegram_users.db" validate:"required"`

	// Unfinished registrations idle longer than this are dropped; 0 disables.
	ConversationIdleTTL time.Duration `env:"CONVERSATION_IDLE_TTL" envDefault:"0s" validate:"gte=0"`
	SweepSpec           string        `env:"CONVERSATION_SWEEP_SPEC" envDefault:"@every 1m" validate:"required"`

	// Logging
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogTelegramChatID string `env:"LOG_TELEGRAM_CHAT_ID"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
