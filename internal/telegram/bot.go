package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const startCmd = "start"

// Bot is the long-polling Telegram front end. Updates are handled one at a
// time, which is the sequential per-conversation delivery the dialogue
// relies on.
type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	dialogue    Dialogue
	pollTimeout int
	failReply   string
}

// New authenticates against the Bot API with botToken. An invalid token
// fails here.
func New(botToken string, d Dialogue, pollTimeout int, failReply string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	slog.Info("authorized on telegram", "account", api.Self.UserName)
	return &Bot{
		api:         api,
		s:           botAPISender{api: api},
		dialogue:    d,
		pollTimeout: pollTimeout,
		failReply:   failReply,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	b.run(ctx, updates)
}

func (b *Bot) run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}
	if msg.Text == "" {
		return
	}
	b.handleIncomingMessage(ctx, msg)
}

// handleCommand only knows /start; other commands get no reply.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	if msg.Command() != startCmd {
		return
	}
	slog.Debug("conversation started", "chat", msg.Chat.ID)
	b.sendMessage(msg.Chat.ID, b.dialogue.Begin(msg.Chat.ID))
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	reply, err := b.dialogue.Handle(ctx, msg.Chat.ID, msg.Text)
	if err != nil {
		slog.Error("failed to handle message", "chat", msg.Chat.ID, "error", err)
		reply = b.failReply
	}
	if reply == "" {
		return
	}
	b.sendMessage(msg.Chat.ID, reply)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		slog.Warn("failed to send message", "chat", chatID, "error", err)
	}
}
