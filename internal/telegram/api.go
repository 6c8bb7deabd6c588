package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

// Dialogue is the conversation logic the bot forwards text to.
type Dialogue interface {
	Begin(conversationID int64) string
	Handle(ctx context.Context, conversationID int64, text string) (string, error)
}
