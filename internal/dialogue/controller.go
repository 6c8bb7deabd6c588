// Package dialogue drives the intake wizard: name, then email, then free chat.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tokenbot/internal/session"
	"tokenbot/internal/storage"
)

const (
	msgAskName        = "Привіт! Будь ласка, введіть ваше ім'я."
	msgAskEmailFmt    = "Дякую, %s! Тепер, будь ласка, введіть вашу електронну пошту."
	msgTokenFmt       = "Ваш API токен: %s"
	msgEmailTaken     = "Ця пошта вже зареєстрована. Використайте іншу."
	msgEmailInvalid   = "Невірний формат пошти. Будь ласка, спробуйте ще раз."
	msgSaved          = "Повідомлення збережено."
	MsgInternalFailed = "Не вдалося обробити повідомлення. Спробуйте пізніше."

	unknownName = "Невідомий"

	maxTokenAttempts = 3
)

// ErrTokenExhausted is returned when every generated token collided with an
// existing one.
var ErrTokenExhausted = errors.New("could not issue a unique token")

// TokenFunc generates an opaque API token.
type TokenFunc func() string

// Controller owns the conversation registry and applies one message at a time
// to it. Messages of one conversation must be delivered sequentially.
type Controller struct {
	store    storage.Store
	sessions *session.Manager
	newToken TokenFunc
}

// New builds a Controller over store. A nil sessions gets a fresh registry.
func New(store storage.Store, sessions *session.Manager) *Controller {
	if sessions == nil {
		sessions = session.NewManager()
	}
	return &Controller{store: store, sessions: sessions, newToken: uuid.NewString}
}

// Begin resets the conversation to the name step and returns the name prompt.
func (c *Controller) Begin(id int64) string {
	c.sessions.Reset(id)
	return msgAskName
}

// Step reports where conversation id currently is.
func (c *Controller) Step(id int64) session.Step {
	return c.sessions.Get(id).Step
}

// Handle applies text to conversation id and returns the reply. On error the
// conversation state is left untouched.
func (c *Controller) Handle(ctx context.Context, id int64, text string) (string, error) {
	sc := c.sessions.Get(id)

	switch sc.Step {
	case session.StepEmail:
		return c.handleEmail(ctx, id, sc, text)
	case session.StepChat:
		if err := c.store.AppendHistory(ctx, sc.Email, text); err != nil {
			return "", fmt.Errorf("append history: %w", err)
		}
		c.sessions.Put(id, sc)
		return msgSaved, nil
	default:
		sc.Step = session.StepEmail
		sc.Name = text
		c.sessions.Put(id, sc)
		return fmt.Sprintf(msgAskEmailFmt, text), nil
	}
}

func (c *Controller) handleEmail(ctx context.Context, id int64, sc session.Context, email string) (string, error) {
	if !ValidEmail(email) {
		c.sessions.Put(id, sc)
		return msgEmailInvalid, nil
	}

	name := sc.Name
	if name == "" {
		name = unknownName
	}

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token := c.newToken()
		res, err := c.store.Create(ctx, storage.UserRecord{Email: email, Name: name, Token: token})
		if err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}

		switch res {
		case storage.Created:
			sc.Step = session.StepChat
			sc.Email = email
			c.sessions.Put(id, sc)
			slog.Info("user registered", "conversation", id, "email", email)
			return fmt.Sprintf(msgTokenFmt, token), nil
		case storage.EmailTaken:
			c.sessions.Put(id, sc)
			return msgEmailTaken, nil
		case storage.TokenTaken:
			slog.Warn("token collision, regenerating", "conversation", id, "attempt", attempt)
		}
	}
	return "", ErrTokenExhausted
}

// ExpireIdle drops unfinished registrations idle for longer than ttl.
func (c *Controller) ExpireIdle(ttl time.Duration) int {
	return c.sessions.ExpireIdle(ttl)
}
