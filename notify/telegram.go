package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type chattableSender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram sends alerts to one chat through a bot.
type Telegram struct {
	bot    chattableSender
	chatID int64
}

// NewTelegram authenticates the bot token against the Bot API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbot.APIEndpoint, chatID)
}

// NewTelegramWithEndpoint is NewTelegram against a custom API endpoint of
// the form "https://host/bot%s/%s".
func NewTelegramWithEndpoint(token, endpoint string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: missing token")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram: missing chat id")
	}
	b, err := tgbot.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Send(_ context.Context, a Alert) error {
	emoji := "ℹ️"
	switch a.Level {
	case Warning:
		emoji = "⚠️"
	case Critical:
		emoji = "🚨"
	}
	msg := tgbot.NewMessage(t.chatID, fmt.Sprintf("%s %s\n\n%s", emoji, a.Title, a.Message))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
