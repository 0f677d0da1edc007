package delivery

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
)

var errNoChat = errors.New("telegram chat id is not configured")

// TelegramSender posts notifications as chat messages.
type TelegramSender struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegramSender(b *bot.Bot, chatID int64) *TelegramSender {
	return &TelegramSender{bot: b, chatID: chatID}
}

func (s *TelegramSender) Send(ctx context.Context, n Notification) error {
	if s.chatID == 0 {
		return errNoChat
	}
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: s.chatID,
		Text:   FormatMessage(n),
	})
	return err
}

func FormatMessage(n Notification) string {
	var b strings.Builder
	b.WriteString("🔔 ")
	b.WriteString(n.Title)
	if n.Body != "" {
		b.WriteString("\n")
		b.WriteString(n.Body)
	}
	return b.String()
}
