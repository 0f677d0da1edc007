package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func (h *Handlers) DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}
	chatID, ok := h.messageChat(update, "DefaultHandler")
	if !ok {
		return
	}
	reply(ctx, b, chatID, "Unknown command.\n\n"+helpText)
}
