package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = "I remind you about LMS deadlines.\n\n" +
	"/sync - refresh deadlines and reschedule reminders now\n" +
	"/pending - list scheduled reminders\n" +
	"/history - show delivered reminders\n" +
	"/read <n> - mark entry n as read\n" +
	"/readall - mark every entry as read\n" +
	"/delete <n> - remove entry n from history\n" +
	"/clearhistory - remove all history\n" +
	"/export - download history as CSV\n" +
	"/settings - choose lead times\n" +
	"/settings <category> <1h|5h|12h|1d|0 ...> or <on|off>"

func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleStart")
	if !ok {
		return
	}
	reply(ctx, b, chatID, helpText)
}
