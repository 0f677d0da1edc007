package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/lms-reminder/pkg/history"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

// HandleExport sends the reminder history as a CSV document.
func (h *Handlers) HandleExport(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleExport")
	if !ok {
		return
	}

	entries := h.History.List(ctx)
	if len(entries) == 0 {
		reply(ctx, b, chatID, "No reminders delivered yet.")
		return
	}

	data, err := history.BuildExportCSV(entries, h.location())
	if err != nil {
		logger.Error("failed to build history CSV", "chat_id", chatID, "error", err)
		reply(ctx, b, chatID, "Failed to export history. Please try again later.")
		return
	}

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: history.ExportFilename(time.Now().In(h.location())),
			Data:     bytes.NewReader(data),
		},
		Caption: fmt.Sprintf("Reminder history (%d entries).", len(entries)),
	})
	if err != nil {
		logger.Error("failed to send history export", "chat_id", chatID, "error", err)
		reply(ctx, b, chatID, "Failed to export history. Please try again later.")
	}
}
