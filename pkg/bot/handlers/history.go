package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/lms-reminder/pkg/history"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

const maxListedHistory = 20

func (h *Handlers) HandleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleHistory")
	if !ok {
		return
	}
	entries := h.History.List(ctx)
	if len(entries) == 0 {
		reply(ctx, b, chatID, "No reminders delivered yet.")
		return
	}

	unread := 0
	for _, e := range entries {
		if !e.Read {
			unread++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "History (%d unread of %d):", unread, len(entries))
	for i, e := range entries {
		if i == maxListedHistory {
			fmt.Fprintf(&sb, "\n... and %d older", len(entries)-i)
			break
		}
		marker := " "
		if !e.Read {
			marker = "•"
		}
		fmt.Fprintf(&sb, "\n%s %d. %s %s", marker, i+1, e.CreatedAt.In(h.location()).Format("Jan 2 15:04"), e.Title)
	}
	reply(ctx, b, chatID, sb.String())
}

func (h *Handlers) HandleRead(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleRead")
	if !ok {
		return
	}
	entry, ok := h.resolveEntry(ctx, update.Message.Text)
	if !ok {
		reply(ctx, b, chatID, "Usage: /read <number from /history>")
		return
	}
	if err := h.History.MarkRead(ctx, entry.ID); err != nil {
		reply(ctx, b, chatID, "Failed to update history. Please try again later.")
		return
	}
	reply(ctx, b, chatID, "Marked as read: "+entry.Title)
}

func (h *Handlers) HandleReadAll(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleReadAll")
	if !ok {
		return
	}
	if err := h.History.MarkAllRead(ctx); err != nil {
		reply(ctx, b, chatID, "Failed to update history. Please try again later.")
		return
	}
	reply(ctx, b, chatID, "All reminders marked as read.")
}

func (h *Handlers) HandleDelete(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleDelete")
	if !ok {
		return
	}
	entry, ok := h.resolveEntry(ctx, update.Message.Text)
	if !ok {
		reply(ctx, b, chatID, "Usage: /delete <number from /history>")
		return
	}
	if err := h.History.Delete(ctx, entry.ID); err != nil {
		reply(ctx, b, chatID, "Failed to update history. Please try again later.")
		return
	}
	reply(ctx, b, chatID, "Deleted: "+entry.Title)
}

func (h *Handlers) HandleClearHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleClearHistory")
	if !ok {
		return
	}
	if err := h.History.Clear(ctx); err != nil {
		reply(ctx, b, chatID, "Failed to clear history. Please try again later.")
		return
	}
	logger.Info("history cleared", "chat_id", chatID)
	reply(ctx, b, chatID, "History cleared.")
}

// resolveEntry accepts either a 1-based position from /history or a full
// entry id as the command argument.
func (h *Handlers) resolveEntry(ctx context.Context, text string) (history.Entry, bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return history.Entry{}, false
	}
	arg := fields[1]
	entries := h.History.List(ctx)
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(entries) {
			return history.Entry{}, false
		}
		return entries[n-1], true
	}
	for _, e := range entries {
		if e.ID == arg {
			return e, true
		}
	}
	return history.Entry{}, false
}
