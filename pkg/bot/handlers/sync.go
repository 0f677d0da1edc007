package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/reminders"
)

const maxListedReminders = 15

// HandleSync runs a reminder cycle now, waiting behind any background one.
func (h *Handlers) HandleSync(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleSync")
	if !ok {
		return
	}

	summary, err := h.Engine.Run(ctx)
	if err != nil {
		logger.Error("manual reminder cycle failed", "chat_id", chatID, "error", err)
		reply(ctx, b, chatID, "Sync failed, your existing reminders were kept.\n"+err.Error())
		return
	}
	reply(ctx, b, chatID, FormatSummary(summary))
}

func FormatSummary(summary reminders.Summary) string {
	var sb strings.Builder
	switch summary.Status {
	case reminders.StatusNoData:
		sb.WriteString("No upcoming reminders to schedule.")
	default:
		fmt.Fprintf(&sb, "Scheduled %d reminder(s).", summary.Scheduled)
	}
	if summary.Failed > 0 {
		fmt.Fprintf(&sb, " %d failed.", summary.Failed)
	}
	for i, line := range summary.Lines {
		if i == maxListedReminders {
			fmt.Fprintf(&sb, "\n... and %d more", len(summary.Lines)-i)
			break
		}
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	return sb.String()
}

func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandlePending")
	if !ok {
		return
	}

	pending, err := h.Pending.Pending(ctx)
	if err != nil {
		logger.Error("failed to load pending reminders", "error", err)
		reply(ctx, b, chatID, "Failed to load scheduled reminders. Please try again later.")
		return
	}
	if len(pending) == 0 {
		reply(ctx, b, chatID, "No reminders are scheduled. Send /sync to refresh.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d scheduled reminder(s):", len(pending))
	for i, n := range pending {
		if i == maxListedReminders {
			fmt.Fprintf(&sb, "\n... and %d more", len(pending)-i)
			break
		}
		fmt.Fprintf(&sb, "\n%s %s", n.FireAt.In(h.location()).Format("Jan 2 15:04"), n.Title)
	}
	reply(ctx, b, chatID, sb.String())
}
