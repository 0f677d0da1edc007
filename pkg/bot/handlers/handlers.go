package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/lms-reminder/pkg/delivery"
	"github.com/smith3v/lms-reminder/pkg/history"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/reminders"
	"github.com/smith3v/lms-reminder/pkg/settings"
	"github.com/smith3v/lms-reminder/pkg/ui"
)

// Handlers serves the bot commands. When ChatID is set, updates from other
// chats are ignored.
type Handlers struct {
	Engine   *reminders.Engine
	Settings *settings.Store
	History  *history.Log
	Pending  *delivery.Store
	ChatID   int64
	Location *time.Location
}

// Register wires every command. Argument-taking commands match on the
// trailing space so "/read " never catches "/readall".
func (h *Handlers) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/sync", bot.MatchTypeExact, h.HandleSync)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, h.HandlePending)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact, h.HandleHistory)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/readall", bot.MatchTypeExact, h.HandleReadAll)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/read ", bot.MatchTypePrefix, h.HandleRead)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/clearhistory", bot.MatchTypeExact, h.HandleClearHistory)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/delete ", bot.MatchTypePrefix, h.HandleDelete)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypeExact, h.HandleExport)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/settings", bot.MatchTypeExact, h.HandleSettings)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/settings ", bot.MatchTypePrefix, h.HandleSettings)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, ui.CallbackPrefix, bot.MatchTypePrefix, h.HandleSettingsCallback)
}

// messageChat validates a message update and returns its chat id.
func (h *Handlers) messageChat(update *models.Update, handler string) (int64, bool) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		logger.Error("invalid update", "handler", handler)
		return 0, false
	}
	chatID := update.Message.Chat.ID
	if !h.allowed(chatID) {
		logger.Warn("ignoring update from unknown chat", "handler", handler, "chat_id", chatID)
		return 0, false
	}
	return chatID, true
}

func (h *Handlers) allowed(chatID int64) bool {
	return h.ChatID == 0 || h.ChatID == chatID
}

func (h *Handlers) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
