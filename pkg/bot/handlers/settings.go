package handlers

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/settings"
	"github.com/smith3v/lms-reminder/pkg/ui"
)

var ErrInvalidAction = errors.New("invalid settings action")

// HandleSettings shows the settings keyboard, or applies
// "/settings <category> <tokens...|on|off>" directly.
func (h *Handlers) HandleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := h.messageChat(update, "HandleSettings")
	if !ok {
		return
	}

	var args []string
	if fields := strings.Fields(update.Message.Text); len(fields) > 1 {
		args = fields[1:]
	}
	if len(args) == 0 {
		current := h.Settings.Load(ctx)
		text, keyboard, err := ui.RenderHome(current)
		if err != nil {
			logger.Error("failed to render settings home", "chat_id", chatID, "error", err)
			reply(ctx, b, chatID, "Failed to render settings. Please try again later.")
			return
		}
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        text,
			ReplyMarkup: keyboard,
		}); err != nil {
			logger.Error("failed to send settings message", "chat_id", chatID, "error", err)
		}
		return
	}

	updated, err := h.Settings.Update(ctx, func(s *settings.Settings) error {
		return s.Apply(args[0], args[1:])
	})
	if err != nil {
		if errors.Is(err, settings.ErrUnknownCategory) || errors.Is(err, settings.ErrInvalidOffset) || errors.Is(err, settings.ErrInvalidToggle) {
			reply(ctx, b, chatID, err.Error()+"\n\nCategories: "+categoryList())
			return
		}
		reply(ctx, b, chatID, "Failed to save settings. Please try again later.")
		return
	}
	reply(ctx, b, chatID, "Settings saved.\n"+updated.Describe())
	h.resync(ctx)
}

// resync reschedules reminders after a settings change. A failed fetch keeps
// the previous schedule.
func (h *Handlers) resync(ctx context.Context) {
	if h.Engine == nil {
		return
	}
	if _, err := h.Engine.Run(ctx); err != nil {
		logger.Warn("reminder resync after settings change failed", "error", err)
	}
}

func categoryList() string {
	names := make([]string, len(settings.Categories))
	for i, c := range settings.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func (h *Handlers) HandleSettingsCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.CallbackQuery == nil {
		logger.Error("invalid update in HandleSettingsCallback")
		return
	}

	callbackID := update.CallbackQuery.ID
	answered := false
	answerCallback := func(text string) {
		if answered || callbackID == "" {
			return
		}
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: callbackID,
			Text:            text,
		}); err != nil {
			logger.Error("failed to answer callback query", "error", err)
		}
		answered = true
	}

	action, err := ui.ParseCallbackData(update.CallbackQuery.Data)
	if err != nil {
		logger.Error("failed to parse settings callback", "data", update.CallbackQuery.Data, "error", err)
		answerCallback("Unknown command")
		return
	}

	message := update.CallbackQuery.Message
	if message.Type != models.MaybeInaccessibleMessageTypeMessage || message.Message == nil {
		logger.Error("callback query message is inaccessible", "user_id", update.CallbackQuery.From.ID)
		answerCallback("Message is not available")
		return
	}
	msg := message.Message
	if msg.Chat.ID == 0 || !h.allowed(msg.Chat.ID) {
		logger.Error("callback query from unexpected chat", "chat_id", msg.Chat.ID)
		answerCallback("Message is not available")
		return
	}

	current := h.Settings.Load(ctx)
	next, nextScreen, changed, err := ApplyAction(current, action)
	if err != nil {
		logger.Error("failed to apply settings action", "chat_id", msg.Chat.ID, "error", err)
		answerCallback("Unknown command")
		return
	}

	if changed {
		if err := h.Settings.Save(ctx, next); err != nil {
			answerCallback("Failed to save settings")
			return
		}
	}
	answerCallback("")

	var text string
	var keyboard *models.InlineKeyboardMarkup
	switch nextScreen {
	case ui.ScreenHome:
		text, keyboard, err = ui.RenderHome(next)
	case ui.ScreenClose:
		text = "Settings saved ✅\n" + next.Describe()
		keyboard = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{},
		}
	default:
		category, ok := nextScreen.Category()
		if !ok {
			logger.Error("unknown settings screen", "screen", nextScreen)
			return
		}
		text, keyboard, err = ui.RenderCategory(next, category)
	}
	if err != nil {
		logger.Error("failed to render settings screen", "chat_id", msg.Chat.ID, "error", err)
		return
	}

	if _, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ReplyMarkup: keyboard,
	}); err != nil {
		logger.Error("failed to edit settings message", "chat_id", msg.Chat.ID, "error", err)
	}
	if changed {
		h.resync(ctx)
	}
}

// ApplyAction returns the settings after action, the screen to show next and
// whether anything changed. Switch toggles stay on the home screen.
func ApplyAction(current settings.Settings, action ui.Action) (settings.Settings, ui.Screen, bool, error) {
	switch action.Screen {
	case ui.ScreenHome, ui.ScreenClose:
		if action.Op != ui.OpNone {
			return current, action.Screen, false, ErrInvalidAction
		}
		return current, action.Screen, false, nil
	}

	category, ok := action.Screen.Category()
	if !ok {
		return current, ui.ScreenHome, false, ErrInvalidAction
	}

	if category.IsToggle() {
		if action.Op != ui.OpToggle {
			return current, ui.ScreenHome, false, ErrInvalidAction
		}
		on, err := current.Toggle(category)
		if err != nil {
			return current, ui.ScreenHome, false, err
		}
		next := cloneSettings(current)
		if err := next.SetToggle(category, !on); err != nil {
			return current, ui.ScreenHome, false, err
		}
		return next, ui.ScreenHome, true, nil
	}

	switch action.Op {
	case ui.OpNone:
		return current, action.Screen, false, nil
	case ui.OpToggle:
		offsets, err := current.Offsets(category)
		if err != nil {
			return current, action.Screen, false, err
		}
		if i := slices.Index(offsets, action.Offset); i >= 0 {
			offsets = slices.Delete(offsets, i, i+1)
		} else {
			offsets = append(offsets, action.Offset)
		}
		next := cloneSettings(current)
		if err := next.SetOffsets(category, offsets); err != nil {
			return current, action.Screen, false, err
		}
		return next, action.Screen, true, nil
	default:
		return current, action.Screen, false, ErrInvalidAction
	}
}

func cloneSettings(s settings.Settings) settings.Settings {
	s.UnfinishedAssignments = slices.Clone(s.UnfinishedAssignments)
	s.FinishedAssignments = slices.Clone(s.FinishedAssignments)
	s.UnfinishedVods = slices.Clone(s.UnfinishedVods)
	return s
}
