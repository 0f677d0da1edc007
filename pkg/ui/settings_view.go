package ui

import (
	"fmt"
	"slices"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/lms-reminder/pkg/settings"
)

// OffsetChoices are the lead times offered on category screens.
var OffsetChoices = []settings.Offset{
	settings.Offset1h,
	settings.Offset5h,
	settings.Offset12h,
	settings.Offset1d,
}

var categoryLabels = map[settings.Category]string{
	settings.CategoryUnfinishedAssignment: "Open assignments",
	settings.CategoryFinishedAssignment:   "Submitted assignments",
	settings.CategoryUnfinishedVideo:      "Unwatched lectures",
	settings.CategoryVideoOpen:            "Lecture opens",
	settings.CategoryAISummary:            "AI summary",
}

func CategoryLabel(c settings.Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

func RenderHome(s settings.Settings) (string, *models.InlineKeyboardMarkup, error) {
	uaData, err := BuildCategoryCallback(settings.CategoryUnfinishedAssignment)
	if err != nil {
		return "", nil, err
	}
	faData, err := BuildCategoryCallback(settings.CategoryFinishedAssignment)
	if err != nil {
		return "", nil, err
	}
	uvData, err := BuildCategoryCallback(settings.CategoryUnfinishedVideo)
	if err != nil {
		return "", nil, err
	}
	voData, err := BuildSwitchToggleCallback(settings.CategoryVideoOpen)
	if err != nil {
		return "", nil, err
	}
	aiData, err := BuildSwitchToggleCallback(settings.CategoryAISummary)
	if err != nil {
		return "", nil, err
	}
	closeData, err := BuildCloseCallback()
	if err != nil {
		return "", nil, err
	}

	text := fmt.Sprintf(
		"Reminder settings\n- %s: %s\n- %s: %s\n- %s: %s\n- %s: %s\n- %s: %s",
		CategoryLabel(settings.CategoryUnfinishedAssignment), settings.FormatOffsets(s.UnfinishedAssignments),
		CategoryLabel(settings.CategoryFinishedAssignment), settings.FormatOffsets(s.FinishedAssignments),
		CategoryLabel(settings.CategoryUnfinishedVideo), settings.FormatOffsets(s.UnfinishedVods),
		CategoryLabel(settings.CategoryVideoOpen), formatToggle(s.VodOpen),
		CategoryLabel(settings.CategoryAISummary), formatToggle(s.AISummary),
	)

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Assignments", CallbackData: uaData},
				{Text: "Submitted", CallbackData: faData},
			},
			{
				{Text: "Lectures", CallbackData: uvData},
				{Text: toggleLabel("Lecture opens", s.VodOpen), CallbackData: voData},
			},
			{
				{Text: toggleLabel("AI summary", s.AISummary), CallbackData: aiData},
				{Text: "Close", CallbackData: closeData},
			},
		},
	}

	return text, keyboard, nil
}

// RenderCategory shows one offset category with a toggle per lead time.
func RenderCategory(s settings.Settings, c settings.Category) (string, *models.InlineKeyboardMarkup, error) {
	current, err := s.Offsets(c)
	if err != nil {
		return "", nil, err
	}
	backData, err := BuildHomeCallback()
	if err != nil {
		return "", nil, err
	}

	row := make([]models.InlineKeyboardButton, 0, len(OffsetChoices))
	for _, o := range OffsetChoices {
		data, err := BuildOffsetToggleCallback(c, o)
		if err != nil {
			return "", nil, err
		}
		row = append(row, models.InlineKeyboardButton{
			Text:         toggleLabel(string(o), slices.Contains(current, o)),
			CallbackData: data,
		})
	}

	text := fmt.Sprintf("%s\nRemind me before the deadline: %s", CategoryLabel(c), settings.FormatOffsets(current))
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			row,
			{
				{Text: "Back", CallbackData: backData},
			},
		},
	}
	return text, keyboard, nil
}

func formatToggle(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func toggleLabel(label string, enabled bool) string {
	if enabled {
		return fmt.Sprintf("%s ✅", label)
	}
	return fmt.Sprintf("%s ❌", label)
}
