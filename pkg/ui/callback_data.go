package ui

import (
	"errors"
	"strings"

	"github.com/smith3v/lms-reminder/pkg/settings"
)

const (
	CallbackPrefix     = "s:"
	MaxCallbackDataLen = 64
)

type Screen string

const (
	ScreenHome                 Screen = "home"
	ScreenUnfinishedAssignment Screen = "ua"
	ScreenFinishedAssignment   Screen = "fa"
	ScreenUnfinishedVideo      Screen = "uv"
	ScreenVideoOpen            Screen = "vo"
	ScreenAISummary            Screen = "ai"
	ScreenClose                Screen = "close"
)

var screenCategories = map[Screen]settings.Category{
	ScreenUnfinishedAssignment: settings.CategoryUnfinishedAssignment,
	ScreenFinishedAssignment:   settings.CategoryFinishedAssignment,
	ScreenUnfinishedVideo:      settings.CategoryUnfinishedVideo,
	ScreenVideoOpen:            settings.CategoryVideoOpen,
	ScreenAISummary:            settings.CategoryAISummary,
}

// Category returns the settings category a screen edits, if any.
func (s Screen) Category() (settings.Category, bool) {
	c, ok := screenCategories[s]
	return c, ok
}

// ScreenFor maps a settings category to its screen.
func ScreenFor(c settings.Category) (Screen, bool) {
	for screen, category := range screenCategories {
		if category == c {
			return screen, true
		}
	}
	return "", false
}

func (s Screen) isOffsetScreen() bool {
	c, ok := s.Category()
	return ok && !c.IsToggle()
}

func (s Screen) isToggleScreen() bool {
	c, ok := s.Category()
	return ok && c.IsToggle()
}

type Operation string

const (
	OpNone   Operation = ""
	OpToggle Operation = "toggle"
)

// Action is a parsed settings callback. Offset is set only when toggling
// one lead time of an offset category.
type Action struct {
	Screen Screen
	Op     Operation
	Offset settings.Offset
}

var (
	errInvalidPrefix       = errors.New("invalid callback prefix")
	errInvalidAction       = errors.New("invalid callback action")
	errInvalidOperation    = errors.New("invalid callback operation")
	errInvalidValue        = errors.New("invalid callback value")
	errCallbackDataTooLong = errors.New("callback data too long")
)

func BuildHomeCallback() (string, error) {
	return buildSimpleCallback(ScreenHome)
}

func BuildCloseCallback() (string, error) {
	return buildSimpleCallback(ScreenClose)
}

func BuildCategoryCallback(c settings.Category) (string, error) {
	screen, ok := ScreenFor(c)
	if !ok || !screen.isOffsetScreen() {
		return "", errInvalidAction
	}
	return buildSimpleCallback(screen)
}

func BuildOffsetToggleCallback(c settings.Category, o settings.Offset) (string, error) {
	screen, ok := ScreenFor(c)
	if !ok || !screen.isOffsetScreen() {
		return "", errInvalidAction
	}
	if o.Disabled() {
		return "", errInvalidValue
	}
	return validateCallbackData(CallbackPrefix + string(screen) + ":" + string(OpToggle) + ":" + string(o))
}

func BuildSwitchToggleCallback(c settings.Category) (string, error) {
	screen, ok := ScreenFor(c)
	if !ok || !screen.isToggleScreen() {
		return "", errInvalidAction
	}
	return validateCallbackData(CallbackPrefix + string(screen) + ":" + string(OpToggle))
}

func ParseCallbackData(data string) (Action, error) {
	if data == "" {
		return Action{}, errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return Action{}, errCallbackDataTooLong
	}
	if !strings.HasPrefix(data, CallbackPrefix) {
		return Action{}, errInvalidPrefix
	}

	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] != "s" {
		return Action{}, errInvalidPrefix
	}
	screen, err := parseScreen(parts[1])
	if err != nil {
		return Action{}, err
	}

	switch len(parts) {
	case 2:
		if screen.isToggleScreen() {
			return Action{}, errInvalidAction
		}
		return Action{Screen: screen, Op: OpNone}, nil
	case 3:
		if Operation(parts[2]) != OpToggle {
			return Action{}, errInvalidOperation
		}
		if !screen.isToggleScreen() {
			return Action{}, errInvalidAction
		}
		return Action{Screen: screen, Op: OpToggle}, nil
	case 4:
		if Operation(parts[2]) != OpToggle {
			return Action{}, errInvalidOperation
		}
		if !screen.isOffsetScreen() {
			return Action{}, errInvalidAction
		}
		offset, err := settings.ParseOffset(parts[3])
		if err != nil || offset.Disabled() || string(offset) != parts[3] {
			return Action{}, errInvalidValue
		}
		return Action{Screen: screen, Op: OpToggle, Offset: offset}, nil
	default:
		return Action{}, errInvalidAction
	}
}

func buildSimpleCallback(screen Screen) (string, error) {
	return validateCallbackData(CallbackPrefix + string(screen))
}

func validateCallbackData(data string) (string, error) {
	if data == "" {
		return "", errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return "", errCallbackDataTooLong
	}
	return data, nil
}

func parseScreen(screenPart string) (Screen, error) {
	screen := Screen(screenPart)
	if screen == ScreenHome || screen == ScreenClose {
		return screen, nil
	}
	if _, ok := screen.Category(); ok {
		return screen, nil
	}
	return "", errInvalidAction
}
