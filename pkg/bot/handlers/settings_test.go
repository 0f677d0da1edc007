package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smith3v/lms-reminder/pkg/dashboard"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/settings"
	"github.com/smith3v/lms-reminder/pkg/ui"
)

func TestApplyActionNavigation(t *testing.T) {
	current := settings.Defaults()

	_, screen, changed, err := ApplyAction(current, ui.Action{Screen: ui.ScreenHome, Op: ui.OpNone})
	if err != nil || screen != ui.ScreenHome || changed {
		t.Fatalf("unexpected result: screen %v changed %v err %v", screen, changed, err)
	}

	_, screen, changed, err = ApplyAction(current, ui.Action{Screen: ui.ScreenUnfinishedVideo, Op: ui.OpNone})
	if err != nil || screen != ui.ScreenUnfinishedVideo || changed {
		t.Fatalf("unexpected result: screen %v changed %v err %v", screen, changed, err)
	}
}

func TestApplyActionTogglesOffset(t *testing.T) {
	current := settings.Defaults()

	next, screen, changed, err := ApplyAction(current, ui.Action{Screen: ui.ScreenUnfinishedAssignment, Op: ui.OpToggle, Offset: settings.Offset1h})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if screen != ui.ScreenUnfinishedAssignment || !changed {
		t.Fatalf("expected change on the same screen, got %v %v", screen, changed)
	}
	if settings.FormatOffsets(next.UnfinishedAssignments) != "1h, 1d" {
		t.Fatalf("unexpected offsets %v", next.UnfinishedAssignments)
	}
	if settings.FormatOffsets(current.UnfinishedAssignments) != "1d" {
		t.Fatalf("input settings were mutated: %v", current.UnfinishedAssignments)
	}

	next, _, _, err = ApplyAction(next, ui.Action{Screen: ui.ScreenUnfinishedAssignment, Op: ui.OpToggle, Offset: settings.Offset1d})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.FormatOffsets(next.UnfinishedAssignments) != "1h" {
		t.Fatalf("expected 1d to be removed, got %v", next.UnfinishedAssignments)
	}
}

func TestApplyActionTogglesSwitch(t *testing.T) {
	next, screen, changed, err := ApplyAction(settings.Defaults(), ui.Action{Screen: ui.ScreenVideoOpen, Op: ui.OpToggle})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.VodOpen || !changed || screen != ui.ScreenHome {
		t.Fatalf("expected video-open enabled on home screen, got %+v %v %v", next, changed, screen)
	}
}

func TestApplyActionRejectsInvalid(t *testing.T) {
	_, _, _, err := ApplyAction(settings.Defaults(), ui.Action{Screen: ui.ScreenHome, Op: ui.OpToggle})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	_, _, _, err = ApplyAction(settings.Defaults(), ui.Action{Screen: ui.ScreenAISummary, Op: ui.OpNone})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestHandleSettingsShowsKeyboard(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	h := newTestHandlers(t, &stubProvider{})
	client := newMockClient()
	b := newTestTelegramBot(t, client)

	h.HandleSettings(context.Background(), b, newTestUpdate("/settings", testChatID))

	got := client.lastMessageText(t)
	if !strings.Contains(got, "Reminder settings") || !strings.Contains(got, "Open assignments: 1d") {
		t.Fatalf("unexpected settings text %q", got)
	}
}

func TestHandleSettingsCommandPersists(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	h := newTestHandlers(t, &stubProvider{})
	client := newMockClient()
	b := newTestTelegramBot(t, client)
	ctx := context.Background()

	h.HandleSettings(ctx, b, newTestUpdate("/settings unfinished-assignment 1h 5h", testChatID))
	if got := client.lastMessageText(t); !strings.Contains(got, "unfinished-assignment: 1h, 5h") {
		t.Fatalf("unexpected reply %q", got)
	}
	if got := settings.FormatOffsets(h.Settings.Load(ctx).UnfinishedAssignments); got != "1h, 5h" {
		t.Fatalf("expected persisted offsets, got %q", got)
	}

	h.HandleSettings(ctx, b, newTestUpdate("/settings homework 1h", testChatID))
	if got := client.lastMessageText(t); !strings.Contains(got, "Categories:") {
		t.Fatalf("expected category hint, got %q", got)
	}
}

func TestHandleSettingsCallbackTogglesAndEdits(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	h := newTestHandlers(t, &stubProvider{})
	client := newMockClient()
	b := newTestTelegramBot(t, client)
	ctx := context.Background()

	data, err := ui.BuildOffsetToggleCallback(settings.CategoryFinishedAssignment, settings.Offset12h)
	if err != nil {
		t.Fatalf("failed to build callback: %v", err)
	}
	h.HandleSettingsCallback(ctx, b, newTestCallbackUpdate(data, testChatID, testChatID, 7))

	if got := settings.FormatOffsets(h.Settings.Load(ctx).FinishedAssignments); got != "12h" {
		t.Fatalf("expected 12h to be enabled, got %q", got)
	}
	got := client.lastMessageText(t)
	if !strings.Contains(got, "Submitted assignments") || !strings.Contains(got, "12h") {
		t.Fatalf("unexpected edited text %q", got)
	}
	if body := client.lastRequestBody(t); !strings.Contains(body, "message_id") {
		t.Fatalf("expected an edit of the settings message, got %q", body)
	}
}

func TestHandleSettingsCallbackRejectsForeignChat(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	h := newTestHandlers(t, &stubProvider{})
	client := newMockClient()
	b := newTestTelegramBot(t, client)
	ctx := context.Background()

	data, _ := ui.BuildSwitchToggleCallback(settings.CategoryVideoOpen)
	h.HandleSettingsCallback(ctx, b, newTestCallbackUpdate(data, 5, 5, 7))

	if h.Settings.Load(ctx).VodOpen {
		t.Fatal("settings changed from a foreign chat")
	}
}

func TestSettingsChangeReschedules(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	provider := &stubProvider{snap: dashboard.Snapshot{
		Assignments: []dashboard.Item{upcomingAssignment(time.Now().Add(48 * time.Hour))},
	}}
	h := newTestHandlers(t, provider)
	client := newMockClient()
	b := newTestTelegramBot(t, client)
	ctx := context.Background()

	h.HandleSettings(ctx, b, newTestUpdate("/settings unfinished-assignment 1h 12h 1d", testChatID))

	count, err := h.Pending.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 reminders after settings change, got %d", count)
	}
}
