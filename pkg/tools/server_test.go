package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/smith3v/lms-reminder/pkg/dashboard"
	"github.com/smith3v/lms-reminder/pkg/delivery"
	"github.com/smith3v/lms-reminder/pkg/history"
	"github.com/smith3v/lms-reminder/pkg/internal/testutil"
	"github.com/smith3v/lms-reminder/pkg/kv"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/reminders"
	"github.com/smith3v/lms-reminder/pkg/settings"
)

type stubProvider struct {
	snap dashboard.Snapshot
	err  error
}

func (p *stubProvider) Fetch(context.Context) (dashboard.Snapshot, error) {
	return p.snap, p.err
}

type fixture struct {
	server   *Server
	provider *stubProvider
	history  *history.Log
	pending  *delivery.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger.SetLogLevel(logger.ERROR)
	gdb := testutil.SetupTestDB(t)
	store := kv.NewMemoryStore()
	provider := &stubProvider{}
	pending := delivery.NewStore(gdb)
	settingsStore := settings.NewStore(store)
	log := history.NewLog(store, 0)
	engine := reminders.NewEngine(provider, settingsStore, pending)
	return &fixture{
		server:   NewServer(engine, log, settingsStore),
		provider: provider,
		history:  log,
		pending:  pending,
	}
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("tool returned error: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestRunCycleSchedulesReminders(t *testing.T) {
	f := newFixture(t)
	f.provider.snap = dashboard.Snapshot{Assignments: []dashboard.Item{{
		Kind:       dashboard.KindAssignment,
		ID:         "hw1",
		CourseName: "Intro",
		Title:      "HW1",
		Due:        time.Now().Add(48 * time.Hour),
	}}}

	text, isErr := call(t, f.server.handleRunCycle, nil)
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var got cycleResult
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if got.Status != reminders.StatusSuccess || got.Scheduled != 1 || len(got.Reminders) != 1 {
		t.Fatalf("unexpected cycle result %+v", got)
	}
	if count, _ := f.pending.Count(context.Background()); count != 1 {
		t.Fatalf("expected 1 pending notification, got %d", count)
	}
}

func TestRunCycleFailureIsToolError(t *testing.T) {
	f := newFixture(t)
	f.provider.err = errors.New("backend down")

	text, isErr := call(t, f.server.handleRunCycle, nil)
	if !isErr || !strings.Contains(text, "existing schedule kept") {
		t.Fatalf("expected tool error, got %q (isError=%v)", text, isErr)
	}
}

func TestHistoryTools(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.history.Append(ctx, "first", "", "", history.Correlation{})
	second := f.history.Append(ctx, "second", "", "", history.Correlation{CourseID: "CS101"})

	if text, isErr := call(t, f.server.handleMarkRead, map[string]any{"id": first.ID}); isErr {
		t.Fatalf("mark_read failed: %s", text)
	}

	text, _ := call(t, f.server.handleListHistory, map[string]any{"unread_only": true})
	var listed historyResult
	if err := json.Unmarshal([]byte(text), &listed); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if listed.Total != 2 || listed.Unread != 1 || len(listed.Entries) != 1 || listed.Entries[0].ID != second.ID {
		t.Fatalf("unexpected unread listing %+v", listed)
	}
	if listed.Entries[0].CourseID != "CS101" {
		t.Fatalf("expected course correlation to survive, got %+v", listed.Entries[0])
	}

	if _, isErr := call(t, f.server.handleMarkRead, map[string]any{"id": "missing"}); !isErr {
		t.Fatal("expected error for unknown id")
	}
	if _, isErr := call(t, f.server.handleMarkRead, map[string]any{}); !isErr {
		t.Fatal("expected error for missing id")
	}

	if text, isErr := call(t, f.server.handleDeleteEntry, map[string]any{"id": first.ID}); isErr {
		t.Fatalf("delete_history_entry failed: %s", text)
	}
	if f.history.Size(ctx) != 1 {
		t.Fatalf("expected 1 entry after delete, got %d", f.history.Size(ctx))
	}

	call(t, f.server.handleMarkAllRead, nil)
	if f.history.UnreadCount(ctx) != 0 {
		t.Fatalf("expected no unread entries, got %d", f.history.UnreadCount(ctx))
	}

	call(t, f.server.handleClearHistory, nil)
	if f.history.Size(ctx) != 0 {
		t.Fatalf("expected empty history, got %d", f.history.Size(ctx))
	}
}

func TestSettingsTools(t *testing.T) {
	f := newFixture(t)

	text, _ := call(t, f.server.handleGetSettings, nil)
	var current settings.Settings
	if err := json.Unmarshal([]byte(text), &current); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if settings.FormatOffsets(current.UnfinishedAssignments) != "1d" || !current.AISummary {
		t.Fatalf("expected defaults, got %+v", current)
	}

	text, isErr := call(t, f.server.handleUpdateSettings, map[string]any{"category": "unfinished-assignment", "values": "12h 1h"})
	if isErr {
		t.Fatalf("update_settings failed: %s", text)
	}
	if !strings.Contains(text, `"unfinishedAssignments": [`) {
		t.Fatalf("expected camelCase settings json, got %s", text)
	}

	text, _ = call(t, f.server.handleGetSettings, nil)
	if err := json.Unmarshal([]byte(text), &current); err != nil {
		t.Fatalf("failed to decode settings: %v", err)
	}
	if settings.FormatOffsets(current.UnfinishedAssignments) != "1h, 12h" {
		t.Fatalf("expected persisted offsets, got %v", current.UnfinishedAssignments)
	}

	if _, isErr := call(t, f.server.handleUpdateSettings, map[string]any{"category": "video-open", "values": "maybe"}); !isErr {
		t.Fatal("expected error for invalid toggle value")
	}
	if _, isErr := call(t, f.server.handleUpdateSettings, map[string]any{"values": "1h"}); !isErr {
		t.Fatal("expected error for missing category")
	}
}

func TestListToolsOverJSONRPC(t *testing.T) {
	f := newFixture(t)
	request := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	response := f.server.MCPServer().HandleMessage(context.Background(), json.RawMessage(request))

	encoded, err := json.Marshal(response)
	if err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
	for _, name := range []string{
		"run_reminder_cycle", "list_history", "mark_read", "mark_all_read",
		"delete_history_entry", "clear_history", "get_settings", "update_settings",
	} {
		if !strings.Contains(string(encoded), `"name":"`+name+`"`) {
			t.Errorf("tool %s not listed in %s", name, encoded)
		}
	}
}
