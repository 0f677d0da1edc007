package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/smith3v/lms-reminder/pkg/internal/testutil"
)

func TestStoreScheduleAndPendingOrder(t *testing.T) {
	store := NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, n := range []Notification{
		{Title: "late", FireAt: base.Add(2 * time.Hour), Category: "unfinished-video"},
		{Title: "early", FireAt: base.Add(time.Hour), Category: "unfinished-assignment", RecordHistory: true},
	} {
		if err := store.Schedule(ctx, n); err != nil {
			t.Fatalf("Schedule returned error: %v", err)
		}
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(pending) != 2 || pending[0].Title != "early" || pending[1].Title != "late" {
		t.Fatalf("unexpected pending order: %+v", pending)
	}
	if pending[0].ID == "" || !pending[0].RecordHistory {
		t.Fatalf("expected generated id and preserved flags, got %+v", pending[0])
	}
	if pending[1].RecordHistory || pending[1].Attempts != 0 {
		t.Fatalf("expected zero-valued flags to round-trip, got %+v", pending[1])
	}
	if !pending[0].FireAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected fire time %v", pending[0].FireAt)
	}

	if err := store.Schedule(ctx, Notification{Title: "no time"}); err == nil {
		t.Fatal("expected an error for a notification without fire time")
	}
}

func TestStoreReplace(t *testing.T) {
	store := NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := store.Schedule(ctx, Notification{Title: "stale", FireAt: now.Add(time.Hour)}); err != nil {
			t.Fatalf("Schedule returned error: %v", err)
		}
	}
	if err := store.Schedule(ctx, Notification{ID: "retrying", Title: "retrying", FireAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if _, err := store.MarkAttempt(ctx, "retrying", context.DeadlineExceeded); err != nil {
		t.Fatalf("MarkAttempt returned error: %v", err)
	}

	fresh := []Notification{
		{ID: "a", Title: "a", FireAt: now.Add(2 * time.Hour)},
		{Title: "no time"},
		{ID: "a", Title: "duplicate id", FireAt: now.Add(3 * time.Hour)},
		{Title: "b", FireAt: now.Add(4 * time.Hour), RecordHistory: true},
	}
	for round := 0; round < 2; round++ {
		res, err := store.Replace(ctx, fresh)
		if err != nil {
			t.Fatalf("Replace returned error: %v", err)
		}
		if res.CancelErr != nil {
			t.Fatalf("unexpected cancel error: %v", res.CancelErr)
		}
		if res.Errs[0] != nil || res.Errs[1] == nil || res.Errs[2] == nil || res.Errs[3] != nil {
			t.Fatalf("unexpected per-item errors: %v", res.Errs)
		}
	}

	pending, err := store.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	titles := make([]string, 0, len(pending))
	for _, n := range pending {
		titles = append(titles, n.Title)
	}
	if len(pending) != 3 || titles[0] != "retrying" || titles[1] != "a" || titles[2] != "b" {
		t.Fatalf("expected the retry row plus one copy of each fresh row, got %v", titles)
	}
	if pending[0].Attempts != 1 || !pending[2].RecordHistory {
		t.Fatalf("unexpected rows after replace: %+v", pending)
	}

	if _, err := store.Replace(ctx, nil); err != nil {
		t.Fatalf("Replace with nothing returned error: %v", err)
	}
	if count, _ := store.Count(ctx); count != 1 {
		t.Fatalf("expected only the retry row to survive, got %d", count)
	}
}

func TestStoreReplaceCanceledContextKeepsSchedule(t *testing.T) {
	store := NewStore(testutil.SetupTestDB(t))
	if err := store.Schedule(context.Background(), Notification{ID: "kept", Title: "kept", FireAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Replace(ctx, []Notification{{Title: "new", FireAt: time.Now().Add(2 * time.Hour)}}); err == nil {
		t.Fatal("expected Replace to fail on a canceled context")
	}

	pending, err := store.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "kept" {
		t.Fatalf("expected the schedule to be untouched, got %+v", pending)
	}
}

func TestStoreDueAndAttempts(t *testing.T) {
	store := NewStore(testutil.SetupTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Schedule(ctx, Notification{ID: "past", Title: "past", FireAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if err := store.Schedule(ctx, Notification{ID: "future", Title: "future", FireAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	due, err := store.Due(ctx, now, 10)
	if err != nil {
		t.Fatalf("Due returned error: %v", err)
	}
	if len(due) != 1 || due[0].ID != "past" {
		t.Fatalf("unexpected due notifications: %+v", due)
	}

	attempts, err := store.MarkAttempt(ctx, "past", context.DeadlineExceeded)
	if err != nil {
		t.Fatalf("MarkAttempt returned error: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if attempts, _ = store.MarkAttempt(ctx, "past", nil); attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}

	if err := store.Remove(ctx, "past"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if due, _ = store.Due(ctx, now, 10); len(due) != 0 {
		t.Fatalf("expected nothing due after removal, got %+v", due)
	}
}
