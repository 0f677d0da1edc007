// Package reminders turns deadline snapshots and lead-time settings into a
// fresh local notification schedule.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smith3v/lms-reminder/pkg/dashboard"
	"github.com/smith3v/lms-reminder/pkg/delivery"
	"github.com/smith3v/lms-reminder/pkg/logger"
	"github.com/smith3v/lms-reminder/pkg/settings"
)

// ErrCycleInProgress is returned by TryRun while another cycle holds the engine.
var ErrCycleInProgress = errors.New("reminder cycle already in progress")

// SnapshotProvider fetches the current deadlines from the backend.
type SnapshotProvider interface {
	Fetch(ctx context.Context) (dashboard.Snapshot, error)
}

// SettingsSource yields the lead-time settings for one cycle.
type SettingsSource interface {
	Load(ctx context.Context) settings.Settings
}

// Scheduler is the notification schedule the engine reconciles against.
// Replace must swap the queued notifications atomically.
type Scheduler interface {
	Replace(ctx context.Context, ns []delivery.Notification) (delivery.ReplaceResult, error)
}

// Status is the outcome of one cycle as reported to the background trigger.
type Status string

const (
	StatusNoData  Status = "no-data"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Summary describes one finished cycle. Lines holds a rendered line per
// scheduled reminder.
type Summary struct {
	Status    Status
	Scheduled int
	Failed    int
	Lines     []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone used for times rendered into reminder text.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// Engine runs at most one reminder cycle at a time.
type Engine struct {
	provider  SnapshotProvider
	settings  SettingsSource
	scheduler Scheduler
	now       func() time.Time
	location  *time.Location
	inflight  chan struct{}
}

func NewEngine(provider SnapshotProvider, source SettingsSource, scheduler Scheduler, opts ...Option) *Engine {
	e := &Engine{
		provider:  provider,
		settings:  source,
		scheduler: scheduler,
		now:       time.Now,
		location:  time.UTC,
		inflight:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run waits for any in-flight cycle to finish and then runs a new one.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	select {
	case e.inflight <- struct{}{}:
	case <-ctx.Done():
		return Summary{Status: StatusFailed}, ctx.Err()
	}
	defer func() { <-e.inflight }()
	return e.cycle(ctx)
}

// TryRun returns ErrCycleInProgress instead of waiting.
func (e *Engine) TryRun(ctx context.Context) (Summary, error) {
	select {
	case e.inflight <- struct{}{}:
	default:
		return Summary{Status: StatusNoData}, ErrCycleInProgress
	}
	defer func() { <-e.inflight }()
	return e.cycle(ctx)
}

// Running reports whether a cycle currently holds the engine.
func (e *Engine) Running() bool {
	return len(e.inflight) > 0
}

func (e *Engine) cycle(ctx context.Context) (Summary, error) {
	current := e.settings.Load(ctx)

	snap, err := e.provider.Fetch(ctx)
	if err != nil {
		logger.Warn("reminder cycle aborted, keeping existing schedule", "error", err)
		return Summary{Status: StatusFailed}, fmt.Errorf("fetch dashboard: %w", err)
	}

	planned := e.Plan(current, snap, e.now())
	batch := make([]delivery.Notification, len(planned))
	for i, r := range planned {
		batch[i] = r.Notification()
	}

	res, err := e.scheduler.Replace(ctx, batch)
	if err != nil {
		logger.Error("failed to replace schedule, keeping existing one", "error", err)
		return Summary{Status: StatusFailed}, fmt.Errorf("replace schedule: %w", err)
	}
	if res.CancelErr != nil {
		logger.Error("failed to cancel scheduled reminders", "error", res.CancelErr)
	}

	summary := Summary{Lines: make([]string, 0, len(planned))}
	for i, r := range planned {
		if i < len(res.Errs) && res.Errs[i] != nil {
			logger.Error("failed to schedule reminder", "title", r.Title, "fire_at", r.FireAt, "error", res.Errs[i])
			summary.Failed++
			continue
		}
		summary.Scheduled++
		summary.Lines = append(summary.Lines, r.String())
	}

	switch {
	case summary.Scheduled > 0:
		summary.Status = StatusSuccess
	case summary.Failed > 0:
		summary.Status = StatusFailed
	default:
		summary.Status = StatusNoData
	}
	logger.Info("reminder cycle finished",
		"status", summary.Status,
		"items", snap.Len(),
		"scheduled", summary.Scheduled,
		"failed", summary.Failed,
	)
	return summary, nil
}
