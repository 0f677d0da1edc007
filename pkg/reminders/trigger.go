package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/smith3v/lms-reminder/pkg/auth"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

// MinTriggerInterval is the shortest period between background cycles.
const MinTriggerInterval = time.Hour

// Outcome is the background result vocabulary.
type Outcome int

const (
	OutcomeNoData Outcome = iota
	OutcomeNewData
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNewData:
		return "new-data"
	case OutcomeFailed:
		return "failed"
	default:
		return "no-data"
	}
}

type SessionReloader interface {
	Reload(ctx context.Context) (auth.Session, error)
}

// Trigger periodically runs the engine in the background, refreshing the
// backend session before each cycle.
type Trigger struct {
	engine   *Engine
	sessions SessionReloader
	interval time.Duration
}

func NewTrigger(engine *Engine, sessions SessionReloader, interval time.Duration) *Trigger {
	if interval < MinTriggerInterval {
		interval = MinTriggerInterval
	}
	return &Trigger{engine: engine, sessions: sessions, interval: interval}
}

func (t *Trigger) Interval() time.Duration {
	return t.interval
}

// RunOnce performs one background cycle. A cycle already running elsewhere
// counts as no new data.
func (t *Trigger) RunOnce(ctx context.Context) (Outcome, int) {
	if t.sessions != nil {
		if _, err := t.sessions.Reload(ctx); err != nil && !errors.Is(err, auth.ErrNoCredentials) {
			logger.Warn("failed to refresh backend session before cycle", "error", err)
		}
	}

	summary, err := t.engine.TryRun(ctx)
	if errors.Is(err, ErrCycleInProgress) {
		logger.Debug("skipping background cycle, another one is running")
		return OutcomeNoData, 0
	}
	if err != nil {
		return OutcomeFailed, 0
	}
	switch summary.Status {
	case StatusSuccess:
		return OutcomeNewData, summary.Scheduled
	case StatusFailed:
		return OutcomeFailed, 0
	default:
		return OutcomeNoData, 0
	}
}

// Start runs one cycle immediately and then one per interval until ctx is
// cancelled.
func (t *Trigger) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logOutcome(t.RunOnce(ctx))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.logOutcome(t.RunOnce(ctx))
		}
	}
}

func (t *Trigger) logOutcome(outcome Outcome, scheduled int) {
	logger.Info("background reminder cycle", "outcome", outcome.String(), "scheduled", scheduled)
}
