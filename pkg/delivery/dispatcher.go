package delivery

import (
	"context"
	"time"

	"github.com/smith3v/lms-reminder/pkg/logger"
)

const (
	DefaultDispatchInterval = time.Minute
	MaxSendAttempts         = 3
	dispatchBatchSize       = 50
)

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type ReceiptHandler interface {
	OnDelivered(ctx context.Context, d Delivered)
}

type ReceiptHandlerFunc func(ctx context.Context, d Delivered)

func (f ReceiptHandlerFunc) OnDelivered(ctx context.Context, d Delivered) {
	f(ctx, d)
}

// Dispatcher fires due notifications. A notification that fails to send
// MaxSendAttempts times is dropped.
type Dispatcher struct {
	store    *Store
	sender   Sender
	handlers []ReceiptHandler
	now      func() time.Time
}

func NewDispatcher(store *Store, sender Sender, handlers ...ReceiptHandler) *Dispatcher {
	return &Dispatcher{
		store:    store,
		sender:   sender,
		handlers: handlers,
		now:      time.Now,
	}
}

// DispatchDue sends everything due now and returns the delivered count.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	now := d.now()
	due, err := d.store.Due(ctx, now, dispatchBatchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, n := range due {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if err := d.sender.Send(ctx, n); err != nil {
			d.handleFailure(ctx, n, err)
			continue
		}
		if err := d.store.Remove(ctx, n.ID); err != nil {
			logger.Error("failed to remove delivered notification", "id", n.ID, "error", err)
		}
		delivered++
		receipt := Delivered{Notification: n, DeliveredAt: now}
		for _, h := range d.handlers {
			h.OnDelivered(ctx, receipt)
		}
	}
	return delivered, nil
}

func (d *Dispatcher) handleFailure(ctx context.Context, n Notification, sendErr error) {
	attempts, err := d.store.MarkAttempt(ctx, n.ID, sendErr)
	if err != nil {
		logger.Error("failed to record notification attempt", "id", n.ID, "error", err)
		return
	}
	if attempts < MaxSendAttempts {
		logger.Warn("notification send failed, will retry", "id", n.ID, "attempts", attempts, "error", sendErr)
		return
	}
	logger.Error("dropping notification after repeated failures", "id", n.ID, "title", n.Title, "attempts", attempts, "error", sendErr)
	if err := d.store.Remove(ctx, n.ID); err != nil {
		logger.Error("failed to drop notification", "id", n.ID, "error", err)
	}
}

// Start runs DispatchDue on every tick until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultDispatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := d.DispatchDue(ctx)
			if err != nil {
				logger.Error("failed to dispatch notifications", "error", err)
				continue
			}
			if sent > 0 {
				logger.Info("notifications delivered", "count", sent)
			}
		}
	}
}
