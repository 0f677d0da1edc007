package db

import (
	"context"
	"time"

	"github.com/smith3v/lms-reminder/pkg/logger"
	"gorm.io/gorm"
)

const (
	StaleCleanupInterval = time.Hour
	// StaleNotificationAge is how long past its fire time a pending
	// notification may linger before it is discarded undelivered.
	StaleNotificationAge = 6 * time.Hour
)

func CleanupStaleNotifications(gdb *gorm.DB, now time.Time, maxAge time.Duration) (int64, error) {
	if gdb == nil {
		return 0, nil
	}
	res := gdb.Where("fire_at <= ?", now.Add(-maxAge)).Delete(&PendingNotification{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func StartStaleCleanup(ctx context.Context, gdb *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = StaleCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			deleted, err := CleanupStaleNotifications(gdb, now.UTC(), StaleNotificationAge)
			if err != nil {
				logger.Error("failed to cleanup stale notifications", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("discarded stale notifications", "count", deleted)
			}
		}
	}
}
