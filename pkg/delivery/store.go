// Package delivery owns the pending local-notification schedule and fires
// due entries through a Sender.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/lms-reminder/pkg/db"
	"gorm.io/gorm"
)

type Notification struct {
	ID            string
	FireAt        time.Time
	Title         string
	Body          string
	Category      string
	ItemKind      string
	ItemID        string
	CourseID      string
	CourseName    string
	RecordHistory bool
	Attempts      int
}

// Delivered is handed to receipt handlers after a notification fired.
type Delivered struct {
	Notification
	DeliveredAt time.Time
}

var errMissingFireTime = errors.New("notification has no fire time")

type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// ReplaceResult reports how a Replace went. Errs is aligned with the
// notifications passed in; CancelErr is set when the old rows could not be
// dropped and the new ones were added alongside them.
type ReplaceResult struct {
	CancelErr error
	Errs      []error
}

// Replace drops every queued notification and schedules ns in one
// transaction that holds the schedule lock, so cycles running in separate
// processes cannot interleave. Rows already in retry (Attempts > 0) are left
// to the dispatcher. A failed item is rolled back to its savepoint and the
// rest still go in. The returned error means nothing changed.
func (s *Store) Replace(ctx context.Context, ns []Notification) (ReplaceResult, error) {
	res := ReplaceResult{Errs: make([]error, len(ns))}
	rows := make([]*db.PendingNotification, len(ns))
	for i, n := range ns {
		rows[i], res.Errs[i] = prepareRow(n)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSchedule(tx); err != nil {
			return fmt.Errorf("lock schedule: %w", err)
		}
		res.CancelErr = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Where("attempts = ?", 0).Delete(&db.PendingNotification{}).Error
		})
		for i, row := range rows {
			if row == nil {
				continue
			}
			res.Errs[i] = tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(row).Error
			})
		}
		return nil
	})
	if err != nil {
		return ReplaceResult{}, err
	}
	return res, nil
}

// lockSchedule serializes writers of pending_notifications across
// processes. Readers are not blocked on postgres; sqlite takes its database
// write lock through an empty delete.
func lockSchedule(tx *gorm.DB) error {
	switch tx.Dialector.Name() {
	case "postgres":
		return tx.Exec("LOCK TABLE pending_notifications IN SHARE ROW EXCLUSIVE MODE").Error
	case "sqlite":
		return tx.Exec("DELETE FROM pending_notifications WHERE 1 = 0").Error
	default:
		return nil
	}
}

func (s *Store) Schedule(ctx context.Context, n Notification) error {
	row, err := prepareRow(n)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

func prepareRow(n Notification) (*db.PendingNotification, error) {
	if n.FireAt.IsZero() {
		return nil, errMissingFireTime
	}
	if n.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		n.ID = id.String()
	}
	row := toRow(n)
	return &row, nil
}

// Pending returns the schedule ordered by fire time.
func (s *Store) Pending(ctx context.Context) ([]Notification, error) {
	var rows []db.PendingNotification
	if err := s.db.WithContext(ctx).Order("fire_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&db.PendingNotification{}).Count(&n).Error
	return n, err
}

// Due returns up to limit notifications whose fire time is at or before now.
func (s *Store) Due(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	var rows []db.PendingNotification
	q := s.db.WithContext(ctx).Where("fire_at <= ?", now.UTC()).Order("fire_at, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// MarkAttempt records a failed send and returns the new attempt count.
func (s *Store) MarkAttempt(ctx context.Context, id string, sendErr error) (int, error) {
	msg := ""
	if sendErr != nil {
		msg = sendErr.Error()
	}
	var row db.PendingNotification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}
		row.Attempts++
		row.LastError = msg
		return tx.Model(&db.PendingNotification{}).Where("id = ?", id).
			Updates(map[string]interface{}{"attempts": row.Attempts, "last_error": row.LastError}).Error
	})
	if err != nil {
		return 0, err
	}
	return row.Attempts, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&db.PendingNotification{}).Error
}

func toRow(n Notification) db.PendingNotification {
	return db.PendingNotification{
		ID:            n.ID,
		FireAt:        n.FireAt.UTC(),
		Title:         n.Title,
		Body:          n.Body,
		Category:      n.Category,
		ItemKind:      n.ItemKind,
		ItemID:        n.ItemID,
		CourseID:      n.CourseID,
		CourseName:    n.CourseName,
		RecordHistory: n.RecordHistory,
		Attempts:      n.Attempts,
	}
}

func fromRows(rows []db.PendingNotification) []Notification {
	out := make([]Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, Notification{
			ID:            r.ID,
			FireAt:        r.FireAt,
			Title:         r.Title,
			Body:          r.Body,
			Category:      r.Category,
			ItemKind:      r.ItemKind,
			ItemID:        r.ItemID,
			CourseID:      r.CourseID,
			CourseName:    r.CourseName,
			RecordHistory: r.RecordHistory,
			Attempts:      r.Attempts,
		})
	}
	return out
}
