// Package history keeps a bounded, newest-first log of delivered reminders
// with per-entry read state.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/lms-reminder/pkg/kv"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

const (
	StorageKey = "history.v1"
	// DefaultCapacity is also the hard ceiling; larger capacities are clamped.
	DefaultCapacity = 50
)

// Correlation ties an entry back to the course it was about. Both fields
// are optional.
type Correlation struct {
	CourseID   string `json:"course_id,omitempty"`
	CourseName string `json:"course_name,omitempty"`
}

type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
	Category  string    `json:"category,omitempty"`
	Correlation
}

// Log persists entries as one JSON array under StorageKey. Every mutation is
// a kv.Store Update, so Logs in separate processes sharing a backend do not
// lose each other's writes; mu only keeps this process from contending with
// itself.
type Log struct {
	mu       sync.Mutex
	store    kv.Store
	capacity int
	now      func() time.Time
}

func NewLog(store kv.Store, capacity int) *Log {
	if capacity <= 0 || capacity > DefaultCapacity {
		capacity = DefaultCapacity
	}
	return &Log{store: store, capacity: capacity, now: time.Now}
}

func (l *Log) Capacity() int {
	return l.capacity
}

// Append inserts a new entry at the head and evicts from the tail beyond
// capacity. Storage failures are logged and the entry is dropped.
func (l *Log) Append(ctx context.Context, title, body, category string, corr Correlation) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ID:          newID(),
		Title:       title,
		Body:        body,
		CreatedAt:   l.now().UTC(),
		Category:    category,
		Correlation: corr,
	}

	err := l.store.Update(ctx, StorageKey, func(current []byte) ([]byte, error) {
		entries := append([]Entry{entry}, l.decode(current)...)
		if len(entries) > l.capacity {
			entries = entries[:l.capacity]
		}
		return json.Marshal(entries)
	})
	if err != nil {
		logger.Error("failed to persist history entry, dropping it", "title", title, "error", err)
	}
	return entry
}

// List returns entries newest-first. Read failures yield an empty list.
func (l *Log) List(ctx context.Context) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries, err := l.load(ctx)
	if err != nil {
		logger.Error("failed to read history", "error", err)
		return []Entry{}
	}
	return entries
}

func (l *Log) Get(ctx context.Context, id string) (Entry, bool) {
	for _, e := range l.List(ctx) {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (l *Log) Size(ctx context.Context) int {
	return len(l.List(ctx))
}

func (l *Log) UnreadCount(ctx context.Context) int {
	n := 0
	for _, e := range l.List(ctx) {
		if !e.Read {
			n++
		}
	}
	return n
}

// MarkRead is a no-op for unknown or already read ids.
func (l *Log) MarkRead(ctx context.Context, id string) error {
	return l.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		for i := range entries {
			if entries[i].ID == id && !entries[i].Read {
				entries[i].Read = true
				return entries, true
			}
		}
		return entries, false
	})
}

func (l *Log) MarkAllRead(ctx context.Context) error {
	return l.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		changed := false
		for i := range entries {
			if !entries[i].Read {
				entries[i].Read = true
				changed = true
			}
		}
		return entries, changed
	})
}

// Delete removes the entry with id, keeping the order of the rest.
func (l *Log) Delete(ctx context.Context, id string) error {
	return l.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		for i := range entries {
			if entries[i].ID == id {
				return append(entries[:i], entries[i+1:]...), true
			}
		}
		return entries, false
	})
}

func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Delete(ctx, StorageKey); err != nil {
		logger.Error("failed to clear history", "error", err)
		return err
	}
	return nil
}

func (l *Log) mutate(ctx context.Context, fn func([]Entry) ([]Entry, bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.Update(ctx, StorageKey, func(current []byte) ([]byte, error) {
		next, changed := fn(l.decode(current))
		if !changed {
			return nil, kv.ErrUnchanged
		}
		return json.Marshal(next)
	})
	if err != nil {
		logger.Error("failed to update history", "error", err)
		return err
	}
	return nil
}

// load treats a missing or undecodable blob as an empty history.
func (l *Log) load(ctx context.Context) ([]Entry, error) {
	raw, err := l.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return l.decode(raw), nil
}

func (l *Log) decode(raw []byte) []Entry {
	if len(raw) == 0 {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warn("discarding undecodable history", "error", err)
		return []Entry{}
	}
	if entries == nil {
		entries = []Entry{}
	}
	if len(entries) > l.capacity {
		entries = entries[:l.capacity]
	}
	return entries
}

// newID returns a UUIDv7: millisecond timestamp prefix plus random bits, so
// ids sort by creation time and stay unique within one millisecond.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
