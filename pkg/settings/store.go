package settings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/smith3v/lms-reminder/pkg/kv"
	"github.com/smith3v/lms-reminder/pkg/logger"
)

const StorageKey = "settings.v1"

type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Load never fails: a missing, unreadable or corrupt blob yields Defaults.
// Fields absent from the stored blob keep their default values.
func (s *Store) Load(ctx context.Context) Settings {
	current := Defaults()
	raw, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return current
	}
	if err != nil {
		logger.Error("failed to read reminder settings, using defaults", "error", err)
		return current
	}
	if err := json.Unmarshal(raw, &current); err != nil {
		logger.Error("failed to decode reminder settings, using defaults", "error", err)
		return Defaults()
	}
	return current
}

func (s *Store) Save(ctx context.Context, value Settings) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, StorageKey, raw); err != nil {
		logger.Error("failed to persist reminder settings", "error", err)
		return err
	}
	return nil
}

// Update applies fn to the current settings and persists the result.
func (s *Store) Update(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	current := s.Load(ctx)
	if err := fn(&current); err != nil {
		return current, err
	}
	return current, s.Save(ctx, current)
}
