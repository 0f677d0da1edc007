// Package kv is the keyed blob storage behind settings and history.
package kv

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("kv: key not found")

	// ErrUnchanged is returned from an UpdateFunc to skip the write.
	// Update itself then returns nil.
	ErrUnchanged = errors.New("kv: value unchanged")

	// ErrConflict means Update gave up after concurrent writers kept
	// changing the key.
	ErrConflict = errors.New("kv: concurrent update conflict")
)

// UpdateFunc receives the stored value, nil when the key is missing, and
// returns the value to store.
type UpdateFunc func(current []byte) ([]byte, error)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Update is an atomic read-modify-write of one key, safe against
	// writers in other processes sharing the backend.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
