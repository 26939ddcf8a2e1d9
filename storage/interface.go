package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when an operation targets a missing key.
var ErrKeyNotFound = errors.New("key not found")

// ErrCASMismatch is returned when a compare-and-swap finds a different
// current value than expected.
var ErrCASMismatch = errors.New("cas: current value does not match")

// Storage defines the interface for workload state backends.
type Storage interface {
	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// CompareAndSwap atomically replaces the value for key with to, but
	// only if the current value equals from. Returns ErrKeyNotFound when
	// the key is absent and ErrCASMismatch when the value differs.
	CompareAndSwap(ctx context.Context, key string, from, to []byte) error

	// Delete removes keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int, error)

	// Keys lists all stored keys.
	Keys(ctx context.Context) ([]string, error)

	// Lifecycle
	Close() error
}
