package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmptyKey is returned when an operation receives an empty key.
	ErrEmptyKey = errors.New("key cannot be empty")

	// ErrClosed is returned when a store is used after Close.
	ErrClosed = errors.New("store is closed")
)

// Store is a counter store keyed by string.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the counter value, or 0 when the key is absent or expired.
	Get(ctx context.Context, key string) (int64, error)

	// Set overwrites the counter. A positive ttl makes the key expire after ttl;
	// zero keeps it until deleted.
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error

	// Increment atomically adds delta and returns the new value. When the key is
	// absent or expired it starts from zero and a positive ttl is applied.
	// The ttl of an existing key is left unchanged.
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Cleanup removes keys that expired before now and returns how many were removed.
	Cleanup(ctx context.Context, now time.Time) (int, error)

	// Close releases resources. The store must not be used afterwards.
	Close() error
}

// expiry converts a ttl into an absolute deadline. Zero means no expiry.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// expired reports whether a deadline has passed. A zero deadline never expires.
func expired(deadline, now time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}
