package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock shared by store tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// runStoreSuite exercises the Store contract against any implementation.
func runStoreSuite(t *testing.T, newStore func(t *testing.T, clock *fakeClock) Store) {
	t.Run("MissingKeyReadsZero", func(t *testing.T) {
		store := newStore(t, newFakeClock())
		v, err := store.Get(context.Background(), "missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v != 0 {
			t.Errorf("Expected 0, got %d", v)
		}
	})

	t.Run("IncrementAccumulates", func(t *testing.T) {
		store := newStore(t, newFakeClock())
		ctx := context.Background()

		for i, delta := range []int64{1, 2, 3} {
			v, err := store.Increment(ctx, "k", delta, 0)
			if err != nil {
				t.Fatalf("Increment %d failed: %v", i, err)
			}
			want := []int64{1, 3, 6}[i]
			if v != want {
				t.Errorf("Increment %d: expected %d, got %d", i, want, v)
			}
		}

		v, _ := store.Get(ctx, "k")
		if v != 6 {
			t.Errorf("Expected 6, got %d", v)
		}
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		store := newStore(t, newFakeClock())
		ctx := context.Background()

		_, _ = store.Increment(ctx, "k", 10, 0)
		if err := store.Set(ctx, "k", 3, 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		v, _ := store.Get(ctx, "k")
		if v != 3 {
			t.Errorf("Expected 3, got %d", v)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t, newFakeClock())
		ctx := context.Background()

		_, _ = store.Increment(ctx, "k", 4, 0)
		if err := store.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "never-written"); err != nil {
			t.Errorf("Delete of absent key failed: %v", err)
		}
		v, _ := store.Get(ctx, "k")
		if v != 0 {
			t.Errorf("Expected 0 after delete, got %d", v)
		}
	})

	t.Run("EmptyKey", func(t *testing.T) {
		store := newStore(t, newFakeClock())
		ctx := context.Background()

		if _, err := store.Get(ctx, ""); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("Get: expected ErrEmptyKey, got %v", err)
		}
		if _, err := store.Increment(ctx, "", 1, 0); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("Increment: expected ErrEmptyKey, got %v", err)
		}
		if err := store.Set(ctx, "", 1, 0); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("Set: expected ErrEmptyKey, got %v", err)
		}
	})

	t.Run("NegativeDeltaTakesBack", func(t *testing.T) {
		store := newStore(t, newFakeClock())
		ctx := context.Background()

		_, _ = store.Increment(ctx, "k", 5, time.Hour)
		v, err := store.Increment(ctx, "k", -5, time.Hour)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if v != 0 {
			t.Errorf("Expected 0, got %d", v)
		}
	})

	t.Run("ConcurrentIncrements", func(t *testing.T) {
		store := newStore(t, newFakeClock())
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.Increment(ctx, "shared", 1, 0); err != nil {
					t.Errorf("Increment failed: %v", err)
				}
			}()
		}
		wg.Wait()

		v, _ := store.Get(ctx, "shared")
		if v != 50 {
			t.Errorf("Expected 50 after concurrent increments, got %d", v)
		}
	})
}

// runExpirySuite checks ttl handling for stores driven by a fake clock.
func runExpirySuite(t *testing.T, newStore func(t *testing.T, clock *fakeClock) Store) {
	t.Run("ExpiredKeyReadsZero", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)
		ctx := context.Background()

		_, _ = store.Increment(ctx, "k", 5, time.Minute)
		clock.Advance(59 * time.Second)
		if v, _ := store.Get(ctx, "k"); v != 5 {
			t.Errorf("Expected 5 before expiry, got %d", v)
		}

		clock.Advance(time.Second)
		if v, _ := store.Get(ctx, "k"); v != 0 {
			t.Errorf("Expected 0 after expiry, got %d", v)
		}
	})

	t.Run("IncrementRestartsExpiredKey", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)
		ctx := context.Background()

		_, _ = store.Increment(ctx, "k", 5, time.Minute)
		clock.Advance(2 * time.Minute)

		v, err := store.Increment(ctx, "k", 1, time.Minute)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if v != 1 {
			t.Errorf("Expected counter to restart at 1, got %d", v)
		}
	})

	t.Run("IncrementKeepsExistingExpiry", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)
		ctx := context.Background()

		_, _ = store.Increment(ctx, "k", 1, time.Minute)
		clock.Advance(30 * time.Second)
		_, _ = store.Increment(ctx, "k", 1, time.Minute)
		clock.Advance(30 * time.Second)

		if v, _ := store.Get(ctx, "k"); v != 0 {
			t.Errorf("Expected original expiry to hold, got %d", v)
		}
	})

	t.Run("IncrementKeepsPersistentKey", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)
		ctx := context.Background()

		if err := store.Set(ctx, "k", 0, 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		_, _ = store.Increment(ctx, "k", 1, time.Minute)
		clock.Advance(2 * time.Minute)

		if v, _ := store.Get(ctx, "k"); v != 1 {
			t.Errorf("Expected key without expiry to keep its value, got %d", v)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		clock := newFakeClock()
		store := newStore(t, clock)
		ctx := context.Background()

		_, _ = store.Increment(ctx, "short", 1, time.Minute)
		_, _ = store.Increment(ctx, "long", 1, time.Hour)
		_, _ = store.Increment(ctx, "forever", 1, 0)

		clock.Advance(2 * time.Minute)
		deleted, err := store.Cleanup(ctx, clock.Now())
		if err != nil {
			t.Fatalf("Cleanup failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("Expected 1 deleted, got %d", deleted)
		}
		if v, _ := store.Get(ctx, "long"); v != 1 {
			t.Errorf("Expected long to survive, got %d", v)
		}
		if v, _ := store.Get(ctx, "forever"); v != 1 {
			t.Errorf("Expected forever to survive, got %d", v)
		}
	})
}
