package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis tests need a live server; set QUOTA_TEST_REDIS_ADDR to run them.
func newTestRedisStore(t *testing.T, _ *fakeClock) Store {
	addr := os.Getenv("QUOTA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("QUOTA_TEST_REDIS_ADDR not set")
	}

	prefix := fmt.Sprintf("quota-test:%s:%d", t.Name(), time.Now().UnixNano())
	store, err := NewRedisStoreWithConfig(context.Background(), RedisStoreConfig{
		Addr:      addr,
		KeyPrefix: prefix,
	})
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisStore_Contract(t *testing.T) {
	runStoreSuite(t, newTestRedisStore)
}

func TestRedisStore_TTLApplied(t *testing.T) {
	store := newTestRedisStore(t, nil).(*RedisStore)
	ctx := context.Background()

	if _, err := store.Increment(ctx, "k", 1, time.Minute); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	ttl, err := store.rdb.PTTL(ctx, store.Key("k")).Result()
	if err != nil {
		t.Fatalf("PTTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("Expected ttl in (0, 1m], got %v", ttl)
	}
}

func TestRedisStore_IncrementKeepsPersistentKey(t *testing.T) {
	store := newTestRedisStore(t, nil).(*RedisStore)
	ctx := context.Background()

	if err := store.Set(ctx, "k", 0, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := store.Increment(ctx, "k", 1, time.Minute); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	ttl, err := store.rdb.PTTL(ctx, store.Key("k")).Result()
	if err != nil {
		t.Fatalf("PTTL failed: %v", err)
	}
	if ttl != -1 {
		t.Errorf("Expected no expiry on a key set without one, got %v", ttl)
	}
}

func TestTTLMilliseconds(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int64
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Microsecond, 1},
		{999 * time.Microsecond, 1},
		{1500 * time.Microsecond, 1},
		{time.Minute, 60000},
	}
	for _, tt := range tests {
		if got := ttlMilliseconds(tt.ttl); got != tt.want {
			t.Errorf("ttlMilliseconds(%v): expected %d, got %d", tt.ttl, tt.want, got)
		}
	}
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	tests := []struct {
		prefix string
		want   string
	}{
		{"", "quota:usage:u:m"},
		{"app", "app:usage:u:m"},
		{":app:", "app:usage:u:m"},
	}
	for _, tt := range tests {
		s := NewRedisStore(rdb, tt.prefix)
		if got := s.Key("usage:u:m"); got != tt.want {
			t.Errorf("prefix %q: expected %q, got %q", tt.prefix, tt.want, got)
		}
		if err := s.Close(); err != nil {
			t.Errorf("Close of borrowed client failed: %v", err)
		}
	}
}

func TestRedisStore_RequiresAddr(t *testing.T) {
	if _, err := NewRedisStoreWithConfig(context.Background(), RedisStoreConfig{}); err == nil {
		t.Error("Expected error for empty address")
	}
}
