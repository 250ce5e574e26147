package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrementScript adds ARGV[1] to KEYS[1] and, when the key did not exist
// before, sets a millisecond expiry of ARGV[2]. Running both steps in one
// script keeps a fresh key from living without its expiry. A key that
// already exists keeps whatever expiry it has, including none.
var incrementScript = redis.NewScript(`
local existed = redis.call("EXISTS", KEYS[1])
local v = redis.call("INCRBY", KEYS[1], ARGV[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 and existed == 0 then
	redis.call("PEXPIRE", KEYS[1], ttl)
end
return v
`)

// RedisStore implements Store on Redis. Counters are shared by every process
// that points at the same server and key prefix. Expiry is native, so
// Cleanup has nothing to do.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	owned  bool
}

// RedisStoreConfig configures a Redis store created by NewRedisStoreWithConfig.
type RedisStoreConfig struct {
	// Addr is the server address, e.g. "127.0.0.1:6379".
	Addr string

	// Password is optional.
	Password string

	// DB is the database number.
	DB int

	// DialTimeout bounds connection setup and the startup ping.
	// Default: 5 seconds
	DialTimeout time.Duration

	// KeyPrefix is prepended to every key, separated by ':'.
	// Default: "quota"
	KeyPrefix string
}

// NewRedisStoreWithConfig connects to Redis and verifies the connection with a ping.
func NewRedisStoreWithConfig(ctx context.Context, cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	s := NewRedisStore(rdb, cfg.KeyPrefix)
	s.owned = true
	return s, nil
}

// NewRedisStore wraps an existing client. The caller keeps ownership of rdb;
// Close does not close it.
func NewRedisStore(rdb *redis.Client, keyPrefix string) *RedisStore {
	keyPrefix = strings.Trim(keyPrefix, ":")
	if keyPrefix == "" {
		keyPrefix = "quota"
	}
	return &RedisStore{rdb: rdb, prefix: keyPrefix}
}

// Key returns the Redis key used for a store key.
func (s *RedisStore) Key(key string) string {
	return s.prefix + ":" + key
}

// Get returns the counter value for key.
func (s *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	v, err := s.rdb.Get(ctx, s.Key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get counter: %w", err)
	}
	return v, nil
}

// Set overwrites the counter for key.
func (s *RedisStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl < 0 {
		ttl = 0
	}

	if err := s.rdb.Set(ctx, s.Key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set counter: %w", err)
	}
	return nil
}

// Increment atomically adds delta to the counter for key.
func (s *RedisStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	ttlMillis := ttlMilliseconds(ttl)

	v, err := incrementScript.Run(ctx, s.rdb, []string{s.Key(key)}, delta, ttlMillis).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return v, nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.rdb.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete counter: %w", err)
	}
	return nil
}

// Cleanup is a no-op: Redis expires keys itself.
func (s *RedisStore) Cleanup(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Ping checks that the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the client if the store created it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}

// ttlMilliseconds converts ttl for PEXPIRE. A positive ttl below one
// millisecond rounds up so it still expires.
func ttlMilliseconds(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return max(1, ttl.Milliseconds())
}
