package storage

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// MemoryStore implements Store with sharded in-memory maps.
// All data is lost when the process exits.
//
// Keys are spread over independent shards, each guarded by its own lock, so
// operations on unrelated keys rarely contend.
type MemoryStore struct {
	shards []*memoryShard

	// maxPerShard is the per-shard entry limit; 0 disables eviction.
	maxPerShard int

	now func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time
	updatedAt time.Time
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	// Shards is the number of independently locked partitions.
	// Default: 32
	Shards int

	// MaxEntries bounds the number of stored keys. When a shard is full the
	// least recently updated key of that shard is evicted. 0 means unbounded.
	MaxEntries int

	// CleanupInterval is how often expired keys are removed in the background.
	// 0 disables the background loop; expired keys still read as 0.
	CleanupInterval time.Duration

	// Clock returns the current time. Default: time.Now
	Clock func() time.Time
}

// NewMemoryStore creates an unbounded memory store without background cleanup.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig creates a memory store with custom configuration.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.Shards <= 0 {
		cfg.Shards = 32
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &MemoryStore{
		shards: make([]*memoryShard, cfg.Shards),
		now:    cfg.Clock,
		done:   make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &memoryShard{entries: make(map[string]*memoryEntry)}
	}
	if cfg.MaxEntries > 0 {
		s.maxPerShard = (cfg.MaxEntries + cfg.Shards - 1) / cfg.Shards
	}

	if cfg.CleanupInterval > 0 {
		go s.cleanupLoop(cfg.CleanupInterval)
	}

	return s
}

// Get returns the counter value for key.
func (s *MemoryStore) Get(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.entries[key]
	if !ok || expired(e.expiresAt, s.now()) {
		return 0, nil
	}
	return e.value, nil
}

// Set overwrites the counter for key.
func (s *MemoryStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}

	now := s.now()
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.entries[key]; !ok {
		s.makeRoomLocked(sh)
	}
	sh.entries[key] = &memoryEntry{
		value:     value,
		expiresAt: expiry(now, ttl),
		updatedAt: now,
	}
	return nil
}

// Increment atomically adds delta to the counter for key.
func (s *MemoryStore) Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}

	now := s.now()
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok {
		s.makeRoomLocked(sh)
	}
	if !ok || expired(e.expiresAt, now) {
		e = &memoryEntry{expiresAt: expiry(now, ttl)}
		sh.entries[key] = e
	}

	e.value += delta
	e.updatedAt = now
	return e.value, nil
}

// Delete removes key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.entries, key)
	return nil
}

// Cleanup removes keys that expired before now.
func (s *MemoryStore) Cleanup(ctx context.Context, now time.Time) (int, error) {
	deleted := 0
	for _, sh := range s.shards {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		sh.mu.Lock()
		for key, e := range sh.entries {
			if expired(e.expiresAt, now) {
				delete(sh.entries, key)
				deleted++
			}
		}
		sh.mu.Unlock()
	}
	return deleted, nil
}

// Close stops the background cleanup loop. Close is idempotent.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// Size returns the number of stored keys, including expired keys that have
// not been cleaned up yet.
func (s *MemoryStore) Size() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// makeRoomLocked evicts the least recently updated entry when the shard is
// full. Caller must hold the shard's write lock.
func (s *MemoryStore) makeRoomLocked(sh *memoryShard) {
	if s.maxPerShard <= 0 || len(sh.entries) < s.maxPerShard {
		return
	}

	var (
		oldestKey  string
		oldestTime time.Time
		found      bool
	)
	for key, e := range sh.entries {
		if !found || e.updatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.updatedAt
			found = true
		}
	}
	if found {
		delete(sh.entries, oldestKey)
	}
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.Cleanup(context.Background(), s.now())
		case <-s.done:
			return
		}
	}
}
