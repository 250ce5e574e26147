package ratelimit

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter enforces a fixed-window Policy per token.
type Limiter struct {
	name   string
	policy atomic.Pointer[Policy]
	now    func() time.Time

	shards     []*shard
	maxBuckets int // per shard; 0 means unbounded
}

type shard struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// bucket is the per-token window state. dead is set under mu when the
// bucket is removed from its shard, so a caller holding a stale pointer
// retries the lookup instead of counting into a discarded bucket.
type bucket struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	reset       time.Time
	dead        bool
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the time source. Default: time.Now
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithShards sets the number of independently locked shards. Default: 64
func WithShards(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.shards = make([]*shard, n)
		}
	}
}

// WithMaxBuckets bounds the number of live buckets. When a shard is full,
// expired buckets are dropped first and then the bucket with the oldest
// window. 0 keeps every bucket until Sweep removes it.
func WithMaxBuckets(n int) Option {
	return func(l *Limiter) { l.maxBuckets = n }
}

// WithName labels the limiter, e.g. with its endpoint category.
func WithName(name string) Option {
	return func(l *Limiter) { l.name = name }
}

// NewLimiter creates a limiter for policy. Zero policy fields take their
// defaults; a negative interval or limit returns ErrInvalidPolicy.
func NewLimiter(policy Policy, opts ...Option) (*Limiter, error) {
	policy = policy.WithDefaults()
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		now:    time.Now,
		shards: make([]*shard, 64),
	}
	for _, opt := range opts {
		opt(l)
	}
	for i := range l.shards {
		l.shards[i] = &shard{buckets: make(map[string]*bucket)}
	}
	if l.maxBuckets > 0 {
		l.maxBuckets = (l.maxBuckets + len(l.shards) - 1) / len(l.shards)
	}
	l.policy.Store(&policy)

	return l, nil
}

// Name returns the limiter's label.
func (l *Limiter) Name() string {
	return l.name
}

// Policy returns the policy currently enforced.
func (l *Limiter) Policy() Policy {
	return *l.policy.Load()
}

// SetPolicy replaces the policy. Existing windows keep their reset time;
// the new limit applies to their next check.
func (l *Limiter) SetPolicy(policy Policy) error {
	policy = policy.WithDefaults()
	if err := policy.Validate(); err != nil {
		return err
	}
	l.policy.Store(&policy)
	return nil
}

// Check registers a request for token if the current window admits it.
// It never fails: a rejection is reported as Success=false with Remaining=0.
func (l *Limiter) Check(token string) Result {
	key := normalizeToken(token)
	policy := l.Policy()

	for {
		now := l.now()
		b := l.getOrCreate(key, now)

		b.mu.Lock()
		if b.dead {
			b.mu.Unlock()
			continue
		}

		if !now.Before(b.reset) {
			b.count = 0
			b.windowStart = now
			b.reset = now.Add(policy.Interval)
		}

		success := b.count < policy.Limit
		if success {
			b.count++
		}

		res := Result{
			Success:   success,
			Limit:     policy.Limit,
			Remaining: max(0, policy.Limit-b.count),
			Reset:     b.reset,
		}
		b.mu.Unlock()
		return res
	}
}

// Peek reports the state of token's window without registering a request.
// Success reports whether a Check made now would be admitted.
func (l *Limiter) Peek(token string) Result {
	key := normalizeToken(token)
	policy := l.Policy()
	now := l.now()

	sh := l.shardFor(key)
	sh.mu.RLock()
	b, ok := sh.buckets[key]
	sh.mu.RUnlock()

	if ok {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.dead && now.Before(b.reset) {
			return Result{
				Success:   b.count < policy.Limit,
				Limit:     policy.Limit,
				Remaining: max(0, policy.Limit-b.count),
				Reset:     b.reset,
			}
		}
	}

	return Result{
		Success:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit,
		Reset:     now.Add(policy.Interval),
	}
}

// Reset drops token's bucket so that its next check opens a new window.
func (l *Limiter) Reset(token string) {
	key := normalizeToken(token)
	sh := l.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if b, ok := sh.buckets[key]; ok {
		b.mu.Lock()
		b.dead = true
		b.mu.Unlock()
		delete(sh.buckets, key)
	}
}

// Sweep removes buckets whose window ended at or before now and returns how
// many were removed.
func (l *Limiter) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range l.shards {
		sh.mu.Lock()
		removed += sh.sweepLocked(now)
		sh.mu.Unlock()
	}
	return removed
}

// Len returns the number of buckets held, including expired ones not yet swept.
func (l *Limiter) Len() int {
	n := 0
	for _, sh := range l.shards {
		sh.mu.RLock()
		n += len(sh.buckets)
		sh.mu.RUnlock()
	}
	return n
}

func (l *Limiter) getOrCreate(key string, now time.Time) *bucket {
	sh := l.shardFor(key)

	sh.mu.RLock()
	b, ok := sh.buckets[key]
	sh.mu.RUnlock()
	if ok {
		return b
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if b, ok := sh.buckets[key]; ok {
		return b
	}

	if l.maxBuckets > 0 && len(sh.buckets) >= l.maxBuckets {
		if sh.sweepLocked(now) == 0 {
			sh.evictOldestLocked()
		}
	}

	// The zero reset makes the first Check open the window.
	b = &bucket{}
	sh.buckets[key] = b
	return b
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%uint32(len(l.shards))]
}

// sweepLocked removes expired buckets. Caller must hold sh.mu for writing.
func (sh *shard) sweepLocked(now time.Time) int {
	removed := 0
	for key, b := range sh.buckets {
		b.mu.Lock()
		if !b.reset.IsZero() && !now.Before(b.reset) {
			b.dead = true
			delete(sh.buckets, key)
			removed++
		}
		b.mu.Unlock()
	}
	return removed
}

// evictOldestLocked removes the bucket with the oldest window. Caller must
// hold sh.mu for writing.
func (sh *shard) evictOldestLocked() {
	var (
		oldestKey   string
		oldestStart time.Time
		found       bool
	)
	for key, b := range sh.buckets {
		b.mu.Lock()
		start := b.windowStart
		b.mu.Unlock()
		if !found || start.Before(oldestStart) {
			oldestKey = key
			oldestStart = start
			found = true
		}
	}
	if !found {
		return
	}

	b := sh.buckets[oldestKey]
	b.mu.Lock()
	b.dead = true
	b.mu.Unlock()
	delete(sh.buckets, oldestKey)
}

func normalizeToken(token string) string {
	if token == "" {
		return AnonymousToken
	}
	return token
}
