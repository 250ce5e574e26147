package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"postplanner-hq/quota/pkg/limits/storage"
	"postplanner-hq/quota/pkg/limits/tier"
)

var (
	// ErrInvalidAmount is returned when TrackUsage is given a non-positive amount.
	ErrInvalidAmount = errors.New("usage amount must be positive")

	// ErrStorageFailure wraps errors returned by the underlying store.
	ErrStorageFailure = errors.New("usage storage failure")
)

const keyPrefix = "usage"

// Tracker accumulates usage counters in a storage.Store.
// It is safe for concurrent use when the store is.
type Tracker struct {
	store  storage.Store
	period Period
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPeriod sets the counter period. Default: PeriodMonthly
func WithPeriod(p Period) Option {
	return func(t *Tracker) { t.period = p }
}

// WithClock sets the time source used to pick the period. Default: time.Now
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// NewTracker creates a tracker over store.
func NewTracker(store storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		period: PeriodMonthly,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default().With("component", "usage.tracker")
	}
	return t
}

// Period returns the tracker's counter period.
func (t *Tracker) Period() Period {
	return t.period
}

// TrackUsage adds amount to the user's counter for metric in the current
// period. The counter starts at zero if it does not exist yet.
func (t *Tracker) TrackUsage(ctx context.Context, userID, metric string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	now := t.now()
	key := t.key(userID, metric, now)

	total, err := t.store.Increment(ctx, key, amount, t.period.ttl(now))
	if err != nil {
		return fmt.Errorf("%w: increment %s: %w", ErrStorageFailure, key, err)
	}

	t.logger.Debug("usage tracked",
		"user_id", userID,
		"metric", metric,
		"amount", amount,
		"total", total,
	)
	return nil
}

// TrackUsageWithin adds amount to the user's counter unless the new total
// would pass ceiling, in which case the amount is taken back and ok is
// false. total is the usage after the call either way.
// Concurrent charges near the ceiling can briefly see each other's refused
// amount; the counter never settles above ceiling through this method.
func (t *Tracker) TrackUsageWithin(ctx context.Context, userID, metric string, amount, ceiling int64) (total int64, ok bool, err error) {
	if amount <= 0 {
		return 0, false, fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	now := t.now()
	key := t.key(userID, metric, now)
	ttl := t.period.ttl(now)

	total, err = t.store.Increment(ctx, key, amount, ttl)
	if err != nil {
		return 0, false, fmt.Errorf("%w: increment %s: %w", ErrStorageFailure, key, err)
	}
	if total <= ceiling {
		t.logger.Debug("usage tracked",
			"user_id", userID,
			"metric", metric,
			"amount", amount,
			"total", total,
		)
		return total, true, nil
	}

	total, err = t.store.Increment(ctx, key, -amount, ttl)
	if err != nil {
		return 0, false, fmt.Errorf("%w: refund %s: %w", ErrStorageFailure, key, err)
	}
	t.logger.Debug("usage refused",
		"user_id", userID,
		"metric", metric,
		"amount", amount,
		"ceiling", ceiling,
		"total", total,
	)
	return total, false, nil
}

// GetUsage returns the user's usage of metric in the current period, or 0
// if nothing was tracked.
func (t *Tracker) GetUsage(ctx context.Context, userID, metric string) (int64, error) {
	key := t.key(userID, metric, t.now())

	v, err := t.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: get %s: %w", ErrStorageFailure, key, err)
	}
	return v, nil
}

// ResetUsage clears the user's counter for metric in the current period.
func (t *Tracker) ResetUsage(ctx context.Context, userID, metric string) error {
	key := t.key(userID, metric, t.now())

	if err := t.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrStorageFailure, key, err)
	}

	t.logger.Info("usage reset", "user_id", userID, "metric", metric)
	return nil
}

// Snapshot returns the user's current usage of each metric.
func (t *Tracker) Snapshot(ctx context.Context, userID string, metrics []tier.Metric) (map[tier.Metric]int64, error) {
	out := make(map[tier.Metric]int64, len(metrics))
	for _, m := range metrics {
		v, err := t.GetUsage(ctx, userID, string(m))
		if err != nil {
			return nil, err
		}
		out[m] = v
	}
	return out, nil
}

// Cleanup removes counters from past periods that the store still holds.
func (t *Tracker) Cleanup(ctx context.Context) (int, error) {
	n, err := t.store.Cleanup(ctx, t.now())
	if err != nil {
		return 0, fmt.Errorf("%w: cleanup: %w", ErrStorageFailure, err)
	}
	return n, nil
}

// Key returns the storage key for the user's metric counter at now.
func (t *Tracker) Key(userID, metric string, now time.Time) string {
	return t.key(userID, metric, now)
}

func (t *Tracker) key(userID, metric string, now time.Time) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(userID)
	b.WriteByte(':')
	b.WriteString(metric)
	if s := t.period.suffix(now); s != "" {
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}
