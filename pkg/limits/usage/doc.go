// Package usage accumulates per-user, per-metric usage counters.
//
// Counters live in a storage.Store, so the same Tracker runs on the in-memory
// store for development, SQLite for a single durable node, or Redis when
// several instances share quota state.
//
// # Periods
//
// With PeriodMonthly (the default) each counter is scoped to the current UTC
// calendar month and a new month starts from zero:
//
//	usage:{userID}:{metric}:{YYYY-MM}
//
// PeriodLifetime drops the month suffix and the counter only grows.
//
// # Usage
//
//	tracker := usage.NewTracker(storage.NewMemoryStore())
//	if err := tracker.TrackUsage(ctx, "user-1", "aiGenerations", 1); err != nil {
//	    return err
//	}
//	n, err := tracker.GetUsage(ctx, "user-1", "aiGenerations")
package usage
