// Package storage provides counter stores for usage tracking.
//
// # Overview
//
// A Store is a map of string keys to int64 counters with optional expiry.
// Three implementations are provided:
//
//   - MemoryStore: sharded in-process maps (default, no persistence)
//   - SQLiteStore: file-backed counters that survive restarts
//   - RedisStore: counters shared by every instance pointing at one Redis
//
// A key that was never written, or whose expiry has passed, reads as 0.
//
// # Usage
//
//	store := storage.NewMemoryStore()
//	defer store.Close()
//
//	n, err := store.Increment(ctx, "usage:user-1:aiGenerations:2025-01", 1, 0)
//
// # Thread Safety
//
// All stores are safe for concurrent use. Increment is atomic per key: two
// concurrent increments of the same key never lose an update.
package storage
