package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T, clock *fakeClock) Store {
	store, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		Path:  filepath.Join(t.TempDir(), "usage.db"),
		Clock: clock.Now,
	})
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	runStoreSuite(t, newTestSQLiteStore)
}

func TestSQLiteStore_Expiry(t *testing.T) {
	runExpirySuite(t, newTestSQLiteStore)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	if _, err := store.Increment(ctx, "usage:user-1:aiGenerations", 7, 0); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer reopened.Close()

	v, err := reopened.Get(ctx, "usage:user-1:aiGenerations")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != 7 {
		t.Errorf("Expected 7 after reopen, got %d", v)
	}
}

func TestSQLiteStore_InvalidConfig(t *testing.T) {
	if _, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{}); err == nil {
		t.Error("Expected error for empty path")
	}
	if _, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		Path:   filepath.Join(t.TempDir(), "usage.db"),
		Driver: "postgres",
	}); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	store := newTestSQLiteStore(t, newFakeClock()).(*SQLiteStore)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
