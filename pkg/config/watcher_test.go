package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestFileWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, validConfigYAML)

	watcher, err := NewFileWatcher(path, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	reloaded := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, func() error {
			reloaded <- struct{}{}
			return nil
		})
	}()

	// Wait for watcher to start
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("limiter:\n  default:\n    limit: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(time.Second):
		t.Error("Reload not called after file modification")
	}
}

func TestFileWatcher_IgnoresSiblingFiles(t *testing.T) {
	path := writeConfig(t, validConfigYAML)

	watcher, err := NewFileWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = watcher.Watch(ctx, func() error {
			calls.Add(1)
			return nil
		})
	}()
	time.Sleep(100 * time.Millisecond)

	other := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(other, []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("Reload called %d times for an unrelated file, want 0", n)
	}
}

func TestFileWatcher_DoubleWatch(t *testing.T) {
	watcher, err := NewFileWatcher(writeConfig(t, validConfigYAML), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Watch(ctx, func() error { return nil }) }()
	time.Sleep(50 * time.Millisecond)

	if err := watcher.Watch(ctx, func() error { return nil }); err != ErrWatcherRunning {
		t.Errorf("Expected ErrWatcherRunning, got %v", err)
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	watcher, err := NewFileWatcher(writeConfig(t, validConfigYAML), 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- watcher.Watch(context.Background(), func() error { return nil }) }()
	time.Sleep(50 * time.Millisecond)

	if err := watcher.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected Watch to return nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after Stop")
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Expected second Stop to be a no-op, got %v", err)
	}
}

func TestFileWatcher_ShouldProcessEvent(t *testing.T) {
	watcher, err := NewFileWatcher(writeConfig(t, validConfigYAML), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = watcher.Stop() }()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to config", fsnotify.Event{Name: watcher.Path(), Op: fsnotify.Write}, true},
		{"create config", fsnotify.Event{Name: watcher.Path(), Op: fsnotify.Create}, true},
		{"chmod config", fsnotify.Event{Name: watcher.Path(), Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(filepath.Dir(watcher.Path()), "x.yaml"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := watcher.shouldProcessEvent(tt.event); got != tt.want {
			t.Errorf("%s: shouldProcessEvent() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDebouncer_Trigger(t *testing.T) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	defer debouncer.Stop()

	var callCount atomic.Int32
	callback := func() { callCount.Add(1) }

	for i := 0; i < 5; i++ {
		debouncer.Trigger(callback)
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("Callback called %d times, want 1", count)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	debouncer := NewDebouncer(100 * time.Millisecond)

	var callCount atomic.Int32
	debouncer.Trigger(func() { callCount.Add(1) })
	debouncer.Stop()
	debouncer.Trigger(func() { callCount.Add(1) })

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 0 {
		t.Errorf("Callback called %d times after Stop(), want 0", count)
	}
}
