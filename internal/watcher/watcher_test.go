package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan string, d time.Duration) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(d):
		t.Fatal("timed out waiting for change")
	}
	return ""
}

func TestFileWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "today.md")
	if err := os.WriteFile(path, []byte("- [ ] A\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 8)
	w := New(path, func(p string) { changes <- p }, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("- [ ] A @09:00\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := waitFor(t, changes, 2*time.Second); got != path {
		t.Errorf("changed path = %q, want %q", got, path)
	}
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "today.md")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := New(path, func(string) { calls.Add(1) }, WithDebounce(10*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("sibling write triggered %d changes", n)
	}
}

func TestFileWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "today.md")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w := New(path, func(string) { calls.Add(1) }, WithDebounce(200*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(600 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("burst produced %d changes, want 1", n)
	}
}

func TestFileWatcher_FollowsRenameSaves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "today.md")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 8)
	w := New(path, func(p string) { changes <- p }, WithDebounce(20*time.Millisecond))
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, ".today.md.swp")
	if err := os.WriteFile(tmp, []byte("- [ ] B\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changes, 2*time.Second)
}

func TestFileWatcher_StartTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "today.md")
	w := New(path, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start err = %v", err)
	}
	if !w.Running() {
		t.Error("Running() = false")
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	w := New("/definitely/not/here/today.md", nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for a missing directory")
	}
	if w.Running() {
		t.Error("watcher should not be running after a failed Start")
	}
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "x.md"), nil)
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
	if w.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestNewFromConfig(t *testing.T) {
	if w := NewFromConfig(ConfigValues{Enabled: false}, "x", nil, nil); w != nil {
		t.Error("disabled config should return nil")
	}

	w := NewFromConfig(ConfigValues{Enabled: true, DebounceMs: 400}, "/tmp/x.md", nil, nil)
	if w == nil {
		t.Fatal("expected a watcher")
	}
	if w.debounce != 400*time.Millisecond {
		t.Errorf("debounce = %v", w.debounce)
	}
	if w.Path() != "/tmp/x.md" {
		t.Errorf("Path() = %q", w.Path())
	}
}
