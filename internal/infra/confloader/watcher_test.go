package confloader

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_NotifiesOnWatchedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "objhost.yaml")
	other := filepath.Join(dir, "other.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	var hits, foreign atomic.Int32
	w.OnChange(func(p string) {
		if filepath.Base(p) == "objhost.yaml" {
			hits.Add(1)
		} else {
			foreign.Add(1)
		}
	})
	w.StartAsync()

	if err := os.WriteFile(other, []byte("b: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("a: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hits.Load() == 0 {
		t.Fatal("no change notification for watched file")
	}
	if foreign.Load() != 0 {
		t.Errorf("got %d notifications for unwatched files", foreign.Load())
	}
}

func TestWatcher_WatchMissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Watch("/nonexistent/dir/objhost.yaml"); err == nil {
		t.Error("Watch() should fail for a missing directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Errorf("first Stop() = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() = %v", err)
	}
}
