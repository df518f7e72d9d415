package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte{9, 9, 9}, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case op := <-w.Events():
		if op&(fsnotify.Write|fsnotify.Create) == 0 {
			t.Fatalf("expected a write-ish op, got %v", op)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the write event")
	}
}

func TestIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.bin"), []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case op, ok := <-w.Events():
		if ok {
			t.Fatalf("unexpected event %v for a sibling file", op)
		}
	case <-time.After(500 * time.Millisecond):
		// No event is the expected outcome.
	}
}

func TestCloseEndsEventStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatal("expected the event channel to close")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
