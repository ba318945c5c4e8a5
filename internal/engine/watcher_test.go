package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
)

// The ingest path is tested directly rather than through live filesystem
// events, which are too timing-dependent for CI.

func newTestWatcher(t *testing.T, e *Engine) *InboxWatcher {
	t.Helper()
	w, err := NewInboxWatcher(t.TempDir(), e, nil)
	if err != nil {
		t.Fatalf("watcher create failed: %v", err)
	}
	t.Cleanup(func() { w.watcher.Close() })
	w.debounceDur = 0
	return w
}

func TestInboxWatcher_IngestsMarkdownFile(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})
	w := newTestWatcher(t, e)

	path := filepath.Join(w.inboxDir, "patrol-sop.md")
	if err := os.WriteFile(path, []byte("walk the perimeter"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.ingestSettled()

	docs := e.Documents()
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Title != "patrol-sop" {
		t.Errorf("expected file stem as title, got %q", docs[0].Title)
	}
	if docs[0].Content != "walk the perimeter" {
		t.Errorf("unexpected content %q", docs[0].Content)
	}
}

func TestInboxWatcher_IgnoresOtherExtensions(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})
	w := newTestWatcher(t, e)

	path := filepath.Join(w.inboxDir, "photo.png")
	if err := os.WriteFile(path, []byte{0x89}, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.ingestSettled()

	if len(e.Documents()) != 0 {
		t.Error("non-text files must be ignored")
	}
}

func TestInboxWatcher_DebouncesWriteBursts(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})
	w := newTestWatcher(t, e)

	path := filepath.Join(w.inboxDir, "notes.txt")
	if err := os.WriteFile(path, []byte("final contents"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Multiple events for the same file collapse to one ingest.
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.ingestSettled()

	if got := len(e.Documents()); got != 1 {
		t.Errorf("expected single ingest after burst, got %d", got)
	}
}
