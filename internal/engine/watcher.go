package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// InboxWatcher ingests reference documents dropped into the inbox directory
// while the application is unlocked. A .md or .txt file created or written
// there becomes a knowledge document titled after the file stem.
type InboxWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	engine   *Engine
	inboxDir string
	logger   *zap.Logger

	// pending debounces rapid write bursts from editors that save in
	// multiple syscalls.
	pending     map[string]time.Time
	debounceDur time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewInboxWatcher builds a watcher over inboxDir. The directory is created
// on Start if missing.
func NewInboxWatcher(inboxDir string, eng *Engine, logger *zap.Logger) (*InboxWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &InboxWatcher{
		watcher:     watcher,
		engine:      eng,
		inboxDir:    inboxDir,
		logger:      logger,
		pending:     make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine
// until Stop or context cancellation.
func (w *InboxWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.inboxDir, 0755); err != nil {
		w.logger.Warn("inbox dir create failed", zap.String("dir", w.inboxDir), zap.Error(err))
	}
	if err := w.watcher.Add(w.inboxDir); err != nil {
		w.logger.Warn("inbox watch failed", zap.String("dir", w.inboxDir), zap.Error(err))
	} else {
		w.logger.Info("watching knowledge inbox", zap.String("dir", w.inboxDir))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *InboxWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("inbox watcher close failed", zap.Error(err))
	}
}

func (w *InboxWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watcher error", zap.Error(err))
		case <-ticker.C:
			w.ingestSettled()
		}
	}
}

func (w *InboxWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	if ext != ".md" && ext != ".txt" {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// ingestSettled imports every pending file whose last event is older than
// the debounce window.
func (w *InboxWatcher) ingestSettled() {
	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if time.Since(last) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.ingest(path)
	}
}

func (w *InboxWatcher) ingest(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("inbox read failed", zap.String("path", path), zap.Error(err))
		return
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := w.engine.AddDocument(title, string(data))
	if doc == nil {
		w.logger.Warn("inbox file skipped (empty)", zap.String("path", path))
		return
	}
	w.logger.Info("inbox document ingested",
		zap.String("path", path),
		zap.String("doc_id", doc.ID))
}
