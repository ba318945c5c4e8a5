// Package logging provides the shared zap logger for antirisk.
// Logs are written to a file under the data dir rather than stdout so the
// interactive TUI is never corrupted by log lines. When logging is not
// initialized every accessor returns a no-op logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the file-backed logger. Safe to call once at startup; callers
// holding a logger from L() before Init see the no-op logger.
func Init(dir string, debug bool) error {
	if dir == "" {
		return fmt.Errorf("log directory required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, "antirisk.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// L returns the process logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Named returns a child logger for a subsystem (store, engine, advisor...).
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = L().Sync()
}
