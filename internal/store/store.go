// Package store implements the local persistent store backing the antirisk
// engine. State is held in SQLite as named slices: each slice is one row in
// the slices table holding a JSON document, written wholesale on every
// engine mutation. WAL mode makes each save atomic; there is no transactional
// grouping across slices.
//
// The store is a pure load/save primitive. It never validates or re-derives
// engine data; absent or malformed rows fall back to a documented default.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"antirisk/internal/types"
)

// Slice keys. One row per key.
const (
	keyVaultPIN  = "vault_pin"
	keyProfile   = "profile"
	keyChat      = "chat"
	keyReports   = "reports"
	keyTips      = "weekly_tips"
	keyKnowledge = "knowledge_base"
	keyInsights  = "insights"
)

// WelcomeText is the default first chat message on a fresh install.
const WelcomeText = "Welcome, Director. I am the AntiRisk Strategy Unit. " +
	"Our protocols are currently aligned with ISO 18788 and Nigerian private " +
	"security regulations. How can I assist with your operational oversight today?"

// Store is the SQLite-backed slice store.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// Open initializes the database at path, creating the directory and schema
// as needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("store initialized", zap.String("path", path))
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slices (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// load unmarshals the slice at key into v. Returns false when the key is
// absent. A malformed row is treated as absent (the caller substitutes the
// default) and logged — never fatal.
func (s *Store) load(key string, v interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.db.QueryRow("SELECT value FROM slices WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		s.logger.Warn("slice load failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.logger.Warn("slice malformed, using default", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// save writes the slice at key wholesale. One INSERT OR REPLACE per call.
func (s *Store) save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal slice %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO slices (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		key, string(data))
	if err != nil {
		return fmt.Errorf("failed to save slice %s: %w", key, err)
	}
	return nil
}

// LoadPIN returns the stored vault secret, or ok=false on first run.
func (s *Store) LoadPIN() (pin string, ok bool) {
	ok = s.load(keyVaultPIN, &pin)
	return pin, ok && pin != ""
}

// SavePIN persists the vault secret. Written once during provisioning;
// there is no rotation path.
func (s *Store) SavePIN(pin string) error {
	return s.save(keyVaultPIN, pin)
}

// LoadProfile returns the user profile, defaulting to the placeholder
// executive profile.
func (s *Store) LoadProfile() types.UserProfile {
	p := types.UserProfile{Name: "Executive Director"}
	s.load(keyProfile, &p)
	return p
}

// SaveProfile persists the user profile.
func (s *Store) SaveProfile(p types.UserProfile) error {
	return s.save(keyProfile, p)
}

// LoadChat returns the conversation log, defaulting to the fixed welcome
// message on first run.
func (s *Store) LoadChat() []types.ChatMessage {
	var msgs []types.ChatMessage
	if s.load(keyChat, &msgs) && len(msgs) > 0 {
		return msgs
	}
	return []types.ChatMessage{{
		ID:        "welcome",
		Role:      types.RoleModel,
		Text:      WelcomeText,
		Timestamp: 0,
	}}
}

// SaveChat persists the conversation log.
func (s *Store) SaveChat(msgs []types.ChatMessage) error {
	return s.save(keyChat, msgs)
}

// LoadReports returns the stored report log, newest first. Defaults empty.
func (s *Store) LoadReports() []types.StoredReport {
	var reports []types.StoredReport
	s.load(keyReports, &reports)
	return reports
}

// SaveReports persists the report log.
func (s *Store) SaveReports(reports []types.StoredReport) error {
	return s.save(keyReports, reports)
}

// LoadTips returns the intelligence briefing sequence, newest first.
// Defaults empty.
func (s *Store) LoadTips() []types.WeeklyTip {
	var tips []types.WeeklyTip
	s.load(keyTips, &tips)
	return tips
}

// SaveTips persists the briefing sequence.
func (s *Store) SaveTips(tips []types.WeeklyTip) error {
	return s.save(keyTips, tips)
}

// LoadKnowledge returns the knowledge register. Defaults empty.
func (s *Store) LoadKnowledge() []types.KnowledgeDocument {
	var docs []types.KnowledgeDocument
	s.load(keyKnowledge, &docs)
	return docs
}

// SaveKnowledge persists the knowledge register.
func (s *Store) SaveKnowledge(docs []types.KnowledgeDocument) error {
	return s.save(keyKnowledge, docs)
}

// LoadInsights returns the operational insights blob. Defaults empty.
func (s *Store) LoadInsights() string {
	var insights string
	s.load(keyInsights, &insights)
	return insights
}

// SaveInsights overwrites the operational insights blob.
func (s *Store) SaveInsights(insights string) error {
	return s.save(keyInsights, insights)
}

// Stats returns per-slice element counts for the status command.
func (s *Store) Stats() map[string]int {
	return map[string]int{
		"chat":      len(s.LoadChat()),
		"reports":   len(s.LoadReports()),
		"tips":      len(s.LoadTips()),
		"knowledge": len(s.LoadKnowledge()),
	}
}
