// Package types provides shared type definitions used across antirisk packages.
// This package exists to break import cycles between the engine, store, and
// advisor layers. Types here are foundational data structures with no complex
// dependencies.
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one entry in the advisor conversation log.
//
// The log is append-only with a single permitted in-place mutation: the text
// of the most recently appended model message may grow while a response is
// streaming in. An empty text on a model message means "response pending".
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	IsPinned  bool   `json:"isPinned,omitempty"`
}

// Pending reports whether this is a model message still waiting for its
// first streamed fragment.
func (m ChatMessage) Pending() bool {
	return m.Role == RoleModel && m.Text == ""
}

// StoredReport is a completed operational log audit. Reports are created
// only by the report pipeline, prepended newest-first, and never mutated.
type StoredReport struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	DateStr   string `json:"dateStr"`
	Content   string `json:"content"`
	Analysis  string `json:"analysis"`
}

// WeeklyTip is a generated intelligence briefing. The tip sequence is kept
// sorted descending by timestamp; the scheduler's due-check reads only the
// first element.
type WeeklyTip struct {
	ID              string `json:"id"`
	Timestamp       int64  `json:"timestamp"`
	WeekDate        string `json:"weekDate"`
	Topic           string `json:"topic"`
	Content         string `json:"content"`
	IsAutoGenerated bool   `json:"isAutoGenerated"`
}

// KnowledgeDocument is a reference document supplied to the advisor as
// grounding context.
type KnowledgeDocument struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	DateAdded string `json:"dateAdded"`
}

// UserProfile holds the executive's dispatch credentials. Singleton,
// mutated via settings.
type UserProfile struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

// Source is a grounding citation returned by the best-practices capability.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SecurityRole is a training module audience.
type SecurityRole string

const (
	RoleGuard         SecurityRole = "Field Guard Force"
	RoleSupervisor    SecurityRole = "Site Supervisor"
	RoleGenSupervisor SecurityRole = "General Supervisor"
)

// NewID returns a fresh unique identifier for engine-owned records.
func NewID() string {
	return uuid.NewString()
}

// DateLabel formats a timestamp the way the UI and dispatch text expect
// (a short human-readable day label).
func DateLabel(t time.Time) string {
	return t.Format("1/2/2006")
}

// NormalizePhone strips everything but digits from a WhatsApp number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
