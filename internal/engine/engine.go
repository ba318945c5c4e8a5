// Package engine implements the application core: the conversation engine,
// the report intelligence pipeline, the recurring intelligence scheduler,
// and the knowledge register. The engine owns every collection, guards them
// with one mutex, and writes each mutation through to the store immediately
// so a crash at any point loses at most the in-flight operation.
//
// The engine must only be constructed after the vault gate reports Ready.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"antirisk/internal/store"
	"antirisk/internal/types"
)

// Capabilities is the generation surface the engine depends on. The advisor
// service satisfies it; tests inject fakes.
type Capabilities interface {
	// AdvisorStream streams the advisory reply. The channel always closes;
	// failures arrive as a final in-band notice fragment.
	AdvisorStream(ctx context.Context, window []types.ChatMessage, message string, grounding []types.KnowledgeDocument) <-chan string
	// AnalyzeReport audits one report. ok=false means the returned text is
	// the fixed failure notice rather than a real analysis.
	AnalyzeReport(ctx context.Context, reportText string) (analysis string, ok bool)
	// SynthesizeInsights produces the cross-report briefing. Same ok
	// convention as AnalyzeReport.
	SynthesizeInsights(ctx context.Context, reports []types.StoredReport) (insights string, ok bool)
	// GenerateBriefing produces an intelligence briefing body for the
	// given topic (empty = model's choice).
	GenerateBriefing(ctx context.Context, topic string) (string, error)
}

// Engine is the application core.
type Engine struct {
	mu     sync.Mutex
	store  *store.Store
	caps   Capabilities
	logger *zap.Logger
	now    func() time.Time

	messages []types.ChatMessage
	reports  []types.StoredReport
	tips     []types.WeeklyTip
	docs     []types.KnowledgeDocument
	insights string
	profile  types.UserProfile

	streaming       bool
	thinking        bool
	pendingDispatch *types.WeeklyTip

	cycle singleflight.Group
}

// New loads all collections from the store and returns a ready engine.
func New(st *store.Store, caps Capabilities, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    st,
		caps:     caps,
		logger:   logger,
		now:      time.Now,
		messages: st.LoadChat(),
		reports:  st.LoadReports(),
		tips:     st.LoadTips(),
		docs:     st.LoadKnowledge(),
		insights: st.LoadInsights(),
		profile:  st.LoadProfile(),
	}
}

// Messages returns a copy of the conversation log.
func (e *Engine) Messages() []types.ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.ChatMessage, len(e.messages))
	copy(out, e.messages)
	return out
}

// Reports returns a copy of the report log, newest first.
func (e *Engine) Reports() []types.StoredReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.StoredReport, len(e.reports))
	copy(out, e.reports)
	return out
}

// Tips returns a copy of the briefing sequence, newest first.
func (e *Engine) Tips() []types.WeeklyTip {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.WeeklyTip, len(e.tips))
	copy(out, e.tips)
	return out
}

// Documents returns a copy of the knowledge register.
func (e *Engine) Documents() []types.KnowledgeDocument {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.KnowledgeDocument, len(e.docs))
	copy(out, e.docs)
	return out
}

// Insights returns the current operational insights blob.
func (e *Engine) Insights() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.insights
}

// Profile returns the current user profile.
func (e *Engine) Profile() types.UserProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// UpdateProfile replaces and persists the user profile.
func (e *Engine) UpdateProfile(p types.UserProfile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = p
	if err := e.store.SaveProfile(p); err != nil {
		e.logger.Error("profile save failed", zap.Error(err))
	}
}

// persistChat writes the conversation log through. Caller holds the mutex.
func (e *Engine) persistChat() {
	if err := e.store.SaveChat(e.messages); err != nil {
		e.logger.Error("chat save failed", zap.Error(err))
	}
}
