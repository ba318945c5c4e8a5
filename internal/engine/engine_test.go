package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"antirisk/internal/store"
	"antirisk/internal/types"
)

// fakeCaps is a scriptable Capabilities implementation.
type fakeCaps struct {
	mu sync.Mutex

	streamFragments []string
	streamCalls     int
	lastWindow      []types.ChatMessage
	lastGrounding   []types.KnowledgeDocument
	lastMessage     string

	analysis   string
	analysisOK bool

	insights      string
	insightsOK    bool
	insightsCalls int

	briefing      string
	briefingErr   error
	briefingCalls int
	briefingGate  chan struct{}
	lastTopic     string
}

func (f *fakeCaps) AdvisorStream(ctx context.Context, window []types.ChatMessage, message string, grounding []types.KnowledgeDocument) <-chan string {
	f.mu.Lock()
	f.streamCalls++
	f.lastWindow = window
	f.lastGrounding = grounding
	f.lastMessage = message
	fragments := f.streamFragments
	f.mu.Unlock()

	out := make(chan string, len(fragments))
	for _, fragment := range fragments {
		out <- fragment
	}
	close(out)
	return out
}

func (f *fakeCaps) AnalyzeReport(ctx context.Context, reportText string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analysis, f.analysisOK
}

func (f *fakeCaps) SynthesizeInsights(ctx context.Context, reports []types.StoredReport) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insightsCalls++
	return f.insights, f.insightsOK
}

func (f *fakeCaps) GenerateBriefing(ctx context.Context, topic string) (string, error) {
	f.mu.Lock()
	f.briefingCalls++
	f.lastTopic = topic
	gate := f.briefingGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.briefing, f.briefingErr
}

func (f *fakeCaps) calls() (stream, insights, briefing int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamCalls, f.insightsCalls, f.briefingCalls
}

func newTestEngine(t *testing.T, caps *fakeCaps) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "antirisk.db"), nil)
	if err != nil {
		t.Fatalf("store open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, caps, nil), st
}

// setClock pins the engine clock to a fixed instant.
func setClock(e *Engine, at time.Time) {
	e.now = func() time.Time { return at }
}

func TestNew_LoadsPersistedCollections(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "antirisk.db")

	st, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("store open failed: %v", err)
	}
	if err := st.SaveReports([]types.StoredReport{{ID: "r1", Content: "breach"}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	st.Close()

	st2, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st2.Close()

	e := New(st2, &fakeCaps{}, nil)
	reports := e.Reports()
	if len(reports) != 1 || reports[0].ID != "r1" {
		t.Errorf("expected seeded report loaded, got %v", reports)
	}
	msgs := e.Messages()
	if len(msgs) != 1 || msgs[0].ID != "welcome" {
		t.Errorf("expected welcome message on fresh log, got %v", msgs)
	}
}

func TestUpdateProfile_Persists(t *testing.T) {
	t.Parallel()
	e, st := newTestEngine(t, &fakeCaps{})

	e.UpdateProfile(types.UserProfile{Name: "Director", PhoneNumber: "+234 801", Email: "ceo@antirisk.test"})

	if got := e.Profile().PhoneNumber; got != "+234 801" {
		t.Errorf("expected profile updated, got %q", got)
	}
	if got := st.LoadProfile().Email; got != "ceo@antirisk.test" {
		t.Errorf("expected profile persisted, got %q", got)
	}
}
