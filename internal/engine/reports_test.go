package engine

import (
	"context"
	"testing"
	"time"
)

func TestAnalyzeReport_BlankRecordsNothing(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{analysis: "unused", analysisOK: true})

	report, ok := e.AnalyzeReport(context.Background(), "   ")
	if ok || report.ID != "" {
		t.Error("blank report must be a no-op")
	}
	if len(e.Reports()) != 0 {
		t.Error("blank report must not be recorded")
	}
}

func TestAnalyzeReport_RecordsNewestFirst(t *testing.T) {
	t.Parallel()
	e, st := newTestEngine(t, &fakeCaps{analysis: "- no violations", analysisOK: true})
	setClock(e, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC))

	first, ok := e.AnalyzeReport(context.Background(), "shift handover log")
	if !ok {
		t.Fatal("expected successful audit")
	}
	if first.Analysis != "- no violations" {
		t.Errorf("unexpected analysis %q", first.Analysis)
	}
	if first.DateStr != "3/9/2026" {
		t.Errorf("unexpected date label %q", first.DateStr)
	}

	second, _ := e.AnalyzeReport(context.Background(), "night patrol log")

	reports := e.Reports()
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].ID != second.ID || reports[1].ID != first.ID {
		t.Error("expected newest report first")
	}
	if got := st.LoadReports(); len(got) != 2 {
		t.Errorf("expected reports persisted, store has %d", len(got))
	}
}

func TestAnalyzeReport_FailureStillRecorded(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{analysis: "Error: Audit engine timeout.", analysisOK: false})

	report, ok := e.AnalyzeReport(context.Background(), "incident at gate 2")
	if ok {
		t.Error("expected ok=false on audit failure")
	}
	if report.ID == "" {
		t.Fatal("failed audit must still record the report")
	}

	reports := e.Reports()
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if reports[0].Content != "incident at gate 2" {
		t.Errorf("report content must survive the failure, got %q", reports[0].Content)
	}
	if reports[0].Analysis != "Error: Audit engine timeout." {
		t.Errorf("expected failure notice as analysis, got %q", reports[0].Analysis)
	}
}

func TestGenerateInsights_RequiresTwoReports(t *testing.T) {
	t.Parallel()
	caps := &fakeCaps{insights: "unused", insightsOK: true}
	e, _ := newTestEngine(t, caps)

	if err := e.GenerateInsights(context.Background()); err != ErrInsufficientReports {
		t.Errorf("expected ErrInsufficientReports with 0 reports, got %v", err)
	}

	e.AnalyzeReport(context.Background(), "only one report")
	if err := e.GenerateInsights(context.Background()); err != ErrInsufficientReports {
		t.Errorf("expected ErrInsufficientReports with 1 report, got %v", err)
	}

	if _, calls, _ := caps.calls(); calls != 0 {
		t.Errorf("capability must not be called below the floor, got %d calls", calls)
	}
	if e.Insights() != "" {
		t.Error("insights blob must be untouched")
	}
}

func TestGenerateInsights_OverwritesBlob(t *testing.T) {
	t.Parallel()
	caps := &fakeCaps{analysisOK: true, insights: "first synthesis", insightsOK: true}
	e, st := newTestEngine(t, caps)

	e.AnalyzeReport(context.Background(), "report one")
	e.AnalyzeReport(context.Background(), "report two")

	if err := e.GenerateInsights(context.Background()); err != nil {
		t.Fatalf("GenerateInsights failed: %v", err)
	}
	if e.Insights() != "first synthesis" {
		t.Errorf("unexpected insights %q", e.Insights())
	}

	caps.mu.Lock()
	caps.insights = "second synthesis"
	caps.mu.Unlock()

	if err := e.GenerateInsights(context.Background()); err != nil {
		t.Fatalf("GenerateInsights failed: %v", err)
	}
	if e.Insights() != "second synthesis" {
		t.Error("expected wholesale overwrite of the blob")
	}
	if st.LoadInsights() != "second synthesis" {
		t.Error("expected overwrite persisted")
	}
}

func TestGenerateInsights_FailureTextStored(t *testing.T) {
	t.Parallel()
	caps := &fakeCaps{analysisOK: true, insights: "Error: Strategic engine timeout.", insightsOK: false}
	e, _ := newTestEngine(t, caps)

	e.AnalyzeReport(context.Background(), "report one")
	e.AnalyzeReport(context.Background(), "report two")

	if err := e.GenerateInsights(context.Background()); err != nil {
		t.Fatalf("GenerateInsights failed: %v", err)
	}
	if e.Insights() != "Error: Strategic engine timeout." {
		t.Errorf("failed synthesis must still land in the blob, got %q", e.Insights())
	}
}
