package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"antirisk/internal/types"
)

// minReportsForInsights is the floor below which cross-report synthesis is
// refused outright.
const minReportsForInsights = 2

// ErrInsufficientReports is returned by GenerateInsights when fewer than two
// reports exist. No capability call is made in that case.
var ErrInsufficientReports = errors.New("at least 2 reports are required for operational pattern detection")

// AnalyzeReport audits one operational log and records the result. The
// report is recorded even when the audit capability fails; the analysis
// field then holds the fixed failure notice and ok is false so the caller
// can flag the entry. Blank input records nothing and returns a zero
// report.
func (e *Engine) AnalyzeReport(ctx context.Context, text string) (types.StoredReport, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.StoredReport{}, false
	}

	analysis, ok := e.caps.AnalyzeReport(ctx, text)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	report := types.StoredReport{
		ID:        types.NewID(),
		Timestamp: now.UnixMilli(),
		DateStr:   types.DateLabel(now),
		Content:   text,
		Analysis:  analysis,
	}
	e.reports = append([]types.StoredReport{report}, e.reports...)
	if err := e.store.SaveReports(e.reports); err != nil {
		e.logger.Error("report save failed", zap.Error(err))
	}

	e.logger.Info("report recorded",
		zap.String("id", report.ID),
		zap.Bool("audit_ok", ok))
	return report, ok
}

// GenerateInsights replaces the operational insights blob with a fresh
// cross-report synthesis. With fewer than two reports it returns
// ErrInsufficientReports and leaves the blob untouched. A failed synthesis
// still overwrites the blob with the fixed notice text, so the tips page
// always shows the outcome of the last run.
func (e *Engine) GenerateInsights(ctx context.Context) error {
	e.mu.Lock()
	if len(e.reports) < minReportsForInsights {
		e.mu.Unlock()
		return ErrInsufficientReports
	}
	reports := make([]types.StoredReport, len(e.reports))
	copy(reports, e.reports)
	e.mu.Unlock()

	insights, ok := e.caps.SynthesizeInsights(ctx, reports)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.insights = insights
	if err := e.store.SaveInsights(insights); err != nil {
		e.logger.Error("insights save failed", zap.Error(err))
	}
	if !ok {
		e.logger.Warn("insight synthesis degraded to failure notice")
	}
	return nil
}
