package engine

import (
	"context"

	"go.uber.org/zap"

	"antirisk/internal/types"
)

// intelligenceIntervalMs is the recurring briefing cadence: 14 days, in the
// millisecond timestamps the tip records carry.
const intelligenceIntervalMs = 14 * 24 * 60 * 60 * 1000

// Briefing topic labels.
const (
	AutoBriefingTopic   = "Bi-Weekly Strategy Briefing"
	ManualBriefingTopic = "Intelligence Briefing"
)

// IntelligenceDue reports whether the 14-day cadence has elapsed since the
// newest briefing. An empty sequence is always due. The check is strict:
// exactly 14 days is not yet due.
func (e *Engine) IntelligenceDue() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dueLocked()
}

func (e *Engine) dueLocked() bool {
	if len(e.tips) == 0 {
		return true
	}
	return e.now().UnixMilli()-e.tips[0].Timestamp > intelligenceIntervalMs
}

// RunIntelligenceCycle performs the automatic due-check-and-synthesize pass
// that fires on unlock. When not due it returns (nil, nil) with no state
// change. When due it synthesizes a briefing, prepends it, and arms the
// dispatch overlay. Concurrent calls are collapsed into one flight so a
// double trigger cannot synthesize twice.
func (e *Engine) RunIntelligenceCycle(ctx context.Context) (*types.WeeklyTip, error) {
	v, err, _ := e.cycle.Do("intelligence", func() (interface{}, error) {
		e.mu.Lock()
		due := e.dueLocked()
		e.mu.Unlock()
		if !due {
			return (*types.WeeklyTip)(nil), nil
		}

		e.logger.Info("intelligence cycle due, synthesizing briefing")
		content, err := e.caps.GenerateBriefing(ctx, "")
		if err != nil {
			e.logger.Error("briefing synthesis failed", zap.Error(err))
			return (*types.WeeklyTip)(nil), err
		}

		tip := e.recordTip(AutoBriefingTopic, content, true)
		e.mu.Lock()
		e.pendingDispatch = &tip
		e.mu.Unlock()
		return &tip, nil
	})
	tip, _ := v.(*types.WeeklyTip)
	return tip, err
}

// GenerateBriefing is the on-demand path: no due-check, no dispatch
// overlay. topic may be empty, in which case the model picks the subject
// and the record carries the generic manual label.
func (e *Engine) GenerateBriefing(ctx context.Context, topic string) (*types.WeeklyTip, error) {
	content, err := e.caps.GenerateBriefing(ctx, topic)
	if err != nil {
		return nil, err
	}

	label := topic
	if label == "" {
		label = ManualBriefingTopic
	}
	tip := e.recordTip(label, content, false)
	return &tip, nil
}

// recordTip prepends and persists a new briefing.
func (e *Engine) recordTip(topic, content string, auto bool) types.WeeklyTip {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	tip := types.WeeklyTip{
		ID:              types.NewID(),
		Timestamp:       now.UnixMilli(),
		WeekDate:        types.DateLabel(now),
		Topic:           topic,
		Content:         content,
		IsAutoGenerated: auto,
	}
	e.tips = append([]types.WeeklyTip{tip}, e.tips...)
	if err := e.store.SaveTips(e.tips); err != nil {
		e.logger.Error("tips save failed", zap.Error(err))
	}
	return tip
}

// PendingDispatch returns the briefing awaiting a dispatch decision, or nil.
func (e *Engine) PendingDispatch() *types.WeeklyTip {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingDispatch == nil {
		return nil
	}
	tip := *e.pendingDispatch
	return &tip
}

// DismissDispatch clears the pending dispatch without sending anything.
func (e *Engine) DismissDispatch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingDispatch = nil
}
