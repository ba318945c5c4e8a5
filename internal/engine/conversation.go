package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"antirisk/internal/types"
)

// contextWindow is how many trailing messages accompany each advisory call.
const contextWindow = 4

// ErrStreamInFlight is returned when a message is sent while a previous
// response is still streaming. The UI disables input during a stream; this
// guard makes the discipline enforceable rather than conventional.
var ErrStreamInFlight = errors.New("a response is still streaming")

// SendMessage appends the user message and an empty model placeholder, then
// starts the streamed advisory call. It returns the placeholder id and the
// fragment channel; the caller feeds each fragment back via ApplyFragment
// and calls EndStream when the channel closes.
//
// Blank input is a no-op: nothing is appended and the returned channel is
// nil.
func (e *Engine) SendMessage(ctx context.Context, text string) (string, <-chan string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil, nil
	}

	e.mu.Lock()
	if e.streaming {
		e.mu.Unlock()
		return "", nil, ErrStreamInFlight
	}

	// Context captured before the new message so the model sees the
	// conversation as it stood when the user typed.
	window := e.messages
	if len(window) > contextWindow {
		window = window[len(window)-contextWindow:]
	}
	windowCopy := make([]types.ChatMessage, len(window))
	copy(windowCopy, window)

	grounding := make([]types.KnowledgeDocument, len(e.docs))
	copy(grounding, e.docs)

	now := e.now().UnixMilli()
	userMsg := types.ChatMessage{
		ID:        types.NewID(),
		Role:      types.RoleUser,
		Text:      text,
		Timestamp: now,
	}
	placeholder := types.ChatMessage{
		ID:        types.NewID(),
		Role:      types.RoleModel,
		Timestamp: now,
	}
	e.messages = append(e.messages, userMsg, placeholder)
	e.streaming = true
	e.thinking = true
	e.persistChat()
	e.mu.Unlock()

	e.logger.Debug("advisory message sent",
		zap.String("placeholder_id", placeholder.ID),
		zap.Int("window", len(windowCopy)),
		zap.Int("grounding_docs", len(grounding)))

	frags := e.caps.AdvisorStream(ctx, windowCopy, text, grounding)
	return placeholder.ID, frags, nil
}

// ApplyFragment appends one streamed fragment to the message with the given
// id and persists the updated log. Fragments addressed to an unknown id are
// dropped; applying the same ordered fragment sequence always yields the
// same log, and never changes the message count.
func (e *Engine) ApplyFragment(id, fragment string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.messages {
		if e.messages[i].ID != id {
			continue
		}
		e.messages[i].Text += fragment
		e.thinking = false
		e.persistChat()
		return
	}
	e.logger.Warn("fragment for unknown message dropped", zap.String("id", id))
}

// EndStream marks the stream finished. A placeholder that never received a
// fragment is left empty; the store keeps it and the UI renders it as an
// interrupted response.
func (e *Engine) EndStream(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.streaming = false
	e.thinking = false
	e.persistChat()
}

// Streaming reports whether a response is currently in flight.
func (e *Engine) Streaming() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streaming
}

// Thinking reports whether the placeholder is still awaiting its first
// fragment.
func (e *Engine) Thinking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thinking
}

// TogglePin flips the pinned flag on a message. Unknown ids are a no-op.
func (e *Engine) TogglePin(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.messages {
		if e.messages[i].ID == id {
			e.messages[i].IsPinned = !e.messages[i].IsPinned
			e.persistChat()
			return
		}
	}
}
