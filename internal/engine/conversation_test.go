package engine

import (
	"context"
	"strings"
	"testing"

	"antirisk/internal/types"
)

func TestSendMessage_BlankIsNoOp(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})

	before := len(e.Messages())
	id, frags, err := e.SendMessage(context.Background(), "   \n\t ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" || frags != nil {
		t.Error("blank input must not start a stream")
	}
	if len(e.Messages()) != before {
		t.Error("blank input must not append messages")
	}
}

func TestSendMessage_AppendsPairAndStreams(t *testing.T) {
	t.Parallel()
	caps := &fakeCaps{streamFragments: []string{"A", "B", "C"}}
	e, st := newTestEngine(t, caps)

	before := len(e.Messages())
	id, frags, err := e.SendMessage(context.Background(), "gate status?")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	msgs := e.Messages()
	if len(msgs) != before+2 {
		t.Fatalf("expected exactly 2 appended messages, got %d", len(msgs)-before)
	}
	user := msgs[len(msgs)-2]
	placeholder := msgs[len(msgs)-1]
	if user.Role != types.RoleUser || user.Text != "gate status?" {
		t.Errorf("unexpected user message %+v", user)
	}
	if placeholder.ID != id || !placeholder.Pending() {
		t.Errorf("expected pending placeholder with returned id, got %+v", placeholder)
	}
	if !e.Streaming() || !e.Thinking() {
		t.Error("expected streaming and thinking flags set")
	}

	// Both messages must already be durable before any fragment lands.
	if got := st.LoadChat(); len(got) != len(msgs) {
		t.Errorf("expected pair persisted immediately, store has %d messages", len(got))
	}

	var b strings.Builder
	for fragment := range frags {
		e.ApplyFragment(id, fragment)
		b.WriteString(fragment)
	}
	e.EndStream(id)

	final := e.Messages()
	if len(final) != before+2 {
		t.Errorf("fragment application must not change message count, got %d", len(final))
	}
	if got := final[len(final)-1].Text; got != "ABC" {
		t.Errorf("expected accumulated text ABC, got %q", got)
	}
	if e.Streaming() || e.Thinking() {
		t.Error("expected flags cleared after EndStream")
	}
}

func TestSendMessage_WindowIsLastFourPriorMessages(t *testing.T) {
	t.Parallel()
	caps := &fakeCaps{}
	e, _ := newTestEngine(t, caps)

	// Grow the log well past the window size.
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		id, frags, err := e.SendMessage(context.Background(), text)
		if err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
		for range frags {
		}
		e.ApplyFragment(id, "ack "+text)
		e.EndStream(id)
	}

	prior := e.Messages()
	if _, frags, err := e.SendMessage(context.Background(), "six"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	} else {
		for range frags {
		}
	}

	if len(caps.lastWindow) != contextWindow {
		t.Fatalf("expected window of %d, got %d", contextWindow, len(caps.lastWindow))
	}
	want := prior[len(prior)-contextWindow:]
	for i, m := range caps.lastWindow {
		if m.ID != want[i].ID {
			t.Errorf("window[%d] = %q, want %q", i, m.Text, want[i].Text)
		}
	}
	if caps.lastMessage != "six" {
		t.Errorf("expected new message passed separately, got %q", caps.lastMessage)
	}
}

func TestSendMessage_PassesFullKnowledgeRegister(t *testing.T) {
	t.Parallel()
	caps := &fakeCaps{}
	e, _ := newTestEngine(t, caps)

	e.AddDocument("Patrol SOP", "walk the perimeter")
	e.AddDocument("Escalation", "call the supervisor")

	if _, frags, err := e.SendMessage(context.Background(), "advice?"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	} else {
		for range frags {
		}
	}

	if len(caps.lastGrounding) != 2 {
		t.Errorf("expected full register as grounding, got %d docs", len(caps.lastGrounding))
	}
}

func TestSendMessage_RejectedWhileStreaming(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})

	id, _, err := e.SendMessage(context.Background(), "first")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if _, _, err := e.SendMessage(context.Background(), "second"); err != ErrStreamInFlight {
		t.Errorf("expected ErrStreamInFlight, got %v", err)
	}

	e.EndStream(id)
	if _, _, err := e.SendMessage(context.Background(), "third"); err != nil {
		t.Errorf("expected send allowed after stream ends, got %v", err)
	}
}

func TestApplyFragment_UnknownIDDropped(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})

	before := e.Messages()
	e.ApplyFragment("no-such-id", "stray")
	after := e.Messages()

	if len(before) != len(after) {
		t.Fatal("stray fragment must not change the log")
	}
	for i := range before {
		if before[i].Text != after[i].Text {
			t.Errorf("message %d mutated by stray fragment", i)
		}
	}
}

func TestTogglePin_PersistsAndFlips(t *testing.T) {
	t.Parallel()
	e, st := newTestEngine(t, &fakeCaps{})

	msgs := e.Messages()
	target := msgs[0].ID

	e.TogglePin(target)
	if !e.Messages()[0].IsPinned {
		t.Error("expected message pinned")
	}
	if !st.LoadChat()[0].IsPinned {
		t.Error("expected pin persisted")
	}

	e.TogglePin(target)
	if e.Messages()[0].IsPinned {
		t.Error("expected pin cleared on second toggle")
	}

	e.TogglePin("no-such-id")
}
