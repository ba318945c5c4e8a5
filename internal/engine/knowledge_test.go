package engine

import (
	"testing"
)

func TestAddDocument_BlankIsNoOp(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})

	if doc := e.AddDocument("  ", "content"); doc != nil {
		t.Error("blank title must be rejected")
	}
	if doc := e.AddDocument("title", "   "); doc != nil {
		t.Error("blank content must be rejected")
	}
	if len(e.Documents()) != 0 {
		t.Error("register must stay empty")
	}
}

func TestAddDocument_Persists(t *testing.T) {
	t.Parallel()
	e, st := newTestEngine(t, &fakeCaps{})

	doc := e.AddDocument("Patrol SOP", "walk the perimeter hourly")
	if doc == nil {
		t.Fatal("expected document added")
	}
	if doc.ID == "" || doc.DateAdded == "" {
		t.Errorf("expected id and date assigned, got %+v", doc)
	}

	docs := st.LoadKnowledge()
	if len(docs) != 1 || docs[0].Title != "Patrol SOP" {
		t.Errorf("expected document persisted, got %v", docs)
	}
}

func TestAddDocument_NewestFirst(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, &fakeCaps{})

	e.AddDocument("A", "alpha")
	e.AddDocument("B", "bravo")

	docs := e.Documents()
	if len(docs) != 2 || docs[0].Title != "B" || docs[1].Title != "A" {
		t.Errorf("expected newest document first, got %v", docs)
	}
}

func TestRemoveDocument_Idempotent(t *testing.T) {
	t.Parallel()
	e, st := newTestEngine(t, &fakeCaps{})

	a := e.AddDocument("A", "alpha")
	b := e.AddDocument("B", "bravo")

	// Removing an unknown id changes nothing.
	e.RemoveDocument("no-such-id")
	if len(e.Documents()) != 2 {
		t.Fatal("unknown id removal must leave the register unchanged")
	}

	e.RemoveDocument(a.ID)
	docs := e.Documents()
	if len(docs) != 1 || docs[0].ID != b.ID {
		t.Errorf("expected only document B left, got %v", docs)
	}

	// Removing the same id again is a no-op.
	e.RemoveDocument(a.ID)
	if len(e.Documents()) != 1 {
		t.Error("repeated removal must be a no-op")
	}

	if got := st.LoadKnowledge(); len(got) != 1 {
		t.Errorf("expected removal persisted, store has %d", len(got))
	}
}
