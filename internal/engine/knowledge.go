package engine

import (
	"strings"

	"go.uber.org/zap"

	"antirisk/internal/types"
)

// AddDocument registers a reference document for advisory grounding. Blank
// title or content is a no-op returning nil.
func (e *Engine) AddDocument(title, content string) *types.KnowledgeDocument {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc := types.KnowledgeDocument{
		ID:        types.NewID(),
		Title:     title,
		Content:   content,
		DateAdded: types.DateLabel(e.now()),
	}
	e.docs = append([]types.KnowledgeDocument{doc}, e.docs...)
	if err := e.store.SaveKnowledge(e.docs); err != nil {
		e.logger.Error("knowledge save failed", zap.Error(err))
	}
	e.logger.Info("knowledge document added",
		zap.String("id", doc.ID),
		zap.String("title", doc.Title),
		zap.Int("bytes", len(doc.Content)))
	return &doc
}

// RemoveDocument deletes a document by id. Removing an unknown id leaves
// the register unchanged.
func (e *Engine) RemoveDocument(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.docs[:0]
	removed := false
	for _, doc := range e.docs {
		if doc.ID == id {
			removed = true
			continue
		}
		kept = append(kept, doc)
	}
	if !removed {
		return
	}
	e.docs = kept
	if err := e.store.SaveKnowledge(e.docs); err != nil {
		e.logger.Error("knowledge save failed", zap.Error(err))
	}
}
