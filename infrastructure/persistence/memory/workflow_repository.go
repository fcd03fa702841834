package memory

import (
	"context"
	"sort"
	"sync"

	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/valueobjects"
	pkgerrors "workflowstudio/pkg/errors"
)

// WorkflowRepository keeps saved workflow documents in process memory
type WorkflowRepository struct {
	mu   sync.RWMutex
	docs map[string]aggregates.Document
}

// NewWorkflowRepository creates an empty repository
func NewWorkflowRepository() *WorkflowRepository {
	return &WorkflowRepository{
		docs: make(map[string]aggregates.Document),
	}
}

// Save stores a copy of doc, replacing any previous save
func (r *WorkflowRepository) Save(ctx context.Context, doc aggregates.Document) error {
	if doc.ID == "" {
		return pkgerrors.NewValidationError("workflow id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// GetByID returns a copy of the saved document
func (r *WorkflowRepository) GetByID(ctx context.Context, id valueobjects.WorkflowID) (aggregates.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.docs[id.String()]
	if !exists {
		return aggregates.Document{}, pkgerrors.NewWorkflowNotFoundError(id.String())
	}
	return cloneDocument(doc), nil
}

// List summarizes every saved document, most recently updated first
func (r *WorkflowRepository) List(ctx context.Context) ([]aggregates.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]aggregates.Summary, 0, len(r.docs))
	for _, doc := range r.docs {
		summary := doc.Summarize()
		summary.Saved = true
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Delete removes a saved document
func (r *WorkflowRepository) Delete(ctx context.Context, id valueobjects.WorkflowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[id.String()]; !exists {
		return pkgerrors.NewWorkflowNotFoundError(id.String())
	}
	delete(r.docs, id.String())
	return nil
}

func cloneDocument(doc aggregates.Document) aggregates.Document {
	out := doc
	out.Nodes = make([]entities.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		out.Nodes[i] = n.Clone()
	}
	out.Edges = make([]entities.Edge, len(doc.Edges))
	for i, e := range doc.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}
