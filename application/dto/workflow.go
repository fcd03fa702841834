package dto

import (
	"time"

	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/entities"
)

// WorkflowView is the full state of an open workflow as the canvas reads it
type WorkflowView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
	Nodes     []entities.Node `json:"nodes"`
	Edges     []entities.Edge `json:"edges"`
}

// NewWorkflowView copies the current state of w
func NewWorkflowView(w *aggregates.Workflow) WorkflowView {
	snapshot := w.Snapshot()
	return WorkflowView{
		ID:        w.ID().String(),
		Name:      w.Name(),
		Version:   w.Version(),
		UpdatedAt: w.UpdatedAt(),
		Nodes:     snapshot.Nodes,
		Edges:     snapshot.Edges,
	}
}

// ConnectResult is the outcome of a connection request. Edge is nil when
// the request produced no edge.
type ConnectResult struct {
	Edge    *entities.Edge `json:"edge"`
	Version int            `json:"version"`
}

// GraphExport is the persistable graph of a workflow, free of renderer state
type GraphExport struct {
	WorkflowID string          `json:"workflow_id"`
	Name       string          `json:"name"`
	Version    int             `json:"version"`
	Nodes      []entities.Node `json:"nodes"`
	Edges      []entities.Edge `json:"edges"`
}

// NewGraphExport builds the export of a stored document
func NewGraphExport(doc aggregates.Document) GraphExport {
	return GraphExport{
		WorkflowID: doc.ID,
		Name:       doc.Name,
		Version:    doc.Version,
		Nodes:      doc.Nodes,
		Edges:      doc.Edges,
	}
}
