package aggregates

import (
	"time"

	"workflowstudio/domain/core/entities"
)

// Document is what a repository stores for a workflow: the exported graph
// plus bookkeeping. It carries no renderer state.
type Document struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Nodes     []entities.Node `json:"nodes"`
	Edges     []entities.Edge `json:"edges"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Summary is a listing entry for a workflow.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	Version   int       `json:"version"`
	Open      bool      `json:"open"`
	Saved     bool      `json:"saved"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summarize builds the listing entry of a document.
func (d Document) Summarize() Summary {
	return Summary{
		ID:        d.ID,
		Name:      d.Name,
		NodeCount: len(d.Nodes),
		EdgeCount: len(d.Edges),
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
}
