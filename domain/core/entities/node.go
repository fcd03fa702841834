package entities

import (
	"workflowstudio/domain/core/valueobjects"
	pkgerrors "workflowstudio/pkg/errors"
)

// Default tags the builder canvas registers its custom renderers under.
const (
	DefaultNodeType = "workflowBlock"
	DefaultEdgeType = "workflowEdge"
)

// Node is a positioned, typed vertex of a workflow graph.
//
// Nodes are values: the graph hands out copies and replaces whole nodes on
// change, so a Node obtained from a snapshot never observes later mutations.
type Node struct {
	ID       valueobjects.NodeID   `json:"id"`
	Type     string                `json:"type"`
	Position valueobjects.Position `json:"position"`
	Data     map[string]any        `json:"data,omitempty"`
	Selected bool                  `json:"selected"`

	// Renderer state. Dimensions is reported by the canvas after layout and
	// Dragging is set while a position change is in flight.
	Dimensions *valueobjects.Dimensions `json:"measured,omitempty"`
	Dragging   bool                     `json:"dragging,omitempty"`
}

// NewNode creates a node with validated id and type. Catalog membership of
// the type is checked by the graph, not here.
func NewNode(id valueobjects.NodeID, nodeType string, position valueobjects.Position, data map[string]any) (Node, error) {
	node := Node{
		ID:       id,
		Type:     nodeType,
		Position: position,
		Data:     data,
	}
	if err := node.Validate(); err != nil {
		return Node{}, err
	}
	return node, nil
}

// Validate checks the fields a node must carry regardless of catalog.
func (n Node) Validate() error {
	if n.ID.IsZero() {
		return pkgerrors.NewInvalidChangeError("node id cannot be empty")
	}
	if n.Type == "" {
		return pkgerrors.NewInvalidChangeError("node type cannot be empty").
			WithDetail("node_id", n.ID.String())
	}
	if err := n.Position.Validate(); err != nil {
		return pkgerrors.NewInvalidChangeError(err.Error()).
			WithDetail("node_id", n.ID.String())
	}
	return nil
}

// Clone returns a copy that shares no mutable state with n.
func (n Node) Clone() Node {
	out := n
	out.Data = CloneData(n.Data)
	if n.Dimensions != nil {
		d := *n.Dimensions
		out.Dimensions = &d
	}
	return out
}

// Plain strips renderer-only state, leaving what a saved workflow keeps.
func (n Node) Plain() Node {
	out := n.Clone()
	out.Dimensions = nil
	out.Dragging = false
	return out
}
