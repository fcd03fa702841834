package entities

import (
	"workflowstudio/domain/core/valueobjects"
	pkgerrors "workflowstudio/pkg/errors"
)

// Edge is a directed connection between two node ports. An empty handle is
// the node's unnamed default port.
type Edge struct {
	ID           valueobjects.EdgeID `json:"id"`
	Source       valueobjects.NodeID `json:"source"`
	Target       valueobjects.NodeID `json:"target"`
	SourceHandle string              `json:"sourceHandle,omitempty"`
	TargetHandle string              `json:"targetHandle,omitempty"`
	Type         string              `json:"type,omitempty"`
	Selected     bool                `json:"selected"`
	Data         map[string]any      `json:"data,omitempty"`
}

// Validate checks the fields every edge must carry.
func (e Edge) Validate() error {
	if e.ID.IsZero() {
		return pkgerrors.NewInvalidChangeError("edge id cannot be empty")
	}
	if e.Source.IsZero() || e.Target.IsZero() {
		return pkgerrors.NewInvalidChangeError("edge source and target are required").
			WithDetail("edge_id", e.ID.String())
	}
	return nil
}

// Endpoints returns the identity an edge is deduplicated on.
func (e Edge) Endpoints() Connection {
	return Connection{
		Source:       e.Source,
		SourceHandle: e.SourceHandle,
		Target:       e.Target,
		TargetHandle: e.TargetHandle,
	}
}

// IsIncidentTo reports whether the edge starts or ends at the node.
func (e Edge) IsIncidentTo(id valueobjects.NodeID) bool {
	return e.Source == id || e.Target == id
}

// IsSelfLoop reports a connection from a port back to the same port.
func (e Edge) IsSelfLoop() bool {
	return e.Endpoints().IsSelfLoop()
}

// Clone returns a copy that shares no mutable state with e.
func (e Edge) Clone() Edge {
	out := e
	out.Data = CloneData(e.Data)
	return out
}

// Plain strips renderer-only state, leaving what a saved workflow keeps.
func (e Edge) Plain() Edge {
	return e.Clone()
}

// Connection is an unvalidated proposal to create an edge, as produced by a
// drag gesture between two ports.
type Connection struct {
	Source       valueobjects.NodeID `json:"source" validate:"required"`
	SourceHandle string              `json:"sourceHandle,omitempty"`
	Target       valueobjects.NodeID `json:"target" validate:"required"`
	TargetHandle string              `json:"targetHandle,omitempty"`
	// Type is the edge type to create; empty selects the graph default.
	Type string `json:"type,omitempty"`
}

// IsSelfLoop reports source == target with identical handles.
func (c Connection) IsSelfLoop() bool {
	return c.Source == c.Target && c.SourceHandle == c.TargetHandle
}

// SameEndpoints compares the four-tuple duplicate edges are detected on.
// Type is not part of the identity.
func (c Connection) SameEndpoints(other Connection) bool {
	return c.Source == other.Source &&
		c.Target == other.Target &&
		c.SourceHandle == other.SourceHandle &&
		c.TargetHandle == other.TargetHandle
}
