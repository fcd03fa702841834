// Package changes holds the change algebra of the workflow graph: one type
// per atomic mutation, batched into ordered lists and folded over the
// current node or edge set.
package changes

import (
	"encoding/json"
	"fmt"

	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/valueobjects"
	pkgerrors "workflowstudio/pkg/errors"
)

// Kind is the discriminator carried in the "type" field of a change envelope.
type Kind string

const (
	KindAdd        Kind = "add"
	KindRemove     Kind = "remove"
	KindPosition   Kind = "position"
	KindSelect     Kind = "select"
	KindDimensions Kind = "dimensions"
	KindData       Kind = "data"
)

// NodeChange is one atomic mutation of the node set.
type NodeChange interface {
	Kind() Kind
	// NodeID names the node the change targets.
	NodeID() valueobjects.NodeID
	nodeChange()
}

// EdgeChange is one atomic mutation of the edge set.
type EdgeChange interface {
	Kind() Kind
	EdgeID() valueobjects.EdgeID
	edgeChange()
}

// NodeAdd inserts a node.
type NodeAdd struct {
	Node entities.Node
}

// NodeRemove deletes a node. Absent ids are ignored.
type NodeRemove struct {
	ID valueobjects.NodeID
}

// NodePosition moves a node.
type NodePosition struct {
	ID       valueobjects.NodeID
	Position valueobjects.Position
	Dragging bool
}

// NodeSelect toggles selection of a node.
type NodeSelect struct {
	ID       valueobjects.NodeID
	Selected bool
}

// NodeDimensions replaces the renderer-measured size. Nil clears it.
type NodeDimensions struct {
	ID         valueobjects.NodeID
	Dimensions *valueobjects.Dimensions
}

// NodeData replaces the opaque configuration payload of a node.
type NodeData struct {
	ID   valueobjects.NodeID
	Data map[string]any
}

func (NodeAdd) Kind() Kind        { return KindAdd }
func (NodeRemove) Kind() Kind     { return KindRemove }
func (NodePosition) Kind() Kind   { return KindPosition }
func (NodeSelect) Kind() Kind     { return KindSelect }
func (NodeDimensions) Kind() Kind { return KindDimensions }
func (NodeData) Kind() Kind       { return KindData }

func (c NodeAdd) NodeID() valueobjects.NodeID        { return c.Node.ID }
func (c NodeRemove) NodeID() valueobjects.NodeID     { return c.ID }
func (c NodePosition) NodeID() valueobjects.NodeID   { return c.ID }
func (c NodeSelect) NodeID() valueobjects.NodeID     { return c.ID }
func (c NodeDimensions) NodeID() valueobjects.NodeID { return c.ID }
func (c NodeData) NodeID() valueobjects.NodeID       { return c.ID }

func (NodeAdd) nodeChange()        {}
func (NodeRemove) nodeChange()     {}
func (NodePosition) nodeChange()   {}
func (NodeSelect) nodeChange()     {}
func (NodeDimensions) nodeChange() {}
func (NodeData) nodeChange()       {}

// EdgeAdd inserts an edge whose endpoints must already exist.
type EdgeAdd struct {
	Edge entities.Edge
}

// EdgeRemove deletes an edge. Absent ids are ignored.
type EdgeRemove struct {
	ID valueobjects.EdgeID
}

// EdgeSelect toggles selection of an edge.
type EdgeSelect struct {
	ID       valueobjects.EdgeID
	Selected bool
}

func (EdgeAdd) Kind() Kind    { return KindAdd }
func (EdgeRemove) Kind() Kind { return KindRemove }
func (EdgeSelect) Kind() Kind { return KindSelect }

func (c EdgeAdd) EdgeID() valueobjects.EdgeID    { return c.Edge.ID }
func (c EdgeRemove) EdgeID() valueobjects.EdgeID { return c.ID }
func (c EdgeSelect) EdgeID() valueobjects.EdgeID { return c.ID }

func (EdgeAdd) edgeChange()    {}
func (EdgeRemove) edgeChange() {}
func (EdgeSelect) edgeChange() {}

// RemoveNodes builds a remove batch for the given ids.
func RemoveNodes(ids ...valueobjects.NodeID) []NodeChange {
	out := make([]NodeChange, len(ids))
	for i, id := range ids {
		out[i] = NodeRemove{ID: id}
	}
	return out
}

// RemoveEdges builds a remove batch for the given ids.
func RemoveEdges(ids ...valueobjects.EdgeID) []EdgeChange {
	out := make([]EdgeChange, len(ids))
	for i, id := range ids {
		out[i] = EdgeRemove{ID: id}
	}
	return out
}

// Envelope is the wire form of a single change, as the canvas emits it:
// a "type" discriminator plus the fields that variant uses.
type Envelope struct {
	Type       Kind                     `json:"type"`
	ID         string                   `json:"id,omitempty"`
	Item       json.RawMessage          `json:"item,omitempty"`
	Position   *valueobjects.Position   `json:"position,omitempty"`
	Dragging   *bool                    `json:"dragging,omitempty"`
	Selected   *bool                    `json:"selected,omitempty"`
	Dimensions *valueobjects.Dimensions `json:"dimensions,omitempty"`
	Data       map[string]any           `json:"data,omitempty"`
}

// DecodeNodeChange turns an envelope into a typed node change.
func (e Envelope) DecodeNodeChange() (NodeChange, error) {
	switch e.Type {
	case KindAdd:
		var node entities.Node
		if err := decodeItem(e.Item, &node); err != nil {
			return nil, err
		}
		return NodeAdd{Node: node}, nil
	}

	id, err := valueobjects.NewNodeIDFromString(e.ID)
	if err != nil {
		return nil, pkgerrors.NewInvalidChangeError(fmt.Sprintf("%s change: %v", e.Type, err))
	}

	switch e.Type {
	case KindRemove:
		return NodeRemove{ID: id}, nil
	case KindPosition:
		if e.Position == nil {
			return nil, pkgerrors.NewInvalidChangeError("position change requires a position")
		}
		if err := e.Position.Validate(); err != nil {
			return nil, pkgerrors.NewInvalidChangeError(err.Error())
		}
		change := NodePosition{ID: id, Position: *e.Position}
		if e.Dragging != nil {
			change.Dragging = *e.Dragging
		}
		return change, nil
	case KindSelect:
		if e.Selected == nil {
			return nil, pkgerrors.NewInvalidChangeError("select change requires selected")
		}
		return NodeSelect{ID: id, Selected: *e.Selected}, nil
	case KindDimensions:
		return NodeDimensions{ID: id, Dimensions: e.Dimensions}, nil
	case KindData:
		return NodeData{ID: id, Data: e.Data}, nil
	default:
		return nil, pkgerrors.NewInvalidChangeError(fmt.Sprintf("unsupported node change type %q", e.Type))
	}
}

// DecodeEdgeChange turns an envelope into a typed edge change.
func (e Envelope) DecodeEdgeChange() (EdgeChange, error) {
	switch e.Type {
	case KindAdd:
		var edge entities.Edge
		if err := decodeItem(e.Item, &edge); err != nil {
			return nil, err
		}
		return EdgeAdd{Edge: edge}, nil
	}

	id, err := valueobjects.NewEdgeIDFromString(e.ID)
	if err != nil {
		return nil, pkgerrors.NewInvalidChangeError(fmt.Sprintf("%s change: %v", e.Type, err))
	}

	switch e.Type {
	case KindRemove:
		return EdgeRemove{ID: id}, nil
	case KindSelect:
		if e.Selected == nil {
			return nil, pkgerrors.NewInvalidChangeError("select change requires selected")
		}
		return EdgeSelect{ID: id, Selected: *e.Selected}, nil
	default:
		return nil, pkgerrors.NewInvalidChangeError(fmt.Sprintf("unsupported edge change type %q", e.Type))
	}
}

func decodeItem(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return pkgerrors.NewInvalidChangeError("add change requires an item")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return pkgerrors.NewInvalidChangeError("malformed add item").WithCause(err)
	}
	return nil
}

// EncodeNodeChange is the inverse of DecodeNodeChange.
func EncodeNodeChange(change NodeChange) (Envelope, error) {
	env := Envelope{Type: change.Kind()}
	switch c := change.(type) {
	case NodeAdd:
		item, err := json.Marshal(c.Node)
		if err != nil {
			return Envelope{}, err
		}
		env.Item = item
		return env, nil
	case NodeRemove:
	case NodePosition:
		env.Position = &c.Position
		env.Dragging = &c.Dragging
	case NodeSelect:
		env.Selected = &c.Selected
	case NodeDimensions:
		env.Dimensions = c.Dimensions
	case NodeData:
		env.Data = c.Data
	}
	env.ID = change.NodeID().String()
	return env, nil
}

// EncodeEdgeChange is the inverse of DecodeEdgeChange.
func EncodeEdgeChange(change EdgeChange) (Envelope, error) {
	env := Envelope{Type: change.Kind()}
	switch c := change.(type) {
	case EdgeAdd:
		item, err := json.Marshal(c.Edge)
		if err != nil {
			return Envelope{}, err
		}
		env.Item = item
		return env, nil
	case EdgeSelect:
		env.Selected = &c.Selected
	}
	env.ID = change.EdgeID().String()
	return env, nil
}

// DecodeNodeChanges decodes a whole batch, reporting the index of the first
// malformed entry.
func DecodeNodeChanges(envelopes []Envelope) ([]NodeChange, error) {
	out := make([]NodeChange, 0, len(envelopes))
	for i, env := range envelopes {
		change, err := env.DecodeNodeChange()
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "changes[%d]", i)
		}
		out = append(out, change)
	}
	return out, nil
}

// DecodeEdgeChanges decodes a whole batch of edge envelopes.
func DecodeEdgeChanges(envelopes []Envelope) ([]EdgeChange, error) {
	out := make([]EdgeChange, 0, len(envelopes))
	for i, env := range envelopes {
		change, err := env.DecodeEdgeChange()
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "changes[%d]", i)
		}
		out = append(out, change)
	}
	return out, nil
}
