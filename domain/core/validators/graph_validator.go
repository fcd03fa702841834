package validators

import (
	"fmt"

	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/pkg/errors"
)

// TypeRegistry answers whether a node type is registered.
type TypeRegistry interface {
	IsKnownType(nodeType string) bool
}

// GraphValidator checks a candidate graph against the structural rules every
// committed workflow graph satisfies.
type GraphValidator struct {
	types    TypeRegistry
	maxNodes int
	maxEdges int
}

// NewGraphValidator creates a validator. A nil registry skips type checks and
// a zero limit is unbounded.
func NewGraphValidator(types TypeRegistry, maxNodes, maxEdges int) *GraphValidator {
	return &GraphValidator{
		types:    types,
		maxNodes: maxNodes,
		maxEdges: maxEdges,
	}
}

// Validate collects every violation in the graph. It returns nil or an
// InvalidGraph domain error listing them all.
func (v *GraphValidator) Validate(nodes []entities.Node, edges []entities.Edge) error {
	violations := errors.NewValidationErrors()

	if v.maxNodes > 0 && len(nodes) > v.maxNodes {
		violations.Add("nodes", fmt.Sprintf("graph has %d nodes, limit is %d", len(nodes), v.maxNodes))
	}
	if v.maxEdges > 0 && len(edges) > v.maxEdges {
		violations.Add("edges", fmt.Sprintf("graph has %d edges, limit is %d", len(edges), v.maxEdges))
	}

	present := make(map[valueobjects.NodeID]struct{}, len(nodes))
	for i, n := range nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if err := n.Validate(); err != nil {
			violations.Add(field, err.Error())
			continue
		}
		if _, dup := present[n.ID]; dup {
			violations.Add(field+".id", fmt.Sprintf("duplicate node id %q", n.ID))
			continue
		}
		present[n.ID] = struct{}{}
		if v.types != nil && !v.types.IsKnownType(n.Type) {
			violations.Add(field+".type", fmt.Sprintf("node %q has unknown type %q", n.ID, n.Type))
		}
	}

	edgeIDs := make(map[valueobjects.EdgeID]struct{}, len(edges))
	endpoints := make(map[entities.Connection]valueobjects.EdgeID, len(edges))
	for i, e := range edges {
		field := fmt.Sprintf("edges[%d]", i)
		if err := e.Validate(); err != nil {
			violations.Add(field, err.Error())
			continue
		}
		if _, dup := edgeIDs[e.ID]; dup {
			violations.Add(field+".id", fmt.Sprintf("duplicate edge id %q", e.ID))
		}
		edgeIDs[e.ID] = struct{}{}

		if _, ok := present[e.Source]; !ok {
			violations.Add(field+".source", fmt.Sprintf("edge %q source %q does not exist", e.ID, e.Source))
		}
		if _, ok := present[e.Target]; !ok {
			violations.Add(field+".target", fmt.Sprintf("edge %q target %q does not exist", e.ID, e.Target))
		}
		if e.IsSelfLoop() {
			violations.Add(field, fmt.Sprintf("edge %q connects a port to itself", e.ID))
		}

		key := e.Endpoints()
		if other, dup := endpoints[key]; dup {
			violations.Add(field, fmt.Sprintf("edge %q duplicates edge %q", e.ID, other))
		} else {
			endpoints[key] = e.ID
		}
	}

	if violations.HasErrors() {
		return errors.NewInvalidGraphError(violations)
	}
	return nil
}
