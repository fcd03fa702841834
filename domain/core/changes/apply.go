package changes

import (
	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/valueobjects"
	pkgerrors "workflowstudio/pkg/errors"
)

// TypeRegistry answers whether a node type may be created. It is satisfied
// by the block catalog.
type TypeRegistry interface {
	IsKnownType(nodeType string) bool
}

// ApplyNodeChanges folds changes left to right over a copy of nodes and
// returns the new set. The input slice and its nodes are never modified.
// With a nil registry node types are not checked.
//
// An add of an existing id or of an unknown type fails the whole batch.
// Every other change is ignored when its node is absent.
func ApplyNodeChanges(nodes []entities.Node, batch []NodeChange, types TypeRegistry) ([]entities.Node, error) {
	set := newOrderedSet(nodes, func(n entities.Node) valueobjects.NodeID { return n.ID })

	for _, change := range batch {
		switch c := change.(type) {
		case NodeAdd:
			if err := c.Node.Validate(); err != nil {
				return nil, err
			}
			if set.has(c.Node.ID) {
				return nil, pkgerrors.NewDuplicateIDError("node", c.Node.ID.String())
			}
			if types != nil && !types.IsKnownType(c.Node.Type) {
				return nil, pkgerrors.NewUnknownTypeError(c.Node.ID.String(), c.Node.Type)
			}
			set.add(c.Node.ID, c.Node.Clone())
		case NodeRemove:
			set.remove(c.ID)
		case NodePosition:
			set.update(c.ID, func(n *entities.Node) {
				n.Position = c.Position
				n.Dragging = c.Dragging
			})
		case NodeSelect:
			set.update(c.ID, func(n *entities.Node) { n.Selected = c.Selected })
		case NodeDimensions:
			set.update(c.ID, func(n *entities.Node) {
				n.Dimensions = nil
				if c.Dimensions != nil {
					d := *c.Dimensions
					n.Dimensions = &d
				}
			})
		case NodeData:
			set.update(c.ID, func(n *entities.Node) { n.Data = entities.CloneData(c.Data) })
		case nil:
			return nil, pkgerrors.NewInvalidChangeError("nil node change")
		}
	}

	return set.values(), nil
}

// ApplyEdgeChanges folds changes left to right over a copy of edges. nodes
// is the node set the edges must reference: an add whose source or target
// is not in it fails with a dangling reference.
func ApplyEdgeChanges(edges []entities.Edge, batch []EdgeChange, nodes []entities.Node) ([]entities.Edge, error) {
	present := make(map[valueobjects.NodeID]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.ID] = struct{}{}
	}

	set := newOrderedSet(edges, func(e entities.Edge) valueobjects.EdgeID { return e.ID })

	for _, change := range batch {
		switch c := change.(type) {
		case EdgeAdd:
			if err := c.Edge.Validate(); err != nil {
				return nil, err
			}
			if set.has(c.Edge.ID) {
				return nil, pkgerrors.NewDuplicateIDError("edge", c.Edge.ID.String())
			}
			if _, ok := present[c.Edge.Source]; !ok {
				return nil, pkgerrors.NewDanglingReferenceError(c.Edge.ID.String(), "source", c.Edge.Source.String())
			}
			if _, ok := present[c.Edge.Target]; !ok {
				return nil, pkgerrors.NewDanglingReferenceError(c.Edge.ID.String(), "target", c.Edge.Target.String())
			}
			set.add(c.Edge.ID, c.Edge.Clone())
		case EdgeRemove:
			set.remove(c.ID)
		case EdgeSelect:
			set.update(c.ID, func(e *entities.Edge) { e.Selected = c.Selected })
		case nil:
			return nil, pkgerrors.NewInvalidChangeError("nil edge change")
		}
	}

	return set.values(), nil
}

// IncidentEdgeRemovals returns remove changes for every edge touching one of
// the given nodes, in edge order.
func IncidentEdgeRemovals(edges []entities.Edge, removed map[valueobjects.NodeID]struct{}) []EdgeChange {
	var out []EdgeChange
	for _, e := range edges {
		_, src := removed[e.Source]
		_, dst := removed[e.Target]
		if src || dst {
			out = append(out, EdgeRemove{ID: e.ID})
		}
	}
	return out
}

// orderedSet keeps insertion order next to an index so every change in a
// batch resolves its id in constant time.
type orderedSet[K comparable, V any] struct {
	order []K
	items map[K]V
}

func newOrderedSet[K comparable, V any](values []V, key func(V) K) *orderedSet[K, V] {
	s := &orderedSet[K, V]{
		order: make([]K, 0, len(values)),
		items: make(map[K]V, len(values)),
	}
	for _, v := range values {
		k := key(v)
		s.order = append(s.order, k)
		s.items[k] = v
	}
	return s
}

func (s *orderedSet[K, V]) has(k K) bool {
	_, ok := s.items[k]
	return ok
}

func (s *orderedSet[K, V]) add(k K, v V) {
	s.order = append(s.order, k)
	s.items[k] = v
}

func (s *orderedSet[K, V]) remove(k K) {
	if !s.has(k) {
		return
	}
	delete(s.items, k)
	for i, id := range s.order {
		if id == k {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// update copies the value before fn sees it, so the caller's original
// slice element is left alone.
func (s *orderedSet[K, V]) update(k K, fn func(*V)) {
	v, ok := s.items[k]
	if !ok {
		return
	}
	fn(&v)
	s.items[k] = v
}

func (s *orderedSet[K, V]) values() []V {
	out := make([]V, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}
