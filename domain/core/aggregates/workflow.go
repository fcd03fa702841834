package aggregates

import (
	"fmt"
	"reflect"
	"time"

	"workflowstudio/domain/config"
	"workflowstudio/domain/core/changes"
	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/validators"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/domain/events"
	pkgerrors "workflowstudio/pkg/errors"
)

// Graph is a point-in-time copy of a workflow's nodes and edges.
type Graph struct {
	Nodes []entities.Node `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// Workflow is the aggregate root owning one workflow graph.
//
// Every mutation computes a new node and edge slice and swaps it in only
// once the whole batch has succeeded, so a failed call leaves the graph as
// it was and slices handed out earlier never change. Workflow does no
// locking: callers serialize writes.
type Workflow struct {
	id        valueobjects.WorkflowID
	name      string
	nodes     []entities.Node
	edges     []entities.Edge
	createdAt time.Time
	updatedAt time.Time
	version   int
	events    []events.DomainEvent

	types     changes.TypeRegistry
	policy    validators.ConnectionPolicy
	limits    *config.DomainConfig
	now       func() time.Time
	newEdgeID func() valueobjects.EdgeID
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithTypeRegistry enables node type checks against r.
func WithTypeRegistry(r changes.TypeRegistry) Option {
	return func(w *Workflow) { w.types = r }
}

// WithConnectionPolicy replaces the allow-all connection policy.
func WithConnectionPolicy(p validators.ConnectionPolicy) Option {
	return func(w *Workflow) {
		if p != nil {
			w.policy = p
		}
	}
}

// WithDomainConfig sets size limits and default types.
func WithDomainConfig(cfg *config.DomainConfig) Option {
	return func(w *Workflow) {
		if cfg != nil {
			w.limits = cfg
		}
	}
}

// WithClock overrides the time source used for timestamps and events.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithEdgeIDGenerator overrides how connect mints edge ids.
func WithEdgeIDGenerator(gen func() valueobjects.EdgeID) Option {
	return func(w *Workflow) { w.newEdgeID = gen }
}

func newWorkflow(id valueobjects.WorkflowID, name string, opts []Option) *Workflow {
	w := &Workflow{
		id:        id,
		name:      name,
		nodes:     []entities.Node{},
		edges:     []entities.Edge{},
		version:   1,
		events:    []events.DomainEvent{},
		policy:    validators.AllowAllConnections,
		limits:    config.DefaultDomainConfig(),
		now:       time.Now,
		newEdgeID: valueobjects.NewEdgeID,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name == "" {
		w.name = w.limits.DefaultGraphName
	}
	return w
}

// NewWorkflow creates an empty workflow graph.
func NewWorkflow(name string, opts ...Option) *Workflow {
	w := newWorkflow(valueobjects.NewWorkflowID(), name, opts)
	w.createdAt = w.now()
	w.updatedAt = w.createdAt

	w.addEvent(events.NewWorkflowCreated(w.id, w.name, w.version, w.createdAt))
	return w
}

// ReconstructWorkflow rebuilds a saved workflow. The stored graph is
// validated like an import; no events are recorded.
func ReconstructWorkflow(doc Document, opts ...Option) (*Workflow, error) {
	id, err := valueobjects.ParseWorkflowID(doc.ID)
	if err != nil {
		return nil, pkgerrors.NewInvalidChangeError(err.Error())
	}

	w := newWorkflow(id, doc.Name, opts)
	if err := w.validator().Validate(doc.Nodes, doc.Edges); err != nil {
		return nil, err
	}

	w.nodes = cloneNodes(doc.Nodes)
	w.edges = cloneEdges(doc.Edges)
	w.createdAt = doc.CreatedAt
	w.updatedAt = doc.UpdatedAt
	if doc.Version > 0 {
		w.version = doc.Version
	}
	return w, nil
}

func (w *Workflow) ID() valueobjects.WorkflowID { return w.id }
func (w *Workflow) Name() string                { return w.name }
func (w *Workflow) Version() int                { return w.version }
func (w *Workflow) CreatedAt() time.Time        { return w.createdAt }
func (w *Workflow) UpdatedAt() time.Time        { return w.updatedAt }
func (w *Workflow) NodeCount() int              { return len(w.nodes) }
func (w *Workflow) EdgeCount() int              { return len(w.edges) }

// Nodes returns a copy of the current node set in insertion order.
func (w *Workflow) Nodes() []entities.Node { return cloneNodes(w.nodes) }

// Edges returns a copy of the current edge set in insertion order.
func (w *Workflow) Edges() []entities.Edge { return cloneEdges(w.edges) }

// Snapshot returns a copy of the full graph, renderer state included.
func (w *Workflow) Snapshot() Graph {
	return Graph{Nodes: w.Nodes(), Edges: w.Edges()}
}

// HasNode reports whether a node with id is present.
func (w *Workflow) HasNode(id valueobjects.NodeID) bool {
	_, ok := w.node(id)
	return ok
}

// SelectedNodes returns the nodes currently selected on the canvas.
func (w *Workflow) SelectedNodes() []entities.Node {
	var out []entities.Node
	for _, n := range w.nodes {
		if n.Selected {
			out = append(out, n.Clone())
		}
	}
	return out
}

// SelectedEdges returns the edges currently selected on the canvas.
func (w *Workflow) SelectedEdges() []entities.Edge {
	var out []entities.Edge
	for _, e := range w.edges {
		if e.Selected {
			out = append(out, e.Clone())
		}
	}
	return out
}

// ApplyNodeChanges applies a node change batch and returns the new node set.
// Removing a node also removes its incident edges in the same commit.
func (w *Workflow) ApplyNodeChanges(batch []changes.NodeChange) ([]entities.Node, error) {
	if err := w.checkBatchSize(len(batch)); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return cloneNodes(w.nodes), nil
	}

	nodes, err := changes.ApplyNodeChanges(w.nodes, batch, w.types)
	if err != nil {
		return nil, err
	}
	if limit := w.limits.MaxNodesPerGraph; limit > 0 && len(nodes) > limit && len(nodes) > len(w.nodes) {
		return nil, pkgerrors.NewGraphLimitExceededError("node", w.limits.MaxNodesPerGraph)
	}

	removed := make(map[valueobjects.NodeID]struct{})
	var removedIDs []valueobjects.NodeID
	kinds := make(map[string]int)
	for _, change := range batch {
		kinds[string(change.Kind())]++
		if c, ok := change.(changes.NodeRemove); ok {
			if _, seen := removed[c.ID]; !seen && w.HasNode(c.ID) {
				removedIDs = append(removedIDs, c.ID)
			}
			removed[c.ID] = struct{}{}
		}
	}

	cascade := changes.IncidentEdgeRemovals(w.edges, removed)
	edges := w.edges
	if len(cascade) > 0 {
		if edges, err = changes.ApplyEdgeChanges(w.edges, cascade, nodes); err != nil {
			return nil, err
		}
	}

	if len(cascade) == 0 && reflect.DeepEqual(nodes, w.nodes) {
		return cloneNodes(w.nodes), nil
	}

	w.nodes = nodes
	w.edges = edges
	w.touch()
	w.addEvent(events.NewNodesChanged(w.id, kinds, removedIDs, edgeIDs(cascade),
		len(w.nodes), len(w.edges), w.version, w.updatedAt))

	return cloneNodes(w.nodes), nil
}

// ApplyEdgeChanges applies an edge change batch and returns the new edge set.
// Added edges must reference present nodes.
func (w *Workflow) ApplyEdgeChanges(batch []changes.EdgeChange) ([]entities.Edge, error) {
	if err := w.checkBatchSize(len(batch)); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return cloneEdges(w.edges), nil
	}

	edges, err := w.foldEdges(batch)
	if err != nil {
		return nil, err
	}
	if reflect.DeepEqual(edges, w.edges) {
		return cloneEdges(w.edges), nil
	}

	kinds := make(map[string]int)
	for _, change := range batch {
		kinds[string(change.Kind())]++
	}

	w.edges = edges
	w.touch()
	w.addEvent(events.NewEdgesChanged(w.id, kinds, len(w.edges), w.version, w.updatedAt))

	return cloneEdges(w.edges), nil
}

// Connect turns a connection request into an edge. It returns a nil edge
// and no error when the request connects a port to itself, duplicates an
// existing edge, or is refused by the connection policy.
func (w *Workflow) Connect(req entities.Connection) (*entities.Edge, error) {
	source, ok := w.node(req.Source)
	if !ok {
		return nil, pkgerrors.NewUnknownNodeError("source", req.Source.String())
	}
	target, ok := w.node(req.Target)
	if !ok {
		return nil, pkgerrors.NewUnknownNodeError("target", req.Target.String())
	}

	if req.IsSelfLoop() {
		return nil, nil
	}
	for _, e := range w.edges {
		if e.Endpoints().SameEndpoints(req) {
			return nil, nil
		}
	}
	if !w.policy.IsConnectionAllowed(source.Type, req.SourceHandle, target.Type, req.TargetHandle) {
		return nil, nil
	}

	edgeType := req.Type
	if edgeType == "" {
		edgeType = w.limits.DefaultEdgeType
	}
	edge := entities.Edge{
		ID:           w.newEdgeID(),
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
		TargetHandle: req.TargetHandle,
		Type:         edgeType,
	}

	edges, err := w.foldEdges([]changes.EdgeChange{changes.EdgeAdd{Edge: edge}})
	if err != nil {
		return nil, err
	}

	w.edges = edges
	w.touch()
	w.addEvent(events.NewNodesConnected(w.id, edge.ID, edge.Source, edge.Target,
		edge.SourceHandle, edge.TargetHandle, edge.Type, w.version, w.updatedAt))

	return &edge, nil
}

// RemoveNode removes a node together with every edge incident to it. An
// absent id leaves the graph unchanged.
func (w *Workflow) RemoveNode(id valueobjects.NodeID) (Graph, error) {
	if !w.HasNode(id) {
		return w.Snapshot(), nil
	}

	nodes, err := changes.ApplyNodeChanges(w.nodes, changes.RemoveNodes(id), nil)
	if err != nil {
		return Graph{}, err
	}
	cascade := changes.IncidentEdgeRemovals(w.edges, map[valueobjects.NodeID]struct{}{id: {}})
	edges, err := changes.ApplyEdgeChanges(w.edges, cascade, nodes)
	if err != nil {
		return Graph{}, err
	}

	w.nodes = nodes
	w.edges = edges
	w.touch()
	w.addEvent(events.NewNodeRemoved(w.id, id, edgeIDs(cascade), w.version, w.updatedAt))

	return w.Snapshot(), nil
}

// AddNode inserts a single node. An empty type falls back to the default
// node type.
func (w *Workflow) AddNode(node entities.Node) (entities.Node, error) {
	if node.Type == "" {
		node.Type = w.limits.DefaultNodeType
	}
	if _, err := w.ApplyNodeChanges([]changes.NodeChange{changes.NodeAdd{Node: node}}); err != nil {
		return entities.Node{}, err
	}
	added, _ := w.node(node.ID)
	return added.Clone(), nil
}

// ExportGraph returns the persistable graph: renderer-only node state such
// as dragging and measured dimensions is dropped.
func (w *Workflow) ExportGraph() Graph {
	out := Graph{
		Nodes: make([]entities.Node, len(w.nodes)),
		Edges: make([]entities.Edge, len(w.edges)),
	}
	for i, n := range w.nodes {
		out.Nodes[i] = n.Plain()
	}
	for i, e := range w.edges {
		out.Edges[i] = e.Plain()
	}
	return out
}

// ImportGraph replaces the whole graph. The candidate is checked in full
// first and rejected with an InvalidGraph error listing every violation;
// on rejection the current graph is kept.
func (w *Workflow) ImportGraph(nodes []entities.Node, edges []entities.Edge) error {
	if err := w.validator().Validate(nodes, edges); err != nil {
		return err
	}

	w.nodes = cloneNodes(nodes)
	w.edges = cloneEdges(edges)
	w.touch()
	w.addEvent(events.NewWorkflowImported(w.id, len(w.nodes), len(w.edges), w.version, w.updatedAt))
	return nil
}

// Document returns the persistable form of the workflow.
func (w *Workflow) Document() Document {
	g := w.ExportGraph()
	return Document{
		ID:        w.id.String(),
		Name:      w.name,
		Nodes:     g.Nodes,
		Edges:     g.Edges,
		Version:   w.version,
		CreatedAt: w.createdAt,
		UpdatedAt: w.updatedAt,
	}
}

// GetUncommittedEvents returns all uncommitted domain events
func (w *Workflow) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(w.events))
	copy(out, w.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (w *Workflow) MarkEventsAsCommitted() {
	w.events = []events.DomainEvent{}
}

// Validate re-checks the committed graph.
func (w *Workflow) Validate() error {
	return w.validator().Validate(w.nodes, w.edges)
}

// Private helper methods

func (w *Workflow) foldEdges(batch []changes.EdgeChange) ([]entities.Edge, error) {
	edges, err := changes.ApplyEdgeChanges(w.edges, batch, w.nodes)
	if err != nil {
		return nil, err
	}
	if limit := w.limits.MaxEdgesPerGraph; limit > 0 && len(edges) > limit && len(edges) > len(w.edges) {
		return nil, pkgerrors.NewGraphLimitExceededError("edge", w.limits.MaxEdgesPerGraph)
	}

	added := make(map[valueobjects.EdgeID]struct{})
	for _, change := range batch {
		if c, ok := change.(changes.EdgeAdd); ok {
			added[c.Edge.ID] = struct{}{}
		}
	}
	if len(added) == 0 {
		return edges, nil
	}

	seen := make(map[entities.Connection]valueobjects.EdgeID, len(edges))
	for _, e := range edges {
		_, isNew := added[e.ID]
		if isNew && e.IsSelfLoop() {
			return nil, pkgerrors.NewInvalidChangeError(fmt.Sprintf("edge %q connects a port to itself", e.ID)).
				WithDetail("edge_id", e.ID.String())
		}
		key := e.Endpoints()
		if other, dup := seen[key]; dup && isNew {
			return nil, pkgerrors.NewInvalidChangeError(fmt.Sprintf("edge %q duplicates edge %q", e.ID, other)).
				WithDetail("edge_id", e.ID.String())
		}
		if _, dup := seen[key]; !dup {
			seen[key] = e.ID
		}
	}
	return edges, nil
}

func (w *Workflow) checkBatchSize(n int) error {
	if limit := w.limits.MaxChangesPerBatch; limit > 0 && n > limit {
		return pkgerrors.NewGraphLimitExceededError("change", limit)
	}
	return nil
}

func (w *Workflow) validator() *validators.GraphValidator {
	return validators.NewGraphValidator(w.types, w.limits.MaxNodesPerGraph, w.limits.MaxEdgesPerGraph)
}

func (w *Workflow) node(id valueobjects.NodeID) (entities.Node, bool) {
	for _, n := range w.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return entities.Node{}, false
}

func (w *Workflow) touch() {
	w.updatedAt = w.now()
	w.version++
}

func (w *Workflow) addEvent(event events.DomainEvent) {
	w.events = append(w.events, event)
}

func edgeIDs(batch []changes.EdgeChange) []valueobjects.EdgeID {
	if len(batch) == 0 {
		return nil
	}
	ids := make([]valueobjects.EdgeID, len(batch))
	for i, c := range batch {
		ids[i] = c.EdgeID()
	}
	return ids
}

func cloneNodes(nodes []entities.Node) []entities.Node {
	out := make([]entities.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(edges []entities.Edge) []entities.Edge {
	out := make([]entities.Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}
