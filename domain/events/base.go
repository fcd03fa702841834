package events

import (
	"time"

	"workflowstudio/domain/core/valueobjects"
)

// Source is the EventBridge source every workflow event is published under.
const Source = "workflowstudio.workflow"

// Event types
const (
	TypeWorkflowCreated  = "workflow.created"
	TypeNodesChanged     = "workflow.nodes_changed"
	TypeEdgesChanged     = "workflow.edges_changed"
	TypeNodesConnected   = "workflow.nodes_connected"
	TypeNodeRemoved      = "workflow.node_removed"
	TypeWorkflowImported = "workflow.imported"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(workflowID valueobjects.WorkflowID, eventType string, version int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: workflowID.String(),
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     version,
	}
}

// WorkflowCreated is raised when an empty workflow is opened
type WorkflowCreated struct {
	BaseEvent
	Name string `json:"name"`
}

func NewWorkflowCreated(workflowID valueobjects.WorkflowID, name string, version int, timestamp time.Time) WorkflowCreated {
	return WorkflowCreated{
		BaseEvent: newBase(workflowID, TypeWorkflowCreated, version, timestamp),
		Name:      name,
	}
}

// NodesChanged is raised when a node change batch is committed
type NodesChanged struct {
	BaseEvent
	// Counts of each change kind in the batch, keyed by kind.
	Kinds        map[string]int        `json:"kinds"`
	RemovedNodes []valueobjects.NodeID `json:"removed_nodes,omitempty"`
	// Edges dropped because an endpoint was removed in the same batch.
	CascadedEdges []valueobjects.EdgeID `json:"cascaded_edges,omitempty"`
	NodeCount     int                   `json:"node_count"`
	EdgeCount     int                   `json:"edge_count"`
}

func NewNodesChanged(workflowID valueobjects.WorkflowID, kinds map[string]int, removed []valueobjects.NodeID, cascaded []valueobjects.EdgeID, nodeCount, edgeCount, version int, timestamp time.Time) NodesChanged {
	return NodesChanged{
		BaseEvent:     newBase(workflowID, TypeNodesChanged, version, timestamp),
		Kinds:         kinds,
		RemovedNodes:  removed,
		CascadedEdges: cascaded,
		NodeCount:     nodeCount,
		EdgeCount:     edgeCount,
	}
}

// EdgesChanged is raised when an edge change batch is committed
type EdgesChanged struct {
	BaseEvent
	Kinds     map[string]int `json:"kinds"`
	EdgeCount int            `json:"edge_count"`
}

func NewEdgesChanged(workflowID valueobjects.WorkflowID, kinds map[string]int, edgeCount, version int, timestamp time.Time) EdgesChanged {
	return EdgesChanged{
		BaseEvent: newBase(workflowID, TypeEdgesChanged, version, timestamp),
		Kinds:     kinds,
		EdgeCount: edgeCount,
	}
}

// NodesConnected is raised when a connection request creates an edge
type NodesConnected struct {
	BaseEvent
	EdgeID       valueobjects.EdgeID `json:"edge_id"`
	SourceID     valueobjects.NodeID `json:"source_id"`
	TargetID     valueobjects.NodeID `json:"target_id"`
	SourceHandle string              `json:"source_handle,omitempty"`
	TargetHandle string              `json:"target_handle,omitempty"`
	EdgeType     string              `json:"edge_type"`
}

func NewNodesConnected(workflowID valueobjects.WorkflowID, edgeID valueobjects.EdgeID, sourceID, targetID valueobjects.NodeID, sourceHandle, targetHandle, edgeType string, version int, timestamp time.Time) NodesConnected {
	return NodesConnected{
		BaseEvent:    newBase(workflowID, TypeNodesConnected, version, timestamp),
		EdgeID:       edgeID,
		SourceID:     sourceID,
		TargetID:     targetID,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
		EdgeType:     edgeType,
	}
}

// NodeRemoved is raised when a node and its incident edges are removed
type NodeRemoved struct {
	BaseEvent
	NodeID       valueobjects.NodeID   `json:"node_id"`
	RemovedEdges []valueobjects.EdgeID `json:"removed_edges,omitempty"`
}

func NewNodeRemoved(workflowID valueobjects.WorkflowID, nodeID valueobjects.NodeID, removedEdges []valueobjects.EdgeID, version int, timestamp time.Time) NodeRemoved {
	return NodeRemoved{
		BaseEvent:    newBase(workflowID, TypeNodeRemoved, version, timestamp),
		NodeID:       nodeID,
		RemovedEdges: removedEdges,
	}
}

// WorkflowImported is raised when a whole graph replaces the current one
type WorkflowImported struct {
	BaseEvent
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

func NewWorkflowImported(workflowID valueobjects.WorkflowID, nodeCount, edgeCount, version int, timestamp time.Time) WorkflowImported {
	return WorkflowImported{
		BaseEvent: newBase(workflowID, TypeWorkflowImported, version, timestamp),
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}
