package valueobjects

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// NodeID identifies a node within one workflow graph. Ids are opaque: the
// canvas may mint its own, so any non-blank string is accepted.
type NodeID string

// EdgeID identifies an edge within one workflow graph.
type EdgeID string

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID(uuid.New().String())
}

// NewEdgeID creates a new random EdgeID
func NewEdgeID() EdgeID {
	return EdgeID(uuid.New().String())
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New("node ID cannot be empty")
	}
	return NodeID(id), nil
}

// NewEdgeIDFromString creates an EdgeID from an existing string
func NewEdgeIDFromString(id string) (EdgeID, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New("edge ID cannot be empty")
	}
	return EdgeID(id), nil
}

func (id NodeID) String() string { return string(id) }
func (id NodeID) IsZero() bool   { return strings.TrimSpace(string(id)) == "" }

func (id EdgeID) String() string { return string(id) }
func (id EdgeID) IsZero() bool   { return strings.TrimSpace(string(id)) == "" }

// WorkflowID identifies one workflow graph document.
type WorkflowID string

// NewWorkflowID creates a new random WorkflowID
func NewWorkflowID() WorkflowID {
	return WorkflowID(uuid.New().String())
}

// ParseWorkflowID validates a workflow id coming from a URL or a store.
func ParseWorkflowID(id string) (WorkflowID, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.New("workflow ID must be a valid UUID")
	}
	return WorkflowID(id), nil
}

func (id WorkflowID) String() string { return string(id) }
