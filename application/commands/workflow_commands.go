package commands

import (
	"workflowstudio/domain/core/changes"
	"workflowstudio/domain/core/entities"
	"workflowstudio/pkg/utils"
)

// CreateWorkflowCommand opens a new, empty workflow
type CreateWorkflowCommand struct {
	Name string `json:"name" validate:"max=200"`
}

func (c CreateWorkflowCommand) Validate() error { return utils.ValidateStruct(c) }

// ApplyNodeChangesCommand applies one canvas node change batch. An empty
// batch changes nothing.
type ApplyNodeChangesCommand struct {
	WorkflowID string               `json:"workflow_id" validate:"required,uuid"`
	Changes    []changes.NodeChange `json:"changes"`
}

func (c ApplyNodeChangesCommand) Validate() error { return utils.ValidateStruct(c) }

// ApplyEdgeChangesCommand applies one canvas edge change batch
type ApplyEdgeChangesCommand struct {
	WorkflowID string               `json:"workflow_id" validate:"required,uuid"`
	Changes    []changes.EdgeChange `json:"changes"`
}

func (c ApplyEdgeChangesCommand) Validate() error { return utils.ValidateStruct(c) }

// ConnectCommand turns a connection request into an edge
type ConnectCommand struct {
	WorkflowID string              `json:"workflow_id" validate:"required,uuid"`
	Connection entities.Connection `json:"connection"`
}

func (c ConnectCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveNodeCommand removes a node and its incident edges
type RemoveNodeCommand struct {
	WorkflowID string `json:"workflow_id" validate:"required,uuid"`
	NodeID     string `json:"node_id" validate:"required"`
}

func (c RemoveNodeCommand) Validate() error { return utils.ValidateStruct(c) }

// ImportGraphCommand replaces the graph of an open workflow
type ImportGraphCommand struct {
	WorkflowID string          `json:"workflow_id" validate:"required,uuid"`
	Nodes      []entities.Node `json:"nodes"`
	Edges      []entities.Edge `json:"edges"`
}

func (c ImportGraphCommand) Validate() error { return utils.ValidateStruct(c) }

// SaveWorkflowCommand persists the exported graph of an open workflow
type SaveWorkflowCommand struct {
	WorkflowID string `json:"workflow_id" validate:"required,uuid"`
}

func (c SaveWorkflowCommand) Validate() error { return utils.ValidateStruct(c) }

// LoadWorkflowCommand opens a saved workflow, replacing any open copy
type LoadWorkflowCommand struct {
	WorkflowID string `json:"workflow_id" validate:"required,uuid"`
}

func (c LoadWorkflowCommand) Validate() error { return utils.ValidateStruct(c) }

// CloseWorkflowCommand drops an open workflow from memory
type CloseWorkflowCommand struct {
	WorkflowID string `json:"workflow_id" validate:"required,uuid"`
}

func (c CloseWorkflowCommand) Validate() error { return utils.ValidateStruct(c) }

// DeleteWorkflowCommand removes the saved copy of a workflow. An open copy
// stays open and becomes unsaved.
type DeleteWorkflowCommand struct {
	WorkflowID string `json:"workflow_id" validate:"required,uuid"`
}

func (c DeleteWorkflowCommand) Validate() error { return utils.ValidateStruct(c) }
