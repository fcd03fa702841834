package queries

import (
	"workflowstudio/pkg/utils"
)

// GetSnapshotQuery reads the current state of an open workflow
type GetSnapshotQuery struct {
	WorkflowID string `json:"workflow_id" validate:"required,uuid"`
}

func (q GetSnapshotQuery) Validate() error { return utils.ValidateStruct(q) }

// ExportGraphQuery reads the persistable graph of an open or saved workflow
type ExportGraphQuery struct {
	WorkflowID string `json:"workflow_id" validate:"required,uuid"`
}

func (q ExportGraphQuery) Validate() error { return utils.ValidateStruct(q) }

// ListWorkflowsQuery lists open and saved workflows, newest first
type ListWorkflowsQuery struct {
	Page     int `json:"page" validate:"min=0"`
	PageSize int `json:"page_size" validate:"min=0,max=100"`
}

func (q ListWorkflowsQuery) Validate() error { return utils.ValidateStruct(q) }

// ListBlocksQuery lists catalog blocks, optionally of one category
type ListBlocksQuery struct {
	Category string `json:"category"`
}

func (q ListBlocksQuery) Validate() error { return nil }
