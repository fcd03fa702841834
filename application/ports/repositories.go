package ports

import (
	"context"

	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/domain/events"
)

// WorkflowRepository defines the interface for workflow persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type WorkflowRepository interface {
	// Save persists a workflow document (create or replace)
	Save(ctx context.Context, doc aggregates.Document) error

	// GetByID retrieves a saved workflow. A missing id yields a
	// workflow-not-found domain error.
	GetByID(ctx context.Context, id valueobjects.WorkflowID) (aggregates.Document, error)

	// List returns a summary of every saved workflow
	List(ctx context.Context) ([]aggregates.Summary, error)

	// Delete removes a saved workflow
	Delete(ctx context.Context, id valueobjects.WorkflowID) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher
}
