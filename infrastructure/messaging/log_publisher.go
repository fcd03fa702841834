package messaging

import (
	"context"

	"go.uber.org/zap"

	"workflowstudio/domain/events"
)

// LogPublisher is the EventBus used when no event bus is configured. It
// records every event in the log and never fails.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher writing to logger
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs a single event
func (p *LogPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Debug("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Int("version", event.GetVersion()),
	)
	return nil
}

// PublishBatch logs every event in order
func (p *LogPublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		_ = p.Publish(ctx, event)
	}
	return nil
}
