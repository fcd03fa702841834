package di

import (
	"workflowstudio/application/commands/bus"
	"workflowstudio/application/ports"
	querybus "workflowstudio/application/queries/bus"
	"workflowstudio/application/services"
	"workflowstudio/domain/catalog"
	domainconfig "workflowstudio/domain/config"
	"workflowstudio/infrastructure/config"
	"workflowstudio/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	DomainConfig *domainconfig.DomainConfig
	Logger       *zap.Logger
	Catalog      *catalog.StaticCatalog
	Sessions     *services.WorkflowSessions
	Repository   ports.WorkflowRepository
	EventBus     ports.EventBus
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
	CommandBus   *bus.CommandBus
	QueryBus     *querybus.QueryBus
}
