//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"workflowstudio/domain/catalog"
	"workflowstudio/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideCatalog,
	wire.Bind(new(catalog.Catalog), new(*catalog.StaticCatalog)),
	ProvideConnectionPolicy,
	ProvideWorkflowFactory,
	ProvideWorkflowSessions,
	ProvideAWSConfig,
	ProvideWorkflowRepository,
	ProvideEventBus,
	ProvideMetrics,
	ProvideTracer,
	ProvideCommandHandlers,
	ProvideCommandBus,
	ProvideQueryHandlers,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
