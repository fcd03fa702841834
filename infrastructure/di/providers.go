package di

import (
	"context"
	"fmt"

	"workflowstudio/application/commands/bus"
	commandhandlers "workflowstudio/application/commands/handlers"
	"workflowstudio/application/ports"
	querybus "workflowstudio/application/queries/bus"
	queryhandlers "workflowstudio/application/queries/handlers"
	"workflowstudio/application/services"
	"workflowstudio/domain/catalog"
	domainconfig "workflowstudio/domain/config"
	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/validators"
	"workflowstudio/infrastructure/config"
	"workflowstudio/infrastructure/messaging"
	"workflowstudio/infrastructure/messaging/eventbridge"
	"workflowstudio/infrastructure/persistence/dynamodb"
	"workflowstudio/infrastructure/persistence/memory"
	"workflowstudio/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	// CloudWatch Logs indexes JSON lines
	if cfg.IsLambda {
		zapCfg.Encoding = "json"
		zapCfg.EncoderConfig = zap.NewProductionEncoderConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideDomainConfig selects the graph limits for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	dc := cfg.DomainConfig()
	if err := dc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain config: %w", err)
	}
	return dc, nil
}

// ProvideCatalog loads the block catalog, falling back to the built-in one
func ProvideCatalog(cfg *config.Config) (*catalog.StaticCatalog, error) {
	return catalog.Load(cfg.BlockCatalogPath)
}

// ProvideConnectionPolicy builds the catalog driven connection policy
func ProvideConnectionPolicy(c *catalog.StaticCatalog, dc *domainconfig.DomainConfig) validators.ConnectionPolicy {
	return validators.NewCatalogPolicy(c, dc.EnforceBlockPorts)
}

// ProvideWorkflowFactory wires the catalog, policy and limits into every workflow
func ProvideWorkflowFactory(
	c *catalog.StaticCatalog,
	policy validators.ConnectionPolicy,
	dc *domainconfig.DomainConfig,
) *services.WorkflowFactory {
	opts := []aggregates.Option{
		aggregates.WithDomainConfig(dc),
		aggregates.WithConnectionPolicy(policy),
	}
	if dc.RequireKnownNodeTypes {
		opts = append(opts, aggregates.WithTypeRegistry(c))
	}
	return services.NewWorkflowFactory(opts...)
}

// ProvideWorkflowSessions creates the open workflow registry
func ProvideWorkflowSessions(dc *domainconfig.DomainConfig, logger *zap.Logger) *services.WorkflowSessions {
	return services.NewWorkflowSessions(dc, logger)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideWorkflowRepository selects the storage backend
func ProvideWorkflowRepository(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.WorkflowRepository {
	if cfg.StorageBackend == config.StorageDynamoDB {
		return dynamodb.NewWorkflowRepository(
			awsdynamodb.NewFromConfig(awsCfg),
			cfg.DynamoDBTable,
			logger,
		)
	}
	logger.Warn("Using in-memory workflow storage; saved workflows are lost on restart")
	return memory.NewWorkflowRepository()
}

// ProvideEventBus publishes to EventBridge when events are enabled and to
// the log otherwise.
func ProvideEventBus(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if cfg.EnableEvents {
		return eventbridge.NewPublisher(
			awseventbridge.NewFromConfig(awsCfg),
			cfg.EventBusName,
			logger,
		)
	}
	return messaging.NewLogPublisher(logger)
}

// ProvideMetrics creates the metrics recorder. With metrics disabled it has
// no client and records nothing.
func ProvideMetrics(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(cfg.ServiceName)
}

// ProvideCommandHandlers creates the workflow command handlers
func ProvideCommandHandlers(
	sessions *services.WorkflowSessions,
	factory *services.WorkflowFactory,
	repo ports.WorkflowRepository,
	eventBus ports.EventBus,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *commandhandlers.WorkflowHandlers {
	return commandhandlers.NewWorkflowHandlers(sessions, factory, repo, eventBus, metrics, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	handlers *commandhandlers.WorkflowHandlers,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	cfg *config.Config,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	middlewares := []bus.Middleware{bus.LoggingMiddleware(&zapLoggerAdapter{logger})}
	if cfg.EnableMetrics {
		middlewares = append(middlewares, bus.MetricsMiddleware(metrics))
	}
	if cfg.EnableTracing {
		middlewares = append(middlewares, bus.TracingMiddleware(tracer))
	}

	commandBus := bus.NewCommandBus(middlewares...)
	if err := handlers.Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryHandlers creates the workflow query handlers
func ProvideQueryHandlers(
	sessions *services.WorkflowSessions,
	repo ports.WorkflowRepository,
	c catalog.Catalog,
	logger *zap.Logger,
) *queryhandlers.WorkflowQueryHandlers {
	return queryhandlers.NewWorkflowQueryHandlers(sessions, repo, c, logger)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(handlers *queryhandlers.WorkflowQueryHandlers) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	if err := handlers.Register(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// zapLoggerAdapter adapts zap.Logger to the bus.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, fields ...interface{}) {
	a.logger.Info(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) Error(msg string, fields ...interface{}) {
	a.logger.Error(msg, a.fieldsToZap(fields...)...)
}

func (a *zapLoggerAdapter) fieldsToZap(fields ...interface{}) []zap.Field {
	var zapFields []zap.Field
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			key, _ := fields[i].(string)
			zapFields = append(zapFields, zap.Any(key, fields[i+1]))
		}
	}
	return zapFields
}
