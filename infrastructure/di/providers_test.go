package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workflowstudio/application/commands"
	"workflowstudio/application/dto"
	"workflowstudio/domain/catalog"
	"workflowstudio/domain/core/entities"
	"workflowstudio/infrastructure/config"
	"workflowstudio/infrastructure/messaging"
	"workflowstudio/infrastructure/persistence/memory"
	pkgerrors "workflowstudio/pkg/errors"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:      "development",
		AWSRegion:        "us-west-2",
		StorageBackend:   config.StorageMemory,
		LogLevel:         "error",
		MetricsNamespace: "WorkflowStudio",
		ServiceName:      "workflowstudio",
	}
}

func TestProvideLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := memoryConfig()
	cfg.LogLevel = "chatty"

	_, err := ProvideLogger(cfg)
	assert.ErrorContains(t, err, "invalid LOG_LEVEL")
}

func TestProvideWorkflowFactory_KnownTypesFollowConfig(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	dc, err := ProvideDomainConfig(memoryConfig())
	require.NoError(t, err)
	policy := ProvideConnectionPolicy(c, dc)

	dc.RequireKnownNodeTypes = true
	_, err = ProvideWorkflowFactory(c, policy, dc).New("strict").AddNode(entities.Node{ID: "A", Type: "bogus"})
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownType)

	dc.RequireKnownNodeTypes = false
	_, err = ProvideWorkflowFactory(c, policy, dc).New("loose").AddNode(entities.Node{ID: "A", Type: "bogus"})
	assert.NoError(t, err)
}

func TestInitializeContainer_MemoryBackend(t *testing.T) {
	container, err := InitializeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)

	assert.IsType(t, &memory.WorkflowRepository{}, container.Repository)
	assert.IsType(t, &messaging.LogPublisher{}, container.EventBus)

	result, err := container.CommandBus.Send(context.Background(), commands.CreateWorkflowCommand{Name: "wired"})
	require.NoError(t, err)
	view := result.(dto.WorkflowView)
	assert.Equal(t, "wired", view.Name)
	assert.Equal(t, 1, container.Sessions.Len())
}
