package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workflowstudio/application/dto"
	"workflowstudio/application/queries"
	"workflowstudio/application/queries/bus"
	"workflowstudio/application/services"
	"workflowstudio/domain/catalog"
	"workflowstudio/domain/config"
	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/infrastructure/persistence/memory"
	"workflowstudio/pkg/common"
	pkgerrors "workflowstudio/pkg/errors"
)

type fixture struct {
	handlers *WorkflowQueryHandlers
	sessions *services.WorkflowSessions
	repo     *memory.WorkflowRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)

	f := &fixture{
		sessions: services.NewWorkflowSessions(config.DefaultDomainConfig(), zap.NewNop()),
		repo:     memory.NewWorkflowRepository(),
	}
	f.handlers = NewWorkflowQueryHandlers(f.sessions, f.repo, c, zap.NewNop())
	return f
}

func (f *fixture) open(t *testing.T, name string) *aggregates.Workflow {
	t.Helper()
	w := aggregates.NewWorkflow(name)
	_, err := w.AddNode(entities.Node{ID: "A", Type: entities.DefaultNodeType})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Open(w, false))
	return w
}

func savedDocument(name string, updated time.Time) aggregates.Document {
	return aggregates.Document{
		ID:        valueobjects.NewWorkflowID().String(),
		Name:      name,
		Nodes:     []entities.Node{{ID: "X", Type: entities.DefaultNodeType}},
		Version:   1,
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestHandleGetSnapshot(t *testing.T) {
	f := newFixture(t)
	w := f.open(t, "flow")

	result, err := f.handlers.HandleGetSnapshot(context.Background(), queries.GetSnapshotQuery{WorkflowID: w.ID().String()})
	require.NoError(t, err)

	view := result.(dto.WorkflowView)
	assert.Equal(t, "flow", view.Name)
	require.Len(t, view.Nodes, 1)

	_, err = f.handlers.HandleGetSnapshot(context.Background(), queries.GetSnapshotQuery{WorkflowID: valueobjects.NewWorkflowID().String()})
	assert.ErrorIs(t, err, pkgerrors.ErrWorkflowNotFound)
}

func TestHandleExportGraph(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("open workflow drops renderer state", func(t *testing.T) {
		w := aggregates.NewWorkflow("flow")
		_, err := w.AddNode(entities.Node{
			ID:         "A",
			Type:       entities.DefaultNodeType,
			Dragging:   true,
			Dimensions: &valueobjects.Dimensions{Width: 10, Height: 20},
		})
		require.NoError(t, err)
		require.NoError(t, f.sessions.Open(w, false))

		result, err := f.handlers.HandleExportGraph(ctx, queries.ExportGraphQuery{WorkflowID: w.ID().String()})
		require.NoError(t, err)

		export := result.(dto.GraphExport)
		require.Len(t, export.Nodes, 1)
		assert.False(t, export.Nodes[0].Dragging)
		assert.Nil(t, export.Nodes[0].Dimensions)
	})

	t.Run("saved workflow", func(t *testing.T) {
		doc := savedDocument("stored", time.Now())
		require.NoError(t, f.repo.Save(ctx, doc))

		result, err := f.handlers.HandleExportGraph(ctx, queries.ExportGraphQuery{WorkflowID: doc.ID})
		require.NoError(t, err)
		assert.Equal(t, "stored", result.(dto.GraphExport).Name)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		_, err := f.handlers.HandleExportGraph(ctx, queries.ExportGraphQuery{WorkflowID: valueobjects.NewWorkflowID().String()})
		assert.ErrorIs(t, err, pkgerrors.ErrWorkflowNotFound)
	})
}

func TestHandleListWorkflows_MergesOpenAndSaved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	open := f.open(t, "open")
	require.NoError(t, f.repo.Save(ctx, open.Document()))
	require.NoError(t, f.repo.Save(ctx, savedDocument("saved only", time.Now().Add(-time.Hour))))

	result, err := f.handlers.HandleListWorkflows(ctx, queries.ListWorkflowsQuery{})
	require.NoError(t, err)

	page := result.(*common.PaginatedResult)
	items := page.Items.([]aggregates.Summary)
	require.Len(t, items, 2)
	assert.Equal(t, 2, page.Pagination.Total)

	assert.Equal(t, open.ID().String(), items[0].ID)
	assert.True(t, items[0].Open)
	assert.True(t, items[0].Saved)

	assert.Equal(t, "saved only", items[1].Name)
	assert.False(t, items[1].Open)
	assert.True(t, items[1].Saved)
}

func TestHandleListWorkflows_Paginates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, f.repo.Save(ctx, savedDocument("w", base.Add(-time.Duration(i)*time.Minute))))
	}

	result, err := f.handlers.HandleListWorkflows(ctx, queries.ListWorkflowsQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	page := result.(*common.PaginatedResult)
	assert.Len(t, page.Items.([]aggregates.Summary), 2)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)

	result, err = f.handlers.HandleListWorkflows(ctx, queries.ListWorkflowsQuery{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, result.(*common.PaginatedResult).Items.([]aggregates.Summary))
}

func TestHandleListBlocks(t *testing.T) {
	f := newFixture(t)

	result, err := f.handlers.HandleListBlocks(context.Background(), queries.ListBlocksQuery{})
	require.NoError(t, err)
	all := result.([]catalog.Block)
	assert.NotEmpty(t, all)

	result, err = f.handlers.HandleListBlocks(context.Background(), queries.ListBlocksQuery{Category: "ai"})
	require.NoError(t, err)
	ai := result.([]catalog.Block)
	require.NotEmpty(t, ai)
	for _, b := range ai {
		assert.Equal(t, "ai", b.Category)
	}
	assert.Less(t, len(ai), len(all))
}

func TestRegister_QueriesThroughBus(t *testing.T) {
	f := newFixture(t)
	b := bus.NewQueryBus()
	require.NoError(t, f.handlers.Register(b))

	_, err := b.Ask(context.Background(), queries.GetSnapshotQuery{WorkflowID: "not-a-uuid"})
	assert.True(t, pkgerrors.IsValidation(err))

	result, err := b.Ask(context.Background(), queries.ListBlocksQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, result)
}
