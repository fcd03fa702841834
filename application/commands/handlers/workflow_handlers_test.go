package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workflowstudio/application/commands"
	"workflowstudio/application/commands/bus"
	"workflowstudio/application/dto"
	"workflowstudio/application/services"
	"workflowstudio/domain/config"
	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/changes"
	"workflowstudio/domain/core/entities"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/domain/events"
	"workflowstudio/infrastructure/persistence/memory"
	pkgerrors "workflowstudio/pkg/errors"
)

type recordingBus struct {
	mu        sync.Mutex
	published []events.DomainEvent
	err       error
}

func (b *recordingBus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

func (b *recordingBus) PublishBatch(_ context.Context, batch []events.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, batch...)
	return nil
}

func (b *recordingBus) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.published))
	for i, e := range b.published {
		out[i] = e.GetEventType()
	}
	return out
}

type graphSizes struct {
	nodes, edges []int
}

func (g *graphSizes) RecordGraphSize(_ context.Context, nodes, edges int) {
	g.nodes = append(g.nodes, nodes)
	g.edges = append(g.edges, edges)
}

type fixture struct {
	handlers *WorkflowHandlers
	sessions *services.WorkflowSessions
	repo     *memory.WorkflowRepository
	events   *recordingBus
	sizes    *graphSizes
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	f := &fixture{
		sessions: services.NewWorkflowSessions(cfg, zap.NewNop()),
		repo:     memory.NewWorkflowRepository(),
		events:   &recordingBus{},
		sizes:    &graphSizes{},
	}
	factory := services.NewWorkflowFactory(aggregates.WithDomainConfig(cfg))
	f.handlers = NewWorkflowHandlers(f.sessions, factory, f.repo, f.events, f.sizes, zap.NewNop())
	return f
}

func (f *fixture) create(t *testing.T) dto.WorkflowView {
	t.Helper()
	result, err := f.handlers.HandleCreateWorkflow(context.Background(), commands.CreateWorkflowCommand{Name: "flow"})
	require.NoError(t, err)
	return result.(dto.WorkflowView)
}

func (f *fixture) addNodes(t *testing.T, workflowID string, ids ...string) dto.WorkflowView {
	t.Helper()
	batch := make([]changes.NodeChange, len(ids))
	for i, id := range ids {
		batch[i] = changes.NodeAdd{Node: entities.Node{
			ID:       valueobjects.NodeID(id),
			Type:     entities.DefaultNodeType,
			Position: valueobjects.Position{X: float64(i * 100)},
		}}
	}
	result, err := f.handlers.HandleApplyNodeChanges(context.Background(), commands.ApplyNodeChangesCommand{
		WorkflowID: workflowID,
		Changes:    batch,
	})
	require.NoError(t, err)
	return result.(dto.WorkflowView)
}

func TestHandleCreateWorkflow(t *testing.T) {
	f := newFixture(t)

	view := f.create(t)

	assert.Equal(t, "flow", view.Name)
	assert.Empty(t, view.Nodes)
	assert.True(t, f.sessions.IsOpen(valueobjects.WorkflowID(view.ID)))
	assert.Equal(t, []string{events.TypeWorkflowCreated}, f.events.types())
}

func TestHandleApplyNodeChanges(t *testing.T) {
	f := newFixture(t)
	wf := f.create(t)

	view := f.addNodes(t, wf.ID, "A", "B")

	require.Len(t, view.Nodes, 2)
	assert.Equal(t, valueobjects.NodeID("A"), view.Nodes[0].ID)
	assert.Contains(t, f.events.types(), events.TypeNodesChanged)
	assert.Equal(t, []int{2}, f.sizes.nodes)
}

func TestHandleApplyNodeChanges_RejectedBatchPublishesNothing(t *testing.T) {
	f := newFixture(t)
	wf := f.create(t)
	f.addNodes(t, wf.ID, "A")
	published := len(f.events.types())

	_, err := f.handlers.HandleApplyNodeChanges(context.Background(), commands.ApplyNodeChangesCommand{
		WorkflowID: wf.ID,
		Changes:    []changes.NodeChange{changes.NodeAdd{Node: entities.Node{ID: "A", Type: entities.DefaultNodeType}}},
	})

	assert.ErrorIs(t, err, pkgerrors.ErrDuplicateID)
	assert.Len(t, f.events.types(), published)
}

func TestHandleConnect(t *testing.T) {
	f := newFixture(t)
	wf := f.create(t)
	f.addNodes(t, wf.ID, "A", "B")

	cmd := commands.ConnectCommand{
		WorkflowID: wf.ID,
		Connection: entities.Connection{Source: "A", Target: "B"},
	}

	result, err := f.handlers.HandleConnect(context.Background(), cmd)
	require.NoError(t, err)
	first := result.(dto.ConnectResult)
	require.NotNil(t, first.Edge)
	assert.Equal(t, valueobjects.NodeID("A"), first.Edge.Source)

	result, err = f.handlers.HandleConnect(context.Background(), cmd)
	require.NoError(t, err)
	second := result.(dto.ConnectResult)
	assert.Nil(t, second.Edge)
	assert.Equal(t, first.Version, second.Version)

	_, err = f.handlers.HandleConnect(context.Background(), commands.ConnectCommand{
		WorkflowID: wf.ID,
		Connection: entities.Connection{Source: "A", Target: "missing"},
	})
	assert.ErrorIs(t, err, pkgerrors.ErrUnknownNode)
}

func TestHandleRemoveNode(t *testing.T) {
	f := newFixture(t)
	wf := f.create(t)
	f.addNodes(t, wf.ID, "A", "B")
	_, err := f.handlers.HandleConnect(context.Background(), commands.ConnectCommand{
		WorkflowID: wf.ID,
		Connection: entities.Connection{Source: "A", Target: "B"},
	})
	require.NoError(t, err)

	result, err := f.handlers.HandleRemoveNode(context.Background(), commands.RemoveNodeCommand{WorkflowID: wf.ID, NodeID: "A"})
	require.NoError(t, err)

	view := result.(dto.WorkflowView)
	require.Len(t, view.Nodes, 1)
	assert.Empty(t, view.Edges)
	assert.Contains(t, f.events.types(), events.TypeNodeRemoved)
}

func TestHandleImportGraph(t *testing.T) {
	f := newFixture(t)
	wf := f.create(t)
	f.addNodes(t, wf.ID, "A")

	_, err := f.handlers.HandleImportGraph(context.Background(), commands.ImportGraphCommand{
		WorkflowID: wf.ID,
		Nodes:      []entities.Node{{ID: "X", Type: entities.DefaultNodeType}},
		Edges:      []entities.Edge{{ID: "e1", Source: "X", Target: "ghost"}},
	})
	require.ErrorIs(t, err, pkgerrors.ErrInvalidGraph)

	var nodes []entities.Node
	require.NoError(t, f.sessions.View(valueobjects.WorkflowID(wf.ID), func(w *aggregates.Workflow) error {
		nodes = w.Nodes()
		return nil
	}))
	require.Len(t, nodes, 1)
	assert.Equal(t, valueobjects.NodeID("A"), nodes[0].ID)
}

func TestHandleSaveAndLoadWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	wf := f.create(t)
	f.addNodes(t, wf.ID, "A", "B")

	result, err := f.handlers.HandleSaveWorkflow(ctx, commands.SaveWorkflowCommand{WorkflowID: wf.ID})
	require.NoError(t, err)
	summary := result.(aggregates.Summary)
	assert.True(t, summary.Saved)
	assert.Equal(t, 2, summary.NodeCount)

	_, err = f.handlers.HandleCloseWorkflow(ctx, commands.CloseWorkflowCommand{WorkflowID: wf.ID})
	require.NoError(t, err)
	assert.False(t, f.sessions.IsOpen(valueobjects.WorkflowID(wf.ID)))

	result, err = f.handlers.HandleLoadWorkflow(ctx, commands.LoadWorkflowCommand{WorkflowID: wf.ID})
	require.NoError(t, err)
	view := result.(dto.WorkflowView)
	assert.Equal(t, wf.ID, view.ID)
	assert.Len(t, view.Nodes, 2)
	assert.True(t, f.sessions.IsOpen(valueobjects.WorkflowID(wf.ID)))
}

func TestHandleDeleteWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	wf := f.create(t)
	id := valueobjects.WorkflowID(wf.ID)
	_, err := f.handlers.HandleSaveWorkflow(ctx, commands.SaveWorkflowCommand{WorkflowID: wf.ID})
	require.NoError(t, err)

	_, err = f.handlers.HandleDeleteWorkflow(ctx, commands.DeleteWorkflowCommand{WorkflowID: wf.ID})
	require.NoError(t, err)

	_, err = f.repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, pkgerrors.ErrWorkflowNotFound)
	assert.True(t, f.sessions.IsOpen(id))
	summaries := f.sessions.List()
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].Saved)

	_, err = f.handlers.HandleDeleteWorkflow(ctx, commands.DeleteWorkflowCommand{WorkflowID: wf.ID})
	assert.ErrorIs(t, err, pkgerrors.ErrWorkflowNotFound)
}

func TestEmptyBatchesAreNoops(t *testing.T) {
	f := newFixture(t)
	b := bus.NewCommandBus()
	require.NoError(t, f.handlers.Register(b))
	wf := f.addNodes(t, f.create(t).ID, "A")
	published := len(f.events.types())

	result, err := b.Send(context.Background(), commands.ApplyNodeChangesCommand{WorkflowID: wf.ID})
	require.NoError(t, err)
	assert.Equal(t, wf.Version, result.(dto.WorkflowView).Version)
	assert.Len(t, result.(dto.WorkflowView).Nodes, 1)

	result, err = b.Send(context.Background(), commands.ApplyEdgeChangesCommand{WorkflowID: wf.ID, Changes: []changes.EdgeChange{}})
	require.NoError(t, err)
	assert.Equal(t, wf.Version, result.(dto.WorkflowView).Version)

	assert.Len(t, f.events.types(), published)
}

func TestHandleLoadWorkflow_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.handlers.HandleLoadWorkflow(context.Background(), commands.LoadWorkflowCommand{
		WorkflowID: valueobjects.NewWorkflowID().String(),
	})
	assert.ErrorIs(t, err, pkgerrors.ErrWorkflowNotFound)
}

func TestPublishFailureDoesNotFailCommand(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("bus down")

	result, err := f.handlers.HandleCreateWorkflow(context.Background(), commands.CreateWorkflowCommand{Name: "flow"})

	require.NoError(t, err)
	assert.NotEmpty(t, result.(dto.WorkflowView).ID)
}

func TestRegister_DispatchesThroughBus(t *testing.T) {
	f := newFixture(t)
	b := bus.NewCommandBus()
	require.NoError(t, f.handlers.Register(b))

	result, err := b.Send(context.Background(), commands.CreateWorkflowCommand{Name: "via bus"})
	require.NoError(t, err)
	wf := result.(dto.WorkflowView)

	_, err = b.Send(context.Background(), commands.RemoveNodeCommand{WorkflowID: wf.ID})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = b.Send(context.Background(), commands.SaveWorkflowCommand{WorkflowID: valueobjects.NewWorkflowID().String()})
	assert.ErrorIs(t, err, pkgerrors.ErrWorkflowNotFound)

	assert.Error(t, f.handlers.Register(b))
}
