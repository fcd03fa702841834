package handlers

import (
	"context"

	"go.uber.org/zap"

	"workflowstudio/application/commands"
	"workflowstudio/application/commands/bus"
	"workflowstudio/application/dto"
	"workflowstudio/application/ports"
	"workflowstudio/application/services"
	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/domain/events"
	pkgerrors "workflowstudio/pkg/errors"
)

// GraphMetrics receives the graph size after every committed mutation
type GraphMetrics interface {
	RecordGraphSize(ctx context.Context, nodes, edges int)
}

// WorkflowHandlers executes every workflow command against the open sessions
type WorkflowHandlers struct {
	sessions *services.WorkflowSessions
	factory  *services.WorkflowFactory
	repo     ports.WorkflowRepository
	eventBus ports.EventBus
	metrics  GraphMetrics
	logger   *zap.Logger
}

// NewWorkflowHandlers creates the handler set. eventBus and metrics may be nil.
func NewWorkflowHandlers(
	sessions *services.WorkflowSessions,
	factory *services.WorkflowFactory,
	repo ports.WorkflowRepository,
	eventBus ports.EventBus,
	metrics GraphMetrics,
	logger *zap.Logger,
) *WorkflowHandlers {
	return &WorkflowHandlers{
		sessions: sessions,
		factory:  factory,
		repo:     repo,
		eventBus: eventBus,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register binds every workflow command to b
func (h *WorkflowHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateWorkflowCommand{}, bus.Typed(h.HandleCreateWorkflow)},
		{commands.ApplyNodeChangesCommand{}, bus.Typed(h.HandleApplyNodeChanges)},
		{commands.ApplyEdgeChangesCommand{}, bus.Typed(h.HandleApplyEdgeChanges)},
		{commands.ConnectCommand{}, bus.Typed(h.HandleConnect)},
		{commands.RemoveNodeCommand{}, bus.Typed(h.HandleRemoveNode)},
		{commands.ImportGraphCommand{}, bus.Typed(h.HandleImportGraph)},
		{commands.SaveWorkflowCommand{}, bus.Typed(h.HandleSaveWorkflow)},
		{commands.LoadWorkflowCommand{}, bus.Typed(h.HandleLoadWorkflow)},
		{commands.CloseWorkflowCommand{}, bus.Typed(h.HandleCloseWorkflow)},
		{commands.DeleteWorkflowCommand{}, bus.Typed(h.HandleDeleteWorkflow)},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// HandleCreateWorkflow opens a new empty workflow
func (h *WorkflowHandlers) HandleCreateWorkflow(ctx context.Context, cmd commands.CreateWorkflowCommand) (interface{}, error) {
	w := h.factory.New(cmd.Name)
	if err := h.sessions.Open(w, false); err != nil {
		return nil, err
	}

	var view dto.WorkflowView
	pending, err := h.sessions.Update(w.ID(), func(w *aggregates.Workflow) error {
		view = dto.NewWorkflowView(w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.publish(ctx, pending)

	h.logger.Info("Workflow created",
		zap.String("workflowID", view.ID),
		zap.String("name", view.Name),
	)
	return view, nil
}

// HandleApplyNodeChanges applies a node change batch
func (h *WorkflowHandlers) HandleApplyNodeChanges(ctx context.Context, cmd commands.ApplyNodeChangesCommand) (interface{}, error) {
	return h.mutate(ctx, cmd.WorkflowID, func(w *aggregates.Workflow) error {
		_, err := w.ApplyNodeChanges(cmd.Changes)
		return err
	})
}

// HandleApplyEdgeChanges applies an edge change batch
func (h *WorkflowHandlers) HandleApplyEdgeChanges(ctx context.Context, cmd commands.ApplyEdgeChangesCommand) (interface{}, error) {
	return h.mutate(ctx, cmd.WorkflowID, func(w *aggregates.Workflow) error {
		_, err := w.ApplyEdgeChanges(cmd.Changes)
		return err
	})
}

// HandleConnect runs a connection request
func (h *WorkflowHandlers) HandleConnect(ctx context.Context, cmd commands.ConnectCommand) (interface{}, error) {
	var result dto.ConnectResult
	_, err := h.mutate(ctx, cmd.WorkflowID, func(w *aggregates.Workflow) error {
		edge, err := w.Connect(cmd.Connection)
		if err != nil {
			return err
		}
		result = dto.ConnectResult{Edge: edge, Version: w.Version()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Edge == nil {
		h.logger.Debug("Connection request produced no edge",
			zap.String("workflowID", cmd.WorkflowID),
			zap.String("source", cmd.Connection.Source.String()),
			zap.String("target", cmd.Connection.Target.String()),
		)
	}
	return result, nil
}

// HandleRemoveNode removes a node and its incident edges
func (h *WorkflowHandlers) HandleRemoveNode(ctx context.Context, cmd commands.RemoveNodeCommand) (interface{}, error) {
	return h.mutate(ctx, cmd.WorkflowID, func(w *aggregates.Workflow) error {
		_, err := w.RemoveNode(valueobjects.NodeID(cmd.NodeID))
		return err
	})
}

// HandleImportGraph replaces the graph wholesale
func (h *WorkflowHandlers) HandleImportGraph(ctx context.Context, cmd commands.ImportGraphCommand) (interface{}, error) {
	return h.mutate(ctx, cmd.WorkflowID, func(w *aggregates.Workflow) error {
		return w.ImportGraph(cmd.Nodes, cmd.Edges)
	})
}

// HandleSaveWorkflow persists the exported graph
func (h *WorkflowHandlers) HandleSaveWorkflow(ctx context.Context, cmd commands.SaveWorkflowCommand) (interface{}, error) {
	id := valueobjects.WorkflowID(cmd.WorkflowID)

	var doc aggregates.Document
	if err := h.sessions.View(id, func(w *aggregates.Workflow) error {
		doc = w.Document()
		return nil
	}); err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, doc); err != nil {
		return nil, pkgerrors.Wrap(err, "save workflow")
	}
	h.sessions.MarkSaved(id, doc.Version)

	h.logger.Info("Workflow saved",
		zap.String("workflowID", doc.ID),
		zap.Int("version", doc.Version),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("edges", len(doc.Edges)),
	)

	summary := doc.Summarize()
	summary.Open = true
	summary.Saved = true
	return summary, nil
}

// HandleLoadWorkflow opens a saved workflow
func (h *WorkflowHandlers) HandleLoadWorkflow(ctx context.Context, cmd commands.LoadWorkflowCommand) (interface{}, error) {
	doc, err := h.repo.GetByID(ctx, valueobjects.WorkflowID(cmd.WorkflowID))
	if err != nil {
		return nil, err
	}

	w, err := h.factory.Reconstruct(doc)
	if err != nil {
		h.logger.Warn("Stored workflow rejected",
			zap.String("workflowID", cmd.WorkflowID),
			zap.Error(err),
		)
		return nil, err
	}
	if err := h.sessions.Open(w, true); err != nil {
		return nil, err
	}

	var view dto.WorkflowView
	err = h.sessions.View(w.ID(), func(w *aggregates.Workflow) error {
		view = dto.NewWorkflowView(w)
		return nil
	})
	return view, err
}

// HandleCloseWorkflow drops an open workflow
func (h *WorkflowHandlers) HandleCloseWorkflow(_ context.Context, cmd commands.CloseWorkflowCommand) (interface{}, error) {
	if err := h.sessions.Close(valueobjects.WorkflowID(cmd.WorkflowID)); err != nil {
		return nil, err
	}
	h.logger.Info("Workflow closed", zap.String("workflowID", cmd.WorkflowID))
	return nil, nil
}

// HandleDeleteWorkflow removes the saved copy of a workflow
func (h *WorkflowHandlers) HandleDeleteWorkflow(ctx context.Context, cmd commands.DeleteWorkflowCommand) (interface{}, error) {
	id := valueobjects.WorkflowID(cmd.WorkflowID)
	if err := h.repo.Delete(ctx, id); err != nil {
		return nil, pkgerrors.Wrap(err, "delete workflow")
	}
	h.sessions.MarkUnsaved(id)

	h.logger.Info("Saved workflow deleted",
		zap.String("workflowID", cmd.WorkflowID),
		zap.Bool("open", h.sessions.IsOpen(id)),
	)
	return nil, nil
}

// mutate runs fn as the workflow's writer, then publishes the recorded
// events and returns the resulting state.
func (h *WorkflowHandlers) mutate(ctx context.Context, workflowID string, fn func(w *aggregates.Workflow) error) (dto.WorkflowView, error) {
	var view dto.WorkflowView
	pending, err := h.sessions.Update(valueobjects.WorkflowID(workflowID), func(w *aggregates.Workflow) error {
		if err := fn(w); err != nil {
			return err
		}
		view = dto.NewWorkflowView(w)
		return nil
	})
	if err != nil {
		return dto.WorkflowView{}, err
	}

	h.publish(ctx, pending)
	if h.metrics != nil && len(pending) > 0 {
		h.metrics.RecordGraphSize(ctx, len(view.Nodes), len(view.Edges))
	}
	return view, nil
}

func (h *WorkflowHandlers) publish(ctx context.Context, pending []events.DomainEvent) {
	if h.eventBus == nil || len(pending) == 0 {
		return
	}
	// Log error but don't fail - the graph change is already committed
	if err := h.eventBus.PublishBatch(ctx, pending); err != nil {
		h.logger.Warn("Failed to publish workflow events",
			zap.String("workflowID", pending[0].GetAggregateID()),
			zap.Int("count", len(pending)),
			zap.Error(err),
		)
	}
}
