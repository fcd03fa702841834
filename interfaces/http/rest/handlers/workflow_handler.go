package handlers

import (
	"errors"
	"io"
	"net/http"

	"workflowstudio/application/commands"
	"workflowstudio/application/commands/bus"
	"workflowstudio/application/dto"
	"workflowstudio/application/queries"
	querybus "workflowstudio/application/queries/bus"
	"workflowstudio/domain/core/changes"
	"workflowstudio/domain/core/entities"
	"workflowstudio/pkg/common"
	pkgerrors "workflowstudio/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WorkflowHandler handles workflow graph HTTP requests
type WorkflowHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateWorkflowRequest is the body of POST /workflows
type CreateWorkflowRequest struct {
	Name string `json:"name"`
}

// NodeChangesRequest is the body of POST /workflows/{id}/node-changes
type NodeChangesRequest struct {
	Changes []changes.Envelope `json:"changes"`
}

// EdgeChangesRequest is the body of POST /workflows/{id}/edge-changes
type EdgeChangesRequest struct {
	Changes []changes.Envelope `json:"changes"`
}

// ImportGraphRequest is the body of PUT /workflows/{id}/import
type ImportGraphRequest struct {
	Nodes []entities.Node `json:"nodes"`
	Edges []entities.Edge `json:"edges"`
}

// CreateWorkflow handles POST /workflows
func (h *WorkflowHandler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	// The body is optional
	var req CreateWorkflowRequest
	if err := common.ParseJSONBody(w, r, &req, common.MaxRequestBodySize); err != nil && !errors.Is(err, io.EOF) {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	h.send(w, r, http.StatusCreated, commands.CreateWorkflowCommand{Name: req.Name})
}

// ListWorkflows handles GET /workflows
func (h *WorkflowHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r)
	h.ask(w, r, queries.ListWorkflowsQuery{Page: params.Page, PageSize: params.PageSize})
}

// GetWorkflow handles GET /workflows/{workflowID}
func (h *WorkflowHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetSnapshotQuery{WorkflowID: workflowID(r)})
}

// CloseWorkflow handles DELETE /workflows/{workflowID}
func (h *WorkflowHandler) CloseWorkflow(w http.ResponseWriter, r *http.Request) {
	if _, err := h.commandBus.Send(r.Context(), commands.CloseWorkflowCommand{WorkflowID: workflowID(r)}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSavedWorkflow handles DELETE /workflows/{workflowID}/saved
func (h *WorkflowHandler) DeleteSavedWorkflow(w http.ResponseWriter, r *http.Request) {
	if _, err := h.commandBus.Send(r.Context(), commands.DeleteWorkflowCommand{WorkflowID: workflowID(r)}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyNodeChanges handles POST /workflows/{workflowID}/node-changes
func (h *WorkflowHandler) ApplyNodeChanges(w http.ResponseWriter, r *http.Request) {
	var req NodeChangesRequest
	if !h.decode(w, r, &req) {
		return
	}

	batch, err := changes.DecodeNodeChanges(req.Changes)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.send(w, r, http.StatusOK, commands.ApplyNodeChangesCommand{
		WorkflowID: workflowID(r),
		Changes:    batch,
	})
}

// ApplyEdgeChanges handles POST /workflows/{workflowID}/edge-changes
func (h *WorkflowHandler) ApplyEdgeChanges(w http.ResponseWriter, r *http.Request) {
	var req EdgeChangesRequest
	if !h.decode(w, r, &req) {
		return
	}

	batch, err := changes.DecodeEdgeChanges(req.Changes)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.send(w, r, http.StatusOK, commands.ApplyEdgeChangesCommand{
		WorkflowID: workflowID(r),
		Changes:    batch,
	})
}

// Connect handles POST /workflows/{workflowID}/connections. A request that
// produces no edge answers 200 with a null edge.
func (h *WorkflowHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req entities.Connection
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.ConnectCommand{
		WorkflowID: workflowID(r),
		Connection: req,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	status := http.StatusOK
	if connected, ok := result.(dto.ConnectResult); ok && connected.Edge != nil {
		status = http.StatusCreated
	}
	common.RespondJSON(w, h.logger, status, result)
}

// RemoveNode handles DELETE /workflows/{workflowID}/nodes/{nodeID}
func (h *WorkflowHandler) RemoveNode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.RemoveNodeCommand{
		WorkflowID: workflowID(r),
		NodeID:     chi.URLParam(r, "nodeID"),
	})
}

// ExportGraph handles GET /workflows/{workflowID}/export
func (h *WorkflowHandler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ExportGraphQuery{WorkflowID: workflowID(r)})
}

// ImportGraph handles PUT /workflows/{workflowID}/import
func (h *WorkflowHandler) ImportGraph(w http.ResponseWriter, r *http.Request) {
	var req ImportGraphRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.send(w, r, http.StatusOK, commands.ImportGraphCommand{
		WorkflowID: workflowID(r),
		Nodes:      req.Nodes,
		Edges:      req.Edges,
	})
}

// SaveWorkflow handles POST /workflows/{workflowID}/save
func (h *WorkflowHandler) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.SaveWorkflowCommand{WorkflowID: workflowID(r)})
}

// LoadWorkflow handles POST /workflows/{workflowID}/load
func (h *WorkflowHandler) LoadWorkflow(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.LoadWorkflowCommand{WorkflowID: workflowID(r)})
}

// Helper methods

func workflowID(r *http.Request) string {
	return chi.URLParam(r, "workflowID")
}

func (h *WorkflowHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, common.MaxRequestBodySize); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (h *WorkflowHandler) send(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, h.logger, status, result)
}

func (h *WorkflowHandler) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, h.logger, http.StatusOK, result)
}
