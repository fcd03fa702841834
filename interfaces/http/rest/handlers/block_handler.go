package handlers

import (
	"net/http"

	"workflowstudio/application/queries"
	querybus "workflowstudio/application/queries/bus"
	"workflowstudio/pkg/common"
	pkgerrors "workflowstudio/pkg/errors"

	"go.uber.org/zap"
)

// BlockHandler serves the block catalog
type BlockHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewBlockHandler creates a new block handler
func NewBlockHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *BlockHandler {
	return &BlockHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// ListBlocks handles GET /blocks
func (h *BlockHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListBlocksQuery{
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, h.logger, http.StatusOK, result)
}
