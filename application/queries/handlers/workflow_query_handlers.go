package handlers

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"workflowstudio/application/dto"
	"workflowstudio/application/ports"
	"workflowstudio/application/queries"
	"workflowstudio/application/queries/bus"
	"workflowstudio/application/services"
	"workflowstudio/domain/catalog"
	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/pkg/common"
	pkgerrors "workflowstudio/pkg/errors"
)

const defaultPageSize = 20

// WorkflowQueryHandlers answers read-only workflow queries
type WorkflowQueryHandlers struct {
	sessions *services.WorkflowSessions
	repo     ports.WorkflowRepository
	catalog  catalog.Catalog
	logger   *zap.Logger
}

// NewWorkflowQueryHandlers creates the query handler set
func NewWorkflowQueryHandlers(
	sessions *services.WorkflowSessions,
	repo ports.WorkflowRepository,
	c catalog.Catalog,
	logger *zap.Logger,
) *WorkflowQueryHandlers {
	return &WorkflowQueryHandlers{
		sessions: sessions,
		repo:     repo,
		catalog:  c,
		logger:   logger,
	}
}

// Register binds every workflow query to b
func (h *WorkflowQueryHandlers) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetSnapshotQuery{}, bus.Typed(h.HandleGetSnapshot)},
		{queries.ExportGraphQuery{}, bus.Typed(h.HandleExportGraph)},
		{queries.ListWorkflowsQuery{}, bus.Typed(h.HandleListWorkflows)},
		{queries.ListBlocksQuery{}, bus.Typed(h.HandleListBlocks)},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// HandleGetSnapshot returns the full state of an open workflow
func (h *WorkflowQueryHandlers) HandleGetSnapshot(_ context.Context, q queries.GetSnapshotQuery) (interface{}, error) {
	var view dto.WorkflowView
	err := h.sessions.View(valueobjects.WorkflowID(q.WorkflowID), func(w *aggregates.Workflow) error {
		view = dto.NewWorkflowView(w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// HandleExportGraph exports the open copy of a workflow, falling back to
// the saved one when it is not open.
func (h *WorkflowQueryHandlers) HandleExportGraph(ctx context.Context, q queries.ExportGraphQuery) (interface{}, error) {
	id := valueobjects.WorkflowID(q.WorkflowID)

	var doc aggregates.Document
	err := h.sessions.View(id, func(w *aggregates.Workflow) error {
		doc = w.Document()
		return nil
	})
	if pkgerrors.HasCode(err, pkgerrors.CodeWorkflowNotFound) {
		doc, err = h.repo.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return dto.NewGraphExport(doc), nil
}

// HandleListWorkflows merges open and saved workflows into one page.
// An open workflow shadows its saved copy.
func (h *WorkflowQueryHandlers) HandleListWorkflows(ctx context.Context, q queries.ListWorkflowsQuery) (interface{}, error) {
	saved, err := h.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list saved workflows")
	}

	savedIDs := make(map[string]struct{}, len(saved))
	for _, s := range saved {
		savedIDs[s.ID] = struct{}{}
	}

	open := h.sessions.List()
	all := make([]aggregates.Summary, 0, len(open)+len(saved))
	seen := make(map[string]struct{}, len(open))
	for _, s := range open {
		if _, ok := savedIDs[s.ID]; ok {
			s.Saved = true
		}
		seen[s.ID] = struct{}{}
		all = append(all, s)
	}
	for _, s := range saved {
		if _, ok := seen[s.ID]; !ok {
			all = append(all, s)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })

	page, pageSize := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	params := common.PaginationParams{Page: page, PageSize: pageSize}

	start := params.CalculateOffset()
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	h.logger.Debug("Listed workflows",
		zap.Int("open", len(open)),
		zap.Int("saved", len(saved)),
		zap.Int("total", len(all)),
	)
	return common.NewPaginatedResult(all[start:end], page, pageSize, len(all)), nil
}

// HandleListBlocks lists the node types the catalog knows
func (h *WorkflowQueryHandlers) HandleListBlocks(_ context.Context, q queries.ListBlocksQuery) (interface{}, error) {
	blocks := h.catalog.Blocks()
	if q.Category == "" {
		return blocks, nil
	}

	filtered := make([]catalog.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Category == q.Category {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}
