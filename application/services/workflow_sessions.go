package services

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"workflowstudio/domain/config"
	"workflowstudio/domain/core/aggregates"
	"workflowstudio/domain/core/valueobjects"
	"workflowstudio/domain/events"
	pkgerrors "workflowstudio/pkg/errors"
)

// WorkflowFactory builds workflows wired with the catalog, connection policy
// and limits of this deployment.
type WorkflowFactory struct {
	options []aggregates.Option
}

// NewWorkflowFactory creates a factory applying opts to every workflow.
func NewWorkflowFactory(opts ...aggregates.Option) *WorkflowFactory {
	return &WorkflowFactory{options: opts}
}

// New creates an empty workflow.
func (f *WorkflowFactory) New(name string) *aggregates.Workflow {
	return aggregates.NewWorkflow(name, f.options...)
}

// Reconstruct rebuilds a saved workflow, revalidating its graph.
func (f *WorkflowFactory) Reconstruct(doc aggregates.Document) (*aggregates.Workflow, error) {
	return aggregates.ReconstructWorkflow(doc, f.options...)
}

type session struct {
	// mu serializes writers; readers share it so they never observe a
	// slice header mid-swap.
	mu         sync.RWMutex
	workflow   *aggregates.Workflow
	lastAccess time.Time
	saved      bool
	// savedVersion is the workflow version the persisted copy holds.
	savedVersion int
}

// unsaved reports whether the graph holds changes the persisted copy lacks.
func (s *session) unsaved() bool {
	return !s.saved || s.workflow.Version() != s.savedVersion
}

// WorkflowSessions is the registry of open workflow graphs. Each workflow has
// exactly one writer at a time.
type WorkflowSessions struct {
	mu       sync.RWMutex
	sessions map[valueobjects.WorkflowID]*session
	maxOpen  int
	now      func() time.Time
	logger   *zap.Logger
}

// NewWorkflowSessions creates an empty registry.
func NewWorkflowSessions(cfg *config.DomainConfig, logger *zap.Logger) *WorkflowSessions {
	return &WorkflowSessions{
		sessions: make(map[valueobjects.WorkflowID]*session),
		maxOpen:  cfg.MaxOpenWorkflows,
		now:      time.Now,
		logger:   logger,
	}
}

// Open registers a workflow. Opening an id that is already open replaces
// the open graph.
func (s *WorkflowSessions) Open(w *aggregates.Workflow, saved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[w.ID()]; !exists && s.maxOpen > 0 && len(s.sessions) >= s.maxOpen {
		return pkgerrors.NewGraphLimitExceededError("open workflow", s.maxOpen)
	}

	sess := &session{workflow: w, lastAccess: s.now(), saved: saved}
	if saved {
		sess.savedVersion = w.Version()
	}
	s.sessions[w.ID()] = sess
	s.logger.Debug("Workflow opened",
		zap.String("workflowID", w.ID().String()),
		zap.Int("openWorkflows", len(s.sessions)),
	)
	return nil
}

// IsOpen reports whether id is held in memory.
func (s *WorkflowSessions) IsOpen(id valueobjects.WorkflowID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// Update runs fn as the single writer of the workflow and returns the
// domain events the mutation recorded. Events are drained even when fn
// fails, though failed mutations record none.
func (s *WorkflowSessions) Update(id valueobjects.WorkflowID, fn func(w *aggregates.Workflow) error) ([]events.DomainEvent, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	err = fn(sess.workflow)
	pending := sess.workflow.GetUncommittedEvents()
	sess.workflow.MarkEventsAsCommitted()
	sess.lastAccess = s.now()
	return pending, err
}

// View runs fn with shared access to the workflow. fn must not mutate it.
func (s *WorkflowSessions) View(id valueobjects.WorkflowID, fn func(w *aggregates.Workflow) error) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()
	return fn(sess.workflow)
}

// MarkSaved records that the workflow has a persisted copy at version.
func (s *WorkflowSessions) MarkSaved(id valueobjects.WorkflowID, version int) {
	if sess, err := s.get(id); err == nil {
		sess.mu.Lock()
		sess.saved = true
		sess.savedVersion = version
		sess.mu.Unlock()
	}
}

// MarkUnsaved records that the persisted copy of the workflow is gone.
func (s *WorkflowSessions) MarkUnsaved(id valueobjects.WorkflowID) {
	if sess, err := s.get(id); err == nil {
		sess.mu.Lock()
		sess.saved = false
		sess.savedVersion = 0
		sess.mu.Unlock()
	}
}

// Close drops a workflow from memory.
func (s *WorkflowSessions) Close(id valueobjects.WorkflowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return pkgerrors.NewWorkflowNotFoundError(id.String())
	}
	delete(s.sessions, id)
	return nil
}

// EvictIdle closes every workflow untouched for longer than idle and returns
// how many were closed. Unsaved changes of an evicted workflow are lost;
// their ids are logged at warn level.
func (s *WorkflowSessions) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	var discarded []string
	for id, sess := range s.sessions {
		sess.mu.RLock()
		stale := sess.lastAccess.Before(cutoff)
		unsaved := sess.unsaved()
		sess.mu.RUnlock()
		if stale {
			delete(s.sessions, id)
			evicted++
			if unsaved {
				discarded = append(discarded, id.String())
			}
		}
	}
	if len(discarded) > 0 {
		sort.Strings(discarded)
		s.logger.Warn("Evicted workflows with unsaved changes",
			zap.Strings("workflowIDs", discarded),
			zap.Duration("idle", idle),
		)
	}
	if evicted > 0 {
		s.logger.Info("Evicted idle workflows", zap.Int("count", evicted))
	}
	return evicted
}

// List summarizes every open workflow, most recently updated first.
func (s *WorkflowSessions) List() []aggregates.Summary {
	s.mu.RLock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.RUnlock()

	out := make([]aggregates.Summary, 0, len(open))
	for _, sess := range open {
		sess.mu.RLock()
		w := sess.workflow
		out = append(out, aggregates.Summary{
			ID:        w.ID().String(),
			Name:      w.Name(),
			NodeCount: w.NodeCount(),
			EdgeCount: w.EdgeCount(),
			Version:   w.Version(),
			Open:      true,
			Saved:     sess.saved,
			UpdatedAt: w.UpdatedAt(),
		})
		sess.mu.RUnlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// Len returns the number of open workflows.
func (s *WorkflowSessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *WorkflowSessions) get(id valueobjects.WorkflowID) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewWorkflowNotFoundError(id.String())
	}
	return sess, nil
}
