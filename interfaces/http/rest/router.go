package rest

import (
	"net/http"

	"workflowstudio/application/commands/bus"
	querybus "workflowstudio/application/queries/bus"
	"workflowstudio/interfaces/http/rest/handlers"
	"workflowstudio/interfaces/http/rest/middleware"
	pkgerrors "workflowstudio/pkg/errors"
	"workflowstudio/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options tunes the optional parts of the router
type Options struct {
	// CORSOrigins enables CORS for the listed origins when non-empty
	CORSOrigins []string
	// Tracer opens an X-Ray segment per request when set
	Tracer *observability.Tracer
	// Debug exposes internal error messages in responses
	Debug bool
}

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
	options    Options
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
	options Options,
) *Router {
	return &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
		options:    options,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.options.Debug)

	if rt.options.Tracer != nil {
		router.Use(rt.options.Tracer.Middleware)
	}
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger, "/health", "/ready"))

	if len(rt.options.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.options.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	workflows := handlers.NewWorkflowHandler(rt.commandBus, rt.queryBus, errorHandler, rt.logger)
	blocks := handlers.NewBlockHandler(rt.queryBus, errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/workflows", func(r chi.Router) {
			r.Post("/", workflows.CreateWorkflow)
			r.Get("/", workflows.ListWorkflows)

			r.Route("/{workflowID}", func(r chi.Router) {
				r.Get("/", workflows.GetWorkflow)
				r.Delete("/", workflows.CloseWorkflow)
				r.Post("/node-changes", workflows.ApplyNodeChanges)
				r.Post("/edge-changes", workflows.ApplyEdgeChanges)
				r.Post("/connections", workflows.Connect)
				r.Delete("/nodes/{nodeID}", workflows.RemoveNode)
				r.Get("/export", workflows.ExportGraph)
				r.Put("/import", workflows.ImportGraph)
				r.Post("/save", workflows.SaveWorkflow)
				r.Post("/load", workflows.LoadWorkflow)
				r.Delete("/saved", workflows.DeleteSavedWorkflow)
			})
		})

		r.Get("/blocks", blocks.ListBlocks)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready once both buses are wired
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.commandBus == nil || rt.queryBus == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
