package rest

import (
	"net/http"

	"mindcanvas/infrastructure/config"
	"mindcanvas/interfaces/http/rest/handlers"
	"mindcanvas/interfaces/http/rest/middleware"
	"mindcanvas/pkg/common"
	"mindcanvas/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg       *config.Config
	collector *observability.Collector
	logger    *zap.Logger

	documents   *handlers.DocumentHandler
	nodes       *handlers.NodeHandler
	connections *handlers.ConnectionHandler
	history     *handlers.HistoryHandler
	viewport    *handlers.ViewportHandler
	events      *handlers.EventsHandler
	monitor     *handlers.MonitorHandler
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	collector *observability.Collector,
	documents *handlers.DocumentHandler,
	nodes *handlers.NodeHandler,
	connections *handlers.ConnectionHandler,
	history *handlers.HistoryHandler,
	viewport *handlers.ViewportHandler,
	events *handlers.EventsHandler,
	monitor *handlers.MonitorHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:         cfg,
		collector:   collector,
		logger:      logger,
		documents:   documents,
		nodes:       nodes,
		connections: connections,
		history:     history,
		viewport:    viewport,
		events:      events,
		monitor:     monitor,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.Monitor.EnableMetrics {
		router.Use(middleware.Metrics(rt.collector))
	}

	if rt.cfg.Server.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)

	if rt.cfg.Monitor.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(rt.collector.Registry(), promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		// Document endpoints
		r.Route("/document", func(r chi.Router) {
			r.Get("/", rt.documents.GetDocument)
			r.Put("/", rt.documents.ReplaceDocument)
			r.Post("/init", rt.documents.InitDocument)
			r.Post("/save", rt.documents.SaveDocument)
			r.Get("/export.svg", rt.documents.ExportSVG)
		})

		// Node endpoints
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", rt.nodes.CreateNode)
			r.Get("/", rt.nodes.ListNodes)
			r.Get("/{nodeID}", rt.nodes.GetNode)
			r.Patch("/{nodeID}", rt.nodes.UpdateNode)
			r.Put("/{nodeID}/position", rt.nodes.MoveNode)
			r.Delete("/{nodeID}", rt.nodes.DeleteNode)
		})

		// Connection endpoints
		r.Route("/connections", func(r chi.Router) {
			r.Post("/", rt.connections.CreateConnection)
			r.Get("/", rt.connections.ListConnections)
			r.Get("/{connectionID}", rt.connections.GetConnection)
			r.Patch("/{connectionID}", rt.connections.UpdateConnection)
			r.Delete("/{connectionID}", rt.connections.DeleteConnection)
		})

		// History endpoints
		r.Route("/history", func(r chi.Router) {
			r.Get("/", rt.history.GetStatus)
			r.Post("/undo", rt.history.Undo)
			r.Post("/redo", rt.history.Redo)
			r.Delete("/", rt.history.Clear)
		})

		// UI state and preferences
		r.Get("/ui", rt.viewport.GetUI)
		r.Patch("/ui", rt.viewport.PatchUI)
		r.Get("/preferences", rt.viewport.GetPreferences)
		r.Put("/preferences", rt.viewport.PutPreferences)

		// Event stream and diagnostics
		r.Get("/events", rt.events.Stream)
		r.Get("/performance", rt.monitor.GetPerformance)
	})

	return router
}

// healthCheck handles GET /health
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
