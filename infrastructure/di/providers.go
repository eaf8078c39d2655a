package di

import (
	"mindcanvas/application/compat"
	"mindcanvas/application/render"
	"mindcanvas/application/store"
	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/persistence/file"
	"mindcanvas/interfaces/http/rest"
	"mindcanvas/interfaces/http/rest/handlers"
	pkgerrors "mindcanvas/pkg/errors"
	pkgevents "mindcanvas/pkg/events"
	"mindcanvas/pkg/observability"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// metricsNamespace prefixes every exported metric
const metricsNamespace = "mindcanvas"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideBus creates the event bus
func ProvideBus(logger *zap.Logger) *pkgevents.Bus {
	return pkgevents.NewBus(logger)
}

// ProvideStore creates the state store
func ProvideStore(bus *pkgevents.Bus, cfg *config.Config, logger *zap.Logger) *store.Store {
	return store.NewStore(bus, cfg.History.Limit, logger)
}

// ProvideFacade creates the legacy-compatible editing facade
func ProvideFacade(s *store.Store, logger *zap.Logger) *compat.Facade {
	return compat.NewFacade(s, logger)
}

// ProvideRepository creates the document file repository
func ProvideRepository(cfg *config.Config, logger *zap.Logger) *file.Repository {
	return file.NewRepository(cfg.Document.Path, logger)
}

// ProvideAutoSaver creates the debounced autosaver
func ProvideAutoSaver(s *store.Store, repo *file.Repository, cfg *config.Config, logger *zap.Logger) *file.AutoSaver {
	return file.NewAutoSaver(s, repo, cfg.Document.AutoSaveInterval, logger)
}

// ProvideCanvas creates the in-memory SVG render target
func ProvideCanvas(cfg *config.Config) *render.SVGTarget {
	return render.NewSVGTarget(cfg.Render.CanvasWidth, cfg.Render.CanvasHeight)
}

// ProvideQueue creates the render queue over the SVG canvas
func ProvideQueue(canvas *render.SVGTarget, cfg *config.Config, logger *zap.Logger) *render.Queue {
	return render.NewQueue(canvas, cfg.Render.FrameInterval, logger)
}

// ProvideRenderer creates the connection renderer
func ProvideRenderer(s *store.Store, queue *render.Queue, logger *zap.Logger) *render.Renderer {
	return render.NewRenderer(s, queue, logger)
}

// ProvideCollector creates the Prometheus metrics collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// ProvideMonitor creates the performance monitor
func ProvideMonitor(collector *observability.Collector, queue *render.Queue, cfg *config.Config, logger *zap.Logger) *observability.Monitor {
	return observability.NewMonitor(collector, queue, cfg.Monitor.SampleInterval, logger)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger)
}

// ProvideDocumentHandler creates the document handler
func ProvideDocumentHandler(
	s *store.Store,
	facade *compat.Facade,
	repo *file.Repository,
	renderer *render.Renderer,
	canvas *render.SVGTarget,
	eh *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *handlers.DocumentHandler {
	return handlers.NewDocumentHandler(s, facade, repo, renderer, canvas, eh, logger)
}

// ProvideNodeHandler creates the node handler
func ProvideNodeHandler(s *store.Store, facade *compat.Facade, eh *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.NodeHandler {
	return handlers.NewNodeHandler(s, facade, eh, logger)
}

// ProvideConnectionHandler creates the connection handler
func ProvideConnectionHandler(s *store.Store, facade *compat.Facade, eh *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.ConnectionHandler {
	return handlers.NewConnectionHandler(s, facade, eh, logger)
}

// ProvideHistoryHandler creates the history handler
func ProvideHistoryHandler(s *store.Store, logger *zap.Logger) *handlers.HistoryHandler {
	return handlers.NewHistoryHandler(s, logger)
}

// ProvideViewportHandler creates the viewport handler
func ProvideViewportHandler(s *store.Store, eh *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.ViewportHandler {
	return handlers.NewViewportHandler(s, eh, logger)
}

// ProvideEventsHandler creates the SSE relay handler
func ProvideEventsHandler(bus *pkgevents.Bus, logger *zap.Logger) *handlers.EventsHandler {
	return handlers.NewEventsHandler(bus, logger)
}

// ProvideMonitorHandler creates the performance snapshot handler
func ProvideMonitorHandler(monitor *observability.Monitor) *handlers.MonitorHandler {
	return handlers.NewMonitorHandler(monitor)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
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
) *rest.Router {
	return rest.NewRouter(cfg, collector, documents, nodes, connections, history, viewport, events, monitor, logger)
}
