package di

import (
	"mindcanvas/application/compat"
	"mindcanvas/application/render"
	"mindcanvas/application/store"
	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/persistence/file"
	"mindcanvas/interfaces/http/rest"
	pkgevents "mindcanvas/pkg/events"
	"mindcanvas/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Bus       *pkgevents.Bus
	Store     *store.Store
	Facade    *compat.Facade
	Repo      *file.Repository
	AutoSaver *file.AutoSaver
	Canvas    *render.SVGTarget
	Queue     *render.Queue
	Renderer  *render.Renderer
	Collector *observability.Collector
	Monitor   *observability.Monitor
	Router    *rest.Router
}

// Start wires the runtime pieces together and launches the background
// loops: renderer and monitor subscriptions, the frame ticker, the
// autosave debouncer and the sampling loop.
func (c *Container) Start() {
	c.Renderer.Bind(c.Bus)
	c.Monitor.Bind(c.Bus)
	c.Queue.Start()
	c.Monitor.Start()
	if c.Config.Document.AutoSave {
		c.AutoSaver.Start()
	}
}

// Stop shuts the background loops down in reverse order and flushes
// outstanding work: pending render updates and the final save.
func (c *Container) Stop() {
	c.Monitor.Stop()
	c.Queue.ForceRender()
	c.Queue.Stop()
	c.AutoSaver.Stop()
	c.Bus.Reset()
}
