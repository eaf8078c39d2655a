package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Document metrics
	NodesCreated       prometheus.Counter
	NodesRemoved       prometheus.Counter
	ConnectionsCreated prometheus.Counter
	ConnectionsRemoved prometheus.Counter
	UndoOperations     prometheus.Counter
	RedoOperations     prometheus.Counter
	EventsEmitted      *prometheus.CounterVec

	// Render metrics
	FramesTotal   prometheus.Counter
	FramesDropped prometheus.Counter
	FrameDuration prometheus.Histogram
	QueueDepth    prometheus.Gauge

	// Runtime metrics
	HeapBytes        prometheus.Gauge
	FrameRate        prometheus.Gauge
	PerformanceScore prometheus.Gauge
}

// NewCollector creates a metrics collector with its own registry under
// the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		NodesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_created_total",
				Help:      "Total number of nodes created",
			},
		),
		NodesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_removed_total",
				Help:      "Total number of nodes removed",
			},
		),
		ConnectionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_created_total",
				Help:      "Total number of connections created",
			},
		),
		ConnectionsRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connections_removed_total",
				Help:      "Total number of connections removed, cascades included",
			},
		),
		UndoOperations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "undo_operations_total",
				Help:      "Total number of undo operations applied",
			},
		),
		RedoOperations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redo_operations_total",
				Help:      "Total number of redo operations applied",
			},
		),
		EventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_emitted_total",
				Help:      "Total number of store events emitted",
			},
			[]string{"type"},
		),
		FramesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "render_frames_total",
				Help:      "Total number of render frames flushed",
			},
		),
		FramesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "render_frames_dropped_total",
				Help:      "Total number of frame ticks skipped because a flush was still running",
			},
		),
		FrameDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_frame_duration_seconds",
				Help:      "Duration of the most recent render flush",
				Buckets:   []float64{.001, .002, .004, .008, .016, .033, .066, .1, .25},
			},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "render_queue_depth",
				Help:      "Number of pending render updates",
			},
		),
		HeapBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "heap_alloc_bytes",
				Help:      "Bytes of allocated heap objects",
			},
		),
		FrameRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "render_frame_rate",
				Help:      "Render frames flushed per second over the last sample window",
			},
		),
		PerformanceScore: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "performance_score",
				Help:      "Derived health score from 0 to 100",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.NodesCreated,
		c.NodesRemoved,
		c.ConnectionsCreated,
		c.ConnectionsRemoved,
		c.UndoOperations,
		c.RedoOperations,
		c.EventsEmitted,
		c.FramesTotal,
		c.FramesDropped,
		c.FrameDuration,
		c.QueueDepth,
		c.HeapBytes,
		c.FrameRate,
		c.PerformanceScore,
	)

	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
