package observability

import (
	"runtime"
	"sync"
	"time"

	"mindcanvas/application/render"
	domainevents "mindcanvas/domain/events"
	pkgevents "mindcanvas/pkg/events"

	"go.uber.org/zap"
)

// DefaultSampleInterval is how often the monitor samples runtime and
// render statistics
const DefaultSampleInterval = 2 * time.Second

// frameBudget is the flush duration above which a frame is considered
// long
const frameBudget = 16 * time.Millisecond

// Report is one sampled snapshot of system health
type Report struct {
	HeapAllocBytes uint64        `json:"heapAllocBytes"`
	NumGoroutine   int           `json:"numGoroutine"`
	FrameRate      float64       `json:"frameRate"`
	TotalFrames    uint64        `json:"totalFrames"`
	DroppedFrames  uint64        `json:"droppedFrames"`
	LastFrameTime  time.Duration `json:"lastFrameTime"`
	QueueDepth     int           `json:"queueDepth"`
	Score          float64       `json:"score"`
	SampledAt      time.Time     `json:"sampledAt"`
}

// Monitor periodically samples heap usage, goroutine count and render
// queue statistics, exports them as Prometheus gauges and derives a
// 0-100 health score. Sustained degradation is logged.
type Monitor struct {
	collector *Collector
	queue     *render.Queue
	interval  time.Duration
	logger    *zap.Logger

	mu          sync.Mutex
	last        Report
	prevAt      time.Time
	prevFrames  uint64
	prevDropped uint64

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewMonitor creates a monitor over the given queue. interval <= 0
// selects the default.
func NewMonitor(collector *Collector, queue *render.Queue, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Monitor{
		collector: collector,
		queue:     queue,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Bind counts every store event in the emitted-events metric. Returns
// an unsubscribe function.
func (m *Monitor) Bind(bus *pkgevents.Bus) func() {
	return bus.OnNamed(domainevents.Wildcard, "monitor", func(event domainevents.DomainEvent) error {
		m.collector.EventsEmitted.WithLabelValues(string(event.GetEventType())).Inc()
		switch event.GetEventType() {
		case domainevents.EventAddNode:
			m.collector.NodesCreated.Inc()
		case domainevents.EventRemoveNode:
			m.collector.NodesRemoved.Inc()
			if removed, ok := event.(domainevents.NodeRemoved); ok {
				m.collector.ConnectionsRemoved.Add(float64(len(removed.Cascaded)))
			}
		case domainevents.EventAddConnection:
			m.collector.ConnectionsCreated.Inc()
		case domainevents.EventRemoveConnection:
			m.collector.ConnectionsRemoved.Inc()
		case domainevents.EventUndo:
			m.collector.UndoOperations.Inc()
		case domainevents.EventRedo:
			m.collector.RedoOperations.Inc()
		}
		return nil
	})
}

// Start launches the sampling loop. Safe to call once.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		m.prevAt = time.Now()
		go m.loop()
	})
}

// Stop halts the sampling loop and waits for it to exit. Idempotent.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.startOnce.Do(func() {
		close(m.doneCh)
	})
	<-m.doneCh
}

// Snapshot returns the most recent report, sampling on demand if the
// loop has not produced one yet.
func (m *Monitor) Snapshot() Report {
	m.mu.Lock()
	last := m.last
	m.mu.Unlock()
	if last.SampledAt.IsZero() {
		return m.sample()
	}
	return last
}

func (m *Monitor) loop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() Report {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := m.queue.Stats()
	now := time.Now()

	m.mu.Lock()
	elapsed := now.Sub(m.prevAt).Seconds()
	var fps float64
	if elapsed > 0 {
		fps = float64(stats.TotalFrames-m.prevFrames) / elapsed
	}
	framesDelta := stats.TotalFrames - m.prevFrames
	droppedDelta := stats.DroppedFrames - m.prevDropped
	m.prevAt = now
	m.prevFrames = stats.TotalFrames
	m.prevDropped = stats.DroppedFrames

	report := Report{
		HeapAllocBytes: mem.HeapAlloc,
		NumGoroutine:   runtime.NumGoroutine(),
		FrameRate:      fps,
		TotalFrames:    stats.TotalFrames,
		DroppedFrames:  stats.DroppedFrames,
		LastFrameTime:  stats.LastRenderTime,
		QueueDepth:     stats.Pending,
		SampledAt:      now,
	}
	report.Score = score(report, droppedDelta)
	m.last = report
	m.mu.Unlock()

	m.collector.FramesTotal.Add(float64(framesDelta))
	m.collector.FramesDropped.Add(float64(droppedDelta))
	m.collector.HeapBytes.Set(float64(mem.HeapAlloc))
	m.collector.FrameRate.Set(fps)
	m.collector.QueueDepth.Set(float64(stats.Pending))
	m.collector.PerformanceScore.Set(report.Score)
	if stats.LastRenderTime > 0 {
		m.collector.FrameDuration.Observe(stats.LastRenderTime.Seconds())
	}

	if droppedDelta > 0 {
		m.logger.Warn("render frames dropped",
			zap.Uint64("dropped", droppedDelta),
			zap.Duration("lastFrame", stats.LastRenderTime))
	}
	if stats.LastRenderTime > frameBudget {
		m.logger.Warn("render flush over frame budget",
			zap.Duration("lastFrame", stats.LastRenderTime),
			zap.Int("queueDepth", stats.Pending))
	}

	return report
}

// score derives a 0-100 health value: long frames, recent drops and a
// growing queue each cost points.
func score(r Report, droppedDelta uint64) float64 {
	s := 100.0
	if r.LastFrameTime > frameBudget {
		over := float64(r.LastFrameTime-frameBudget) / float64(frameBudget)
		s -= minFloat(over*20, 40)
	}
	s -= minFloat(float64(droppedDelta)*5, 30)
	if r.QueueDepth > 100 {
		s -= minFloat(float64(r.QueueDepth-100)/10, 20)
	}
	if s < 0 {
		s = 0
	}
	return s
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
