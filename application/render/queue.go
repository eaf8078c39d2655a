package render

import (
	"sync"
	"time"

	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// UpdateKind is the severity of a pending update. Severity only ever
// escalates within a frame: position < style < full.
type UpdateKind int

const (
	KindPosition UpdateKind = iota
	KindStyle
	KindFull
)

// String returns the kind's name
func (k UpdateKind) String() string {
	switch k {
	case KindPosition:
		return "position"
	case KindStyle:
		return "style"
	default:
		return "full"
	}
}

// Entry is one pending element update delivered to the target
type Entry struct {
	ID   string
	Kind UpdateKind
	Data map[string]string
}

// The target may implement any subset of the batch interfaces; the
// queue probes with type assertions and falls back to per-element
// attribute writes for the ones it lacks.

// PositionUpdater receives batched position-only updates
type PositionUpdater interface {
	UpdatePositions(entries []Entry) error
}

// StyleUpdater receives batched paint-only updates
type StyleUpdater interface {
	UpdateStyles(entries []Entry) error
}

// FullUpdater receives batched structural updates
type FullUpdater interface {
	FullUpdate(entries []Entry) error
}

// AttributeWriter is the per-element fallback used when a batch
// method is missing
type AttributeWriter interface {
	SetAttributes(id string, attrs map[string]string) error
}

// Stats are the queue's frame diagnostics
type Stats struct {
	TotalFrames    uint64
	DroppedFrames  uint64
	LastRenderTime time.Duration
	Pending        int
}

// DefaultFrameInterval approximates one animation frame at 60fps
const DefaultFrameInterval = 16 * time.Millisecond

// Queue coalesces per-element dirty markings and flushes them once per
// frame, partitioned by kind, in the fixed order positions → styles →
// full. Marking the same id twice merges data and never downgrades the
// kind. Target errors are logged and never stop future frames.
type Queue struct {
	mu      sync.Mutex
	pending map[string]*Entry
	order   []string

	target   interface{}
	interval time.Duration
	logger   *zap.Logger

	flushMu sync.Mutex // held for the duration of one flush

	statsMu        sync.Mutex
	totalFrames    uint64
	droppedFrames  uint64
	lastRenderTime time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewQueue creates a render queue for the given target. interval <= 0
// selects the default frame interval.
func NewQueue(target interface{}, interval time.Duration, logger *zap.Logger) *Queue {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Queue{
		pending:  make(map[string]*Entry),
		target:   target,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// MarkDirty records a pending update for an element. Repeated calls
// for the same id before a flush merge their data; the kind is a
// one-way escalation and never downgrades.
func (q *Queue) MarkDirty(id string, kind UpdateKind, data map[string]string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, exists := q.pending[id]
	if !exists {
		entry = &Entry{ID: id, Kind: kind, Data: map[string]string{}}
		q.pending[id] = entry
		q.order = append(q.order, id)
	} else if kind > entry.Kind {
		entry.Kind = kind
	}
	for k, v := range data {
		entry.Data[k] = v
	}
}

// Clear drops all pending entries without flushing. A flush already
// executing cannot be aborted.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.pending = make(map[string]*Entry)
	q.order = q.order[:0]
	q.mu.Unlock()
}

// PendingCount returns the number of unflushed entries
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the frame loop. Safe to call once; ticks arriving
// while a previous flush is still running are counted as dropped
// frames and skipped.
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		go q.loop()
	})
}

// Stop halts the frame loop and waits for it to exit. Idempotent.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
	})
	q.startOnce.Do(func() {
		close(q.doneCh) // never started; unblock the wait below
	})
	<-q.doneCh
}

// ForceRender flushes synchronously on the caller's goroutine, for
// operations that must be visible before returning (e.g. export).
func (q *Queue) ForceRender() {
	q.flush()
}

// Stats returns frame diagnostics
func (q *Queue) Stats() Stats {
	q.statsMu.Lock()
	defer q.statsMu.Unlock()
	return Stats{
		TotalFrames:    q.totalFrames,
		DroppedFrames:  q.droppedFrames,
		LastRenderTime: q.lastRenderTime,
		Pending:        q.PendingCount(),
	}
}

func (q *Queue) loop() {
	defer close(q.doneCh)
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			if !q.flushMu.TryLock() {
				q.statsMu.Lock()
				q.droppedFrames++
				q.statsMu.Unlock()
				continue
			}
			q.flushLocked()
			q.flushMu.Unlock()
		}
	}
}

func (q *Queue) flush() {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()
	q.flushLocked()
}

// flushLocked drains pending entries and delivers them partitioned by
// kind. Caller holds flushMu.
func (q *Queue) flushLocked() {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	pending := q.pending
	order := q.order
	q.pending = make(map[string]*Entry)
	q.order = nil
	q.mu.Unlock()

	started := time.Now()

	var positions, styles, full []Entry
	for _, id := range order {
		entry := pending[id]
		switch entry.Kind {
		case KindPosition:
			positions = append(positions, *entry)
		case KindStyle:
			styles = append(styles, *entry)
		default:
			full = append(full, *entry)
		}
	}

	// Fixed kind order every frame: positions, then styles, then full
	q.dispatch("positions", positions, func(entries []Entry) (bool, error) {
		if u, ok := q.target.(PositionUpdater); ok {
			return true, u.UpdatePositions(entries)
		}
		return false, nil
	})
	q.dispatch("styles", styles, func(entries []Entry) (bool, error) {
		if u, ok := q.target.(StyleUpdater); ok {
			return true, u.UpdateStyles(entries)
		}
		return false, nil
	})
	q.dispatch("full", full, func(entries []Entry) (bool, error) {
		if u, ok := q.target.(FullUpdater); ok {
			return true, u.FullUpdate(entries)
		}
		return false, nil
	})

	q.statsMu.Lock()
	q.totalFrames++
	q.lastRenderTime = time.Since(started)
	q.statsMu.Unlock()
}

// dispatch delivers one batch, falling back to per-element attribute
// writes when the target lacks the batch method. Errors and panics are
// isolated so one bad frame never prevents the next.
func (q *Queue) dispatch(stage string, entries []Entry, batch func([]Entry) (bool, error)) {
	if len(entries) == 0 {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("render flush panicked",
				zap.String("stage", stage),
				zap.Any("panic", r))
		}
	}()

	handled, err := batch(entries)
	if err != nil {
		q.logger.Warn("render batch failed",
			zap.String("stage", stage),
			zap.Int("entries", len(entries)),
			zap.Error(pkgerrors.NewRenderError(stage, err)))
		return
	}
	if handled {
		return
	}

	writer, ok := q.target.(AttributeWriter)
	if !ok {
		q.logger.Debug("render target handles neither batch nor fallback",
			zap.String("stage", stage))
		return
	}
	for _, entry := range entries {
		if err := writer.SetAttributes(entry.ID, entry.Data); err != nil {
			q.logger.Warn("render fallback failed",
				zap.String("stage", stage),
				zap.String("id", entry.ID),
				zap.Error(pkgerrors.NewRenderError(stage, err)))
		}
	}
}
