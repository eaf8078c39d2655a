package file

import (
	"sync"
	"time"

	"mindcanvas/application/store"
	domainevents "mindcanvas/domain/events"

	"go.uber.org/zap"
)

// AutoSaver debounces document saves behind store mutations: every
// mutating event restarts the countdown, so a burst of edits produces
// one write after the burst settles. A shutdown Flush saves
// immediately when the store is dirty.
type AutoSaver struct {
	store    *store.Store
	repo     *Repository
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	timer  *time.Timer
	unsub  func()
	closed bool
}

// NewAutoSaver creates an autosaver with the given debounce interval
func NewAutoSaver(s *store.Store, repo *Repository, interval time.Duration, logger *zap.Logger) *AutoSaver {
	return &AutoSaver{
		store:    s,
		repo:     repo,
		interval: interval,
		logger:   logger,
	}
}

// Start subscribes to store events. Idempotent while running.
func (a *AutoSaver) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unsub != nil || a.closed {
		return
	}
	a.unsub = a.store.SubscribeAll(func(event domainevents.DomainEvent) error {
		a.schedule(event.GetEventType())
		return nil
	})
}

// schedule restarts the save countdown for events that can dirty the
// document. UI-only changes never trigger a save.
func (a *AutoSaver) schedule(eventType domainevents.EventType) {
	switch eventType {
	case domainevents.EventUpdateUI, domainevents.EventHistoryCleared:
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.interval, a.save)
}

func (a *AutoSaver) save() {
	if !a.store.IsDirty() {
		return
	}
	if err := a.repo.Save(a.store.Serialize()); err != nil {
		a.logger.Error("autosave failed", zap.Error(err))
		return
	}
	a.store.MarkClean()
	a.logger.Debug("autosave completed", zap.String("path", a.repo.Path()))
}

// Flush saves immediately when the store is dirty
func (a *AutoSaver) Flush() {
	a.save()
}

// Stop unsubscribes, cancels any pending save and flushes. Idempotent.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	unsub := a.unsub
	a.unsub = nil
	a.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	a.save()
}
