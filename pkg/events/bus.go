package events

import (
	"sync"

	domainevents "mindcanvas/domain/events"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// Handler processes one event. A returned error is logged and
// swallowed; a misbehaving handler must never corrupt the mutation
// that triggered the notification.
type Handler func(event domainevents.DomainEvent) error

// subscription is one registered handler with its removal key
type subscription struct {
	id      int
	handler Handler
	once    bool
	name    string
}

// Bus is a synchronous in-process pub/sub dispatcher. Handlers for a
// specific type run before wildcard handlers, both in subscription
// order. Dispatch never holds the registration lock while handlers run.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[domainevents.EventType][]*subscription
	logger   *zap.Logger
}

// NewBus creates an event bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[domainevents.EventType][]*subscription),
		logger:   logger,
	}
}

// On registers a handler for an event type (or Wildcard for all types)
// and returns an unsubscribe closure. Calling the closure twice is safe.
func (b *Bus) On(eventType domainevents.EventType, handler Handler) func() {
	return b.register(eventType, handler, false, "")
}

// OnNamed registers a handler with a name used in failure logs
func (b *Bus) OnNamed(eventType domainevents.EventType, name string, handler Handler) func() {
	return b.register(eventType, handler, false, name)
}

// Once registers a handler that is removed after its first delivery
func (b *Bus) Once(eventType domainevents.EventType, handler Handler) func() {
	return b.register(eventType, handler, true, "")
}

func (b *Bus) register(eventType domainevents.EventType, handler Handler, once bool, name string) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler, once: once, name: name}
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	b.mu.Unlock()

	id := sub.id
	return func() {
		b.remove(eventType, id)
	}
}

// Off removes every handler registered for an event type
func (b *Bus) Off(eventType domainevents.EventType) {
	b.mu.Lock()
	delete(b.handlers, eventType)
	b.mu.Unlock()
}

// Reset removes all handlers for all event types
func (b *Bus) Reset() {
	b.mu.Lock()
	b.handlers = make(map[domainevents.EventType][]*subscription)
	b.mu.Unlock()
}

// Emit delivers an event synchronously to the type's handlers, then to
// wildcard handlers. Handler errors and panics are logged and isolated.
func (b *Bus) Emit(event domainevents.DomainEvent) {
	if event == nil {
		return
	}
	for _, sub := range b.snapshot(event.GetEventType()) {
		b.deliver(sub, event)
	}
}

// EmitAsync delivers the event on a new goroutine, preserving handler
// order within the dispatch. The returned channel closes when every
// handler has run.
func (b *Bus) EmitAsync(event domainevents.DomainEvent) <-chan struct{} {
	done := make(chan struct{})
	if event == nil {
		close(done)
		return done
	}
	subs := b.snapshot(event.GetEventType())
	go func() {
		defer close(done)
		for _, sub := range subs {
			b.deliver(sub, event)
		}
	}()
	return done
}

// HandlerCount returns the number of handlers that would receive the
// given event type (wildcard included)
func (b *Bus) HandlerCount(eventType domainevents.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.handlers[eventType])
	if eventType != domainevents.Wildcard {
		n += len(b.handlers[domainevents.Wildcard])
	}
	return n
}

// snapshot copies the delivery list so handlers run without the lock
// and mid-dispatch (un)subscriptions do not affect the current emit
func (b *Bus) snapshot(eventType domainevents.EventType) []*subscription {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[eventType])+len(b.handlers[domainevents.Wildcard]))
	subs = append(subs, b.handlers[eventType]...)
	if eventType != domainevents.Wildcard {
		subs = append(subs, b.handlers[domainevents.Wildcard]...)
	}
	b.mu.RUnlock()
	return subs
}

func (b *Bus) deliver(sub *subscription, event domainevents.DomainEvent) {
	if sub.once {
		// Remove before invoking so a re-emitting handler cannot fire twice
		b.removeEverywhere(sub.id)
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", string(event.GetEventType())),
				zap.String("handler", sub.name),
				zap.Any("panic", r))
		}
	}()

	if err := sub.handler(event); err != nil {
		wrapped := pkgerrors.NewSubscriberError(sub.name, err)
		b.logger.Warn("event handler failed",
			zap.String("event", string(event.GetEventType())),
			zap.String("handler", sub.name),
			zap.Error(wrapped))
	}
}

func (b *Bus) remove(eventType domainevents.EventType, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[eventType]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[eventType]) == 0 {
		delete(b.handlers, eventType)
	}
}

func (b *Bus) removeEverywhere(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for eventType, subs := range b.handlers {
		for i, sub := range subs {
			if sub.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				if len(b.handlers[eventType]) == 0 {
					delete(b.handlers, eventType)
				}
				break
			}
		}
	}
}
