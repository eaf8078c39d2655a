package events_test

import (
	"errors"
	"testing"

	domainevents "mindcanvas/domain/events"
	pkgevents "mindcanvas/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEvent struct {
	domainevents.BaseEvent
}

func newStubEvent(eventType domainevents.EventType) stubEvent {
	return stubEvent{BaseEvent: domainevents.BaseEvent{
		AggregateID: "test",
		EventType:   eventType,
	}}
}

func newTestBus() *pkgevents.Bus {
	return pkgevents.NewBus(zap.NewNop())
}

func TestOnDeliversMatchingEvents(t *testing.T) {
	bus := newTestBus()

	var got []domainevents.EventType
	bus.On(domainevents.EventAddNode, func(event domainevents.DomainEvent) error {
		got = append(got, event.GetEventType())
		return nil
	})

	bus.Emit(newStubEvent(domainevents.EventAddNode))
	bus.Emit(newStubEvent(domainevents.EventRemoveNode))

	require.Len(t, got, 1)
	assert.Equal(t, domainevents.EventAddNode, got[0])
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus()

	calls := 0
	unsubscribe := bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		calls++
		return nil
	})

	bus.Emit(newStubEvent(domainevents.EventAddNode))
	unsubscribe()
	bus.Emit(newStubEvent(domainevents.EventAddNode))

	assert.Equal(t, 1, calls)

	// Unsubscribing twice is harmless
	unsubscribe()
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	bus := newTestBus()

	calls := 0
	bus.Once(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		calls++
		return nil
	})

	bus.Emit(newStubEvent(domainevents.EventAddNode))
	bus.Emit(newStubEvent(domainevents.EventAddNode))

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.HandlerCount(domainevents.EventAddNode))
}

func TestWildcardSeesEverything(t *testing.T) {
	bus := newTestBus()

	var got []domainevents.EventType
	bus.On(domainevents.Wildcard, func(event domainevents.DomainEvent) error {
		got = append(got, event.GetEventType())
		return nil
	})

	bus.Emit(newStubEvent(domainevents.EventAddNode))
	bus.Emit(newStubEvent(domainevents.EventUpdateUI))

	assert.Equal(t, []domainevents.EventType{domainevents.EventAddNode, domainevents.EventUpdateUI}, got)
}

func TestTypedHandlersRunBeforeWildcard(t *testing.T) {
	bus := newTestBus()

	var order []string
	bus.On(domainevents.Wildcard, func(domainevents.DomainEvent) error {
		order = append(order, "wildcard")
		return nil
	})
	bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		order = append(order, "typed")
		return nil
	})

	bus.Emit(newStubEvent(domainevents.EventAddNode))
	assert.Equal(t, []string{"typed", "wildcard"}, order)
}

func TestHandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := newTestBus()

	var calls []string
	bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Emit(newStubEvent(domainevents.EventAddNode))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := newTestBus()

	survived := false
	bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		panic("handler bug")
	})
	bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		survived = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit(newStubEvent(domainevents.EventAddNode))
	})
	assert.True(t, survived)
}

func TestOffRemovesAllHandlersForType(t *testing.T) {
	bus := newTestBus()

	calls := 0
	handler := func(domainevents.DomainEvent) error { calls++; return nil }
	bus.On(domainevents.EventAddNode, handler)
	bus.On(domainevents.EventAddNode, handler)
	bus.On(domainevents.EventRemoveNode, handler)

	bus.Off(domainevents.EventAddNode)
	bus.Emit(newStubEvent(domainevents.EventAddNode))
	bus.Emit(newStubEvent(domainevents.EventRemoveNode))

	assert.Equal(t, 1, calls)
}

func TestEmitAsyncSignalsCompletion(t *testing.T) {
	bus := newTestBus()

	done := make(chan struct{})
	bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		close(done)
		return nil
	})

	<-bus.EmitAsync(newStubEvent(domainevents.EventAddNode))

	select {
	case <-done:
	default:
		t.Fatal("handler did not run before EmitAsync signaled completion")
	}
}

func TestSubscribeDuringEmitDoesNotDeadlock(t *testing.T) {
	bus := newTestBus()

	bus.On(domainevents.EventAddNode, func(domainevents.DomainEvent) error {
		bus.On(domainevents.EventRemoveNode, func(domainevents.DomainEvent) error { return nil })
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit(newStubEvent(domainevents.EventAddNode))
	})
	assert.Equal(t, 1, bus.HandlerCount(domainevents.EventRemoveNode))
}
