package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	domainevents "mindcanvas/domain/events"
	"mindcanvas/pkg/common"
	pkgevents "mindcanvas/pkg/events"

	"go.uber.org/zap"
)

// clientBuffer bounds how many events a slow SSE client may lag behind
// before events are dropped for it
const clientBuffer = 64

// EventsHandler relays store events to SSE clients
type EventsHandler struct {
	bus    *pkgevents.Bus
	logger *zap.Logger
}

// NewEventsHandler creates a new SSE relay
func NewEventsHandler(bus *pkgevents.Bus, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{bus: bus, logger: logger}
}

// Stream handles GET /events. Every store event is forwarded as one
// SSE message whose event name is the store event type. Slow clients
// drop events rather than back-pressure the store.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		common.RespondError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "Streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := make(chan domainevents.DomainEvent, clientBuffer)
	unsubscribe := h.bus.OnNamed(domainevents.Wildcard, "sse-relay", func(event domainevents.DomainEvent) error {
		select {
		case ch <- event:
		default:
			h.logger.Warn("dropping event for slow SSE client",
				zap.String("event", string(event.GetEventType())),
				zap.String("remoteAddr", r.RemoteAddr))
		}
		return nil
	})
	defer unsubscribe()

	h.logger.Info("SSE client connected", zap.String("remoteAddr", r.RemoteAddr))

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", zap.String("remoteAddr", r.RemoteAddr))
			return
		case event := <-ch:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode event",
					zap.String("event", string(event.GetEventType())),
					zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.GetEventType(), data)
			flusher.Flush()
		}
	}
}
