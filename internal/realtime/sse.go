package realtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/cardtable/internal/model"
)

// Time between keepalive comments
const keepalivePeriod = 30 * time.Second

// SSEHandler serves the server-to-client half of the SSE transport.
// Commands arrive separately through the JSON API, addressed by the
// connection id sent in the first event.
type SSEHandler struct {
	hub         *Hub
	coordinator Coordinator
	keepalive   time.Duration
	logger      *slog.Logger
}

// NewSSEHandler creates a new SSEHandler
func NewSSEHandler(hub *Hub, coordinator Coordinator, logger *slog.Logger) *SSEHandler {
	return &SSEHandler{
		hub:         hub,
		coordinator: coordinator,
		keepalive:   keepalivePeriod,
		logger:      logger.With(slog.String("component", "sse")),
	}
}

// ServeHTTP streams events until the client goes away
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Streams outlive the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	client := h.hub.Register(TransportSSE, r.RemoteAddr)
	h.coordinator.Connected(client.ID(), r.RemoteAddr)
	defer func() {
		h.hub.Unregister(client)
		h.coordinator.Disconnected(client.ID())
	}()

	// The handle goes out before anything queued for it
	hello, err := EncodeSSE(model.Event{
		Name:    model.EventConnected,
		Payload: model.ConnectedPayload{ConnectionID: client.ID()},
	})
	if err != nil {
		h.logger.Error("failed to encode connected event", slog.Any("error", err))
		return
	}
	if _, err := w.Write(hello); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.Events():
			if !ok {
				// Hub closed the queue
				return
			}
			frame, err := EncodeSSE(event)
			if err != nil {
				h.logger.Error("failed to encode event",
					slog.String("event", string(event.Name)),
					slog.Any("error", err))
				continue
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
