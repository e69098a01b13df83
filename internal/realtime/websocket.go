package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings at this period; must be less than pongWait
	pingPeriod = 54 * time.Second

	// Largest inbound frame accepted
	maxMessageSize = 4096
)

// WebSocketHandler serves the bidirectional command channel
type WebSocketHandler struct {
	hub         *Hub
	coordinator Coordinator
	dispatcher  *Dispatcher
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewWebSocketHandler creates a handler accepting browser origins from
// allowedOrigins; an empty list or "*" accepts any origin
func NewWebSocketHandler(
	hub *Hub,
	coordinator Coordinator,
	dispatcher *Dispatcher,
	allowedOrigins []string,
	logger *slog.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		coordinator: coordinator,
		dispatcher:  dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With(slog.String("component", "websocket")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.Any("error", err))
		return
	}

	client := h.hub.Register(TransportWebSocket, r.RemoteAddr)
	h.coordinator.Connected(client.ID(), r.RemoteAddr)

	go h.writePump(conn, client)
	h.readPump(context.WithoutCancel(r.Context()), conn, client)
}

// readPump runs commands from the peer until the connection fails, then
// releases the connection
func (h *WebSocketHandler) readPump(ctx context.Context, conn *websocket.Conn, client *Client) {
	defer func() {
		// Off the hub first so no new HTTP command can resolve the handle
		h.hub.Unregister(client)
		h.coordinator.Disconnected(client.ID())
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Info("websocket read error",
					slog.String("connection_id", string(client.ID())),
					slog.Any("error", err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.dispatcher.Dispatch(ctx, client.ID(), frame)
	}
}

// writePump delivers queued events and keeps the connection alive with pings
func (h *WebSocketHandler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the queue
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(NewMessage(event)); err != nil {
				h.logger.Info("websocket write failed",
					slog.String("connection_id", string(client.ID())),
					slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
