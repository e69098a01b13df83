package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/cardtable/internal/dependencies/clock"
	"github.com/mcoot/cardtable/internal/dependencies/ids"
	"github.com/mcoot/cardtable/internal/model"
)

// Buffer size for outgoing events
const sendBufferSize = 256

// Transport names a kind of client connection
type Transport string

const (
	TransportWebSocket Transport = "websocket"
	TransportSSE       Transport = "sse"
)

// Client is one live connection and its outgoing event queue
type Client struct {
	id          model.ConnectionID
	transport   Transport
	remoteAddr  string
	connectedAt time.Time
	send        chan model.Event
	closeOnce   sync.Once
}

// ID returns the connection handle
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// Events returns the client's outgoing queue; it is closed when the client is unregistered
func (c *Client) Events() <-chan model.Event {
	return c.send
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Hub tracks every live connection across transports and delivers events
// to them. It implements broadcast.Sender.
type Hub struct {
	clients map[model.ConnectionID]*Client
	mu      sync.RWMutex
	ids     ids.Generator
	clock   clock.Clock
	logger  *slog.Logger
}

// NewHub creates an empty Hub
func NewHub(idGen ids.Generator, clk clock.Clock, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnectionID]*Client),
		ids:     idGen,
		clock:   clk,
		logger:  logger.With(slog.String("component", "hub")),
	}
}

// Register creates a client with a fresh connection handle
func (h *Hub) Register(transport Transport, remoteAddr string) *Client {
	client := &Client{
		id:          model.ConnectionID(h.ids.NewID()),
		transport:   transport,
		remoteAddr:  remoteAddr,
		connectedAt: h.clock.Now(),
		send:        make(chan model.Event, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client registered",
		slog.String("connection_id", string(client.id)),
		slog.String("transport", string(transport)),
		slog.Int("total_clients", clientCount))
	return client
}

// Unregister removes the client and closes its queue. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if ok && current == client {
		delete(h.clients, client.id)
	}
	clientCount := len(h.clients)
	client.close()
	h.mu.Unlock()

	if ok {
		h.logger.Info("client unregistered",
			slog.String("connection_id", string(client.id)),
			slog.String("transport", string(client.transport)),
			slog.Duration("connection_duration", h.clock.Now().Sub(client.connectedAt)),
			slog.Int("total_clients", clientCount))
	}
}

// Send queues an event for one connection without blocking.
// It reports false when the connection is gone or its buffer is full.
func (h *Hub) Send(conn model.ConnectionID, event model.Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[conn]
	if !ok {
		return false
	}
	select {
	case client.send <- event:
		return true
	default:
		h.logger.Warn("event dropped - client buffer full",
			slog.String("connection_id", string(conn)),
			slog.String("event", string(event.Name)))
		return false
	}
}

// Has reports whether the connection is live
func (h *Hub) Has(conn model.ConnectionID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[conn]
	return ok
}

// ClientCount returns the number of live connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes every client queue, which ends their pumps
func (h *Hub) Close() {
	h.mu.Lock()
	clientCount := len(h.clients)
	for id, client := range h.clients {
		client.close()
		delete(h.clients, id)
	}
	h.mu.Unlock()
	h.logger.Info("hub stopped", slog.Int("disconnected_clients", clientCount))
}
