package broadcast

import (
	"sync"

	"github.com/mcoot/cardtable/internal/model"
)

// Delivery is one event received by one connection
type Delivery struct {
	Conn  model.ConnectionID
	Event model.Event
}

// Recorder is an in-memory Sender that keeps every delivery in order.
// Connections marked with Refuse reject events, like a full send buffer.
type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
	refused    map[model.ConnectionID]bool
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{refused: make(map[model.ConnectionID]bool)}
}

// Send records the delivery
func (r *Recorder) Send(conn model.ConnectionID, event model.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refused[conn] {
		return false
	}
	r.deliveries = append(r.deliveries, Delivery{Conn: conn, Event: event})
	return true
}

// Refuse makes every later Send to conn fail
func (r *Recorder) Refuse(conn model.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refused[conn] = true
}

// All returns every delivery so far
func (r *Recorder) All() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// For returns the events delivered to one connection, in order
func (r *Recorder) For(conn model.ConnectionID) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []model.Event
	for _, d := range r.deliveries {
		if d.Conn == conn {
			events = append(events, d.Event)
		}
	}
	return events
}

// Named returns the events of one name delivered to one connection
func (r *Recorder) Named(conn model.ConnectionID, name model.EventName) []model.Event {
	var events []model.Event
	for _, e := range r.For(conn) {
		if e.Name == name {
			events = append(events, e)
		}
	}
	return events
}

// Reset forgets every delivery
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}
