package registry

import (
	"sync"
	"time"

	"github.com/mcoot/cardtable/internal/dependencies/ids"
	"github.com/mcoot/cardtable/internal/model"
)

// Registry binds live connections to player identities.
// It holds no session state.
//
// Unbinding closes the connection for good: it cannot be registered again,
// so a command still in flight when its transport went away cannot revive it.
type Registry struct {
	mu       sync.RWMutex
	bindings map[model.ConnectionID]model.Player
	closed   map[model.ConnectionID]time.Time
	ids      ids.Generator
}

// New creates an empty Registry
func New(idGen ids.Generator) *Registry {
	return &Registry{
		bindings: make(map[model.ConnectionID]model.Player),
		closed:   make(map[model.ConnectionID]time.Time),
		ids:      idGen,
	}
}

// Register binds the connection to the identity, replacing any earlier binding.
// An empty playerID is generated; an empty display name falls back to the id.
// The previous binding, if there was one, is returned. A closed connection
// fails with ErrConnectionNotFound.
func (r *Registry) Register(conn model.ConnectionID, playerID model.PlayerID, displayName string) (model.Player, *model.Player, error) {
	if playerID == "" {
		playerID = model.PlayerID(r.ids.NewID())
	}
	if displayName == "" {
		displayName = string(playerID)
	}
	player := model.Player{ID: playerID, DisplayName: displayName}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, gone := r.closed[conn]; gone {
		return model.Player{}, nil, model.ErrConnectionNotFound
	}

	var previous *model.Player
	if old, ok := r.bindings[conn]; ok {
		previous = &old
	}
	r.bindings[conn] = player
	return player, previous, nil
}

// Lookup returns the identity bound to the connection
func (r *Registry) Lookup(conn model.ConnectionID) (model.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	player, ok := r.bindings[conn]
	return player, ok
}

// Unbind closes the connection and returns what it was bound to
func (r *Registry) Unbind(conn model.ConnectionID, at time.Time) (model.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed[conn] = at
	player, ok := r.bindings[conn]
	if ok {
		delete(r.bindings, conn)
	}
	return player, ok
}

// Closed reports whether the connection has been unbound
func (r *Registry) Closed(conn model.ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, gone := r.closed[conn]
	return gone
}

// PruneClosed forgets connections closed before the cutoff and returns how
// many were dropped
func (r *Registry) PruneClosed(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	pruned := 0
	for conn, at := range r.closed {
		if at.Before(before) {
			delete(r.closed, conn)
			pruned++
		}
	}
	return pruned
}

// Count returns the number of bound connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}
