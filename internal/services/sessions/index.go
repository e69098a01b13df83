package sessions

import (
	"sync"

	"github.com/mcoot/cardtable/internal/model"
)

// playerIndex is the reverse index from a player to the sessions it is a member of.
// Callers may hold a session lock while using it; it never takes a session lock.
type playerIndex struct {
	mu      sync.Mutex
	entries map[model.PlayerID]map[model.SessionID]struct{}
}

func newPlayerIndex() *playerIndex {
	return &playerIndex{entries: make(map[model.PlayerID]map[model.SessionID]struct{})}
}

func (x *playerIndex) add(playerID model.PlayerID, sessionID model.SessionID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.addLocked(playerID, sessionID)
}

// claim adds the entry only if the player is in no other session
func (x *playerIndex) claim(playerID model.PlayerID, sessionID model.SessionID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	for other := range x.entries[playerID] {
		if other != sessionID {
			return false
		}
	}
	x.addLocked(playerID, sessionID)
	return true
}

func (x *playerIndex) addLocked(playerID model.PlayerID, sessionID model.SessionID) {
	set, ok := x.entries[playerID]
	if !ok {
		set = make(map[model.SessionID]struct{})
		x.entries[playerID] = set
	}
	set[sessionID] = struct{}{}
}

func (x *playerIndex) remove(playerID model.PlayerID, sessionID model.SessionID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	set, ok := x.entries[playerID]
	if !ok {
		return
	}
	delete(set, sessionID)
	if len(set) == 0 {
		delete(x.entries, playerID)
	}
}

func (x *playerIndex) sessionsFor(playerID model.PlayerID) []model.SessionID {
	x.mu.Lock()
	defer x.mu.Unlock()
	set := x.entries[playerID]
	out := make([]model.SessionID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
