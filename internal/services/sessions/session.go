package sessions

import (
	"sync"
	"time"

	"github.com/mcoot/cardtable/internal/model"
)

// session is the live state of one game table. The member set and the
// broadcast group share mu so a broadcast's recipients always match the
// membership at the moment it is sent.
type session struct {
	mu sync.Mutex

	id        model.SessionID
	name      string
	createdAt time.Time

	members    map[model.PlayerID]string // display names
	order      []model.PlayerID          // join order
	group      map[model.ConnectionID]model.PlayerID
	peak       int
	closed     bool
	emptySince *time.Time
}

func newSession(id model.SessionID, name string, now time.Time) *session {
	return &session{
		id:         id,
		name:       name,
		createdAt:  now,
		members:    make(map[model.PlayerID]string),
		group:      make(map[model.ConnectionID]model.PlayerID),
		emptySince: &now,
	}
}

func (s *session) stateLocked() model.SessionState {
	if s.closed {
		return model.SessionStateClosed
	}
	return model.StateFor(len(s.members))
}

func (s *session) addMemberLocked(playerID model.PlayerID, displayName string) {
	if _, ok := s.members[playerID]; !ok {
		s.order = append(s.order, playerID)
	}
	s.members[playerID] = displayName
	if len(s.members) > s.peak {
		s.peak = len(s.members)
	}
	s.emptySince = nil
}

func (s *session) removeMemberLocked(playerID model.PlayerID, now time.Time) {
	delete(s.members, playerID)
	for i, id := range s.order {
		if id == playerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for conn, owner := range s.group {
		if owner == playerID {
			delete(s.group, conn)
		}
	}
	if len(s.members) == 0 && s.emptySince == nil {
		s.emptySince = &now
	}
}

func (s *session) hasConnectionForLocked(playerID model.PlayerID) bool {
	for _, owner := range s.group {
		if owner == playerID {
			return true
		}
	}
	return false
}

func (s *session) onlyConnectionLocked(playerID model.PlayerID, conn model.ConnectionID) bool {
	for c, owner := range s.group {
		if owner == playerID && c != conn {
			return false
		}
	}
	return true
}

func (s *session) namesLocked() []string {
	names := make([]string, len(s.order))
	for i, id := range s.order {
		names[i] = s.members[id]
	}
	return names
}

func (s *session) groupLocked() []model.ConnectionID {
	conns := make([]model.ConnectionID, 0, len(s.group))
	for conn := range s.group {
		conns = append(conns, conn)
	}
	return conns
}

func (s *session) infoLocked() model.SessionInfo {
	members := make([]model.SessionMember, len(s.order))
	for i, id := range s.order {
		members[i] = model.SessionMember{PlayerID: id, DisplayName: s.members[id]}
	}
	info := model.SessionInfo{
		ID:          s.id,
		Name:        s.name,
		State:       s.stateLocked(),
		Members:     members,
		Connections: len(s.group),
		PeakMembers: s.peak,
		CreatedAt:   s.createdAt,
	}
	if s.emptySince != nil {
		t := *s.emptySince
		info.EmptySince = &t
	}
	return info
}
