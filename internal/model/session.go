package model

import "time"

// MaxPlayers is the capacity of every game session
const MaxPlayers = 4

// SessionID uniquely identifies a game session
type SessionID string

// SessionState represents where a session is in its lifecycle
type SessionState string

const (
	SessionStateOpen   SessionState = "open"   // Fewer than MaxPlayers members, joinable
	SessionStateFull   SessionState = "full"   // MaxPlayers members, rejects joins
	SessionStateClosed SessionState = "closed" // Evicted after staying empty
)

// StateFor returns the joinable state implied by a member count
func StateFor(memberCount int) SessionState {
	if memberCount >= MaxPlayers {
		return SessionStateFull
	}
	return SessionStateOpen
}

// SessionSummary is a directory entry for a session open for joining
type SessionSummary struct {
	ID   SessionID
	Name string
}

// SessionMember is a player's membership in a session
type SessionMember struct {
	PlayerID    PlayerID
	DisplayName string
}

// SessionInfo is a point-in-time view of a live session
type SessionInfo struct {
	ID          SessionID
	Name        string
	State       SessionState
	Members     []SessionMember
	Connections int
	PeakMembers int
	CreatedAt   time.Time
	EmptySince  *time.Time // nil while the session has members
}

// DisplayNames returns the member display names in member order
func (s *SessionInfo) DisplayNames() []string {
	names := make([]string, len(s.Members))
	for i, m := range s.Members {
		names[i] = m.DisplayName
	}
	return names
}

// SessionRecord is the stored history of a session, kept after it closes
type SessionRecord struct {
	ID          SessionID
	Name        string
	PeakMembers int
	CreatedAt   time.Time
	ClosedAt    *time.Time
}
