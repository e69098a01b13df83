package model

import "time"

// PlayerID uniquely identifies a player across reconnects
type PlayerID string

// ConnectionID identifies one live transport connection
type ConnectionID string

// Player is the durable identity a connection registers as
type Player struct {
	ID          PlayerID
	DisplayName string
	LastSeenAt  time.Time // Only tracked by storage
}
