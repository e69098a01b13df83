package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrNotRegistered  = errors.New("player not registered")
	ErrPlayerNotFound = errors.New("player not found")

	// Session errors
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionFull           = errors.New("session is full")
	ErrAlreadyInOtherSession = errors.New("player is already in another session")
	ErrNotInSession          = errors.New("player is not in the session")
	ErrSessionRecordNotFound = errors.New("session record not found")

	// Transport errors
	ErrConnectionNotFound = errors.New("connection not found")

	// Card errors
	ErrInvalidCard = errors.New("invalid card")
)

// Join failure reasons sent to the caller in JoinFailed events
const (
	ReasonNotRegistered       = "Player not registered."
	ReasonSessionFull         = "Game is full (4 players max)."
	ReasonSessionNotFound     = "Game not found."
	ReasonAlreadyInOtherGame  = "Player is already in another game."
	ReasonJoinFailedUnhandled = "Unable to join game."
)

// JoinFailureReason maps a join error to the reason shown to the player
func JoinFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotRegistered):
		return ReasonNotRegistered
	case errors.Is(err, ErrSessionFull):
		return ReasonSessionFull
	case errors.Is(err, ErrSessionNotFound):
		return ReasonSessionNotFound
	case errors.Is(err, ErrAlreadyInOtherSession):
		return ReasonAlreadyInOtherGame
	default:
		return ReasonJoinFailedUnhandled
	}
}
