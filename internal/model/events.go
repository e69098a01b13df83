package model

// EventName identifies an event delivered to connections
type EventName string

const (
	// Caller events
	EventConnected        EventName = "Connected"
	EventPlayerRegistered EventName = "PlayerRegistered"
	EventGameCreated      EventName = "GameCreated"
	EventAvailableGames   EventName = "AvailableGames"
	EventJoinFailed       EventName = "JoinFailed"
	EventGameLeft         EventName = "GameLeft"
	EventCommandFailed    EventName = "CommandFailed"

	// Group events
	EventPlayerJoined EventName = "PlayerJoined"
	EventPlayerList   EventName = "PlayerList"
	EventCardPlayed   EventName = "CardPlayed"
)

// Event is a named message sent to one or more connections
type Event struct {
	Name    EventName
	Payload any // Type-specific data, encoded by the transport
}

// ConnectedPayload is sent first on transports that cannot return the handle otherwise
type ConnectedPayload struct {
	ConnectionID ConnectionID `json:"connection_id"`
}

// PlayerRegisteredPayload acknowledges a registration
type PlayerRegisteredPayload struct {
	PlayerID PlayerID `json:"player_id"`
}

// GameCreatedPayload acknowledges a session creation
type GameCreatedPayload struct {
	SessionID SessionID `json:"session_id"`
	Name      string    `json:"name"`
}

// AvailableGame is one entry of an AvailableGames listing
type AvailableGame struct {
	SessionID SessionID `json:"session_id"`
	Name      string    `json:"name"`
}

// AvailableGamesPayload lists the sessions open for joining
type AvailableGamesPayload struct {
	Games []AvailableGame `json:"games"`
}

// JoinFailedPayload tells the caller why a join was rejected
type JoinFailedPayload struct {
	Reason string `json:"reason"`
}

// GameLeftPayload acknowledges leaving a session
type GameLeftPayload struct {
	SessionID SessionID `json:"session_id"`
}

// CommandFailedPayload tells the caller a command was rejected
type CommandFailedPayload struct {
	Op      string `json:"op"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerJoinedPayload announces a new member to the session
type PlayerJoinedPayload struct {
	DisplayName string `json:"display_name"`
}

// PlayerListPayload carries the current member display names (order unspecified)
type PlayerListPayload struct {
	Players []string `json:"players"`
}

// CardPlayedPayload relays a played card to the session
type CardPlayedPayload struct {
	DisplayName string `json:"display_name"`
	Card        string `json:"card"`
}

// NewPlayerListEvent builds a PlayerList event from display names
func NewPlayerListEvent(names []string) Event {
	return Event{Name: EventPlayerList, Payload: PlayerListPayload{Players: names}}
}

// NewAvailableGamesEvent builds an AvailableGames event from directory entries
func NewAvailableGamesEvent(summaries []SessionSummary) Event {
	games := make([]AvailableGame, len(summaries))
	for i, s := range summaries {
		games[i] = AvailableGame{SessionID: s.ID, Name: s.Name}
	}
	return Event{Name: EventAvailableGames, Payload: AvailableGamesPayload{Games: games}}
}
