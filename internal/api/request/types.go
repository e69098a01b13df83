package request

// RegisterRequest is the request body for registering a connection's player
type RegisterRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// CreateGameRequest is the request body for creating a game session
type CreateGameRequest struct {
	Name string `json:"name"`
}

// PlayCardRequest is the request body for playing a card
type PlayCardRequest struct {
	Card string `json:"card"`
}
