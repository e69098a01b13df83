package broadcast

import (
	"log/slog"

	"github.com/mcoot/cardtable/internal/model"
)

// Sender delivers an event to one live connection.
// Send must not block; it reports false when the event was not queued.
type Sender interface {
	Send(conn model.ConnectionID, event model.Event) bool
}

// Broadcaster sends events to a single caller or to a session's group.
// Delivery is best effort: failures are logged, never returned.
type Broadcaster struct {
	sender Sender
	logger *slog.Logger
}

// New creates a new Broadcaster
func New(sender Sender, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		sender: sender,
		logger: logger.With(slog.String("component", "broadcaster")),
	}
}

// ToCaller sends an event to the originating connection only
func (b *Broadcaster) ToCaller(conn model.ConnectionID, event model.Event) {
	if !b.sender.Send(conn, event) {
		b.logger.Warn("event dropped",
			slog.String("event", string(event.Name)),
			slog.String("connection_id", string(conn)))
	}
}

// ToGroup sends an event to every connection in the group
func (b *Broadcaster) ToGroup(sessionID model.SessionID, group []model.ConnectionID, event model.Event) {
	dropped := 0
	for _, conn := range group {
		if !b.sender.Send(conn, event) {
			dropped++
		}
	}
	if dropped > 0 {
		b.logger.Warn("group broadcast partial failure",
			slog.String("event", string(event.Name)),
			slog.String("session_id", string(sessionID)),
			slog.Int("sent", len(group)-dropped),
			slog.Int("dropped", dropped))
	}
}

// PlayerRegistered acknowledges a registration to the caller
func (b *Broadcaster) PlayerRegistered(conn model.ConnectionID, playerID model.PlayerID) {
	b.ToCaller(conn, model.Event{
		Name:    model.EventPlayerRegistered,
		Payload: model.PlayerRegisteredPayload{PlayerID: playerID},
	})
}

// GameCreated acknowledges a session creation to the caller
func (b *Broadcaster) GameCreated(conn model.ConnectionID, sessionID model.SessionID, name string) {
	b.ToCaller(conn, model.Event{
		Name:    model.EventGameCreated,
		Payload: model.GameCreatedPayload{SessionID: sessionID, Name: name},
	})
}

// AvailableGames sends the directory listing to the caller
func (b *Broadcaster) AvailableGames(conn model.ConnectionID, summaries []model.SessionSummary) {
	b.ToCaller(conn, model.NewAvailableGamesEvent(summaries))
}

// JoinFailed tells the caller why its join was rejected
func (b *Broadcaster) JoinFailed(conn model.ConnectionID, reason string) {
	b.ToCaller(conn, model.Event{
		Name:    model.EventJoinFailed,
		Payload: model.JoinFailedPayload{Reason: reason},
	})
}

// GameLeft acknowledges that the caller left a session
func (b *Broadcaster) GameLeft(conn model.ConnectionID, sessionID model.SessionID) {
	b.ToCaller(conn, model.Event{
		Name:    model.EventGameLeft,
		Payload: model.GameLeftPayload{SessionID: sessionID},
	})
}

// CommandFailed tells the caller a command was rejected
func (b *Broadcaster) CommandFailed(conn model.ConnectionID, op, code, message string) {
	b.ToCaller(conn, model.Event{
		Name:    model.EventCommandFailed,
		Payload: model.CommandFailedPayload{Op: op, Code: code, Message: message},
	})
}

// PlayerJoined announces a new member to the group
func (b *Broadcaster) PlayerJoined(sessionID model.SessionID, group []model.ConnectionID, displayName string) {
	b.ToGroup(sessionID, group, model.Event{
		Name:    model.EventPlayerJoined,
		Payload: model.PlayerJoinedPayload{DisplayName: displayName},
	})
}

// PlayerList sends the current member names to the group
func (b *Broadcaster) PlayerList(sessionID model.SessionID, group []model.ConnectionID, names []string) {
	b.ToGroup(sessionID, group, model.NewPlayerListEvent(names))
}

// CardPlayed relays a played card to the group
func (b *Broadcaster) CardPlayed(sessionID model.SessionID, group []model.ConnectionID, displayName, card string) {
	b.ToGroup(sessionID, group, model.Event{
		Name:    model.EventCardPlayed,
		Payload: model.CardPlayedPayload{DisplayName: displayName, Card: card},
	})
}
