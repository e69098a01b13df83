package response

import (
	"time"

	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/coordinator"
)

// Player represents a player in API responses
type Player struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	resp := Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
	}
	if !p.LastSeenAt.IsZero() {
		t := p.LastSeenAt
		resp.LastSeenAt = &t
	}
	return resp
}

// GameSummary is one entry of the open games listing
type GameSummary struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// GamesResponse lists the games open for joining
type GamesResponse struct {
	Games []GameSummary `json:"games"`
}

// GamesFromModel converts directory entries
func GamesFromModel(summaries []model.SessionSummary) GamesResponse {
	games := make([]GameSummary, len(summaries))
	for i, s := range summaries {
		games[i] = GameSummary{SessionID: string(s.ID), Name: s.Name}
	}
	return GamesResponse{Games: games}
}

// Member represents a session member
type Member struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// Game represents a game session in detail
type Game struct {
	SessionID   string     `json:"session_id"`
	Name        string     `json:"name"`
	State       string     `json:"state"`
	Members     []Member   `json:"members"`
	Connections int        `json:"connections"`
	PeakMembers int        `json:"peak_members"`
	CreatedAt   time.Time  `json:"created_at"`
	EmptySince  *time.Time `json:"empty_since,omitempty"`
}

// GameFromModel converts a model.SessionInfo
func GameFromModel(info model.SessionInfo) Game {
	members := make([]Member, len(info.Members))
	for i, m := range info.Members {
		members[i] = Member{PlayerID: string(m.PlayerID), DisplayName: m.DisplayName}
	}
	return Game{
		SessionID:   string(info.ID),
		Name:        info.Name,
		State:       string(info.State),
		Members:     members,
		Connections: info.Connections,
		PeakMembers: info.PeakMembers,
		CreatedAt:   info.CreatedAt,
		EmptySince:  info.EmptySince,
	}
}

// GameCreated is the response for creating a game
type GameCreated struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// Registered is the response for registering a connection
type Registered struct {
	ConnectionID string `json:"connection_id"`
	PlayerID     string `json:"player_id"`
	DisplayName  string `json:"display_name"`
}

// Health is the health check response
type Health struct {
	Status                string `json:"status"`
	Connections           int    `json:"connections"`
	RegisteredConnections int    `json:"registered_connections"`
	LiveSessions          int    `json:"live_sessions"`
}

// HealthFromStats builds a Health response
func HealthFromStats(connections int, stats coordinator.Stats) Health {
	return Health{
		Status:                "ok",
		Connections:           connections,
		RegisteredConnections: stats.RegisteredConnections,
		LiveSessions:          stats.LiveSessions,
	}
}

// CardPlayed acknowledges a relayed card
type CardPlayed struct {
	SessionID string `json:"session_id"`
	Card      string `json:"card"`
}

// SessionRecord is one entry of the session history
type SessionRecord struct {
	SessionID   string     `json:"session_id"`
	Name        string     `json:"name"`
	PeakMembers int        `json:"peak_members"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// HistoryResponse lists stored session records, oldest first
type HistoryResponse struct {
	Sessions []SessionRecord `json:"sessions"`
}

// HistoryFromModel converts stored records to a HistoryResponse
func HistoryFromModel(records []*model.SessionRecord) HistoryResponse {
	sessions := make([]SessionRecord, len(records))
	for i, r := range records {
		sessions[i] = SessionRecord{
			SessionID:   string(r.ID),
			Name:        r.Name,
			PeakMembers: r.PeakMembers,
			CreatedAt:   r.CreatedAt,
			ClosedAt:    r.ClosedAt,
		}
	}
	return HistoryResponse{Sessions: sessions}
}
