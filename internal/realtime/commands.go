package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/cardtable/internal/api/apierr"
	"github.com/mcoot/cardtable/internal/middleware"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/broadcast"
)

// Op names an inbound command
type Op string

const (
	OpRegisterPlayer     Op = "RegisterPlayer"
	OpCreateGame         Op = "CreateGame"
	OpListAvailableGames Op = "ListAvailableGames"
	OpJoinGame           Op = "JoinGame"
	OpPlayCard           Op = "PlayCard"
	OpLeaveGame          Op = "LeaveGame"
)

// Command is an inbound frame. Only the fields its op uses are read.
type Command struct {
	Op          Op     `json:"op"`
	PlayerID    string `json:"player_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	SessionName string `json:"session_name,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Card        string `json:"card,omitempty"`
}

// Coordinator is what the transports drive
type Coordinator interface {
	Connected(conn model.ConnectionID, remoteAddr string)
	RegisterPlayer(ctx context.Context, conn model.ConnectionID, playerID model.PlayerID, displayName string) (model.Player, error)
	CreateGame(ctx context.Context, conn model.ConnectionID, name string) model.SessionInfo
	ListAvailableGames(conn model.ConnectionID) []model.SessionSummary
	JoinGame(conn model.ConnectionID, sessionID model.SessionID) error
	PlayCard(conn model.ConnectionID, sessionID model.SessionID, card string) error
	LeaveGame(conn model.ConnectionID, sessionID model.SessionID) error
	Disconnected(conn model.ConnectionID)
}

// Dispatcher decodes inbound frames and runs them against the coordinator
type Dispatcher struct {
	coordinator Coordinator
	broadcaster *broadcast.Broadcaster
	logger      *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(coordinator Coordinator, broadcaster *broadcast.Broadcaster, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		coordinator: coordinator,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch handles one raw frame from conn. Rejections are reported to conn
// as events; nothing is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, conn model.ConnectionID, frame []byte) {
	var cmd Command
	if err := json.Unmarshal(frame, &cmd); err != nil {
		d.logger.Debug("malformed frame",
			slog.String("connection_id", string(conn)),
			slog.Any("error", err))
		d.broadcaster.CommandFailed(conn, "", apierr.CodeInvalidRequest, "malformed command")
		return
	}
	middleware.Recover(d.logger,
		func() { d.Run(ctx, conn, cmd) },
		func(any) {
			d.broadcaster.CommandFailed(conn, string(cmd.Op), apierr.CodeInternalError, "internal error")
		},
		slog.String("connection_id", string(conn)),
		slog.String("op", string(cmd.Op)))
}

// Run executes a decoded command
func (d *Dispatcher) Run(ctx context.Context, conn model.ConnectionID, cmd Command) {
	switch cmd.Op {
	case OpRegisterPlayer:
		if _, err := d.coordinator.RegisterPlayer(ctx, conn, model.PlayerID(cmd.PlayerID), cmd.DisplayName); err != nil {
			d.fail(conn, cmd.Op, err)
		}
	case OpCreateGame:
		d.coordinator.CreateGame(ctx, conn, cmd.SessionName)
	case OpListAvailableGames:
		d.coordinator.ListAvailableGames(conn)
	case OpJoinGame:
		// The coordinator reports join failures to the caller itself
		_ = d.coordinator.JoinGame(conn, model.SessionID(cmd.SessionID))
	case OpPlayCard:
		if err := d.coordinator.PlayCard(conn, model.SessionID(cmd.SessionID), cmd.Card); err != nil {
			d.fail(conn, cmd.Op, err)
		}
	case OpLeaveGame:
		if err := d.coordinator.LeaveGame(conn, model.SessionID(cmd.SessionID)); err != nil {
			d.fail(conn, cmd.Op, err)
		}
	default:
		d.broadcaster.CommandFailed(conn, string(cmd.Op), apierr.CodeInvalidRequest, "unknown op")
	}
}

func (d *Dispatcher) fail(conn model.ConnectionID, op Op, err error) {
	_, apiErr := apierr.Describe(err)
	d.broadcaster.CommandFailed(conn, string(op), apiErr.Code, apiErr.Message)
	d.logger.Info("command rejected",
		slog.String("connection_id", string(conn)),
		slog.String("op", string(op)),
		slog.Any("error", err))
}
