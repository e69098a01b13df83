package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/cardtable/internal/dependencies/clock"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/broadcast"
	"github.com/mcoot/cardtable/internal/services/registry"
	"github.com/mcoot/cardtable/internal/services/sessions"
	"github.com/mcoot/cardtable/internal/storage"
)

// closedConnectionRetention is how long a disconnected handle keeps
// rejecting commands that were already in flight when it closed
const closedConnectionRetention = 5 * time.Minute

// Coordinator is the single entry point transports call into.
// It composes the registry, session store, directory and broadcaster,
// and persists player profiles and session history on the side.
type Coordinator struct {
	registry    *registry.Registry
	store       *sessions.Store
	directory   *sessions.Directory
	broadcaster *broadcast.Broadcaster
	storage     storage.Storage
	clock       clock.Clock
	logger      *slog.Logger
}

// New creates a new Coordinator
func New(
	reg *registry.Registry,
	store *sessions.Store,
	directory *sessions.Directory,
	broadcaster *broadcast.Broadcaster,
	storage storage.Storage,
	clk clock.Clock,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		registry:    reg,
		store:       store,
		directory:   directory,
		broadcaster: broadcaster,
		storage:     storage,
		clock:       clk,
		logger:      logger.With(slog.String("component", "coordinator")),
	}
}

// Stats is a point-in-time count of coordinator state
type Stats struct {
	RegisteredConnections int `json:"registered_connections"`
	LiveSessions          int `json:"live_sessions"`
}

// Stats returns current counts for health reporting
func (c *Coordinator) Stats() Stats {
	return Stats{
		RegisteredConnections: c.registry.Count(),
		LiveSessions:          c.store.Count(),
	}
}

// Connected records a new transport connection
func (c *Coordinator) Connected(conn model.ConnectionID, remoteAddr string) {
	c.logger.Info("client connected",
		slog.String("connection_id", string(conn)),
		slog.String("remote_addr", remoteAddr))
}

// RegisterPlayer binds the connection to an identity and acknowledges it.
// A connection switching to a different identity first leaves every
// session it joined under the old one. A connection that has already
// disconnected fails with ErrConnectionNotFound.
func (c *Coordinator) RegisterPlayer(ctx context.Context, conn model.ConnectionID, playerID model.PlayerID, displayName string) (model.Player, error) {
	player, previous, err := c.registry.Register(conn, playerID, displayName)
	if err != nil {
		return model.Player{}, err
	}
	if previous != nil && previous.ID != player.ID {
		c.detach(conn, previous.ID)
	}

	c.broadcaster.PlayerRegistered(conn, player.ID)
	c.logger.Info("player registered",
		slog.String("connection_id", string(conn)),
		slog.String("player_id", string(player.ID)),
		slog.String("display_name", player.DisplayName))

	profile := player
	profile.LastSeenAt = c.clock.Now()
	if err := c.storage.SavePlayer(ctx, &profile); err != nil {
		c.logger.Warn("failed to save player profile",
			slog.String("player_id", string(player.ID)),
			slog.Any("error", err))
	}
	return player, nil
}

// CreateGame opens a new session. It always succeeds; the session starts empty.
func (c *Coordinator) CreateGame(ctx context.Context, conn model.ConnectionID, name string) model.SessionInfo {
	info := c.store.Create(conn, name)

	record := &model.SessionRecord{
		ID:        info.ID,
		Name:      info.Name,
		CreatedAt: info.CreatedAt,
	}
	if err := c.storage.SaveSessionRecord(ctx, record); err != nil {
		c.logger.Warn("failed to save session record",
			slog.String("session_id", string(info.ID)),
			slog.Any("error", err))
	}
	return info
}

// ListAvailableGames sends the joinable sessions to the caller and returns them
func (c *Coordinator) ListAvailableGames(conn model.ConnectionID) []model.SessionSummary {
	summaries := c.directory.ListOpen()
	c.broadcaster.AvailableGames(conn, summaries)
	return summaries
}

// OpenGames returns the joinable sessions without notifying anyone
func (c *Coordinator) OpenGames() []model.SessionSummary {
	return c.directory.ListOpen()
}

// JoinGame adds the caller's player to the session. On failure the caller
// alone receives JoinFailed and the error is returned.
func (c *Coordinator) JoinGame(conn model.ConnectionID, sessionID model.SessionID) error {
	player, ok := c.registry.Lookup(conn)
	if !ok {
		c.rejectJoin(conn, sessionID, model.ErrNotRegistered)
		return model.ErrNotRegistered
	}
	return c.join(conn, sessionID, player)
}

func (c *Coordinator) join(conn model.ConnectionID, sessionID model.SessionID, player model.Player) error {
	if err := c.store.Join(sessionID, conn, player); err != nil {
		c.rejectJoin(conn, sessionID, err)
		return err
	}

	// Disconnected may have swept the player's sessions before the join
	// landed; whichever side runs second removes the connection
	if c.registry.Closed(conn) {
		c.store.RemoveConnection(sessionID, conn, player.ID)
		return model.ErrConnectionNotFound
	}
	return nil
}

// LeaveGame removes the caller's player, with all of its connections, from
// the session. The remaining members receive the updated PlayerList.
func (c *Coordinator) LeaveGame(conn model.ConnectionID, sessionID model.SessionID) error {
	player, ok := c.registry.Lookup(conn)
	if !ok {
		return model.ErrNotRegistered
	}

	if err := c.store.RemovePlayer(sessionID, player.ID); err != nil {
		return err
	}

	c.broadcaster.GameLeft(conn, sessionID)
	c.logger.Info("player left game",
		slog.String("connection_id", string(conn)),
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(player.ID)))
	return nil
}

func (c *Coordinator) rejectJoin(conn model.ConnectionID, sessionID model.SessionID, err error) {
	c.broadcaster.JoinFailed(conn, model.JoinFailureReason(err))
	c.logger.Info("join rejected",
		slog.String("connection_id", string(conn)),
		slog.String("session_id", string(sessionID)),
		slog.Any("error", err))
}

// PlayCard relays a card to every connection in the session.
// The card is not validated and the sender need not be a member.
func (c *Coordinator) PlayCard(conn model.ConnectionID, sessionID model.SessionID, card string) error {
	player, ok := c.registry.Lookup(conn)
	if !ok {
		return model.ErrNotRegistered
	}

	err := c.store.WithGroup(sessionID, func(group []model.ConnectionID) {
		c.broadcaster.CardPlayed(sessionID, group, player.DisplayName, card)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("card played",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(player.ID)),
		slog.String("card", card))
	return nil
}

// Disconnected releases the connection. It is unbound first, so anything
// it sends afterwards fails as unregistered, then removed from every session
// its player belongs to.
func (c *Coordinator) Disconnected(conn model.ConnectionID) {
	player, ok := c.registry.Unbind(conn, c.clock.Now())
	if !ok {
		c.logger.Info("client disconnected", slog.String("connection_id", string(conn)))
		return
	}

	left := c.detach(conn, player.ID)
	c.logger.Info("client disconnected",
		slog.String("connection_id", string(conn)),
		slog.String("player_id", string(player.ID)),
		slog.Int("sessions_left", left))
}

// detach removes conn from every session playerID belongs to and returns
// how many sessions dropped the player
func (c *Coordinator) detach(conn model.ConnectionID, playerID model.PlayerID) int {
	left := 0
	for _, sessionID := range c.store.SessionsFor(playerID) {
		if c.store.RemoveConnection(sessionID, conn, playerID) {
			left++
		}
	}
	return left
}

// GetGame returns a live session, or the stored history of a closed one
func (c *Coordinator) GetGame(ctx context.Context, sessionID model.SessionID) (model.SessionInfo, error) {
	info, err := c.store.Get(sessionID)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, model.ErrSessionNotFound) {
		return model.SessionInfo{}, err
	}

	record, err := c.storage.GetSessionRecord(ctx, sessionID)
	if errors.Is(err, model.ErrSessionRecordNotFound) {
		return model.SessionInfo{}, model.ErrSessionNotFound
	}
	if err != nil {
		return model.SessionInfo{}, fmt.Errorf("get session record: %w", err)
	}

	return model.SessionInfo{
		ID:          record.ID,
		Name:        record.Name,
		State:       model.SessionStateClosed,
		Members:     []model.SessionMember{},
		PeakMembers: record.PeakMembers,
		CreatedAt:   record.CreatedAt,
	}, nil
}

// GetPlayer returns a stored player profile
func (c *Coordinator) GetPlayer(ctx context.Context, playerID model.PlayerID) (*model.Player, error) {
	return c.storage.GetPlayer(ctx, playerID)
}

// History returns the stored records of every session, oldest first.
// Sessions still live have a nil ClosedAt.
func (c *Coordinator) History(ctx context.Context) ([]*model.SessionRecord, error) {
	records, err := c.storage.ListSessionRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	return records, nil
}

// Sweep closes sessions that have stayed empty past the grace period and
// writes their closure to the session history
func (c *Coordinator) Sweep(ctx context.Context) []model.SessionInfo {
	now := c.clock.Now()
	closed := c.store.Sweep(now)
	c.registry.PruneClosed(now.Add(-closedConnectionRetention))

	for _, info := range closed {
		record, err := c.storage.GetSessionRecord(ctx, info.ID)
		if err != nil {
			record = &model.SessionRecord{ID: info.ID, Name: info.Name, CreatedAt: info.CreatedAt}
		}
		closedAt := now
		record.ClosedAt = &closedAt
		record.PeakMembers = info.PeakMembers

		if err := c.storage.SaveSessionRecord(ctx, record); err != nil {
			c.logger.Warn("failed to record session closure",
				slog.String("session_id", string(info.ID)),
				slog.Any("error", err))
		}
	}
	return closed
}

// RunJanitor sweeps on every tick until the context is cancelled
func (c *Coordinator) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("session janitor started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			if closed := c.Sweep(ctx); len(closed) > 0 {
				c.logger.Info("swept empty sessions", slog.Int("closed", len(closed)))
			}
		}
	}
}
