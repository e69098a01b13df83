package sessions

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/cardtable/internal/dependencies/clock"
	"github.com/mcoot/cardtable/internal/dependencies/ids"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/broadcast"
)

// DefaultGracePeriod is how long a session may stay empty before it closes
const DefaultGracePeriod = 10 * time.Minute

// Options configures a Store
type Options struct {
	// GracePeriod is how long an empty session survives before Sweep evicts it
	GracePeriod time.Duration
	// SingleSessionPerPlayer rejects joins from players already in another session
	SingleSessionPerPlayer bool
}

// Store owns every live session.
//
// Lock order: a session lock may be held while taking the index lock, never
// the reverse. The store lock is never held while taking a session lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*session

	index       *playerIndex
	broadcaster *broadcast.Broadcaster
	clock       clock.Clock
	ids         ids.Generator
	opts        Options
	logger      *slog.Logger
}

// NewStore creates an empty Store
func NewStore(
	broadcaster *broadcast.Broadcaster,
	clk clock.Clock,
	idGen ids.Generator,
	opts Options,
	logger *slog.Logger,
) *Store {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	return &Store{
		sessions:    make(map[model.SessionID]*session),
		index:       newPlayerIndex(),
		broadcaster: broadcaster,
		clock:       clk,
		ids:         idGen,
		opts:        opts,
		logger:      logger.With(slog.String("component", "sessions")),
	}
}

// Create opens a new empty session and tells the creating connection about it
func (st *Store) Create(conn model.ConnectionID, name string) model.SessionInfo {
	id := model.SessionID(st.ids.NewID())
	sess := newSession(id, name, st.clock.Now())

	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()

	sess.mu.Lock()
	info := sess.infoLocked()
	sess.mu.Unlock()

	st.broadcaster.GameCreated(conn, id, name)
	st.logger.Info("session created",
		slog.String("session_id", string(id)),
		slog.String("name", name),
		slog.String("connection_id", string(conn)))
	return info
}

// Join adds the player and its connection to the session.
// A player that is already a member has its display name refreshed and the
// connection added to the group without a capacity check.
func (st *Store) Join(sessionID model.SessionID, conn model.ConnectionID, player model.Player) error {
	sess, ok := st.lookup(sessionID)
	if !ok {
		return model.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return model.ErrSessionNotFound
	}

	// A connection carries one identity. A stale owner whose only
	// connection is this one gives up its seat to the joiner.
	owner, stale := sess.group[conn]
	stale = stale && owner != player.ID
	seats := len(sess.members)
	if stale && sess.onlyConnectionLocked(owner, conn) {
		seats--
	}

	_, isMember := sess.members[player.ID]
	if !isMember {
		if seats >= model.MaxPlayers {
			return model.ErrSessionFull
		}
		if st.opts.SingleSessionPerPlayer {
			if !st.index.claim(player.ID, sessionID) {
				return model.ErrAlreadyInOtherSession
			}
		} else {
			st.index.add(player.ID, sessionID)
		}
	}

	if stale {
		delete(sess.group, conn)
		if !sess.hasConnectionForLocked(owner) {
			sess.removeMemberLocked(owner, st.clock.Now())
			st.index.remove(owner, sessionID)
		}
	}

	sess.addMemberLocked(player.ID, player.DisplayName)
	sess.group[conn] = player.ID

	group := sess.groupLocked()
	st.broadcaster.PlayerJoined(sessionID, group, player.DisplayName)
	st.broadcaster.PlayerList(sessionID, group, sess.namesLocked())

	st.logger.Info("player joined session",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(player.ID)),
		slog.Int("members", len(sess.members)),
		slog.Bool("rejoin", isMember))
	return nil
}

// RemoveConnection drops the connection from the session's group. The player
// stays a member while another of its connections remains in the group.
// It reports whether a member was removed.
func (st *Store) RemoveConnection(sessionID model.SessionID, conn model.ConnectionID, playerID model.PlayerID) bool {
	sess, ok := st.lookup(sessionID)
	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if owner, bound := sess.group[conn]; bound && owner == playerID {
		delete(sess.group, conn)
	}
	if _, isMember := sess.members[playerID]; !isMember || sess.hasConnectionForLocked(playerID) {
		return false
	}

	st.removeMemberLocked(sess, playerID)
	return true
}

// RemovePlayer removes the player and every one of its connections from the session
func (st *Store) RemovePlayer(sessionID model.SessionID, playerID model.PlayerID) error {
	sess, ok := st.lookup(sessionID)
	if !ok {
		return model.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return model.ErrSessionNotFound
	}
	if _, isMember := sess.members[playerID]; !isMember {
		return model.ErrNotInSession
	}
	st.removeMemberLocked(sess, playerID)
	return nil
}

func (st *Store) removeMemberLocked(sess *session, playerID model.PlayerID) {
	sess.removeMemberLocked(playerID, st.clock.Now())
	st.index.remove(playerID, sess.id)

	st.broadcaster.PlayerList(sess.id, sess.groupLocked(), sess.namesLocked())
	st.logger.Info("player left session",
		slog.String("session_id", string(sess.id)),
		slog.String("player_id", string(playerID)),
		slog.Int("members", len(sess.members)))
}

// WithGroup calls fn with the session's broadcast group while the session
// lock is held, so anything fn sends reaches exactly the current group
func (st *Store) WithGroup(sessionID model.SessionID, fn func(group []model.ConnectionID)) error {
	sess, ok := st.lookup(sessionID)
	if !ok {
		return model.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return model.ErrSessionNotFound
	}
	fn(sess.groupLocked())
	return nil
}

// SessionsFor returns the sessions the player is a member of
func (st *Store) SessionsFor(playerID model.PlayerID) []model.SessionID {
	return st.index.sessionsFor(playerID)
}

// Get returns a snapshot of one live session
func (st *Store) Get(sessionID model.SessionID) (model.SessionInfo, error) {
	sess, ok := st.lookup(sessionID)
	if !ok {
		return model.SessionInfo{}, model.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.infoLocked(), nil
}

// Count returns the number of live sessions
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep closes and evicts every session that has been empty for at least
// the grace period, returning the closed sessions
func (st *Store) Sweep(now time.Time) []model.SessionInfo {
	var closed []model.SessionInfo
	for _, sess := range st.snapshot() {
		sess.mu.Lock()
		if !sess.closed && len(sess.members) == 0 && sess.emptySince != nil &&
			now.Sub(*sess.emptySince) >= st.opts.GracePeriod {
			sess.closed = true
			closed = append(closed, sess.infoLocked())
		}
		sess.mu.Unlock()
	}

	if len(closed) == 0 {
		return nil
	}

	st.mu.Lock()
	for _, info := range closed {
		delete(st.sessions, info.ID)
	}
	st.mu.Unlock()

	for _, info := range closed {
		st.logger.Info("session evicted",
			slog.String("session_id", string(info.ID)),
			slog.Int("peak_members", info.PeakMembers))
	}
	return closed
}

func (st *Store) lookup(sessionID model.SessionID) (*session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[sessionID]
	return sess, ok
}

// snapshot returns the live sessions ordered by creation time
func (st *Store) snapshot() []*session {
	st.mu.RLock()
	out := make([]*session, 0, len(st.sessions))
	for _, sess := range st.sessions {
		out = append(out, sess)
	}
	st.mu.RUnlock()

	// createdAt and id never change after creation
	sort.Slice(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].id < out[j].id
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}
