package coordinator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cardtable/internal/dependencies/mocks"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/broadcast"
	"github.com/mcoot/cardtable/internal/services/registry"
	"github.com/mcoot/cardtable/internal/services/sessions"
	"github.com/mcoot/cardtable/internal/storage/memory"
	"github.com/mcoot/cardtable/internal/testutil"
)

type CoordinatorSuite struct {
	suite.Suite
	recorder    *broadcast.Recorder
	storage     *memory.Storage
	clock       *mocks.MockClock
	ids         *mocks.MockIDs
	coordinator *Coordinator
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.recorder = broadcast.NewRecorder()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.ids = mocks.NewMockIDs("id")
	s.build(sessions.Options{GracePeriod: 10 * time.Minute})
}

func (s *CoordinatorSuite) build(opts sessions.Options) {
	logger := testutil.NopLogger()
	b := broadcast.New(s.recorder, logger)
	store := sessions.NewStore(b, s.clock, s.ids, opts, logger)
	s.coordinator = New(
		registry.New(s.ids),
		store,
		sessions.NewDirectory(store),
		b,
		s.storage,
		s.clock,
		logger,
	)
}

func (s *CoordinatorSuite) lastPlayerList(conn model.ConnectionID) []string {
	events := s.recorder.Named(conn, model.EventPlayerList)
	s.Require().NotEmpty(events, "no PlayerList for %s", conn)
	return events[len(events)-1].Payload.(model.PlayerListPayload).Players
}

func (s *CoordinatorSuite) joinFailures(conn model.ConnectionID) []string {
	var reasons []string
	for _, e := range s.recorder.Named(conn, model.EventJoinFailed) {
		reasons = append(reasons, e.Payload.(model.JoinFailedPayload).Reason)
	}
	return reasons
}

// RegisterPlayer tests

func (s *CoordinatorSuite) TestRegisterPlayer_AcknowledgesAndPersists() {
	player, err := s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.Require().NoError(err)

	s.Equal(model.Player{ID: "p1", DisplayName: "Alice"}, player)
	events := s.recorder.Named("conn-1", model.EventPlayerRegistered)
	s.Require().Len(events, 1)
	s.Equal(model.PlayerRegisteredPayload{PlayerID: "p1"}, events[0].Payload)

	stored, err := s.coordinator.GetPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("Alice", stored.DisplayName)
	s.Equal(s.clock.Now(), stored.LastSeenAt)
}

func (s *CoordinatorSuite) TestRegisterPlayer_GeneratesMissingID() {
	player, err := s.coordinator.RegisterPlayer(s.ctx, "conn-1", "", "")
	s.Require().NoError(err)

	s.Equal(model.PlayerID("id-1"), player.ID)
	s.Equal("id-1", player.DisplayName)
}

func (s *CoordinatorSuite) TestRegisterPlayer_IdempotentReRegistration() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))

	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alicia")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal([]model.SessionMember{{PlayerID: "p1", DisplayName: "Alicia"}}, info.Members)
	s.Equal(1, info.Connections)
	s.Equal(1, s.coordinator.Stats().RegisteredConnections)
	s.Equal([]string{"Alicia"}, s.lastPlayerList("conn-1"))
}

func (s *CoordinatorSuite) TestRegisterPlayer_IdentitySwitchLeavesOldSessions() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.coordinator.RegisterPlayer(s.ctx, "conn-2", "p2", "Bob")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))
	s.Require().NoError(s.coordinator.JoinGame("conn-2", game.ID))

	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p3", "Carol")

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal([]model.SessionMember{{PlayerID: "p2", DisplayName: "Bob"}}, info.Members)
	s.Equal([]string{"Bob"}, s.lastPlayerList("conn-2"))
}

// CreateGame / ListAvailableGames tests

func (s *CoordinatorSuite) TestCreateGame_RecordsHistory() {
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")

	record, err := s.storage.GetSessionRecord(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal("Table1", record.Name)
	s.Nil(record.ClosedAt)

	events := s.recorder.Named("conn-1", model.EventGameCreated)
	s.Require().Len(events, 1)
}

func (s *CoordinatorSuite) TestCreateGame_DoesNotRequireRegistration() {
	game := s.coordinator.CreateGame(s.ctx, "conn-anon", "Table1")
	s.NotEmpty(game.ID)
}

func (s *CoordinatorSuite) TestListAvailableGames_SendsToCallerOnly() {
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.recorder.Reset()

	summaries := s.coordinator.ListAvailableGames("conn-2")

	s.Equal([]model.SessionSummary{{ID: game.ID, Name: "Table1"}}, summaries)
	s.Empty(s.recorder.For("conn-1"))
	events := s.recorder.Named("conn-2", model.EventAvailableGames)
	s.Require().Len(events, 1)
	s.Equal([]model.AvailableGame{{SessionID: game.ID, Name: "Table1"}}, events[0].Payload.(model.AvailableGamesPayload).Games)
}

func (s *CoordinatorSuite) TestListAvailableGames_ExcludesFullUntilSomeoneLeaves() {
	game := s.coordinator.CreateGame(s.ctx, "conn-0", "Table1")
	conns := []model.ConnectionID{"conn-1", "conn-2", "conn-3", "conn-4"}
	for i, conn := range conns {
		s.coordinator.RegisterPlayer(s.ctx, conn, model.PlayerID(conn)+"-p", string(rune('A'+i)))
		s.Require().NoError(s.coordinator.JoinGame(conn, game.ID))
	}

	s.Empty(s.coordinator.ListAvailableGames("conn-0"))

	s.coordinator.Disconnected("conn-3")
	s.Equal([]model.SessionSummary{{ID: game.ID, Name: "Table1"}}, s.coordinator.ListAvailableGames("conn-0"))
}

// JoinGame tests

func (s *CoordinatorSuite) TestJoinGame_UnregisteredRejected() {
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.recorder.Reset()

	err := s.coordinator.JoinGame("conn-9", game.ID)

	s.ErrorIs(err, model.ErrNotRegistered)
	s.Equal([]string{"Player not registered."}, s.joinFailures("conn-9"))
	s.Len(s.recorder.All(), 1)

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Empty(info.Members)
}

func (s *CoordinatorSuite) TestJoinGame_FullRejected() {
	game := s.coordinator.CreateGame(s.ctx, "conn-0", "Table1")
	for _, conn := range []model.ConnectionID{"c1", "c2", "c3", "c4"} {
		s.coordinator.RegisterPlayer(s.ctx, conn, model.PlayerID(conn), string(conn))
		s.Require().NoError(s.coordinator.JoinGame(conn, game.ID))
	}
	s.coordinator.RegisterPlayer(s.ctx, "c5", "c5", "Fifth")
	s.recorder.Reset()

	err := s.coordinator.JoinGame("c5", game.ID)

	s.ErrorIs(err, model.ErrSessionFull)
	s.Equal([]string{"Game is full (4 players max)."}, s.joinFailures("c5"))
	s.Empty(s.recorder.For("c1"))
}

func (s *CoordinatorSuite) TestJoinGame_UnknownSession() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")

	err := s.coordinator.JoinGame("conn-1", "missing")

	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Equal([]string{"Game not found."}, s.joinFailures("conn-1"))
}

func (s *CoordinatorSuite) TestJoinGame_SingleSessionMode() {
	s.build(sessions.Options{GracePeriod: time.Minute, SingleSessionPerPlayer: true})
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	a := s.coordinator.CreateGame(s.ctx, "conn-1", "A")
	b := s.coordinator.CreateGame(s.ctx, "conn-1", "B")

	s.Require().NoError(s.coordinator.JoinGame("conn-1", a.ID))
	err := s.coordinator.JoinGame("conn-1", b.ID)

	s.ErrorIs(err, model.ErrAlreadyInOtherSession)
	s.Equal([]string{"Player is already in another game."}, s.joinFailures("conn-1"))
}

// PlayCard tests

func (s *CoordinatorSuite) TestPlayCard_RelaysToGroup() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.coordinator.RegisterPlayer(s.ctx, "conn-2", "p2", "Bob")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))
	s.Require().NoError(s.coordinator.JoinGame("conn-2", game.ID))

	s.Require().NoError(s.coordinator.PlayCard("conn-1", game.ID, "Re di Coppe"))

	for _, conn := range []model.ConnectionID{"conn-1", "conn-2"} {
		events := s.recorder.Named(conn, model.EventCardPlayed)
		s.Require().Len(events, 1)
		s.Equal(model.CardPlayedPayload{DisplayName: "Alice", Card: "Re di Coppe"}, events[0].Payload)
	}
}

func (s *CoordinatorSuite) TestPlayCard_NonMemberMayRelay() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.coordinator.RegisterPlayer(s.ctx, "conn-2", "p2", "Bob")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))

	s.Require().NoError(s.coordinator.PlayCard("conn-2", game.ID, "anything at all"))

	s.Len(s.recorder.Named("conn-1", model.EventCardPlayed), 1)
	s.Empty(s.recorder.Named("conn-2", model.EventCardPlayed))
}

func (s *CoordinatorSuite) TestPlayCard_UnregisteredRejected() {
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.recorder.Reset()

	err := s.coordinator.PlayCard("conn-9", game.ID, "Re di Coppe")

	s.ErrorIs(err, model.ErrNotRegistered)
	s.Empty(s.recorder.All())
}

func (s *CoordinatorSuite) TestPlayCard_UnknownSession() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	err := s.coordinator.PlayCard("conn-1", "missing", "Re di Coppe")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Disconnect tests

func (s *CoordinatorSuite) TestDisconnected_CleansEverySession() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.coordinator.RegisterPlayer(s.ctx, "conn-2", "p2", "Bob")
	a := s.coordinator.CreateGame(s.ctx, "conn-1", "A")
	b := s.coordinator.CreateGame(s.ctx, "conn-1", "B")
	c := s.coordinator.CreateGame(s.ctx, "conn-2", "C")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", a.ID))
	s.Require().NoError(s.coordinator.JoinGame("conn-1", b.ID))
	s.Require().NoError(s.coordinator.JoinGame("conn-2", a.ID))
	s.Require().NoError(s.coordinator.JoinGame("conn-2", b.ID))
	s.Require().NoError(s.coordinator.JoinGame("conn-2", c.ID))
	s.recorder.Reset()

	s.coordinator.Disconnected("conn-1")

	for _, id := range []model.SessionID{a.ID, b.ID} {
		info, err := s.coordinator.GetGame(s.ctx, id)
		s.Require().NoError(err)
		s.Equal([]model.SessionMember{{PlayerID: "p2", DisplayName: "Bob"}}, info.Members)
	}
	info, err := s.coordinator.GetGame(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(info.Members, 1)

	lists := s.recorder.Named("conn-2", model.EventPlayerList)
	s.Len(lists, 2, "one update per affected session")
	for _, e := range lists {
		s.Equal([]string{"Bob"}, e.Payload.(model.PlayerListPayload).Players)
	}
	s.Empty(s.recorder.For("conn-1"))
}

func (s *CoordinatorSuite) TestDisconnected_FailsClosedAfterwards() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")

	s.coordinator.Disconnected("conn-1")

	s.ErrorIs(s.coordinator.JoinGame("conn-1", game.ID), model.ErrNotRegistered)
	s.ErrorIs(s.coordinator.PlayCard("conn-1", game.ID, "Re di Coppe"), model.ErrNotRegistered)
}

func (s *CoordinatorSuite) TestDisconnected_RegisterAfterwardsRejected() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.coordinator.Disconnected("conn-1")

	_, err := s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.ErrorIs(err, model.ErrConnectionNotFound)
	s.Zero(s.coordinator.Stats().RegisteredConnections)
	s.Len(s.recorder.Named("conn-1", model.EventPlayerRegistered), 1)
}

func (s *CoordinatorSuite) TestDisconnected_JoinLandingAfterCleanupIsUndone() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.coordinator.RegisterPlayer(s.ctx, "conn-2", "p2", "Bob")
	game := s.coordinator.CreateGame(s.ctx, "conn-2", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-2", game.ID))

	// The join looked up its player, then the transport went away before
	// the store saw it
	player, ok := s.coordinator.registry.Lookup("conn-1")
	s.Require().True(ok)
	s.coordinator.Disconnected("conn-1")
	s.ErrorIs(s.coordinator.join("conn-1", game.ID, player), model.ErrConnectionNotFound)

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal([]model.SessionMember{{PlayerID: "p2", DisplayName: "Bob"}}, info.Members)
	s.Equal(1, info.Connections)
	s.Empty(s.coordinator.store.SessionsFor("p1"))
	s.Equal([]string{"Bob"}, s.lastPlayerList("conn-2"))
}

func (s *CoordinatorSuite) TestDisconnected_RacingCommandsLeaveNoGhosts() {
	game := s.coordinator.CreateGame(s.ctx, "creator", "Table1")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		conn := model.ConnectionID(fmt.Sprintf("conn-%d", i))
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := s.coordinator.RegisterPlayer(s.ctx, conn, model.PlayerID(conn), string(conn)); err != nil {
				return
			}
			_ = s.coordinator.JoinGame(conn, game.ID)
		}()
		go func() {
			defer wg.Done()
			s.coordinator.Disconnected(conn)
		}()
	}
	wg.Wait()

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Empty(info.Members)
	s.Zero(info.Connections)
	s.Zero(s.coordinator.Stats().RegisteredConnections)
}

func (s *CoordinatorSuite) TestSweep_PrunesClosedConnections() {
	s.coordinator.Disconnected("conn-1")
	s.True(s.coordinator.registry.Closed("conn-1"))

	s.clock.Advance(closedConnectionRetention + time.Second)
	s.coordinator.Sweep(s.ctx)
	s.False(s.coordinator.registry.Closed("conn-1"))
}

// LeaveGame tests

func (s *CoordinatorSuite) TestLeaveGame_RemovesPlayerAndNotifiesOthers() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	s.coordinator.RegisterPlayer(s.ctx, "conn-2", "p2", "Bob")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))
	s.Require().NoError(s.coordinator.JoinGame("conn-2", game.ID))

	s.Require().NoError(s.coordinator.LeaveGame("conn-1", game.ID))

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal([]model.SessionMember{{PlayerID: "p2", DisplayName: "Bob"}}, info.Members)
	s.Equal([]string{"Bob"}, s.lastPlayerList("conn-2"))

	left := s.recorder.Named("conn-1", model.EventGameLeft)
	s.Require().Len(left, 1)
	s.Equal(model.GameLeftPayload{SessionID: game.ID}, left[0].Payload)

	// Still registered, so the player can come back
	s.NoError(s.coordinator.JoinGame("conn-1", game.ID))
}

func (s *CoordinatorSuite) TestLeaveGame_Rejections() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")

	s.ErrorIs(s.coordinator.LeaveGame("conn-9", game.ID), model.ErrNotRegistered)
	s.ErrorIs(s.coordinator.LeaveGame("conn-1", game.ID), model.ErrNotInSession)
	s.ErrorIs(s.coordinator.LeaveGame("conn-1", "missing"), model.ErrSessionNotFound)
	s.Empty(s.recorder.Named("conn-1", model.EventGameLeft))
}

func (s *CoordinatorSuite) TestDisconnected_ReconnectedPlayerStaysMember() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))

	// Same identity arrives on a new connection before the old one drops
	s.coordinator.RegisterPlayer(s.ctx, "conn-2", "p1", "Alice")
	s.Require().NoError(s.coordinator.JoinGame("conn-2", game.ID))
	s.coordinator.Disconnected("conn-1")

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Len(info.Members, 1)
	s.Equal(1, info.Connections)
}

func (s *CoordinatorSuite) TestDisconnected_UnknownConnectionIsNoOp() {
	s.coordinator.Disconnected("never-seen")
	s.Empty(s.recorder.All())
}

// Lifecycle tests

func (s *CoordinatorSuite) TestSweep_ClosesEmptySessionAndRecordsIt() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	game := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.Require().NoError(s.coordinator.JoinGame("conn-1", game.ID))
	s.coordinator.Disconnected("conn-1")

	s.clock.Advance(9 * time.Minute)
	s.Empty(s.coordinator.Sweep(s.ctx))

	s.clock.Advance(time.Minute)
	closed := s.coordinator.Sweep(s.ctx)
	s.Require().Len(closed, 1)

	info, err := s.coordinator.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(model.SessionStateClosed, info.State)
	s.Equal(1, info.PeakMembers)

	record, err := s.storage.GetSessionRecord(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().NotNil(record.ClosedAt)
	s.Equal(s.clock.Now(), *record.ClosedAt)

	s.Empty(s.coordinator.ListAvailableGames("conn-2"))
	s.Zero(s.coordinator.Stats().LiveSessions)
}

func (s *CoordinatorSuite) TestHistory_ListsLiveAndClosedSessions() {
	s.coordinator.RegisterPlayer(s.ctx, "conn-1", "p1", "Alice")
	first := s.coordinator.CreateGame(s.ctx, "conn-1", "Table1")
	s.clock.Advance(5 * time.Minute)
	second := s.coordinator.CreateGame(s.ctx, "conn-1", "Table2")

	s.clock.Advance(5 * time.Minute)
	s.Require().Len(s.coordinator.Sweep(s.ctx), 1)

	records, err := s.coordinator.History(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(first.ID, records[0].ID)
	s.Equal(second.ID, records[1].ID)
	s.NotNil(records[0].ClosedAt)
	s.Nil(records[1].ClosedAt)
}

func (s *CoordinatorSuite) TestGetGame_Unknown() {
	_, err := s.coordinator.GetGame(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *CoordinatorSuite) TestGetPlayer_Unknown() {
	_, err := s.coordinator.GetPlayer(s.ctx, "missing")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *CoordinatorSuite) TestRunJanitor_StopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.coordinator.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("janitor did not stop")
	}
}
