package realtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/cardtable/internal/dependencies/mocks"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/testutil"
)

func newTestHub() *Hub {
	return NewHub(
		mocks.NewMockIDs("conn"),
		mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
		testutil.NopLogger(),
	)
}

func receive(t *testing.T, client *Client) model.Event {
	t.Helper()
	select {
	case event, ok := <-client.Events():
		require.True(t, ok, "queue closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return model.Event{}
	}
}

func TestHub_RegisterAndSend(t *testing.T) {
	hub := newTestHub()
	client := hub.Register(TransportWebSocket, "127.0.0.1:1234")

	assert.Equal(t, model.ConnectionID("conn-1"), client.ID())
	assert.True(t, hub.Has(client.ID()))
	assert.Equal(t, 1, hub.ClientCount())

	ok := hub.Send(client.ID(), model.Event{Name: model.EventPlayerRegistered})
	assert.True(t, ok)
	assert.Equal(t, model.EventPlayerRegistered, receive(t, client).Name)
}

func TestHub_SendPreservesOrder(t *testing.T) {
	hub := newTestHub()
	client := hub.Register(TransportSSE, "")

	for i := 0; i < 10; i++ {
		require.True(t, hub.Send(client.ID(), model.Event{Name: model.EventName(fmt.Sprintf("e%d", i))}))
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, model.EventName(fmt.Sprintf("e%d", i)), receive(t, client).Name)
	}
}

func TestHub_SendUnknownConnection(t *testing.T) {
	hub := newTestHub()
	assert.False(t, hub.Send("missing", model.Event{Name: model.EventCardPlayed}))
}

func TestHub_SendDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	client := hub.Register(TransportWebSocket, "")

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, hub.Send(client.ID(), model.Event{Name: model.EventCardPlayed}))
	}
	assert.False(t, hub.Send(client.ID(), model.Event{Name: model.EventCardPlayed}))
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub()
	client := hub.Register(TransportWebSocket, "")

	hub.Unregister(client)
	hub.Unregister(client)

	assert.False(t, hub.Has(client.ID()))
	assert.Zero(t, hub.ClientCount())
	assert.False(t, hub.Send(client.ID(), model.Event{Name: model.EventCardPlayed}))

	_, ok := <-client.Events()
	assert.False(t, ok, "queue should be closed")
}

func TestHub_CloseEndsEveryClient(t *testing.T) {
	hub := newTestHub()
	a := hub.Register(TransportWebSocket, "")
	b := hub.Register(TransportSSE, "")

	hub.Close()

	for _, c := range []*Client{a, b} {
		_, ok := <-c.Events()
		assert.False(t, ok)
	}
	assert.Zero(t, hub.ClientCount())

	// Pumps unregister after Close; that must not panic
	hub.Unregister(a)
}
