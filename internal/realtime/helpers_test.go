package realtime

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/cardtable/internal/dependencies/clock"
	"github.com/mcoot/cardtable/internal/dependencies/ids"
	"github.com/mcoot/cardtable/internal/model"
	"github.com/mcoot/cardtable/internal/services/broadcast"
	"github.com/mcoot/cardtable/internal/services/coordinator"
	"github.com/mcoot/cardtable/internal/services/registry"
	"github.com/mcoot/cardtable/internal/services/sessions"
	"github.com/mcoot/cardtable/internal/storage/memory"
	"github.com/mcoot/cardtable/internal/testutil"
)

// stack is a full coordinator behind both transports
type stack struct {
	hub         *Hub
	coordinator *coordinator.Coordinator
	dispatcher  *Dispatcher
	server      *httptest.Server
}

func newStack(t *testing.T, allowedOrigins ...string) *stack {
	t.Helper()

	logger := testutil.NopLogger()
	clk := clock.New()
	idGen := ids.New()

	hub := NewHub(idGen, clk, logger)
	b := broadcast.New(hub, logger)
	store := sessions.NewStore(b, clk, idGen, sessions.Options{}, logger)
	coord := coordinator.New(registry.New(idGen), store, sessions.NewDirectory(store), b, memory.New(), clk, logger)
	dispatcher := NewDispatcher(coord, b, logger)

	mux := http.NewServeMux()
	mux.Handle("/gamehub", NewWebSocketHandler(hub, coord, dispatcher, allowedOrigins, logger))
	mux.Handle("/events", NewSSEHandler(hub, coord, logger))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	t.Cleanup(hub.Close)

	return &stack{hub: hub, coordinator: coord, dispatcher: dispatcher, server: server}
}

func (s *stack) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http") + "/gamehub"
}

// wsPeer is a test websocket client
type wsPeer struct {
	t    *testing.T
	conn *websocket.Conn
}

func (s *stack) dial(t *testing.T) *wsPeer {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsPeer{t: t, conn: conn}
}

func (p *wsPeer) send(cmd Command) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(cmd))
}

func (p *wsPeer) sendRaw(frame string) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

// await reads until an event with the given name arrives and decodes its data
func (p *wsPeer) await(name model.EventName, into any) {
	p.t.Helper()
	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg RawMessage
		require.NoError(p.t, p.conn.ReadJSON(&msg), "waiting for %s", name)
		if msg.Event != name {
			continue
		}
		if into != nil {
			require.NoError(p.t, json.Unmarshal(msg.Data, into))
		}
		return
	}
}

// sseFrame is one parsed SSE event
type sseFrame struct {
	event string
	data  string
}

// ssePeer is a test SSE client
type ssePeer struct {
	t      *testing.T
	resp   *http.Response
	reader *bufio.Reader
	id     model.ConnectionID
}

func (s *stack) subscribe(t *testing.T) *ssePeer {
	t.Helper()
	resp, err := http.Get(s.server.URL + "/events")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	peer := &ssePeer{t: t, resp: resp, reader: bufio.NewReader(resp.Body)}

	frame := peer.next()
	require.Equal(t, string(model.EventConnected), frame.event)
	var hello model.ConnectedPayload
	require.NoError(t, json.Unmarshal([]byte(frame.data), &hello))
	require.NotEmpty(t, hello.ConnectionID)
	peer.id = hello.ConnectionID
	return peer
}

func (p *ssePeer) next() sseFrame {
	p.t.Helper()
	var frame sseFrame
	var data []string
	for {
		line, err := p.reader.ReadString('\n')
		require.NoError(p.t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if frame.event != "" {
				frame.data = strings.Join(data, "\n")
				return frame
			}
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event: "):
			frame.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func (p *ssePeer) await(name model.EventName, into any) {
	p.t.Helper()
	for {
		frame := p.next()
		if frame.event != string(name) {
			continue
		}
		if into != nil {
			require.NoError(p.t, json.Unmarshal([]byte(frame.data), into))
		}
		return
	}
}
