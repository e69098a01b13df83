package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Output handles formatting output based on the configured format.
// It is safe for concurrent use; event streams print from their own goroutine.
type Output struct {
	format string
	mu     sync.Mutex
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

// StreamEvent is one event received from the server
type StreamEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// PrintEvent outputs one received event as a JSON line or a timestamped line
func (o *Output) PrintEvent(e StreamEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.format == "json" {
		data, _ := json.Marshal(e)
		_, _ = fmt.Fprintln(o.w, string(data))
		return
	}

	displayData := strings.ReplaceAll(string(e.Data), "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(o.w, "[%s] %s: %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Event, displayData)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case GamesResult:
		o.printGames(v)
	case Game:
		o.printGame(v)
	case History:
		o.printHistory(v)
	case Deck:
		o.printDeck(v)
	case HealthResult:
		o.printHealthResult(v)
	case Registered:
		_, _ = fmt.Fprintf(o.w, "Registered %s as %s\n", v.PlayerID, v.DisplayName)
	case GameCreated:
		_, _ = fmt.Fprintf(o.w, "Created game %s (%s)\n", v.Name, v.SessionID)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
}

// GameSummary is one open game
type GameSummary struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// GamesResult lists open games
type GamesResult struct {
	Games []GameSummary `json:"games"`
}

// Member response type
type Member struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// Game response type
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

// SessionRecord is one recorded game
type SessionRecord struct {
	SessionID   string     `json:"session_id"`
	Name        string     `json:"name"`
	PeakMembers int        `json:"peak_members"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// History lists recorded games
type History struct {
	Sessions []SessionRecord `json:"sessions"`
}

// Registered response type
type Registered struct {
	ConnectionID string `json:"connection_id"`
	PlayerID     string `json:"player_id"`
	DisplayName  string `json:"display_name"`
}

// GameCreated response type
type GameCreated struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// Deck is the list of card names
type Deck struct {
	Cards []string `json:"cards"`
}

// HealthResult response type
type HealthResult struct {
	Status                string `json:"status"`
	Connections           int    `json:"connections"`
	RegisteredConnections int    `json:"registered_connections"`
	LiveSessions          int    `json:"live_sessions"`
}

func (o *Output) printPlayer(p Player) {
	_, _ = fmt.Fprintf(o.w, "Player: %s (%s)\n", p.DisplayName, p.ID)
	if p.LastSeenAt != nil {
		_, _ = fmt.Fprintf(o.w, "Last seen: %s\n", p.LastSeenAt.Format(time.RFC3339))
	}
}

func (o *Output) printGames(g GamesResult) {
	if len(g.Games) == 0 {
		_, _ = fmt.Fprintln(o.w, "No open games")
		return
	}
	_, _ = fmt.Fprintf(o.w, "Open games (%d):\n", len(g.Games))
	for _, s := range g.Games {
		_, _ = fmt.Fprintf(o.w, "  - %s (%s)\n", s.Name, s.SessionID)
	}
}

func (o *Output) printGame(g Game) {
	_, _ = fmt.Fprintf(o.w, "Game: %s (%s)\n", g.Name, g.SessionID)
	_, _ = fmt.Fprintf(o.w, "State: %s\n", g.State)
	_, _ = fmt.Fprintf(o.w, "Created: %s\n", g.CreatedAt.Format(time.RFC3339))
	if g.EmptySince != nil {
		_, _ = fmt.Fprintf(o.w, "Empty since: %s\n", g.EmptySince.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(o.w, "Members (%d, peak %d):\n", len(g.Members), g.PeakMembers)
	for _, m := range g.Members {
		_, _ = fmt.Fprintf(o.w, "  - %s (%s)\n", m.DisplayName, m.PlayerID)
	}
}

func (o *Output) printHistory(h History) {
	if len(h.Sessions) == 0 {
		_, _ = fmt.Fprintln(o.w, "No recorded games")
		return
	}
	for _, s := range h.Sessions {
		status := "live"
		if s.ClosedAt != nil {
			status = "closed " + s.ClosedAt.Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(o.w, "  - %s (%s) peak %d, %s\n", s.Name, s.SessionID, s.PeakMembers, status)
	}
}

func (o *Output) printDeck(d Deck) {
	for _, c := range d.Cards {
		_, _ = fmt.Fprintln(o.w, c)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Connections: %d (%d registered)\n", h.Connections, h.RegisteredConnections)
	_, _ = fmt.Fprintf(o.w, "Live sessions: %d\n", h.LiveSessions)
}
