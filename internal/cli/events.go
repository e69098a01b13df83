package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

type eventsOptions struct {
	playerID string
	name     string
	count    int
}

func newEventsCmd() *cobra.Command {
	var opts eventsOptions

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Open a connection and stream its events",
		Long: `Open an event stream connection and print every event it receives.

The first event, Connected, carries the connection id that the
"games" and "players register" commands take as --conn. With --id or
--name the connection registers as that player as soon as it opens.

Events include:
  - PlayerRegistered, GameCreated, AvailableGames: replies to this connection
  - JoinFailed, CommandFailed: rejected commands
  - PlayerJoined, PlayerList, CardPlayed: table updates

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return streamEvents(ctx, NewOutput(cfg.Output, cmd.OutOrStdout()), opts)
		},
	}

	cmd.Flags().StringVar(&opts.playerID, "id", "", "Register as this player id")
	cmd.Flags().StringVar(&opts.name, "name", "", "Register with this display name")
	cmd.Flags().IntVar(&opts.count, "count", 0, "Disconnect after this many events (0 streams until interrupted)")

	return cmd
}

func streamEvents(ctx context.Context, out *Output, opts eventsOptions) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.URL("/api/v1/events"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	register := opts.playerID != "" || opts.name != ""
	received := 0

	err = readSSE(resp.Body, func(event, data string) bool {
		out.PrintEvent(StreamEvent{Time: time.Now(), Event: event, Data: json.RawMessage(data)})

		if event == "Connected" && register {
			var connected struct {
				ConnectionID string `json:"connection_id"`
			}
			if err := json.Unmarshal([]byte(data), &connected); err == nil {
				req := map[string]string{"player_id": opts.playerID, "display_name": opts.name}
				if err := client.Post(connectionPath(connected.ConnectionID, "/register"), req, nil); err != nil {
					out.PrintError(err)
				}
			}
		}

		received++
		return opts.count == 0 || received < opts.count
	})

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}

// readSSE parses an event stream, calling handle per event until it
// returns false or the stream ends. Comment lines are skipped.
func readSSE(r io.Reader, handle func(event, data string) bool) error {
	scanner := bufio.NewScanner(r)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				if !handle(currentEvent, strings.Join(dataLines, "\n")) {
					return nil
				}
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}
