package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/cardtable/internal/realtime"
)

// drainTimeout is how long play keeps reading once input ends and the
// server has gone quiet
const drainTimeout = 500 * time.Millisecond

type playOptions struct {
	playerID string
	name     string
	strict   bool
}

const playHelp = `Commands:
  register <player-id> [display name]
  create [name]
  list
  join <session-id>
  leave <session-id>
  play <session-id> <card>
  quit`

func newPlayCmd() *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Sit at the table interactively over the websocket hub",
		Long: `Connect to the websocket hub, then read commands from stdin, one per line,
and print every event the server sends.

` + playHelp + `

With --id or --name the connection registers before reading input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runPlay(ctx, cmd.InOrStdin(), NewOutput(cfg.Output, cmd.OutOrStdout()), opts)
		},
	}

	cmd.Flags().StringVar(&opts.playerID, "id", "", "Register as this player id")
	cmd.Flags().StringVar(&opts.name, "name", "", "Register with this display name")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject card text that is not a real card")

	return cmd
}

func runPlay(ctx context.Context, in io.Reader, out *Output, opts playOptions) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, client.WebSocketURL("/gamehub"), nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	activity := make(chan struct{}, 1)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg realtime.RawMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			out.PrintEvent(StreamEvent{Time: time.Now(), Event: string(msg.Event), Data: msg.Data})
			select {
			case activity <- struct{}{}:
			default:
			}
		}
	}()

	if opts.playerID != "" || opts.name != "" {
		register := realtime.Command{Op: realtime.OpRegisterPlayer, PlayerID: opts.playerID, DisplayName: opts.name}
		if err := conn.WriteJSON(register); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for reading := true; reading; {
		select {
		case <-ctx.Done():
			return closeWebSocket(conn)
		case err := <-readErr:
			return serverClosed(err)
		case line, ok := <-lines:
			if !ok {
				reading = false
				break
			}
			cmd, quit, err := parsePlayLine(line, opts.strict)
			if quit {
				reading = false
				break
			}
			if err != nil {
				out.PrintError(err)
				continue
			}
			if cmd == nil {
				continue
			}
			if err := conn.WriteJSON(cmd); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
		}
	}

	// Input is done; print replies until the server goes quiet
	for {
		select {
		case <-ctx.Done():
			return closeWebSocket(conn)
		case err := <-readErr:
			return serverClosed(err)
		case <-activity:
		case <-time.After(drainTimeout):
			return closeWebSocket(conn)
		}
	}
}

func closeWebSocket(conn *websocket.Conn) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return nil
}

func serverClosed(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	return fmt.Errorf("connection lost: %w", err)
}

// parsePlayLine turns one input line into a command. A nil command with no
// error means there is nothing to send.
func parsePlayLine(line string, strict bool) (*realtime.Command, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false, nil
	}

	verb, rest := strings.ToLower(fields[0]), fields[1:]
	switch verb {
	case "quit", "exit":
		return nil, true, nil
	case "register":
		if len(rest) == 0 {
			return nil, false, errors.New("usage: register <player-id> [display name]")
		}
		return &realtime.Command{
			Op:          realtime.OpRegisterPlayer,
			PlayerID:    rest[0],
			DisplayName: strings.Join(rest[1:], " "),
		}, false, nil
	case "create":
		return &realtime.Command{Op: realtime.OpCreateGame, SessionName: strings.Join(rest, " ")}, false, nil
	case "list":
		return &realtime.Command{Op: realtime.OpListAvailableGames}, false, nil
	case "join":
		if len(rest) != 1 {
			return nil, false, errors.New("usage: join <session-id>")
		}
		return &realtime.Command{Op: realtime.OpJoinGame, SessionID: rest[0]}, false, nil
	case "leave":
		if len(rest) != 1 {
			return nil, false, errors.New("usage: leave <session-id>")
		}
		return &realtime.Command{Op: realtime.OpLeaveGame, SessionID: rest[0]}, false, nil
	case "play":
		if len(rest) < 2 {
			return nil, false, errors.New("usage: play <session-id> <card>")
		}
		card, err := normalizeCard(strings.Join(rest[1:], " "), strict)
		if err != nil {
			return nil, false, err
		}
		return &realtime.Command{Op: realtime.OpPlayCard, SessionID: rest[0], Card: card}, false, nil
	default:
		return nil, false, fmt.Errorf("unknown command %q\n%s", verb, playHelp)
	}
}
