package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/cardtable/internal/model"
)

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Game session commands",
		Long: `Inspect game sessions, or run commands on behalf of a connection.

Commands that act for a connection need its id (--conn), which
"cardtable events" prints when it connects. Their results also arrive
on that connection's event stream.`,
	}

	cmd.AddCommand(newGamesListCmd())
	cmd.AddCommand(newGamesGetCmd())
	cmd.AddCommand(newGamesHistoryCmd())
	cmd.AddCommand(newGamesCreateCmd())
	cmd.AddCommand(newGamesJoinCmd())
	cmd.AddCommand(newGamesLeaveCmd())
	cmd.AddCommand(newGamesPlayCmd())

	return cmd
}

func newGamesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List games open for joining",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GamesResult

			if err := client.Get("/api/v1/games", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGamesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <session-id>",
		Short: "Show a game, live or closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Get("/api/v1/games/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGamesHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every recorded game, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result History

			if err := client.Get("/api/v1/history", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGamesCreateCmd() *cobra.Command {
	var conn string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a game",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if len(args) == 1 {
				req["name"] = args[0]
			}
			var result GameCreated

			if err := client.Post(connectionPath(conn, "/games"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	addConnFlag(cmd, &conn)
	return cmd
}

func newGamesJoinCmd() *cobra.Command {
	var conn string

	cmd := &cobra.Command{
		Use:   "join <session-id>",
		Short: "Join a game as the connection's player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			path := connectionPath(conn, "/games/"+url.PathEscape(args[0])+"/join")
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	addConnFlag(cmd, &conn)
	return cmd
}

func newGamesLeaveCmd() *cobra.Command {
	var conn string

	cmd := &cobra.Command{
		Use:   "leave <session-id>",
		Short: "Take the connection's player out of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			path := connectionPath(conn, "/games/"+url.PathEscape(args[0])+"/leave")
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	addConnFlag(cmd, &conn)
	return cmd
}

func newGamesPlayCmd() *cobra.Command {
	var (
		conn   string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "play <session-id> <card>",
		Short: "Play a card to a game",
		Long: `Relay a card to everyone at the table.

The server relays any text; --strict checks it names a real card
("Re di Coppe") before sending.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := normalizeCard(strings.Join(args[1:], " "), strict)
			if err != nil {
				return err
			}

			path := connectionPath(conn, "/games/"+url.PathEscape(args[0])+"/cards")
			if err := client.Post(path, map[string]string{"card": card}, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(fmt.Sprintf("Played %s", card))
			return nil
		},
	}

	addConnFlag(cmd, &conn)
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject text that is not a real card")
	return cmd
}

func addConnFlag(cmd *cobra.Command, conn *string) {
	cmd.Flags().StringVar(conn, "conn", "", "Connection id from the event stream (required)")
	_ = cmd.MarkFlagRequired("conn")
}

func connectionPath(conn, suffix string) string {
	return "/api/v1/connections/" + url.PathEscape(conn) + suffix
}

// normalizeCard trims the card text and, when strict, checks and
// canonicalizes it
func normalizeCard(text string, strict bool) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("card is required")
	}
	if !strict {
		return text, nil
	}
	card, err := model.ParseCard(text)
	if err != nil {
		return "", err
	}
	return card.String(), nil
}
