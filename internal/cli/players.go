package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Player commands",
	}

	cmd.AddCommand(newPlayersGetCmd())
	cmd.AddCommand(newPlayersRegisterCmd())

	return cmd
}

func newPlayersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <player-id>",
		Short: "Show a player's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Player

			if err := client.Get("/api/v1/players/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newPlayersRegisterCmd() *cobra.Command {
	var (
		conn string
		id   string
		name string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a connection as a player",
		Long: `Bind a connection to a player identity. Reusing a player id after a
reconnect keeps the same identity; omitting it has the server pick one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"player_id":    id,
				"display_name": name,
			}
			var result Registered

			if err := client.Post(connectionPath(conn, "/register"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	addConnFlag(cmd, &conn)
	cmd.Flags().StringVar(&id, "id", "", "Player id (generated if empty)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the player id)")
	return cmd
}
