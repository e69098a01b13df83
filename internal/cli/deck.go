package cli

import (
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/mcoot/cardtable/internal/model"
)

func newDeckCmd() *cobra.Command {
	var shuffle bool

	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Print the card names the table uses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cards := model.NewDeck()
			if shuffle {
				rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
			}

			deck := Deck{Cards: make([]string, len(cards))}
			for i, c := range cards {
				deck.Cards[i] = c.String()
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(deck)
			return nil
		},
	}

	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Shuffle the deck")
	return cmd
}
