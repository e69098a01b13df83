package model

import (
	"fmt"
	"strings"
)

// Suit is one of the four Italian suits
type Suit string

const (
	SuitCoppe   Suit = "Coppe"   // Cups
	SuitDenari  Suit = "Denari"  // Coins
	SuitSpade   Suit = "Spade"   // Swords
	SuitBastoni Suit = "Bastoni" // Clubs
)

// Suits returns all suits in deck order
func Suits() []Suit {
	return []Suit{SuitCoppe, SuitDenari, SuitSpade, SuitBastoni}
}

// Rank is a card value; the numeric value is its face value
type Rank int

const (
	RankAsso    Rank = 1
	RankTre     Rank = 3
	RankQuattro Rank = 4
	RankCinque  Rank = 5
	RankSei     Rank = 6
	RankSette   Rank = 7
	RankFante   Rank = 8  // Jack
	RankCavallo Rank = 9  // Knight
	RankRe      Rank = 10 // King
)

var rankNames = map[Rank]string{
	RankAsso:    "Asso",
	RankTre:     "Tre",
	RankQuattro: "Quattro",
	RankCinque:  "Cinque",
	RankSei:     "Sei",
	RankSette:   "Sette",
	RankFante:   "Fante",
	RankCavallo: "Cavallo",
	RankRe:      "Re",
}

// Ranks returns all ranks in ascending order
func Ranks() []Rank {
	return []Rank{RankAsso, RankTre, RankQuattro, RankCinque, RankSei, RankSette, RankFante, RankCavallo, RankRe}
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

// Card is a single playing card. The relay carries cards as plain strings;
// this type exists for clients that want to build or check them.
type Card struct {
	Suit Suit
	Rank Rank
}

// String formats the card as "<Rank> di <Suit>", e.g. "Re di Coppe"
func (c Card) String() string {
	return c.Rank.String() + " di " + string(c.Suit)
}

// NewDeck returns every card, grouped by suit
func NewDeck() []Card {
	deck := make([]Card, 0, len(Suits())*len(Ranks()))
	for _, s := range Suits() {
		for _, r := range Ranks() {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ParseCard parses "<Rank> di <Suit>", case-insensitively
func ParseCard(s string) (Card, error) {
	rankPart, suitPart, ok := strings.Cut(strings.TrimSpace(s), " di ")
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}

	var card Card
	for r, name := range rankNames {
		if strings.EqualFold(name, strings.TrimSpace(rankPart)) {
			card.Rank = r
			break
		}
	}
	for _, suit := range Suits() {
		if strings.EqualFold(string(suit), strings.TrimSpace(suitPart)) {
			card.Suit = suit
			break
		}
	}

	if card.Rank == 0 || card.Suit == "" {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return card, nil
}
