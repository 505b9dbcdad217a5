package engine

import (
	"fmt"

	"github.com/google/uuid"
)

type Color string

const (
	ColorRed   Color = "red"
	ColorBlack Color = "black"
)

// Suit is immutable reference data, compared by name.
type Suit struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

var (
	Hearts   = Suit{Name: "Hearts", Color: ColorRed}
	Diamonds = Suit{Name: "Diamonds", Color: ColorRed}
	Clubs    = Suit{Name: "Clubs", Color: ColorBlack}
	Spades   = Suit{Name: "Spades", Color: ColorBlack}
)

// Suits in deck-building order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank value defines comparison order inside one suit.
type Rank struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

var (
	RankTwo   = Rank{Name: "Two", Value: 2}
	RankThree = Rank{Name: "Three", Value: 3}
	RankFour  = Rank{Name: "Four", Value: 4}
	RankFive  = Rank{Name: "Five", Value: 5}
	RankSix   = Rank{Name: "Six", Value: 6}
	RankSeven = Rank{Name: "Seven", Value: 7}
	RankEight = Rank{Name: "Eight", Value: 8}
	RankNine  = Rank{Name: "Nine", Value: 9}
	RankTen   = Rank{Name: "Ten", Value: 10}
	RankJack  = Rank{Name: "Jack", Value: 11}
	RankQueen = Rank{Name: "Queen", Value: 12}
	RankKing  = Rank{Name: "King", Value: 13}
	RankAce   = Rank{Name: "Ace", Value: 14}

	// RankJoker outranks every regular card of its suit.
	RankJoker = Rank{Name: "Joker", Value: 15}
)

// Card identity is the ID; suit/rank/special describe it. A card never
// changes after the deck is built.
type Card struct {
	ID      uuid.UUID      `json:"id"`
	Suit    Suit           `json:"suit"`
	Rank    Rank           `json:"rank"`
	Special *SpecialEffect `json:"special,omitempty"`
}

func NewCard(suit Suit, rank Rank) Card {
	return Card{ID: uuid.New(), Suit: suit, Rank: rank}
}

func (c Card) IsTrump(trump Suit) bool {
	return c.Suit.Name == trump.Name
}

func (c Card) IsSpecial() bool {
	return c.Special != nil
}

func (c Card) String() string {
	base := fmt.Sprintf("%s of %s", c.Rank.Name, c.Suit.Name)
	if c.Special != nil {
		return fmt.Sprintf("%s (%s)", base, c.Special.Kind)
	}
	return base
}

// Beats reports whether a beats b under the given trump suit. A trump beats
// any non-trump; within one suit the higher rank value wins; two different
// non-trump suits never beat each other. The relation is a pairwise
// predicate, not a total order.
func Beats(a, b Card, trump Suit) bool {
	aTrump, bTrump := a.IsTrump(trump), b.IsTrump(trump)

	if aTrump && !bTrump {
		return true
	}
	if !aTrump && bTrump {
		return false
	}
	if a.Suit.Name == b.Suit.Name {
		return a.Rank.Value > b.Rank.Value
	}
	return false
}
