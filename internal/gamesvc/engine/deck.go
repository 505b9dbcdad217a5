package engine

import (
	"fmt"
	"math/rand"
)

// deck sizes map to the lowest regular rank included: 52 keeps everything
// from Two, 36 starts at Six, 24 at Nine.
var lowestRankByCount = map[int]int{
	24: RankNine.Value,
	36: RankSix.Value,
	52: RankTwo.Value,
}

var regularRanks = []Rank{
	RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight,
	RankNine, RankTen, RankJack, RankQueen, RankKing, RankAce,
}

// Deck holds the remaining draw pile for one game. Index 0 is the next card
// to draw. The face-up trump card notionally stays in the deck as its bottom
// card: it is drawn last, after every face-down card is gone.
type Deck struct {
	cards []Card
	trump *Card
}

// BuildDeck constructs and shuffles the draw pile for the configured size,
// optionally extended by two jokers and by the rule set's special cards.
func BuildDeck(cardCount int, allowJokers bool, rs *RuleSet, rng *rand.Rand) (*Deck, error) {
	lowest, ok := lowestRankByCount[cardCount]
	if !ok {
		return nil, fmt.Errorf("unsupported card count %d (want 24, 36 or 52)", cardCount)
	}

	cards := make([]Card, 0, cardCount+2)
	for _, suit := range Suits {
		for _, rank := range regularRanks {
			if rank.Value < lowest {
				continue
			}
			cards = append(cards, NewCard(suit, rank))
		}
	}

	if allowJokers {
		cards = append(cards, NewCard(Hearts, RankJoker), NewCard(Spades, RankJoker))
	}

	if rs != nil {
		for _, spec := range rs.Specials {
			eff := spec.Effect
			c := NewCard(spec.Suit, spec.Rank)
			c.Special = &eff
			cards = append(cards, c)
		}
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })

	return &Deck{cards: cards}, nil
}

// ExposeTrump draws the next card and fixes it face up as the trump card at
// the bottom of the deck. ok is false if the deck is empty or the trump was
// already set.
func (d *Deck) ExposeTrump() (Card, bool) {
	if d.trump != nil || len(d.cards) == 0 {
		return Card{}, false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	d.trump = &c
	return c, true
}

// TrumpCard returns the exposed trump card while it has not been drawn yet.
func (d *Deck) TrumpCard() (Card, bool) {
	if d.trump == nil {
		return Card{}, false
	}
	return *d.trump, true
}

// Draw removes and returns the next card: face-down cards first, then the
// exposed trump. ok is false on an exhausted deck, which is a normal
// terminal condition, not an error.
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) > 0 {
		c := d.cards[0]
		d.cards = d.cards[1:]
		return c, true
	}
	if d.trump != nil {
		c := *d.trump
		d.trump = nil
		return c, true
	}
	return Card{}, false
}

// Size counts every card still in the deck, the exposed trump included.
func (d *Deck) Size() int {
	n := len(d.cards)
	if d.trump != nil {
		n++
	}
	return n
}

// FaceDownSize counts only the hidden cards above the trump.
func (d *Deck) FaceDownSize() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining draw order, top first.
func (d *Deck) Cards() []Card {
	out := make([]Card, 0, d.Size())
	out = append(out, d.cards...)
	if d.trump != nil {
		out = append(out, *d.trump)
	}
	return out
}

// DealInitial fills every hand to handSize in seat order, one full hand at a
// time, leaving at least one card for the trump. Callers validate the player
// count against the deck size before the game is created.
func DealInitial(d *Deck, hands []*Hand, handSize int) error {
	if d.Size() < len(hands)*handSize+1 {
		return fmt.Errorf("%w: deck of %d cannot deal %d cards to %d players",
			ErrInsufficientCards, d.Size(), handSize, len(hands))
	}
	for _, h := range hands {
		for h.Size() < handSize {
			c, ok := d.Draw()
			if !ok {
				return fmt.Errorf("%w: deck exhausted mid-deal", ErrInsufficientCards)
			}
			h.Add(c)
		}
	}
	return nil
}
