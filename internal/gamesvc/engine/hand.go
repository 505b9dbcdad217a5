package engine

import "github.com/google/uuid"

// Hand is one player's cards for one game. Order is display order only;
// the rules never depend on it.
type Hand struct {
	cards []Card
}

func NewHand() *Hand {
	return &Hand{}
}

func (h *Hand) Add(c Card) {
	h.cards = append(h.cards, c)
}

// Remove takes the card with the given ID out of the hand. Removing an
// absent card is an invalid move.
func (h *Hand) Remove(id uuid.UUID) (Card, error) {
	for i, c := range h.cards {
		if c.ID == id {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			return c, nil
		}
	}
	return Card{}, invalidMove("card %s not in hand", id)
}

func (h *Hand) Get(id uuid.UUID) (Card, bool) {
	for _, c := range h.cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

func (h *Hand) Contains(id uuid.UUID) bool {
	_, ok := h.Get(id)
	return ok
}

func (h *Hand) Size() int {
	return len(h.cards)
}

// Cards returns a copy of the hand.
func (h *Hand) Cards() []Card {
	out := make([]Card, len(h.cards))
	copy(out, h.cards)
	return out
}
