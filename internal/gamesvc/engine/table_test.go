package engine

import (
	"errors"
	"testing"
)

func TestTableOpeningAndFollowUp(t *testing.T) {
	tb := NewTable()
	six := NewCard(Spades, RankSix)
	if err := tb.Attack(six, 6); err != nil {
		t.Fatalf("opening attack: %v", err)
	}

	// follow-up must match a rank already on the table
	if err := tb.Attack(NewCard(Clubs, RankSeven), 6); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("off-rank follow-up should be rejected, got %v", err)
	}
	if err := tb.Attack(NewCard(Clubs, RankSix), 6); err != nil {
		t.Fatalf("matching-rank follow-up: %v", err)
	}
	if tb.Len() != 2 {
		t.Errorf("table length = %d, want 2", tb.Len())
	}
}

func TestTableFollowUpMatchesDefenseRank(t *testing.T) {
	tb := NewTable()
	if err := tb.Attack(NewCard(Spades, RankSix), 6); err != nil {
		t.Fatal(err)
	}
	if err := tb.Defend(0, NewCard(Spades, RankTen), Hearts); err != nil {
		t.Fatal(err)
	}
	// the defense card's rank is on the table too
	if err := tb.Attack(NewCard(Diamonds, RankTen), 6); err != nil {
		t.Fatalf("follow-up matching defense rank: %v", err)
	}
}

func TestTableDefenderHandCap(t *testing.T) {
	tb := NewTable()
	ranks := []Rank{RankSix, RankSix, RankSix}
	suits := []Suit{Spades, Clubs, Diamonds}
	for i := 0; i < 2; i++ {
		if err := tb.Attack(NewCard(suits[i], ranks[i]), 2); err != nil {
			t.Fatalf("attack %d: %v", i, err)
		}
	}
	// defender holds 2 cards, a third undefended attack must be rejected
	if err := tb.Attack(NewCard(suits[2], ranks[2]), 2); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("attack past defender hand size should be rejected, got %v", err)
	}
}

func TestTableDefendValidation(t *testing.T) {
	tb := NewTable()
	if err := tb.Attack(NewCard(Spades, RankSix), 6); err != nil {
		t.Fatal(err)
	}

	if err := tb.Defend(0, NewCard(Clubs, RankAce), Hearts); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("off-suit non-trump defense should be rejected, got %v", err)
	}
	if err := tb.Defend(0, NewCard(Spades, RankEight), Hearts); err != nil {
		t.Fatalf("valid defense: %v", err)
	}

	// defending an already-defended entry is rejected even with a beating card
	if err := tb.Defend(0, NewCard(Spades, RankNine), Hearts); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("second defense on same entry should be rejected, got %v", err)
	}
	if !tb.AllDefended() {
		t.Errorf("table should be fully defended")
	}
}

func TestTableClearReturnsEverything(t *testing.T) {
	tb := NewTable()
	a := NewCard(Spades, RankSix)
	d := NewCard(Spades, RankNine)
	if err := tb.Attack(a, 6); err != nil {
		t.Fatal(err)
	}
	if err := tb.Defend(0, d, Hearts); err != nil {
		t.Fatal(err)
	}
	if err := tb.Attack(NewCard(Clubs, RankNine), 6); err != nil {
		t.Fatal(err)
	}

	cards := tb.Clear()
	if len(cards) != 3 {
		t.Fatalf("cleared %d cards, want 3", len(cards))
	}
	if !tb.IsEmpty() {
		t.Errorf("table should be empty after clear")
	}
}
