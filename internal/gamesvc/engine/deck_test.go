package engine

import (
	"errors"
	"math/rand"
	"testing"
)

func TestBuildDeckSizes(t *testing.T) {
	cases := []struct {
		count   int
		jokers  bool
		want    int
		wantErr bool
	}{
		{count: 24, want: 24},
		{count: 36, want: 36},
		{count: 52, want: 52},
		{count: 52, jokers: true, want: 54},
		{count: 40, wantErr: true},
	}

	for _, tc := range cases {
		d, err := BuildDeck(tc.count, tc.jokers, nil, rand.New(rand.NewSource(1)))
		if tc.wantErr {
			if err == nil {
				t.Errorf("BuildDeck(%d) expected error", tc.count)
			}
			continue
		}
		if err != nil {
			t.Fatalf("BuildDeck(%d): %v", tc.count, err)
		}
		if d.Size() != tc.want {
			t.Errorf("BuildDeck(%d, jokers=%v) size = %d, want %d", tc.count, tc.jokers, d.Size(), tc.want)
		}
	}
}

func TestBuildDeckUniqueCards(t *testing.T) {
	d, err := BuildDeck(36, false, nil, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, c := range d.Cards() {
		key := c.Suit.Name + "/" + c.Rank.Name
		if seen[key] {
			t.Fatalf("duplicate card %s in deck", c)
		}
		seen[key] = true
	}
}

func TestBuildDeckRuleSetSpecials(t *testing.T) {
	rs := &RuleSet{
		Name:       "wild",
		MinPlayers: 2,
		Specials: []SpecialCardSpec{
			{Suit: Hearts, Rank: RankJoker, Effect: SpecialEffect{Kind: EffectSkip}},
			{Suit: Spades, Rank: RankJoker, Effect: SpecialEffect{Kind: EffectDraw, Payload: "2"}},
		},
	}
	d, err := BuildDeck(24, false, rs, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	if d.Size() != 26 {
		t.Fatalf("deck size = %d, want 26 with two specials", d.Size())
	}
	specials := 0
	for _, c := range d.Cards() {
		if c.IsSpecial() {
			specials++
		}
	}
	if specials != 2 {
		t.Errorf("found %d special cards, want 2", specials)
	}
}

func TestDrawShrinksMonotonically(t *testing.T) {
	d, err := BuildDeck(24, false, nil, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	for want := 24; want > 0; want-- {
		if d.Size() != want {
			t.Fatalf("deck size = %d, want %d", d.Size(), want)
		}
		if _, ok := d.Draw(); !ok {
			t.Fatalf("draw failed with %d cards left", want)
		}
	}
	if _, ok := d.Draw(); ok {
		t.Errorf("draw on empty deck should report ok=false")
	}
}

func TestDealInitialTwoPlayersOf36(t *testing.T) {
	d, err := BuildDeck(36, false, nil, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	hands := []*Hand{NewHand(), NewHand()}
	if err := DealInitial(d, hands, 6); err != nil {
		t.Fatalf("deal: %v", err)
	}
	for i, h := range hands {
		if h.Size() != 6 {
			t.Errorf("hand %d size = %d, want 6", i, h.Size())
		}
	}

	trump, ok := d.ExposeTrump()
	if !ok {
		t.Fatal("no trump card left after deal")
	}
	// 36 - 12 dealt - 1 face-up trump = 23 hidden, trump still counted in deck
	if d.FaceDownSize() != 23 {
		t.Errorf("face-down deck = %d, want 23", d.FaceDownSize())
	}
	if d.Size() != 24 {
		t.Errorf("deck size with exposed trump = %d, want 24", d.Size())
	}
	got, ok := d.TrumpCard()
	if !ok || got.ID != trump.ID {
		t.Errorf("trump card not exposed at deck bottom")
	}
}

func TestTrumpIsLastDraw(t *testing.T) {
	d, err := BuildDeck(24, false, nil, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatal(err)
	}
	trump, _ := d.ExposeTrump()

	var last Card
	for {
		c, ok := d.Draw()
		if !ok {
			break
		}
		last = c
	}
	if last.ID != trump.ID {
		t.Errorf("last drawn card = %s, want trump %s", last, trump)
	}
}

func TestDealInitialInsufficientCards(t *testing.T) {
	d, err := BuildDeck(24, false, nil, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatal(err)
	}
	hands := make([]*Hand, 4)
	for i := range hands {
		hands[i] = NewHand()
	}
	// 4 players * 6 cards + trump = 25 > 24
	err = DealInitial(d, hands, 6)
	if !errors.Is(err, ErrInsufficientCards) {
		t.Fatalf("expected ErrInsufficientCards, got %v", err)
	}
}
