package engine

import "testing"

func TestBeatsSameSuitByRank(t *testing.T) {
	six := NewCard(Spades, RankSix)
	eight := NewCard(Spades, RankEight)

	if !Beats(eight, six, Hearts) {
		t.Errorf("8♠ should beat 6♠ with hearts trump")
	}
	if Beats(six, eight, Hearts) {
		t.Errorf("6♠ should not beat 8♠")
	}
	if Beats(six, six, Hearts) {
		t.Errorf("equal cards should not beat each other")
	}
}

func TestBeatsTrumpOverNonTrump(t *testing.T) {
	trumpSix := NewCard(Hearts, RankSix)
	plainAce := NewCard(Spades, RankAce)

	if !Beats(trumpSix, plainAce, Hearts) {
		t.Errorf("trump 6♥ should beat non-trump A♠")
	}
	if Beats(plainAce, trumpSix, Hearts) {
		t.Errorf("non-trump A♠ should never beat trump 6♥")
	}
}

func TestBeatsDistinctNonTrumpSuitsNeither(t *testing.T) {
	// not a total order: two different non-trump suits are incomparable
	a := NewCard(Spades, RankKing)
	b := NewCard(Clubs, RankSix)

	if Beats(a, b, Hearts) || Beats(b, a, Hearts) {
		t.Errorf("cards of distinct non-trump suits must not beat each other")
	}
}

func TestBeatsWithinTrumpSuit(t *testing.T) {
	low := NewCard(Hearts, RankSeven)
	high := NewCard(Hearts, RankQueen)

	if !Beats(high, low, Hearts) {
		t.Errorf("Q♥ should beat 7♥ when hearts are trump")
	}
	if Beats(low, high, Hearts) {
		t.Errorf("7♥ should not beat Q♥")
	}
}
