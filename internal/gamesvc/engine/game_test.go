package engine

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
)

// newTestGame builds a game with fixed hands and draw pile so scenarios can
// assert exact cards, bypassing the shuffle in NewGame.
func newTestGame(t *testing.T, trump Card, stock []Card, trumpInDeck bool, hands ...[]Card) *Game {
	t.Helper()
	d := &Deck{cards: append([]Card(nil), stock...)}
	if trumpInDeck {
		tc := trump
		d.trump = &tc
	}
	g := &Game{
		ID:        uuid.New(),
		cfg:       Config{CardCount: 36, HandSize: 6},
		deck:      d,
		trump:     trump,
		table:     NewTable(),
		direction: 1,
		phase:     PhaseAttacking,
		turnNo:    1,
		now:       time.Now,
	}
	total := d.Size()
	for i, cards := range hands {
		h := NewHand()
		for _, c := range cards {
			h.Add(c)
		}
		g.seats = append(g.seats, &Seat{UserID: int64(i + 1), Position: i, Hand: h, cardsRemaining: h.Size()})
		total += h.Size()
	}
	g.totalCards = total
	g.attacker = 0
	g.defender = g.nextInPlay(0)
	g.startedAt = time.Now()
	return g
}

func assertCounters(t *testing.T, g *Game) {
	t.Helper()
	for _, s := range g.Seats() {
		if s.CardsRemaining() != s.Hand.Size() {
			t.Fatalf("seat %d cards_remaining %d != hand size %d", s.Position, s.CardsRemaining(), s.Hand.Size())
		}
	}
}

func TestNewGameDealAndTrump(t *testing.T) {
	g, err := NewGame([]int64{1, 2}, Config{CardCount: 36, Rand: rand.New(rand.NewSource(11))})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	for _, s := range g.Seats() {
		if s.Hand.Size() != 6 {
			t.Errorf("seat %d dealt %d cards, want 6", s.Position, s.Hand.Size())
		}
	}
	if g.FaceDownDeckSize() != 23 {
		t.Errorf("face-down deck = %d, want 23", g.FaceDownDeckSize())
	}
	if g.DeckSize() != 24 {
		t.Errorf("deck size = %d, want 24 including exposed trump", g.DeckSize())
	}
	if g.Phase() != PhaseAttacking {
		t.Errorf("phase = %s, want attacking", g.Phase())
	}
	assertCounters(t, g)
}

func TestNewGameInsufficientCards(t *testing.T) {
	_, err := NewGame([]int64{1, 2, 3, 4}, Config{CardCount: 24})
	if !errors.Is(err, ErrInsufficientCards) {
		t.Fatalf("expected ErrInsufficientCards for 4 players on 24 cards, got %v", err)
	}
}

func TestDefendSameSuitAndIdempotence(t *testing.T) {
	six := NewCard(Spades, RankSix)
	eight := NewCard(Spades, RankEight)
	nine := NewCard(Spades, RankNine)
	filler := NewCard(Diamonds, RankSeven)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six, filler},
		[]Card{eight, nine},
	)

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if _, err := g.Defend(2, 0, eight.ID); err != nil {
		t.Fatalf("defend with 8♠: %v", err)
	}
	// second defense of the same entry is an invalid move
	if _, err := g.Defend(2, 0, nine.ID); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("re-defending a defended entry should fail, got %v", err)
	}
	assertCounters(t, g)
}

func TestPickupAfterFailedTrumpDefense(t *testing.T) {
	trumpSeven := NewCard(Hearts, RankSeven)
	sixClubs := NewCard(Clubs, RankSix)
	filler1 := NewCard(Spades, RankKing)
	filler2 := NewCard(Diamonds, RankSix)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{trumpSeven, filler1},
		[]Card{sixClubs, filler2},
	)

	if _, err := g.Attack(1, trumpSeven.ID); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if _, err := g.Defend(2, 0, sixClubs.ID); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("non-trump cannot beat trump, got %v", err)
	}

	before := g.Seats()[1].CardsRemaining()
	events, err := g.Pickup(2)
	if err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if got := g.Seats()[1].CardsRemaining(); got != before+1 {
		t.Errorf("defender cards_remaining = %d, want %d", got, before+1)
	}
	if g.DiscardCount() != 0 {
		t.Errorf("nothing should be discarded on pickup")
	}
	var sawResolved bool
	for _, ev := range events {
		if ev.Type == EventRoundResolved {
			sawResolved = true
			if ev.Outcome != OutcomePickedUp {
				t.Errorf("outcome = %s, want picked_up", ev.Outcome)
			}
			if len(ev.Cards) != 1 {
				t.Errorf("resolved %d cards, want 1", len(ev.Cards))
			}
		}
	}
	if !sawResolved {
		t.Errorf("expected a round-resolved event")
	}
	// pickup costs the defender their attacking turn
	if g.AttackerID() != 1 {
		t.Errorf("attacker after pickup = %d, want 1", g.AttackerID())
	}
	assertCounters(t, g)
}

func TestDiscardRotationAfterPass(t *testing.T) {
	six := NewCard(Spades, RankSix)
	ten := NewCard(Spades, RankTen)
	fillerA := NewCard(Diamonds, RankSeven)
	fillerB := NewCard(Clubs, RankEight)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six, fillerA},
		[]Card{ten, fillerB},
	)

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Defend(2, 0, ten.ID); err != nil {
		t.Fatal(err)
	}
	// attacker cannot pass over undefended cards, but here all are defended
	events, err := g.Pass(1)
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if g.DiscardCount() != 2 {
		t.Errorf("discard pile = %d, want 2", g.DiscardCount())
	}
	// successful defense: defender attacks next
	if g.AttackerID() != 2 || g.DefenderID() != 1 {
		t.Errorf("roles after discard = %d/%d, want 2/1", g.AttackerID(), g.DefenderID())
	}
	var advanced bool
	for _, ev := range events {
		if ev.Type == EventTurnAdvanced {
			advanced = true
			if ev.AttackerID != 2 || ev.DefenderID != 1 {
				t.Errorf("turn-advanced roles %d/%d, want 2/1", ev.AttackerID, ev.DefenderID)
			}
		}
	}
	if !advanced {
		t.Errorf("expected a turn-advanced event")
	}
	assertCounters(t, g)
}

func TestPassOverUndefendedRejected(t *testing.T) {
	six := NewCard(Spades, RankSix)
	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six, NewCard(Diamonds, RankSeven)},
		[]Card{NewCard(Clubs, RankEight), NewCard(Clubs, RankNine)},
	)
	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Pass(1); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("pass over undefended attack should fail, got %v", err)
	}
}

func TestReplenishDrawsBackToHandSize(t *testing.T) {
	six := NewCard(Spades, RankSix)
	ten := NewCard(Spades, RankTen)
	stock := []Card{
		NewCard(Clubs, RankSix), NewCard(Clubs, RankSeven), NewCard(Clubs, RankEight),
		NewCard(Clubs, RankNine), NewCard(Clubs, RankTen), NewCard(Clubs, RankJack),
	}

	g := newTestGame(t, NewCard(Hearts, RankQueen), stock, true,
		[]Card{six, NewCard(Diamonds, RankSeven)},
		[]Card{ten, NewCard(Diamonds, RankEight)},
	)
	g.cfg.HandSize = 3

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Defend(2, 0, ten.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Pass(1); err != nil {
		t.Fatal(err)
	}

	// both played one card from two-card hands; replenish refills to 3
	for _, s := range g.Seats() {
		if s.Hand.Size() != 3 {
			t.Errorf("seat %d hand = %d after replenish, want 3", s.Position, s.Hand.Size())
		}
	}
	assertCounters(t, g)
}

func TestGameFinishedLoserDetermination(t *testing.T) {
	six := NewCard(Spades, RankSix)
	eight := NewCard(Spades, RankEight)
	extra := NewCard(Diamonds, RankEight)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six},
		[]Card{eight, extra},
	)

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Defend(2, 0, eight.ID); err != nil {
		t.Fatal(err)
	}
	events, err := g.Pass(1)
	if err != nil {
		t.Fatal(err)
	}

	finished := 0
	for _, ev := range events {
		if ev.Type == EventGameFinished {
			finished++
			if ev.LoserID == nil || *ev.LoserID != 2 {
				t.Errorf("loser = %v, want 2", ev.LoserID)
			}
			if len(ev.Winners) != 1 || ev.Winners[0] != 1 {
				t.Errorf("winners = %v, want [1]", ev.Winners)
			}
		}
	}
	if finished != 1 {
		t.Fatalf("game-finished fired %d times, want exactly 1", finished)
	}
	if g.Phase() != PhaseFinished {
		t.Errorf("phase = %s, want finished", g.Phase())
	}
	if g.LoserID() == nil || *g.LoserID() != 2 {
		t.Errorf("game loser = %v, want 2", g.LoserID())
	}

	// terminal state never reopens
	if _, err := g.Attack(2, extra.ID); !errors.Is(err, ErrGameFinished) {
		t.Errorf("action on finished game should fail, got %v", err)
	}
}

func TestSimultaneousEmptyIsDraw(t *testing.T) {
	six := NewCard(Spades, RankSix)
	eight := NewCard(Spades, RankEight)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six},
		[]Card{eight},
	)

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	// defender covers with their last card: the round resolves on its own
	events, err := g.Defend(2, 0, eight.ID)
	if err != nil {
		t.Fatal(err)
	}

	var finished *Event
	for i, ev := range events {
		if ev.Type == EventGameFinished {
			finished = &events[i]
		}
	}
	if finished == nil {
		t.Fatal("expected game to finish when both hands empty")
	}
	if finished.LoserID != nil {
		t.Errorf("simultaneous exit should leave no durak, got %v", finished.LoserID)
	}
	if len(finished.Winners) != 2 {
		t.Errorf("winners = %v, want both players", finished.Winners)
	}
}

func TestNeighborThrowOnly(t *testing.T) {
	six := NewCard(Spades, RankSix)
	sixC := NewCard(Clubs, RankSix)
	sixD := NewCard(Diamonds, RankSix)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six, NewCard(Diamonds, RankSeven)},                    // seat 0: attacker
		[]Card{NewCard(Clubs, RankAce), NewCard(Spades, RankAce), NewCard(Hearts, RankTwo)}, // seat 1: defender
		[]Card{sixD, NewCard(Clubs, RankSeven)},                      // seat 2: defender's neighbor
		[]Card{sixC, NewCard(Diamonds, RankEight)},                   // seat 3: not adjacent to defender
	)
	g.cfg.NeighborThrowOnly = true

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	// seat 3 (user 4) is not seat-adjacent to the defender
	if _, err := g.Attack(4, sixC.ID); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("non-neighbor throw-in should be rejected, got %v", err)
	}
	// seat 2 (user 3) is adjacent
	if _, err := g.Attack(3, sixD.ID); err != nil {
		t.Fatalf("neighbor throw-in: %v", err)
	}
	assertCounters(t, g)
}

func TestDefenderLeavesMidRound(t *testing.T) {
	six := NewCard(Spades, RankSix)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six, NewCard(Diamonds, RankSeven)},
		[]Card{NewCard(Clubs, RankEight), NewCard(Clubs, RankNine)},
		[]Card{NewCard(Diamonds, RankNine), NewCard(Diamonds, RankTen)},
	)

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	events, err := g.Leave(2)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}

	var left, resolved bool
	for _, ev := range events {
		switch ev.Type {
		case EventPlayerLeft:
			left = true
		case EventRoundResolved:
			resolved = true
			if ev.Outcome != OutcomePickedUp {
				t.Errorf("deserted defense outcome = %s, want picked_up", ev.Outcome)
			}
		}
	}
	if !left || !resolved {
		t.Errorf("expected player-left and round-resolved events, got %+v", events)
	}
	if g.Phase() == PhaseFinished {
		t.Fatalf("game should continue with two active players")
	}
	if len(g.TableEntries()) != 0 {
		t.Errorf("table should be cleared after desertion")
	}
	// the leaver's seat is skipped, not renumbered
	if g.AttackerID() == 2 || g.DefenderID() == 2 {
		t.Errorf("left player still in rotation: %d/%d", g.AttackerID(), g.DefenderID())
	}
	assertCounters(t, g)
}

func TestLeaveWithOnePlayerRemainingFinishes(t *testing.T) {
	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{NewCard(Spades, RankSix)},
		[]Card{NewCard(Clubs, RankEight)},
	)

	events, err := g.Leave(2)
	if err != nil {
		t.Fatal(err)
	}
	var finished bool
	for _, ev := range events {
		if ev.Type == EventGameFinished {
			finished = true
			if ev.LoserID == nil || *ev.LoserID != 2 {
				t.Errorf("deserter should be the durak, got %v", ev.LoserID)
			}
		}
	}
	if !finished {
		t.Fatalf("game should finish when one player remains")
	}
}

func TestSkipEffectPushesAttackerRole(t *testing.T) {
	skipCard := NewCard(Spades, RankSix)
	skipCard.Special = &SpecialEffect{Kind: EffectSkip}

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{skipCard, NewCard(Diamonds, RankSeven)},
		[]Card{NewCard(Clubs, RankEight), NewCard(Clubs, RankNine)},
		[]Card{NewCard(Diamonds, RankNine), NewCard(Diamonds, RankTen)},
	)

	if _, err := g.Attack(1, skipCard.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Pickup(2); err != nil {
		t.Fatal(err)
	}
	// pickup would hand the attack to seat 2; the skip pushes it past them
	if g.AttackerID() != 1 {
		t.Errorf("attacker = %d, want 1 after skip", g.AttackerID())
	}
	assertCounters(t, g)
}

func TestReverseEffectFlipsRotation(t *testing.T) {
	revCard := NewCard(Spades, RankSix)
	revCard.Special = &SpecialEffect{Kind: EffectReverse}

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{revCard, NewCard(Diamonds, RankSeven)},
		[]Card{NewCard(Clubs, RankEight), NewCard(Clubs, RankNine)},
		[]Card{NewCard(Diamonds, RankNine), NewCard(Diamonds, RankTen)},
	)

	if _, err := g.Attack(1, revCard.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Pickup(2); err != nil {
		t.Fatal(err)
	}
	// with reversed direction the next player after the defender is seat 0
	if g.AttackerID() != 1 || g.DefenderID() != 3 {
		t.Errorf("roles = %d/%d, want 1/3 under reversed rotation", g.AttackerID(), g.DefenderID())
	}
}

func TestDrawEffectForcesImmediateDraw(t *testing.T) {
	drawCard := NewCard(Spades, RankSix)
	drawCard.Special = &SpecialEffect{Kind: EffectDraw, Payload: "2"}
	stock := []Card{NewCard(Clubs, RankSix), NewCard(Clubs, RankSeven), NewCard(Clubs, RankTen)}

	g := newTestGame(t, NewCard(Hearts, RankQueen), stock, true,
		[]Card{drawCard, NewCard(Diamonds, RankSeven)},
		[]Card{NewCard(Clubs, RankEight), NewCard(Clubs, RankNine)},
	)

	before := g.Seats()[1].CardsRemaining()
	if _, err := g.Attack(1, drawCard.ID); err != nil {
		t.Fatal(err)
	}
	if got := g.Seats()[1].CardsRemaining(); got != before+2 {
		t.Errorf("defender drew to %d cards, want %d", got, before+2)
	}
	assertCounters(t, g)
}

func TestCustomEffectHook(t *testing.T) {
	custom := NewCard(Spades, RankSix)
	custom.Special = &SpecialEffect{Kind: EffectCustom, Payload: "wild"}

	var invoked bool
	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{custom, NewCard(Diamonds, RankSeven)},
		[]Card{NewCard(Clubs, RankEight), NewCard(Clubs, RankNine)},
	)
	g.cfg.CustomEffect = func(g *Game, card Card, actorSeat int) error {
		invoked = true
		if card.Special.Payload != "wild" {
			t.Errorf("payload = %q, want wild", card.Special.Payload)
		}
		return nil
	}

	if _, err := g.Attack(1, custom.ID); err != nil {
		t.Fatal(err)
	}
	if !invoked {
		t.Errorf("custom effect hook was not invoked")
	}
}

func TestTransferPassesDefenseAlong(t *testing.T) {
	sixS := NewCard(Spades, RankSix)
	sixD := NewCard(Diamonds, RankSix)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{sixS, NewCard(Diamonds, RankSeven)},
		[]Card{sixD, NewCard(Clubs, RankNine)},
		[]Card{NewCard(Diamonds, RankNine), NewCard(Diamonds, RankTen), NewCard(Clubs, RankTen)},
	)
	g.cfg.IsTransferable = true

	if _, err := g.Attack(1, sixS.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Transfer(2, sixD.ID); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if g.DefenderID() != 3 {
		t.Errorf("defender after transfer = %d, want 3", g.DefenderID())
	}
	if len(g.TableEntries()) != 2 {
		t.Errorf("table entries = %d, want 2 after transfer", len(g.TableEntries()))
	}
	assertCounters(t, g)
}

func TestTransferKeepsRolesDistinctTwoPlayers(t *testing.T) {
	sixS := NewCard(Spades, RankSix)
	sixD := NewCard(Diamonds, RankSix)

	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{sixS, NewCard(Clubs, RankSeven), NewCard(Clubs, RankEight)},
		[]Card{sixD, NewCard(Diamonds, RankNine)},
	)
	g.cfg.IsTransferable = true

	if _, err := g.Attack(1, sixS.ID); err != nil {
		t.Fatal(err)
	}
	events, err := g.Transfer(2, sixD.ID)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if g.AttackerID() == g.DefenderID() {
		t.Fatalf("attacker and defender are the same player (%d) after transfer", g.AttackerID())
	}
	// the transferring player leads the attack, the former attacker defends
	if g.AttackerID() != 2 || g.DefenderID() != 1 {
		t.Errorf("roles after transfer = %d/%d, want 2/1", g.AttackerID(), g.DefenderID())
	}
	for _, ev := range events {
		if ev.Type == EventTurnAdvanced && ev.AttackerID == ev.DefenderID {
			t.Errorf("turn-advanced reports one user in both roles: %d", ev.AttackerID)
		}
	}

	// the new defender can resolve the transferred round
	if _, err := g.Pickup(1); err != nil {
		t.Fatalf("pickup after transfer: %v", err)
	}
	assertCounters(t, g)
}

func TestTransferDisabledByDefault(t *testing.T) {
	sixS := NewCard(Spades, RankSix)
	sixD := NewCard(Diamonds, RankSix)
	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{sixS, NewCard(Diamonds, RankSeven)},
		[]Card{sixD, NewCard(Clubs, RankNine)},
		[]Card{NewCard(Diamonds, RankNine), NewCard(Diamonds, RankTen)},
	)

	if _, err := g.Attack(1, sixS.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Transfer(2, sixD.ID); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("transfer should be rejected when disabled, got %v", err)
	}
}

func TestApplyTimeoutDefaults(t *testing.T) {
	six := NewCard(Spades, RankSix)
	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six, NewCard(Diamonds, RankSeven)},
		[]Card{NewCard(Clubs, RankEight), NewCard(Clubs, RankNine)},
	)

	if _, err := g.Attack(1, six.ID); err != nil {
		t.Fatal(err)
	}
	// stalled defender with an undefended attack: default is pickup
	events, err := g.ApplyTimeout()
	if err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if len(events) == 0 || events[0].Type != EventTimeoutDefault {
		t.Fatalf("first event = %+v, want timeout-default", events)
	}
	if events[0].UserID != 2 {
		t.Errorf("timeout actor = %d, want defender 2", events[0].UserID)
	}
	if g.Seats()[1].CardsRemaining() != 3 {
		t.Errorf("defender should have picked the attack up")
	}

	// the audit log keeps the timeout marker next to the forced action
	moves := g.Moves()
	if n := len(moves); n < 2 || moves[n-2].Action != MoveTimeout || moves[n-1].Action != MovePickup {
		t.Errorf("move log tail = %v, want timeout then pickup", moves)
	}
	assertCounters(t, g)
}

// TestFullGameConservation plays whole games with a naive strategy and
// checks that every dealt card stays in exactly one place and every game
// terminates with a coherent result.
func TestFullGameConservation(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1337} {
		g, err := NewGame([]int64{1, 2, 3}, Config{
			CardCount: 36,
			Rand:      rand.New(rand.NewSource(seed)),
		})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}

		finishedEvents := 0
		for steps := 0; g.Phase() != PhaseFinished; steps++ {
			if steps > 5000 {
				t.Fatalf("seed %d: game did not terminate", seed)
			}
			events := playOneStep(t, g)
			for _, ev := range events {
				if ev.Type == EventGameFinished {
					finishedEvents++
				}
			}
			assertCounters(t, g)
		}
		if finishedEvents != 1 {
			t.Errorf("seed %d: game-finished fired %d times", seed, finishedEvents)
		}

		// winners plus loser account for every player
		players := map[int64]bool{1: false, 2: false, 3: false}
		for _, w := range g.Winners() {
			players[w] = true
		}
		if l := g.LoserID(); l != nil {
			players[*l] = true
		}
		for uid, seen := range players {
			if !seen {
				t.Errorf("seed %d: player %d neither won nor lost", seed, uid)
			}
		}
	}
}

// playOneStep makes one legal move for whoever must act.
func playOneStep(t *testing.T, g *Game) []Event {
	t.Helper()

	entries := g.TableEntries()
	undefended := -1
	for i, e := range entries {
		if !e.IsDefended() {
			undefended = i
			break
		}
	}

	if undefended >= 0 {
		hand, err := g.HandOf(g.DefenderID())
		if err != nil {
			t.Fatal(err)
		}
		for _, c := range hand {
			if events, err := g.Defend(g.DefenderID(), undefended, c.ID); err == nil {
				return events
			} else if !errors.Is(err, ErrInvalidMove) {
				t.Fatalf("defend: %v", err)
			}
		}
		events, err := g.Pickup(g.DefenderID())
		if err != nil {
			t.Fatalf("pickup: %v", err)
		}
		return events
	}

	hand, err := g.HandOf(g.AttackerID())
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range hand {
		if events, err := g.Attack(g.AttackerID(), c.ID); err == nil {
			return events
		} else if !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("attack: %v", err)
		}
	}
	events, err := g.Pass(g.AttackerID())
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	return events
}
