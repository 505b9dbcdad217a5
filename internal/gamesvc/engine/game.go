package engine

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Phase string

const (
	PhaseAttacking Phase = "attacking"
	PhaseDefending Phase = "defending"
	PhaseResolving Phase = "resolving"
	PhaseReplenish Phase = "replenish"
	PhaseFinished  Phase = "finished"
)

const DefaultHandSize = 6

// Config carries the lobby settings the engine reads once at game creation.
type Config struct {
	CardCount         int
	HandSize          int
	AllowJokers       bool
	IsTransferable    bool
	NeighborThrowOnly bool
	TurnTimeLimit     time.Duration
	RuleSet           *RuleSet
	CustomEffect      CustomEffectFunc
	Rand              *rand.Rand
}

// Seat is one player's slot at the table. A seat keeps its position for the
// whole game; players who leave or win out are marked, never renumbered.
type Seat struct {
	UserID   int64
	Position int
	Hand     *Hand

	// cardsRemaining mirrors Hand.Size and must always agree with it.
	cardsRemaining int

	Left bool
	Out  bool
}

// InPlay reports whether the seat still takes part in rotation.
func (s *Seat) InPlay() bool {
	return !s.Left && !s.Out
}

func (s *Seat) CardsRemaining() int {
	return s.cardsRemaining
}

// Game is the full in-memory state of one Durak match. All mutation goes
// through the exported action methods and must be serialized by the caller;
// Session does that with a per-game actor goroutine.
type Game struct {
	ID  uuid.UUID
	cfg Config

	deck    *Deck
	trump   Card
	table   *Table
	discard []Card
	removed []Card // cards that left play with a leaving player

	seats    []*Seat
	attacker int
	defender int

	direction    int // +1 normally, flipped by reverse effects
	pendingSkips int

	phase      Phase
	turnNo     int
	totalCards int

	loserID    *int64
	winners    []int64
	moves      []MoveRecord
	startedAt  time.Time
	finishedAt time.Time
	halted     bool

	now func() time.Time
}

// NewGame validates the settings, builds and deals the deck and exposes the
// trump. Seat order follows the order of playerIDs, which the caller has
// already randomized. InsufficientCards surfaces here, before any state
// exists anywhere else.
func NewGame(playerIDs []int64, cfg Config) (*Game, error) {
	if cfg.HandSize <= 0 {
		cfg.HandSize = DefaultHandSize
	}
	if len(playerIDs) < 2 {
		return nil, fmt.Errorf("need at least 2 players, have %d", len(playerIDs))
	}
	if cfg.RuleSet != nil && len(playerIDs) < cfg.RuleSet.MinPlayers {
		return nil, fmt.Errorf("rule set %q needs at least %d players, have %d",
			cfg.RuleSet.Name, cfg.RuleSet.MinPlayers, len(playerIDs))
	}

	deck, err := BuildDeck(cfg.CardCount, cfg.AllowJokers, cfg.RuleSet, cfg.Rand)
	if err != nil {
		return nil, err
	}
	total := deck.Size()
	if total < len(playerIDs)*cfg.HandSize+1 {
		return nil, fmt.Errorf("%w: %d cards cannot serve %d players",
			ErrInsufficientCards, total, len(playerIDs))
	}

	g := &Game{
		ID:         uuid.New(),
		cfg:        cfg,
		deck:       deck,
		table:      NewTable(),
		direction:  1,
		phase:      PhaseAttacking,
		turnNo:     1,
		totalCards: total,
		now:        time.Now,
	}

	hands := make([]*Hand, 0, len(playerIDs))
	for i, uid := range playerIDs {
		h := NewHand()
		g.seats = append(g.seats, &Seat{UserID: uid, Position: i, Hand: h})
		hands = append(hands, h)
	}
	if err := DealInitial(deck, hands, cfg.HandSize); err != nil {
		return nil, err
	}
	for _, s := range g.seats {
		s.cardsRemaining = s.Hand.Size()
	}

	trump, ok := deck.ExposeTrump()
	if !ok {
		return nil, fmt.Errorf("%w: no card left for trump", ErrInsufficientCards)
	}
	g.trump = trump
	g.startedAt = g.now()

	g.attacker = 0
	g.defender = g.nextInPlay(g.attacker)
	return g, nil
}

func (g *Game) guard() error {
	if g.halted {
		return ErrGameHalted
	}
	if g.phase == PhaseFinished {
		return ErrGameFinished
	}
	return nil
}

func (g *Game) seatOf(userID int64) (int, error) {
	for i, s := range g.seats {
		if s.UserID == userID {
			return i, nil
		}
	}
	return 0, invalidMove("user %d is not in this game", userID)
}

// nextInPlay walks the seat ring in the current direction and returns the
// first in-play seat after from. Positions are stable; left and finished
// seats are skipped, not removed.
func (g *Game) nextInPlay(from int) int {
	n := len(g.seats)
	for i := 1; i <= n; i++ {
		idx := ((from+i*g.direction)%n + n) % n
		if g.seats[idx].InPlay() {
			return idx
		}
	}
	return from
}

func (g *Game) inPlayCount() int {
	n := 0
	for _, s := range g.seats {
		if s.InPlay() {
			n++
		}
	}
	return n
}

// neighborOfDefender reports whether the seat sits directly next to the
// defender in the in-play ring, on either side.
func (g *Game) neighborOfDefender(idx int) bool {
	n := len(g.seats)
	for _, dir := range []int{1, -1} {
		for i := 1; i <= n; i++ {
			j := ((g.defender+i*dir)%n + n) % n
			if !g.seats[j].InPlay() {
				continue
			}
			if j == idx {
				return true
			}
			break
		}
	}
	return false
}

// mayThrowIn reports whether the seat is allowed to add follow-up attacks
// this round, honoring the neighbor-throw variant.
func (g *Game) mayThrowIn(idx int) bool {
	if idx == g.defender || !g.seats[idx].InPlay() {
		return false
	}
	if idx == g.attacker {
		return true
	}
	if g.cfg.NeighborThrowOnly {
		return g.neighborOfDefender(idx)
	}
	return true
}

func (g *Game) removeFromHand(idx int, cardID uuid.UUID) (Card, error) {
	c, err := g.seats[idx].Hand.Remove(cardID)
	if err != nil {
		return Card{}, err
	}
	g.seats[idx].cardsRemaining--
	return c, nil
}

func (g *Game) addToHand(idx int, c Card) {
	g.seats[idx].Hand.Add(c)
	g.seats[idx].cardsRemaining++
}

func (g *Game) recordMove(action MoveAction, userID int64, card, target *Card) {
	g.moves = append(g.moves, MoveRecord{
		TurnNo: g.turnNo,
		UserID: userID,
		Action: action,
		Card:   card,
		Target: target,
		At:     g.now(),
	})
}

// Attack plays a card from the acting player's hand as a new attack entry.
// The opening attack belongs to the attacker alone; follow-ups are open to
// every throw-in-eligible player once the round has started.
func (g *Game) Attack(userID int64, cardID uuid.UUID) ([]Event, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	idx, err := g.seatOf(userID)
	if err != nil {
		return nil, err
	}
	if g.table.IsEmpty() {
		if idx != g.attacker {
			return nil, invalidMove("only the attacker may open the round")
		}
	} else if !g.mayThrowIn(idx) {
		return nil, invalidMove("user %d may not throw in this round", userID)
	}

	card, ok := g.seats[idx].Hand.Get(cardID)
	if !ok {
		return nil, invalidMove("card %s not in hand", cardID)
	}
	if err := g.table.Attack(card, g.seats[g.defender].Hand.Size()); err != nil {
		return nil, err
	}
	if _, err := g.removeFromHand(idx, cardID); err != nil {
		return nil, err
	}
	g.phase = PhaseDefending
	g.recordMove(MoveAttack, userID, &card, nil)

	events, err := g.applySpecial(card, idx)
	if err != nil {
		return nil, err
	}
	if err := g.checkConsistency(); err != nil {
		return nil, err
	}
	return events, nil
}

// Defend answers the undefended attack entry at entryIndex with a card that
// beats it. Defending an already-defended entry is rejected without any
// state change. When the defender covers everything with an empty hand the
// round resolves immediately, there being nothing left to throw at them.
func (g *Game) Defend(userID int64, entryIndex int, cardID uuid.UUID) ([]Event, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	idx, err := g.seatOf(userID)
	if err != nil {
		return nil, err
	}
	if idx != g.defender {
		return nil, invalidMove("user %d is not the defender", userID)
	}
	if g.phase != PhaseDefending {
		return nil, invalidMove("nothing to defend")
	}

	card, ok := g.seats[idx].Hand.Get(cardID)
	if !ok {
		return nil, invalidMove("card %s not in hand", cardID)
	}
	entry, _ := g.table.Entry(entryIndex)
	if err := g.table.Defend(entryIndex, card, g.trump.Suit); err != nil {
		return nil, err
	}
	if _, err := g.removeFromHand(idx, cardID); err != nil {
		return nil, err
	}
	g.recordMove(MoveDefend, userID, &card, &entry.Attack)

	events, err := g.applySpecial(card, idx)
	if err != nil {
		return nil, err
	}
	if g.table.AllDefended() && g.seats[idx].Hand.Size() == 0 {
		events = append(events, g.resolveRound(OutcomeDiscarded)...)
	}
	if err := g.checkConsistency(); err != nil {
		return nil, err
	}
	return events, nil
}

// Transfer passes the whole attack on to the next player instead of
// defending, by adding a card of the attacked rank. The transferring
// player takes over the attack, so the roles stay distinct even with two
// players. Only legal in the transferable variant, before any entry has
// been defended, and only when the new defender can still answer every
// card.
func (g *Game) Transfer(userID int64, cardID uuid.UUID) ([]Event, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	if !g.cfg.IsTransferable {
		return nil, invalidMove("transfers are disabled in this game")
	}
	idx, err := g.seatOf(userID)
	if err != nil {
		return nil, err
	}
	if idx != g.defender {
		return nil, invalidMove("user %d is not the defender", userID)
	}
	if g.phase != PhaseDefending || g.table.IsEmpty() {
		return nil, invalidMove("nothing to transfer")
	}
	if g.table.UndefendedCount() != g.table.Len() {
		return nil, invalidMove("cannot transfer once a card has been defended")
	}

	card, ok := g.seats[idx].Hand.Get(cardID)
	if !ok {
		return nil, invalidMove("card %s not in hand", cardID)
	}
	if !g.table.HasRank(card.Rank.Value) {
		return nil, invalidMove("%s does not match the attacked rank", card)
	}
	next := g.nextInPlay(idx)
	if next == idx {
		return nil, invalidMove("no player to transfer to")
	}
	if g.seats[next].Hand.Size() < g.table.Len()+1 {
		return nil, invalidMove("next player cannot cover %d attacks", g.table.Len()+1)
	}

	if err := g.table.Attack(card, g.seats[next].Hand.Size()); err != nil {
		return nil, err
	}
	if _, err := g.removeFromHand(idx, cardID); err != nil {
		return nil, err
	}
	g.attacker = idx
	g.defender = next
	g.recordMove(MoveTransfer, userID, &card, nil)

	events, err := g.applySpecial(card, idx)
	if err != nil {
		return nil, err
	}
	events = append(events, Event{
		Type:       EventTurnAdvanced,
		AttackerID: g.seats[g.attacker].UserID,
		DefenderID: g.seats[g.defender].UserID,
		TurnNo:     g.turnNo,
	})
	if err := g.checkConsistency(); err != nil {
		return nil, err
	}
	return events, nil
}

// Pass is the attacker declining to add more cards. With a fully defended
// table it resolves the round as a discard; with an empty table it waives
// the attacking turn and hands the initiative on. Passing over undefended
// attacks is not a legal move.
func (g *Game) Pass(userID int64) ([]Event, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	idx, err := g.seatOf(userID)
	if err != nil {
		return nil, err
	}
	if idx != g.attacker {
		return nil, invalidMove("user %d is not the attacker", userID)
	}
	if !g.table.IsEmpty() && !g.table.AllDefended() {
		return nil, invalidMove("undefended attacks remain on the table")
	}

	g.recordMove(MovePass, userID, nil, nil)
	events := g.resolveRound(OutcomeDiscarded)
	if err := g.checkConsistency(); err != nil {
		return nil, err
	}
	return events, nil
}

// Pickup is the defender conceding the round: every card on the table,
// attack and defense alike, goes into their hand and their next attacking
// turn is skipped.
func (g *Game) Pickup(userID int64) ([]Event, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	idx, err := g.seatOf(userID)
	if err != nil {
		return nil, err
	}
	if idx != g.defender {
		return nil, invalidMove("user %d is not the defender", userID)
	}
	if g.table.IsEmpty() {
		return nil, invalidMove("nothing to pick up")
	}

	g.recordMove(MovePickup, userID, nil, nil)
	events := g.resolveRound(OutcomePickedUp)
	if err := g.checkConsistency(); err != nil {
		return nil, err
	}
	return events, nil
}

// Leave removes the player from rotation immediately. Their cards leave
// play with them; a deserted defense resolves as a pickup into the dead
// hand. The game finishes at once when fewer than two players remain, and
// the deserter is recorded as the durak.
func (g *Game) Leave(userID int64) ([]Event, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}
	idx, err := g.seatOf(userID)
	if err != nil {
		return nil, err
	}
	seat := g.seats[idx]
	if !seat.InPlay() {
		return nil, invalidMove("user %d is no longer in the game", userID)
	}

	g.recordMove(MoveLeave, userID, nil, nil)
	wasDefender := idx == g.defender
	wasAttacker := idx == g.attacker

	seat.Left = true
	g.removed = append(g.removed, seat.Hand.Cards()...)
	seat.Hand = NewHand()
	seat.cardsRemaining = 0

	events := []Event{{Type: EventPlayerLeft, UserID: userID, TurnNo: g.turnNo}}

	if g.inPlayCount() <= 1 {
		loser := userID
		events = append(events, g.finish(&loser)...)
		if err := g.checkConsistency(); err != nil {
			return nil, err
		}
		return events, nil
	}

	switch {
	case wasDefender:
		// deserted defense: table cards leave play with the deserter
		cards := g.table.Clear()
		g.removed = append(g.removed, cards...)
		if len(cards) > 0 {
			events = append(events, Event{
				Type:    EventRoundResolved,
				Outcome: OutcomePickedUp,
				Cards:   cards,
				TurnNo:  g.turnNo,
			})
		}
		events = append(events, g.advanceRound(OutcomePickedUp)...)
	case wasAttacker:
		g.attacker = g.nextInPlay(idx)
		if g.attacker == g.defender {
			g.attacker = g.nextInPlay(g.attacker)
		}
		events = append(events, Event{
			Type:       EventTurnAdvanced,
			AttackerID: g.seats[g.attacker].UserID,
			DefenderID: g.seats[g.defender].UserID,
			TurnNo:     g.turnNo,
		})
	}

	if err := g.checkConsistency(); err != nil {
		return nil, err
	}
	return events, nil
}

// ApplyTimeout applies the default action for whoever is stalling: pickup
// for a defender facing undefended attacks, pass for an attacker. The
// session's timeout policy decides when to call this; a timeout is logged,
// never treated as an error. Each timeout leaves two audit entries, the
// timeout marker followed by the concrete action it forced.
func (g *Game) ApplyTimeout() ([]Event, error) {
	if err := g.guard(); err != nil {
		return nil, err
	}

	var actor int64
	var events []Event
	var err error
	if g.phase == PhaseDefending && !g.table.AllDefended() {
		actor = g.seats[g.defender].UserID
		g.recordMove(MoveTimeout, actor, nil, nil)
		events, err = g.Pickup(actor)
	} else {
		actor = g.seats[g.attacker].UserID
		g.recordMove(MoveTimeout, actor, nil, nil)
		events, err = g.Pass(actor)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(events)+1)
	out = append(out, Event{Type: EventTimeoutDefault, UserID: actor, TurnNo: g.turnNo})
	out = append(out, events...)
	return out, nil
}

// resolveRound clears the table into the discard pile or the defender's
// hand, then replenishes and rotates.
func (g *Game) resolveRound(outcome RoundOutcome) []Event {
	g.phase = PhaseResolving
	cards := g.table.Clear()

	var events []Event
	switch outcome {
	case OutcomeDiscarded:
		g.discard = append(g.discard, cards...)
	case OutcomePickedUp:
		for _, c := range cards {
			g.addToHand(g.defender, c)
		}
	}
	if len(cards) > 0 {
		events = append(events, Event{
			Type:    EventRoundResolved,
			Outcome: outcome,
			Cards:   cards,
			TurnNo:  g.turnNo,
		})
	}
	return append(events, g.advanceRound(outcome)...)
}

// advanceRound runs the Replenish phase, checks terminal conditions and
// starts the next turn with rotated roles.
func (g *Game) advanceRound(outcome RoundOutcome) []Event {
	g.phase = PhaseReplenish
	g.replenish()

	events := g.checkTerminal()
	if g.phase == PhaseFinished {
		return events
	}

	g.rotateRoles(outcome)
	g.turnNo++
	g.phase = PhaseAttacking
	return append(events, Event{
		Type:       EventTurnAdvanced,
		AttackerID: g.seats[g.attacker].UserID,
		DefenderID: g.seats[g.defender].UserID,
		TurnNo:     g.turnNo,
	})
}

// replenish deals players back up to full hand size in seat order starting
// with the attacker, until the deck runs dry.
func (g *Game) replenish() {
	n := len(g.seats)
	for i := 0; i < n; i++ {
		idx := ((g.attacker+i*g.direction)%n + n) % n
		seat := g.seats[idx]
		if !seat.InPlay() {
			continue
		}
		for seat.Hand.Size() < g.cfg.HandSize {
			c, ok := g.deck.Draw()
			if !ok {
				return
			}
			g.addToHand(idx, c)
		}
	}
}

// checkTerminal retires empty-handed players once the deck is exhausted and
// finishes the game when at most one player is left in. Winners exit in
// seat order starting from the attacker; if everyone empties at once the
// game is a draw and no durak is recorded.
func (g *Game) checkTerminal() []Event {
	var events []Event
	if g.deck.Size() == 0 {
		n := len(g.seats)
		for i := 0; i < n; i++ {
			idx := ((g.attacker+i*g.direction)%n + n) % n
			seat := g.seats[idx]
			if seat.InPlay() && seat.Hand.Size() == 0 {
				seat.Out = true
				g.winners = append(g.winners, seat.UserID)
				events = append(events, Event{Type: EventPlayerOut, UserID: seat.UserID, TurnNo: g.turnNo})
			}
		}
	}

	if g.inPlayCount() <= 1 {
		var loser *int64
		for _, s := range g.seats {
			if s.InPlay() {
				uid := s.UserID
				loser = &uid
				break
			}
		}
		events = append(events, g.finish(loser)...)
	}
	return events
}

// finish is terminal: the loser, once set, never changes and the game never
// reopens.
func (g *Game) finish(loser *int64) []Event {
	g.loserID = loser
	g.phase = PhaseFinished
	g.finishedAt = g.now()
	return []Event{{
		Type:    EventGameFinished,
		LoserID: loser,
		Winners: append([]int64(nil), g.winners...),
		TurnNo:  g.turnNo,
	}}
}

// rotateRoles picks the next attacker and defender. A successful defense
// earns the defender the attack; a pickup costs them their attacking turn.
// Pending skip effects push the attacker role further along the ring.
func (g *Game) rotateRoles(outcome RoundOutcome) {
	switch outcome {
	case OutcomeDiscarded:
		if g.seats[g.defender].InPlay() {
			g.attacker = g.defender
		} else {
			g.attacker = g.nextInPlay(g.defender)
		}
	case OutcomePickedUp:
		g.attacker = g.nextInPlay(g.defender)
	}
	if !g.seats[g.attacker].InPlay() {
		g.attacker = g.nextInPlay(g.attacker)
	}
	for g.pendingSkips > 0 {
		g.attacker = g.nextInPlay(g.attacker)
		g.pendingSkips--
	}
	g.defender = g.nextInPlay(g.attacker)
}

// applySpecial interprets a just-played special card: skip and reverse
// mutate the coming rotation, draw forces the opponent to draw immediately,
// custom dispatches to the injected handler.
func (g *Game) applySpecial(card Card, actorSeat int) ([]Event, error) {
	if card.Special == nil {
		return nil, nil
	}
	switch card.Special.Kind {
	case EffectSkip:
		g.pendingSkips++
	case EffectReverse:
		g.direction = -g.direction
	case EffectDraw:
		count := 1
		if v, err := strconv.Atoi(card.Special.Payload); err == nil && v > 0 {
			count = v
		}
		target := g.defender
		if actorSeat == g.defender {
			target = g.attacker
		}
		for i := 0; i < count; i++ {
			c, ok := g.deck.Draw()
			if !ok {
				break
			}
			g.addToHand(target, c)
		}
	case EffectCustom:
		if g.cfg.CustomEffect != nil {
			if err := g.cfg.CustomEffect(g, card, actorSeat); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// checkConsistency verifies card conservation and the cards_remaining
// mirror after every committed action. A violation halts the game for
// good: correctness cannot be guaranteed past this point.
func (g *Game) checkConsistency() error {
	total := g.deck.Size() + len(g.discard) + len(g.removed)
	for _, e := range g.table.Entries() {
		total++
		if e.Defense != nil {
			total++
		}
	}
	for _, s := range g.seats {
		total += s.Hand.Size()
		if s.cardsRemaining != s.Hand.Size() {
			g.halted = true
			return fmt.Errorf("%w: seat %d counter %d != hand size %d",
				ErrStateConsistency, s.Position, s.cardsRemaining, s.Hand.Size())
		}
	}
	if total != g.totalCards {
		g.halted = true
		return fmt.Errorf("%w: %d cards accounted for, dealt %d", ErrStateConsistency, total, g.totalCards)
	}
	return nil
}
