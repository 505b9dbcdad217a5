package engine

import "time"

// Read-side accessors. They expose copies; the live state only moves
// through the action methods.

func (g *Game) Trump() Card {
	return g.trump
}

func (g *Game) TrumpSuit() Suit {
	return g.trump.Suit
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) TurnNo() int {
	return g.turnNo
}

func (g *Game) Halted() bool {
	return g.halted
}

func (g *Game) AttackerID() int64 {
	return g.seats[g.attacker].UserID
}

func (g *Game) DefenderID() int64 {
	return g.seats[g.defender].UserID
}

func (g *Game) LoserID() *int64 {
	if g.loserID == nil {
		return nil
	}
	uid := *g.loserID
	return &uid
}

func (g *Game) Winners() []int64 {
	return append([]int64(nil), g.winners...)
}

func (g *Game) Seats() []*Seat {
	return append([]*Seat(nil), g.seats...)
}

func (g *Game) HandOf(userID int64) ([]Card, error) {
	idx, err := g.seatOf(userID)
	if err != nil {
		return nil, err
	}
	return g.seats[idx].Hand.Cards(), nil
}

func (g *Game) DeckSize() int {
	return g.deck.Size()
}

func (g *Game) FaceDownDeckSize() int {
	return g.deck.FaceDownSize()
}

func (g *Game) DiscardCount() int {
	return len(g.discard)
}

func (g *Game) TableEntries() []TableEntry {
	return g.table.Entries()
}

func (g *Game) Moves() []MoveRecord {
	return append([]MoveRecord(nil), g.moves...)
}

func (g *Game) StartedAt() time.Time {
	return g.startedAt
}

func (g *Game) FinishedAt() time.Time {
	return g.finishedAt
}

func (g *Game) TurnTimeLimit() time.Duration {
	return g.cfg.TurnTimeLimit
}

// SeatSnapshot is the persistence-facing view of one seat.
type SeatSnapshot struct {
	UserID         int64 `json:"user_id"`
	Position       int   `json:"seat_position"`
	CardsRemaining int   `json:"cards_remaining"`
	Left           bool  `json:"left"`
	Out            bool  `json:"out"`
}

// Snapshot is what the engine hands the repository at each checkpoint:
// creation, every resolved round, and finish.
type Snapshot struct {
	GameID     string         `json:"game_id"`
	Status     string         `json:"status"`
	TrumpCard  Card           `json:"trump_card"`
	TurnNo     int            `json:"turn_no"`
	Phase      Phase          `json:"phase"`
	DeckSize   int            `json:"deck_size"`
	LoserID    *int64         `json:"loser_id,omitempty"`
	Winners    []int64        `json:"winners,omitempty"`
	Seats      []SeatSnapshot `json:"seats"`
	Moves      []MoveRecord   `json:"moves"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

func (g *Game) Snapshot() Snapshot {
	status := "in_progress"
	var finished *time.Time
	if g.phase == PhaseFinished {
		status = "finished"
		t := g.finishedAt
		finished = &t
	}
	snap := Snapshot{
		GameID:     g.ID.String(),
		Status:     status,
		TrumpCard:  g.trump,
		TurnNo:     g.turnNo,
		Phase:      g.phase,
		DeckSize:   g.deck.Size(),
		LoserID:    g.LoserID(),
		Winners:    g.Winners(),
		Moves:      g.Moves(),
		StartedAt:  g.startedAt,
		FinishedAt: finished,
	}
	for _, s := range g.seats {
		snap.Seats = append(snap.Seats, SeatSnapshot{
			UserID:         s.UserID,
			Position:       s.Position,
			CardsRemaining: s.cardsRemaining,
			Left:           s.Left,
			Out:            s.Out,
		})
	}
	return snap
}
