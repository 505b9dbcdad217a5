package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingRepo struct {
	mu    sync.Mutex
	saves []string
	last  Snapshot
}

func (r *recordingRepo) record(kind string, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, kind)
	r.last = snap
	return nil
}

func (r *recordingRepo) SaveCreated(_ context.Context, snap Snapshot) error {
	return r.record("created", snap)
}

func (r *recordingRepo) SaveRound(_ context.Context, snap Snapshot) error {
	return r.record("round", snap)
}

func (r *recordingRepo) SaveFinished(_ context.Context, snap Snapshot) error {
	return r.record("finished", snap)
}

func (r *recordingRepo) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.saves...)
}

func newSessionGame(t *testing.T) (*Game, Card, Card, Card) {
	t.Helper()
	six := NewCard(Spades, RankSix)
	eight := NewCard(Spades, RankEight)
	extra := NewCard(Diamonds, RankEight)
	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six},
		[]Card{eight, extra},
	)
	return g, six, eight, extra
}

func TestSessionCheckpointsAtLifecycleEdges(t *testing.T) {
	g, six, eight, _ := newSessionGame(t)
	repo := &recordingRepo{}

	var mu sync.Mutex
	var emitted []EventType
	s := NewSession(g, repo, func(ev Event) {
		mu.Lock()
		emitted = append(emitted, ev.Type)
		mu.Unlock()
	}, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Close()

	if kinds := repo.kinds(); len(kinds) != 1 || kinds[0] != "created" {
		t.Fatalf("after start checkpoints = %v, want [created]", kinds)
	}

	if _, err := s.Do(Action{Kind: ActionAttack, UserID: 1, CardID: six.ID}); err != nil {
		t.Fatalf("attack: %v", err)
	}
	if _, err := s.Do(Action{Kind: ActionDefend, UserID: 2, EntryIndex: 0, CardID: eight.ID}); err != nil {
		t.Fatalf("defend: %v", err)
	}
	// the attacker passes on the defended table; deck is empty so the game ends
	if _, err := s.Do(Action{Kind: ActionPass, UserID: 1}); err != nil {
		t.Fatalf("pass: %v", err)
	}

	kinds := repo.kinds()
	if len(kinds) != 3 || kinds[1] != "round" || kinds[2] != "finished" {
		t.Fatalf("checkpoints = %v, want [created round finished]", kinds)
	}
	if repo.last.Status != "finished" {
		t.Errorf("final snapshot status = %q, want finished", repo.last.Status)
	}
	if repo.last.LoserID == nil || *repo.last.LoserID != 2 {
		t.Errorf("final snapshot loser = %v, want 2", repo.last.LoserID)
	}

	// Do is synchronous, so the emits for completed actions are visible here
	mu.Lock()
	defer mu.Unlock()
	var finished int
	for _, et := range emitted {
		if et == EventGameFinished {
			finished++
		}
	}
	if finished != 1 {
		t.Errorf("game-finished emitted %d times, want 1", finished)
	}
}

func TestSessionRejectsInvalidActionWithoutCheckpoint(t *testing.T) {
	g, six, _, _ := newSessionGame(t)
	repo := &recordingRepo{}
	s := NewSession(g, repo, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// defender cannot open the round
	if _, err := s.Do(Action{Kind: ActionAttack, UserID: 2, CardID: six.ID}); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if _, err := s.Do(Action{Kind: "shuffle", UserID: 1}); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("unknown action kind should be invalid, got %v", err)
	}
	if kinds := repo.kinds(); len(kinds) != 1 {
		t.Errorf("rejected moves must not checkpoint, got %v", kinds)
	}
}

func TestSessionSerializesConcurrentActions(t *testing.T) {
	g, err := NewGame([]int64{1, 2}, Config{CardCount: 36})
	if err != nil {
		t.Fatal(err)
	}
	s := NewSession(g, nil, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	// hammer the session from many goroutines with passes and pickups; every
	// request either applies cleanly or is rejected as an invalid move, and
	// the shared state stays consistent because only the session goroutine
	// touches it
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				for _, kind := range []ActionKind{ActionPass, ActionPickup} {
					if _, err := s.Do(Action{Kind: kind, UserID: uid}); err != nil {
						if !errors.Is(err, ErrInvalidMove) && !errors.Is(err, ErrGameFinished) && !errors.Is(err, ErrGameHalted) {
							t.Errorf("unexpected error: %v", err)
							return
						}
					}
				}
			}
		}(int64(i%2 + 1))
	}
	wg.Wait()
	s.Close()

	if g.Halted() {
		t.Fatalf("state consistency violated under concurrent load")
	}
}

type countingPolicy struct {
	applies int32
}

func (p *countingPolicy) Apply(g *Game) ([]Event, error) {
	atomic.AddInt32(&p.applies, 1)
	return g.ApplyTimeout()
}

func TestSessionTimerStopsOnceTimeoutFinishesGame(t *testing.T) {
	six := NewCard(Spades, RankSix)
	eight := NewCard(Spades, RankEight)
	g := newTestGame(t, NewCard(Hearts, RankQueen), nil, false,
		[]Card{six},
		[]Card{eight},
	)
	g.cfg.TurnTimeLimit = 50 * time.Millisecond

	policy := &countingPolicy{}
	s := NewSession(g, nil, nil, policy)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Do(Action{Kind: ActionAttack, UserID: 1, CardID: six.ID}); err != nil {
		t.Fatal(err)
	}

	// the stalled defender times out into a pickup, which empties the
	// attacker's hand and ends the game; the timer must not fire again
	time.Sleep(400 * time.Millisecond)
	if n := atomic.LoadInt32(&policy.applies); n != 1 {
		t.Fatalf("timeout policy fired %d times after the game finished, want 1", n)
	}
}

func TestSessionDoAfterClose(t *testing.T) {
	g, six, _, _ := newSessionGame(t)
	s := NewSession(g, nil, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := s.Do(Action{Kind: ActionAttack, UserID: 1, CardID: six.ID}); !errors.Is(err, ErrGameHalted) {
		t.Fatalf("Do after Close should fail with ErrGameHalted, got %v", err)
	}
}
