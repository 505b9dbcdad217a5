package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ActionKind string

const (
	ActionAttack   ActionKind = "attack"
	ActionDefend   ActionKind = "defend"
	ActionTransfer ActionKind = "transfer"
	ActionPass     ActionKind = "pass"
	ActionPickup   ActionKind = "pickup"
	ActionLeave    ActionKind = "leave"
)

// Action is one inbound player command, already authenticated upstream.
type Action struct {
	Kind       ActionKind
	UserID     int64
	CardID     uuid.UUID
	EntryIndex int
}

// Repository is the persistence collaborator. The session checkpoints
// snapshots at creation, after every resolved round and at finish; it never
// persists on individual attribute changes.
type Repository interface {
	SaveCreated(ctx context.Context, snap Snapshot) error
	SaveRound(ctx context.Context, snap Snapshot) error
	SaveFinished(ctx context.Context, snap Snapshot) error
}

// TimeoutPolicy decides what happens when the turn timer fires. The base
// engine ships the pickup-for-defender / pass-for-attacker default; callers
// may plug their own.
type TimeoutPolicy interface {
	Apply(g *Game) ([]Event, error)
}

// DefaultTimeoutPolicy applies the engine's standard defaults.
type DefaultTimeoutPolicy struct{}

func (DefaultTimeoutPolicy) Apply(g *Game) ([]Event, error) {
	return g.ApplyTimeout()
}

type request struct {
	action Action
	reply  chan response
}

type response struct {
	events []Event
	err    error
}

// Session serializes all mutations of one Game: a single goroutine consumes
// an ordered queue of actions and executes each to completion, so the move
// log is exactly the linearized turn history. Independent games run their
// own sessions in parallel.
type Session struct {
	Game *Game

	// Emit fans committed events out to the transport collaborator. Called
	// from the session goroutine, in order.
	Emit func(Event)

	repo      Repository
	policy    TimeoutPolicy
	requests  chan request
	views     chan viewRequest
	done      chan struct{}
	closeOnce sync.Once
}

type viewRequest struct {
	fn    func(*Game)
	reply chan struct{}
}

func NewSession(g *Game, repo Repository, emit func(Event), policy TimeoutPolicy) *Session {
	if policy == nil {
		policy = DefaultTimeoutPolicy{}
	}
	if emit == nil {
		emit = func(Event) {}
	}
	return &Session{
		Game:     g,
		Emit:     emit,
		repo:     repo,
		policy:   policy,
		requests: make(chan request, 16),
		views:    make(chan viewRequest),
		done:     make(chan struct{}),
	}
}

// Start persists the creation checkpoint and launches the action loop.
func (s *Session) Start() error {
	if s.repo != nil {
		if err := s.checkpoint(s.repo.SaveCreated); err != nil {
			return err
		}
	}
	go s.run()
	return nil
}

// Do submits an action and waits until the session has executed it.
func (s *Session) Do(a Action) ([]Event, error) {
	req := request{action: a, reply: make(chan response, 1)}
	select {
	case s.requests <- req:
	case <-s.done:
		return nil, ErrGameHalted
	}
	select {
	case resp := <-req.reply:
		return resp.events, resp.err
	case <-s.done:
		return nil, ErrGameHalted
	}
}

// View runs fn on the session goroutine, so reads observe a quiescent game
// with no action in flight.
func (s *Session) View(fn func(*Game)) error {
	req := viewRequest{fn: fn, reply: make(chan struct{})}
	select {
	case s.views <- req:
	case <-s.done:
		return ErrGameHalted
	}
	select {
	case <-req.reply:
		return nil
	case <-s.done:
		return ErrGameHalted
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) run() {
	var timer *time.Timer
	var timeout <-chan time.Time
	limit := s.Game.TurnTimeLimit()
	if limit > 0 {
		timer = time.NewTimer(limit)
		timeout = timer.C
		defer timer.Stop()
	}

	resetTimer := func() {
		if timer == nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(limit)
	}

	for {
		select {
		case <-s.done:
			return
		case <-timeout:
			events, err := s.policy.Apply(s.Game)
			if err != nil {
				log.Errorf("game %s timeout default failed: %v", s.Game.ID, err)
			}
			s.commit(events)
			if s.Game.Phase() == PhaseFinished || s.Game.Halted() {
				if timer != nil {
					timer.Stop()
					timeout = nil
				}
			} else {
				resetTimer()
			}
		case v := <-s.views:
			v.fn(s.Game)
			close(v.reply)
		case req := <-s.requests:
			events, err := s.apply(req.action)
			req.reply <- response{events: events, err: err}
			if err == nil {
				s.commit(events)
				resetTimer()
			}
			if s.Game.Phase() == PhaseFinished || s.Game.Halted() {
				if timer != nil {
					timer.Stop()
					timeout = nil
				}
			}
		}
	}
}

func (s *Session) apply(a Action) ([]Event, error) {
	switch a.Kind {
	case ActionAttack:
		return s.Game.Attack(a.UserID, a.CardID)
	case ActionDefend:
		return s.Game.Defend(a.UserID, a.EntryIndex, a.CardID)
	case ActionTransfer:
		return s.Game.Transfer(a.UserID, a.CardID)
	case ActionPass:
		return s.Game.Pass(a.UserID)
	case ActionPickup:
		return s.Game.Pickup(a.UserID)
	case ActionLeave:
		return s.Game.Leave(a.UserID)
	default:
		return nil, invalidMove("unknown action %q", a.Kind)
	}
}

// commit emits committed events in order and writes the round/finish
// checkpoints they imply.
func (s *Session) commit(events []Event) {
	for _, ev := range events {
		s.Emit(ev)
		if s.repo == nil {
			continue
		}
		switch ev.Type {
		case EventRoundResolved:
			if err := s.checkpoint(s.repo.SaveRound); err != nil {
				log.Errorf("game %s round checkpoint failed: %v", s.Game.ID, err)
			}
		case EventGameFinished:
			if err := s.checkpoint(s.repo.SaveFinished); err != nil {
				log.Errorf("game %s finish checkpoint failed: %v", s.Game.ID, err)
			}
		}
	}
}

func (s *Session) checkpoint(save func(context.Context, Snapshot) error) error {
	if s.repo == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return save(ctx, s.Game.Snapshot())
}
