package engine

import "time"

type EventType string

const (
	EventRoundResolved  EventType = "round-resolved"
	EventTurnAdvanced   EventType = "turn-advanced"
	EventGameFinished   EventType = "game-finished"
	EventInvalidMove    EventType = "invalid-move"
	EventTimeoutDefault EventType = "timeout-default"
	EventPlayerOut      EventType = "player-out"
	EventPlayerLeft     EventType = "player-left"
)

type RoundOutcome string

const (
	OutcomeDiscarded RoundOutcome = "discarded"
	OutcomePickedUp  RoundOutcome = "picked_up"
)

// Event is what the engine reports to the outside after a committed action.
// Fields are populated per Type; unused ones stay zero.
type Event struct {
	Type       EventType    `json:"type"`
	Outcome    RoundOutcome `json:"outcome,omitempty"`
	Cards      []Card       `json:"cards,omitempty"`
	AttackerID int64        `json:"attacker_id,omitempty"`
	DefenderID int64        `json:"defender_id,omitempty"`
	UserID     int64        `json:"user_id,omitempty"`
	LoserID    *int64       `json:"loser_id,omitempty"`
	Winners    []int64      `json:"winners,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	TurnNo     int          `json:"turn_no"`
}

// MoveAction labels one entry of the append-only move log.
type MoveAction string

const (
	MoveAttack   MoveAction = "attack"
	MoveDefend   MoveAction = "defend"
	MoveTransfer MoveAction = "transfer"
	MovePass     MoveAction = "pass"
	MovePickup   MoveAction = "pickup"
	MoveLeave    MoveAction = "leave"
	MoveTimeout  MoveAction = "timeout"
)

// MoveRecord is the audit entry for one action inside one turn. Appends are
// atomic with the state mutation they describe.
type MoveRecord struct {
	TurnNo int        `json:"turn_no"`
	UserID int64      `json:"user_id"`
	Action MoveAction `json:"action"`
	Card   *Card      `json:"card,omitempty"`
	Target *Card      `json:"target,omitempty"`
	At     time.Time  `json:"at"`
}
