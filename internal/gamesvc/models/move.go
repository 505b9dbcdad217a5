package models

import (
	"database/sql"
	"time"
)

// Move is one row of the per-game audit log. Seq is the move's index in the
// engine's linearized history; (game_id, seq) is unique so checkpoint writes
// are idempotent.
type Move struct {
	ID         int64          `json:"id"`
	GameID     string         `json:"game_id"`
	Seq        int            `json:"seq"`
	TurnNo     int            `json:"turn_no"`
	UserID     int64          `json:"user_id"`
	Action     string         `json:"action"` // 'attack', 'defend', 'transfer', 'pass', 'pickup', 'leave', 'timeout'
	Card       sql.NullString `json:"card"`
	TargetCard sql.NullString `json:"target_card"`
	PlayedAt   time.Time      `json:"played_at"`
	CreatedAt  time.Time      `json:"created_at"`
}
