package models

import "time"

type GamePlayer struct {
	ID             int64     `json:"id"`      // Primary key
	GameID         string    `json:"game_id"` // FK to games(id)
	UserID         int64     `json:"user_id"` // FK to users(user_id)
	SeatPosition   int       `json:"seat_position"`
	CardsRemaining int       `json:"cards_remaining"`
	Status         string    `json:"status"` // 'playing', 'out', 'left', 'durak'
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
