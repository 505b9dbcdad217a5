package models

import "time"

type LobbyPlayer struct {
	ID        int64     `json:"id"`       // Primary key
	LobbyID   int64     `json:"lobby_id"` // FK to lobbies(id)
	UserID    int64     `json:"user_id"`  // FK to users(user_id)
	Status    string    `json:"status"`   // 'waiting', 'ready', 'playing', 'left'
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
