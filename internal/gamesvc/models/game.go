package models

import (
	"database/sql"
	"time"
)

type Game struct {
	ID         string        `json:"id"`       // uuid assigned by the engine
	LobbyID    int64         `json:"lobby_id"` // FK to lobbies
	TrumpSuit  string        `json:"trump_suit"`
	TrumpCard  string        `json:"trump_card"` // e.g. "Queen of Hearts"
	Status     string        `json:"status"`     // 'in_progress', 'finished'
	TurnNo     int           `json:"turn_no"`
	DeckSize   int           `json:"deck_size"`
	LoserID    sql.NullInt64 `json:"loser_id"` // the durak; NULL while running or on a draw
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt sql.NullTime  `json:"finished_at"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}
