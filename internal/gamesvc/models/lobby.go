package models

import "time"

type Lobby struct {
	ID        int64         `json:"id"`       // Primary key
	OwnerID   int64         `json:"owner_id"` // FK to users(user_id)
	Name      string        `json:"name"`
	IsPrivate bool          `json:"is_private"`
	Status    string        `json:"status"` // 'waiting', 'playing', 'closed'
	Settings  LobbySettings `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// LobbySettings is the lobby_settings row, fixed once the game starts.
type LobbySettings struct {
	MaxPlayers        int    `json:"max_players"`
	CardCount         int    `json:"card_count"` // 24, 36 or 52
	AllowJokers       bool   `json:"allow_jokers"`
	IsTransferable    bool   `json:"is_transferable"`
	NeighborThrowOnly bool   `json:"neighbor_throw_only"`
	TurnTimeLimitSec  int    `json:"turn_time_limit_sec"` // 0 disables the turn timer
	RuleSet           string `json:"rule_set,omitempty"`
}
