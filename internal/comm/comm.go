package comm

import (
	"encoding/json"
	"time"

	"github.com/foolsarena/durak-services/internal/gamesvc/models"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "init", "attack"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
	RoomId   string          `json:"roomid,omitempty"` // lobby:<id> or game:<id> for fan-out
}

type ServiceHeartbeat struct {
	ID        string    `json:"id"` // service id
	Timestamp time.Time `json:"timestamp"`
}

type ServiceShutdown struct {
	ID string `json:"id"` // service id
}

type Res struct {
	Status bool   `json:"status"`
	Error  string `json:"error,omitempty"`
}

type PlayerData struct {
	Name   string `json:"name"`
	UserId int64  `json:"user_id"`
	Avatar string `json:"avatar,omitempty"`
}

type LobbyData struct {
	Lobby   *models.Lobby         `json:"lobby"`
	Players []*models.LobbyPlayer `json:"players"`
}

type GameData struct {
	Game    *models.Game         `json:"game"`
	Players []*models.GamePlayer `json:"players"`
}

// CardData is the wire shape of one card.
type CardData struct {
	ID      string `json:"id"`
	Suit    string `json:"suit"`
	Rank    string `json:"rank"`
	Value   int    `json:"value"`
	Special string `json:"special,omitempty"`
}

type TableEntryData struct {
	Attack  CardData  `json:"attack"`
	Defense *CardData `json:"defense,omitempty"`
}

// GameStateData is the per-player view of a running game: public state for
// everyone, the hand only for the requesting player.
type GameStateData struct {
	GameID     string           `json:"game_id"`
	Status     string           `json:"status"`
	TurnNo     int              `json:"turn_no"`
	Phase      string           `json:"phase"`
	TrumpCard  CardData         `json:"trump_card"`
	DeckSize   int              `json:"deck_size"`
	AttackerID int64            `json:"attacker_id"`
	DefenderID int64            `json:"defender_id"`
	Table      []TableEntryData `json:"table"`
	Players    []SeatData       `json:"players"`
	Hand       []CardData       `json:"hand,omitempty"`
}

type SeatData struct {
	UserID         int64 `json:"user_id"`
	SeatPosition   int   `json:"seat_position"`
	CardsRemaining int   `json:"cards_remaining"`
	Left           bool  `json:"left"`
	Out            bool  `json:"out"`
}

// GameEventData carries one committed engine event to the room.
type GameEventData struct {
	GameID     string     `json:"game_id"`
	Event      string     `json:"event"`
	Outcome    string     `json:"outcome,omitempty"`
	Cards      []CardData `json:"cards,omitempty"`
	AttackerID int64      `json:"attacker_id,omitempty"`
	DefenderID int64      `json:"defender_id,omitempty"`
	UserID     int64      `json:"user_id,omitempty"`
	LoserID    *int64     `json:"loser_id,omitempty"`
	Winners    []int64    `json:"winners,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	TurnNo     int        `json:"turn_no"`
}
