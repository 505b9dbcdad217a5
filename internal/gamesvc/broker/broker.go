package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/foolsarena/durak-services/internal/comm"
	"github.com/foolsarena/durak-services/internal/gamesvc/engine"
	"github.com/foolsarena/durak-services/internal/gamesvc/models"
	"github.com/foolsarena/durak-services/internal/gamesvc/service"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const eventsTopic = "game.service"

type Broker struct {
	Conn         *nats.Conn
	UserService  *service.UserService
	LobbyService *service.LobbyService
	GameService  *service.GameService
}

func NewBroker(nc *nats.Conn, userService *service.UserService,
	lobbyService *service.LobbyService, gameService *service.GameService) *Broker {
	b := &Broker{
		Conn:         nc,
		UserService:  userService,
		LobbyService: lobbyService,
		GameService:  gameService,
	}

	// committed engine events fan out to the game room
	gameService.Emit = b.publishGameEvent
	return b
}

func lobbyRoom(lobbyID int64) string { return fmt.Sprintf("lobby:%d", lobbyID) }
func gameRoom(gameID string) string  { return "game:" + gameID }

// handles message coming from socket
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	//unmarshal nats message
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "init":
		b.handleInit(msg)
	case "create-lobby":
		b.handleCreateLobby(msg)
	case "list-lobbies":
		b.handleListLobbies(msg)
	case "join-lobby":
		b.handleJoinLobby(msg)
	case "leave-lobby":
		b.handleLeaveLobby(msg)
	case "player-ready":
		b.handlePlayerReady(msg)
	case "create-game":
		b.handleCreateGame(msg)
	case "attack", "defend", "transfer", "pass", "pickup", "leave-game":
		b.handleGameAction(msg)
	case "get-game-state":
		b.handleGetGameState(msg)
	case "check-active-game":
		b.handleCheckActiveGame(msg)
	default:
		log.Errorf("Unknown message type %q", msg.Type)
	}
}

func (b *Broker) handleInit(msg *comm.WSMessage) {
	userInfo := models.User{}
	err := json.Unmarshal(msg.Data, &userInfo)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := b.UserService.GetOrCreateUser(ctx, userInfo)
	if err != nil {
		log.Errorf("Error [UserService.GetOrCreateUser] %s", err)
		return
	}

	playerData := comm.PlayerData{
		Name:   user.Name,
		UserId: user.UserId,
		Avatar: user.Avatar,
	}
	b.publishToSocket("init-response", playerData, msg.SocketId, "")
}

func (b *Broker) handleCreateLobby(msg *comm.WSMessage) {
	var request struct {
		UserId   int64                `json:"user_id"`
		Name     string               `json:"name"`
		Private  bool                 `json:"is_private"`
		Settings models.LobbySettings `json:"settings"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling create-lobby: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lobby, err := b.LobbyService.CreateLobby(ctx, models.Lobby{
		OwnerID:   request.UserId,
		Name:      request.Name,
		IsPrivate: request.Private,
		Settings:  request.Settings,
	})
	if err != nil {
		log.Errorf("Error [LobbyService.CreateLobby]: %s", err)
		b.publishError("create-lobby-response", err, msg.SocketId)
		return
	}

	players, err := b.LobbyService.GetPlayers(ctx, lobby.ID)
	if err != nil {
		log.Errorf("Error [LobbyService.GetPlayers]: %s", err)
	}

	// the response registers the creator's socket in the lobby room
	b.publishToSocket("create-lobby-response", comm.LobbyData{Lobby: lobby, Players: players},
		msg.SocketId, lobbyRoom(lobby.ID))
}

func (b *Broker) handleListLobbies(msg *comm.WSMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lobbies, err := b.LobbyService.ListOpenLobbies(ctx)
	if err != nil {
		log.Errorf("Error [LobbyService.ListOpenLobbies]: %s", err)
		return
	}
	b.publishToSocket("list-lobbies-response", lobbies, msg.SocketId, "")
}

func (b *Broker) handleJoinLobby(msg *comm.WSMessage) {
	var request struct {
		UserId  int64 `json:"user_id"`
		LobbyId int64 `json:"lobby_id"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling join-lobby: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := b.LobbyService.JoinLobby(ctx, request.LobbyId, request.UserId); err != nil {
		log.Errorf("Error [LobbyService.JoinLobby]: %s", err)
		b.publishError("join-lobby-response", err, msg.SocketId)
		return
	}

	data, ok := b.lobbyData(ctx, request.LobbyId)
	if !ok {
		return
	}
	b.publishToSocket("join-lobby-response", data, msg.SocketId, lobbyRoom(request.LobbyId))
	b.publishToRoom("lobby-updated", data, lobbyRoom(request.LobbyId))
}

func (b *Broker) handleLeaveLobby(msg *comm.WSMessage) {
	var request struct {
		UserId  int64 `json:"user_id"`
		LobbyId int64 `json:"lobby_id"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling leave-lobby: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.LobbyService.LeaveLobby(ctx, request.LobbyId, request.UserId); err != nil {
		log.Errorf("Error [LobbyService.LeaveLobby]: %s", err)
		b.publishError("leave-lobby-response", err, msg.SocketId)
		return
	}

	b.publishToSocket("leave-lobby-response", comm.Res{Status: true}, msg.SocketId, "")
	if data, ok := b.lobbyData(ctx, request.LobbyId); ok {
		b.publishToRoom("lobby-updated", data, lobbyRoom(request.LobbyId))
	}
}

func (b *Broker) handlePlayerReady(msg *comm.WSMessage) {
	var request struct {
		UserId  int64 `json:"user_id"`
		LobbyId int64 `json:"lobby_id"`
		Ready   bool  `json:"ready"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling player-ready: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.LobbyService.SetReady(ctx, request.LobbyId, request.UserId, request.Ready); err != nil {
		log.Errorf("Error [LobbyService.SetReady]: %s", err)
		b.publishError("player-ready-response", err, msg.SocketId)
		return
	}

	b.publishToSocket("player-ready-response", comm.Res{Status: true}, msg.SocketId, "")
	if data, ok := b.lobbyData(ctx, request.LobbyId); ok {
		b.publishToRoom("lobby-updated", data, lobbyRoom(request.LobbyId))
	}
}

func (b *Broker) handleCreateGame(msg *comm.WSMessage) {
	var request struct {
		UserId  int64 `json:"user_id"`
		LobbyId int64 `json:"lobby_id"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling create-game: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	game, players, err := b.GameService.CreateGame(ctx, request.LobbyId, request.UserId)
	if err != nil {
		log.Errorf("Error [GameService.CreateGame]: %s", err)
		b.publishError("create-game-response", err, msg.SocketId)
		return
	}

	gameData := comm.GameData{Game: game, Players: players}
	b.publishToSocket("create-game-response", gameData, msg.SocketId, gameRoom(game.ID))
	// lobby members learn the game id here and fetch their hands with
	// get-game-state, which moves their sockets into the game room
	b.publishToRoom("game-started", gameData, lobbyRoom(request.LobbyId))
}

func (b *Broker) handleGameAction(msg *comm.WSMessage) {
	var request struct {
		UserId     int64  `json:"user_id"`
		GameId     string `json:"game_id"`
		CardId     string `json:"card_id"`
		EntryIndex int    `json:"entry_index"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling %s: %s", msg.Type, err)
		return
	}

	action := engine.Action{
		UserID:     request.UserId,
		EntryIndex: request.EntryIndex,
	}
	switch msg.Type {
	case "attack":
		action.Kind = engine.ActionAttack
	case "defend":
		action.Kind = engine.ActionDefend
	case "transfer":
		action.Kind = engine.ActionTransfer
	case "pass":
		action.Kind = engine.ActionPass
	case "pickup":
		action.Kind = engine.ActionPickup
	case "leave-game":
		action.Kind = engine.ActionLeave
	}
	if request.CardId != "" {
		cardID, err := uuid.Parse(request.CardId)
		if err != nil {
			b.publishInvalidMove(request.GameId, request.UserId, "malformed card id", msg.SocketId)
			return
		}
		action.CardID = cardID
	}

	if _, err := b.GameService.Act(request.GameId, action); err != nil {
		if errors.Is(err, engine.ErrInvalidMove) {
			b.publishInvalidMove(request.GameId, request.UserId, err.Error(), msg.SocketId)
			return
		}
		log.Errorf("Error [GameService.Act] game %s: %s", request.GameId, err)
		b.publishError(msg.Type+"-response", err, msg.SocketId)
	}
	// committed events reach the room through publishGameEvent
}

func (b *Broker) handleGetGameState(msg *comm.WSMessage) {
	var request struct {
		UserId int64  `json:"user_id"`
		GameId string `json:"game_id"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error unmarshalling get-game-state: %s", err)
		return
	}

	view, err := b.GameService.GameState(request.GameId, request.UserId)
	if err != nil {
		log.Errorf("Error [GameService.GameState]: %s", err)
		b.publishError("game-state-response", err, msg.SocketId)
		return
	}

	// the response also registers the socket in the game room for event fan-out
	b.publishToSocket("game-state-response", stateData(view), msg.SocketId, gameRoom(request.GameId))
}

func (b *Broker) handleCheckActiveGame(msg *comm.WSMessage) {
	var request struct {
		UserId int64 `json:"user_id"`
	}
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error decoding check-active-game: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	seat, err := b.GameService.GetActiveGameForUser(ctx, request.UserId)
	if err != nil {
		log.Errorf("Error checking active game for user %d: %s", request.UserId, err)
		return
	}
	if seat == nil {
		b.publishToSocket("check-active-game-response", comm.Res{Status: false}, msg.SocketId, "")
		return
	}

	game, err := b.GameService.GetGameByID(ctx, seat.GameID)
	if err != nil {
		log.Errorf("Error retrieving game: %s", err)
		return
	}
	players, err := b.GameService.GetGamePlayers(ctx, seat.GameID)
	if err != nil {
		log.Errorf("Error retrieving players: %s", err)
		return
	}

	b.publishToSocket("check-active-game-response", comm.GameData{Game: game, Players: players},
		msg.SocketId, gameRoom(seat.GameID))
}

func (b *Broker) lobbyData(ctx context.Context, lobbyID int64) (comm.LobbyData, bool) {
	lobby, err := b.LobbyService.GetLobby(ctx, lobbyID)
	if err != nil || lobby == nil {
		log.Errorf("Error [LobbyService.GetLobby] %d: %v", lobbyID, err)
		return comm.LobbyData{}, false
	}
	players, err := b.LobbyService.GetPlayers(ctx, lobbyID)
	if err != nil {
		log.Errorf("Error [LobbyService.GetPlayers] %d: %v", lobbyID, err)
		return comm.LobbyData{}, false
	}
	return comm.LobbyData{Lobby: lobby, Players: players}, true
}

// publishGameEvent fans one committed engine event out to the game room.
func (b *Broker) publishGameEvent(gameID string, lobbyID int64, ev engine.Event) {
	data := comm.GameEventData{
		GameID:     gameID,
		Event:      string(ev.Type),
		Outcome:    string(ev.Outcome),
		Cards:      cardsData(ev.Cards),
		AttackerID: ev.AttackerID,
		DefenderID: ev.DefenderID,
		UserID:     ev.UserID,
		LoserID:    ev.LoserID,
		Winners:    ev.Winners,
		Reason:     ev.Reason,
		TurnNo:     ev.TurnNo,
	}
	b.publishToRoom(string(ev.Type), data, gameRoom(gameID))
}

func (b *Broker) publishInvalidMove(gameID string, userID int64, reason, socketId string) {
	data := comm.GameEventData{
		GameID: gameID,
		Event:  string(engine.EventInvalidMove),
		UserID: userID,
		Reason: reason,
	}
	b.publishToSocket(string(engine.EventInvalidMove), data, socketId, "")
}

func (b *Broker) publishError(msgType string, cause error, socketId string) {
	b.publishToSocket(msgType, comm.Res{Status: false, Error: cause.Error()}, socketId, "")
}

// publishToSocket targets one socket; a non-empty roomId additionally
// registers that socket in the room on the gateway side.
func (b *Broker) publishToSocket(msgType string, payload interface{}, socketId, roomId string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %s", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
		RoomId:   roomId,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	b.Publish(eventsTopic, raw)
}

// publishToRoom fans a message out to every socket the gateway has in roomId.
func (b *Broker) publishToRoom(msgType string, payload interface{}, roomId string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %s", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:   msgType,
		Data:   data,
		RoomId: roomId,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	b.Publish(eventsTopic, raw)
}

func cardData(c engine.Card) comm.CardData {
	cd := comm.CardData{
		ID:    c.ID.String(),
		Suit:  c.Suit.Name,
		Rank:  c.Rank.Name,
		Value: c.Rank.Value,
	}
	if c.Special != nil {
		cd.Special = string(c.Special.Kind)
	}
	return cd
}

func cardsData(cards []engine.Card) []comm.CardData {
	if len(cards) == 0 {
		return nil
	}
	out := make([]comm.CardData, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardData(c))
	}
	return out
}

func stateData(view *service.PlayerView) comm.GameStateData {
	data := comm.GameStateData{
		GameID:     view.GameID,
		Status:     view.Status,
		TurnNo:     view.TurnNo,
		Phase:      string(view.Phase),
		TrumpCard:  cardData(view.Trump),
		DeckSize:   view.DeckSize,
		AttackerID: view.AttackerID,
		DefenderID: view.DefenderID,
		Hand:       cardsData(view.Hand),
	}
	for _, e := range view.Table {
		entry := comm.TableEntryData{Attack: cardData(e.Attack)}
		if e.Defense != nil {
			def := cardData(*e.Defense)
			entry.Defense = &def
		}
		data.Table = append(data.Table, entry)
	}
	for _, seat := range view.Seats {
		data.Players = append(data.Players, comm.SeatData{
			UserID:         seat.UserID,
			SeatPosition:   seat.Position,
			CardsRemaining: seat.CardsRemaining,
			Left:           seat.Left,
			Out:            seat.Out,
		})
	}
	return data
}

// PublishHeartbeat announces this instance's liveness to the socket gateway.
func (b *Broker) PublishHeartbeat(instanceId string) {
	b.publishServiceNotice("service-heartbeat", comm.ServiceHeartbeat{
		ID:        instanceId,
		Timestamp: time.Now(),
	})
}

// PublishShutdown tells the gateway this instance is going away.
func (b *Broker) PublishShutdown(instanceId string) {
	b.publishServiceNotice("service-shutdown", comm.ServiceShutdown{ID: instanceId})
}

func (b *Broker) publishServiceNotice(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %s", msgType, err)
		return
	}

	raw, err := json.Marshal(&comm.WSMessage{Type: msgType, Data: data})
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}
	b.Publish(eventsTopic, raw)
}

// consume message from socket service
func (b *Broker) SubscribSocketService(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// consume message with a queue group, for horizontally scaled game services
func (b *Broker) QueueSubscribSocketService(topic, queueGroup string) (*nats.Subscription, error) {
	sub, err := b.Conn.QueueSubscribe(topic, queueGroup, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
