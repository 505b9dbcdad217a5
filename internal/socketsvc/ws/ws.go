package ws

import (
	"encoding/json"
	"sync"

	"github.com/foolsarena/durak-services/internal/comm"
	"github.com/foolsarena/durak-services/internal/socketsvc/broker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const commandsTopic = "socket.service"

type Ws struct {
	connMap sync.Map // to keep track of socket connection with socketId
	roomMap sync.Map // to keep track of socketId with roomId (lobby:<id> or game:<id>)
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// forwarded is the set of client commands the game service understands; the
// gateway relays them untouched, only stamping the socket id.
var forwarded = map[string]bool{
	"init":              true,
	"create-lobby":      true,
	"list-lobbies":      true,
	"join-lobby":        true,
	"leave-lobby":       true,
	"player-ready":      true,
	"create-game":       true,
	"attack":            true,
	"defend":            true,
	"transfer":          true,
	"pass":              true,
	"pickup":            true,
	"leave-game":        true,
	"get-game-state":    true,
	"check-active-game": true,
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	if !forwarded[message.Type] {
		log.Warnf("unknown event received: %s", message.Type)
		return
	}
	s.relay(socketId, message)
}

// relay stamps the socket id on the message and publishes it for the game
// service to consume.
func (s *Ws) relay(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(commandsTopic, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", commandsTopic, err)
		return
	}

	log.Debugf("relayed %s message from socket %s", msg.Type, socketId)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

func (s *Ws) StoreRoom(socketId string, roomId string) {
	s.roomMap.Store(socketId, roomId)
}

func (s *Ws) GetRoom(socketId string) (string, bool) {
	room, ok := s.roomMap.Load(socketId)
	if !ok {
		return "", false
	}
	return room.(string), true
}

func (s *Ws) GetRoomSockets(roomId string) ([]string, bool) {
	var sockets []string
	found := false

	s.roomMap.Range(func(key, value interface{}) bool {
		if value.(string) == roomId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

// HandleDisconnect drops a closed socket from the registries. The game side
// keeps the player seated; rejoining issues a fresh socket id.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.roomMap.Delete(socketId)
}
