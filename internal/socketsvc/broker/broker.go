package broker

import (
	"encoding/json"

	"github.com/foolsarena/durak-services/internal/comm"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*websocket.Conn, bool)
	GetRoomSockets func(string) ([]string, bool)
	StoreRoom      func(socketId, roomId string)
}

func NewBroker(conn *nats.Conn,
	fncGetConnection func(string) (*websocket.Conn, bool),
	fncGetRoomSockets func(string) ([]string, bool),
	fncStoreRoom func(socketId, roomId string)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetRoomSockets: fncGetRoomSockets,
		StoreRoom:      fncStoreRoom,
	}
}

// consume message from game service
func (b *Broker) QueueSubscribe(topic, queueGroup string) (*nats.Subscription, error) {
	sub, err := b.Conn.QueueSubscribe(topic, queueGroup, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// consume message from game service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// publish message to game service
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

// handleMessages receives messages from the game service. A message with a
// socket id is delivered to that socket alone; one carrying only a room id
// fans out to every socket in the room. A targeted message that also names a
// room moves the socket into that room first.
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	// service notices carry no socket or room target
	switch message.Type {
	case "service-heartbeat":
		hb := comm.ServiceHeartbeat{}
		if err := json.Unmarshal(message.Data, &hb); err == nil {
			log.Debugf("game service %s heartbeat at %v", hb.ID, hb.Timestamp)
		}
		return
	case "service-shutdown":
		sd := comm.ServiceShutdown{}
		if err := json.Unmarshal(message.Data, &sd); err == nil {
			log.Infof("game service %s is shutting down", sd.ID)
		}
		return
	}

	if message.SocketId != "" {
		if message.RoomId != "" {
			b.StoreRoom(message.SocketId, message.RoomId)
		}
		b.sendMessage(message.SocketId, message)
		return
	}

	if message.RoomId != "" {
		b.broadcast(message)
		return
	}

	log.Errorf("message %q has neither socket nor room target", message.Type)
}

// send socket message to the web client
func (b *Broker) sendMessage(socketId string, m *comm.WSMessage) {
	if conn, ok := b.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Errorf("write to socket %s failed: %v", socketId, err)
		}
	}
}

func (b *Broker) broadcast(m *comm.WSMessage) {
	sockets, ok := b.GetRoomSockets(m.RoomId)
	if !ok {
		return
	}
	for _, socketId := range sockets {
		b.sendMessage(socketId, m)
	}
}
