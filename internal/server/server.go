package server

import (
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/stats"
	"github.com/parlorchat/parlor/internal/types"
)

// ChatServer is the live-update fanout hub. Clients subscribe to room
// streams over their websocket connection; committed message mutations
// are pushed in through RoomBroadcast and UserBroadcast.
type ChatServer struct {
	log   *log.Logger
	db    database.ParlorRepository
	stats stats.StatsProvider

	lock        sync.RWMutex
	clients     map[*Client]struct{}
	roomClients map[int]map[*Client]struct{}
	userClients map[int]map[*Client]struct{}
}

func NewChatServer(logger *log.Logger, db database.ParlorRepository, sp stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:         logger,
		db:          db,
		stats:       sp,
		clients:     make(map[*Client]struct{}),
		roomClients: make(map[int]map[*Client]struct{}),
		userClients: make(map[int]map[*Client]struct{}),
	}

	sp.RegisterMetric(stats.NumConnectedClients)
	sp.RegisterMetric(stats.NumRoomSubscriptions)
	sp.RegisterMetric(stats.BroadcastEvents)

	return cs, nil
}

func (cs *ChatServer) RegisterClient(c *Client) {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.clients[c] = struct{}{}
	if cs.userClients[c.user.Id] == nil {
		cs.userClients[c.user.Id] = make(map[*Client]struct{})
	}
	cs.userClients[c.user.Id][c] = struct{}{}
	cs.stats.Incr(stats.NumConnectedClients)
}

func (cs *ChatServer) DeregisterClient(c *Client) {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	if _, ok := cs.clients[c]; !ok {
		return
	}

	delete(cs.clients, c)
	if userClients, ok := cs.userClients[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(cs.userClients, c.user.Id)
		}
	}

	for roomId, clients := range cs.roomClients {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			cs.stats.Decr(stats.NumRoomSubscriptions)
			if len(clients) == 0 {
				delete(cs.roomClients, roomId)
			}
		}
	}

	cs.stats.Decr(stats.NumConnectedClients)
}

// canSubscribe reports whether the user may receive a room's stream:
// members always, plus anyone in the account for public channels.
func canSubscribe(user types.User, room database.Room, isMember bool) bool {
	if isMember {
		return true
	}

	return room.Kind == types.RoomKindChannel &&
		room.Visibility == types.RoomVisibilityPublic &&
		room.AccountId == user.AccountId
}

func (cs *ChatServer) joinRoom(msg *ClientMessage) {
	c := msg.client

	room, err := cs.db.GetRoomByExternalId(msg.Join.RoomId)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			cs.log.Println("GetRoomByExternalId:", err)
			c.queueMessage(ErrInternalError(msg.Id))
			return
		}
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	_, err = cs.db.GetMembership(c.user.Id, room.Id)
	isMember := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		cs.log.Println("GetMembership:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if !canSubscribe(c.user, room, isMember) {
		c.queueMessage(ErrForbidden(msg.Id))
		return
	}

	cs.lock.Lock()
	if cs.roomClients[room.Id] == nil {
		cs.roomClients[room.Id] = make(map[*Client]struct{})
	}
	if _, ok := cs.roomClients[room.Id][c]; !ok {
		cs.roomClients[room.Id][c] = struct{}{}
		cs.stats.Incr(stats.NumRoomSubscriptions)
	}
	cs.lock.Unlock()

	c.queueMessage(NoErrOK(msg.Id, map[string]any{"room_id": room.ExternalId}))
}

func (cs *ChatServer) leaveRoom(msg *ClientMessage) {
	c := msg.client

	room, err := cs.db.GetRoomByExternalId(msg.Leave.RoomId)
	if err != nil {
		c.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	cs.lock.Lock()
	if clients, ok := cs.roomClients[room.Id]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			cs.stats.Decr(stats.NumRoomSubscriptions)
			if len(clients) == 0 {
				delete(cs.roomClients, room.Id)
			}
		}
	}
	cs.lock.Unlock()

	c.queueMessage(NoErrOK(msg.Id, nil))
}

// RoomBroadcast delivers a stream event to every client subscribed to
// the room. Callers invoke it only after the triggering mutation has
// committed.
func (cs *ChatServer) RoomBroadcast(roomId int, ev *StreamEvent) {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	for c := range cs.roomClients[roomId] {
		c.queueMessage(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Event:       ev,
		})
	}
	cs.stats.Incr(stats.BroadcastEvents)
}

// UserBroadcast delivers a stream event to every connection belonging
// to the user (their sidebar stream).
func (cs *ChatServer) UserBroadcast(userId int, ev *StreamEvent) {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	for c := range cs.userClients[userId] {
		c.queueMessage(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Event:       ev,
		})
	}
	cs.stats.Incr(stats.BroadcastEvents)
}

func (cs *ChatServer) Shutdown() {
	cs.log.Println("shutting down chat server")

	cs.lock.Lock()
	defer cs.lock.Unlock()

	for c := range cs.clients {
		c.stopClient()
	}
	cs.clients = make(map[*Client]struct{})
	cs.roomClients = make(map[int]map[*Client]struct{})
	cs.userClients = make(map[int]map[*Client]struct{})
}
