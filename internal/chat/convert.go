package chat

import (
	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/server"
	"github.com/parlorchat/parlor/internal/types"
)

// Broadcaster delivers stream events to the subscribers of a room or
// of a user's personal sidebar stream.
type Broadcaster interface {
	RoomBroadcast(roomId int, ev *server.StreamEvent)
	UserBroadcast(userId int, ev *server.StreamEvent)
}

// Notifier receives the asynchronous hand-off after a message commit.
// Implementations must not block the caller.
type Notifier interface {
	MessageCreated(room database.Room, sender database.User, message database.Message)
}

func roomType(r database.Room) types.Room {
	return types.Room{
		Id:         r.Id,
		ExternalId: r.ExternalId,
		AccountId:  r.AccountId,
		Kind:       r.Kind,
		Visibility: r.Visibility,
		Name:       r.Name,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func userType(u database.User) types.User {
	return types.User{
		Id:        u.Id,
		AccountId: u.AccountId,
		Name:      u.Name,
		Admin:     u.Admin,
	}
}

func messageType(m database.Message, author database.User) types.Message {
	return types.Message{
		Id:        m.Id,
		RoomId:    m.RoomId,
		UserId:    m.UserId,
		UserName:  author.Name,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
