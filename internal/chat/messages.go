package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/server"
	"github.com/parlorchat/parlor/internal/types"
)

// MessageService owns the message lifecycle: validate, commit, then
// broadcast. Events are emitted only after the database write has
// returned, so a client reacting to an event can always re-fetch the
// message.
type MessageService struct {
	log         *log.Logger
	db          database.ParlorRepository
	broadcaster Broadcaster
	notifier    Notifier
}

func NewMessageService(logger *log.Logger, db database.ParlorRepository, b Broadcaster, n Notifier) *MessageService {
	return &MessageService{
		log:         logger,
		db:          db,
		broadcaster: b,
		notifier:    n,
	}
}

func (s *MessageService) Create(author database.User, room database.Room, body string) (database.Message, error) {
	if strings.TrimSpace(body) == "" {
		return database.Message{}, ErrEmptyBody
	}

	if _, err := s.db.GetMembership(author.Id, room.Id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Message{}, ErrNotMember
		}
		return database.Message{}, err
	}

	msg, err := s.db.CreateMessage(database.CreateMessageParams{
		RoomId: room.Id,
		UserId: author.Id,
		Body:   body,
	})
	if err != nil {
		return database.Message{}, fmt.Errorf("create message: %w", err)
	}

	count, err := s.db.CountRoomMessages(room.Id)
	if err != nil {
		s.log.Println("CountRoomMessages:", err)
		count = 0
	}

	scope := server.RoomScope(room.Id)

	if count == 1 {
		// The room just got its first message; drop the placeholder
		// before the append arrives.
		s.broadcaster.RoomBroadcast(room.Id, server.Remove(scope, server.TargetEmptyState))
	}

	s.broadcaster.RoomBroadcast(room.Id, server.Append(scope, server.TargetMessages, messageType(msg, author)))

	if room.Kind == types.RoomKindDirectMessage && count == 1 {
		s.bootstrapRecipientSidebar(room, author)
	}

	if s.notifier != nil {
		s.notifier.MessageCreated(room, author, msg)
	}

	return msg, nil
}

// bootstrapRecipientSidebar handles the DM whose first message just
// arrived: the recipient may have never seen the conversation, so
// their sidebar gets the bootstrap events. Gated on "this is message
// #1", not on room creation, because a DM can exist without messages.
func (s *MessageService) bootstrapRecipientSidebar(room database.Room, author database.User) {
	members, err := s.db.ListRoomMembers(room.Id)
	if err != nil {
		s.log.Println("ListRoomMembers:", err)
		return
	}

	for _, m := range members {
		if m.Id != author.Id {
			broadcastNewDMToUser(s.broadcaster, m, author, room)
			return
		}
	}
}

func (s *MessageService) Update(actor database.User, messageId int, body string) (database.Message, error) {
	msg, err := s.db.GetMessage(messageId)
	if err != nil {
		return database.Message{}, err
	}

	if msg.UserId != actor.Id {
		return database.Message{}, ErrNotAuthor
	}

	if strings.TrimSpace(body) == "" {
		return database.Message{}, ErrEmptyBody
	}

	updated, err := s.db.UpdateMessageBody(messageId, body)
	if err != nil {
		return database.Message{}, fmt.Errorf("update message: %w", err)
	}

	scope := server.RoomScope(updated.RoomId)
	s.broadcaster.RoomBroadcast(updated.RoomId, server.Replace(scope, server.MessageTarget(updated.Id), messageType(updated, actor)))

	return updated, nil
}

func (s *MessageService) Delete(actor database.User, messageId int) error {
	msg, err := s.db.GetMessage(messageId)
	if err != nil {
		return err
	}

	if msg.UserId != actor.Id {
		return ErrNotAuthor
	}

	if err := s.db.DeleteMessage(messageId); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	scope := server.RoomScope(msg.RoomId)
	s.broadcaster.RoomBroadcast(msg.RoomId, server.Remove(scope, server.MessageTarget(msg.Id)))

	count, err := s.db.CountRoomMessages(msg.RoomId)
	if err != nil {
		s.log.Println("CountRoomMessages:", err)
		return nil
	}

	if count == 0 {
		// Last message gone; restore the placeholder.
		s.broadcaster.RoomBroadcast(msg.RoomId, server.Append(scope, server.TargetEmptyState, map[string]any{
			"room_id": msg.RoomId,
		}))
	}

	return nil
}
