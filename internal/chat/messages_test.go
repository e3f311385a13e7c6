package chat

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/server"
	"github.com/parlorchat/parlor/internal/testutil"
	"github.com/parlorchat/parlor/internal/types"
)

type recordingNotifier struct {
	calls []database.Message
}

func (n *recordingNotifier) MessageCreated(room database.Room, sender database.User, message database.Message) {
	n.calls = append(n.calls, message)
}

func TestCreateMessage_EmptyBody(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	svc := NewMessageService(testutil.TestLogger(t), mockRepo, &recordingBroadcaster{}, nil)

	_, err := svc.Create(database.User{Id: 1}, database.Room{Id: 10}, "   ")
	assert.True(t, errors.Is(err, ErrEmptyBody))
	mockRepo.AssertNotCalled(t, "CreateMessage")
}

func TestCreateMessage_NotMember(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetMembership", 1, 10).Return(database.Membership{}, sql.ErrNoRows).Once()

	svc := NewMessageService(testutil.TestLogger(t), mockRepo, &recordingBroadcaster{}, nil)
	_, err := svc.Create(database.User{Id: 1}, database.Room{Id: 10}, "hello")
	assert.True(t, errors.Is(err, ErrNotMember))
	mockRepo.AssertNotCalled(t, "CreateMessage")
}

func TestCreateMessage_BroadcastAfterCommit(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	author := database.User{Id: 1, AccountId: 1, Name: "ana"}
	room := database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindChannel, Name: "general"}
	msg := database.Message{Id: 100, RoomId: 10, UserId: 1, Body: "hello"}

	mockRepo.On("GetMembership", 1, 10).Return(database.Membership{UserId: 1, RoomId: 10}, nil).Once()
	mockRepo.On("CreateMessage", database.CreateMessageParams{RoomId: 10, UserId: 1, Body: "hello"}).Return(msg, nil).Once()
	mockRepo.On("CountRoomMessages", 10).Return(5, nil).Once()

	b := &recordingBroadcaster{}
	n := &recordingNotifier{}
	svc := NewMessageService(testutil.TestLogger(t), mockRepo, b, n)

	created, err := svc.Create(author, room, "hello")
	assert.NoError(t, err)
	assert.Equal(t, msg, created)

	// not the first message: a single append, no empty-state removal
	assert.Len(t, b.roomEvents, 1)
	assert.Equal(t, 10, b.roomEvents[0].id)
	assert.Equal(t, server.ActionAppend, b.roomEvents[0].ev.Action)
	assert.Equal(t, server.TargetMessages, b.roomEvents[0].ev.Target)

	assert.Len(t, n.calls, 1)
	assert.Equal(t, msg.Id, n.calls[0].Id)
}

func TestCreateMessage_FirstMessageRemovesEmptyState(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	author := database.User{Id: 1, AccountId: 1, Name: "ana"}
	room := database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindChannel, Name: "general"}
	msg := database.Message{Id: 100, RoomId: 10, UserId: 1, Body: "hello"}

	mockRepo.On("GetMembership", 1, 10).Return(database.Membership{UserId: 1, RoomId: 10}, nil).Once()
	mockRepo.On("CreateMessage", database.CreateMessageParams{RoomId: 10, UserId: 1, Body: "hello"}).Return(msg, nil).Once()
	mockRepo.On("CountRoomMessages", 10).Return(1, nil).Once()

	b := &recordingBroadcaster{}
	svc := NewMessageService(testutil.TestLogger(t), mockRepo, b, nil)

	_, err := svc.Create(author, room, "hello")
	assert.NoError(t, err)

	// the placeholder removal must precede the append
	assert.Len(t, b.roomEvents, 2)
	assert.Equal(t, server.ActionRemove, b.roomEvents[0].ev.Action)
	assert.Equal(t, server.TargetEmptyState, b.roomEvents[0].ev.Target)
	assert.Equal(t, server.ActionAppend, b.roomEvents[1].ev.Action)
	assert.Equal(t, server.TargetMessages, b.roomEvents[1].ev.Target)
}

func TestCreateMessage_FirstDMMessageBootstrapsRecipient(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	author := database.User{Id: 1, AccountId: 1, Name: "ana"}
	recipient := database.User{Id: 2, AccountId: 1, Name: "bo"}
	room := database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindDirectMessage, Name: "DM-1-2"}
	msg := database.Message{Id: 100, RoomId: 10, UserId: 1, Body: "hi"}

	mockRepo.On("GetMembership", 1, 10).Return(database.Membership{UserId: 1, RoomId: 10}, nil).Once()
	mockRepo.On("CreateMessage", database.CreateMessageParams{RoomId: 10, UserId: 1, Body: "hi"}).Return(msg, nil).Once()
	mockRepo.On("CountRoomMessages", 10).Return(1, nil).Once()
	mockRepo.On("ListRoomMembers", 10).Return([]database.User{author, recipient}, nil).Once()

	b := &recordingBroadcaster{}
	svc := NewMessageService(testutil.TestLogger(t), mockRepo, b, nil)

	_, err := svc.Create(author, room, "hi")
	assert.NoError(t, err)

	// sidebar bootstrap goes to the recipient only
	assert.Len(t, b.userEvents, 2)
	for _, call := range b.userEvents {
		assert.Equal(t, recipient.Id, call.id)
	}
}

func TestUpdateMessage(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	actor := database.User{Id: 1, Name: "ana"}
	msg := database.Message{Id: 100, RoomId: 10, UserId: 1, Body: "hello"}
	updated := database.Message{Id: 100, RoomId: 10, UserId: 1, Body: "edited"}

	mockRepo.On("GetMessage", 100).Return(msg, nil).Once()
	mockRepo.On("UpdateMessageBody", 100, "edited").Return(updated, nil).Once()

	b := &recordingBroadcaster{}
	svc := NewMessageService(testutil.TestLogger(t), mockRepo, b, nil)

	got, err := svc.Update(actor, 100, "edited")
	assert.NoError(t, err)
	assert.Equal(t, updated, got)

	assert.Len(t, b.roomEvents, 1)
	assert.Equal(t, server.ActionReplace, b.roomEvents[0].ev.Action)
	assert.Equal(t, server.MessageTarget(100), b.roomEvents[0].ev.Target)
}

func TestUpdateMessage_NotAuthor(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetMessage", 100).Return(database.Message{Id: 100, UserId: 2}, nil).Once()

	svc := NewMessageService(testutil.TestLogger(t), mockRepo, &recordingBroadcaster{}, nil)
	_, err := svc.Update(database.User{Id: 1}, 100, "edited")
	assert.True(t, errors.Is(err, ErrNotAuthor))
	mockRepo.AssertNotCalled(t, "UpdateMessageBody")
}

func TestDeleteMessage(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	msg := database.Message{Id: 100, RoomId: 10, UserId: 1}

	mockRepo.On("GetMessage", 100).Return(msg, nil).Once()
	mockRepo.On("DeleteMessage", 100).Return(nil).Once()
	mockRepo.On("CountRoomMessages", 10).Return(3, nil).Once()

	b := &recordingBroadcaster{}
	svc := NewMessageService(testutil.TestLogger(t), mockRepo, b, nil)

	err := svc.Delete(database.User{Id: 1}, 100)
	assert.NoError(t, err)

	assert.Len(t, b.roomEvents, 1)
	assert.Equal(t, server.ActionRemove, b.roomEvents[0].ev.Action)
	assert.Equal(t, server.MessageTarget(100), b.roomEvents[0].ev.Target)
}

func TestDeleteMessage_LastMessageRestoresEmptyState(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	msg := database.Message{Id: 100, RoomId: 10, UserId: 1}

	mockRepo.On("GetMessage", 100).Return(msg, nil).Once()
	mockRepo.On("DeleteMessage", 100).Return(nil).Once()
	mockRepo.On("CountRoomMessages", 10).Return(0, nil).Once()

	b := &recordingBroadcaster{}
	svc := NewMessageService(testutil.TestLogger(t), mockRepo, b, nil)

	err := svc.Delete(database.User{Id: 1}, 100)
	assert.NoError(t, err)

	assert.Len(t, b.roomEvents, 2)
	assert.Equal(t, server.ActionRemove, b.roomEvents[0].ev.Action)
	assert.Equal(t, server.ActionAppend, b.roomEvents[1].ev.Action)
	assert.Equal(t, server.TargetEmptyState, b.roomEvents[1].ev.Target)
}

func TestDeleteMessage_NotAuthor(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetMessage", 100).Return(database.Message{Id: 100, UserId: 2}, nil).Once()

	svc := NewMessageService(testutil.TestLogger(t), mockRepo, &recordingBroadcaster{}, nil)
	err := svc.Delete(database.User{Id: 1}, 100)
	assert.True(t, errors.Is(err, ErrNotAuthor))
	mockRepo.AssertNotCalled(t, "DeleteMessage")
}
