package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockParlorRepository struct {
	mock.Mock
}

func (m *MockParlorRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockParlorRepository) AccountExists() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}
func (m *MockParlorRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockParlorRepository) GetAccountByInviteToken(token string) (Account, error) {
	args := m.Called(token)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockParlorRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockParlorRepository) GetUserById(userId int) (User, error) {
	args := m.Called(userId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockParlorRepository) GetUserByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockParlorRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockParlorRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockParlorRepository) DeleteRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockParlorRepository) ListVisibleRooms(userId, accountId int) ([]Room, error) {
	args := m.Called(userId, accountId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockParlorRepository) ListJoinableRooms(userId, accountId int) ([]Room, error) {
	args := m.Called(userId, accountId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockParlorRepository) CreateMembership(userId, roomId int, role string) (Membership, error) {
	args := m.Called(userId, roomId, role)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockParlorRepository) DeleteMembership(userId, roomId int) error {
	args := m.Called(userId, roomId)
	return args.Error(0)
}
func (m *MockParlorRepository) GetMembership(userId, roomId int) (Membership, error) {
	args := m.Called(userId, roomId)
	return args.Get(0).(Membership), args.Error(1)
}
func (m *MockParlorRepository) ListRoomMembers(roomId int) ([]User, error) {
	args := m.Called(roomId)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockParlorRepository) FindDirectMessageRoom(accountId, userAId, userBId int) (Room, error) {
	args := m.Called(accountId, userAId, userBId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockParlorRepository) CreateDirectMessageRoom(params CreateDirectMessageParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockParlorRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockParlorRepository) GetMessage(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockParlorRepository) UpdateMessageBody(messageId int, body string) (Message, error) {
	args := m.Called(messageId, body)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockParlorRepository) DeleteMessage(messageId int) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockParlorRepository) CountRoomMessages(roomId int) (int, error) {
	args := m.Called(roomId)
	return args.Int(0), args.Error(1)
}
func (m *MockParlorRepository) UpsertReadMarker(userId, roomId int, lastReadAt time.Time) error {
	args := m.Called(userId, roomId, lastReadAt)
	return args.Error(0)
}
func (m *MockParlorRepository) GetRoomReadState(userId, roomId int) (RoomReadState, error) {
	args := m.Called(userId, roomId)
	return args.Get(0).(RoomReadState), args.Error(1)
}
func (m *MockParlorRepository) ListDirectMessagesWithUnread(userId int) ([]DirectMessageRow, error) {
	args := m.Called(userId)
	return args.Get(0).([]DirectMessageRow), args.Error(1)
}
func (m *MockParlorRepository) UpsertPushSubscription(params UpsertPushSubscriptionParams) (PushSubscription, error) {
	args := m.Called(params)
	return args.Get(0).(PushSubscription), args.Error(1)
}
func (m *MockParlorRepository) DeletePushSubscription(userId int, endpoint string) error {
	args := m.Called(userId, endpoint)
	return args.Error(0)
}
func (m *MockParlorRepository) DeletePushSubscriptionByEndpoint(endpoint string) error {
	args := m.Called(endpoint)
	return args.Error(0)
}
func (m *MockParlorRepository) ListPushSubscriptions(userId int) ([]PushSubscription, error) {
	args := m.Called(userId)
	return args.Get(0).([]PushSubscription), args.Error(1)
}
