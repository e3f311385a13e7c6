package database

import "time"

type ParlorRepository interface {
	Ping() error

	AccountExists() (bool, error)
	CreateAccount(params CreateAccountParams) (Account, error)
	GetAccountByInviteToken(token string) (Account, error)

	CreateUser(params CreateUserParams) (User, error)
	GetUserById(userId int) (User, error)
	GetUserByEmail(email string) (User, error)

	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomByExternalId(externalId string) (Room, error)
	DeleteRoom(roomId int) error
	ListVisibleRooms(userId, accountId int) ([]Room, error)
	ListJoinableRooms(userId, accountId int) ([]Room, error)

	CreateMembership(userId, roomId int, role string) (Membership, error)
	DeleteMembership(userId, roomId int) error
	GetMembership(userId, roomId int) (Membership, error)
	ListRoomMembers(roomId int) ([]User, error)

	FindDirectMessageRoom(accountId, userAId, userBId int) (Room, error)
	CreateDirectMessageRoom(params CreateDirectMessageParams) (Room, error)

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessage(messageId int) (Message, error)
	UpdateMessageBody(messageId int, body string) (Message, error)
	DeleteMessage(messageId int) error
	CountRoomMessages(roomId int) (int, error)

	UpsertReadMarker(userId, roomId int, lastReadAt time.Time) error
	GetRoomReadState(userId, roomId int) (RoomReadState, error)
	ListDirectMessagesWithUnread(userId int) ([]DirectMessageRow, error)

	UpsertPushSubscription(params UpsertPushSubscriptionParams) (PushSubscription, error)
	DeletePushSubscription(userId int, endpoint string) error
	DeletePushSubscriptionByEndpoint(endpoint string) error
	ListPushSubscriptions(userId int) ([]PushSubscription, error)
}
