package database

import (
	"database/sql"
	"time"
)

type Account struct {
	Id          int
	Name        string
	InviteToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	Id           int
	AccountId    int
	Name         string
	EmailAddress string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id         int
	ExternalId string
	AccountId  int
	Kind       string
	Visibility string
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Membership struct {
	Id        int
	UserId    int
	RoomId    int
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	Id        int
	RoomId    int
	UserId    int
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PushSubscription struct {
	Id        int
	UserId    int
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DirectMessageRow is one row of the batched sidebar query: a DM room
// with its other participant, most recent message timestamp and the
// caller's read marker (null when the room was never read).
type DirectMessageRow struct {
	Room          Room
	OtherUser     User
	LastMessageAt time.Time
	LastReadAt    sql.NullTime
}

// RoomReadState pairs a room's newest message timestamp with the
// caller's read marker. Either may be null: no messages yet, or the
// room was never read.
type RoomReadState struct {
	LastMessageAt sql.NullTime
	LastReadAt    sql.NullTime
}

type CreateAccountParams struct {
	Name        string
	InviteToken string
}

type CreateUserParams struct {
	AccountId    int
	Name         string
	EmailAddress string
	PasswordHash string
	Admin        bool
}

type CreateRoomParams struct {
	ExternalId string
	AccountId  int
	Kind       string
	Visibility string
	Name       string
	OwnerId    int
	OwnerRole  string
}

type CreateDirectMessageParams struct {
	ExternalId string
	AccountId  int
	Name       string
	UserAId    int
	UserBId    int
}

type CreateMessageParams struct {
	RoomId int
	UserId int
	Body   string
}

type UpsertPushSubscriptionParams struct {
	UserId   int
	Endpoint string
	P256dh   string
	Auth     string
}
