package types

import (
	"time"
)

const (
	RoomKindChannel       = "channel"
	RoomKindDirectMessage = "direct_message"

	RoomVisibilityPublic  = "public"
	RoomVisibilityPrivate = "private"

	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	Id           int       `json:"id"`
	AccountId    int       `json:"account_id"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email_address,omitempty"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id         int       `json:"id"`
	ExternalId string    `json:"external_id"`
	AccountId  int       `json:"account_id"`
	Kind       string    `json:"kind"`
	Visibility string    `json:"visibility"`
	Name       string    `json:"name"`
	Members    []User    `json:"members,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id        int       `json:"id"`
	RoomId    int       `json:"room_id"`
	UserId    int       `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DirectMessageEntry is a sidebar row: a DM room annotated with the
// other participant, its most recent message time and unread state.
type DirectMessageEntry struct {
	Room          Room      `json:"room"`
	OtherUser     User      `json:"other_user"`
	LastMessageAt time.Time `json:"last_message_at"`
	Unread        bool      `json:"unread"`
}
