package chat

import "errors"

var (
	// ErrNotMember rejects message posting by users outside the room.
	ErrNotMember = errors.New("user is not a member of the room")
	// ErrNotAuthor rejects edits and deletes by anyone but the author.
	ErrNotAuthor = errors.New("only the author may modify a message")
	ErrEmptyBody = errors.New("message body cannot be blank")
	// ErrDefaultRoom guards the "general" room: it is never deletable
	// and its membership is never editable.
	ErrDefaultRoom       = errors.New("the default room cannot be modified")
	ErrNotJoinable       = errors.New("room membership cannot be changed")
	ErrNotAllowed        = errors.New("not allowed")
	ErrInvalidName       = errors.New("room name cannot be blank")
	ErrDifferentAccounts = errors.New("users belong to different accounts")
	ErrSelfConversation  = errors.New("cannot start a direct message with yourself")
)
