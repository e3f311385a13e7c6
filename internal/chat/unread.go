package chat

import (
	"database/sql"
	"log"
	"time"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/types"
)

// IsUnread decides unread state from the two timestamps alone. A zero
// lastMessageAt means the room has no messages and is never unread; a
// zero lastReadAt means the user never read the room.
func IsUnread(lastMessageAt, lastReadAt time.Time) bool {
	if lastMessageAt.IsZero() {
		return false
	}
	if lastReadAt.IsZero() {
		return true
	}

	return lastMessageAt.After(lastReadAt)
}

type UnreadTracker struct {
	log *log.Logger
	db  database.ParlorRepository
}

func NewUnreadTracker(logger *log.Logger, db database.ParlorRepository) *UnreadTracker {
	return &UnreadTracker{log: logger, db: db}
}

// MarkRead upserts the user's read marker for the room. Concurrent
// calls from multiple devices race to last-writer-wins, which is the
// intended semantics.
func (t *UnreadTracker) MarkRead(user database.User, room database.Room) error {
	return t.db.UpsertReadMarker(user.Id, room.Id, time.Now().UTC())
}

func (t *UnreadTracker) IsRoomUnread(user database.User, room database.Room) (bool, error) {
	state, err := t.db.GetRoomReadState(user.Id, room.Id)
	if err != nil {
		return false, err
	}

	return IsUnread(nullTime(state.LastMessageAt), nullTime(state.LastReadAt)), nil
}

// DirectMessages returns the user's DM sidebar: every DM room with at
// least one message, newest first, each annotated with unread state.
// One batched query serves the whole list.
func (t *UnreadTracker) DirectMessages(user database.User) ([]types.DirectMessageEntry, error) {
	rows, err := t.db.ListDirectMessagesWithUnread(user.Id)
	if err != nil {
		return nil, err
	}

	entries := make([]types.DirectMessageEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, types.DirectMessageEntry{
			Room:          roomType(row.Room),
			OtherUser:     userType(row.OtherUser),
			LastMessageAt: row.LastMessageAt,
			Unread:        IsUnread(row.LastMessageAt, nullTime(row.LastReadAt)),
		})
	}

	return entries, nil
}

func nullTime(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
