package chat

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/testutil"
	"github.com/parlorchat/parlor/internal/types"
)

func TestIsUnread(t *testing.T) {
	now := time.Now().UTC()

	tcases := []struct {
		name          string
		lastMessageAt time.Time
		lastReadAt    time.Time
		want          bool
	}{
		{
			name: "no messages",
			want: false,
		},
		{
			name:       "no messages but marker exists",
			lastReadAt: now,
			want:       false,
		},
		{
			name:          "never read",
			lastMessageAt: now,
			want:          true,
		},
		{
			name:          "read after last message",
			lastMessageAt: now.Add(-time.Minute),
			lastReadAt:    now,
			want:          false,
		},
		{
			name:          "message after last read",
			lastMessageAt: now,
			lastReadAt:    now.Add(-time.Minute),
			want:          true,
		},
		{
			name:          "read exactly at last message",
			lastMessageAt: now,
			lastReadAt:    now,
			want:          false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsUnread(tc.lastMessageAt, tc.lastReadAt))
		})
	}
}

func TestMarkRead(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("UpsertReadMarker", 1, 10, mock.AnythingOfType("time.Time")).Return(nil).Once()

	tracker := NewUnreadTracker(testutil.TestLogger(t), mockRepo)
	err := tracker.MarkRead(database.User{Id: 1}, database.Room{Id: 10})
	assert.NoError(t, err)
}

func TestIsRoomUnread(t *testing.T) {
	now := time.Now().UTC()

	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetRoomReadState", 1, 10).Return(database.RoomReadState{
		LastMessageAt: sql.NullTime{Time: now, Valid: true},
		LastReadAt:    sql.NullTime{Time: now.Add(-time.Minute), Valid: true},
	}, nil).Once()

	tracker := NewUnreadTracker(testutil.TestLogger(t), mockRepo)
	unread, err := tracker.IsRoomUnread(database.User{Id: 1}, database.Room{Id: 10})
	assert.NoError(t, err)
	assert.True(t, unread)
}

func TestDirectMessages(t *testing.T) {
	now := time.Now().UTC()

	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListDirectMessagesWithUnread", 1).Return([]database.DirectMessageRow{
		{
			Room:          database.Room{Id: 10, Kind: types.RoomKindDirectMessage, Name: "DM-1-2"},
			OtherUser:     database.User{Id: 2, Name: "bo"},
			LastMessageAt: now,
		},
		{
			Room:          database.Room{Id: 11, Kind: types.RoomKindDirectMessage, Name: "DM-1-3"},
			OtherUser:     database.User{Id: 3, Name: "cy"},
			LastMessageAt: now.Add(-time.Hour),
			LastReadAt:    sql.NullTime{Time: now, Valid: true},
		},
	}, nil).Once()

	tracker := NewUnreadTracker(testutil.TestLogger(t), mockRepo)
	entries, err := tracker.DirectMessages(database.User{Id: 1})
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.True(t, entries[0].Unread, "unread marker missing, newest message counts as unread")
	assert.Equal(t, "bo", entries[0].OtherUser.Name)
	assert.False(t, entries[1].Unread, "read after last message")
}
