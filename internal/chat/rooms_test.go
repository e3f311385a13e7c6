package chat

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/testutil"
	"github.com/parlorchat/parlor/internal/types"
)

func TestIsDefaultRoom(t *testing.T) {
	tcases := []struct {
		name string
		room database.Room
		want bool
	}{
		{
			name: "general channel",
			room: database.Room{Kind: types.RoomKindChannel, Name: "general"},
			want: true,
		},
		{
			name: "case insensitive",
			room: database.Room{Kind: types.RoomKindChannel, Name: "General"},
			want: true,
		},
		{
			name: "other channel",
			room: database.Room{Kind: types.RoomKindChannel, Name: "random"},
			want: false,
		},
		{
			name: "dm named general",
			room: database.Room{Kind: types.RoomKindDirectMessage, Name: "general"},
			want: false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDefaultRoom(tc.room))
			assert.Equal(t, !tc.want, Deletable(tc.room))
			assert.Equal(t, !tc.want, MembershipEditable(tc.room))
		})
	}
}

func TestCreateChannel(t *testing.T) {
	mockRepo := &database.MockParlorRepository{}
	defer mockRepo.AssertExpectations(t)

	creator := database.User{Id: 1, AccountId: 1}
	expected := database.Room{Id: 10, ExternalId: "abc", AccountId: 1, Kind: types.RoomKindChannel, Name: "random"}

	mockRepo.On("CreateRoom", database.CreateRoomParams{
		ExternalId: "abc",
		AccountId:  1,
		Kind:       types.RoomKindChannel,
		Visibility: types.RoomVisibilityPublic,
		Name:       "random",
		OwnerId:    1,
		OwnerRole:  types.RoleAdmin,
	}).Return(expected, nil).Once()

	svc := NewRoomService(testutil.TestLogger(t), mockRepo)
	svc.genExternalId = func() (string, error) { return "abc", nil }

	room, err := svc.CreateChannel(creator, "random", "")
	assert.NoError(t, err)
	assert.Equal(t, expected, room)
}

func TestCreateChannel_InvalidName(t *testing.T) {
	svc := NewRoomService(testutil.TestLogger(t), &database.MockParlorRepository{})

	_, err := svc.CreateChannel(database.User{Id: 1}, "  ", "")
	assert.True(t, errors.Is(err, ErrInvalidName))

	_, err = svc.CreateChannel(database.User{Id: 1}, "random", "secret")
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestJoin(t *testing.T) {
	user := database.User{Id: 1, AccountId: 1}

	tcases := []struct {
		name    string
		room    database.Room
		mockErr error
		wantErr error
	}{
		{
			name: "public channel",
			room: database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindChannel, Visibility: types.RoomVisibilityPublic, Name: "random"},
		},
		{
			name:    "already a member",
			room:    database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindChannel, Visibility: types.RoomVisibilityPublic, Name: "random"},
			mockErr: &pq.Error{Code: "23505"},
		},
		{
			name:    "private channel",
			room:    database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindChannel, Visibility: types.RoomVisibilityPrivate, Name: "secret"},
			wantErr: ErrNotJoinable,
		},
		{
			name:    "other account",
			room:    database.Room{Id: 10, AccountId: 2, Kind: types.RoomKindChannel, Visibility: types.RoomVisibilityPublic, Name: "random"},
			wantErr: ErrNotJoinable,
		},
		{
			name:    "direct message",
			room:    database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindDirectMessage, Visibility: types.RoomVisibilityPrivate, Name: "DM-1-2"},
			wantErr: ErrNotJoinable,
		},
		{
			name:    "default room",
			room:    database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindChannel, Visibility: types.RoomVisibilityPublic, Name: "general"},
			wantErr: ErrDefaultRoom,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockParlorRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.wantErr == nil {
				mockRepo.On("CreateMembership", user.Id, tc.room.Id, types.RoleMember).
					Return(database.Membership{}, tc.mockErr).Once()
			}

			svc := NewRoomService(testutil.TestLogger(t), mockRepo)
			err := svc.Join(user, tc.room)
			if tc.wantErr != nil {
				assert.True(t, errors.Is(err, tc.wantErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLeave_DefaultRoomProtected(t *testing.T) {
	svc := NewRoomService(testutil.TestLogger(t), &database.MockParlorRepository{})

	err := svc.Leave(database.User{Id: 1}, database.Room{Kind: types.RoomKindChannel, Name: "general"})
	assert.True(t, errors.Is(err, ErrDefaultRoom))

	err = svc.Leave(database.User{Id: 1}, database.Room{Kind: types.RoomKindDirectMessage, Name: "DM-1-2"})
	assert.True(t, errors.Is(err, ErrNotJoinable))
}

func TestDelete(t *testing.T) {
	room := database.Room{Id: 10, AccountId: 1, Kind: types.RoomKindChannel, Name: "random"}

	t.Run("account admin", func(t *testing.T) {
		mockRepo := &database.MockParlorRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("DeleteRoom", 10).Return(nil).Once()

		svc := NewRoomService(testutil.TestLogger(t), mockRepo)
		assert.NoError(t, svc.Delete(database.User{Id: 1, Admin: true}, room))
	})

	t.Run("room admin", func(t *testing.T) {
		mockRepo := &database.MockParlorRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetMembership", 2, 10).Return(database.Membership{UserId: 2, RoomId: 10, Role: types.RoleAdmin}, nil).Once()
		mockRepo.On("DeleteRoom", 10).Return(nil).Once()

		svc := NewRoomService(testutil.TestLogger(t), mockRepo)
		assert.NoError(t, svc.Delete(database.User{Id: 2}, room))
	})

	t.Run("plain member", func(t *testing.T) {
		mockRepo := &database.MockParlorRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetMembership", 3, 10).Return(database.Membership{UserId: 3, RoomId: 10, Role: types.RoleMember}, nil).Once()

		svc := NewRoomService(testutil.TestLogger(t), mockRepo)
		err := svc.Delete(database.User{Id: 3}, room)
		assert.True(t, errors.Is(err, ErrNotAllowed))
		mockRepo.AssertNotCalled(t, "DeleteRoom")
	})

	t.Run("default room", func(t *testing.T) {
		svc := NewRoomService(testutil.TestLogger(t), &database.MockParlorRepository{})
		err := svc.Delete(database.User{Id: 1, Admin: true}, database.Room{Id: 1, Kind: types.RoomKindChannel, Name: "general"})
		assert.True(t, errors.Is(err, ErrDefaultRoom))
	})
}
