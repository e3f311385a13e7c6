package chat

import (
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/teris-io/shortid"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/types"
)

// IsDefaultRoom reports whether the room is the account's default
// channel. The rule is a pure function of the stored name, not a flag.
func IsDefaultRoom(room database.Room) bool {
	return room.Kind == types.RoomKindChannel && strings.EqualFold(room.Name, "general")
}

func Deletable(room database.Room) bool {
	return !IsDefaultRoom(room)
}

func MembershipEditable(room database.Room) bool {
	return !IsDefaultRoom(room)
}

type RoomService struct {
	log           *log.Logger
	db            database.ParlorRepository
	genExternalId func() (string, error)
}

func NewRoomService(logger *log.Logger, db database.ParlorRepository) *RoomService {
	return &RoomService{
		log:           logger,
		db:            db,
		genExternalId: shortid.Generate,
	}
}

// VisibleRooms lists the channels the user can see: public channels in
// their account plus private channels they belong to, deduplicated.
func (s *RoomService) VisibleRooms(user database.User) ([]database.Room, error) {
	return s.db.ListVisibleRooms(user.Id, user.AccountId)
}

// JoinableRooms lists public channels the user is not yet a member of.
func (s *RoomService) JoinableRooms(user database.User) ([]database.Room, error) {
	return s.db.ListJoinableRooms(user.Id, user.AccountId)
}

func (s *RoomService) IsMember(userId, roomId int) (bool, error) {
	_, err := s.db.GetMembership(userId, roomId)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *RoomService) RoleOf(userId, roomId int) (string, error) {
	m, err := s.db.GetMembership(userId, roomId)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotMember
	}
	if err != nil {
		return "", err
	}

	return m.Role, nil
}

func (s *RoomService) CreateChannel(creator database.User, name, visibility string) (database.Room, error) {
	if strings.TrimSpace(name) == "" {
		return database.Room{}, ErrInvalidName
	}

	if visibility == "" {
		visibility = types.RoomVisibilityPublic
	}
	if visibility != types.RoomVisibilityPublic && visibility != types.RoomVisibilityPrivate {
		return database.Room{}, ErrInvalidName
	}

	sid, err := s.genExternalId()
	if err != nil {
		return database.Room{}, err
	}

	return s.db.CreateRoom(database.CreateRoomParams{
		ExternalId: sid,
		AccountId:  creator.AccountId,
		Kind:       types.RoomKindChannel,
		Visibility: visibility,
		Name:       name,
		OwnerId:    creator.Id,
		OwnerRole:  types.RoleAdmin,
	})
}

// Join adds the user to a public channel in their account. Joining is
// idempotent: a concurrent or repeated join reports success.
func (s *RoomService) Join(user database.User, room database.Room) error {
	if room.AccountId != user.AccountId ||
		room.Kind != types.RoomKindChannel ||
		room.Visibility != types.RoomVisibilityPublic {
		return ErrNotJoinable
	}

	if !MembershipEditable(room) {
		return ErrDefaultRoom
	}

	_, err := s.db.CreateMembership(user.Id, room.Id, types.RoleMember)
	if err != nil && !database.IsUniqueViolation(err) {
		return err
	}

	return nil
}

func (s *RoomService) Leave(user database.User, room database.Room) error {
	if room.Kind == types.RoomKindDirectMessage {
		return ErrNotJoinable
	}
	if !MembershipEditable(room) {
		return ErrDefaultRoom
	}

	return s.db.DeleteMembership(user.Id, room.Id)
}

// Delete removes a channel. The default room is permanently protected,
// independent of the caller's role.
func (s *RoomService) Delete(actor database.User, room database.Room) error {
	if !Deletable(room) {
		return ErrDefaultRoom
	}

	if !actor.Admin {
		role, err := s.RoleOf(actor.Id, room.Id)
		if err != nil {
			if errors.Is(err, ErrNotMember) {
				return ErrNotAllowed
			}
			return err
		}
		if role != types.RoleAdmin {
			return ErrNotAllowed
		}
	}

	return s.db.DeleteRoom(room.Id)
}
