package chat

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/teris-io/shortid"

	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/server"
	"github.com/parlorchat/parlor/internal/types"
)

// DirectMessageName derives the deterministic DM room name from the
// sorted participant id pair. A partial unique index on this name
// makes concurrent creation race-safe.
func DirectMessageName(userAId, userBId int) string {
	a, b := userAId, userBId
	if b < a {
		a, b = b, a
	}

	return fmt.Sprintf("DM-%d-%d", a, b)
}

type DMResolver struct {
	log           *log.Logger
	db            database.ParlorRepository
	broadcaster   Broadcaster
	genExternalId func() (string, error)
}

func NewDMResolver(logger *log.Logger, db database.ParlorRepository, b Broadcaster) *DMResolver {
	return &DMResolver{
		log:           logger,
		db:            db,
		broadcaster:   b,
		genExternalId: shortid.Generate,
	}
}

// GetOrCreate returns the unique DM room whose members are exactly the
// two users, creating it if absent. Two concurrent callers resolving
// the same pair observe a single room: the loser of the creation race
// hits the unique index and re-fetches the winner's room.
func (r *DMResolver) GetOrCreate(userA, userB database.User) (database.Room, error) {
	if userA.Id == userB.Id {
		return database.Room{}, ErrSelfConversation
	}
	if userA.AccountId != userB.AccountId {
		return database.Room{}, ErrDifferentAccounts
	}

	room, err := r.db.FindDirectMessageRoom(userA.AccountId, userA.Id, userB.Id)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return database.Room{}, fmt.Errorf("find direct message room: %w", err)
	}

	sid, err := r.genExternalId()
	if err != nil {
		return database.Room{}, err
	}

	room, err = r.db.CreateDirectMessageRoom(database.CreateDirectMessageParams{
		ExternalId: sid,
		AccountId:  userA.AccountId,
		Name:       DirectMessageName(userA.Id, userB.Id),
		UserAId:    userA.Id,
		UserBId:    userB.Id,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent caller created the room first.
			return r.db.FindDirectMessageRoom(userA.AccountId, userA.Id, userB.Id)
		}
		return database.Room{}, fmt.Errorf("create direct message room: %w", err)
	}

	// Fires exactly once per DM room, tied to its creation.
	broadcastNewDMToUser(r.broadcaster, userA, userB, room)
	broadcastNewDMToUser(r.broadcaster, userB, userA, room)

	return room, nil
}

// broadcastNewDMToUser bootstraps one participant's sidebar: insert
// the new DM entry and drop the "no conversations" placeholder.
func broadcastNewDMToUser(b Broadcaster, user, other database.User, room database.Room) {
	scope := server.UserSidebarScope(user.Id)

	b.UserBroadcast(user.Id, server.Append(scope, server.TargetDirectMessagesList, types.DirectMessageEntry{
		Room:      roomType(room),
		OtherUser: userType(other),
	}))
	b.UserBroadcast(user.Id, server.Remove(scope, server.TargetNoDMsPlaceholder))
}
