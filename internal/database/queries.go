package database

import (
	"database/sql"
	"fmt"
	"time"
)

const createMembershipQuery = "INSERT INTO memberships (user_id, room_id, role, created_at, updated_at) " +
	"VALUES ($1, $2, $3, $4, $5) RETURNING id, user_id, room_id, role"

func (db *PgParlorRepository) AccountExists() (bool, error) {
	var exists bool
	err := db.conn.QueryRow("SELECT EXISTS (SELECT 1 FROM accounts)").Scan(&exists)

	return exists, err
}

func (db *PgParlorRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (name, invite_token, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $3) RETURNING id, name, invite_token",
		params.Name,
		params.InviteToken,
		time.Now().UTC(),
	)

	var a Account
	err := res.Scan(&a.Id, &a.Name, &a.InviteToken)

	return a, err
}

func (db *PgParlorRepository) GetAccountByInviteToken(token string) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, invite_token FROM accounts WHERE invite_token = $1 LIMIT 1",
		token,
	)

	var a Account
	err := row.Scan(&a.Id, &a.Name, &a.InviteToken)

	return a, err
}

func (db *PgParlorRepository) CreateUser(params CreateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (account_id, name, email, password_hash, admin, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id, account_id, name, email, admin",
		params.AccountId,
		params.Name,
		params.EmailAddress,
		params.PasswordHash,
		params.Admin,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(&u.Id, &u.AccountId, &u.Name, &u.EmailAddress, &u.Admin)

	return u, err
}

func (db *PgParlorRepository) GetUserById(userId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, account_id, name, email, admin, created_at, updated_at FROM users "+
			"WHERE id = $1 LIMIT 1",
		userId,
	)

	var u User
	err := row.Scan(&u.Id, &u.AccountId, &u.Name, &u.EmailAddress, &u.Admin, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (db *PgParlorRepository) GetUserByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, account_id, name, email, password_hash, admin, created_at, updated_at FROM users "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var u User
	err := row.Scan(&u.Id, &u.AccountId, &u.Name, &u.EmailAddress, &u.PasswordHash, &u.Admin, &u.CreatedAt, &u.UpdatedAt)

	return u, err
}

func (db *PgParlorRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (external_id, account_id, kind, visibility, name, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6) "+
			"RETURNING id, external_id, account_id, kind, visibility, name, created_at, updated_at",
		params.ExternalId,
		params.AccountId,
		params.Kind,
		params.Visibility,
		params.Name,
		time.Now().UTC(),
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.ExternalId,
		&room.AccountId,
		&room.Kind,
		&room.Visibility,
		&room.Name,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return Room{}, err
	}

	if params.OwnerId != 0 {
		role := params.OwnerRole
		if role == "" {
			role = "member"
		}
		_, err = tx.Exec(
			"INSERT INTO memberships (user_id, room_id, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)",
			params.OwnerId,
			room.Id,
			role,
			time.Now().UTC(),
		)
		if err != nil {
			return Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func (db *PgParlorRepository) GetRoomByExternalId(externalId string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, account_id, kind, visibility, name, created_at, updated_at FROM rooms "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanRoom(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (Room, error) {
	var room Room
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.AccountId,
		&room.Kind,
		&room.Visibility,
		&room.Name,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

// DeleteRoom relies on the schema's ON DELETE CASCADE to remove the
// room's memberships, messages and read markers.
func (db *PgParlorRepository) DeleteRoom(roomId int) error {
	_, err := db.conn.Exec("DELETE FROM rooms WHERE id = $1", roomId)

	return err
}

func (db *PgParlorRepository) ListVisibleRooms(userId, accountId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT r.id, r.external_id, r.account_id, r.kind, r.visibility, r.name, r.created_at, r.updated_at "+
			"FROM rooms r LEFT JOIN memberships m ON m.room_id = r.id "+
			"WHERE r.account_id = $1 AND r.kind = 'channel' "+
			"AND (r.visibility = 'public' OR m.user_id = $2) "+
			"ORDER BY r.name",
		accountId,
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRooms(rows)
}

func (db *PgParlorRepository) ListJoinableRooms(userId, accountId int) ([]Room, error) {
	rows, err := db.conn.Query(
		"SELECT r.id, r.external_id, r.account_id, r.kind, r.visibility, r.name, r.created_at, r.updated_at "+
			"FROM rooms r "+
			"WHERE r.account_id = $1 AND r.kind = 'channel' AND r.visibility = 'public' "+
			"AND NOT EXISTS (SELECT 1 FROM memberships m WHERE m.room_id = r.id AND m.user_id = $2) "+
			"ORDER BY r.name",
		accountId,
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRooms(rows)
}

func collectRooms(rows *sql.Rows) ([]Room, error) {
	rooms := make([]Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (db *PgParlorRepository) CreateMembership(userId, roomId int, role string) (Membership, error) {
	res := db.conn.QueryRow(
		createMembershipQuery,
		userId,
		roomId,
		role,
		time.Now().UTC(),
		time.Now().UTC(),
	)

	var m Membership
	err := res.Scan(&m.Id, &m.UserId, &m.RoomId, &m.Role)

	return m, err
}

func (db *PgParlorRepository) DeleteMembership(userId, roomId int) error {
	_, err := db.conn.Exec(
		"DELETE FROM memberships WHERE user_id = $1 AND room_id = $2",
		userId,
		roomId,
	)

	return err
}

func (db *PgParlorRepository) GetMembership(userId, roomId int) (Membership, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, room_id, role FROM memberships "+
			"WHERE user_id = $1 AND room_id = $2 LIMIT 1",
		userId,
		roomId,
	)

	var m Membership
	err := row.Scan(&m.Id, &m.UserId, &m.RoomId, &m.Role)

	return m, err
}

func (db *PgParlorRepository) ListRoomMembers(roomId int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT u.id, u.account_id, u.name, u.email, u.admin FROM memberships m "+
			"JOIN users u ON m.user_id = u.id WHERE m.room_id = $1",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Id, &u.AccountId, &u.Name, &u.EmailAddress, &u.Admin); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// FindDirectMessageRoom returns the DM room whose membership set is
// exactly the given pair. Both counts matter: two distinct member ids
// and two membership rows total, so a room with extra members or
// duplicate rows never matches.
func (db *PgParlorRepository) FindDirectMessageRoom(accountId, userAId, userBId int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT r.id, r.external_id, r.account_id, r.kind, r.visibility, r.name, r.created_at, r.updated_at "+
			"FROM rooms r JOIN memberships m ON m.room_id = r.id "+
			"WHERE r.account_id = $1 AND r.kind = 'direct_message' "+
			"GROUP BY r.id "+
			"HAVING COUNT(DISTINCT m.user_id) FILTER (WHERE m.user_id IN ($2, $3)) = 2 "+
			"AND COUNT(m.id) = 2 "+
			"LIMIT 1",
		accountId,
		userAId,
		userBId,
	)

	return scanRoom(row)
}

func (db *PgParlorRepository) CreateDirectMessageRoom(params CreateDirectMessageParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (external_id, account_id, kind, visibility, name, created_at, updated_at) "+
			"VALUES ($1, $2, 'direct_message', 'private', $3, $4, $4) "+
			"RETURNING id, external_id, account_id, kind, visibility, name, created_at, updated_at",
		params.ExternalId,
		params.AccountId,
		params.Name,
		time.Now().UTC(),
	)

	var room Room
	room, err = scanRoom(res)
	if err != nil {
		return Room{}, err
	}

	for _, userId := range []int{params.UserAId, params.UserBId} {
		_, err = tx.Exec(
			"INSERT INTO memberships (user_id, room_id, role, created_at, updated_at) VALUES ($1, $2, 'member', $3, $3)",
			userId,
			room.Id,
			time.Now().UTC(),
		)
		if err != nil {
			return Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func (db *PgParlorRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (room_id, user_id, body, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, room_id, user_id, body, created_at, updated_at",
		params.RoomId,
		params.UserId,
		params.Body,
		time.Now().UTC(),
	)

	return scanMessage(res)
}

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	err := row.Scan(&m.Id, &m.RoomId, &m.UserId, &m.Body, &m.CreatedAt, &m.UpdatedAt)

	return m, err
}

func (db *PgParlorRepository) GetMessage(messageId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, user_id, body, created_at, updated_at FROM messages WHERE id = $1 LIMIT 1",
		messageId,
	)

	return scanMessage(row)
}

func (db *PgParlorRepository) UpdateMessageBody(messageId int, body string) (Message, error) {
	row := db.conn.QueryRow(
		"UPDATE messages SET body = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, room_id, user_id, body, created_at, updated_at",
		messageId,
		body,
		time.Now().UTC(),
	)

	return scanMessage(row)
}

func (db *PgParlorRepository) DeleteMessage(messageId int) error {
	_, err := db.conn.Exec("DELETE FROM messages WHERE id = $1", messageId)

	return err
}

func (db *PgParlorRepository) CountRoomMessages(roomId int) (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM messages WHERE room_id = $1", roomId).Scan(&count)

	return count, err
}

// UpsertReadMarker is last-writer-wins on last_read_at, so concurrent
// reads from the same user's devices collapse to a single row.
func (db *PgParlorRepository) UpsertReadMarker(userId, roomId int, lastReadAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO read_markers (user_id, room_id, last_read_at) VALUES ($1, $2, $3) "+
			"ON CONFLICT (user_id, room_id) DO UPDATE SET last_read_at = EXCLUDED.last_read_at",
		userId,
		roomId,
		lastReadAt,
	)

	return err
}

func (db *PgParlorRepository) GetRoomReadState(userId, roomId int) (RoomReadState, error) {
	row := db.conn.QueryRow(
		"SELECT (SELECT MAX(created_at) FROM messages WHERE room_id = $2), "+
			"(SELECT last_read_at FROM read_markers WHERE user_id = $1 AND room_id = $2)",
		userId,
		roomId,
	)

	var state RoomReadState
	err := row.Scan(&state.LastMessageAt, &state.LastReadAt)

	return state, err
}

// ListDirectMessagesWithUnread fetches the caller's DM sidebar in one
// set-based query: every DM room of the user that has at least one
// message, with the other participant, the newest message timestamp
// and the caller's read marker. Unread is computed by the caller.
func (db *PgParlorRepository) ListDirectMessagesWithUnread(userId int) ([]DirectMessageRow, error) {
	query := `
		SELECT
			r.id, r.external_id, r.account_id, r.kind, r.visibility, r.name, r.created_at, r.updated_at,
			u.id, u.account_id, u.name, u.email, u.admin,
			MAX(msg.created_at) AS last_message_at,
			rm.last_read_at
		FROM rooms r
		JOIN memberships own ON own.room_id = r.id AND own.user_id = $1
		JOIN memberships other ON other.room_id = r.id AND other.user_id <> $1
		JOIN users u ON u.id = other.user_id
		JOIN messages msg ON msg.room_id = r.id
		LEFT JOIN read_markers rm ON rm.room_id = r.id AND rm.user_id = $1
		WHERE r.kind = 'direct_message'
		GROUP BY r.id, u.id, rm.last_read_at
		ORDER BY MAX(msg.created_at) DESC
`

	rows, err := db.conn.Query(query, userId)
	if err != nil {
		return nil, fmt.Errorf("list direct messages: %w", err)
	}
	defer rows.Close()

	entries := make([]DirectMessageRow, 0)
	for rows.Next() {
		var row DirectMessageRow
		err := rows.Scan(
			&row.Room.Id,
			&row.Room.ExternalId,
			&row.Room.AccountId,
			&row.Room.Kind,
			&row.Room.Visibility,
			&row.Room.Name,
			&row.Room.CreatedAt,
			&row.Room.UpdatedAt,
			&row.OtherUser.Id,
			&row.OtherUser.AccountId,
			&row.OtherUser.Name,
			&row.OtherUser.EmailAddress,
			&row.OtherUser.Admin,
			&row.LastMessageAt,
			&row.LastReadAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		entries = append(entries, row)
	}

	return entries, rows.Err()
}

func (db *PgParlorRepository) UpsertPushSubscription(params UpsertPushSubscriptionParams) (PushSubscription, error) {
	res := db.conn.QueryRow(
		"INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) "+
			"ON CONFLICT (endpoint) DO UPDATE SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, "+
			"auth = EXCLUDED.auth, updated_at = EXCLUDED.updated_at "+
			"RETURNING id, user_id, endpoint, p256dh, auth",
		params.UserId,
		params.Endpoint,
		params.P256dh,
		params.Auth,
		time.Now().UTC(),
	)

	var sub PushSubscription
	err := res.Scan(&sub.Id, &sub.UserId, &sub.Endpoint, &sub.P256dh, &sub.Auth)

	return sub, err
}

func (db *PgParlorRepository) DeletePushSubscription(userId int, endpoint string) error {
	_, err := db.conn.Exec(
		"DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2",
		userId,
		endpoint,
	)

	return err
}

func (db *PgParlorRepository) DeletePushSubscriptionByEndpoint(endpoint string) error {
	_, err := db.conn.Exec("DELETE FROM push_subscriptions WHERE endpoint = $1", endpoint)

	return err
}

func (db *PgParlorRepository) ListPushSubscriptions(userId int) ([]PushSubscription, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, endpoint, p256dh, auth FROM push_subscriptions WHERE user_id = $1",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]PushSubscription, 0)
	for rows.Next() {
		var sub PushSubscription
		if err := rows.Scan(&sub.Id, &sub.UserId, &sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}
