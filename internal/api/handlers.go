package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/parlorchat/parlor/internal/chat"
	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/server"
	"github.com/parlorchat/parlor/internal/types"
)

type CreateRoomRequest struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
}

type CreateMessageRequest struct {
	RoomId string `json:"room_id"`
	Body   string `json:"body"`
}

type UpdateMessageRequest struct {
	Body string `json:"body"`
}

type CreateDirectMessageRequest struct {
	UserId int `json:"user_id"`
}

type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

func (s *ParlorApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// currentUser resolves the authenticated user from the request context.
func (s *ParlorApp) currentUser(r *http.Request) (database.User, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return database.User{}, NewUnauthorizedError()
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.User{}, NewUnauthorizedError()
		}
		return database.User{}, NewInternalServerError(err)
	}

	return user, nil
}

// apiError translates domain errors into HTTP responses.
func apiError(err error) *ApiError {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return NewNotFoundError()
	case errors.Is(err, chat.ErrNotMember),
		errors.Is(err, chat.ErrNotAuthor),
		errors.Is(err, chat.ErrNotAllowed),
		errors.Is(err, chat.ErrNotJoinable):
		return NewForbiddenError()
	case errors.Is(err, chat.ErrDefaultRoom):
		return NewForbiddenError()
	case errors.Is(err, chat.ErrEmptyBody):
		return NewValidationError("body", "can't be blank")
	case errors.Is(err, chat.ErrInvalidName):
		return NewValidationError("name", "is invalid")
	case errors.Is(err, chat.ErrSelfConversation):
		return NewBadRequestError()
	case errors.Is(err, chat.ErrDifferentAccounts):
		return NewNotFoundError()
	default:
		return NewInternalServerError(err)
	}
}

func roomResponse(room database.Room) types.Room {
	return types.Room{
		Id:         room.Id,
		ExternalId: room.ExternalId,
		AccountId:  room.AccountId,
		Kind:       room.Kind,
		Visibility: room.Visibility,
		Name:       room.Name,
		CreatedAt:  room.CreatedAt,
		UpdatedAt:  room.UpdatedAt,
	}
}

func messageResponse(msg database.Message, author database.User) types.Message {
	return types.Message{
		Id:        msg.Id,
		RoomId:    msg.RoomId,
		UserId:    msg.UserId,
		UserName:  author.Name,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
	}
}

// roomByExternalId loads a room from the id query parameter, scoped to
// the user's account.
func (s *ParlorApp) roomByExternalId(user database.User, externalId string) (database.Room, *ApiError) {
	if externalId == "" {
		return database.Room{}, NewBadRequestError()
	}

	room, err := s.db.GetRoomByExternalId(externalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Room{}, NewNotFoundError()
		}
		return database.Room{}, NewInternalServerError(err)
	}

	if room.AccountId != user.AccountId {
		return database.Room{}, NewNotFoundError()
	}

	return room, nil
}

func (s *ParlorApp) getRooms(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if externalId := r.URL.Query().Get("id"); externalId != "" {
		room, errResp := s.roomByExternalId(user, externalId)
		if errResp != nil {
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		resp := roomResponse(room)
		members, err := s.db.ListRoomMembers(room.Id)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		for _, m := range members {
			resp.Members = append(resp.Members, types.User{
				Id:        m.Id,
				AccountId: m.AccountId,
				Name:      m.Name,
				Admin:     m.Admin,
			})
		}

		s.writeJson(w, http.StatusOK, resp)
		return
	}

	var rooms []database.Room
	var err error
	if r.URL.Query().Has("joinable") {
		rooms, err = s.rooms.JoinableRooms(user)
	} else {
		rooms, err = s.rooms.VisibleRooms(user)
	}
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	resp := make([]types.Room, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, roomResponse(room))
	}

	s.writeJson(w, http.StatusOK, resp)
}

func (s *ParlorApp) createRoom(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.rooms.CreateChannel(user, req.Name, req.Visibility)
	if err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, roomResponse(room))
}

func (s *ParlorApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.roomByExternalId(user, r.URL.Query().Get("id"))
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.rooms.Delete(user, room); err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

// markRoomRead records that the user has seen the room up to now.
func (s *ParlorApp) markRoomRead(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.roomByExternalId(user, r.URL.Query().Get("id"))
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.unread.MarkRead(user, room); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ParlorApp) createMembership(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.roomByExternalId(user, r.URL.Query().Get("room_id"))
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.rooms.Join(user, room); err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, roomResponse(room))
}

func (s *ParlorApp) deleteMembership(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.roomByExternalId(user, r.URL.Query().Get("room_id"))
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.rooms.Leave(user, room); err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ParlorApp) createMessage(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, errResp := s.roomByExternalId(user, req.RoomId)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.messages.Create(user, room, req.Body)
	if err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, messageResponse(msg, user))
}

func (s *ParlorApp) updateMessage(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messageId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.messages.Update(user, messageId, req.Body)
	if err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messageResponse(msg, user))
}

func (s *ParlorApp) deleteMessage(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messageId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.messages.Delete(user, messageId); err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ParlorApp) getDirectMessages(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	entries, err := s.unread.DirectMessages(user)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, entries)
}

func (s *ParlorApp) createDirectMessage(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateDirectMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	other, err := s.db.GetUserById(req.UserId)
	if err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.dms.GetOrCreate(user, other)
	if err != nil {
		errResp := apiError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, roomResponse(room))
}

func (s *ParlorApp) createPushSubscription(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req PushSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sub, err := s.db.UpsertPushSubscription(database.UpsertPushSubscriptionParams{
		UserId:   user.Id,
		Endpoint: req.Endpoint,
		P256dh:   req.P256dh,
		Auth:     req.Auth,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, map[string]any{"id": sub.Id})
}

func (s *ParlorApp) deletePushSubscription(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeletePushSubscription(user.Id, endpoint); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

// vapidPublicKey exposes the push signing public key for service worker
// registration. Responds 503 when push delivery is not configured.
func (s *ParlorApp) vapidPublicKey(w http.ResponseWriter, _ *http.Request) {
	if !s.push.Configured() {
		errResp := NewServiceUnavailableError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"vapid_public_key": s.push.PublicKey()})
}

func (s *ParlorApp) serveWs(w http.ResponseWriter, r *http.Request) {
	user, errResp := s.currentUser(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(types.User{
		Id:           user.Id,
		AccountId:    user.AccountId,
		Name:         user.Name,
		EmailAddress: user.EmailAddress,
		Admin:        user.Admin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}, conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
