package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/parlorchat/parlor/internal/chat"
	"github.com/parlorchat/parlor/internal/config"
	"github.com/parlorchat/parlor/internal/database"
	"github.com/parlorchat/parlor/internal/push"
	"github.com/parlorchat/parlor/internal/server"
)

type ParlorApp struct {
	log            *log.Logger
	db             database.ParlorRepository
	mux            *http.Server
	cs             *server.ChatServer
	signingKey     []byte
	allowedOrigins []string

	rooms    *chat.RoomService
	messages *chat.MessageService
	dms      *chat.DMResolver
	unread   *chat.UnreadTracker
	push     *push.Dispatcher

	generateInviteToken func() string
}

func NewParlorApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.ParlorRepository,
	rooms *chat.RoomService, messages *chat.MessageService, dms *chat.DMResolver,
	unread *chat.UnreadTracker, pd *push.Dispatcher, cfg *config.Config) *ParlorApp {
	s := &ParlorApp{
		log:                 logger,
		db:                  db,
		cs:                  cs,
		signingKey:          cfg.SigningKey,
		allowedOrigins:      cfg.AllowedOrigins,
		rooms:               rooms,
		messages:            messages,
		dms:                 dms,
		unread:              unread,
		push:                pd,
		generateInviteToken: generateInviteToken,
	}

	mux.HandleFunc("POST /api/setup", s.setup)
	mux.HandleFunc("POST /api/join/{token}", s.join)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("GET /api/rooms", s.authMiddleware(s.getRooms))
	mux.Handle("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.Handle("DELETE /api/rooms", s.authMiddleware(s.deleteRoom))
	mux.Handle("POST /api/rooms/read", s.authMiddleware(s.markRoomRead))
	mux.Handle("POST /api/memberships", s.authMiddleware(s.createMembership))
	mux.Handle("DELETE /api/memberships", s.authMiddleware(s.deleteMembership))
	mux.Handle("POST /api/messages", s.authMiddleware(s.createMessage))
	mux.Handle("PUT /api/messages", s.authMiddleware(s.updateMessage))
	mux.Handle("DELETE /api/messages", s.authMiddleware(s.deleteMessage))
	mux.Handle("GET /api/direct_messages", s.authMiddleware(s.getDirectMessages))
	mux.Handle("POST /api/direct_messages", s.authMiddleware(s.createDirectMessage))
	mux.Handle("POST /api/push_subscriptions", s.authMiddleware(s.createPushSubscription))
	mux.Handle("DELETE /api/push_subscriptions", s.authMiddleware(s.deletePushSubscription))
	mux.Handle("GET /api/push_subscriptions/vapid_public_key", s.authMiddleware(s.vapidPublicKey))
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ParlorApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ParlorApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
