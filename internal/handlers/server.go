// internal/handlers/server.go

// Package handlers serves the HTTP room endpoints and the room websocket.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/auth"
	"github.com/jason-s-yu/stardeal/internal/metrics"
	"github.com/jason-s-yu/stardeal/internal/middleware"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/jason-s-yu/stardeal/internal/room"
	"github.com/sirupsen/logrus"
)

// RoomServer holds the room registry and the websocket clients of every room.
type RoomServer struct {
	Rooms    *room.Store
	Sessions *auth.Sessions
	Logger   *logrus.Logger

	// Rules are the defaults new rooms start from.
	Rules     room.HouseRules
	ActionLog room.Publisher
	Snapshots room.SnapshotWriter
	Metrics   *metrics.Recorder

	// EndedRoomTTL is how long a finished room stays reachable.
	EndedRoomTTL   time.Duration
	OriginPatterns []string

	mu      sync.Mutex
	clients map[uuid.UUID]map[uuid.UUID]*client // room id -> player id
}

// NewRoomServer returns a server with an empty registry and default rules.
func NewRoomServer(logger *logrus.Logger, sessions *auth.Sessions, rec *metrics.Recorder) *RoomServer {
	return &RoomServer{
		Rooms:          room.NewStore(rec),
		Sessions:       sessions,
		Logger:         logger,
		Rules:          room.DefaultHouseRules(),
		Metrics:        rec,
		EndedRoomTTL:   5 * time.Minute,
		OriginPatterns: []string{"*"},
		clients:        make(map[uuid.UUID]map[uuid.UUID]*client),
	}
}

// Handler routes every endpoint through the request logger.
func (s *RoomServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/guest", s.GuestHandler)
	mux.HandleFunc("POST /rooms", s.CreateRoomHandler)
	mux.HandleFunc("GET /rooms", s.ListRoomsHandler)
	mux.HandleFunc("GET /rooms/{id}", s.GetRoomHandler)
	mux.HandleFunc("POST /rooms/{id}/join", s.JoinRoomHandler)
	mux.HandleFunc("POST /rooms/{id}/start", s.StartRoomHandler)
	mux.HandleFunc("GET /rooms/{id}/ws", s.RoomWSHandler)
	return middleware.LogMiddleware(s.Logger)(mux)
}

type guestRequest struct {
	Name string `json:"name"`
}

type guestResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Token string    `json:"token"`
}

// GuestHandler issues a token for a new guest identity and sets the auth cookie.
func (s *RoomServer) GuestHandler(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad guest request payload", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Guest"
	}

	id := auth.Identity{UserID: uuid.New(), Name: name}
	token, err := s.Sessions.CreateJWT(id)
	if err != nil {
		s.Logger.WithError(err).Error("failed to sign guest token")
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	writeJSON(w, http.StatusCreated, guestResponse{ID: id.UserID, Name: id.Name, Token: token})
}

type createRoomRequest struct {
	HouseRules map[string]interface{} `json:"houseRules"`
}

// CreateRoomHandler creates a room hosted and joined by the caller. Rules in the
// body override the server defaults.
func (s *RoomServer) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad room request payload", http.StatusBadRequest)
		return
	}
	rules, err := room.ParseRules(req.HouseRules, s.Rules)
	if err == nil {
		err = rules.Validate()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rm := room.NewRoom(id.UserID, rules)
	s.wireRoom(rm)
	s.Rooms.AddRoom(rm)
	if res := s.Rooms.Join(rm.ID, &models.Player{ID: id.UserID, Name: id.Name}); res != models.JoinJoined {
		s.Rooms.DeleteRoom(rm.ID)
		writeJSON(w, http.StatusConflict, map[string]interface{}{"result": res})
		return
	}
	s.Logger.WithFields(logrus.Fields{"room": rm.ID, "host": id.UserID}).Info("room created")
	writeJSON(w, http.StatusCreated, rm.Summary())
}

// ListRoomsHandler returns every room, oldest first.
func (s *RoomServer) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Rooms.List())
}

// GetRoomHandler returns the room as the caller sees it.
func (s *RoomServer) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	rm, ok := s.lookupRoom(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rm.StateFor(id.UserID))
}

var joinStatus = map[models.JoinResult]int{
	models.JoinJoined:        http.StatusOK,
	models.JoinFailed:        http.StatusConflict,
	models.JoinRoomNotFound:  http.StatusNotFound,
	models.JoinFull:          http.StatusConflict,
	models.JoinAlreadyInGame: http.StatusConflict,
}

// JoinRoomHandler seats the caller in the room.
func (s *RoomServer) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid room id format", http.StatusBadRequest)
		return
	}
	res := s.Rooms.Join(roomID, &models.Player{ID: id.UserID, Name: id.Name})
	writeJSON(w, joinStatus[res], map[string]interface{}{"result": res})
}

// StartRoomHandler deals the cards. Only the host may start.
func (s *RoomServer) StartRoomHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	rm, ok := s.lookupRoom(w, r)
	if !ok {
		return
	}
	if err := rm.Start(id.UserID); err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, rm.StateFor(id.UserID))
}

func (s *RoomServer) lookupRoom(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	roomID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid room id format", http.StatusBadRequest)
		return nil, false
	}
	rm, ok := s.Rooms.GetRoom(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return nil, false
	}
	return rm, true
}

// wireRoom connects a new room to the clients, the history sinks and cleanup.
func (s *RoomServer) wireRoom(rm *room.Room) {
	rm.Log = s.Logger.WithField("room", rm.ID)
	rm.ActionLog = s.ActionLog
	rm.Snapshots = s.Snapshots
	rm.Metrics = s.Metrics
	rm.BroadcastFn = s.broadcastFunc(rm.ID)
	rm.BroadcastToPlayerFn = s.broadcastToPlayerFunc(rm.ID)
	rm.OnGameEnd = func(roomID, winner uuid.UUID) {
		time.AfterFunc(s.EndedRoomTTL, func() {
			s.Rooms.DeleteRoom(roomID)
			s.dropRoomClients(roomID)
		})
	}
}
