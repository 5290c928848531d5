// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/middleware"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/jason-s-yu/stardeal/internal/room"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

const (
	roomSubprotocol = "stardeal"
	sendQueueSize   = 64
	writeTimeout    = 5 * time.Second
)

// RoomMessage is an incoming websocket message.
type RoomMessage struct {
	Type string `json:"type"`

	// play_card
	CardID string              `json:"cardId,omitempty"`
	Mode   room.PlayMode       `json:"mode,omitempty"`
	Color  models.PropertyColor `json:"color,omitempty"`

	// respond; StepIndex and Dialog are optional guards against stale answers
	StepIndex int                    `json:"stepIndex,omitempty"`
	Dialog    action.DialogKind      `json:"dialog,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// client owns the write side of one player's connection. Everything sent to
// the player goes through send so frames keep their order.
type client struct {
	playerID uuid.UUID
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
}

func newClient(playerID uuid.UUID, conn *websocket.Conn) *client {
	return &client{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// enqueue never blocks. A full queue closes the connection.
func (c *client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		go c.conn.Close(SlowConsumerError, "send queue overflow")
	}
}

func (c *client) writeLoop(log *logrus.Entry) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.WithError(err).Warn("failed to write websocket message")
				return
			}
		}
	}
}

func (c *client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *client) sendError(code, message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": message,
	})
}

// RoomWSHandler upgrades a seated player's connection and runs its read loop.
func (s *RoomServer) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	rm, ok := s.lookupRoom(w, r)
	if !ok {
		return
	}
	if !rm.HasPlayer(id.UserID) {
		http.Error(w, "you are not seated in this room", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{roomSubprotocol},
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		s.Logger.Warnf("WebSocket accept error for room %s: %v", rm.ID, err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != roomSubprotocol {
		c.Close(BadSubprotocolError, "Client must use the 'stardeal' subprotocol.")
		return
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)
	log := s.Logger.WithFields(logrus.Fields{"room": rm.ID, "player": id.UserID})

	cl := newClient(id.UserID, c)
	s.register(rm.ID, cl)
	go cl.writeLoop(log)

	if err := rm.SetConnection(id.UserID, c); err != nil {
		s.unregister(rm.ID, cl)
		c.Close(InvalidUserIDError, "You are not seated in this room.")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	err = s.readRoomMessages(ctx, c, cl, rm, log)

	s.unregister(rm.ID, cl)
	if _, live := s.Rooms.GetRoom(rm.ID); live {
		_ = rm.SetConnection(id.UserID, nil)
	}
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
}

// readRoomMessages handles messages until the connection closes.
func (s *RoomServer) readRoomMessages(ctx context.Context, c *websocket.Conn, cl *client, rm *room.Room, log *logrus.Entry) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			log.Warnf("Received non-text message type %d. Ignoring.", msgType)
			continue
		}

		var msg RoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cl.sendError("bad_message", "Invalid JSON format.")
			continue
		}
		log.Debugf("Received message '%s'.", msg.Type)

		if err := s.dispatch(cl, rm, msg); err != nil {
			log.WithError(err).Debug("message refused")
			cl.sendError(errorCode(err), err.Error())
		}
	}
}

// dispatch routes one message to the room.
func (s *RoomServer) dispatch(cl *client, rm *room.Room, msg RoomMessage) error {
	switch msg.Type {
	case "play_card":
		cardID, err := uuid.Parse(msg.CardID)
		if err != nil {
			return fmt.Errorf("%w: cardId: %v", action.ErrInvalidParameter, err)
		}
		mode := msg.Mode
		if mode == "" {
			mode = room.PlayAction
		}
		_, err = rm.PlayCard(cl.playerID, cardID, mode, msg.Color)
		return err

	case "respond":
		params, err := DecodeParams(msg.Params)
		if err != nil {
			return err
		}
		_, err = rm.Respond(action.Response{
			PlayerID:  cl.playerID,
			StepIndex: msg.StepIndex,
			Dialog:    msg.Dialog,
			Params:    params,
		})
		return err

	case "cancel_action":
		_, err := rm.CancelAction(cl.playerID)
		return err

	case "end_turn":
		_, err := rm.EndTurn(cl.playerID)
		return err

	case "sync_state":
		state := rm.StateFor(cl.playerID)
		cl.sendJSON(room.Event{Type: room.EventPrivateSync, State: &state})
		return nil

	case "ping":
		cl.sendJSON(map[string]string{"type": "pong"})
		return nil
	}
	cl.sendError("unknown_message", fmt.Sprintf("Unknown message type: %s", msg.Type))
	return nil
}

var (
	uuidType      = reflect.TypeOf(uuid.UUID{})
	uuidSliceType = reflect.TypeOf([]uuid.UUID{})
)

// stringToUUIDHook decodes uuid strings into uuid.UUID fields. A single id
// aimed at an id list becomes a one-element list.
func stringToUUIDHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	switch t {
	case uuidType:
		return uuid.Parse(data.(string))
	case uuidSliceType:
		id, err := uuid.Parse(data.(string))
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{id}, nil
	}
	return data, nil
}

// DecodeParams turns the loose params object of a respond message into typed
// parameters. Unknown keys are refused.
func DecodeParams(raw map[string]interface{}) (action.Params, error) {
	var params action.Params
	if len(raw) == 0 {
		return params, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  stringToUUIDHook,
		ErrorUnused: true,
		Result:      &params,
		TagName:     "mapstructure",
	})
	if err != nil {
		return params, err
	}
	if err := dec.Decode(raw); err != nil {
		return action.Params{}, fmt.Errorf("%w: params: %v", action.ErrInvalidParameter, err)
	}
	return params, nil
}

func (s *RoomServer) register(roomID uuid.UUID, cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	players, ok := s.clients[roomID]
	if !ok {
		players = make(map[uuid.UUID]*client)
		s.clients[roomID] = players
	}
	if old, ok := players[cl.playerID]; ok {
		close(old.done)
		go old.conn.Close(websocket.StatusPolicyViolation, "Connected from another session.")
	}
	players[cl.playerID] = cl
}

func (s *RoomServer) unregister(roomID uuid.UUID, cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	players := s.clients[roomID]
	if players[cl.playerID] != cl {
		return
	}
	close(cl.done)
	delete(players, cl.playerID)
	if len(players) == 0 {
		delete(s.clients, roomID)
	}
}

// dropRoomClients disconnects everyone from a removed room.
func (s *RoomServer) dropRoomClients(roomID uuid.UUID) {
	s.mu.Lock()
	players := s.clients[roomID]
	delete(s.clients, roomID)
	s.mu.Unlock()

	for _, cl := range players {
		close(cl.done)
		go cl.conn.Close(InvalidRoomIDError, "Room has been removed.")
	}
}

// broadcastFunc returns a room.BroadcastFn. It runs with the room lock held, so
// it only encodes and queues.
func (s *RoomServer) broadcastFunc(roomID uuid.UUID) func(ev room.Event) {
	return func(ev room.Event) {
		data := room.EncodeEvent(ev)
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, cl := range s.clients[roomID] {
			cl.enqueue(data)
		}
	}
}

// broadcastToPlayerFunc returns a room.BroadcastToPlayerFn.
func (s *RoomServer) broadcastToPlayerFunc(roomID uuid.UUID) func(playerID uuid.UUID, ev room.Event) {
	return func(playerID uuid.UUID, ev room.Event) {
		data := room.EncodeEvent(ev)
		s.mu.Lock()
		defer s.mu.Unlock()
		if cl, ok := s.clients[roomID][playerID]; ok {
			cl.enqueue(data)
		}
	}
}
