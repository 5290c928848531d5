// internal/handlers/server_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/auth"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/jason-s-yu/stardeal/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*RoomServer, *httptest.Server) {
	t.Helper()
	sessions, err := auth.NewSessions(time.Hour)
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	s := NewRoomServer(logger, sessions, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

type guest struct {
	ID    uuid.UUID
	Token string
}

func newGuest(t *testing.T, srv *httptest.Server, name string) guest {
	t.Helper()
	resp, err := http.Post(srv.URL+"/auth/guest", "application/json", strings.NewReader(`{"name":"`+name+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body guestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, name, body.Name)
	found := false
	for _, c := range resp.Cookies() {
		if c.Name == authCookie && c.Value == body.Token {
			found = true
		}
	}
	assert.True(t, found, "guest token is set as a cookie")
	return guest{ID: body.ID, Token: body.Token}
}

func call(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func dial(t *testing.T, srv *httptest.Server, roomID uuid.UUID, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/" + roomID.String() + "/ws"
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{roomSubprotocol},
		HTTPHeader:   http.Header{"Cookie": {authCookie + "=" + token}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func send(t *testing.T, c *websocket.Conn, msg interface{}) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

// await reads until a message of the given type arrives.
func await(t *testing.T, c *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := c.Read(ctx)
		require.NoError(t, err, "waiting for %s", typ)
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg["type"] == typ {
			return msg
		}
	}
}

func TestRoomLifecycleOverHTTP(t *testing.T) {
	s, srv := newTestServer(t)
	host, other := newGuest(t, srv, "host"), newGuest(t, srv, "other")

	resp := call(t, http.MethodPost, srv.URL+"/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, http.MethodPost, srv.URL+"/rooms", host.Token, map[string]interface{}{
		"houseRules": map[string]interface{}{"maxPlayers": 0},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, http.MethodPost, srv.URL+"/rooms", host.Token, map[string]interface{}{
		"houseRules": map[string]interface{}{"maxPlayers": 2, "setsToWin": 2},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var summary room.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, host.ID, summary.HostID)
	assert.Equal(t, 1, summary.PlayerCount)

	resp = call(t, http.MethodPost, srv.URL+"/rooms/"+summary.ID.String()+"/join", other.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, http.MethodPost, srv.URL+"/rooms/"+summary.ID.String()+"/join", newGuest(t, srv, "late").Token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "room is full")
	resp = call(t, http.MethodPost, srv.URL+"/rooms/"+uuid.NewString()+"/join", other.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, http.MethodPost, srv.URL+"/rooms/"+summary.ID.String()+"/start", other.Token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "only the host starts")
	resp = call(t, http.MethodPost, srv.URL+"/rooms/"+summary.ID.String()+"/start", host.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view room.StateView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, models.StateInProgress, view.State)
	assert.Equal(t, 2, view.HouseRules.SetsToWin)

	resp = call(t, http.MethodGet, srv.URL+"/rooms", other.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []room.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, models.StateInProgress, list[0].State)

	rm, ok := s.Rooms.GetRoom(summary.ID)
	require.True(t, ok)
	assert.Equal(t, 2, rm.Summary().PlayerCount)
}

func TestRoomWebsocketBountyFlow(t *testing.T) {
	s, srv := newTestServer(t)
	host, other := newGuest(t, srv, "host"), newGuest(t, srv, "other")

	resp := call(t, http.MethodPost, srv.URL+"/rooms", host.Token, map[string]interface{}{
		"houseRules": map[string]interface{}{"dealCount": 0, "drawPerTurn": 0, "drawOnEmptyHand": 0},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var summary room.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.URL+"/rooms/"+summary.ID.String()+"/join", other.Token, nil).StatusCode)

	resp = call(t, http.MethodGet, srv.URL+"/rooms/"+summary.ID.String()+"/ws", newGuest(t, srv, "stranger").Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.URL+"/rooms/"+summary.ID.String()+"/start", host.Token, nil).StatusCode)

	rm, ok := s.Rooms.GetRoom(summary.ID)
	require.True(t, ok)
	bounty := &models.Card{ID: uuid.New(), Name: "bounty", Kind: models.KindCommand, Value: 3, Command: models.ActionBountyHunter}
	payment := &models.Card{ID: uuid.New(), Name: "credits", Kind: models.KindMoney, Value: 5}
	rm.Mu.Lock()
	rm.Players[0].Hand = append(rm.Players[0].Hand, bounty)
	rm.Players[1].Bank = append(rm.Players[1].Bank, payment)
	rm.Mu.Unlock()

	hostConn := dial(t, srv, summary.ID, host.Token)
	await(t, hostConn, string(room.EventPrivateSync))
	otherConn := dial(t, srv, summary.ID, other.Token)
	await(t, otherConn, string(room.EventPrivateSync))

	send(t, hostConn, map[string]string{"type": "ping"})
	await(t, hostConn, "pong")

	send(t, otherConn, map[string]string{"type": "end_turn"})
	errMsg := await(t, otherConn, "error")
	assert.Equal(t, "protocol_violation", errMsg["code"])

	send(t, hostConn, map[string]string{"type": "shuffle"})
	assert.Equal(t, "unknown_message", await(t, hostConn, "error")["code"])

	send(t, hostConn, map[string]interface{}{"type": "play_card", "cardId": bounty.ID, "mode": "action"})
	opened := await(t, otherConn, string(room.EventActionOpened))
	require.NotNil(t, opened["action"])

	send(t, hostConn, map[string]interface{}{
		"type":   "respond",
		"params": map[string]interface{}{"targetPlayers": []string{other.ID.String()}},
	})
	window := await(t, otherConn, string(room.EventActionOpened))
	assert.Equal(t, string(action.DialogInterruptResponse), window["action"].(map[string]interface{})["dialog"])

	send(t, otherConn, map[string]interface{}{"type": "respond", "params": map[string]interface{}{"bogus": true}})
	assert.Equal(t, "invalid_parameter", await(t, otherConn, "error")["code"])

	send(t, otherConn, map[string]interface{}{"type": "respond", "params": map[string]interface{}{"shieldsUp": false}})
	await(t, otherConn, string(room.EventActionUpdated))
	send(t, otherConn, map[string]interface{}{
		"type":   "respond",
		"params": map[string]interface{}{"paymentCardIds": []string{payment.ID.String()}},
	})

	done := await(t, hostConn, string(room.EventActionCompleted))
	result := done["result"].(map[string]interface{})
	assert.Equal(t, string(models.ActionBountyHunter), result["actionType"])

	state := rm.StateFor(host.ID)
	assert.Nil(t, state.Action)
	for _, pv := range state.Players {
		if pv.ID == host.ID {
			require.Len(t, pv.Bank, 1)
			assert.Equal(t, payment.ID, pv.Bank[0].ID)
		}
	}
}

func TestDecodeParams(t *testing.T) {
	target, card := uuid.New(), uuid.New()
	params, err := DecodeParams(map[string]interface{}{
		"targetPlayers":         []interface{}{target.String()},
		"paymentCardIds":        []interface{}{card.String()},
		"selectedWildcardColor": "cyan",
		"shieldsUp":             true,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{target}, params.TargetPlayers)
	assert.Equal(t, []uuid.UUID{card}, params.PaymentCardIDs)
	assert.Equal(t, models.ColorCyan, params.SelectedWildcardColor)
	require.NotNil(t, params.ShieldsUp)
	assert.True(t, *params.ShieldsUp)
	assert.True(t, params.Has(action.ParamShieldsUp))
	assert.False(t, params.Has(action.ParamTargetPropertyID))

	_, err = DecodeParams(map[string]interface{}{"targetPropertyId": "not-a-uuid"})
	assert.ErrorIs(t, err, action.ErrInvalidParameter)

	single, err := DecodeParams(map[string]interface{}{"targetPlayers": target.String()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{target}, single.TargetPlayers)

	_, err = DecodeParams(map[string]interface{}{"targetPlayers": "nobody"})
	assert.ErrorIs(t, err, action.ErrInvalidParameter)

	empty, err := DecodeParams(nil)
	require.NoError(t, err)
	assert.False(t, empty.Has(action.ParamTargetPlayers))
}

func TestRequestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/rooms?token=q", nil)
	assert.Equal(t, "q", requestToken(req))
	req.Header.Set("Authorization", "Bearer b")
	assert.Equal(t, "b", requestToken(req))
	req.Header.Set("Cookie", "theme=dark; auth_token=c; other=1")
	assert.Equal(t, "c", requestToken(req))
}
