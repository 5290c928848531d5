// internal/room/room.go

// Package room runs a card room: players, deck, turns and the single pending
// command action, applying the action engine's results to card ownership.
package room

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/cache"
	"github.com/jason-s-yu/stardeal/internal/metrics"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotInProgress    = fmt.Errorf("%w: room is not in progress", action.ErrInvalidOperation)
	ErrAlreadyStarted   = fmt.Errorf("%w: room already started", action.ErrInvalidOperation)
	ErrNotHost          = fmt.Errorf("%w: only the host may do that", action.ErrInvalidOperation)
	ErrNotEnoughPlayers = fmt.Errorf("%w: not enough players", action.ErrInvalidOperation)
	ErrNotYourTurn      = fmt.Errorf("%w: not your turn", action.ErrInvalidOperation)
	ErrActionPending    = fmt.Errorf("%w: an action is pending", action.ErrInvalidOperation)
	ErrPlayLimit        = fmt.Errorf("%w: no plays left this turn", action.ErrInvalidOperation)
	ErrCardNotInHand    = fmt.Errorf("%w: card is not in hand", action.ErrInvalidOperation)
	ErrInvalidPlay      = fmt.Errorf("%w: card cannot be played that way", action.ErrInvalidOperation)
	ErrUnknownPlayer    = fmt.Errorf("%w: player is not in this room", action.ErrInvalidOperation)
)

// PlayMode says how a card from hand is played.
type PlayMode string

const (
	PlayBank     PlayMode = "bank"
	PlayProperty PlayMode = "property"
	PlayAction   PlayMode = "action"
)

// Publisher receives the room's action log.
type Publisher interface {
	Publish(ctx context.Context, record cache.ActionRecord) error
}

// SnapshotWriter keeps the durable record of the pending action.
type SnapshotWriter interface {
	Save(ctx context.Context, roomID uuid.UUID, pending action.PendingAction) error
	Delete(ctx context.Context, roomID uuid.UUID) error
}

// Room holds the entire state of one room in memory. Exported methods take Mu;
// unexported ones assume it is held.
type Room struct {
	ID         uuid.UUID
	HostID     uuid.UUID
	HouseRules HouseRules
	State      models.GameState
	CreatedAt  time.Time

	Players     []*models.Player
	Deck        []*models.Card // preset before Start to fix the draw order
	DiscardPile []*models.Card

	CurrentPlayerIndex int
	TurnID             int
	PlaysThisTurn      int
	Winner             uuid.UUID

	Mu sync.Mutex

	// BroadcastFn sends an event to every player. If nil, nothing is sent.
	BroadcastFn func(ev Event)
	// BroadcastToPlayerFn sends an event to one player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)
	// OnGameEnd runs with the lock held once a winner is known.
	OnGameEnd func(roomID, winner uuid.UUID)

	Log       *logrus.Entry
	ActionLog Publisher
	Snapshots SnapshotWriter
	Metrics   *metrics.Recorder

	store         *action.PendingActionStore
	orch          *action.Orchestrator
	inPlay        *models.Card // command card of the pending action
	actionStart   time.Time
	responseTimer *time.Timer
	actionIndex   int
	snapshotQ     chan *action.PendingAction
	closed        bool
}

// NewRoom creates a waiting room hosted by hostID.
func NewRoom(hostID uuid.UUID, rules HouseRules) *Room {
	id := uuid.New()
	return &Room{
		ID:         id,
		HostID:     hostID,
		HouseRules: rules,
		State:      models.StateWaitingRoom,
		CreatedAt:  time.Now(),
		Log:        logrus.WithField("room", id),
		store:      action.NewPendingActionStore(),
	}
}

// AddPlayer seats p in a waiting room.
func (r *Room) AddPlayer(p *models.Player) models.JoinResult {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.getPlayerByID(p.ID) != nil {
		return models.JoinAlreadyInGame
	}
	if r.State != models.StateWaitingRoom {
		return models.JoinFailed
	}
	if len(r.Players) >= r.HouseRules.MaxPlayers {
		return models.JoinFull
	}
	r.Players = append(r.Players, p)
	r.logAction(p.ID, "player_joined", map[string]interface{}{"name": p.Name})
	r.fireEvent(Event{Type: EventPlayerJoined, User: &EventUser{ID: p.ID}, Payload: map[string]interface{}{"name": p.Name}})
	return models.JoinJoined
}

// HasPlayer reports whether playerID is seated here.
func (r *Room) HasPlayer(playerID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.getPlayerByID(playerID) != nil
}

// SetConnection marks a player connected with conn, or disconnected when conn is
// nil, and resyncs everyone.
func (r *Room) SetConnection(playerID uuid.UUID, conn *websocket.Conn) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p := r.getPlayerByID(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.Conn = conn
	p.Connected = conn != nil
	if p.Connected {
		r.logAction(playerID, "player_reconnect", nil)
	} else {
		r.logAction(playerID, "player_disconnect", nil)
	}
	r.broadcastSyncStateToAll()
	return nil
}

// Start deals the cards and opens the first turn.
func (r *Room) Start(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != models.StateWaitingRoom {
		return ErrAlreadyStarted
	}
	if playerID != r.HostID {
		return ErrNotHost
	}
	if len(r.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	if err := r.HouseRules.Validate(); err != nil {
		return fmt.Errorf("%w: %v", action.ErrInvalidOperation, err)
	}

	r.orch = action.NewOrchestrator(r.store, directory{r},
		action.WithRules(r.HouseRules.ActionRules()),
		action.WithLogger(r.Log),
	)
	if len(r.Deck) == 0 {
		r.Deck = models.NewStandardDeck()
		models.Shuffle(r.Deck)
	}
	for _, p := range r.Players {
		r.draw(p, r.HouseRules.DealCount)
	}

	r.State = models.StateInProgress
	r.CurrentPlayerIndex = 0
	r.Log.WithField("players", len(r.Players)).Info("room started")
	r.logAction(uuid.Nil, "game_start", map[string]interface{}{"players": len(r.Players)})
	r.fireEvent(Event{Type: EventGameStart})
	r.beginTurn()
	return nil
}

// PlayCard plays a card from the current player's hand. Command plays return
// the opened (or immediately completed) action.
func (r *Room) PlayCard(playerID, cardID uuid.UUID, mode PlayMode, color models.PropertyColor) (*action.DialogProcessingResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, err := r.checkPlay(playerID)
	if err != nil {
		r.reject(err)
		return nil, err
	}
	card := p.FindInHand(cardID)
	if card == nil {
		r.reject(ErrCardNotInHand)
		return nil, ErrCardNotInHand
	}

	switch mode {
	case PlayBank:
		if card.IsProperty() {
			err := fmt.Errorf("%w: properties cannot be banked", ErrInvalidPlay)
			r.reject(err)
			return nil, err
		}
		p.RemoveFromHand(card.ID)
		p.Bank = append(p.Bank, card)
		r.PlaysThisTurn++
		r.logAction(playerID, string(EventCardBanked), map[string]interface{}{"cardId": card.ID, "value": card.Value})
		r.fireEvent(Event{Type: EventCardBanked, User: &EventUser{ID: playerID}, Card: card})
		r.sendHand(p)
		return nil, nil

	case PlayProperty:
		if !card.IsProperty() {
			err := fmt.Errorf("%w: not a property", ErrInvalidPlay)
			r.reject(err)
			return nil, err
		}
		if color == "" {
			color = card.Color
		}
		if !card.CanBe(color) {
			err := fmt.Errorf("%w: card cannot be %q", ErrInvalidPlay, color)
			r.reject(err)
			return nil, err
		}
		p.RemoveFromHand(card.ID)
		set := p.AddProperty(card, color)
		r.PlaysThisTurn++
		r.logAction(playerID, string(EventPropertyPlayed), map[string]interface{}{"cardId": card.ID, "color": color, "setId": set.ID})
		r.fireEvent(Event{Type: EventPropertyPlayed, User: &EventUser{ID: playerID}, Card: card, Payload: map[string]interface{}{"setId": set.ID}})
		r.sendHand(p)
		r.checkWinner()
		return nil, nil

	case PlayAction:
		if card.Kind != models.KindCommand {
			err := fmt.Errorf("%w: not a command card", ErrInvalidPlay)
			r.reject(err)
			return nil, err
		}
		p.RemoveFromHand(card.ID)
		r.inPlay = card
		r.actionStart = time.Now()
		res, err := r.orch.Start(playerID, card)
		if err != nil {
			p.Hand = append(p.Hand, card)
			r.inPlay = nil
			r.reject(err)
			return nil, err
		}
		r.PlaysThisTurn++
		r.Metrics.Started(string(card.Command))
		r.logAction(playerID, "action_started", map[string]interface{}{
			"actionId":   res.Context.ID(),
			"actionType": card.Command,
			"cardId":     card.ID,
		})
		r.sendHand(p)
		r.handleOutcome(res)
		return res, nil
	}
	err = fmt.Errorf("%w: unknown play mode %q", ErrInvalidPlay, mode)
	r.reject(err)
	return nil, err
}

// Respond routes a player's answer to the pending action.
func (r *Room) Respond(resp action.Response) (*action.DialogProcessingResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != models.StateInProgress {
		return nil, ErrNotInProgress
	}
	res, err := r.orch.Process(resp)
	if err != nil {
		r.reject(err)
		return nil, err
	}
	r.handleOutcome(res)
	return res, nil
}

// CancelAction withdraws the pending action for its initiator. The command card
// goes back to hand and the play is refunded.
func (r *Room) CancelAction(playerID uuid.UUID) (*action.DialogProcessingResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State != models.StateInProgress {
		return nil, ErrNotInProgress
	}
	res, err := r.orch.Cancel(playerID)
	if err != nil {
		r.reject(err)
		return nil, err
	}
	r.handleOutcome(res)
	return res, nil
}

// ForceRespond answers the current dialog for every player it waits on, using
// the engine's default responses. Dialogs without a default withdraw the action.
func (r *Room) ForceRespond() ([]*action.DialogProcessingResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.forceRespond()
}

func (r *Room) forceRespond() ([]*action.DialogProcessingResult, error) {
	if r.State != models.StateInProgress {
		return nil, ErrNotInProgress
	}
	active, ok := r.store.Active()
	if !ok {
		return nil, action.ErrNoActiveAction
	}
	waiting := slices.Clone(active.Current().AddressedPlayerIDs)

	var out []*action.DialogProcessingResult
	for _, playerID := range waiting {
		var (
			res *action.DialogProcessingResult
			err error
		)
		if resp, ok := r.orch.DefaultResponse(playerID); ok {
			res, err = r.orch.Process(resp)
		} else {
			res, err = r.orch.Cancel(active.InitiatorID)
		}
		if err != nil {
			return out, fmt.Errorf("force response for %s: %w", playerID, err)
		}
		r.logAction(playerID, "player_timeout", map[string]interface{}{"actionId": active.ID()})
		r.handleOutcome(res)
		out = append(out, res)
		if res.ClearActive {
			break
		}
	}
	return out, nil
}

// EndTurn passes the turn to the next player. Once the room has ended it reports
// the winner instead.
func (r *Room) EndTurn(playerID uuid.UUID) (action.TurnResult, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.State == models.StateEnded {
		return r.turnResult(), nil
	}
	if r.State != models.StateInProgress {
		return action.TurnResult{}, ErrNotInProgress
	}
	if r.currentPlayer().ID != playerID {
		return action.TurnResult{}, ErrNotYourTurn
	}
	if _, busy := r.store.Active(); busy {
		return action.TurnResult{}, ErrActionPending
	}

	r.logAction(playerID, "turn_end", map[string]interface{}{"turn": r.TurnID, "plays": r.PlaysThisTurn})
	r.CurrentPlayerIndex = (r.CurrentPlayerIndex + 1) % len(r.Players)
	r.beginTurn()
	return r.turnResult(), nil
}

// Status is the room's TurnResult right now: the pending action and, once the
// room ended, the winner.
func (r *Room) Status() action.TurnResult {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.turnResult()
}

func (r *Room) turnResult() action.TurnResult {
	var out action.TurnResult
	if ctx, ok := r.store.Active(); ok {
		out.Context = ctx
	}
	if r.State == models.StateEnded {
		winner := r.Winner
		out.Winner = &winner
	}
	return out
}

// Close stops the response timer and the snapshot writer.
func (r *Room) Close() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.closed = true
	r.stopResponseTimer()
	if r.snapshotQ != nil {
		close(r.snapshotQ)
		r.snapshotQ = nil
	}
}

// checkPlay validates that playerID may play a card now.
func (r *Room) checkPlay(playerID uuid.UUID) (*models.Player, error) {
	if r.State != models.StateInProgress {
		return nil, ErrNotInProgress
	}
	p := r.getPlayerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if r.currentPlayer().ID != playerID {
		return nil, ErrNotYourTurn
	}
	if _, busy := r.store.Active(); busy {
		return nil, ErrActionPending
	}
	if r.PlaysThisTurn >= r.HouseRules.PlaysPerTurn {
		return nil, ErrPlayLimit
	}
	return p, nil
}

// beginTurn draws for the current player and announces the turn.
func (r *Room) beginTurn() {
	p := r.currentPlayer()
	n := r.HouseRules.DrawPerTurn
	if len(p.Hand) == 0 {
		n = r.HouseRules.DrawOnEmptyHand
	}
	drawn := r.draw(p, n)
	r.PlaysThisTurn = 0
	r.TurnID++

	r.Log.WithFields(logrus.Fields{"turn": r.TurnID, "player": p.ID}).Debug("turn started")
	r.logAction(p.ID, string(EventPlayerTurn), map[string]interface{}{"turn": r.TurnID, "drawn": len(drawn)})
	r.fireEvent(Event{Type: EventPlayerTurn, User: &EventUser{ID: p.ID}, Payload: map[string]interface{}{"turn": r.TurnID}})
	r.broadcastSyncStateToAll()
}

// draw moves up to n cards from the deck to p's hand, reshuffling the discard
// pile into the deck when it runs out.
func (r *Room) draw(p *models.Player, n int) []*models.Card {
	var drawn []*models.Card
	for i := 0; i < n; i++ {
		if len(r.Deck) == 0 {
			if len(r.DiscardPile) == 0 {
				r.Log.Warn("deck and discard pile are empty")
				break
			}
			r.Deck, r.DiscardPile = r.DiscardPile, nil
			models.Shuffle(r.Deck)
			r.fireEvent(Event{Type: EventReshuffle, Payload: map[string]interface{}{"deckSize": len(r.Deck)}})
		}
		card := r.Deck[0]
		r.Deck = r.Deck[1:]
		p.Hand = append(p.Hand, card)
		drawn = append(drawn, card)
	}
	return drawn
}

func (r *Room) currentPlayer() *models.Player {
	return r.Players[r.CurrentPlayerIndex]
}

func (r *Room) getPlayerByID(playerID uuid.UUID) *models.Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// checkWinner ends the room when a player holds enough complete sets.
func (r *Room) checkWinner() {
	if r.State != models.StateInProgress {
		return
	}
	for _, p := range r.Players {
		if len(p.CompleteColors()) >= r.HouseRules.SetsToWin {
			r.endGame(p.ID)
			return
		}
	}
}

func (r *Room) endGame(winner uuid.UUID) {
	r.State = models.StateEnded
	r.Winner = winner
	r.stopResponseTimer()
	r.Log.WithField("winner", winner).Info("room ended")
	r.logAction(winner, "action_end_game", map[string]interface{}{"winner": winner})
	r.fireEvent(Event{Type: EventGameEnd, User: &EventUser{ID: winner}, Payload: map[string]interface{}{"winner": winner}})
	if r.OnGameEnd != nil {
		r.OnGameEnd(r.ID, winner)
	}
}

// reject records a refused player message.
func (r *Room) reject(err error) {
	kind := "internal"
	switch {
	case errors.Is(err, action.ErrMissingParameter), errors.Is(err, action.ErrInvalidParameter):
		kind = "parameter"
	case errors.Is(err, action.ErrInvalidOperation):
		kind = "violation"
	}
	r.Metrics.Rejected(kind)
	r.Log.WithError(err).WithField("kind", kind).Debug("message rejected")
}

// directory exposes the room's players to the action engine.
type directory struct {
	r *Room
}

func (d directory) GetAllPlayers() []*models.Player {
	return d.r.Players
}

func (d directory) GetPlayerByUserID(id uuid.UUID) (*models.Player, error) {
	if p := d.r.getPlayerByID(id); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", action.ErrPlayerNotFound, id)
}

func (d directory) CountPlayers() int {
	return len(d.r.Players)
}
