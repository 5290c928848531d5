// internal/room/sync_state.go
package room

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// PlayerView is one player as seen by a viewer. Hands are only revealed to
// their owner.
type PlayerView struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Connected     bool                  `json:"connected"`
	IsCurrentTurn bool                  `json:"isCurrentTurn"`
	HandSize      int                   `json:"handSize"`
	Hand          []*models.Card        `json:"hand,omitempty"`
	Bank          []*models.Card        `json:"bank"`
	Properties    []*models.PropertySet `json:"properties"`
}

// StateView is the room as seen by one player.
type StateView struct {
	RoomID          uuid.UUID             `json:"roomId"`
	HostID          uuid.UUID             `json:"hostId"`
	State           models.GameState      `json:"state"`
	HouseRules      HouseRules            `json:"houseRules"`
	TurnID          int                   `json:"turnId"`
	CurrentPlayerID uuid.UUID             `json:"currentPlayerId,omitempty"`
	PlaysThisTurn   int                   `json:"playsThisTurn"`
	DeckSize        int                   `json:"deckSize"`
	DiscardSize     int                   `json:"discardSize"`
	Players         []PlayerView          `json:"players"`
	Action          *action.ActionContext `json:"action,omitempty"`
	Winner          *uuid.UUID            `json:"winner,omitempty"`
}

// StateFor builds the view of the room for viewer.
func (r *Room) StateFor(viewer uuid.UUID) StateView {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.stateFor(viewer)
}

func (r *Room) stateFor(viewer uuid.UUID) StateView {
	view := StateView{
		RoomID:        r.ID,
		HostID:        r.HostID,
		State:         r.State,
		HouseRules:    r.HouseRules,
		TurnID:        r.TurnID,
		PlaysThisTurn: r.PlaysThisTurn,
		DeckSize:      len(r.Deck),
		DiscardSize:   len(r.DiscardPile),
	}
	if r.State != models.StateWaitingRoom && len(r.Players) > 0 {
		view.CurrentPlayerID = r.currentPlayer().ID
	}
	if ctx, ok := r.store.Active(); ok {
		view.Action = ctx
	}
	if r.State == models.StateEnded {
		winner := r.Winner
		view.Winner = &winner
	}
	for i, p := range r.Players {
		pv := PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			Connected:     p.Connected,
			IsCurrentTurn: r.State == models.StateInProgress && i == r.CurrentPlayerIndex,
			HandSize:      len(p.Hand),
			Bank:          p.Bank,
			Properties:    p.Properties,
		}
		if p.ID == viewer {
			pv.Hand = p.Hand
		}
		view.Players = append(view.Players, pv)
	}
	return view
}

// Summary is the lobby listing entry of a room.
type Summary struct {
	ID          uuid.UUID        `json:"id"`
	HostID      uuid.UUID        `json:"hostId"`
	State       models.GameState `json:"state"`
	PlayerCount int              `json:"playerCount"`
	MaxPlayers  int              `json:"maxPlayers"`
}

// Summary describes the room for listings.
func (r *Room) Summary() Summary {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return Summary{
		ID:          r.ID,
		HostID:      r.HostID,
		State:       r.State,
		PlayerCount: len(r.Players),
		MaxPlayers:  r.HouseRules.MaxPlayers,
	}
}

func (r *Room) fireEvent(ev Event) {
	if r.BroadcastFn != nil {
		r.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends ev to one connected player.
func (r *Room) fireEventToPlayer(playerID uuid.UUID, ev Event) {
	if r.BroadcastToPlayerFn == nil {
		return
	}
	if p := r.getPlayerByID(playerID); p != nil && p.Connected {
		r.BroadcastToPlayerFn(playerID, ev)
	}
}

// sendHand privately resends p's hand.
func (r *Room) sendHand(p *models.Player) {
	r.fireEventToPlayer(p.ID, Event{Type: EventPrivateHand, User: &EventUser{ID: p.ID}, Cards: p.Hand})
}

func (r *Room) sendSyncState(playerID uuid.UUID) {
	state := r.stateFor(playerID)
	r.fireEventToPlayer(playerID, Event{Type: EventPrivateSync, State: &state})
}

func (r *Room) broadcastSyncStateToAll() {
	for _, p := range r.Players {
		if p.Connected {
			r.sendSyncState(p.ID)
		}
	}
}
