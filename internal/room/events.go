// internal/room/events.go
package room

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/sirupsen/logrus"
)

// EventType names an event sent to room clients.
type EventType string

const (
	EventPlayerJoined    EventType = "player_joined"
	EventGameStart       EventType = "game_start"
	EventPlayerTurn      EventType = "game_player_turn"
	EventReshuffle       EventType = "game_reshuffle_deck"
	EventCardBanked      EventType = "player_card_banked"
	EventPropertyPlayed  EventType = "player_property_played"
	EventActionOpened    EventType = "action_opened"
	EventActionUpdated   EventType = "action_updated"
	EventActionCompleted EventType = "action_completed"
	EventActionCancelled EventType = "action_cancelled"
	EventShieldsUp       EventType = "action_shields_up"
	EventPrivateHand     EventType = "private_hand"
	EventPrivateSync     EventType = "private_sync_state"
	EventGameEnd         EventType = "game_end"
)

// EventUser identifies the player an event is about.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// Event is the envelope broadcast to room clients.
type Event struct {
	Type         EventType              `json:"type"`
	User         *EventUser             `json:"user,omitempty"`
	Card         *models.Card           `json:"card,omitempty"`
	Cards        []*models.Card         `json:"cards,omitempty"`
	Action       *action.ActionContext  `json:"action,omitempty"`
	Result       *action.ActionResult   `json:"result,omitempty"`
	Cancellation *action.Cancellation   `json:"cancellation,omitempty"`
	State        *StateView             `json:"state,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// EncodeEvent marshals ev, falling back to "{}" when it cannot be encoded.
func EncodeEvent(ev Event) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).WithField("type", ev.Type).Warn("failed to marshal room event")
		return []byte("{}")
	}
	return data
}
