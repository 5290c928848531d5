// internal/action/result.go
package action

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// Payment is one payer's settlement of a pay-value dialog.
type Payment struct {
	From    uuid.UUID   `json:"from"`
	To      uuid.UUID   `json:"to"`
	CardIDs []uuid.UUID `json:"cardIds"`
	Value   int         `json:"value"`
}

func (p Payment) clone() Payment {
	p.CardIDs = slices.Clone(p.CardIDs)
	return p
}

// ActionResult describes a committed effect. The room applies it to card
// ownership; the engine never moves cards itself.
type ActionResult struct {
	ActionID         uuid.UUID             `json:"actionId"`
	InitiatorID      uuid.UUID             `json:"initiatorId"`
	AffectedPlayerID uuid.UUID             `json:"affectedPlayerId,omitempty"`
	ActionType       models.ActionType     `json:"actionType"`
	CardID           uuid.UUID             `json:"cardId"`
	TakenSetColor    *models.PropertyColor `json:"takenSetColor,omitempty"`
	TakenSetID       uuid.UUID             `json:"takenSetId,omitempty"`
	TakenCardID      *uuid.UUID            `json:"takenCardId,omitempty"`
	GivenCardID      *uuid.UUID            `json:"givenCardId,omitempty"`
	TargetSetID      uuid.UUID             `json:"targetSetId,omitempty"`
	Payments         []Payment             `json:"payments,omitempty"`
	DrawCount        int                   `json:"drawCount,omitempty"`
}

// CancelReason says why an action ended without effect.
type CancelReason string

const (
	CancelBlocked   CancelReason = "blocked"
	CancelWithdrawn CancelReason = "withdrawn"
)

// Cancellation describes an action cleared without an ActionResult.
type Cancellation struct {
	ActionID      uuid.UUID         `json:"actionId"`
	ActionType    models.ActionType `json:"actionType"`
	InitiatorID   uuid.UUID         `json:"initiatorId"`
	CardID        uuid.UUID         `json:"cardId"`
	Reason        CancelReason      `json:"reason"`
	BlockedBy     uuid.UUID         `json:"blockedBy,omitempty"`
	ShieldsCardID uuid.UUID         `json:"shieldsCardId,omitempty"`
}

// DialogProcessingResult is what the transport relays after a message.
type DialogProcessingResult struct {
	// Opened lists contexts that started waiting on a player during this message,
	// such as a new action or a shields-up window.
	Opened []*ActionContext `json:"opened,omitempty"`
	// ClearActive is set when the pending action ended.
	ClearActive  bool           `json:"clearActive"`
	Context      *ActionContext `json:"context,omitempty"`
	Result       *ActionResult  `json:"result,omitempty"`
	Cancellation *Cancellation  `json:"cancellation,omitempty"`
	// Shields lists interrupt windows resolved during this message in which the
	// addressed player blocked, so the room can discard the shields card.
	Shields []Cancellation `json:"shields,omitempty"`
}

// TurnResult is produced at a turn boundary.
type TurnResult struct {
	Context *ActionContext `json:"context,omitempty"`
	Winner  *uuid.UUID     `json:"winner,omitempty"`
}

// GameOver reports whether the turn ended the game.
func (t TurnResult) GameOver() bool {
	return t.Winner != nil
}

// Response is one player's answer to the current dialog.
type Response struct {
	PlayerID uuid.UUID `json:"playerId"`
	// StepIndex, when non-zero, must match the index of the dialog answered.
	StepIndex int `json:"stepIndex,omitempty"`
	// Dialog, when set, must match the dialog currently open.
	Dialog DialogKind `json:"dialog,omitempty"`
	Params Params     `json:"params"`
}
