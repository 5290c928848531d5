// internal/action/context.go
package action

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// PendingAction is the durable record of an action in progress.
type PendingAction struct {
	ID          uuid.UUID         `json:"id"`
	InitiatorID uuid.UUID         `json:"initiatorId"`
	ActionType  models.ActionType `json:"actionType"`
	CardID      uuid.UUID         `json:"cardId"`
	StepIndex   int               `json:"stepIndex"`
	Params      Params            `json:"params"`
}

// ContinuationKind says what a declined interrupt resumes.
type ContinuationKind string

const (
	ResumeCommit  ContinuationKind = "resume_commit"
	ResumePayment ContinuationKind = "resume_payment"
)

// Continuation records how to carry on once an interrupt window is answered.
// Resolved flips once and never back.
type Continuation struct {
	Kind     ContinuationKind `json:"kind"`
	Payer    uuid.UUID        `json:"payer,omitempty"`
	Resolved bool             `json:"resolved"`
}

// ActionContext is the working state of one action, or of one shields-up window
// opened inside it. It carries the durable PendingAction plus routing data.
type ActionContext struct {
	Pending            PendingAction          `json:"pending"`
	InitiatorID        uuid.UUID              `json:"initiatorId"`
	ActionType         models.ActionType      `json:"actionType"`
	Dialog             DialogKind             `json:"dialog"`
	AddressedPlayerIDs []uuid.UUID            `json:"addressedPlayerIds"`
	Amount             int                    `json:"amount,omitempty"`
	Payers             []uuid.UUID            `json:"payers,omitempty"`
	Payments           []Payment              `json:"payments,omitempty"`
	Exempted           []uuid.UUID            `json:"exempted,omitempty"`
	TributeColors      []models.PropertyColor `json:"tributeColors,omitempty"`

	// Interrupt is the open shields-up window, if any.
	Interrupt *ActionContext `json:"interrupt,omitempty"`

	// Set on shields-up windows only.
	ParentID     uuid.UUID     `json:"parentId,omitempty"`
	Continuation *Continuation `json:"continuation,omitempty"`

	parent       *ActionContext
	opened       []*ActionContext
	blocks       []Cancellation
	cancellation *Cancellation
}

// ID is the id of the underlying pending action.
func (c *ActionContext) ID() uuid.UUID {
	return c.Pending.ID
}

// StepIndex is the index a response must carry to be processed by this context.
func (c *ActionContext) StepIndex() int {
	return c.Pending.StepIndex
}

// Params exposes the stored parameters for steps to read and fill in.
func (c *ActionContext) Params() *Params {
	return &c.Pending.Params
}

// Current returns the context that the next response answers: the open interrupt
// window if there is one, else c itself.
func (c *ActionContext) Current() *ActionContext {
	if c.Interrupt != nil {
		return c.Interrupt
	}
	return c
}

// IsAddressedTo reports whether playerID must answer the current dialog.
func (c *ActionContext) IsAddressedTo(playerID uuid.UUID) bool {
	return slices.Contains(c.AddressedPlayerIDs, playerID)
}

// Target is the player the action is aimed at, if any.
func (c *ActionContext) Target() uuid.UUID {
	return c.Pending.Params.Target()
}

func (c *ActionContext) String() string {
	if c == nil {
		return "<nil action>"
	}
	return fmt.Sprintf("%s action %s (step %d)", c.ActionType, c.Pending.ID, c.Pending.StepIndex)
}

// Clone returns a deep copy. Transient processing state is not carried over.
func (c *ActionContext) Clone() *ActionContext {
	if c == nil {
		return nil
	}
	out := &ActionContext{
		Pending:            c.Pending,
		InitiatorID:        c.InitiatorID,
		ActionType:         c.ActionType,
		Dialog:             c.Dialog,
		AddressedPlayerIDs: slices.Clone(c.AddressedPlayerIDs),
		Amount:             c.Amount,
		Payers:             slices.Clone(c.Payers),
		Exempted:           slices.Clone(c.Exempted),
		TributeColors:      slices.Clone(c.TributeColors),
		ParentID:           c.ParentID,
	}
	out.Pending.Params = c.Pending.Params.Clone()
	for _, p := range c.Payments {
		out.Payments = append(out.Payments, p.clone())
	}
	if c.Continuation != nil {
		cont := *c.Continuation
		out.Continuation = &cont
	}
	if c.Interrupt != nil {
		out.Interrupt = c.Interrupt.Clone()
		out.Interrupt.parent = out
	}
	return out
}

// root walks up from an interrupt window to the action it belongs to.
func (c *ActionContext) root() *ActionContext {
	for c.parent != nil {
		c = c.parent
	}
	return c
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(slices.Clone(ids), func(x uuid.UUID) bool { return x == id })
}
