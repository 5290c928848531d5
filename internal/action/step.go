// internal/action/step.go
package action

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// ErrPlayerNotFound is returned by directories for unknown player ids.
var ErrPlayerNotFound = errors.New("player not found")

// PlayerDirectory is the read-only player lookup the steps consume.
type PlayerDirectory interface {
	GetAllPlayers() []*models.Player
	GetPlayerByUserID(id uuid.UUID) (*models.Player, error)
	CountPlayers() int
}

// ActionStep processes the response to one dialog kind. It validates, then either
// advances ctx through the orchestrator and returns nil, or returns the result of
// the completed action. Steps never touch card ownership.
type ActionStep interface {
	ProcessStep(responder uuid.UUID, ctx *ActionContext, o *Orchestrator, next *DialogKind) (*ActionResult, error)
}

// DefaultSteps is the dispatch table from dialog kind to step.
func DefaultSteps() map[DialogKind]ActionStep {
	return map[DialogKind]ActionStep{
		DialogSelectPlayer:          PlayerSelectionStep{},
		DialogSelectPropertySet:     PropertySetSelectionStep{},
		DialogSelectIndividualCards: CardSelectionStep{},
		DialogSelectWildcardColor:   WildcardColorStep{},
		DialogPayValue:              PayValueStep{},
		DialogInterruptResponse:     ShieldsUpStep{},
	}
}
