// internal/action/step_player.go
package action

import (
	"fmt"

	"github.com/google/uuid"
)

// PlayerSelectionStep lets the initiator choose the player the action targets.
type PlayerSelectionStep struct{}

func (PlayerSelectionStep) ProcessStep(responder uuid.UUID, ctx *ActionContext, o *Orchestrator, next *DialogKind) (*ActionResult, error) {
	if next == nil {
		return nil, fmt.Errorf("%w: %s: player selection needs a following dialog", ErrInvalidOperation, ctx)
	}
	target := ctx.Target()
	if target == uuid.Nil {
		return nil, missingParam(ctx, ParamTargetPlayers)
	}
	if responder != ctx.InitiatorID {
		return nil, violation(responder, ctx.Dialog, "only the initiator chooses the target")
	}
	if len(ctx.Params().TargetPlayers) > 1 {
		return nil, invalidParam(ctx, ParamTargetPlayers, "expected one player, got %d", len(ctx.Params().TargetPlayers))
	}

	initiator, err := o.players.GetPlayerByUserID(ctx.InitiatorID)
	if err != nil {
		return nil, fmt.Errorf("%s: initiator: %w", ctx, err)
	}
	if _, err := o.players.GetPlayerByUserID(target); err != nil {
		return nil, invalidParam(ctx, ParamTargetPlayers, "%v", err)
	}
	if target == initiator.ID {
		return nil, invalidParam(ctx, ParamTargetPlayers, "cannot target yourself")
	}

	return nil, o.Advance(ctx, *next)
}
