// internal/action/step_cards.go
package action

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// CardSelectionStep picks individual property cards: the target's card for a
// pirate raid, and both the target's and the initiator's card for a forced trade.
// Cards in complete sets are off limits.
type CardSelectionStep struct{}

func (CardSelectionStep) ProcessStep(responder uuid.UUID, ctx *ActionContext, o *Orchestrator, _ *DialogKind) (*ActionResult, error) {
	if ctx.ActionType != models.ActionPirateRaid && ctx.ActionType != models.ActionForcedTrade {
		return nil, fmt.Errorf("%w: %s does not select individual cards", ErrInvalidOperation, ctx)
	}
	if responder != ctx.InitiatorID {
		return nil, violation(responder, ctx.Dialog, "only the initiator selects cards")
	}
	params := ctx.Params()
	target := ctx.Target()
	if target == uuid.Nil {
		return nil, missingParam(ctx, ParamTargetPlayers)
	}
	if params.TargetPropertyID == uuid.Nil {
		return nil, missingParam(ctx, ParamTargetPropertyID)
	}
	if ctx.ActionType == models.ActionForcedTrade && params.MyPropertyToTradeID == uuid.Nil {
		return nil, missingParam(ctx, ParamMyPropertyToTradeID)
	}

	victim, err := o.players.GetPlayerByUserID(target)
	if err != nil {
		return nil, invalidParam(ctx, ParamTargetPlayers, "%v", err)
	}
	taken, takenSet := victim.FindProperty(params.TargetPropertyID)
	if taken == nil {
		return nil, invalidParam(ctx, ParamTargetPropertyID, "card %s is not a property of %s", params.TargetPropertyID, target)
	}
	if takenSet.IsComplete() {
		return nil, invalidParam(ctx, ParamTargetPropertyID, "card sits in a complete set")
	}

	if ctx.ActionType == models.ActionForcedTrade {
		initiator, err := o.players.GetPlayerByUserID(ctx.InitiatorID)
		if err != nil {
			return nil, fmt.Errorf("%s: initiator: %w", ctx, err)
		}
		own, ownSet := initiator.FindProperty(params.MyPropertyToTradeID)
		if own == nil {
			return nil, invalidParam(ctx, ParamMyPropertyToTradeID, "card %s is not your property", params.MyPropertyToTradeID)
		}
		if ownSet.IsComplete() {
			return nil, invalidParam(ctx, ParamMyPropertyToTradeID, "card sits in a complete set")
		}
	}

	if taken.IsWild() {
		o.SetNextDialog(ctx, DialogSelectWildcardColor, ctx.InitiatorID)
		return nil, nil
	}
	return o.Finalize(responder, ctx)
}
