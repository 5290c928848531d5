// internal/action/step_shields.go
package action

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// ShieldsUpStep answers an interrupt window. Blocking needs a shields up card
// in hand.
type ShieldsUpStep struct{}

func (ShieldsUpStep) ProcessStep(responder uuid.UUID, ctx *ActionContext, o *Orchestrator, _ *DialogKind) (*ActionResult, error) {
	if ctx.Continuation == nil || ctx.parent == nil {
		return nil, fmt.Errorf("%w: %s is not an interrupt window", ErrInvalidOperation, ctx)
	}
	if ctx.Continuation.Resolved {
		return nil, ErrInterruptResolved
	}
	if !ctx.IsAddressedTo(responder) {
		return nil, violation(responder, ctx.Dialog, "only the targeted player may raise shields")
	}
	decision := ctx.Params().ShieldsUp
	if decision == nil {
		return nil, missingParam(ctx, ParamShieldsUp)
	}

	var shields *models.Card
	if *decision {
		p, err := o.players.GetPlayerByUserID(responder)
		if err != nil {
			return nil, fmt.Errorf("%s: responder: %w", ctx, err)
		}
		if shields = p.FindCommandInHand(models.ActionShieldsUp); shields == nil {
			return nil, invalidParam(ctx, ParamShieldsUp, "player holds no shields up card")
		}
	}
	return o.ResolveInterrupt(ctx, shields)
}
