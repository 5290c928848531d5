// internal/action/step_wildcard.go
package action

import (
	"github.com/google/uuid"
)

// WildcardColorStep lets the initiator choose the color a taken wildcard will
// sit under once it changes hands.
type WildcardColorStep struct{}

func (WildcardColorStep) ProcessStep(responder uuid.UUID, ctx *ActionContext, o *Orchestrator, _ *DialogKind) (*ActionResult, error) {
	if responder != ctx.InitiatorID {
		return nil, violation(responder, ctx.Dialog, "only the initiator chooses the color")
	}
	color, ok := ctx.Params().WildcardColor()
	if !ok {
		return nil, missingParam(ctx, ParamSelectedWildcardColor)
	}
	if !color.Valid() {
		return nil, invalidParam(ctx, ParamSelectedWildcardColor, "unknown color %q", color)
	}

	victim, err := o.players.GetPlayerByUserID(ctx.Target())
	if err != nil {
		return nil, invalidParam(ctx, ParamTargetPlayers, "%v", err)
	}
	taken, _ := victim.FindProperty(ctx.Params().TargetPropertyID)
	if taken == nil {
		return nil, invalidParam(ctx, ParamTargetPropertyID, "card %s is no longer held by the target", ctx.Params().TargetPropertyID)
	}
	if !taken.CanBe(color) {
		return nil, invalidParam(ctx, ParamSelectedWildcardColor, "card cannot be %s", color)
	}
	return o.Finalize(responder, ctx)
}
