// internal/action/step_property_set.go
package action

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// PropertySetSelectionStep handles every dialog in which the initiator picks a
// whole property set: the target's set for a takeover, an own set for
// construction, embargo and tribute.
type PropertySetSelectionStep struct{}

func (PropertySetSelectionStep) ProcessStep(responder uuid.UUID, ctx *ActionContext, o *Orchestrator, next *DialogKind) (*ActionResult, error) {
	if responder != ctx.InitiatorID {
		return nil, violation(responder, ctx.Dialog, "only the initiator selects a property set")
	}
	setID := ctx.Params().SelectedPropertySetID
	if setID == uuid.Nil {
		return nil, missingParam(ctx, ParamSelectedPropertySetID)
	}

	if ctx.ActionType == models.ActionHostileTakeover {
		target := ctx.Target()
		if target == uuid.Nil {
			return nil, missingParam(ctx, ParamTargetPlayers)
		}
		victim, err := o.players.GetPlayerByUserID(target)
		if err != nil {
			return nil, invalidParam(ctx, ParamTargetPlayers, "%v", err)
		}
		set := victim.FindSet(setID)
		if set == nil {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "set %s is not owned by %s", setID, target)
		}
		if !set.IsComplete() {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "only complete sets can be taken")
		}
		return o.Finalize(responder, ctx)
	}

	owner, err := o.players.GetPlayerByUserID(ctx.InitiatorID)
	if err != nil {
		return nil, fmt.Errorf("%s: initiator: %w", ctx, err)
	}
	set := owner.FindSet(setID)
	if set == nil {
		return nil, invalidParam(ctx, ParamSelectedPropertySetID, "set %s is not owned by the initiator", setID)
	}

	switch ctx.ActionType {
	case models.ActionSpaceStation:
		if err := checkConstruction(ctx, set); err != nil {
			return nil, err
		}
		if set.SpaceStation != nil {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "set already has a space station")
		}
		return o.Finalize(responder, ctx)

	case models.ActionStarbase:
		if err := checkConstruction(ctx, set); err != nil {
			return nil, err
		}
		if set.SpaceStation == nil {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "a starbase needs a space station")
		}
		if set.Starbase != nil {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "set already has a starbase")
		}
		return o.Finalize(responder, ctx)

	case models.ActionTradeEmbargo:
		if set.Embargoed {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "set is already under embargo")
		}
		return o.Finalize(responder, ctx)

	case models.ActionTribute, models.ActionWildTribute:
		if len(ctx.TributeColors) > 0 && !slices.Contains(ctx.TributeColors, set.Color) {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "tribute card does not charge %s", set.Color)
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s: tribute needs a following dialog", ErrInvalidOperation, ctx)
		}
		if _, err := o.CalculateTributeAmount(ctx); err != nil {
			return nil, err
		}
		return nil, o.Advance(ctx, *next)
	}

	return nil, fmt.Errorf("%w: %s does not select a property set", ErrInvalidOperation, ctx)
}

func checkConstruction(ctx *ActionContext, set *models.PropertySet) error {
	if !set.IsComplete() {
		return invalidParam(ctx, ParamSelectedPropertySetID, "construction needs a complete set")
	}
	if !set.Color.AllowsConstruction() {
		return invalidParam(ctx, ParamSelectedPropertySetID, "%s sets do not allow construction", set.Color)
	}
	return nil
}
