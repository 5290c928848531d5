// internal/action/payment.go
package action

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// CalculateTributeAmount prices a tribute on the initiator's selected set and
// stores the amount on ctx.
func (o *Orchestrator) CalculateTributeAmount(ctx *ActionContext) (int, error) {
	owner, err := o.players.GetPlayerByUserID(ctx.InitiatorID)
	if err != nil {
		return 0, fmt.Errorf("%s: initiator: %w", ctx, err)
	}
	setID := ctx.Params().SelectedPropertySetID
	if setID == uuid.Nil {
		return 0, missingParam(ctx, ParamSelectedPropertySetID)
	}
	set := owner.FindSet(setID)
	if set == nil {
		return 0, invalidParam(ctx, ParamSelectedPropertySetID, "set %s is not owned by the initiator", setID)
	}

	amount := set.BaseRent()
	if set.IsComplete() {
		if set.SpaceStation != nil {
			amount += o.rules.SpaceStationBonus
		}
		if set.Starbase != nil {
			amount += o.rules.StarbaseBonus
		}
	}
	if set.Embargoed {
		amount *= o.rules.EmbargoMultiplier
	}
	ctx.Amount = amount
	return amount, nil
}

// ProcessRentCardSelection validates the cards the payer offered against the
// amount owed and returns them. Ownership does not change here.
func (o *Orchestrator) ProcessRentCardSelection(ctx *ActionContext, payerID uuid.UUID) ([]*models.Card, error) {
	payer, err := o.players.GetPlayerByUserID(payerID)
	if err != nil {
		return nil, fmt.Errorf("%s: payer: %w", ctx, err)
	}

	ids := ctx.Params().PaymentCardIDs
	seen := make(map[uuid.UUID]bool, len(ids))
	cards := make([]*models.Card, 0, len(ids))
	total := 0
	for _, id := range ids {
		if seen[id] {
			return nil, invalidParam(ctx, ParamPaymentCardIDs, "card %s offered twice", id)
		}
		seen[id] = true
		card := payer.FindBank(id)
		if card == nil {
			card, _ = payer.FindProperty(id)
		}
		if card == nil {
			return nil, invalidParam(ctx, ParamPaymentCardIDs, "card %s is not in the bank or properties of %s", id, payerID)
		}
		cards = append(cards, card)
		total += card.Value
	}

	if total < ctx.Amount && total < payer.PayableTotal() {
		if len(ids) == 0 {
			return nil, missingParam(ctx, ParamPaymentCardIDs)
		}
		return nil, invalidParam(ctx, ParamPaymentCardIDs, "offered %d of %d owed", total, ctx.Amount)
	}
	return cards, nil
}

// DefaultResponse builds the answer the room submits for a player who does not
// respond in time: shields are lowered and debts are paid cheapest card first.
// It reports false when the player's dialog has no safe default, in which case
// the caller withdraws the action instead.
func (o *Orchestrator) DefaultResponse(playerID uuid.UUID) (Response, bool) {
	active, ok := o.store.Active()
	if !ok {
		return Response{}, false
	}
	current := active.Current()
	if !current.IsAddressedTo(playerID) {
		return Response{}, false
	}
	resp := Response{PlayerID: playerID, StepIndex: current.StepIndex(), Dialog: current.Dialog}

	switch current.Dialog {
	case DialogInterruptResponse:
		lowered := false
		resp.Params.ShieldsUp = &lowered
		return resp, true
	case DialogPayValue:
		payer, err := o.players.GetPlayerByUserID(playerID)
		if err != nil {
			return Response{}, false
		}
		resp.Params.PaymentCardIDs = cheapestFirst(payer, current.Amount)
		return resp, true
	}
	return Response{}, false
}

// cheapestFirst picks payable cards in ascending value until amount is covered,
// or everything payable when it cannot be.
func cheapestFirst(p *models.Player, amount int) []uuid.UUID {
	var payable []*models.Card
	payable = append(payable, p.Bank...)
	for _, s := range p.Properties {
		payable = append(payable, s.Cards...)
	}
	slices.SortStableFunc(payable, func(a, b *models.Card) int { return cmp.Compare(a.Value, b.Value) })

	var ids []uuid.UUID
	total := 0
	for _, c := range payable {
		if total >= amount {
			break
		}
		ids = append(ids, c.ID)
		total += c.Value
	}
	return ids
}

// commit turns a finished context into the result the room applies.
func (o *Orchestrator) commit(ctx *ActionContext) (*ActionResult, error) {
	params := ctx.Params()
	r := &ActionResult{
		ActionID:    ctx.ID(),
		InitiatorID: ctx.InitiatorID,
		ActionType:  ctx.ActionType,
		CardID:      ctx.Pending.CardID,
	}

	switch ctx.ActionType {
	case models.ActionHostileTakeover:
		victim, err := o.players.GetPlayerByUserID(ctx.Target())
		if err != nil {
			return nil, invalidParam(ctx, ParamTargetPlayers, "%v", err)
		}
		set := victim.FindSet(params.SelectedPropertySetID)
		if set == nil {
			return nil, invalidParam(ctx, ParamSelectedPropertySetID, "set %s is gone", params.SelectedPropertySetID)
		}
		color := set.Color
		r.AffectedPlayerID = victim.ID
		r.TakenSetID = set.ID
		r.TakenSetColor = &color

	case models.ActionPirateRaid, models.ActionForcedTrade:
		taken := params.TargetPropertyID
		r.AffectedPlayerID = ctx.Target()
		r.TakenCardID = &taken
		if color, ok := params.WildcardColor(); ok {
			r.TakenSetColor = &color
		}
		if ctx.ActionType == models.ActionForcedTrade {
			given := params.MyPropertyToTradeID
			r.GivenCardID = &given
		}

	case models.ActionBountyHunter, models.ActionWildTribute:
		r.AffectedPlayerID = ctx.Target()
		r.TargetSetID = params.SelectedPropertySetID
		r.Payments = clonePayments(ctx.Payments)

	case models.ActionTradeDividend, models.ActionTribute:
		r.TargetSetID = params.SelectedPropertySetID
		r.Payments = clonePayments(ctx.Payments)

	case models.ActionSpaceStation, models.ActionStarbase, models.ActionTradeEmbargo:
		r.TargetSetID = params.SelectedPropertySetID

	case models.ActionExploreNewSector:
		r.DrawCount = o.rules.ExploreDrawCount

	default:
		return nil, fmt.Errorf("%w: %s cannot be committed", ErrInvalidOperation, ctx)
	}
	return r, nil
}

func clonePayments(in []Payment) []Payment {
	out := make([]Payment, 0, len(in))
	for _, p := range in {
		out = append(out, p.clone())
	}
	return out
}
