// internal/action/step_pay.go
package action

import (
	"github.com/google/uuid"
)

// PayValueStep settles one payer's share of a pay-value dialog. Broadcast
// dialogs stay open until every payer has paid; interruptible ones move to the
// next payer's shields-up window.
type PayValueStep struct{}

func (PayValueStep) ProcessStep(responder uuid.UUID, ctx *ActionContext, o *Orchestrator, _ *DialogKind) (*ActionResult, error) {
	if responder == ctx.InitiatorID || !ctx.IsAddressedTo(responder) {
		return nil, violation(responder, ctx.Dialog, "player owes nothing here")
	}

	cards, err := o.ProcessRentCardSelection(ctx, responder)
	if err != nil {
		return nil, err
	}
	payment := Payment{From: responder, To: ctx.InitiatorID}
	for _, c := range cards {
		payment.CardIDs = append(payment.CardIDs, c.ID)
		payment.Value += c.Value
	}
	ctx.Payments = append(ctx.Payments, payment)
	ctx.Params().PaymentCardIDs = nil
	ctx.Payers = removeID(ctx.Payers, responder)
	ctx.AddressedPlayerIDs = removeID(ctx.AddressedPlayerIDs, responder)

	if len(ctx.Payers) == 0 {
		return o.commit(ctx)
	}
	if IsInterruptible(ctx.ActionType) {
		return nil, o.openPayment(ctx)
	}
	return nil, nil
}
