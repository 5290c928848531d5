// internal/room/outcome.go
package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/action"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/sirupsen/logrus"
)

// handleOutcome applies what the engine decided for one message and tells the
// players about it.
func (r *Room) handleOutcome(res *action.DialogProcessingResult) {
	for _, block := range res.Shields {
		r.discardShields(block)
	}

	switch {
	case res.Result != nil:
		r.applyResult(res.Result)
		r.Metrics.Completed(string(res.Result.ActionType), time.Since(r.actionStart))
		r.logAction(res.Result.InitiatorID, string(EventActionCompleted), resultPayload(res.Result))
		r.fireEvent(Event{Type: EventActionCompleted, User: &EventUser{ID: res.Result.InitiatorID}, Action: res.Context, Result: res.Result})
		r.broadcastSyncStateToAll()
		r.checkWinner()

	case res.Cancellation != nil:
		r.applyCancellation(res.Cancellation)
		r.Metrics.Cancelled(string(res.Cancellation.ActionType), string(res.Cancellation.Reason), time.Since(r.actionStart))
		r.logAction(res.Cancellation.InitiatorID, string(EventActionCancelled), map[string]interface{}{
			"actionId":   res.Cancellation.ActionID,
			"actionType": res.Cancellation.ActionType,
			"reason":     res.Cancellation.Reason,
			"blockedBy":  res.Cancellation.BlockedBy,
		})
		r.fireEvent(Event{Type: EventActionCancelled, User: &EventUser{ID: res.Cancellation.InitiatorID}, Action: res.Context, Cancellation: res.Cancellation})
		r.broadcastSyncStateToAll()
	}

	for _, ctx := range res.Opened {
		r.fireEvent(Event{Type: EventActionOpened, User: &EventUser{ID: ctx.InitiatorID}, Action: ctx})
	}
	if !res.ClearActive && len(res.Opened) == 0 {
		r.fireEvent(Event{Type: EventActionUpdated, Action: res.Context})
	}

	r.snapshot()
	r.scheduleResponseTimer()
}

// discardShields moves the shields up card used for a block to the discard pile.
func (r *Room) discardShields(block action.Cancellation) {
	defender := r.getPlayerByID(block.BlockedBy)
	if defender == nil {
		return
	}
	if card := defender.RemoveFromHand(block.ShieldsCardID); card != nil {
		r.DiscardPile = append(r.DiscardPile, card)
	}
	r.logAction(block.BlockedBy, string(EventShieldsUp), map[string]interface{}{
		"actionId": block.ActionID,
		"cardId":   block.ShieldsCardID,
	})
	r.fireEvent(Event{Type: EventShieldsUp, User: &EventUser{ID: block.BlockedBy}, Cancellation: &block})
	r.sendHand(defender)
}

// applyCancellation settles the command card: withdrawn cards return to hand and
// refund the play, blocked ones are spent.
func (r *Room) applyCancellation(c *action.Cancellation) {
	card := r.inPlay
	r.inPlay = nil
	if card == nil {
		return
	}
	if c.Reason == action.CancelWithdrawn {
		if p := r.getPlayerByID(c.InitiatorID); p != nil {
			p.Hand = append(p.Hand, card)
			r.sendHand(p)
		}
		if r.PlaysThisTurn > 0 {
			r.PlaysThisTurn--
		}
		return
	}
	r.DiscardPile = append(r.DiscardPile, card)
}

// applyResult moves cards as the committed action says. The command card ends on
// the discard pile unless it became construction.
func (r *Room) applyResult(res *action.ActionResult) {
	card := r.inPlay
	r.inPlay = nil
	initiator := r.getPlayerByID(res.InitiatorID)
	if initiator == nil {
		r.Log.WithField("player", res.InitiatorID).Error("result for unknown initiator")
		return
	}
	victim := r.getPlayerByID(res.AffectedPlayerID)

	switch res.ActionType {
	case models.ActionHostileTakeover:
		if victim != nil {
			if set := victim.RemoveSet(res.TakenSetID); set != nil {
				initiator.Properties = append(initiator.Properties, set)
			}
		}

	case models.ActionPirateRaid, models.ActionForcedTrade:
		if victim == nil || res.TakenCardID == nil {
			break
		}
		if res.GivenCardID != nil {
			given, orphaned := initiator.RemoveProperty(*res.GivenCardID)
			initiator.Bank = append(initiator.Bank, orphaned...)
			if given != nil {
				victim.AddProperty(given, given.Color)
			}
		}
		taken, orphaned := victim.RemoveProperty(*res.TakenCardID)
		victim.Bank = append(victim.Bank, orphaned...)
		if taken != nil {
			color := taken.Color
			if res.TakenSetColor != nil {
				color = *res.TakenSetColor
			}
			initiator.AddProperty(taken, color)
		}

	case models.ActionBountyHunter, models.ActionTradeDividend, models.ActionTribute, models.ActionWildTribute:
		for _, pay := range res.Payments {
			r.transfer(pay)
		}
		if set := initiator.FindSet(res.TargetSetID); set != nil {
			set.Embargoed = false
		}

	case models.ActionSpaceStation:
		if set := initiator.FindSet(res.TargetSetID); set != nil && card != nil {
			set.SpaceStation = card
			card = nil
		}

	case models.ActionStarbase:
		if set := initiator.FindSet(res.TargetSetID); set != nil && card != nil {
			set.Starbase = card
			card = nil
		}

	case models.ActionTradeEmbargo:
		if set := initiator.FindSet(res.TargetSetID); set != nil {
			set.Embargoed = true
		}

	case models.ActionExploreNewSector:
		r.draw(initiator, res.DrawCount)
	}

	if card != nil {
		r.DiscardPile = append(r.DiscardPile, card)
	}
	r.sendHand(initiator)
}

// transfer hands over the cards of one payment. Money goes to the bank, property
// cards keep their color on the receiving side.
func (r *Room) transfer(pay action.Payment) {
	from, to := r.getPlayerByID(pay.From), r.getPlayerByID(pay.To)
	if from == nil || to == nil {
		r.Log.WithFields(logrus.Fields{"from": pay.From, "to": pay.To}).Error("payment between unknown players")
		return
	}
	for _, id := range pay.CardIDs {
		if c := from.RemoveBank(id); c != nil {
			to.Bank = append(to.Bank, c)
			continue
		}
		c, orphaned := from.RemoveProperty(id)
		from.Bank = append(from.Bank, orphaned...)
		if c != nil {
			to.AddProperty(c, c.Color)
		}
	}
}

func resultPayload(res *action.ActionResult) map[string]interface{} {
	payload := map[string]interface{}{
		"actionId":   res.ActionID,
		"actionType": res.ActionType,
		"cardId":     res.CardID,
	}
	if res.AffectedPlayerID != uuid.Nil {
		payload["affectedPlayerId"] = res.AffectedPlayerID
	}
	if res.TakenSetColor != nil {
		payload["takenSetColor"] = *res.TakenSetColor
	}
	if res.TakenCardID != nil {
		payload["takenCardId"] = *res.TakenCardID
	}
	if res.GivenCardID != nil {
		payload["givenCardId"] = *res.GivenCardID
	}
	if res.TargetSetID != uuid.Nil {
		payload["targetSetId"] = res.TargetSetID
	}
	if len(res.Payments) > 0 {
		total := 0
		for _, p := range res.Payments {
			total += p.Value
		}
		payload["paid"] = total
	}
	return payload
}
