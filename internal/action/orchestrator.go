// internal/action/orchestrator.go
package action

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
	"github.com/sirupsen/logrus"
)

// Orchestrator drives the pending action of one room: it starts actions, routes
// responses to the step registered for the current dialog and finalizes or
// cancels the action. It is not safe for concurrent use; the owning room
// serializes calls.
type Orchestrator struct {
	store   Store
	players PlayerDirectory
	steps   map[DialogKind]ActionStep
	rules   Rules
	log     *logrus.Entry
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRules overrides the default amounts.
func WithRules(r Rules) Option {
	return func(o *Orchestrator) {
		o.rules = r
	}
}

// WithLogger sets the log entry used for step tracing.
func WithLogger(l *logrus.Entry) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// WithStep replaces the step registered for a dialog kind.
func WithStep(kind DialogKind, step ActionStep) Option {
	return func(o *Orchestrator) {
		o.steps[kind] = step
	}
}

// NewOrchestrator builds an orchestrator over a room's store and players.
func NewOrchestrator(store Store, players PlayerDirectory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		players: players,
		steps:   DefaultSteps(),
		rules:   DefaultRules(),
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Rules returns the amounts in effect.
func (o *Orchestrator) Rules() Rules {
	return o.rules
}

// Active returns the pending action, if any.
func (o *Orchestrator) Active() (*ActionContext, bool) {
	return o.store.Active()
}

// Start opens the action for a command card the initiator just played. Actions
// without dialogs complete immediately.
func (o *Orchestrator) Start(initiator uuid.UUID, card *models.Card) (*DialogProcessingResult, error) {
	if card == nil || card.Kind != models.KindCommand {
		return nil, fmt.Errorf("%w: card is not a command", ErrInvalidOperation)
	}
	if card.Command == models.ActionShieldsUp {
		return nil, violation(initiator, "", "shields up only answers an interrupt")
	}
	seq, ok := Sequences[card.Command]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidOperation, card.Command)
	}
	if active, busy := o.store.Active(); busy {
		return nil, fmt.Errorf("start %s: %w (pending: %s)", card.Command, ErrActionAlreadyActive, active)
	}
	if _, err := o.players.GetPlayerByUserID(initiator); err != nil {
		return nil, fmt.Errorf("start %s: %w", card.Command, err)
	}

	ctx := &ActionContext{
		Pending: PendingAction{
			ID:          uuid.New(),
			InitiatorID: initiator,
			ActionType:  card.Command,
			CardID:      card.ID,
			StepIndex:   1,
		},
		InitiatorID: initiator,
		ActionType:  card.Command,
	}
	switch card.Command {
	case models.ActionTribute, models.ActionWildTribute:
		ctx.TributeColors = slices.Clone(card.Colors)
	case models.ActionBountyHunter:
		ctx.Amount = o.rules.BountyAmount
	}

	if len(seq.Dialogs) == 0 {
		if err := o.store.SetActive(ctx); err != nil {
			return nil, err
		}
		result, err := o.commit(ctx)
		if err != nil {
			o.store.Clear()
			return nil, err
		}
		o.CompleteAction()
		o.log.WithField("action", ctx.String()).Debug("action completed on play")
		return &DialogProcessingResult{ClearActive: true, Context: ctx, Result: result}, nil
	}

	if first := seq.Dialogs[0]; first == DialogPayValue {
		payers := o.others(initiator)
		if len(payers) == 0 {
			return nil, violation(initiator, first, "no other players to collect from")
		}
		ctx.Amount = o.rules.DividendAmount
		ctx.Payers = payers
		ctx.Dialog = first
		ctx.AddressedPlayerIDs = slices.Clone(payers)
	} else {
		ctx.Dialog = first
		ctx.AddressedPlayerIDs = []uuid.UUID{initiator}
	}

	if err := o.store.SetActive(ctx); err != nil {
		return nil, err
	}
	o.log.WithFields(logrus.Fields{"action": ctx.String(), "dialog": ctx.Dialog}).Debug("action opened")
	return &DialogProcessingResult{Opened: []*ActionContext{ctx}, Context: ctx}, nil
}

// Process handles one player response. The pending action is worked on as a
// copy; when the step fails, the store and the stored context stay untouched.
func (o *Orchestrator) Process(resp Response) (*DialogProcessingResult, error) {
	active, ok := o.store.Active()
	if !ok {
		return nil, ErrNoActiveAction
	}
	work := active.Clone()
	current := work.Current()

	if resp.StepIndex != 0 && resp.StepIndex != current.StepIndex() {
		return nil, violation(resp.PlayerID, current.Dialog, "stale response for step %d, current step is %d", resp.StepIndex, current.StepIndex())
	}
	if resp.Dialog != "" && resp.Dialog != current.Dialog {
		return nil, violation(resp.PlayerID, current.Dialog, "response answers %s", resp.Dialog)
	}
	if !current.IsAddressedTo(resp.PlayerID) {
		return nil, violation(resp.PlayerID, current.Dialog, "dialog is addressed to %v", current.AddressedPlayerIDs)
	}
	step, ok := o.steps[current.Dialog]
	if !ok {
		return nil, fmt.Errorf("%w: no step handles %s", ErrInvalidOperation, current.Dialog)
	}

	current.Params().Merge(resp.Params, DialogParams[current.Dialog]...)
	next := NextDialog(work.ActionType, current.Dialog)
	if current != work {
		next = nil
	}

	result, err := step.ProcessStep(resp.PlayerID, current, o, next)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"action": work.String(),
			"player": resp.PlayerID,
			"dialog": current.Dialog,
		}).WithError(err).Debug("response rejected")
		return nil, err
	}
	return o.settle(work, result)
}

// settle commits the outcome of a processed copy: the store is cleared for a
// completed or cancelled action, otherwise the copy becomes the pending action.
func (o *Orchestrator) settle(work *ActionContext, result *ActionResult) (*DialogProcessingResult, error) {
	out := &DialogProcessingResult{Opened: work.opened, Context: work, Shields: work.blocks}
	switch {
	case work.cancellation != nil:
		o.store.Clear()
		out.ClearActive = true
		out.Cancellation = work.cancellation
		o.log.WithField("action", work.String()).Debugf("action cancelled: %s", work.cancellation.Reason)
	case result != nil:
		o.CompleteAction()
		out.ClearActive = true
		out.Result = result
		o.log.WithField("action", work.String()).Debug("action completed")
	default:
		if err := o.store.Update(work); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Cancel withdraws the pending action on behalf of its initiator. This is only
// allowed while nobody else has been engaged.
func (o *Orchestrator) Cancel(playerID uuid.UUID) (*DialogProcessingResult, error) {
	active, ok := o.store.Active()
	if !ok {
		return nil, ErrNoActiveAction
	}
	if active.InitiatorID != playerID {
		return nil, violation(playerID, active.Dialog, "only the initiator may withdraw the action")
	}
	if active.Interrupt != nil || !active.IsAddressedTo(playerID) || len(active.Payments) > 0 {
		return nil, violation(playerID, active.Dialog, "other players are already engaged")
	}
	c := &Cancellation{
		ActionID:    active.ID(),
		ActionType:  active.ActionType,
		InitiatorID: active.InitiatorID,
		CardID:      active.Pending.CardID,
		Reason:      CancelWithdrawn,
	}
	o.store.Clear()
	return &DialogProcessingResult{ClearActive: true, Context: active, Cancellation: c}, nil
}

// SetNextDialog records the dialog now required and who answers it; with no
// targets it is addressed to the initiator. The step index moves on by one.
func (o *Orchestrator) SetNextDialog(ctx *ActionContext, dialog DialogKind, initiator uuid.UUID, targets ...uuid.UUID) {
	ctx.Dialog = dialog
	if len(targets) == 0 {
		ctx.AddressedPlayerIDs = []uuid.UUID{initiator}
	} else {
		ctx.AddressedPlayerIDs = slices.Clone(targets)
	}
	ctx.Pending.StepIndex++
}

// Advance moves ctx to the next dialog of its sequence. Pay-value dialogs go to
// the payers, behind a shields-up window when the action is interruptible.
func (o *Orchestrator) Advance(ctx *ActionContext, next DialogKind) error {
	if next == DialogPayValue {
		return o.openPayment(ctx)
	}
	o.SetNextDialog(ctx, next, ctx.InitiatorID)
	return nil
}

// Finalize ends the dialog sequence: interruptible actions first give the
// target a shields-up window, the rest commit straight away.
func (o *Orchestrator) Finalize(responder uuid.UUID, ctx *ActionContext) (*ActionResult, error) {
	if IsInterruptible(ctx.ActionType) {
		_, err := o.HandleShieldsUp(responder, ctx, Continuation{Kind: ResumeCommit})
		return nil, err
	}
	return o.commit(ctx)
}

func (o *Orchestrator) openPayment(ctx *ActionContext) error {
	if len(ctx.Payers) == 0 {
		switch ctx.ActionType {
		case models.ActionTribute:
			ctx.Payers = o.others(ctx.InitiatorID)
		default:
			if t := ctx.Target(); t != uuid.Nil {
				ctx.Payers = []uuid.UUID{t}
			}
		}
	}
	if len(ctx.Payers) == 0 {
		return fmt.Errorf("%w: %s has nobody to collect from", ErrInvalidOperation, ctx)
	}
	if IsInterruptible(ctx.ActionType) {
		_, err := o.HandleShieldsUp(ctx.InitiatorID, ctx, Continuation{Kind: ResumePayment, Payer: ctx.Payers[0]})
		return err
	}
	o.SetNextDialog(ctx, DialogPayValue, ctx.InitiatorID, ctx.Payers...)
	return nil
}

// HandleShieldsUp opens a shields-up window for the player about to be affected:
// the continuation's payer, or the action's target. Declining resumes cont once;
// blocking cancels the action (or exempts the payer of a multi-payer tribute).
func (o *Orchestrator) HandleShieldsUp(responder uuid.UUID, ctx *ActionContext, cont Continuation) (*ActionContext, error) {
	root := ctx.root()
	if root.Interrupt != nil {
		return nil, fmt.Errorf("%w: %s already has an open interrupt", ErrInvalidOperation, root)
	}
	if !IsInterruptible(root.ActionType) {
		return nil, fmt.Errorf("%w: %s cannot be interrupted", ErrInvalidOperation, root)
	}
	target := cont.Payer
	if target == uuid.Nil {
		target = root.Target()
	}
	if target == uuid.Nil {
		return nil, missingParam(root, ParamTargetPlayers)
	}

	o.SetNextDialog(root, DialogInterruptResponse, root.InitiatorID, target)
	sub := o.BuildShieldsUpContext(root, root.InitiatorID, target)
	cont.Resolved = false
	sub.Continuation = &cont
	root.Interrupt = sub
	root.opened = append(root.opened, sub)

	o.log.WithFields(logrus.Fields{
		"action":    root.String(),
		"responder": responder,
		"target":    target,
		"resume":    cont.Kind,
	}).Debug("shields up window opened")
	return sub, nil
}

// BuildShieldsUpContext constructs the interrupt window of ctx addressed to
// target. It shares the parent's step index and remembers the parent for
// resuming or cancelling.
func (o *Orchestrator) BuildShieldsUpContext(ctx *ActionContext, initiator, target uuid.UUID) *ActionContext {
	return &ActionContext{
		Pending: PendingAction{
			ID:          uuid.New(),
			InitiatorID: initiator,
			ActionType:  models.ActionShieldsUp,
			CardID:      ctx.Pending.CardID,
			StepIndex:   ctx.Pending.StepIndex,
			Params:      Params{TargetPlayers: []uuid.UUID{target}},
		},
		InitiatorID:        initiator,
		ActionType:         models.ActionShieldsUp,
		Dialog:             DialogInterruptResponse,
		AddressedPlayerIDs: []uuid.UUID{target},
		Amount:             ctx.Amount,
		ParentID:           ctx.ID(),
		parent:             ctx,
	}
}

// ResolveInterrupt answers the shields-up window sub. A nil shields card means
// the addressed player declined and the continuation resumes; otherwise the
// player blocked with that card.
func (o *Orchestrator) ResolveInterrupt(sub *ActionContext, shields *models.Card) (*ActionResult, error) {
	cont := sub.Continuation
	if cont == nil || sub.parent == nil {
		return nil, fmt.Errorf("%w: %s is not an interrupt window", ErrInvalidOperation, sub)
	}
	if cont.Resolved {
		return nil, ErrInterruptResolved
	}
	cont.Resolved = true
	root := sub.root()
	root.Interrupt = nil
	target := sub.AddressedPlayerIDs[0]

	if shields == nil {
		if cont.Kind == ResumePayment {
			o.SetNextDialog(root, DialogPayValue, root.InitiatorID, target)
			return nil, nil
		}
		return o.commit(root)
	}

	block := Cancellation{
		ActionID:      root.ID(),
		ActionType:    root.ActionType,
		InitiatorID:   root.InitiatorID,
		CardID:        root.Pending.CardID,
		Reason:        CancelBlocked,
		BlockedBy:     target,
		ShieldsCardID: shields.ID,
	}
	root.blocks = append(root.blocks, block)

	if cont.Kind == ResumePayment {
		root.Payers = removeID(root.Payers, target)
		root.Exempted = append(root.Exempted, target)
		if len(root.Payers) > 0 {
			return nil, o.openPayment(root)
		}
		if len(root.Payments) > 0 {
			return o.commit(root)
		}
	}
	root.cancellation = &block
	return nil, nil
}

// CompleteAction clears the store once an action produced its result.
func (o *Orchestrator) CompleteAction() {
	o.store.Clear()
}

func (o *Orchestrator) others(playerID uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, p := range o.players.GetAllPlayers() {
		if p.ID != playerID {
			out = append(out, p.ID)
		}
	}
	return out
}
