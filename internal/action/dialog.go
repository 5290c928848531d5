// internal/action/dialog.go
package action

import (
	"slices"

	"github.com/jason-s-yu/stardeal/internal/models"
)

// DialogKind is the kind of input an action currently needs from a player.
type DialogKind string

const (
	DialogPayValue              DialogKind = "pay_value"
	DialogSelectPlayer          DialogKind = "select_player"
	DialogSelectPropertySet     DialogKind = "select_property_set"
	DialogInterruptResponse     DialogKind = "interrupt_response"
	DialogSelectIndividualCards DialogKind = "select_individual_cards"
	DialogSelectWildcardColor   DialogKind = "select_wildcard_color"
)

// Sequence is the fixed dialog order of an action type. The interrupt response and
// the wildcard color choice are inserted by the steps when they apply.
type Sequence struct {
	Dialogs       []DialogKind
	Interruptible bool
}

// Sequences is the action taxonomy.
var Sequences = map[models.ActionType]Sequence{
	models.ActionHostileTakeover:  {Dialogs: []DialogKind{DialogSelectPlayer, DialogSelectPropertySet}, Interruptible: true},
	models.ActionForcedTrade:      {Dialogs: []DialogKind{DialogSelectPlayer, DialogSelectIndividualCards}, Interruptible: true},
	models.ActionPirateRaid:       {Dialogs: []DialogKind{DialogSelectPlayer, DialogSelectIndividualCards}, Interruptible: true},
	models.ActionBountyHunter:     {Dialogs: []DialogKind{DialogSelectPlayer, DialogPayValue}, Interruptible: true},
	models.ActionTradeDividend:    {Dialogs: []DialogKind{DialogPayValue}},
	models.ActionExploreNewSector: {},
	models.ActionSpaceStation:     {Dialogs: []DialogKind{DialogSelectPropertySet}},
	models.ActionStarbase:         {Dialogs: []DialogKind{DialogSelectPropertySet}},
	models.ActionTradeEmbargo:     {Dialogs: []DialogKind{DialogSelectPropertySet}},
	models.ActionTribute:          {Dialogs: []DialogKind{DialogSelectPropertySet, DialogPayValue}, Interruptible: true},
	models.ActionWildTribute:      {Dialogs: []DialogKind{DialogSelectPropertySet, DialogSelectPlayer, DialogPayValue}, Interruptible: true},
}

// NextDialog returns the dialog that follows current in the sequence of t, or nil
// when current is the last one. Dialogs outside the base sequence (interrupt,
// wildcard color) resolve to the dialog after the sequence's card selection.
func NextDialog(t models.ActionType, current DialogKind) *DialogKind {
	seq := Sequences[t]
	if current == DialogSelectWildcardColor {
		current = DialogSelectIndividualCards
	}
	i := slices.Index(seq.Dialogs, current)
	if i < 0 || i+1 >= len(seq.Dialogs) {
		return nil
	}
	next := seq.Dialogs[i+1]
	return &next
}

// IsInterruptible reports whether the targeted player gets a shields-up window.
func IsInterruptible(t models.ActionType) bool {
	return Sequences[t].Interruptible
}
