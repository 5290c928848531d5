// internal/action/params.go
package action

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/stardeal/internal/models"
)

// ParamKey names a stored parameter.
type ParamKey string

const (
	ParamTargetPlayers         ParamKey = "TargetPlayers"
	ParamMyPropertyToTradeID   ParamKey = "MyPropertyToTradeId"
	ParamTargetPropertyID      ParamKey = "TargetPropertyId"
	ParamSelectedPropertySetID ParamKey = "SelectedPropertySetId"
	ParamSelectedWildcardColor ParamKey = "SelectedWildcardColor"
	ParamPaymentCardIDs        ParamKey = "PaymentCardIds"
	ParamShieldsUp             ParamKey = "ShieldsUp"
)

// Params holds the values an action accumulates from player responses. Zero values
// mean absent.
type Params struct {
	TargetPlayers         []uuid.UUID          `json:"targetPlayers,omitempty" mapstructure:"targetPlayers"`
	MyPropertyToTradeID   uuid.UUID            `json:"myPropertyToTradeId,omitempty" mapstructure:"myPropertyToTradeId"`
	TargetPropertyID      uuid.UUID            `json:"targetPropertyId,omitempty" mapstructure:"targetPropertyId"`
	SelectedPropertySetID uuid.UUID            `json:"selectedPropertySetId,omitempty" mapstructure:"selectedPropertySetId"`
	SelectedWildcardColor models.PropertyColor `json:"selectedWildcardColor,omitempty" mapstructure:"selectedWildcardColor"`
	PaymentCardIDs        []uuid.UUID          `json:"paymentCardIds,omitempty" mapstructure:"paymentCardIds"`
	ShieldsUp             *bool                `json:"shieldsUp,omitempty" mapstructure:"shieldsUp"`
}

// DialogParams lists the keys a response to each dialog may set.
var DialogParams = map[DialogKind][]ParamKey{
	DialogSelectPlayer:          {ParamTargetPlayers},
	DialogSelectPropertySet:     {ParamSelectedPropertySetID},
	DialogSelectIndividualCards: {ParamTargetPropertyID, ParamMyPropertyToTradeID},
	DialogSelectWildcardColor:   {ParamSelectedWildcardColor},
	DialogPayValue:              {ParamPaymentCardIDs},
	DialogInterruptResponse:     {ParamShieldsUp},
}

// Merge overwrites p with the fields set in other. With keys given, only those
// fields are considered.
func (p *Params) Merge(other Params, keys ...ParamKey) {
	if len(keys) == 0 {
		keys = []ParamKey{
			ParamTargetPlayers, ParamMyPropertyToTradeID, ParamTargetPropertyID,
			ParamSelectedPropertySetID, ParamSelectedWildcardColor, ParamPaymentCardIDs, ParamShieldsUp,
		}
	}
	for _, key := range keys {
		if !other.Has(key) {
			continue
		}
		switch key {
		case ParamTargetPlayers:
			p.TargetPlayers = slices.Clone(other.TargetPlayers)
		case ParamMyPropertyToTradeID:
			p.MyPropertyToTradeID = other.MyPropertyToTradeID
		case ParamTargetPropertyID:
			p.TargetPropertyID = other.TargetPropertyID
		case ParamSelectedPropertySetID:
			p.SelectedPropertySetID = other.SelectedPropertySetID
		case ParamSelectedWildcardColor:
			p.SelectedWildcardColor = other.SelectedWildcardColor
		case ParamPaymentCardIDs:
			p.PaymentCardIDs = slices.Clone(other.PaymentCardIDs)
		case ParamShieldsUp:
			v := *other.ShieldsUp
			p.ShieldsUp = &v
		}
	}
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := p
	out.TargetPlayers = slices.Clone(p.TargetPlayers)
	out.PaymentCardIDs = slices.Clone(p.PaymentCardIDs)
	if p.ShieldsUp != nil {
		v := *p.ShieldsUp
		out.ShieldsUp = &v
	}
	return out
}

// Target returns the first target player, or uuid.Nil.
func (p Params) Target() uuid.UUID {
	if len(p.TargetPlayers) == 0 {
		return uuid.Nil
	}
	return p.TargetPlayers[0]
}

// SetWildcardColor stores the chosen wildcard color.
func (p *Params) SetWildcardColor(c models.PropertyColor) {
	p.SelectedWildcardColor = c
}

// WildcardColor reads the chosen wildcard color back.
func (p Params) WildcardColor() (models.PropertyColor, bool) {
	return p.SelectedWildcardColor, p.SelectedWildcardColor != ""
}

// Has reports whether the given key holds a value.
func (p Params) Has(key ParamKey) bool {
	switch key {
	case ParamTargetPlayers:
		return p.Target() != uuid.Nil
	case ParamMyPropertyToTradeID:
		return p.MyPropertyToTradeID != uuid.Nil
	case ParamTargetPropertyID:
		return p.TargetPropertyID != uuid.Nil
	case ParamSelectedPropertySetID:
		return p.SelectedPropertySetID != uuid.Nil
	case ParamSelectedWildcardColor:
		return p.SelectedWildcardColor != ""
	case ParamPaymentCardIDs:
		return len(p.PaymentCardIDs) > 0
	case ParamShieldsUp:
		return p.ShieldsUp != nil
	}
	return false
}
