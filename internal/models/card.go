// internal/models/card.go
package models

import (
	"slices"

	"github.com/google/uuid"
)

// CardKind distinguishes how a card may be played.
type CardKind string

const (
	KindMoney        CardKind = "money"
	KindProperty     CardKind = "property"
	KindWildProperty CardKind = "wild_property"
	KindCommand      CardKind = "command"
)

// Card is a single card in a room. Property cards carry a fixed Color; wildcard
// properties list the colors they may represent in Colors (empty means any) and
// record the color they currently sit under in Color. Tribute commands reuse
// Colors for the colors they may charge.
type Card struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Kind    CardKind        `json:"kind"`
	Value   int             `json:"value"`
	Color   PropertyColor   `json:"color,omitempty"`
	Colors  []PropertyColor `json:"colors,omitempty"`
	Command ActionType      `json:"command,omitempty"`
}

// IsWild reports whether the card is a wildcard property.
func (c *Card) IsWild() bool {
	return c.Kind == KindWildProperty
}

// IsProperty reports whether the card can be laid down as a property.
func (c *Card) IsProperty() bool {
	return c.Kind == KindProperty || c.Kind == KindWildProperty
}

// CanBe reports whether the card may sit in a set of the given color.
func (c *Card) CanBe(color PropertyColor) bool {
	if !color.Valid() {
		return false
	}
	switch c.Kind {
	case KindProperty:
		return c.Color == color
	case KindWildProperty:
		return len(c.Colors) == 0 || slices.Contains(c.Colors, color)
	}
	return false
}
