// internal/models/player.go
package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

type Player struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Hand       []*Card         `json:"hand"`
	Bank       []*Card         `json:"bank"`
	Properties []*PropertySet  `json:"properties"`
	Connected  bool            `json:"connected"`
	Conn       *websocket.Conn `json:"-"`
}

// FindInHand returns the hand card with the given id.
func (p *Player) FindInHand(cardID uuid.UUID) *Card {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// RemoveFromHand takes the card out of the hand and returns it, or nil.
func (p *Player) RemoveFromHand(cardID uuid.UUID) *Card {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c
		}
	}
	return nil
}

// FindCommandInHand returns the first command card of the given type in hand.
func (p *Player) FindCommandInHand(t ActionType) *Card {
	for _, c := range p.Hand {
		if c.Kind == KindCommand && c.Command == t {
			return c
		}
	}
	return nil
}

// FindSet returns the property set with the given id.
func (p *Player) FindSet(setID uuid.UUID) *PropertySet {
	for _, s := range p.Properties {
		if s.ID == setID {
			return s
		}
	}
	return nil
}

// FindProperty locates a property card among the player's sets.
func (p *Player) FindProperty(cardID uuid.UUID) (*Card, *PropertySet) {
	for _, s := range p.Properties {
		if c, _ := s.FindCard(cardID); c != nil {
			return c, s
		}
	}
	return nil, nil
}

// FindBank returns the bank card with the given id.
func (p *Player) FindBank(cardID uuid.UUID) *Card {
	for _, c := range p.Bank {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// AddProperty lays the card down under color, joining the first incomplete set of
// that color or opening a new one. Wildcards take the color.
func (p *Player) AddProperty(card *Card, color PropertyColor) *PropertySet {
	if card.IsWild() {
		card.Color = color
	}
	for _, s := range p.Properties {
		if s.Color == color && !s.IsComplete() {
			s.Cards = append(s.Cards, card)
			return s
		}
	}
	s := NewPropertySet(color)
	s.Cards = append(s.Cards, card)
	p.Properties = append(p.Properties, s)
	return s
}

// RemoveProperty takes a property card out of its set. Emptied sets are dropped
// and any construction on them is returned alongside the card.
func (p *Player) RemoveProperty(cardID uuid.UUID) (*Card, []*Card) {
	for i, s := range p.Properties {
		c, idx := s.FindCard(cardID)
		if c == nil {
			continue
		}
		s.Cards = append(s.Cards[:idx], s.Cards[idx+1:]...)
		var orphaned []*Card
		if !s.IsComplete() {
			// construction only stands on complete sets
			if s.SpaceStation != nil {
				orphaned = append(orphaned, s.SpaceStation)
				s.SpaceStation = nil
			}
			if s.Starbase != nil {
				orphaned = append(orphaned, s.Starbase)
				s.Starbase = nil
			}
		}
		if len(s.Cards) == 0 {
			p.Properties = append(p.Properties[:i], p.Properties[i+1:]...)
		}
		return c, orphaned
	}
	return nil, nil
}

// RemoveSet detaches a whole set from the player.
func (p *Player) RemoveSet(setID uuid.UUID) *PropertySet {
	for i, s := range p.Properties {
		if s.ID == setID {
			p.Properties = append(p.Properties[:i], p.Properties[i+1:]...)
			return s
		}
	}
	return nil
}

// RemoveBank takes a card out of the bank.
func (p *Player) RemoveBank(cardID uuid.UUID) *Card {
	for i, c := range p.Bank {
		if c.ID == cardID {
			p.Bank = append(p.Bank[:i], p.Bank[i+1:]...)
			return c
		}
	}
	return nil
}

// PayableTotal is everything the player could hand over as payment: bank cards and
// property cards. Construction is not payable.
func (p *Player) PayableTotal() int {
	total := 0
	for _, c := range p.Bank {
		total += c.Value
	}
	for _, s := range p.Properties {
		for _, c := range s.Cards {
			total += c.Value
		}
	}
	return total
}

// CompleteColors returns the distinct colors of the player's complete sets.
func (p *Player) CompleteColors() []PropertyColor {
	seen := make(map[PropertyColor]bool)
	var out []PropertyColor
	for _, s := range p.Properties {
		if s.IsComplete() && !seen[s.Color] {
			seen[s.Color] = true
			out = append(out, s.Color)
		}
	}
	return out
}
