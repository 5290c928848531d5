package models

import "github.com/google/uuid"

// PropertySet groups a player's property cards of one color together with any
// construction built on it.
type PropertySet struct {
	ID           uuid.UUID     `json:"id"`
	Color        PropertyColor `json:"color"`
	Cards        []*Card       `json:"cards"`
	SpaceStation *Card         `json:"spaceStation,omitempty"`
	Starbase     *Card         `json:"starbase,omitempty"`
	Embargoed    bool          `json:"embargoed"`
}

// NewPropertySet creates an empty set of the given color.
func NewPropertySet(color PropertyColor) *PropertySet {
	return &PropertySet{ID: uuid.New(), Color: color}
}

// IsComplete reports whether the set holds enough cards to be a full set.
func (s *PropertySet) IsComplete() bool {
	return s.Color.Valid() && len(s.Cards) >= s.Color.SetSize()
}

// BaseRent is the rent from the cards alone.
func (s *PropertySet) BaseRent() int {
	return s.Color.Rent(len(s.Cards))
}

// FindCard returns the card with the given id, if it sits in this set.
func (s *PropertySet) FindCard(cardID uuid.UUID) (*Card, int) {
	for i, c := range s.Cards {
		if c.ID == cardID {
			return c, i
		}
	}
	return nil, -1
}

// Value is the bank value of every card in the set, construction included.
func (s *PropertySet) Value() int {
	total := 0
	for _, c := range s.Cards {
		total += c.Value
	}
	if s.SpaceStation != nil {
		total += s.SpaceStation.Value
	}
	if s.Starbase != nil {
		total += s.Starbase.Value
	}
	return total
}
