// internal/models/models_test.go
package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prop(color PropertyColor) *Card {
	return &Card{ID: uuid.New(), Kind: KindProperty, Value: 1, Color: color}
}

func TestRentIsCappedAtSetSize(t *testing.T) {
	assert.Equal(t, 0, ColorAzure.Rent(0))
	assert.Equal(t, 3, ColorAzure.Rent(1))
	assert.Equal(t, 8, ColorAzure.Rent(2))
	assert.Equal(t, 8, ColorAzure.Rent(5))
	assert.Equal(t, 0, PropertyColor("plaid").Rent(2))
	assert.False(t, PropertyColor("plaid").Valid())
}

func TestAddPropertyGroupsByColor(t *testing.T) {
	p := &Player{ID: uuid.New()}
	first := p.AddProperty(prop(ColorUmber), ColorUmber)
	second := p.AddProperty(prop(ColorUmber), ColorUmber)
	require.Same(t, first, second)
	assert.True(t, first.IsComplete())

	// a full set does not take more cards
	third := p.AddProperty(prop(ColorUmber), ColorUmber)
	assert.NotSame(t, first, third)
	assert.Len(t, p.Properties, 2)
	assert.Equal(t, []PropertyColor{ColorUmber}, p.CompleteColors())
}

func TestWildcardTakesColor(t *testing.T) {
	wild := &Card{ID: uuid.New(), Kind: KindWildProperty, Value: 3, Colors: []PropertyColor{ColorCrimson, ColorGold}}
	assert.True(t, wild.CanBe(ColorGold))
	assert.False(t, wild.CanBe(ColorAzure))

	p := &Player{ID: uuid.New()}
	set := p.AddProperty(wild, ColorGold)
	assert.Equal(t, ColorGold, wild.Color)
	assert.Equal(t, ColorGold, set.Color)

	anything := &Card{ID: uuid.New(), Kind: KindWildProperty}
	assert.True(t, anything.CanBe(ColorObsidian))
	assert.False(t, anything.CanBe("plaid"))
}

func TestRemovePropertyOrphansConstruction(t *testing.T) {
	p := &Player{ID: uuid.New()}
	a, b := prop(ColorUmber), prop(ColorUmber)
	p.AddProperty(a, ColorUmber)
	set := p.AddProperty(b, ColorUmber)
	station := &Card{ID: uuid.New(), Kind: KindCommand, Command: ActionSpaceStation, Value: 3}
	set.SpaceStation = station

	card, orphaned := p.RemoveProperty(a.ID)
	require.NotNil(t, card)
	assert.Equal(t, a.ID, card.ID)
	assert.Equal(t, []*Card{station}, orphaned)
	assert.Nil(t, set.SpaceStation)

	card, orphaned = p.RemoveProperty(b.ID)
	require.NotNil(t, card)
	assert.Empty(t, orphaned)
	assert.Empty(t, p.Properties, "emptied sets are dropped")

	card, _ = p.RemoveProperty(uuid.New())
	assert.Nil(t, card)
}

func TestPayableTotalExcludesConstruction(t *testing.T) {
	p := &Player{ID: uuid.New()}
	p.Bank = []*Card{{ID: uuid.New(), Kind: KindMoney, Value: 5}}
	p.AddProperty(prop(ColorUmber), ColorUmber)
	set := p.AddProperty(prop(ColorUmber), ColorUmber)
	set.SpaceStation = &Card{ID: uuid.New(), Kind: KindCommand, Value: 3}

	assert.Equal(t, 7, p.PayableTotal())
	assert.Equal(t, 5, set.Value())
}

func TestHandHelpers(t *testing.T) {
	shields := &Card{ID: uuid.New(), Kind: KindCommand, Command: ActionShieldsUp}
	money := &Card{ID: uuid.New(), Kind: KindMoney, Value: 1}
	p := &Player{ID: uuid.New(), Hand: []*Card{money, shields}}

	assert.Same(t, shields, p.FindCommandInHand(ActionShieldsUp))
	assert.Nil(t, p.FindCommandInHand(ActionPirateRaid))
	assert.Same(t, money, p.RemoveFromHand(money.ID))
	assert.Nil(t, p.FindInHand(money.ID))
	assert.Len(t, p.Hand, 1)
}

func TestStandardDeck(t *testing.T) {
	deck := NewStandardDeck()
	ids := make(map[uuid.UUID]bool, len(deck))
	kinds := make(map[CardKind]int)
	commands := make(map[ActionType]int)
	for _, c := range deck {
		require.False(t, ids[c.ID], "duplicate card id")
		ids[c.ID] = true
		kinds[c.Kind]++
		if c.Kind == KindCommand {
			commands[c.Command]++
		}
	}

	assert.Equal(t, 20, kinds[KindMoney])
	assert.Equal(t, 10, kinds[KindWildProperty])
	props := 0
	for _, color := range AllColors {
		props += color.SetSize()
	}
	assert.Equal(t, props, kinds[KindProperty])
	assert.Equal(t, 10, commands[ActionTribute])
	assert.Equal(t, 3, commands[ActionShieldsUp])
	assert.Equal(t, 10, commands[ActionExploreNewSector])

	Shuffle(deck)
	assert.Len(t, deck, len(ids))
}
