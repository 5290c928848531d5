// internal/models/deck.go
package models

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var propertyValues = map[PropertyColor]int{
	ColorUmber: 1, ColorCyan: 1, ColorViolet: 2, ColorAmber: 2, ColorCrimson: 3,
	ColorGold: 3, ColorEmerald: 4, ColorAzure: 4, ColorObsidian: 2, ColorIvory: 2,
}

type commandSpec struct {
	t     ActionType
	name  string
	value int
	count int
}

var commandCatalog = []commandSpec{
	{ActionHostileTakeover, "Hostile Takeover", 5, 2},
	{ActionForcedTrade, "Forced Trade", 3, 3},
	{ActionPirateRaid, "Pirate Raid", 3, 3},
	{ActionBountyHunter, "Bounty Hunter", 3, 3},
	{ActionTradeDividend, "Trade Dividend", 2, 3},
	{ActionExploreNewSector, "Explore New Sector", 1, 10},
	{ActionSpaceStation, "Space Station", 3, 3},
	{ActionStarbase, "Starbase", 4, 2},
	{ActionTradeEmbargo, "Trade Embargo", 1, 2},
	{ActionShieldsUp, "Shields Up", 4, 3},
	{ActionWildTribute, "Wild Tribute", 3, 3},
}

var tributePairs = [][2]PropertyColor{
	{ColorUmber, ColorCyan},
	{ColorViolet, ColorAmber},
	{ColorCrimson, ColorGold},
	{ColorEmerald, ColorAzure},
	{ColorObsidian, ColorIvory},
}

var wildPairs = []struct {
	colors []PropertyColor
	value  int
	count  int
}{
	{[]PropertyColor{ColorAzure, ColorEmerald}, 4, 1},
	{[]PropertyColor{ColorCyan, ColorUmber}, 1, 1},
	{[]PropertyColor{ColorObsidian, ColorEmerald}, 4, 1},
	{[]PropertyColor{ColorCrimson, ColorGold}, 3, 2},
	{[]PropertyColor{ColorViolet, ColorAmber}, 2, 2},
	{[]PropertyColor{ColorIvory, ColorObsidian}, 2, 1},
	{nil, 0, 2},
}

// NewStandardDeck builds the standard card set in catalog order. Callers shuffle.
func NewStandardDeck() []*Card {
	var deck []*Card
	add := func(c *Card) {
		c.ID = uuid.New()
		deck = append(deck, c)
	}

	for value, count := range map[int]int{1: 6, 2: 5, 3: 3, 4: 3, 5: 2, 10: 1} {
		for i := 0; i < count; i++ {
			add(&Card{Name: fmt.Sprintf("%dM Credits", value), Kind: KindMoney, Value: value})
		}
	}
	for _, color := range AllColors {
		for i := 0; i < color.SetSize(); i++ {
			add(&Card{Name: string(color) + " property", Kind: KindProperty, Value: propertyValues[color], Color: color})
		}
	}
	for _, w := range wildPairs {
		for i := 0; i < w.count; i++ {
			add(&Card{Name: "Wild property", Kind: KindWildProperty, Value: w.value, Colors: w.colors})
		}
	}
	for _, spec := range commandCatalog {
		for i := 0; i < spec.count; i++ {
			add(&Card{Name: spec.name, Kind: KindCommand, Value: spec.value, Command: spec.t})
		}
	}
	for _, pair := range tributePairs {
		for i := 0; i < 2; i++ {
			add(&Card{
				Name:    fmt.Sprintf("Tribute (%s/%s)", pair[0], pair[1]),
				Kind:    KindCommand,
				Value:   1,
				Command: ActionTribute,
				Colors:  []PropertyColor{pair[0], pair[1]},
			})
		}
	}
	return deck
}

// Shuffle shuffles the deck in place with a time-seeded source.
func Shuffle(deck []*Card) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
