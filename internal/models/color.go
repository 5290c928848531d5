// internal/models/color.go
package models

// PropertyColor names a property group.
type PropertyColor string

const (
	ColorUmber    PropertyColor = "umber"
	ColorCyan     PropertyColor = "cyan"
	ColorViolet   PropertyColor = "violet"
	ColorAmber    PropertyColor = "amber"
	ColorCrimson  PropertyColor = "crimson"
	ColorGold     PropertyColor = "gold"
	ColorEmerald  PropertyColor = "emerald"
	ColorAzure    PropertyColor = "azure"
	ColorObsidian PropertyColor = "obsidian" // warp gates
	ColorIvory    PropertyColor = "ivory"    // refineries
)

type colorInfo struct {
	rent         []int // rent by number of cards in the set
	construction bool  // space stations and starbases may be built
}

var colorTable = map[PropertyColor]colorInfo{
	ColorUmber:    {rent: []int{1, 2}, construction: true},
	ColorCyan:     {rent: []int{1, 2, 3}, construction: true},
	ColorViolet:   {rent: []int{1, 2, 4}, construction: true},
	ColorAmber:    {rent: []int{1, 3, 5}, construction: true},
	ColorCrimson:  {rent: []int{2, 3, 6}, construction: true},
	ColorGold:     {rent: []int{2, 4, 6}, construction: true},
	ColorEmerald:  {rent: []int{2, 4, 7}, construction: true},
	ColorAzure:    {rent: []int{3, 8}, construction: true},
	ColorObsidian: {rent: []int{1, 2, 3, 4}},
	ColorIvory:    {rent: []int{1, 2}},
}

// AllColors lists every property color in table order.
var AllColors = []PropertyColor{
	ColorUmber, ColorCyan, ColorViolet, ColorAmber, ColorCrimson,
	ColorGold, ColorEmerald, ColorAzure, ColorObsidian, ColorIvory,
}

// Valid reports whether c is a known color.
func (c PropertyColor) Valid() bool {
	_, ok := colorTable[c]
	return ok
}

// SetSize is the number of cards that completes a set of this color.
func (c PropertyColor) SetSize() int {
	return len(colorTable[c].rent)
}

// AllowsConstruction reports whether stations can be built on a set of this color.
func (c PropertyColor) AllowsConstruction() bool {
	return colorTable[c].construction
}

// Rent returns the base rent for a set of this color holding n cards.
// Cards beyond the set size do not raise the rent.
func (c PropertyColor) Rent(n int) int {
	table := colorTable[c].rent
	if n <= 0 || len(table) == 0 {
		return 0
	}
	if n > len(table) {
		n = len(table)
	}
	return table[n-1]
}
