// internal/action/rules.go
package action

// Rules are the amounts the engine applies. Rooms derive them from house rules.
type Rules struct {
	BountyAmount      int
	DividendAmount    int
	ExploreDrawCount  int
	SpaceStationBonus int
	StarbaseBonus     int
	EmbargoMultiplier int
}

// DefaultRules returns the standard amounts.
func DefaultRules() Rules {
	return Rules{
		BountyAmount:      5,
		DividendAmount:    2,
		ExploreDrawCount:  2,
		SpaceStationBonus: 3,
		StarbaseBonus:     4,
		EmbargoMultiplier: 2,
	}
}
