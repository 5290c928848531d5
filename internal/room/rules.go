// internal/room/rules.go
package room

import (
	"fmt"
	"os"

	"github.com/jason-s-yu/stardeal/internal/action"
	"gopkg.in/yaml.v3"
)

// HouseRules are the per-room settings. Amount fields feed the action engine.
type HouseRules struct {
	MaxPlayers      int `json:"maxPlayers" yaml:"maxPlayers"`
	DealCount       int `json:"dealCount" yaml:"dealCount"`             // cards dealt to each player at start
	DrawPerTurn     int `json:"drawPerTurn" yaml:"drawPerTurn"`         // cards drawn at the start of a turn
	DrawOnEmptyHand int `json:"drawOnEmptyHand" yaml:"drawOnEmptyHand"` // replaces DrawPerTurn when the hand is empty
	PlaysPerTurn    int `json:"playsPerTurn" yaml:"playsPerTurn"`
	SetsToWin       int `json:"setsToWin" yaml:"setsToWin"` // complete sets of distinct colors needed to win

	BountyAmount      int `json:"bountyAmount" yaml:"bountyAmount"`
	DividendAmount    int `json:"dividendAmount" yaml:"dividendAmount"`
	ExploreDrawCount  int `json:"exploreDrawCount" yaml:"exploreDrawCount"`
	SpaceStationBonus int `json:"spaceStationBonus" yaml:"spaceStationBonus"`
	StarbaseBonus     int `json:"starbaseBonus" yaml:"starbaseBonus"`
	EmbargoMultiplier int `json:"embargoMultiplier" yaml:"embargoMultiplier"`

	// ResponseTimeoutSec > 0 answers for players who leave a dialog open that long.
	ResponseTimeoutSec int `json:"responseTimeoutSec" yaml:"responseTimeoutSec"`
}

// DefaultHouseRules returns the standard rules.
func DefaultHouseRules() HouseRules {
	r := action.DefaultRules()
	return HouseRules{
		MaxPlayers:        5,
		DealCount:         5,
		DrawPerTurn:       2,
		DrawOnEmptyHand:   5,
		PlaysPerTurn:      3,
		SetsToWin:         3,
		BountyAmount:      r.BountyAmount,
		DividendAmount:    r.DividendAmount,
		ExploreDrawCount:  r.ExploreDrawCount,
		SpaceStationBonus: r.SpaceStationBonus,
		StarbaseBonus:     r.StarbaseBonus,
		EmbargoMultiplier: r.EmbargoMultiplier,
	}
}

// LoadHouseRules reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func LoadHouseRules(path string) (HouseRules, error) {
	rules := DefaultHouseRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read house rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse house rules %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("house rules %s: %w", path, err)
	}
	return rules, nil
}

// ActionRules projects the amounts the action engine applies.
func (rules HouseRules) ActionRules() action.Rules {
	return action.Rules{
		BountyAmount:      rules.BountyAmount,
		DividendAmount:    rules.DividendAmount,
		ExploreDrawCount:  rules.ExploreDrawCount,
		SpaceStationBonus: rules.SpaceStationBonus,
		StarbaseBonus:     rules.StarbaseBonus,
		EmbargoMultiplier: rules.EmbargoMultiplier,
	}
}

// Validate rejects rules a room cannot be played with.
func (rules HouseRules) Validate() error {
	switch {
	case rules.MaxPlayers < 2:
		return fmt.Errorf("maxPlayers must be at least 2")
	case rules.PlaysPerTurn < 1:
		return fmt.Errorf("playsPerTurn must be at least 1")
	case rules.SetsToWin < 1:
		return fmt.Errorf("setsToWin must be at least 1")
	case rules.EmbargoMultiplier < 1:
		return fmt.Errorf("embargoMultiplier must be at least 1")
	}
	return nil
}

// Update applies the rules present in newRules. Absent or nil keys keep the
// current value.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		// JSON numbers decode as float64
		switch v := val.(type) {
		case float64:
			*field = int(v)
		case int:
			*field = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if *field < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		return nil
	}

	fields := []struct {
		key   string
		field *int
		min   int
	}{
		{"maxPlayers", &rules.MaxPlayers, 2},
		{"dealCount", &rules.DealCount, 0},
		{"drawPerTurn", &rules.DrawPerTurn, 0},
		{"drawOnEmptyHand", &rules.DrawOnEmptyHand, 0},
		{"playsPerTurn", &rules.PlaysPerTurn, 1},
		{"setsToWin", &rules.SetsToWin, 1},
		{"bountyAmount", &rules.BountyAmount, 0},
		{"dividendAmount", &rules.DividendAmount, 0},
		{"exploreDrawCount", &rules.ExploreDrawCount, 0},
		{"spaceStationBonus", &rules.SpaceStationBonus, 0},
		{"starbaseBonus", &rules.StarbaseBonus, 0},
		{"embargoMultiplier", &rules.EmbargoMultiplier, 1},
		{"responseTimeoutSec", &rules.ResponseTimeoutSec, 0},
	}
	for _, f := range fields {
		if err := assignInt(f.field, f.key, f.min); err != nil {
			return err
		}
	}
	return nil
}

// ParseRules applies rules over a copy of current.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}
