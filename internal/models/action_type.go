// internal/models/action_type.go
package models

// ActionType identifies the command a command card initiates.
type ActionType string

const (
	ActionHostileTakeover  ActionType = "hostile_takeover"
	ActionForcedTrade      ActionType = "forced_trade"
	ActionPirateRaid       ActionType = "pirate_raid"
	ActionBountyHunter     ActionType = "bounty_hunter"
	ActionTradeDividend    ActionType = "trade_dividend"
	ActionExploreNewSector ActionType = "explore_new_sector"
	ActionSpaceStation     ActionType = "space_station"
	ActionStarbase         ActionType = "starbase"
	ActionTradeEmbargo     ActionType = "trade_embargo"
	ActionTribute          ActionType = "tribute"
	ActionWildTribute      ActionType = "wild_tribute"
	ActionShieldsUp        ActionType = "shields_up"
)
