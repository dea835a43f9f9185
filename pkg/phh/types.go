// Package phh converts parsed hand histories to the Poker Hand History
// (PHH) TOML format.
package phh

// HandHistory is the subset of PHH fields a parsed record can fill.
type HandHistory struct {
	Variant           string         `toml:"variant"`
	Event             string         `toml:"event,omitempty"`
	Seats             []int          `toml:"seats,omitempty"`
	Antes             []int64        `toml:"antes"`
	BlindsOrStraddles []int64        `toml:"blinds_or_straddles"`
	MinBet            int64          `toml:"min_bet"`
	StartingStacks    []int64        `toml:"starting_stacks"`
	Actions           []string       `toml:"actions"`
	Players           []string       `toml:"players,omitempty"`
	HandID            string         `toml:"hand,omitempty"`
	Metadata          map[string]any `toml:"metadata,omitempty"`
}
