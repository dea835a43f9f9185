package handhistory

import (
	"fmt"
	"strings"

	"github.com/paulhankin/poker"
)

var rankValues = map[string]poker.Rank{
	"a": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9,
	"t": 10, "10": 10, "j": 11, "q": 12, "k": 13,
}

var suitValues = map[byte]poker.Suit{
	'c': poker.Club,
	'd': poker.Diamond,
	'h': poker.Heart,
	's': poker.Spade,
}

// ParseCard converts a token such as "Ah", "Td" or "10c" to a poker.Card.
func ParseCard(tok string) (poker.Card, error) {
	var zero poker.Card
	low := strings.ToLower(strings.TrimSpace(tok))
	if len(low) < 2 {
		return zero, fmt.Errorf("card %q: too short", tok)
	}
	suit, ok := suitValues[low[len(low)-1]]
	if !ok {
		return zero, fmt.Errorf("card %q: unknown suit", tok)
	}
	rank, ok := rankValues[low[:len(low)-1]]
	if !ok {
		return zero, fmt.Errorf("card %q: unknown rank", tok)
	}
	c, err := poker.MakeCard(suit, rank)
	if err != nil {
		return zero, fmt.Errorf("card %q: %w", tok, err)
	}
	return c, nil
}

// Review lists problems a human should look at before accepting a parsed
// record. It does not modify the record.
func Review(rec Record) []string {
	var out []string
	switch len(rec.Board) {
	case 0, 3, 4, 5:
	default:
		out = append(out, fmt.Sprintf("board has %d cards", len(rec.Board)))
	}
	seen := map[poker.Card]string{}
	for _, tok := range rec.Board {
		c, err := ParseCard(tok)
		if err != nil {
			out = append(out, "board: "+err.Error())
			continue
		}
		if prev, dup := seen[c]; dup {
			out = append(out, fmt.Sprintf("board: %q duplicates %q", tok, prev))
			continue
		}
		seen[c] = tok
	}
	for _, p := range rec.Players {
		for _, tok := range p.Cards {
			if _, err := ParseCard(tok); err != nil {
				out = append(out, fmt.Sprintf("seat %d: %v", p.Seat, err))
			}
		}
	}
	if len(rec.Players) == 0 {
		out = append(out, "no seats recognised")
	}
	if rec.Result.Winner == "" {
		out = append(out, "winner missing")
	}
	return out
}
