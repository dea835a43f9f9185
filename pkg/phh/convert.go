package phh

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"handscan/pkg/handhistory"
)

var blindsRE = regexp.MustCompile(`^\s*([0-9][0-9,]*)\s*/\s*([0-9][0-9,]*)`)

var rankLetters = map[string]string{
	"a": "A", "k": "K", "q": "Q", "j": "J", "t": "T", "10": "T",
	"9": "9", "8": "8", "7": "7", "6": "6", "5": "5", "4": "4", "3": "3", "2": "2",
}

// NormalizeCard rewrites a card token in PHH notation ("10h" -> "Th").
// Tokens that are not cards come back as "??".
func NormalizeCard(tok string) string {
	if _, err := handhistory.ParseCard(tok); err != nil {
		return "??"
	}
	low := strings.ToLower(strings.TrimSpace(tok))
	return rankLetters[low[:len(low)-1]] + low[len(low)-1:]
}

func joinCards(cards []string) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(NormalizeCard(c))
	}
	return b.String()
}

// ParseBlinds reads "small/big" from the tournament blinds text.
func ParseBlinds(s string) (small, big int64, ok bool) {
	m := blindsRE.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	small, err1 := strconv.ParseInt(strings.ReplaceAll(m[1], ",", ""), 10, 64)
	big, err2 := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return small, big, true
}

// dealt board cards per street, counted from the start of the board
var boardUpTo = map[string]int{
	handhistory.StreetFlop:  3,
	handhistory.StreetTurn:  4,
	handhistory.StreetRiver: 5,
}

var postflop = []string{handhistory.StreetFlop, handhistory.StreetTurn, handhistory.StreetRiver}

type converter struct {
	rec     handhistory.Record
	index   map[string]int
	dealt   int
	actions []string
}

// dealThrough emits board deals up to and including street, as far as the
// record's board allows.
func (c *converter) dealThrough(street string) {
	for _, s := range postflop {
		upTo := boardUpTo[s]
		if upTo > boardUpTo[street] {
			return
		}
		if c.dealt >= upTo || len(c.rec.Board) < upTo {
			continue
		}
		c.actions = append(c.actions, "d db "+joinCards(c.rec.Board[c.dealt:upTo]))
		c.dealt = upTo
	}
}

func (c *converter) action(a handhistory.Action) string {
	idx, ok := c.index[a.Player]
	if !ok {
		return fmt.Sprintf("# %s %s", a.Player, a.Action)
	}
	p := fmt.Sprintf("p%d", idx+1)
	switch a.Action {
	case handhistory.ActionFold:
		return p + " f"
	case handhistory.ActionCheck, handhistory.ActionCall:
		return p + " cc"
	case handhistory.ActionBet, handhistory.ActionRaise:
		if a.Amount == nil {
			return fmt.Sprintf("# %s %s", p, a.Action)
		}
		return fmt.Sprintf("%s cbr %d", p, *a.Amount)
	}
	return fmt.Sprintf("# %s %s", p, a.Action)
}

// FromRecord maps a parsed record onto PHH fields. Seated players become
// p1..pN in seat-line order; actions by unseated names are kept as comments.
func FromRecord(rec handhistory.Record, handID string) *HandHistory {
	n := len(rec.Players)
	hh := &HandHistory{
		Variant:           "NT",
		Event:             rec.TournamentInfo.Name,
		HandID:            handID,
		Antes:             make([]int64, n),
		BlindsOrStraddles: make([]int64, n),
		StartingStacks:    make([]int64, n),
		Players:           make([]string, n),
		Seats:             make([]int, n),
	}

	c := &converter{rec: rec, index: map[string]int{}, actions: []string{}}
	for i, p := range rec.Players {
		hh.Players[i] = p.Name
		hh.Seats[i] = p.Seat
		hh.StartingStacks[i] = int64(math.Round(p.Stack))
		hh.Antes[i] = rec.TournamentInfo.Ante
		if _, dup := c.index[p.Name]; !dup {
			c.index[p.Name] = i
		}
		hole := "????"
		if len(p.Cards) > 0 {
			hole = joinCards(p.Cards)
		}
		c.actions = append(c.actions, fmt.Sprintf("d dh p%d %s", i+1, hole))
	}

	if small, big, ok := ParseBlinds(rec.TournamentInfo.Blinds); ok {
		hh.MinBet = big
		for i, v := range []int64{small, big} {
			if i < n {
				hh.BlindsOrStraddles[i] = v
			}
		}
	}

	for _, a := range rec.Actions {
		if a.Street != handhistory.StreetPreflop {
			c.dealThrough(a.Street)
		}
		c.actions = append(c.actions, c.action(a))
	}
	c.dealThrough(handhistory.StreetRiver)
	hh.Actions = c.actions

	meta := map[string]any{}
	if rec.Result.Winner != "" {
		meta["winner"] = rec.Result.Winner
	}
	if rec.Result.Pot > 0 {
		meta["pot"] = rec.Result.Pot
	}
	if rec.Result.WinningHand != "" {
		meta["winning_hand"] = rec.Result.WinningHand
	}
	if rec.TournamentInfo.Blinds != "" {
		meta["blinds"] = rec.TournamentInfo.Blinds
	}
	if len(meta) > 0 {
		hh.Metadata = meta
	}
	return hh
}
