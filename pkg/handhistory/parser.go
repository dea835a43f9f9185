package handhistory

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// StackSuffix selects how a trailing k/K on a seat stack is interpreted.
type StackSuffix int

const (
	// StackSuffixLegacy rewrites the suffix as the text "000" before parsing,
	// so "15k" reads 15000 but "1.5k" reads 1.5000 (= 1.5). Existing stored
	// hands were produced this way.
	StackSuffixLegacy StackSuffix = iota
	// StackSuffixMultiply multiplies the parsed number by 1000.
	StackSuffixMultiply
)

// ParseStackSuffix maps a config value ("legacy", "multiply") to a StackSuffix.
func ParseStackSuffix(s string) (StackSuffix, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy", "text":
		return StackSuffixLegacy, true
	case "multiply", "numeric", "x1000":
		return StackSuffixMultiply, true
	}
	return StackSuffixLegacy, false
}

type parseOptions struct {
	suffix StackSuffix
}

// Option tunes ParseText.
type Option func(*parseOptions)

// WithStackSuffix sets the k/K stack suffix interpretation.
func WithStackSuffix(s StackSuffix) Option {
	return func(o *parseOptions) { o.suffix = s }
}

var (
	seatRE  = regexp.MustCompile(`\bSeat\s+(\d+)\s*:\s*(.+?)\s*\(\s*([0-9][0-9.,]*)\s*([kK])?\s*(?:chips)?\s*\)`)
	boardRE = regexp.MustCompile(`\[([^\]]*)\]`)
	digitRE = regexp.MustCompile(`\d+`)

	actionPatterns = []struct {
		verb string
		re   *regexp.Regexp
	}{
		{ActionFold, regexp.MustCompile(`^(.+?):\s*folds?\b`)},
		{ActionCheck, regexp.MustCompile(`^(.+?):\s*checks?\b`)},
		{ActionCall, regexp.MustCompile(`^(.+?):\s*calls?\s+([0-9][0-9,]*)`)},
		{ActionBet, regexp.MustCompile(`^(.+?):\s*bets?\s+([0-9][0-9,]*)`)},
		{ActionRaise, regexp.MustCompile(`^(.+?):\s*raises?\s+(?:to\s+)?([0-9][0-9,]*)`)},
	}

	streetMarkers = []struct {
		prefix string
		street string
	}{
		{"** PRE-FLOP **", StreetPreflop},
		{"** FLOP **", StreetFlop},
		{"** TURN **", StreetTurn},
		{"** RIVER **", StreetRiver},
	}
)

// lineState carries what survives from one line to the next.
type lineState struct {
	street string
	rec    Record
}

// ParseText turns OCR'd hand-history text into a Record. It never fails:
// lines that match nothing are dropped. Each call starts from an empty record
// on the preflop street.
func ParseText(raw string, opts ...Option) Record {
	o := parseOptions{suffix: StackSuffixLegacy}
	for _, opt := range opts {
		opt(&o)
	}
	st := lineState{street: StreetPreflop, rec: NewRecord()}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		st.apply(line, o)
	}
	return st.rec
}

func (st *lineState) apply(line string, o parseOptions) {
	if strings.HasPrefix(line, "Tournament:") {
		st.rec.TournamentInfo.Name = afterColon(line)
	}
	if strings.HasPrefix(line, "Blinds:") {
		st.rec.TournamentInfo.Blinds = afterColon(line)
	}
	if strings.HasPrefix(line, "Ante:") {
		if n, ok := firstNumber(line); ok {
			st.rec.TournamentInfo.Ante = n
		}
	}
	if strings.Contains(line, "Seat") && strings.Contains(line, ":") {
		if p, ok := parseSeat(line, o.suffix); ok {
			st.rec.Players = append(st.rec.Players, p)
		}
	}
	st.applyStreetMarker(line)

	if a, ok := parseAction(line); ok {
		a.Street = st.street
		st.rec.Actions = append(st.rec.Actions, a)
		return
	}

	if strings.Contains(line, "Total pot") {
		if n, ok := firstNumber(line); ok {
			st.rec.Result.Pot = n
		}
	}
	if i := strings.Index(line, "Winner:"); i >= 0 {
		st.rec.Result.Winner = strings.TrimSpace(line[i+len("Winner:"):])
	}
}

func (st *lineState) applyStreetMarker(line string) {
	for _, m := range streetMarkers {
		if !strings.HasPrefix(line, m.prefix) {
			continue
		}
		if streetOrder[m.street] >= streetOrder[st.street] {
			st.street = m.street
		}
		if m.street == StreetFlop {
			if sm := boardRE.FindStringSubmatch(line); sm != nil {
				st.rec.Board = append([]string{}, strings.Fields(sm[1])...)
			}
		}
		return
	}
}

func parseSeat(line string, suffix StackSuffix) (Player, bool) {
	m := seatRE.FindStringSubmatch(line)
	if m == nil {
		return Player{}, false
	}
	seat, err := strconv.Atoi(m[1])
	if err != nil || seat <= 0 {
		return Player{}, false
	}
	stack, ok := parseStack(m[3], m[4], suffix)
	if !ok {
		return Player{}, false
	}
	return Player{
		Seat:  seat,
		Name:  strings.TrimSpace(m[2]),
		Stack: stack,
		Cards: []string{},
	}, true
}

func parseStack(num, k string, suffix StackSuffix) (float64, bool) {
	num = strings.ReplaceAll(num, ",", "")
	if k != "" && suffix == StackSuffixLegacy {
		num += "000"
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	if k != "" && suffix == StackSuffixMultiply {
		v *= 1000
	}
	return v, true
}

func parseAction(line string) (Action, bool) {
	for _, p := range actionPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		a := Action{Player: strings.TrimSpace(m[1]), Action: p.verb}
		if len(m) > 2 {
			n, err := parseAmount(strings.ReplaceAll(m[2], ",", ""))
			if err != nil {
				continue
			}
			a.Amount = &n
		}
		return a, true
	}
	return Action{}, false
}

func afterColon(line string) string {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(line[i+1:])
}

// firstNumber returns the first run of decimal digits anywhere in s.
func firstNumber(s string) (int64, bool) {
	d := digitRE.FindString(s)
	if d == "" {
		return 0, false
	}
	n, err := parseAmount(d)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseAmount reads a run of digits. Runs too long for int64 clamp to
// math.MaxInt64.
func parseAmount(d string) (int64, error) {
	n, err := strconv.ParseInt(d, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64, nil
	}
	return n, err
}
