package handhistory

import (
	"strconv"
	"strings"
)

// Proximity window used to pair a "Pot" label with its value.
const (
	MinConfidence  = 40.0
	PotMaxDX       = 150
	PotMaxDY       = 20
	potLabelSubstr = "Pot"
)

// ParsePositional reads a hand from an OCR word table. Only the pot is
// recovered: the first "Pot" label with a numeric word to its right wins.
// Words at or below MinConfidence are ignored.
func ParsePositional(words []Word) Record {
	rec := NewRecord()
	rows := confident(words)
	for _, label := range rows {
		if !strings.Contains(label.Text, potLabelSubstr) {
			continue
		}
		if pot, ok := potNear(label, rows); ok {
			rec.Result.Pot = pot
			return rec
		}
	}
	return rec
}

func confident(words []Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		if w.Confidence > MinConfidence {
			out = append(out, w)
		}
	}
	return out
}

// inPotWindow reports whether cand sits right of label within the window.
func inPotWindow(label, cand Word) bool {
	dx := cand.Left - label.Left
	dy := cand.Top - label.Top
	if dy < 0 {
		dy = -dy
	}
	return dx > 0 && dx <= PotMaxDX && dy <= PotMaxDY
}

func potNear(label Word, rows []Word) (int64, bool) {
	for _, cand := range rows {
		if !inPotWindow(label, cand) {
			continue
		}
		d := onlyDigits(cand.Text)
		if d == "" {
			continue
		}
		n, err := strconv.ParseInt(d, 10, 64)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// onlyDigits extracts decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// JoinWords rebuilds a flat text line from a word table, skipping blanks.
func JoinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
