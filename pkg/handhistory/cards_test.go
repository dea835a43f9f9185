package handhistory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	for _, tok := range []string{"Ah", "kd", "2c", "Ts", "10h", "QS", " 9d "} {
		_, err := ParseCard(tok)
		assert.NoError(t, err, tok)
	}
	for _, tok := range []string{"", "A", "1h", "Ax", "11c", "??"} {
		_, err := ParseCard(tok)
		assert.Error(t, err, tok)
	}
}

func TestParseCardTenSpellings(t *testing.T) {
	a, err := ParseCard("Th")
	require.NoError(t, err)
	b, err := ParseCard("10h")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReviewCleanRecord(t *testing.T) {
	rec := ParseText(sampleHand)
	assert.Empty(t, Review(rec))
}

func TestReviewFlagsProblems(t *testing.T) {
	rec := NewRecord()
	rec.Board = []string{"Ah", "Zz", "Ah", "2c", "3c", "4c"}
	notes := Review(rec)
	assert.Contains(t, notes, "board has 6 cards")
	assert.Contains(t, notes, `board: card "Zz": unknown suit`)
	assert.Contains(t, notes, `board: "Ah" duplicates "Ah"`)
	assert.Contains(t, notes, "no seats recognised")
	assert.Contains(t, notes, "winner missing")
}
