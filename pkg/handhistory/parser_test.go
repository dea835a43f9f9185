package handhistory

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHand = `Tournament: Sunday Million
Blinds: 100/200
Ante: 25
Seat 1: Bob (2500 chips)
Seat 3: Alice (1500)
Seat 4: Carol (12k)
** PRE-FLOP **
Carol: folds
Bob: raises to 200
Alice: calls 200
** FLOP **  [Ah Kd 2c]
Alice: checks
Bob: bets 300
Alice: folds
Total pot 350 was won by Bob
Winner: Bob
`

func int64p(n int64) *int64 { return &n }

func TestParseTextSampleHand(t *testing.T) {
	rec := ParseText(sampleHand)

	assert.Equal(t, TournamentInfo{Name: "Sunday Million", Blinds: "100/200", Ante: 25}, rec.TournamentInfo)
	require.Len(t, rec.Players, 3)
	assert.Equal(t, Player{Seat: 1, Name: "Bob", Stack: 2500, Cards: []string{}}, rec.Players[0])
	assert.Equal(t, Player{Seat: 3, Name: "Alice", Stack: 1500, Cards: []string{}}, rec.Players[1])
	assert.Equal(t, 12000.0, rec.Players[2].Stack)

	want := []Action{
		{Street: StreetPreflop, Player: "Carol", Action: ActionFold},
		{Street: StreetPreflop, Player: "Bob", Action: ActionRaise, Amount: int64p(200)},
		{Street: StreetPreflop, Player: "Alice", Action: ActionCall, Amount: int64p(200)},
		{Street: StreetFlop, Player: "Alice", Action: ActionCheck},
		{Street: StreetFlop, Player: "Bob", Action: ActionBet, Amount: int64p(300)},
		{Street: StreetFlop, Player: "Alice", Action: ActionFold},
	}
	assert.Equal(t, want, rec.Actions)
	assert.Equal(t, []string{"Ah", "Kd", "2c"}, rec.Board)
	assert.Equal(t, Result{Winner: "Bob", Pot: 350}, rec.Result)
}

func TestParseTextSeatLine(t *testing.T) {
	rec := ParseText("Seat 3: Alice (1500)")
	require.Len(t, rec.Players, 1)
	assert.Equal(t, Player{Seat: 3, Name: "Alice", Stack: 1500.0, Cards: []string{}}, rec.Players[0])
}

func TestParseTextSeatNamesAreTrimmed(t *testing.T) {
	tests := []struct {
		line  string
		seat  int
		name  string
		stack float64
	}{
		{"Seat 1:   Big Stack Bob   (2500)", 1, "Big Stack Bob", 2500},
		{"Seat 9: x (0)", 9, "x", 0},
		{"Seat 2: Dana (1,250 chips)", 2, "Dana", 1250},
		{"Seat 5: Eve (99.5)", 5, "Eve", 99.5},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rec := ParseText(tt.line)
			require.Len(t, rec.Players, 1)
			p := rec.Players[0]
			assert.Equal(t, tt.seat, p.Seat)
			assert.Equal(t, tt.name, p.Name)
			assert.Equal(t, tt.stack, p.Stack)
		})
	}
}

func TestParseTextStackSuffix(t *testing.T) {
	legacy := ParseText("Seat 2: Bob (1.5k)")
	require.Len(t, legacy.Players, 1)
	assert.Equal(t, 1.5, legacy.Players[0].Stack, "legacy suffix appends zeros to the text")

	whole := ParseText("Seat 2: Bob (15K chips)")
	require.Len(t, whole.Players, 1)
	assert.Equal(t, 15000.0, whole.Players[0].Stack)

	mult := ParseText("Seat 2: Bob (1.5k)", WithStackSuffix(StackSuffixMultiply))
	require.Len(t, mult.Players, 1)
	assert.Equal(t, 1500.0, mult.Players[0].Stack)
}

func TestParseStackSuffix(t *testing.T) {
	s, ok := ParseStackSuffix("multiply")
	assert.True(t, ok)
	assert.Equal(t, StackSuffixMultiply, s)

	s, ok = ParseStackSuffix("")
	assert.True(t, ok)
	assert.Equal(t, StackSuffixLegacy, s)

	_, ok = ParseStackSuffix("bogus")
	assert.False(t, ok)
}

func TestParseTextSeatAfterLeadingNoise(t *testing.T) {
	rec := ParseText("| Seat 1: Bob (100)\n~ Seat 2: Ann (250 chips)")
	require.Len(t, rec.Players, 2)
	assert.Equal(t, Player{Seat: 1, Name: "Bob", Stack: 100, Cards: []string{}}, rec.Players[0])
	assert.Equal(t, "Ann", rec.Players[1].Name)

	assert.Empty(t, ParseText("ReSeat 1: Bob (100)").Players)
}

func TestParseTextOversizedAmountsClamp(t *testing.T) {
	rec := ParseText("Bob: calls 99999999999999999999 Total pot 350\nTotal pot 123456789012345678901234")
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, ActionCall, rec.Actions[0].Action)
	assert.Equal(t, int64p(math.MaxInt64), rec.Actions[0].Amount)
	assert.Equal(t, int64(math.MaxInt64), rec.Result.Pot)
}

func TestParseTextDuplicateSeatsAreKept(t *testing.T) {
	rec := ParseText("Seat 1: Bob (100)\nSeat 1: Bob (100)")
	assert.Len(t, rec.Players, 2)
}

func TestParseTextFlopMarker(t *testing.T) {
	rec := ParseText("** PRE-FLOP **\n** FLOP **  [Ah Kd 2c]\nBob: checks")
	assert.Equal(t, []string{"Ah", "Kd", "2c"}, rec.Board)
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, StreetFlop, rec.Actions[0].Street)
}

func TestParseTextTurnAndRiverDoNotTouchBoard(t *testing.T) {
	rec := ParseText("** FLOP ** [Ah Kd 2c]\n** TURN ** [Ah Kd 2c] [9s]\n** RIVER ** [3h]\nBob: checks")
	assert.Equal(t, []string{"Ah", "Kd", "2c"}, rec.Board)
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, StreetRiver, rec.Actions[0].Street)
}

func TestParseTextFlopWithoutCardsKeepsBoard(t *testing.T) {
	rec := ParseText("** FLOP ** [Ah Kd 2c]\n** FLOP **")
	assert.Equal(t, []string{"Ah", "Kd", "2c"}, rec.Board)
}

func TestParseTextStreetNeverRegresses(t *testing.T) {
	rec := ParseText("** TURN **\n** FLOP ** [Ah Kd 2c]\nBob: bets 50")
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, StreetTurn, rec.Actions[0].Street)
	assert.Equal(t, []string{"Ah", "Kd", "2c"}, rec.Board)
}

func TestParseTextRaise(t *testing.T) {
	rec := ParseText("Bob: raises to 200")
	require.Len(t, rec.Actions, 1)
	assert.Equal(t, Action{Street: StreetPreflop, Player: "Bob", Action: ActionRaise, Amount: int64p(200)}, rec.Actions[0])
}

func TestParseTextActionOrderFollowsLines(t *testing.T) {
	rec := ParseText("A: bets 10\nB: calls 10\nC: raises 40\nA: folds")
	var got []string
	for _, a := range rec.Actions {
		got = append(got, a.Player+" "+a.Action)
	}
	assert.Equal(t, []string{"A bet", "B call", "C raise", "A fold"}, got)
}

func TestParseTextActionLineSkipsPotAndWinner(t *testing.T) {
	rec := ParseText("Bob: bets 500 Total pot 900 Winner: nobody")
	require.Len(t, rec.Actions, 1)
	assert.Zero(t, rec.Result.Pot)
	assert.Empty(t, rec.Result.Winner)
}

func TestParseTextPotAndWinner(t *testing.T) {
	rec := ParseText("Total pot 350 was won by Alice\nsome noise\nWinner: Alice")
	assert.Equal(t, Result{Pot: 350, Winner: "Alice"}, rec.Result)
	assert.Empty(t, rec.Result.WinningHand)
}

func TestParseTextPotTakesFirstDigitRun(t *testing.T) {
	rec := ParseText("Total pot 1,350")
	assert.Equal(t, int64(1), rec.Result.Pot)
}

func TestParseTextIgnoresNoise(t *testing.T) {
	base := ParseText(sampleHand)
	noisy := ParseText("#@! garbage\n" + sampleHand + "\n~~ ||| 123 abc\nSeat without colon\n")
	assert.Equal(t, base, noisy)

	empty := ParseText("lorem ipsum\n\n\t\n")
	assert.Equal(t, NewRecord(), empty)
}

func TestParseTextIsIdempotent(t *testing.T) {
	first := ParseText(sampleHand)
	second := ParseText(sampleHand)
	assert.Equal(t, first, second)
}

func TestRecordJSONShape(t *testing.T) {
	b, err := json.Marshal(ParseText("Bob: folds\nAlice: calls 20"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tournamentInfo": {"name": "", "blinds": "", "ante": 0},
		"players": [],
		"actions": [
			{"street": "preflop", "player": "Bob", "action": "fold"},
			{"street": "preflop", "player": "Alice", "action": "call", "amount": 20}
		],
		"board": [],
		"result": {"winner": "", "pot": 0, "winningHand": ""}
	}`, string(b))
}
