package handhistory

// Street names in betting order.
const (
	StreetPreflop = "preflop"
	StreetFlop    = "flop"
	StreetTurn    = "turn"
	StreetRiver   = "river"
)

// Action verbs recognised in hand text.
const (
	ActionFold  = "fold"
	ActionCheck = "check"
	ActionCall  = "call"
	ActionBet   = "bet"
	ActionRaise = "raise"
)

var streetOrder = map[string]int{
	StreetPreflop: 0,
	StreetFlop:    1,
	StreetTurn:    2,
	StreetRiver:   3,
}

// Record is the structured form of one played hand.
type Record struct {
	TournamentInfo TournamentInfo `json:"tournamentInfo"`
	Players        []Player       `json:"players"`
	Actions        []Action       `json:"actions"`
	Board          []string       `json:"board"`
	Result         Result         `json:"result"`
}

type TournamentInfo struct {
	Name   string `json:"name"`
	Blinds string `json:"blinds"`
	Ante   int64  `json:"ante"`
}

// Player is one "Seat N: name (stack)" declaration. Cards stays empty unless a
// later source fills it.
type Player struct {
	Seat  int      `json:"seat"`
	Name  string   `json:"name"`
	Stack float64  `json:"stack"`
	Cards []string `json:"cards"`
}

// Action is a single betting action. Amount is set only for call, bet and raise.
type Action struct {
	Street string `json:"street"`
	Player string `json:"player"`
	Action string `json:"action"`
	Amount *int64 `json:"amount,omitempty"`
}

type Result struct {
	Winner      string `json:"winner"`
	Pot         int64  `json:"pot"`
	WinningHand string `json:"winningHand"`
}

// Word is one row of an OCR word table. Coordinates are pixels in the source frame.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"conf"`
	Left       int     `json:"left"`
	Top        int     `json:"top"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// NewRecord returns an empty record whose slices encode as [] rather than null.
func NewRecord() Record {
	return Record{
		Players: []Player{},
		Actions: []Action{},
		Board:   []string{},
	}
}
