package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handscan/internal/config"
	"handscan/pkg/handhistory"
	"handscan/pkg/video"
)

type fakeSampler struct {
	frames []video.Frame
	err    error
	got    []float64
}

func (s *fakeSampler) Sample(_ context.Context, _ string, ts []float64) ([]video.Frame, error) {
	s.got = ts
	return s.frames, s.err
}

// fakeRecognizer keys its answers on the frame width so each frame can carry
// its own text.
type fakeRecognizer struct {
	texts map[int]string
	words map[int][]handhistory.Word
	fail  map[int]bool
}

func (r *fakeRecognizer) Text(img image.Image) (string, error) {
	if r.fail[img.Bounds().Dx()] {
		return "", errors.New("tesseract crashed")
	}
	return r.texts[img.Bounds().Dx()], nil
}

func (r *fakeRecognizer) Words(img image.Image) ([]handhistory.Word, error) {
	if r.fail[img.Bounds().Dx()] {
		return nil, errors.New("tesseract crashed")
	}
	return r.words[img.Bounds().Dx()], nil
}

func frame(t float64, width int) video.Frame {
	return video.Frame{Timestamp: t, Image: imaging.New(width, 2, color.White)}
}

func TestRunTextModeConcatenatesFrames(t *testing.T) {
	s := &fakeSampler{frames: []video.Frame{
		frame(1, 10),
		{Timestamp: 3, Err: video.ErrNoFrame},
		frame(5, 12),
	}}
	r := &fakeRecognizer{texts: map[int]string{
		10: "Seat 1: Bob (1500)\n** FLOP ** [Ah Kd 2c]",
		12: "Bob: bets 100\nWinner: Bob",
	}}
	p := &Pipeline{Sampler: s, Recognizer: r}

	res, err := p.Run(context.Background(), "hand.mp4")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimestamps, s.got)
	assert.Equal(t,
		"--- OCR for frame at 1s ---\nSeat 1: Bob (1500)\n** FLOP ** [Ah Kd 2c]\n\n"+
			"--- OCR for frame at 5s ---\nBob: bets 100\nWinner: Bob\n\n",
		res.RawText)
	require.Len(t, res.ParsedData.Players, 1)
	require.Len(t, res.ParsedData.Actions, 1)
	assert.Equal(t, handhistory.StreetFlop, res.ParsedData.Actions[0].Street)
	assert.Equal(t, "Bob", res.ParsedData.Result.Winner)
}

func TestRunSkipsFramesThatFailOCR(t *testing.T) {
	s := &fakeSampler{frames: []video.Frame{frame(1, 10), frame(3, 11)}}
	r := &fakeRecognizer{texts: map[int]string{11: "Winner: Alice"}, fail: map[int]bool{10: true}}
	p := &Pipeline{Sampler: s, Recognizer: r}

	res, err := p.Run(context.Background(), "hand.mp4")
	require.NoError(t, err)
	assert.Equal(t, "--- OCR for frame at 3s ---\nWinner: Alice\n\n", res.RawText)
	assert.Equal(t, "Alice", res.ParsedData.Result.Winner)
}

func TestRunPositionalKeepsLastParsedFrame(t *testing.T) {
	s := &fakeSampler{frames: []video.Frame{frame(1, 10), frame(3, 11), frame(5, 12)}}
	r := &fakeRecognizer{
		words: map[int][]handhistory.Word{
			10: {{Text: "Pot", Confidence: 90, Left: 10, Top: 10}, {Text: "100", Confidence: 90, Left: 60, Top: 10}},
			11: {{Text: "Pot", Confidence: 90, Left: 10, Top: 10}, {Text: "250", Confidence: 90, Left: 60, Top: 10}},
		},
		fail: map[int]bool{12: true},
	}
	p := &Pipeline{Sampler: s, Recognizer: r, Mode: ModePositional}

	res, err := p.Run(context.Background(), "hand.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.ParsedData.Result.Pot)
	assert.Equal(t, "--- OCR for frame at 1s ---\nPot 100\n\n--- OCR for frame at 3s ---\nPot 250\n\n", res.RawText)
}

func TestRunPositionalWithoutFramesIsEmpty(t *testing.T) {
	s := &fakeSampler{frames: []video.Frame{{Timestamp: 1, Err: video.ErrNoFrame}}}
	p := &Pipeline{Sampler: s, Recognizer: &fakeRecognizer{}, Mode: ModePositional}

	res, err := p.Run(context.Background(), "hand.mp4")
	require.NoError(t, err)
	assert.Empty(t, res.RawText)
	assert.Equal(t, handhistory.NewRecord(), res.ParsedData)
}

func TestRunPropagatesSourceErrors(t *testing.T) {
	for _, sentinel := range []error{video.ErrSourceNotFound, video.ErrSourceUnopenable} {
		p := &Pipeline{Sampler: &fakeSampler{err: sentinel}, Recognizer: &fakeRecognizer{}}
		res, err := p.Run(context.Background(), "missing.mp4")
		assert.ErrorIs(t, err, sentinel)
		assert.Nil(t, res)
	}
}

func TestRunHonoursStackSuffix(t *testing.T) {
	s := &fakeSampler{frames: []video.Frame{frame(1, 10)}}
	r := &fakeRecognizer{texts: map[int]string{10: "Seat 2: Bob (1.5k)"}}
	p := &Pipeline{Sampler: s, Recognizer: r, StackSuffix: handhistory.StackSuffixMultiply, Timestamps: []float64{2}}

	res, err := p.Run(context.Background(), "hand.mp4")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, s.got)
	require.Len(t, res.ParsedData.Players, 1)
	assert.Equal(t, 1500.0, res.ParsedData.Players[0].Stack)
}

func TestResultJSONEnvelope(t *testing.T) {
	b, err := json.Marshal(Result{RawText: "x", ParsedData: handhistory.NewRecord()})
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Len(t, m, 2)
	assert.Contains(t, m, "raw_text")
	assert.Contains(t, m, "parsed_data")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Positional")
	require.NoError(t, err)
	assert.Equal(t, ModePositional, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeText, m)
	_, err = ParseMode("grid")
	assert.Error(t, err)
}

func TestNewFromConfigRejectsUnknownSettings(t *testing.T) {
	cfg := &config.Config{Mode: "text", Threshold: "adaptive", StackSuffix: "legacy"}
	p, err := NewFromConfig(cfg, "", nil)
	require.NoError(t, err)
	assert.Equal(t, ModeText, p.Mode)

	cfg.StackSuffix = "kilo"
	_, err = NewFromConfig(cfg, "", nil)
	assert.Error(t, err)

	cfg.StackSuffix, cfg.Threshold = "legacy", "otsu"
	_, err = NewFromConfig(cfg, "", nil)
	assert.Error(t, err)
}
