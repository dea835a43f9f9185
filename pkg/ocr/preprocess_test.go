package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isBlack(img *image.NRGBA, x, y int) bool {
	c := img.NRGBAAt(x, y)
	return c.R == 0 && c.G == 0 && c.B == 0
}

func TestParseThreshold(t *testing.T) {
	for in, want := range map[string]Threshold{"": ThresholdAdaptive, "Adaptive": ThresholdAdaptive, " fixed ": ThresholdFixed} {
		got, err := ParseThreshold(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseThreshold("otsu")
	assert.Error(t, err)
	assert.Equal(t, "fixed", ThresholdFixed.String())
}

func TestFixedThresholdCutsAtLevel(t *testing.T) {
	img := imaging.New(3, 1, color.White)
	img.SetNRGBA(0, 0, color.NRGBA{150, 150, 150, 255})
	img.SetNRGBA(1, 0, color.NRGBA{151, 151, 151, 255})
	img.SetNRGBA(2, 0, color.NRGBA{20, 20, 20, 255})

	out := Preprocess(img, ThresholdFixed)
	assert.True(t, isBlack(out, 0, 0))
	assert.False(t, isBlack(out, 1, 0))
	assert.True(t, isBlack(out, 2, 0))
}

func TestAdaptiveThresholdKeepsDarkTextOnUnevenBackground(t *testing.T) {
	// left half is a bright background, right half a dim one; each carries
	// a darker stroke that a single global cut would lose on one side
	img := imaging.New(40, 20, color.White)
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			bg := uint8(230)
			if x >= 20 {
				bg = 110
			}
			img.SetNRGBA(x, y, color.NRGBA{bg, bg, bg, 255})
		}
	}
	for y := 5; y < 15; y++ {
		img.SetNRGBA(10, y, color.NRGBA{180, 180, 180, 255})
		img.SetNRGBA(30, y, color.NRGBA{60, 60, 60, 255})
	}

	out := Preprocess(img, ThresholdAdaptive)
	assert.True(t, isBlack(out, 10, 10))
	assert.True(t, isBlack(out, 30, 10))
	assert.False(t, isBlack(out, 3, 10))
	assert.False(t, isBlack(out, 36, 10))

	fixed := Preprocess(img, ThresholdFixed)
	assert.False(t, isBlack(fixed, 10, 10))
	assert.True(t, isBlack(fixed, 36, 10))
}

func TestPreprocessHandlesOffsetBounds(t *testing.T) {
	base := imaging.New(10, 10, color.Black)
	sub := base.SubImage(image.Rect(5, 5, 10, 10))
	out := Preprocess(sub, ThresholdFixed)
	assert.Equal(t, image.Rect(0, 0, 5, 5), out.Bounds())
	assert.True(t, isBlack(out, 0, 0))
}

func TestExtractorRejectsEmptyImage(t *testing.T) {
	var e Extractor
	_, err := e.Text(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)
	_, err = e.Words(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestTidyLines(t *testing.T) {
	assert.Equal(t, "Seat 1: Bob (100)\n\nBob: folds", tidyLines("Seat 1: Bob (100)  \r\n\r\nBob: folds\n\n"))
}
