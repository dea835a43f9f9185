package ocr

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Threshold selects how a grayscale frame is binarised before recognition.
type Threshold int

const (
	// ThresholdAdaptive compares each pixel with the mean of its window.
	ThresholdAdaptive Threshold = iota
	// ThresholdFixed cuts every pixel at FixedLevel.
	ThresholdFixed
)

const (
	FixedLevel     = 150
	AdaptiveWindow = 15
	AdaptiveBias   = 7
)

func (t Threshold) String() string {
	if t == ThresholdFixed {
		return "fixed"
	}
	return "adaptive"
}

// ParseThreshold maps "fixed" or "adaptive" (empty means adaptive).
func ParseThreshold(s string) (Threshold, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "adaptive":
		return ThresholdAdaptive, nil
	case "fixed":
		return ThresholdFixed, nil
	}
	return ThresholdAdaptive, fmt.Errorf("unknown threshold %q", s)
}

// Preprocess converts img to grayscale and binarises it. Text ends up black
// on white.
func Preprocess(img image.Image, t Threshold) *image.NRGBA {
	gray := imaging.Grayscale(img)
	if t == ThresholdFixed {
		return binarize(gray, FixedLevel)
	}
	return adaptiveThreshold(gray, AdaptiveWindow, AdaptiveBias)
}

var (
	black = color.NRGBA{0, 0, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

func luma(img image.Image, x, y int) int {
	r, g, b, _ := img.At(x, y).RGBA()
	return int((r + g + b) / 3 >> 8)
}

// binarize applies a global cut: pixels above level become white.
func binarize(img image.Image, level int) *image.NRGBA {
	bounds := img.Bounds()
	out := imaging.New(bounds.Dx(), bounds.Dy(), white)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if luma(img, bounds.Min.X+x, bounds.Min.Y+y) <= level {
				out.SetNRGBA(x, y, black)
			}
		}
	}
	return out
}

// adaptiveThreshold marks a pixel black when it is darker than the mean of
// its window minus bias. Window sums come from an integral image.
func adaptiveThreshold(img image.Image, window, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := imaging.New(w, h, white)
	if w == 0 || h == 0 {
		return out
	}

	vals := make([]int, w*h)
	sums := make([]int, w*h)
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			v := luma(img, bounds.Min.X+x, bounds.Min.Y+y)
			vals[y*w+x] = v
			row += v
			if y == 0 {
				sums[y*w+x] = row
			} else {
				sums[y*w+x] = sums[(y-1)*w+x] + row
			}
		}
	}
	at := func(x, y int) int {
		if x < 0 || y < 0 {
			return 0
		}
		return sums[y*w+x]
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			sum := at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			if vals[y*w+x] < max(mean-bias, 0) {
				out.SetNRGBA(x, y, black)
			}
		}
	}
	return out
}
