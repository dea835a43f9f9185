// Package ocr turns decoded video frames into text with Tesseract.
package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"handscan/pkg/handhistory"
)

// Extractor preprocesses frames and runs Tesseract on them. The zero value
// recognises English with the adaptive threshold.
type Extractor struct {
	Language  string
	Threshold Threshold
	Logger    *zap.Logger
}

func (e *Extractor) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Extractor) client(img image.Image) (*gosseract.Client, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(img, e.Threshold), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	client := gosseract.NewClient()
	lang := e.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("set language %q: %w", lang, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		client.Close()
		return nil, fmt.Errorf("load frame: %w", err)
	}
	return client, nil
}

// Text returns the recognised text of img with its line structure intact.
func (e *Extractor) Text(img image.Image) (string, error) {
	client, err := e.client(img)
	if err != nil {
		return "", err
	}
	defer client.Close()

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr text: %w", err)
	}
	text = tidyLines(text)
	e.log().Debug("ocr text", zap.Int("len", len(text)), zap.String("snippet", snippet(text, 120)))
	return text, nil
}

// Words returns one row per recognised word with its confidence and
// bounding box, in Tesseract's reading order.
func (e *Extractor) Words(img image.Image) ([]handhistory.Word, error) {
	client, err := e.client(img)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("ocr words: %w", err)
	}
	words := make([]handhistory.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, wordFromBox(b))
	}
	e.log().Debug("ocr words", zap.Int("count", len(words)))
	return words, nil
}

func wordFromBox(b gosseract.BoundingBox) handhistory.Word {
	return handhistory.Word{
		Text:       b.Word,
		Confidence: b.Confidence,
		Left:       b.Box.Min.X,
		Top:        b.Box.Min.Y,
		Width:      b.Box.Dx(),
		Height:     b.Box.Dy(),
	}
}
