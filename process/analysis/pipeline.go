// Package analysis runs a video through frame sampling, OCR and hand
// history parsing.
package analysis

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"

	"handscan/internal/config"
	"handscan/internal/metrics"
	"handscan/pkg/handhistory"
	"handscan/pkg/ocr"
	"handscan/pkg/video"
)

// DefaultTimestamps are the offsets, in seconds, sampled from every video.
var DefaultTimestamps = []float64{1, 3, 5}

// Mode picks the parser applied to OCR output.
type Mode string

const (
	ModeText       Mode = "text"
	ModePositional Mode = "positional"
)

// ParseMode accepts "text", "positional" or empty (text).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeText:
		return ModeText, nil
	case ModePositional:
		return ModePositional, nil
	}
	return ModeText, fmt.Errorf("unknown mode %q", s)
}

// FrameSampler is satisfied by *video.Sampler.
type FrameSampler interface {
	Sample(ctx context.Context, path string, timestamps []float64) ([]video.Frame, error)
}

// Recognizer is satisfied by *ocr.Extractor.
type Recognizer interface {
	Text(img image.Image) (string, error)
	Words(img image.Image) ([]handhistory.Word, error)
}

// Result is the JSON envelope printed by the CLI and stored on hands.
type Result struct {
	RawText    string             `json:"raw_text"`
	ParsedData handhistory.Record `json:"parsed_data"`
}

type Pipeline struct {
	Sampler     FrameSampler
	Recognizer  Recognizer
	Mode        Mode
	StackSuffix handhistory.StackSuffix
	Timestamps  []float64
	Logger      *zap.Logger
}

// NewFromConfig wires the ffmpeg sampler and the Tesseract extractor.
// framesDir may be empty.
func NewFromConfig(cfg *config.Config, framesDir string, log *zap.Logger) (*Pipeline, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	threshold, err := ocr.ParseThreshold(cfg.Threshold)
	if err != nil {
		return nil, err
	}
	suffix, ok := handhistory.ParseStackSuffix(cfg.StackSuffix)
	if !ok {
		return nil, fmt.Errorf("unknown stack suffix %q", cfg.StackSuffix)
	}
	return &Pipeline{
		Sampler: &video.Sampler{
			Opener:    &video.FFmpegOpener{FFmpeg: cfg.FFmpegBin, FFprobe: cfg.FFprobeBin, Logger: log},
			FramesDir: framesDir,
			Logger:    log,
		},
		Recognizer:  &ocr.Extractor{Language: cfg.OCRLanguage, Threshold: threshold, Logger: log},
		Mode:        mode,
		StackSuffix: suffix,
		Logger:      log,
	}, nil
}

func frameHeader(t float64) string {
	return "--- OCR for frame at " + video.FormatSeconds(t) + "s ---\n"
}

// Run analyses the video at path. It fails only when the video cannot be
// found or opened, or ctx ends; unreadable frames are skipped.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timestamps := p.Timestamps
	if len(timestamps) == 0 {
		timestamps = DefaultTimestamps
	}

	metrics.ActiveAnalyses.Inc()
	defer metrics.ActiveAnalyses.Dec()

	start := time.Now()
	frames, err := p.Sampler.Sample(ctx, path, timestamps)
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("sample %s: %w", path, err)
	}

	var raw strings.Builder
	rec := handhistory.NewRecord()
	for _, f := range frames {
		if f.Err != nil {
			metrics.FramesTotal.WithLabelValues("skipped").Inc()
			continue
		}
		start = time.Now()
		var text string
		var words []handhistory.Word
		if p.Mode == ModePositional {
			words, err = p.Recognizer.Words(f.Image)
			text = handhistory.JoinWords(words)
		} else {
			text, err = p.Recognizer.Text(f.Image)
		}
		metrics.StageDuration.WithLabelValues("ocr").Observe(time.Since(start).Seconds())
		if err != nil {
			log.Warn("ocr failed", zap.String("path", path), zap.Float64("timestamp", f.Timestamp), zap.Error(err))
			metrics.FramesTotal.WithLabelValues("skipped").Inc()
			continue
		}
		metrics.FramesTotal.WithLabelValues("ok").Inc()

		raw.WriteString(frameHeader(f.Timestamp))
		raw.WriteString(text)
		raw.WriteString("\n\n")
		if p.Mode == ModePositional {
			rec = handhistory.ParsePositional(words)
		}
	}

	if p.Mode != ModePositional {
		start = time.Now()
		rec = handhistory.ParseText(raw.String(), handhistory.WithStackSuffix(p.StackSuffix))
		metrics.StageDuration.WithLabelValues("parse").Observe(time.Since(start).Seconds())
	}
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	log.Info("video analysed",
		zap.String("path", path),
		zap.String("mode", string(p.Mode)),
		zap.Int("frames", len(frames)),
		zap.Int("players", len(rec.Players)),
		zap.Int("actions", len(rec.Actions)),
	)
	return &Result{RawText: raw.String(), ParsedData: rec}, nil
}
