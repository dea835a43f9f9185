package video

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Frame is the outcome of sampling one timestamp. Image is nil when Err is
// set.
type Frame struct {
	Timestamp float64
	Image     image.Image
	Err       error
}

// Sampler pulls still frames from a video at fixed offsets.
type Sampler struct {
	Opener Opener
	// FramesDir, when set, receives a PNG per decoded frame.
	FramesDir string
	Logger    *zap.Logger
}

// FormatSeconds renders a timestamp the way frame labels and file names
// carry it: 1 -> "1", 2.5 -> "2.5".
func FormatSeconds(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// Sample opens path and decodes one frame per timestamp, in order. Only a
// failure to open the video fails the call; per-frame failures are logged
// and reported in Frame.Err. The source is closed before Sample returns.
func (s *Sampler) Sample(ctx context.Context, path string, timestamps []float64) ([]Frame, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	src, err := s.Opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.Warn("close video", zap.String("path", path), zap.Error(cerr))
		}
	}()

	if s.FramesDir != "" {
		if err := os.MkdirAll(s.FramesDir, 0o755); err != nil {
			return nil, fmt.Errorf("frames dir: %w", err)
		}
	}

	frames := make([]Frame, 0, len(timestamps))
	for _, t := range timestamps {
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		offset := time.Duration(t*1000) * time.Millisecond
		img, err := src.FrameAt(ctx, offset)
		if err == nil && img == nil {
			err = ErrNoFrame
		}
		if err != nil {
			log.Warn("could not read frame", zap.String("path", path), zap.Float64("timestamp", t), zap.Error(err))
			frames = append(frames, Frame{Timestamp: t, Err: err})
			continue
		}
		if s.FramesDir != "" {
			name := filepath.Join(s.FramesDir, "frame_"+FormatSeconds(t)+"s.png")
			if err := imaging.Save(img, name); err != nil {
				log.Warn("could not save frame", zap.String("file", name), zap.Error(err))
			}
		}
		frames = append(frames, Frame{Timestamp: t, Image: img})
	}
	return frames, nil
}
