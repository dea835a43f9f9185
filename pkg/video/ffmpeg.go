package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// FFmpegOpener probes videos with ffprobe and grabs frames with ffmpeg.
// Empty binary names fall back to whatever is on PATH.
type FFmpegOpener struct {
	FFmpeg  string
	FFprobe string
	Logger  *zap.Logger
}

func (o *FFmpegOpener) bin(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func (o *FFmpegOpener) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Open checks that path exists and carries a decodable video stream.
func (o *FFmpegOpener) Open(ctx context.Context, path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnopenable, err)
	}

	cmd := exec.CommandContext(ctx, o.bin(o.FFprobe, "ffprobe"),
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_type:format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %v", ErrSourceUnopenable, err)
	}
	fields := strings.Fields(string(output))
	if len(fields) == 0 || fields[0] != "video" {
		return nil, fmt.Errorf("%w: no video stream in %s", ErrSourceUnopenable, path)
	}

	src := &ffmpegSource{bin: o.bin(o.FFmpeg, "ffmpeg"), path: path}
	if len(fields) > 1 {
		if secs, err := strconv.ParseFloat(fields[len(fields)-1], 64); err == nil {
			src.duration = time.Duration(secs * float64(time.Second))
		}
	}
	o.logger().Debug("video opened", zap.String("path", path), zap.Duration("duration", src.duration))
	return src, nil
}

type ffmpegSource struct {
	bin      string
	path     string
	duration time.Duration
}

func (s *ffmpegSource) FrameAt(ctx context.Context, offset time.Duration) (image.Image, error) {
	cmd := exec.CommandContext(ctx, s.bin,
		"-v", "error",
		"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, strings.TrimSpace(stderr.String()))
	}
	if len(output) == 0 {
		return nil, ErrNoFrame
	}
	img, err := imaging.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

func (s *ffmpegSource) Close() error { return nil }
