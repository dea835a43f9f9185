package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	fail    map[time.Duration]error
	offsets []time.Duration
	closed  int
}

func (f *fakeSource) FrameAt(_ context.Context, offset time.Duration) (image.Image, error) {
	f.offsets = append(f.offsets, offset)
	if err, ok := f.fail[offset]; ok {
		return nil, err
	}
	return imaging.New(4, 4, color.White), nil
}

func (f *fakeSource) Close() error {
	f.closed++
	return nil
}

type fakeOpener struct {
	src *fakeSource
	err error
}

func (o *fakeOpener) Open(context.Context, string) (Source, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

func TestSampleSeeksInMilliseconds(t *testing.T) {
	src := &fakeSource{}
	s := &Sampler{Opener: &fakeOpener{src: src}}

	frames, err := s.Sample(context.Background(), "clip.mp4", []float64{1, 3, 5, 2.5})
	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second, 5 * time.Second, 2500 * time.Millisecond}, src.offsets)
	for _, f := range frames {
		assert.NoError(t, f.Err)
		assert.NotNil(t, f.Image)
	}
	assert.Equal(t, 1, src.closed)
}

func TestSampleContinuesPastBadFrames(t *testing.T) {
	boom := errors.New("decode failed")
	src := &fakeSource{fail: map[time.Duration]error{3 * time.Second: boom, 5 * time.Second: ErrNoFrame}}
	s := &Sampler{Opener: &fakeOpener{src: src}}

	frames, err := s.Sample(context.Background(), "clip.mp4", []float64{1, 3, 5})
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.NoError(t, frames[0].Err)
	assert.ErrorIs(t, frames[1].Err, boom)
	assert.Nil(t, frames[1].Image)
	assert.ErrorIs(t, frames[2].Err, ErrNoFrame)
	assert.Equal(t, 1, src.closed)
}

func TestSampleOpenFailure(t *testing.T) {
	s := &Sampler{Opener: &fakeOpener{err: ErrSourceUnopenable}}
	frames, err := s.Sample(context.Background(), "clip.mp4", []float64{1})
	assert.ErrorIs(t, err, ErrSourceUnopenable)
	assert.Nil(t, frames)
}

func TestSampleStopsOnCancel(t *testing.T) {
	src := &fakeSource{}
	s := &Sampler{Opener: &fakeOpener{src: src}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames, err := s.Sample(ctx, "clip.mp4", []float64{1, 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, frames)
	assert.Equal(t, 1, src.closed)
}

func TestSampleWritesFrames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	s := &Sampler{Opener: &fakeOpener{src: &fakeSource{}}, FramesDir: dir}

	_, err := s.Sample(context.Background(), "clip.mp4", []float64{1, 2.5})
	require.NoError(t, err)
	for _, name := range []string{"frame_1s.png", "frame_2.5s.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestFFmpegOpenerMissingFile(t *testing.T) {
	o := &FFmpegOpener{}
	_, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestFFmpegOpenerUnopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a video"), 0o644))

	o := &FFmpegOpener{FFprobe: filepath.Join(t.TempDir(), "missing-ffprobe")}
	_, err := o.Open(context.Background(), path)
	assert.ErrorIs(t, err, ErrSourceUnopenable)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1", FormatSeconds(1))
	assert.Equal(t, "2.5", FormatSeconds(2.5))
}
