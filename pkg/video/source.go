package video

import (
	"context"
	"image"
	"time"
)

// Source is an opened video. FrameAt seeks to offset and decodes a single
// frame. Close releases the source and is called once per Open.
type Source interface {
	FrameAt(ctx context.Context, offset time.Duration) (image.Image, error)
	Close() error
}

// Opener opens a video path for frame access.
type Opener interface {
	Open(ctx context.Context, path string) (Source, error)
}
