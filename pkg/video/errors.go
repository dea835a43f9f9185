package video

import "errors"

var (
	// ErrSourceNotFound means the video path does not exist.
	ErrSourceNotFound = errors.New("video source not found")
	// ErrSourceUnopenable means the path exists but no decoder accepts it.
	ErrSourceUnopenable = errors.New("video source cannot be opened")
	// ErrNoFrame means the decoder produced nothing at the requested offset.
	ErrNoFrame = errors.New("no frame at offset")
)
