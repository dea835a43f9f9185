package ocr

import "errors"

// ErrEmptyImage is returned when a frame has no pixels to recognise.
var ErrEmptyImage = errors.New("empty image")
