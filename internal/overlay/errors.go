package overlay

import "errors"

var (
	// ErrInvalidOverlay is returned for empty text or out-of-range bar settings.
	ErrInvalidOverlay = errors.New("invalid overlay parameters")

	// ErrInvalidTransform is returned for out-of-range tone transform settings.
	ErrInvalidTransform = errors.New("invalid transform parameters")

	// ErrNilImage is returned when no image is supplied.
	ErrNilImage = errors.New("image cannot be nil")
)
