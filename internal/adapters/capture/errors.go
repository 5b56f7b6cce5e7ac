package capture

import "errors"

// Sentinel kinds for capture errors.
var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrNoFrames       = errors.New("source has no frames")
)
