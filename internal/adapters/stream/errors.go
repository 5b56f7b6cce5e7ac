package stream

import "errors"

// Sentinel kinds for streaming errors.
var (
	ErrAlreadyStarted = errors.New("stream already started")
	ErrNotOpen        = errors.New("stream not open")
	ErrDial           = errors.New("dial backend")
)
