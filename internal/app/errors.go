package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrLiveSessionActive = errors.New("a live session is already active")
	ErrNoClassifications = errors.New("no classifications detected")
)
