package upload

import (
	"errors"
	"fmt"
)

// Sentinel kinds for upload errors.
var (
	ErrUploadInFlight = errors.New("upload already in flight")
	ErrNoFile         = errors.New("no file provided")
	ErrTooLarge       = errors.New("file exceeds size limit")
	ErrCanceled       = errors.New("upload canceled")
)

// StatusError reports a non-2xx backend response, carrying the raw body
// for diagnosis.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}
