package upload

import (
	"net/http"

	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

// Option applies a configuration option to the Uploader.
type Option func(*Uploader)

// WithHTTPClient overrides the HTTP client, used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Uploader) {
		if c != nil {
			u.client = c
		}
	}
}

// WithMaxBytes bounds accepted file sizes. 0 disables the check.
func WithMaxBytes(n int64) Option {
	return func(u *Uploader) {
		if n >= 0 {
			u.maxBytes = n
		}
	}
}

// WithLogger sets a custom logger for the uploader.
func WithLogger(l logger.Logger) Option {
	return func(u *Uploader) {
		if l != nil {
			u.logger = l
		}
	}
}
