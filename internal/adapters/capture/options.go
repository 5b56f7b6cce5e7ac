package capture

import (
	"time"

	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithTargetRate bounds accepted frames per second.
func WithTargetRate(fps float64) Option {
	return func(s *Scheduler) {
		if fps > 0 {
			s.targetRate = fps
		}
	}
}

// WithJPEGQuality sets the fixed lossy quality factor (1-100).
func WithJPEGQuality(quality int) Option {
	return func(s *Scheduler) {
		if quality >= 1 && quality <= 100 {
			s.jpegQuality = quality
		}
	}
}

// WithMaxWidth downscales frames wider than w before encoding. 0 disables
// scaling.
func WithMaxWidth(w int) Option {
	return func(s *Scheduler) {
		if w >= 0 {
			s.maxWidth = w
		}
	}
}

// WithTickInterval overrides the display-refresh cadence driving the loop.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithClock injects a time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
