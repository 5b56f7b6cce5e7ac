// Package capture pulls frames from a live source at a bounded rate and
// encodes each accepted frame as a JPEG payload for the streaming client.
//
// The scheduler is a drop-newest throttle, not a queue: frames produced
// faster than the target rate are discarded, never buffered, which bounds
// backpressure on the link.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultTargetRate   = 10.0 // frames per second
	defaultJPEGQuality  = 60
	defaultMaxWidth     = 1280
	defaultTickInterval = 16 * time.Millisecond // display-refresh cadence
)

// Source supplies the current frame of a live video feed. Frame returns
// (nil, false) when no frame is ready; the scheduler silently reschedules.
type Source interface {
	Frame() (image.Image, bool)
	Close() error
}

// Emitter receives encoded frame payloads. The streaming client implements
// this.
type Emitter interface {
	SendFrame(ctx context.Context, payload []byte) error
}

// Scheduler drives the capture loop.
type Scheduler struct {
	source  Source
	emitter Emitter

	targetRate   float64
	jpegQuality  int
	maxWidth     int
	tickInterval time.Duration
	now          func() time.Time

	// Private drawing/encoding surface, reused across frames.
	encodeBuf bytes.Buffer

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	logger logger.Logger
}

// New creates a scheduler for the given source and emitter.
func New(source Source, emitter Emitter, opts ...Option) *Scheduler {
	s := &Scheduler{
		source:       source,
		emitter:      emitter,
		targetRate:   defaultTargetRate,
		jpegQuality:  defaultJPEGQuality,
		maxWidth:     defaultMaxWidth,
		tickInterval: defaultTickInterval,
		now:          time.Now,
		logger:       nil, // resolved on Start
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the capture loop. It is non-blocking and returns an error
// if the scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("capture")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.loop(loopCtx)
	return nil
}

// Stop cancels the pending scheduled capture and waits for the loop to
// exit. Idempotent; it never closes the source, which stays owned by the
// caller.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	interval := time.Duration(float64(time.Second) / s.targetRate)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	var lastAccepted time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, ok := s.source.Frame()
		if !ok {
			// No frame ready; reschedule silently.
			continue
		}

		now := s.now()
		if !lastAccepted.IsZero() && now.Sub(lastAccepted) < interval {
			metrics.RecordFrameDropped()
			continue
		}

		payload, err := s.encode(frame)
		if err != nil {
			metrics.RecordFrameEncodeError()
			s.logger.Warn(ctx, "frame encode failed", logger.Error(err))
			continue
		}
		lastAccepted = now

		if err := s.emitter.SendFrame(ctx, payload); err != nil {
			s.logger.Warn(ctx, "frame send failed", logger.Error(err))
			continue
		}
		metrics.RecordFrameCaptured(len(payload))
	}
}

// encode draws the frame onto the private surface, downscaling when wider
// than the configured bound, and compresses it as JPEG.
func (s *Scheduler) encode(frame image.Image) ([]byte, error) {
	img := frame
	if s.maxWidth > 0 {
		if b := frame.Bounds(); b.Dx() > s.maxWidth {
			scale := float64(s.maxWidth) / float64(b.Dx())
			h := int(float64(b.Dy()) * scale)
			scaled := image.NewRGBA(image.Rect(0, 0, s.maxWidth, h))
			draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, b, draw.Over, nil)
			img = scaled
		}
	}

	s.encodeBuf.Reset()
	if err := jpeg.Encode(&s.encodeBuf, img, &jpeg.Options{Quality: s.jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	out := make([]byte, s.encodeBuf.Len())
	copy(out, s.encodeBuf.Bytes())
	return out, nil
}
