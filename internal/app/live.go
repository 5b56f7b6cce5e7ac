package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/capture"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/stream"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/metrics"
)

// LiveSession bundles one realtime streaming run: frame source,
// scheduler, websocket client, and the overlay the results land in.
type LiveSession struct {
	ID     string
	Domain model.Domain

	source    capture.Source
	scheduler *capture.Scheduler
	client    *stream.Client
	overlay   *stream.Overlay

	stopOnce sync.Once
	release  func()
}

// Snapshot returns the current overlay state.
func (ls *LiveSession) Snapshot() stream.Snapshot {
	return ls.overlay.Snapshot()
}

// StreamState reports the underlying connection state.
func (ls *LiveSession) StreamState() stream.State {
	return ls.client.State()
}

// Stop tears the session down. Each release step runs independently so a
// failure in one never leaks the others. Idempotent.
func (ls *LiveSession) Stop() {
	ls.stopOnce.Do(func() {
		ls.scheduler.Stop()
		ls.client.Stop()
		_ = ls.source.Close()
		metrics.UpdateLiveSessions(0)
		if ls.release != nil {
			ls.release()
		}
	})
}

// StartLive opens a realtime session streaming frames from source to the
// backend. At most one live session runs per service; the lock is held
// across construction so concurrent starts cannot both claim the slot.
func (s *Service) StartLive(ctx context.Context, domain model.Domain, source capture.Source) (*LiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	if s.live != nil {
		return nil, ErrLiveSessionActive
	}
	cfg := s.cfg

	overlay := stream.NewOverlay()
	client := stream.New(cfg.BackendWSURL, overlay)
	if err := client.Start(ctx, domain); err != nil {
		return nil, err
	}

	scheduler := capture.New(source, client,
		capture.WithTargetRate(cfg.FrameRate),
		capture.WithJPEGQuality(cfg.JPEGQuality),
		capture.WithMaxWidth(cfg.MaxFrameWidth),
	)
	if err := scheduler.Start(ctx); err != nil {
		client.Stop()
		return nil, err
	}

	ls := &LiveSession{
		ID:        uuid.NewString(),
		Domain:    domain,
		source:    source,
		scheduler: scheduler,
		client:    client,
		overlay:   overlay,
	}
	ls.release = func() { s.clearLive(ls) }
	s.live = ls

	metrics.UpdateLiveSessions(1)
	s.logger.Info(ctx, "live session started",
		logger.String("session", ls.ID),
		logger.String("domain", string(domain)),
	)

	return ls, nil
}

func (s *Service) clearLive(ls *LiveSession) {
	s.mu.Lock()
	if s.live == ls {
		s.live = nil
	}
	s.mu.Unlock()
}
