// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/upload"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/assessment"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/config"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/catalog"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/report"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/timeline"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

// Assessor turns a classification summary into an overall verdict. An
// empty modelName uses the configured completion model.
type Assessor interface {
	Assess(ctx context.Context, summary string, domain model.Domain, modelName string) (*model.OverallAssessment, error)
}

// Uploader pushes one video to the backend's batch endpoint.
type Uploader interface {
	Start(ctx context.Context, domain model.Domain, file io.Reader, size int64, name string) (*upload.Upload, error)
}

// Service implements the API dependencies for the posture analyzer.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  *catalog.Catalog
	assessor Assessor
	uploader Uploader

	// Configuration
	cfg *config.Config

	// State
	started bool
	live    *LiveSession

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the service configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithCatalog sets a preloaded material catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Service) {
		if cat != nil {
			s.catalog = cat
		}
	}
}

// WithAssessor overrides the assessment backend, used by tests.
func WithAssessor(a Assessor) Option {
	return func(s *Service) {
		if a != nil {
			s.assessor = a
		}
	}
}

// WithUploader overrides the upload transport, used by tests.
func WithUploader(u Uploader) Option {
	return func(s *Service) {
		if u != nil {
			s.uploader = u
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.cfg == nil {
		s.cfg = config.New(ctx)
	}

	s.logger.Info(ctx, "starting posture analyzer service...")

	if s.catalog == nil {
		cat, err := catalog.Load(ctx, s.cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		s.catalog = cat
	}
	if s.uploader == nil {
		s.uploader = upload.NewUploader(s.cfg.BackendBaseURL,
			upload.WithMaxBytes(s.cfg.MaxUploadBytes),
		)
	}
	if s.assessor == nil {
		s.assessor = assessment.New(
			s.cfg.OpenAIAPIKey,
			s.cfg.OpenAIBaseURL,
			s.cfg.AssessmentModel,
			s.catalog,
		)
	}

	s.started = true
	s.logger.Info(ctx, "posture analyzer service started",
		logger.String("backend", s.cfg.BackendBaseURL),
		logger.Int("materials", s.catalog.Len()),
	)

	return nil
}

// Stop gracefully shuts down the service, ending any live session.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	live := s.live
	s.live = nil
	s.mu.Unlock()

	if live != nil {
		live.Stop()
	}
	s.logger.Info(context.Background(), "posture analyzer service stopped")
}

// AnalyzeVideo runs the full batch pipeline on one uploaded video:
// upload, normalize, aggregate per-track timelines, summarize, and
// assess. An assessment failure degrades the report rather than failing
// it; the timelines are still valuable on their own.
func (s *Service) AnalyzeVideo(ctx context.Context, domain model.Domain, file io.Reader, size int64, name string) (*report.Analysis, error) {
	s.mu.RLock()
	started := s.started
	uploader := s.uploader
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	up, err := uploader.Start(ctx, domain, file, size, name)
	if err != nil {
		return nil, err
	}
	for frac := range up.Progress() {
		s.logger.Debug(ctx, "upload progress", logger.Float64("fraction", frac))
	}
	result, err := up.Wait(ctx)
	if err != nil {
		return nil, err
	}

	analysis := &report.Analysis{
		ID:     uuid.NewString(),
		Domain: domain,
		Tracks: buildTracks(result),
	}

	summary := assessmentSummary(analysis.Tracks)
	if summary == "" {
		analysis.AssessmentError = ErrNoClassifications.Error()
		return analysis, nil
	}

	verdict, err := s.Assess(ctx, summary, domain, "")
	if err != nil {
		s.logger.Warn(ctx, "assessment failed, returning timelines only",
			logger.Error(err))
		analysis.AssessmentError = err.Error()
		return analysis, nil
	}
	analysis.Assessment = verdict

	return analysis, nil
}

// Assess converts a classification summary into an overall verdict,
// optionally overriding the configured completion model.
func (s *Service) Assess(ctx context.Context, summary string, domain model.Domain, modelName string) (*model.OverallAssessment, error) {
	s.mu.RLock()
	started := s.started
	assessor := s.assessor
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	return assessor.Assess(ctx, summary, domain, modelName)
}

// Materials lists the recommendable learning materials.
func (s *Service) Materials(_ context.Context) []model.Material {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Materials()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if s.catalog != nil {
		stats["materials"] = s.catalog.Len()
	}
	if s.live != nil {
		stats["liveSession"] = s.live.ID
		stats["liveDomain"] = string(s.live.Domain)
	}
	return stats
}

// buildTracks aggregates the normalized batch result into renderable
// timeline tracks.
func buildTracks(result *upload.Result) []report.Track {
	switch result.Domain {
	case model.DomainHand:
		return []report.Track{
			buildTrack(report.TrackLeftHand, timeline.FromHandRecords(result.Hand.Left)),
			buildTrack(report.TrackRightHand, timeline.FromHandRecords(result.Hand.Right)),
		}
	case model.DomainBody:
		return []report.Track{
			buildTrack(report.TrackBody, timeline.FromBodyRecords(result.Body)),
		}
	default:
		return nil
	}
}

func buildTrack(name string, samples []timeline.Sample) report.Track {
	tl := timeline.Build(samples)
	return report.Track{
		Name:     name,
		HasData:  tl.HasData(),
		Segments: tl.Segments(),
		Summary:  timeline.Summarize(samples),
	}
}

// assessmentSummary joins the per-track summaries into the one-line text
// the assessor consumes. Tracks without data are skipped.
func assessmentSummary(tracks []report.Track) string {
	parts := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if !t.HasData {
			continue
		}
		if len(tracks) == 1 {
			return t.Summary
		}
		label := strings.ReplaceAll(t.Name, "_", " ")
		parts = append(parts, fmt.Sprintf("%s: %s", label, t.Summary))
	}
	return strings.Join(parts, "; ")
}
