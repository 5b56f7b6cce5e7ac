package service_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/capture"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/stream"
	service "github.com/gabriel-accetta/piano-posture-analyzer/internal/app"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/config"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/report"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/simbackend"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithOutput(os.Stderr))
}

// cannedAssessor returns a fixed verdict and records what it was asked.
type cannedAssessor struct {
	verdict *model.OverallAssessment
	err     error

	gotSummary string
	gotDomain  model.Domain
	gotModel   string
}

func (c *cannedAssessor) Assess(_ context.Context, summary string, domain model.Domain, modelName string) (*model.OverallAssessment, error) {
	c.gotSummary = summary
	c.gotDomain = domain
	c.gotModel = modelName
	return c.verdict, c.err
}

func newBackend() *httptest.Server {
	mux := http.NewServeMux()
	simbackend.New().Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func backendConfig(srv *httptest.Server) *config.Config {
	cfg := config.New(context.Background())
	cfg.BackendBaseURL = srv.URL
	cfg.BackendWSURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg.FrameRate = 50
	return cfg
}

func startService(assessor service.Assessor, cfg *config.Config) *service.Service {
	svc := service.New(
		service.WithConfig(cfg),
		service.WithAssessor(assessor),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestAnalyzeVideoHand(t *testing.T) {
	Convey("Given a service backed by the simulated backend", t, func() {
		srv := newBackend()
		Reset(srv.Close)

		assessor := &cannedAssessor{verdict: &model.OverallAssessment{
			Classification: model.AssessmentGood,
			Feedbacks:      []string{"Keep wrists level"},
		}}
		svc := startService(assessor, backendConfig(srv))
		Reset(svc.Stop)

		Convey("When a hand video is analyzed", func() {
			payload := bytes.Repeat([]byte("v"), 8192)
			analysis, err := svc.AnalyzeVideo(context.Background(), model.DomainHand,
				bytes.NewReader(payload), int64(len(payload)), "take.webm")
			So(err, ShouldBeNil)

			Convey("Then both hand tracks aggregate into timelines", func() {
				So(analysis.ID, ShouldNotBeEmpty)
				So(analysis.Domain, ShouldEqual, model.DomainHand)
				So(analysis.Tracks, ShouldHaveLength, 2)
				So(analysis.Tracks[0].Name, ShouldEqual, report.TrackLeftHand)
				So(analysis.Tracks[1].Name, ShouldEqual, report.TrackRightHand)

				for _, track := range analysis.Tracks {
					So(track.HasData, ShouldBeTrue)
					So(track.Summary, ShouldContainSubstring, "%")

					// Segments tile the duration contiguously from zero.
					So(track.Segments[0].Start, ShouldEqual, 0.0)
					for i := 1; i < len(track.Segments); i++ {
						So(track.Segments[i].Start, ShouldEqual, track.Segments[i-1].End)
					}
				}
			})

			Convey("Then the assessment ran on the combined track summary", func() {
				So(analysis.Assessment, ShouldNotBeNil)
				So(analysis.Assessment.Classification, ShouldEqual, model.AssessmentGood)
				So(analysis.AssessmentError, ShouldBeEmpty)
				So(assessor.gotDomain, ShouldEqual, model.DomainHand)
				So(assessor.gotModel, ShouldBeEmpty)
				So(assessor.gotSummary, ShouldContainSubstring, "left hand:")
				So(assessor.gotSummary, ShouldContainSubstring, "right hand:")
			})
		})
	})
}

func TestAnalyzeVideoBodyDegradesOnAssessmentFailure(t *testing.T) {
	Convey("Given a service whose assessor is down", t, func() {
		srv := newBackend()
		Reset(srv.Close)

		assessor := &cannedAssessor{err: context.DeadlineExceeded}
		svc := startService(assessor, backendConfig(srv))
		Reset(svc.Stop)

		Convey("When a body video is analyzed", func() {
			payload := bytes.Repeat([]byte("v"), 4096)
			analysis, err := svc.AnalyzeVideo(context.Background(), model.DomainBody,
				bytes.NewReader(payload), int64(len(payload)), "take.webm")

			Convey("Then the timelines still return, flagged as degraded", func() {
				So(err, ShouldBeNil)
				So(analysis.Tracks, ShouldHaveLength, 1)
				So(analysis.Tracks[0].Name, ShouldEqual, report.TrackBody)
				So(analysis.Tracks[0].HasData, ShouldBeTrue)
				So(analysis.Assessment, ShouldBeNil)
				So(analysis.AssessmentError, ShouldNotBeEmpty)
			})

			Convey("Then the body summary goes to the assessor unprefixed", func() {
				So(assessor.gotSummary, ShouldNotContainSubstring, "body:")
				So(assessor.gotSummary, ShouldContainSubstring, "%")
			})
		})
	})
}

func TestServiceLifecycleGuards(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then operations are refused", func() {
			_, err := svc.AnalyzeVideo(context.Background(), model.DomainBody,
				strings.NewReader("x"), 1, "x.webm")
			So(err, ShouldEqual, service.ErrNotStarted)

			_, err = svc.Assess(context.Background(), "50% Correct", model.DomainBody, "")
			So(err, ShouldEqual, service.ErrNotStarted)

			_, err = svc.StartLive(context.Background(), model.DomainBody, nil)
			So(err, ShouldEqual, service.ErrNotStarted)
		})
	})

	Convey("Given a started service", t, func() {
		srv := newBackend()
		Reset(srv.Close)
		svc := startService(&cannedAssessor{}, backendConfig(srv))
		Reset(svc.Stop)

		Convey("Then the material catalog is available", func() {
			So(len(svc.Materials(context.Background())), ShouldBeGreaterThan, 0)
		})

		Convey("Then stats report the running state", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["materials"], ShouldBeGreaterThan, 0)
		})
	})
}

func frameDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for x := 0; x < 32; x++ {
		for y := 0; y < 24; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "frame.png"), buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestLiveSession(t *testing.T) {
	Convey("Given a service backed by the simulated backend", t, func() {
		srv := newBackend()
		Reset(srv.Close)
		svc := startService(&cannedAssessor{}, backendConfig(srv))
		Reset(svc.Stop)

		source, err := capture.NewDirSource(frameDir(t), true)
		So(err, ShouldBeNil)

		Convey("When a hand live session starts", func() {
			ls, err := svc.StartLive(context.Background(), model.DomainHand, source)
			So(err, ShouldBeNil)
			Reset(ls.Stop)

			Convey("Then classifications flow into the overlay", func() {
				ok := eventually(func() bool {
					snap := ls.Snapshot()
					return snap.LeftHand != nil && snap.RightHand != nil
				})
				So(ok, ShouldBeTrue)
				So(ls.Snapshot().Body, ShouldBeNil)
			})

			Convey("Then a second session is refused until this one stops", func() {
				other, err := capture.NewDirSource(frameDir(t), true)
				So(err, ShouldBeNil)

				_, startErr := svc.StartLive(context.Background(), model.DomainHand, other)
				So(startErr, ShouldEqual, service.ErrLiveSessionActive)

				ls.Stop()
				second, err := svc.StartLive(context.Background(), model.DomainBody, other)
				So(err, ShouldBeNil)
				second.Stop()
			})

			Convey("Then stop clears the overlay and is idempotent", func() {
				ls.Stop()
				So(func() { ls.Stop() }, ShouldNotPanic)
				So(ls.Snapshot(), ShouldResemble, stream.Snapshot{})
			})
		})
	})
}
