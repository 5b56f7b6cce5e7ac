package capture_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/capture"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithOutput(os.Stderr))
}

type stillSource struct {
	img   image.Image
	ready bool
}

func (s *stillSource) Frame() (image.Image, bool) {
	if !s.ready {
		return nil, false
	}
	return s.img, true
}

func (s *stillSource) Close() error { return nil }

type collectEmitter struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (c *collectEmitter) SendFrame(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *collectEmitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func (c *collectEmitter) first() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.payloads) == 0 {
		return nil
	}
	return c.payloads[0]
}

// limitedSource serves a fixed number of frames, then runs dry.
type limitedSource struct {
	mu     sync.Mutex
	img    image.Image
	limit  int
	served int
}

func (s *limitedSource) Frame() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.served >= s.limit {
		return nil, false
	}
	s.served++
	return s.img, true
}

func (s *limitedSource) Close() error { return nil }

func (s *limitedSource) drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served >= s.limit
}

// steppedClock advances a fixed step on every reading, starting at zero.
func steppedClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	var calls int
	base := time.Unix(0, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := base.Add(time.Duration(calls) * step)
		calls++
		return t
	}
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestSchedulerThrottling(t *testing.T) {
	Convey("Given a 20fps target and a clock advancing 10ms per frame", t, func() {
		src := &limitedSource{img: testImage(64, 48), limit: 20}
		sink := &collectEmitter{}
		s := capture.New(src, sink,
			capture.WithTargetRate(20),
			capture.WithTickInterval(time.Millisecond),
			capture.WithClock(steppedClock(10*time.Millisecond)),
		)

		Convey("When every source frame passes through the scheduler", func() {
			So(s.Start(context.Background()), ShouldBeNil)
			deadline := time.Now().Add(5 * time.Second)
			for !src.drained() && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			s.Stop()
			So(src.drained(), ShouldBeTrue)

			Convey("Then one frame per 50ms of source time is emitted", func() {
				// 20 frames at 10ms apart span 190ms; the 50ms throttle
				// admits t=0, 50, 100 and 150 and drops the other 16.
				So(sink.count(), ShouldEqual, 4)
			})

			Convey("Then payloads are valid JPEG", func() {
				img, err := jpeg.Decode(bytes.NewReader(sink.first()))
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 64)
			})
		})
	})
}

func TestSchedulerNotReadySource(t *testing.T) {
	Convey("Given a source with no frame ready", t, func() {
		src := &stillSource{ready: false}
		sink := &collectEmitter{}
		s := capture.New(src, sink, capture.WithTickInterval(time.Millisecond))

		Convey("When the scheduler runs", func() {
			So(s.Start(context.Background()), ShouldBeNil)
			time.Sleep(30 * time.Millisecond)
			s.Stop()

			Convey("Then nothing is emitted and nothing errors", func() {
				So(sink.count(), ShouldEqual, 0)
			})
		})
	})
}

func TestSchedulerLifecycle(t *testing.T) {
	Convey("Given a running scheduler", t, func() {
		src := &stillSource{img: testImage(8, 8), ready: true}
		s := capture.New(src, &collectEmitter{}, capture.WithTickInterval(time.Millisecond))
		So(s.Start(context.Background()), ShouldBeNil)

		Convey("Then a second start is rejected", func() {
			So(s.Start(context.Background()), ShouldEqual, capture.ErrAlreadyStarted)
		})

		Convey("Then stop is idempotent", func() {
			s.Stop()
			So(func() { s.Stop() }, ShouldNotPanic)
		})

		Reset(func() { s.Stop() })
	})
}

func TestSchedulerDownscale(t *testing.T) {
	Convey("Given a frame wider than the configured bound", t, func() {
		src := &stillSource{img: testImage(100, 80), ready: true}
		sink := &collectEmitter{}
		s := capture.New(src, sink,
			capture.WithTargetRate(100),
			capture.WithTickInterval(time.Millisecond),
			capture.WithMaxWidth(50),
		)

		Convey("When frames are emitted", func() {
			So(s.Start(context.Background()), ShouldBeNil)
			time.Sleep(50 * time.Millisecond)
			s.Stop()

			Convey("Then the encoded frame is downscaled preserving aspect", func() {
				So(sink.count(), ShouldBeGreaterThan, 0)
				img, err := jpeg.Decode(bytes.NewReader(sink.first()))
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 50)
				So(img.Bounds().Dy(), ShouldEqual, 40)
			})
		})
	})
}

func TestDirSource(t *testing.T) {
	Convey("Given a directory of frame files", t, func() {
		dir := t.TempDir()
		for _, name := range []string{"a.png", "b.png"} {
			var buf bytes.Buffer
			So(png.Encode(&buf, testImage(4, 4)), ShouldBeNil)
			So(os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o600), ShouldBeNil)
		}

		Convey("When reading without looping", func() {
			src, err := capture.NewDirSource(dir, false)
			So(err, ShouldBeNil)

			_, ok := src.Frame()
			So(ok, ShouldBeTrue)
			_, ok = src.Frame()
			So(ok, ShouldBeTrue)

			Convey("Then the source runs dry after the last file", func() {
				_, ok := src.Frame()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When looping", func() {
			src, err := capture.NewDirSource(dir, true)
			So(err, ShouldBeNil)

			for i := 0; i < 5; i++ {
				_, ok := src.Frame()
				So(ok, ShouldBeTrue)
			}
		})

		Convey("When closed", func() {
			src, err := capture.NewDirSource(dir, true)
			So(err, ShouldBeNil)
			So(src.Close(), ShouldBeNil)

			_, ok := src.Frame()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an empty directory", t, func() {
		_, err := capture.NewDirSource(t.TempDir(), false)
		So(err, ShouldNotBeNil)
	})
}
