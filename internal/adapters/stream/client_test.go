package stream_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/stream"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

func init() {
	_ = logger.Init(logger.WithOutput(os.Stderr))
}

// fakeBackend is a one-connection websocket endpoint that records inbound
// frames and answers each with a canned analysis payload.
type fakeBackend struct {
	upgrader websocket.Upgrader
	reply    []byte

	mu     sync.Mutex
	frames []map[string]any
	path   string
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.path = r.URL.Path
	f.mu.Unlock()

	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var frame map[string]any
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		f.mu.Lock()
		f.frames = append(f.frames, frame)
		f.mu.Unlock()

		if f.reply != nil {
			if err := conn.WriteMessage(websocket.TextMessage, f.reply); err != nil {
				return
			}
		}
	}
}

func (f *fakeBackend) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeBackend) firstFrame() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[0]
}

func (f *fakeBackend) seenPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestClientHandStreaming(t *testing.T) {
	Convey("Given a backend answering with a hand analysis", t, func() {
		reply, err := json.Marshal(map[string]any{
			"analysis": []map[string]any{
				{
					"features": []float64{12.5, 0.1, 0.2, 0.3, 40, 50, 60},
					"label":    "High Wrist",
					"hand":     "Left",
				},
				{
					"features": []float64{3.0},
					"label":    "Correct",
					"hand":     "Right",
				},
			},
		})
		So(err, ShouldBeNil)

		backend := &fakeBackend{reply: reply}
		srv := httptest.NewServer(backend)
		Reset(srv.Close)

		overlay := stream.NewOverlay()
		c := stream.New(wsURL(srv), overlay, stream.WithWriteTimeout(2*time.Second))
		Reset(c.Stop)

		Convey("When the client starts and sends a frame", func() {
			So(c.Start(context.Background(), model.DomainHand), ShouldBeNil)
			So(c.State(), ShouldEqual, stream.StateOpen)
			So(backend.seenPath(), ShouldEqual, "/ws/hand")

			So(c.SendFrame(context.Background(), []byte{0xff, 0xd8, 0xff}), ShouldBeNil)

			Convey("Then the frame crosses the wire base64-encoded with a timestamp", func() {
				So(eventually(func() bool { return backend.frameCount() > 0 }), ShouldBeTrue)
				frame := backend.firstFrame()
				img, _ := frame["image"].(string)
				decoded, err := base64.StdEncoding.DecodeString(img)
				So(err, ShouldBeNil)
				So(decoded, ShouldResemble, []byte{0xff, 0xd8, 0xff})
				So(frame["timestamp"], ShouldBeGreaterThan, 0)
			})

			Convey("Then both hand slots fill from the reply", func() {
				ok := eventually(func() bool {
					snap := overlay.Snapshot()
					return snap.LeftHand != nil && snap.RightHand != nil
				})
				So(ok, ShouldBeTrue)

				snap := overlay.Snapshot()
				So(snap.LeftHand.Classification, ShouldEqual, model.HandHighWrist)
				So(snap.LeftHand.Features.WristAngle, ShouldEqual, 12.5)
				So(snap.RightHand.Classification, ShouldEqual, model.HandCorrect)
				// Short feature vectors zero-fill.
				So(snap.RightHand.Features.FingerCurvature, ShouldResemble, []float64{0, 0, 0})
				So(snap.Body, ShouldBeNil)
			})
		})
	})
}

func TestClientBodyStreaming(t *testing.T) {
	Convey("Given a backend answering with a body analysis", t, func() {
		reply, err := json.Marshal(map[string]any{
			"analysis": map[string]any{
				"features": []float64{5, 10, 15, 20, 25},
				"label":    "Slouched",
			},
		})
		So(err, ShouldBeNil)

		backend := &fakeBackend{reply: reply}
		srv := httptest.NewServer(backend)
		Reset(srv.Close)

		overlay := stream.NewOverlay()
		c := stream.New(wsURL(srv), overlay)
		Reset(c.Stop)

		Convey("When the client streams a frame", func() {
			So(c.Start(context.Background(), model.DomainBody), ShouldBeNil)
			So(backend.seenPath(), ShouldEqual, "/ws/body")
			So(c.SendFrame(context.Background(), []byte("jpeg")), ShouldBeNil)

			Convey("Then the body slot fills", func() {
				So(eventually(func() bool { return overlay.Snapshot().Body != nil }), ShouldBeTrue)
				snap := overlay.Snapshot()
				So(snap.Body.Classification, ShouldEqual, model.BodySlouched)
				So(snap.Body.Features.NeckAngle, ShouldEqual, 10.0)
				So(snap.LeftHand, ShouldBeNil)
			})
		})
	})
}

func TestClientShapeMismatch(t *testing.T) {
	Convey("Given a hand session fed a body-shaped reply", t, func() {
		reply, err := json.Marshal(map[string]any{
			"analysis": map[string]any{"features": []float64{1}, "label": "Slouched"},
		})
		So(err, ShouldBeNil)

		backend := &fakeBackend{reply: reply}
		srv := httptest.NewServer(backend)
		Reset(srv.Close)

		overlay := stream.NewOverlay()
		c := stream.New(wsURL(srv), overlay)
		Reset(c.Stop)

		So(c.Start(context.Background(), model.DomainHand), ShouldBeNil)
		So(c.SendFrame(context.Background(), []byte("jpeg")), ShouldBeNil)
		So(eventually(func() bool { return backend.frameCount() > 0 }), ShouldBeTrue)

		Convey("Then the message is discarded and the session survives", func() {
			// Give the reply time to arrive and be rejected.
			time.Sleep(100 * time.Millisecond)
			So(overlay.Snapshot(), ShouldResemble, stream.Snapshot{})
			So(c.State(), ShouldEqual, stream.StateOpen)
			So(c.SendFrame(context.Background(), []byte("again")), ShouldBeNil)
		})
	})
}

func TestClientLifecycle(t *testing.T) {
	Convey("Given a running client", t, func() {
		backend := &fakeBackend{}
		srv := httptest.NewServer(backend)
		Reset(srv.Close)

		overlay := stream.NewOverlay()
		overlay.SetBody(model.BodyRecord{Classification: model.BodyCorrect})

		c := stream.New(wsURL(srv), overlay)
		So(c.Start(context.Background(), model.DomainBody), ShouldBeNil)

		Convey("Then a second start is rejected", func() {
			So(c.Start(context.Background(), model.DomainBody), ShouldEqual, stream.ErrAlreadyStarted)
			c.Stop()
		})

		Convey("Then stop closes the session and clears the overlay", func() {
			c.Stop()
			So(c.State(), ShouldEqual, stream.StateClosed)
			So(overlay.Snapshot(), ShouldResemble, stream.Snapshot{})
			So(func() { c.Stop() }, ShouldNotPanic)
			So(c.SendFrame(context.Background(), []byte("x")), ShouldEqual, stream.ErrNotOpen)
		})
	})

	Convey("Given no client has started", t, func() {
		c := stream.New("ws://127.0.0.1:1", stream.NewOverlay())

		Convey("Then the state is idle and frames are refused", func() {
			So(c.State(), ShouldEqual, stream.StateIdle)
			So(c.SendFrame(context.Background(), []byte("x")), ShouldEqual, stream.ErrNotOpen)
		})
	})
}

func TestClientDialFailure(t *testing.T) {
	Convey("Given an unreachable backend and a tightly bounded dialer", t, func() {
		c := stream.New("ws://127.0.0.1:1", stream.NewOverlay(),
			stream.WithDialer(&websocket.Dialer{HandshakeTimeout: 250 * time.Millisecond}),
		)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		Convey("When the client starts", func() {
			err := c.Start(ctx, model.DomainHand)

			Convey("Then it parks in the error state", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, stream.ErrDial)
				So(c.State(), ShouldEqual, stream.StateError)
				So(c.Err(), ShouldNotBeNil)
			})
		})
	})
}
