// Package stream maintains the persistent websocket session that carries
// captured frames to the pose-inference backend and classification results
// back into the live overlay.
package stream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/normalize"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/metrics"
)

// State is the client's connection lifecycle state.
type State int32

// Lifecycle states. Error is terminal like Closed, but indicates an
// unexpected transport failure rather than a deliberate stop.
const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// outboundFrame is the wire shape for one captured frame.
type outboundFrame struct {
	Image     string `json:"image"`
	Timestamp int64  `json:"timestamp"`
}

// envelope is the wire shape wrapping every inbound classification.
type envelope struct {
	Analysis json.RawMessage `json:"analysis"`
}

// Client is a single-session websocket streaming client. It dials once,
// feeds frames out and classifications into the overlay, and never
// reconnects on its own: after a transport failure it parks in the error
// state and the caller decides whether to start a fresh session.
type Client struct {
	baseURL      string
	dialer       *websocket.Dialer
	overlay      *Overlay
	logger       logger.Logger
	writeTimeout time.Duration

	mu     sync.Mutex
	state  State
	domain model.Domain
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
	err    error

	// Serializes concurrent SendFrame calls onto the single connection.
	writeMu sync.Mutex
}

// New builds a client for the given websocket base URL (scheme and host,
// no path). Results land in overlay.
func New(baseURL string, overlay *Overlay, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		dialer:       websocket.DefaultDialer,
		overlay:      overlay,
		logger:       logger.Get().Named("stream"),
		writeTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start dials {base}/ws/{domain} and launches the read loop. It fails
// when the client is already connecting or open, and parks the client in
// the error state when the dial fails. Cancelling ctx tears the session
// down like Stop does.
func (c *Client) Start(ctx context.Context, domain model.Domain) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateOpen {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateConnecting
	c.domain = domain
	c.mu.Unlock()

	url := fmt.Sprintf("%s/ws/%s", c.baseURL, domain)
	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		c.fail(fmt.Errorf("%w: %s: %v", ErrDial, url, err))
		metrics.RecordStreamTransportError()
		return fmt.Errorf("%w: %s: %v", ErrDial, url, err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.state = StateOpen
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.err = nil
	c.mu.Unlock()

	metrics.RecordStreamConnect()
	c.logger.Info(ctx, "stream open", logger.String("url", url))

	go c.readLoop(loopCtx, conn, done)
	go func() {
		<-loopCtx.Done()
		c.Stop()
	}()

	return nil
}

// SendFrame satisfies the capture emitter contract: it wraps the encoded
// frame in the outbound wire shape and writes it to the open connection.
func (c *Client) SendFrame(_ context.Context, payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateOpen
	c.mu.Unlock()

	if !open || conn == nil {
		return ErrNotOpen
	}

	frame := outboundFrame{
		Image:     base64.StdEncoding.EncodeToString(payload),
		Timestamp: time.Now().UnixMilli(),
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Stop tears the session down and clears the overlay. Idempotent, and
// each release step runs regardless of how far Start got.
func (c *Client) Stop() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = StateClosed
	conn := c.conn
	cancel := c.cancel
	done := c.done
	c.conn = nil
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
	if c.overlay != nil {
		c.overlay.Reset()
	}

	if prev == StateOpen || prev == StateConnecting {
		c.logger.Info(context.Background(), "stream closed")
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the transport error that parked the client in the error
// state, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = StateError
	c.err = err
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.State() == StateClosed {
				return
			}
			metrics.RecordStreamTransportError()
			c.fail(fmt.Errorf("read message: %w", err))
			c.logger.Error(ctx, "stream read failed", logger.Error(err))
			return
		}

		metrics.RecordStreamMessage()
		c.handleMessage(ctx, data)
	}
}

// handleMessage applies one inbound classification to the overlay. Shape
// mismatches are logged and discarded so a stray message never kills the
// session.
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Analysis == nil {
		c.discard(ctx, data, err)
		return
	}

	switch c.domain {
	case model.DomainHand:
		var raws []normalize.RawRecord
		if err := json.Unmarshal(env.Analysis, &raws); err != nil {
			c.discard(ctx, data, err)
			return
		}
		for _, rec := range normalize.HandRealtime(raws) {
			c.overlay.SetHand(rec)
		}
	case model.DomainBody:
		var raw normalize.RawRecord
		if err := json.Unmarshal(env.Analysis, &raw); err != nil {
			c.discard(ctx, data, err)
			return
		}
		c.overlay.SetBody(normalize.BodyRealtime(raw))
	}
}

func (c *Client) discard(ctx context.Context, data []byte, err error) {
	metrics.RecordStreamShapeError()
	c.logger.Warn(ctx, "discarding malformed stream message",
		logger.Int("bytes", len(data)),
		logger.Error(err),
	)
}
