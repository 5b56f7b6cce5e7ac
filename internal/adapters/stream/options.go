package stream

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithDialer overrides the websocket dialer, used by tests.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithWriteTimeout bounds how long a single frame write may block.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
