// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the gateway HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BackendBaseURL is the HTTP base of the pose-inference backend,
	// e.g. "http://localhost:8000". The batch upload path posts to
	// {BackendBaseURL}/analyze/{domain}.
	BackendBaseURL string `koanf:"backend_base_url"`

	// BackendWSURL is the websocket base of the pose-inference backend,
	// e.g. "ws://localhost:8000". The live path connects to
	// {BackendWSURL}/ws/{domain}.
	BackendWSURL string `koanf:"backend_ws_url"`

	// OpenAIAPIKey authenticates assessment generation requests.
	OpenAIAPIKey string `koanf:"openai_api_key"`

	// OpenAIBaseURL overrides the generation service endpoint (tests, proxies).
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// AssessmentModel names the default generation model.
	AssessmentModel string `koanf:"assessment_model"`

	// FrameRate bounds captured frames per second on the live path.
	FrameRate float64 `koanf:"frame_rate"`

	// JPEGQuality is the fixed lossy quality factor for encoded frames (1-100).
	JPEGQuality int `koanf:"jpeg_quality"`

	// MaxFrameWidth downscales frames wider than this before encoding. 0 disables.
	MaxFrameWidth int `koanf:"max_frame_width"`

	// MaxUploadBytes caps the accepted video payload on POST /analyses.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// CatalogPath optionally overrides the embedded material catalog.
	CatalogPath string `koanf:"catalog_path"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		BackendBaseURL:  "http://localhost:8000",
		BackendWSURL:    "ws://localhost:8000",
		AssessmentModel: "gpt-4o-mini",
		FrameRate:       10,
		JPEGQuality:     60,
		MaxFrameWidth:   1280,
		MaxUploadBytes:  100 << 20,
	}
}
