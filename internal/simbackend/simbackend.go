// Package simbackend is a stand-in for the pose-inference backend. It
// speaks the same wire contracts (websocket realtime stream and
// multipart batch analysis) but fabricates classifications, which makes
// the full pipeline runnable without cameras, models, or GPUs.
package simbackend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/pkg/logger"
)

// bytesPerSecond approximates how much video one second of a recorded
// session weighs, used to derive a synthetic duration from upload size.
const bytesPerSecond = 256 << 10

// maxMultipartMemory bounds in-memory buffering of uploaded forms.
const maxMultipartMemory = 32 << 20

// Server fabricates classification responses over the backend's wire
// contracts.
type Server struct {
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a simulated backend server.
func New(opts ...Option) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.Get().Named("simbackend"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register attaches the backend routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/ws/", s.handleStream)
	mux.HandleFunc("/analyze/", s.handleAnalyze)
}

// inboundFrame mirrors the realtime frame shape sent by clients.
type inboundFrame struct {
	Image     string `json:"image"`
	Timestamp int64  `json:"timestamp"`
}

// rawRecord mirrors the backend's per-frame classification shape.
type rawRecord struct {
	Timestamp float64   `json:"timestamp,omitempty"`
	Features  []float64 `json:"features"`
	Label     string    `json:"label"`
	Hand      string    `json:"hand,omitempty"`
}

// handleStream serves /ws/{domain}: one synthetic analysis per received
// frame.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	domain, err := model.ParseDomain(strings.TrimPrefix(r.URL.Path, "/ws/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.logger.Info(r.Context(), "stream session opened",
		logger.String("domain", string(domain)))

	frames := 0
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			s.logger.Info(r.Context(), "stream session closed",
				logger.Int("frames", frames))
			return
		}
		frames++

		if err := conn.WriteJSON(map[string]any{"analysis": s.realtimeAnalysis(domain, frames)}); err != nil {
			return
		}
	}
}

// realtimeAnalysis fabricates one realtime payload: a two-hand array for
// the hand domain, a single record for the body domain.
func (s *Server) realtimeAnalysis(domain model.Domain, frame int) any {
	if domain == model.DomainHand {
		return []rawRecord{
			{Features: handFeatureVector(), Label: string(handLabel(frame)), Hand: string(model.LeftHand)},
			{Features: handFeatureVector(), Label: string(handLabel(frame + 3)), Hand: string(model.RightHand)},
		}
	}
	return rawRecord{Features: bodyFeatureVector(), Label: string(bodyLabel(frame))}
}

// handleAnalyze serves POST /analyze/{domain}: consumes the multipart
// video and fabricates a per-second batch classification.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	domain, err := model.ParseDomain(strings.TrimPrefix(r.URL.Path, "/analyze/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		http.Error(w, "read upload", http.StatusInternalServerError)
		return
	}

	seconds := int(size/bytesPerSecond) + 1
	if seconds < 4 {
		seconds = 4
	}

	s.logger.Info(r.Context(), "fabricating batch analysis",
		logger.String("domain", string(domain)),
		logger.Int64("bytes", size),
		logger.Int("seconds", seconds),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.batchAnalysis(domain, seconds))
}

// batchAnalysis fabricates one classification per elapsed second.
func (s *Server) batchAnalysis(domain model.Domain, seconds int) map[string]any {
	if domain == model.DomainHand {
		left := make([]rawRecord, 0, seconds)
		right := make([]rawRecord, 0, seconds)
		for i := 1; i <= seconds; i++ {
			left = append(left, rawRecord{
				Timestamp: float64(i),
				Features:  handFeatureVector(),
				Label:     string(handLabel(i)),
				Hand:      string(model.LeftHand),
			})
			right = append(right, rawRecord{
				Timestamp: float64(i),
				Features:  handFeatureVector(),
				Label:     string(handLabel(i + 3)),
				Hand:      string(model.RightHand),
			})
		}
		return map[string]any{
			"left_hand_classification":  left,
			"right_hand_classification": right,
		}
	}

	body := make([]rawRecord, 0, seconds)
	for i := 1; i <= seconds; i++ {
		body = append(body, rawRecord{
			Timestamp: float64(i),
			Features:  bodyFeatureVector(),
			Label:     string(bodyLabel(i)),
		})
	}
	return map[string]any{"body_classification": body}
}
