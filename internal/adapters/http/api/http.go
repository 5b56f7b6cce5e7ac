// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/report"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// AnalyzeVideo runs the full batch pipeline on one uploaded video.
	AnalyzeVideo(ctx context.Context, domain model.Domain, file io.Reader, size int64, name string) (*report.Analysis, error)

	// Assess converts a classification summary into an overall verdict.
	Assess(ctx context.Context, summary string, domain model.Domain, modelName string) (*model.OverallAssessment, error)

	// Materials lists the recommendable learning materials.
	Materials(ctx context.Context) []model.Material
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	analysisHandler   *AnalysisHandler
	assessmentHandler *AssessmentHandler
	materialsHandler  *MaterialsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		analysisHandler:   NewAnalysisHandler(deps),
		assessmentHandler: NewAssessmentHandler(deps),
		materialsHandler:  NewMaterialsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/materials", MetricsMiddleware(s.materialsHandler.HandleGetMaterials, "materials"))
	mux.HandleFunc("/assessments", MetricsMiddleware(s.assessmentHandler.HandlePostAssessment, "assessments"))
	mux.HandleFunc("/analyses/", MetricsMiddleware(s.analysisHandler.HandlePostAnalysis, "analyses"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
