// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/assessment"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
)

// AssessmentHandler handles overall assessment requests.
type AssessmentHandler struct {
	deps Dependencies
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps Dependencies) *AssessmentHandler {
	return &AssessmentHandler{deps: deps}
}

// assessmentRequest mirrors the request schema for POST /assessments.
// Model optionally overrides the configured completion model.
type assessmentRequest struct {
	Text  string `json:"text"`
	Type  string `json:"type"`
	Model string `json:"model"`
}

// assessmentFailure is the non-2xx shape for assessment pipeline
// failures. Raw carries unparseable model output, Parsed carries output
// that parsed but violated the schema.
type assessmentFailure struct {
	Error  string `json:"error"`
	Raw    string `json:"raw,omitempty"`
	Parsed any    `json:"parsed,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// HandlePostAssessment handles POST /assessments requests.
func (h *AssessmentHandler) HandlePostAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req assessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, assessmentFailure{
			Error: "Request body must be valid JSON.",
		})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, assessmentFailure{
			Error: "Request body must include a `text` string.",
		})
		return
	}
	domain, err := model.ParseDomain(req.Type)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, assessmentFailure{
			Error: "Request body must include a valid `type` (\"body\" or \"hand\").",
		})
		return
	}

	result, err := h.deps.Assess(r.Context(), req.Text, domain, req.Model)
	if err != nil {
		h.writeAssessError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AssessmentHandler) writeAssessError(w http.ResponseWriter, err error) {
	var parseErr *assessment.ParseError
	var schemaErr *assessment.SchemaError

	switch {
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusInternalServerError, assessmentFailure{
			Error: "Failed to parse model JSON output",
			Raw:   parseErr.Raw,
		})
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusInternalServerError, assessmentFailure{
			Error:  "Model returned invalid schema",
			Parsed: schemaErr.Parsed,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, assessmentFailure{
			Error:  "Server error",
			Detail: err.Error(),
		})
	}
}
