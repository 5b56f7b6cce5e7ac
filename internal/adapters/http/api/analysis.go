// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/adapters/upload"
	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/model"
)

// maxMultipartMemory bounds how much of the form is buffered in memory;
// the rest spills to temp files.
const maxMultipartMemory = 32 << 20

// AnalysisHandler handles video analysis requests.
type AnalysisHandler struct {
	deps Dependencies
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps Dependencies) *AnalysisHandler {
	return &AnalysisHandler{deps: deps}
}

// HandlePostAnalysis handles POST /analyses/{domain} requests carrying a
// multipart video under the "file" field.
func (h *AnalysisHandler) HandlePostAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_analysis"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	domain, err := model.ParseDomain(strings.TrimPrefix(r.URL.Path, "/analyses/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrMissingField, err))
		return
	}
	defer file.Close()

	analysis, err := h.deps.AnalyzeVideo(r.Context(), domain, file, header.Size, header.Filename)
	if err != nil {
		h.writeAnalysisError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// writeAnalysisError maps pipeline failures onto HTTP statuses.
func (h *AnalysisHandler) writeAnalysisError(w http.ResponseWriter, op string, err error) {
	var statusErr *upload.StatusError

	switch {
	case errors.Is(err, upload.ErrUploadInFlight):
		writeError(w, http.StatusTooManyRequests, "busy", WrapKind(op, ErrBusy, err))
	case errors.Is(err, upload.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, upload.ErrNoFile):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.As(err, &statusErr):
		writeError(w, http.StatusBadGateway, "backend_failure", WrapKind(op, ErrUpstream, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
