// Package api declares HTTP contracts and route registration helpers.
package api

import "net/http"

// MaterialsHandler handles learning material listing.
type MaterialsHandler struct {
	deps Dependencies
}

// NewMaterialsHandler creates a new materials handler.
func NewMaterialsHandler(deps Dependencies) *MaterialsHandler {
	return &MaterialsHandler{deps: deps}
}

// HandleGetMaterials handles GET /materials requests.
func (h *MaterialsHandler) HandleGetMaterials(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Materials(r.Context()))
}
