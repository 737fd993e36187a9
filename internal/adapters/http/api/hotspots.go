// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/vireo/internal/domain/model"
)

// HotspotsHandler handles hotspot listing requests.
type HotspotsHandler struct {
	deps Dependencies
}

// NewHotspotsHandler creates a new hotspots handler.
func NewHotspotsHandler(deps Dependencies) *HotspotsHandler {
	return &HotspotsHandler{deps: deps}
}

type hotspotsResponse struct {
	Locations []string `json:"locations"`
}

// HandleGetHotspots handles GET /hotspots?kind=K&area=A requests.
func (h *HotspotsHandler) HandleGetHotspots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = string(model.AreaCounty)
	}
	area, err := model.NewTargetArea(model.AreaKind(kind), r.URL.Query().Get("area"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	locations, err := h.deps.Hotspots(r.Context(), area)
	if err != nil {
		status := http.StatusInternalServerError
		code := "internal_error"
		if errors.Is(err, model.ErrUnsupportedArea) {
			status = http.StatusBadRequest
			code = "bad_request"
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, hotspotsResponse{Locations: locations})
}
