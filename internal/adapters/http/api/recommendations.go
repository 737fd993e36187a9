// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/vireo/internal/domain/model"
)

// RecommendationsHandler handles recommendation requests.
type RecommendationsHandler struct {
	deps Dependencies
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(deps Dependencies) *RecommendationsHandler {
	return &RecommendationsHandler{deps: deps}
}

// recommendRequest mirrors the POST /recommendations schema. The life list
// maps species codes to the first-seen date in RFC3339 form.
type recommendRequest struct {
	Recommender string            `json:"recommender"`
	Area        model.TargetArea  `json:"area"`
	Date        string            `json:"date"`
	LifeList    map[string]string `json:"life_list"`
}

func (r recommendRequest) validate(known []string) error {
	if strings.TrimSpace(r.Recommender) == "" {
		return errors.New("missing recommender")
	}
	if !slices.Contains(known, r.Recommender) {
		return fmt.Errorf("unknown recommender %q", r.Recommender)
	}
	if strings.TrimSpace(r.Date) == "" {
		return errors.New("missing date")
	}
	return r.Area.Validate()
}

// HandlePostRecommendations handles POST /recommendations requests.
func (h *RecommendationsHandler) HandlePostRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if err := req.validate(h.deps.Recommenders()); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid date; must be RFC3339", ErrBadRequest))
		return
	}
	lifeList := make(model.LifeList, len(req.LifeList))
	for code, first := range req.LifeList {
		seen, err := time.Parse(time.RFC3339, first)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: life list date for %s must be RFC3339", ErrBadRequest, code))
			return
		}
		lifeList[code] = seen
	}

	recs, err := h.deps.Recommend(r.Context(), req.Recommender, req.Area, date, lifeList)
	if err != nil {
		status := http.StatusInternalServerError
		code := "internal_error"
		if errors.Is(err, model.ErrInvalidArgument) || errors.Is(err, model.ErrUnsupportedArea) {
			status = http.StatusBadRequest
			code = "bad_request"
		}
		writeError(w, status, code, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
