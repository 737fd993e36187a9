// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/vireo/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Recommend produces ranked hotspot recommendations from a named
	// recommender for one area, date, and life list.
	Recommend(ctx context.Context, recommender string, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error)

	// Hotspots lists known hotspot location ids inside an area.
	Hotspots(ctx context.Context, area model.TargetArea) ([]string, error)

	// Recommenders lists the names Recommend accepts.
	Recommenders() []string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler          *HealthHandler
	recommendationsHandler *RecommendationsHandler
	hotspotsHandler        *HotspotsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:          NewHealthHandler(),
		recommendationsHandler: NewRecommendationsHandler(deps),
		hotspotsHandler:        NewHotspotsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/recommendations", MetricsMiddleware(s.recommendationsHandler.HandlePostRecommendations, "recommendations"))
	mux.HandleFunc("/hotspots", MetricsMiddleware(s.hotspotsHandler.HandleGetHotspots, "hotspots"))
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
