// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, then layer file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EBirdAPIKey authenticates requests to the sightings provider.
	EBirdAPIKey string `koanf:"ebird_api_key"`

	// EBirdBaseURL overrides the provider base URL (tests, proxies).
	EBirdBaseURL string `koanf:"ebird_base_url"`

	// EBirdCachePath is the SQLite response cache location. The value
	// ":memory:" keeps the cache in process memory; empty disables caching.
	EBirdCachePath string `koanf:"ebird_cache_path"`

	// EBirdRequestsPerSecond throttles outbound provider calls.
	EBirdRequestsPerSecond float64 `koanf:"ebird_requests_per_second"`

	// EBirdFetchWorkers bounds concurrent per-date provider fetches.
	EBirdFetchWorkers int `koanf:"ebird_fetch_workers"`

	// EBirdMaxResults caps observations returned per provider call.
	EBirdMaxResults int `koanf:"ebird_max_results"`

	// HistoricalYears sets how many past years the heuristic recommenders
	// look back through.
	HistoricalYears int `koanf:"historical_years"`

	// DayWindow sets the half-width of the day window around the target
	// date for the day-window recommender.
	DayWindow int `koanf:"day_window"`

	// ModelAPIKey authenticates the text-generation backend. Empty
	// disables the model and hybrid recommenders.
	ModelAPIKey string `koanf:"model_api_key"`

	// ModelName selects the generation model.
	ModelName string `koanf:"model_name"`

	// ModelEndpoint overrides the generation API endpoint.
	ModelEndpoint string `koanf:"model_endpoint"`

	// ModelMaxTokens caps generated response length.
	ModelMaxTokens int `koanf:"model_max_tokens"`

	// ModelWeight and HeuristicWeight blend model and day-window scores
	// in the hybrid recommender.
	ModelWeight     float64 `koanf:"model_weight"`
	HeuristicWeight float64 `koanf:"heuristic_weight"`

	// EvalWorkers sets evaluation concurrency over the dataset.
	EvalWorkers int `koanf:"eval_workers"`

	// EvalTopK truncates recommendation lists before scoring; zero keeps all.
	EvalTopK int `koanf:"eval_top_k"`

	// EvalAreaKind is the area kind dataset target locations are read as.
	EvalAreaKind string `koanf:"eval_area_kind"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		EBirdCachePath:         ":memory:",
		EBirdRequestsPerSecond: 2,
		EBirdFetchWorkers:      4,
		EBirdMaxResults:        1000,
		HistoricalYears:        3,
		DayWindow:              1,
		ModelName:              "claude-3-7-sonnet-20250219",
		ModelMaxTokens:         4000,
		ModelWeight:            0.5,
		HeuristicWeight:        0.5,
		EvalWorkers:            runtime.NumCPU(),
		EvalTopK:               0,
		EvalAreaKind:           "locality",
	}
}
