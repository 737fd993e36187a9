// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/okian/vireo/internal/adapters/dataset"
	"github.com/okian/vireo/internal/adapters/lifelist"
	"github.com/okian/vireo/internal/adapters/llm"
	"github.com/okian/vireo/internal/adapters/provider"
	"github.com/okian/vireo/internal/domain/evals"
	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/recommend"
	"github.com/okian/vireo/pkg/logger"
)

// Service assembles the sightings provider, the recommenders, and the
// evaluation runner, and implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	provider     *provider.EBird
	cache        provider.Cache
	recommenders map[string]recommend.Recommender

	// Provider configuration
	ebirdAPIKey  string
	ebirdBaseURL string
	cachePath    string
	ebirdRate    float64
	fetchWorkers int
	maxResults   int

	// Recommender configuration
	historicalYears int
	dayWindow       int

	// Model configuration
	modelAPIKey     string
	modelName       string
	modelEndpoint   string
	modelMaxTokens  int
	modelWeight     float64
	heuristicWeight float64

	// Evaluation configuration
	evalWorkers  int
	evalTopK     int
	evalAreaKind model.AreaKind

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithEBirdAPIKey sets the sightings provider API key.
func WithEBirdAPIKey(key string) Option {
	return func(s *Service) {
		s.ebirdAPIKey = key
	}
}

// WithEBirdBaseURL overrides the provider base URL.
func WithEBirdBaseURL(u string) Option {
	return func(s *Service) {
		s.ebirdBaseURL = u
	}
}

// WithCachePath sets the SQLite response cache location. Empty disables
// caching.
func WithCachePath(path string) Option {
	return func(s *Service) {
		s.cachePath = path
	}
}

// WithEBirdRateLimit throttles outbound provider calls.
func WithEBirdRateLimit(perSecond float64) Option {
	return func(s *Service) {
		if perSecond > 0 {
			s.ebirdRate = perSecond
		}
	}
}

// WithFetchWorkers bounds concurrent per-date provider fetches.
func WithFetchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchWorkers = n
		}
	}
}

// WithMaxResults caps observations returned per provider call.
func WithMaxResults(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithHistoricalYears sets the heuristic look-back horizon.
func WithHistoricalYears(years int) Option {
	return func(s *Service) {
		if years > 0 {
			s.historicalYears = years
		}
	}
}

// WithDayWindow sets the day-window half-width.
func WithDayWindow(window int) Option {
	return func(s *Service) {
		if window >= 0 {
			s.dayWindow = window
		}
	}
}

// WithModelAPIKey enables the model-backed recommenders.
func WithModelAPIKey(key string) Option {
	return func(s *Service) {
		s.modelAPIKey = key
	}
}

// WithModelName selects the generation model.
func WithModelName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.modelName = name
		}
	}
}

// WithModelEndpoint overrides the generation API endpoint.
func WithModelEndpoint(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.modelEndpoint = u
		}
	}
}

// WithModelMaxTokens caps generated response length.
func WithModelMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.modelMaxTokens = n
		}
	}
}

// WithHybridWeights blends model and day-window scores in the hybrid
// recommender.
func WithHybridWeights(modelWeight, heuristicWeight float64) Option {
	return func(s *Service) {
		if modelWeight >= 0 && heuristicWeight >= 0 {
			s.modelWeight = modelWeight
			s.heuristicWeight = heuristicWeight
		}
	}
}

// WithEvalWorkers sets evaluation concurrency over the dataset.
func WithEvalWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.evalWorkers = n
		}
	}
}

// WithEvalTopK truncates recommendation lists before scoring.
func WithEvalTopK(k int) Option {
	return func(s *Service) {
		if k >= 0 {
			s.evalTopK = k
		}
	}
}

// WithEvalAreaKind sets the area kind dataset target locations are read as.
func WithEvalAreaKind(kind model.AreaKind) Option {
	return func(s *Service) {
		if kind != "" {
			s.evalAreaKind = kind
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cachePath:       ":memory:",
		ebirdRate:       2,
		fetchWorkers:    4,
		maxResults:      1000,
		historicalYears: 3,
		dayWindow:       1,
		modelWeight:     0.5,
		heuristicWeight: 0.5,
		evalWorkers:     runtime.NumCPU(),
		evalAreaKind:    model.AreaLocality,
		logger:          logger.Nop(),
		recommenders:    make(map[string]recommend.Recommender),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the provider and the recommender set. It is not safe to call
// the query methods before Start returns.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	cache := provider.NopCache()
	if s.cachePath != "" {
		opened, err := provider.OpenCache(s.cachePath)
		if err != nil {
			return fmt.Errorf("open response cache: %w", err)
		}
		cache = opened
	}

	ebirdOpts := []provider.EBirdOption{
		provider.WithCache(cache),
		provider.WithRateLimit(s.ebirdRate, 1),
		provider.WithFetchWorkers(s.fetchWorkers),
		provider.WithMaxResults(s.maxResults),
		provider.WithEBirdLogger(s.logger.Named("ebird")),
	}
	if s.ebirdBaseURL != "" {
		ebirdOpts = append(ebirdOpts, provider.WithBaseURL(s.ebirdBaseURL))
	}
	eb, err := provider.NewEBird(s.ebirdAPIKey, ebirdOpts...)
	if err != nil {
		_ = cache.Close()
		return fmt.Errorf("build sightings provider: %w", err)
	}

	dayWindow := recommend.NewDayWindowRecommender(eb,
		recommend.WithHistoricalYears(s.historicalYears),
		recommend.WithDayWindow(s.dayWindow),
	)
	calendarMonth := recommend.NewCalendarMonthRecommender(eb,
		recommend.WithHistoricalYears(s.historicalYears),
	)

	recommenders := map[string]recommend.Recommender{
		dayWindow.Name():     dayWindow,
		calendarMonth.Name(): calendarMonth,
	}

	if s.modelAPIKey != "" {
		client, err := llm.New(s.modelAPIKey,
			llm.WithModel(s.modelName),
			llm.WithEndpoint(s.modelEndpoint),
			llm.WithMaxTokens(s.modelMaxTokens),
			llm.WithLogger(s.logger.Named("llm")),
		)
		if err != nil {
			_ = cache.Close()
			return fmt.Errorf("build model client: %w", err)
		}
		modelRec := recommend.NewModelRecommender(client, eb,
			recommend.WithModelLogger(s.logger.Named("model")),
		)
		recommenders[modelRec.Name()] = modelRec

		hybrid, err := recommend.NewHybrid(
			recommend.Weighted{Recommender: modelRec, Weight: s.modelWeight},
			recommend.Weighted{Recommender: dayWindow, Weight: s.heuristicWeight},
		)
		if err != nil {
			_ = cache.Close()
			return fmt.Errorf("build hybrid recommender: %w", err)
		}
		recommenders[hybrid.Name()] = hybrid

		fallback := recommend.NewFallback(modelRec, dayWindow, s.logger.Named("fallback"))
		recommenders["model_fallback"] = fallback
	}

	s.cache = cache
	s.provider = eb
	s.recommenders = recommenders
	s.started = true

	names := make([]string, 0, len(recommenders))
	for name := range recommenders {
		names = append(names, name)
	}
	sort.Strings(names)
	s.logger.Info(ctx, "service started", logger.Any("recommenders", names))
	return nil
}

// Stop releases the response cache.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing response cache", logger.Error(err))
	}
	s.started = false
}

// Recommenders lists the registered recommender names, sorted.
func (s *Service) Recommenders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.recommenders))
	for name := range s.recommenders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) recommender(name string) (recommend.Recommender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recommenders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown recommender %q", model.ErrInvalidArgument, name)
	}
	return rec, nil
}

// Recommend runs the named recommender against one area, date, and life list.
func (s *Service) Recommend(ctx context.Context, name string, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error) {
	rec, err := s.recommender(name)
	if err != nil {
		return nil, err
	}
	return rec.RecommendFromLifeList(ctx, area, date, lifeList)
}

// Hotspots lists known hotspot location ids inside an area.
func (s *Service) Hotspots(ctx context.Context, area model.TargetArea) ([]string, error) {
	s.mu.RLock()
	eb := s.provider
	s.mu.RUnlock()
	if eb == nil {
		return nil, fmt.Errorf("%w: service not started", model.ErrInvalidArgument)
	}
	return eb.HotspotsInArea(ctx, area)
}

// LoadLifeList parses a life-list CSV export, resolving scientific names
// through the provider taxonomy.
func (s *Service) LoadLifeList(ctx context.Context, path string) (model.LifeList, error) {
	s.mu.RLock()
	eb := s.provider
	s.mu.RUnlock()
	if eb == nil {
		return nil, fmt.Errorf("%w: service not started", model.ErrInvalidArgument)
	}
	taxonomy, err := eb.SciNameToCode(ctx)
	if err != nil {
		return nil, err
	}
	return lifelist.ParseFile(path, taxonomy)
}

// EvaluateDataset runs the named recommender over a dataset file and
// returns per-datapoint and aggregate metrics.
func (s *Service) EvaluateDataset(ctx context.Context, name, path string) ([]evals.RecMetrics, evals.AggregateMetrics, error) {
	rec, err := s.recommender(name)
	if err != nil {
		return nil, evals.AggregateMetrics{}, err
	}
	points, err := dataset.LoadFile(path)
	if err != nil {
		return nil, evals.AggregateMetrics{}, err
	}
	runner := evals.NewRunner(rec,
		evals.WithWorkers(s.evalWorkers),
		evals.WithTopK(s.evalTopK),
		evals.WithAreaKind(s.evalAreaKind),
		evals.WithRunnerLogger(s.logger.Named("evals")),
	)
	return runner.Run(ctx, points)
}
