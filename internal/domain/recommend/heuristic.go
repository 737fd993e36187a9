package recommend

import (
	"context"
	"time"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/scoring"
	"github.com/okian/vireo/pkg/metrics"
)

// Default heuristic parameters.
const (
	defaultHistoricalYears = 3
	defaultDayWindow       = 1
)

// historicalRecommender scores candidate species fetched by a retriever.
// Both heuristic variants share this implementation and differ only in how
// the retriever expands the target date.
type historicalRecommender struct {
	name      string
	retriever CandidateSpeciesRetriever
}

// Name identifies the variant.
func (h *historicalRecommender) Name() string { return h.name }

// Recommend fetches candidates, keeps species in the filter set, and ranks
// locations by distinct-species count.
func (h *historicalRecommender) Recommend(ctx context.Context, area model.TargetArea, date time.Time, filter CodeSet) ([]model.Recommendation, error) {
	candidates, err := h.retriever.CandidateSpecies(ctx, area, date)
	if err != nil {
		metrics.RecordRecommenderError(h.name)
		return nil, err
	}
	kept := candidates.Filter(func(sp model.Species) bool { return filter.Contains(sp.SpeciesCode) })
	recs := scoring.Recommendations(kept)
	metrics.ObserveRecommendations(h.name, len(recs))
	return recs, nil
}

// RecommendFromLifeList fetches candidates, drops species on the life list,
// and recommends from the remainder.
func (h *historicalRecommender) RecommendFromLifeList(ctx context.Context, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error) {
	candidates, err := h.retriever.CandidateSpecies(ctx, area, date)
	if err != nil {
		metrics.RecordRecommenderError(h.name)
		return nil, err
	}
	lifers := candidates.Filter(func(sp model.Species) bool { return !lifeList.Seen(sp.SpeciesCode) })
	recs := scoring.Recommendations(lifers)
	if err := checkLifeListExclusion(recs, lifeList); err != nil {
		metrics.RecordRecommenderError(h.name)
		return nil, err
	}
	metrics.ObserveRecommendations(h.name, len(recs))
	return recs, nil
}

// HeuristicOption configures the heuristic recommenders.
type HeuristicOption func(*heuristicParams)

type heuristicParams struct {
	years  int
	window int
}

// WithHistoricalYears sets how many previous years to query.
func WithHistoricalYears(years int) HeuristicOption {
	return func(p *heuristicParams) {
		if years > 0 {
			p.years = years
		}
	}
}

// WithDayWindow sets the ± day window around the target date.
func WithDayWindow(window int) HeuristicOption {
	return func(p *heuristicParams) {
		if window >= 0 {
			p.window = window
		}
	}
}

// NewDayWindowRecommender recommends from the same date (± a window) in
// previous years.
func NewDayWindowRecommender(source Source, opts ...HeuristicOption) Recommender {
	p := heuristicParams{years: defaultHistoricalYears, window: defaultDayWindow}
	for _, opt := range opts {
		opt(&p)
	}
	return &historicalRecommender{
		name:      "day_window",
		retriever: NewDayWindowRetriever(source, p.years, p.window),
	}
}

// NewCalendarMonthRecommender recommends from the whole calendar month in
// previous years, trading precision for broader coverage.
func NewCalendarMonthRecommender(source Source, opts ...HeuristicOption) Recommender {
	p := heuristicParams{years: defaultHistoricalYears}
	for _, opt := range opts {
		opt(&p)
	}
	return &historicalRecommender{
		name:      "calendar_month",
		retriever: NewCalendarMonthRetriever(source, p.years),
	}
}
