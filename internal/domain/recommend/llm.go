package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/scoring"
	"github.com/okian/vireo/pkg/logger"
	"github.com/okian/vireo/pkg/metrics"
)

// Model recommender defaults.
const (
	defaultModelYears     = 5
	defaultModelDayWindow = 7

	// Model scores arrive in [0,1]; heuristic scores are species counts.
	// Rescaling keeps the two comparable when blended.
	defaultScoreScale = 10
)

const modelSystemPrompt = "You are an expert birding and wildlife assistant. " +
	"You analyze birding data and make recommendations based on patterns."

// ModelClient abstracts the external text-generation backend. One request
// per recommendation call; the implementation owns transport resilience.
type ModelClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ModelRecommender asks an external model to rank hotspots given the life
// list and historical sightings context. Transport and parse failures
// propagate to the caller; compose with Fallback for local recovery.
type ModelRecommender struct {
	client ModelClient
	window *DayWindowRetriever
	month  *CalendarMonthRetriever
	years  int
	span   int
	scale  float64
	log    logger.Logger
}

// ModelOption configures the model recommender.
type ModelOption func(*ModelRecommender)

// WithModelYears sets how many previous years of context to fetch.
func WithModelYears(years int) ModelOption {
	return func(r *ModelRecommender) {
		if years > 0 {
			r.years = years
		}
	}
}

// WithModelDayWindow sets the ± day window for the day-window context.
func WithModelDayWindow(window int) ModelOption {
	return func(r *ModelRecommender) {
		if window >= 0 {
			r.span = window
		}
	}
}

// WithScoreScale sets the factor applied to model scores.
func WithScoreScale(scale float64) ModelOption {
	return func(r *ModelRecommender) {
		if scale > 0 {
			r.scale = scale
		}
	}
}

// WithModelLogger sets the logger.
func WithModelLogger(log logger.Logger) ModelOption {
	return func(r *ModelRecommender) {
		if log != nil {
			r.log = log
		}
	}
}

// NewModelRecommender creates a model-backed recommender reading historical
// context through the given source.
func NewModelRecommender(client ModelClient, source Source, opts ...ModelOption) *ModelRecommender {
	r := &ModelRecommender{
		client: client,
		years:  defaultModelYears,
		span:   defaultModelDayWindow,
		scale:  defaultScoreScale,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.window = NewDayWindowRetriever(source, r.years, r.span)
	r.month = NewCalendarMonthRetriever(source, r.years)
	return r
}

// Name identifies the variant.
func (r *ModelRecommender) Name() string { return "model" }

// Recommend restricts the historical context to the filter set and asks the
// model to rank hotspots for those target species.
func (r *ModelRecommender) Recommend(ctx context.Context, area model.TargetArea, date time.Time, filter CodeSet) ([]model.Recommendation, error) {
	keep := func(sp model.Species) bool { return filter.Contains(sp.SpeciesCode) }
	return r.recommend(ctx, area, date, nil, keep)
}

// RecommendFromLifeList drops life-list species from the historical context
// and asks the model to rank hotspots for the remaining lifers.
func (r *ModelRecommender) RecommendFromLifeList(ctx context.Context, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error) {
	keep := func(sp model.Species) bool { return !lifeList.Seen(sp.SpeciesCode) }
	recs, err := r.recommend(ctx, area, date, lifeList, keep)
	if err != nil {
		return nil, err
	}
	if err := checkLifeListExclusion(recs, lifeList); err != nil {
		metrics.RecordRecommenderError(r.Name())
		return nil, err
	}
	return recs, nil
}

func (r *ModelRecommender) recommend(ctx context.Context, area model.TargetArea, date time.Time, lifeList model.LifeList, keep func(model.Species) bool) ([]model.Recommendation, error) {
	window, err := r.window.CandidateSpecies(ctx, area, date)
	if err != nil {
		metrics.RecordRecommenderError(r.Name())
		return nil, err
	}
	month, err := r.month.CandidateSpecies(ctx, area, date)
	if err != nil {
		metrics.RecordRecommenderError(r.Name())
		return nil, err
	}
	window = window.Filter(keep)
	month = month.Filter(keep)

	prompt, err := r.buildPrompt(area, date, lifeList, window, month)
	if err != nil {
		return nil, err
	}

	text, err := r.client.Complete(ctx, modelSystemPrompt, prompt)
	if err != nil {
		metrics.RecordRecommenderError(r.Name())
		return nil, fmt.Errorf("model recommendation for %s: %w", area, err)
	}

	recs, err := r.parseResponse(text, window, month)
	if err != nil {
		metrics.RecordRecommenderError(r.Name())
		r.log.Warn(ctx, "model response rejected", logger.Error(err), logger.Int("response_len", len(text)))
		return nil, err
	}
	metrics.ObserveRecommendations(r.Name(), len(recs))
	return recs, nil
}

// speciesContext is the structured form of sightings embedded in the prompt.
type speciesContext struct {
	CommonName     string   `json:"common_name"`
	ScientificName string   `json:"scientific_name"`
	SpeciesCode    string   `json:"species_code"`
	Locations      []string `json:"locations"`
}

func formatSightings(s model.Sightings) ([]byte, error) {
	out := make([]speciesContext, 0, len(s))
	for _, sp := range s.SpeciesList() {
		locs := make([]string, 0, len(s[sp]))
		for loc := range s[sp] {
			locs = append(locs, loc)
		}
		out = append(out, speciesContext{
			CommonName:     sp.CommonName,
			ScientificName: sp.ScientificName,
			SpeciesCode:    sp.SpeciesCode,
			Locations:      locs,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func (r *ModelRecommender) buildPrompt(area model.TargetArea, date time.Time, lifeList model.LifeList, window, month model.Sightings) (string, error) {
	lifeListJSON := map[string]string{}
	for code, first := range lifeList {
		lifeListJSON[code] = first.Format(time.RFC3339)
	}
	lifeListText, err := json.MarshalIndent(lifeListJSON, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode life list: %w", err)
	}
	windowText, err := formatSightings(window)
	if err != nil {
		return "", fmt.Errorf("encode day-window sightings: %w", err)
	}
	monthText, err := formatSightings(month)
	if err != nil {
		return "", fmt.Errorf("encode calendar-month sightings: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I need recommendations for birding hotspots in %s on %s.\n\n", area, date.Format("2006-01-02"))
	fmt.Fprintf(&b, "The user has the following life list (species they've already seen):\n%s\n\n", lifeListText)
	fmt.Fprintf(&b, "Historical species seen within %d days of this date in the past %d years:\n%s\n\n", r.span, r.years, windowText)
	fmt.Fprintf(&b, "Historical species seen in the same calendar month in the past %d years:\n%s\n\n", r.years, monthText)
	b.WriteString(`Based on this data, please analyze:
1. Which species are most likely to be seen on the target date that aren't on the life list?
2. Which locations have the highest probability of yielding new lifers?
3. Any patterns in the data that suggest particular species or locations might be more promising?

Return your recommendations in this exact JSON format:
{
    "recommendations": [
        {
            "location": "location_id",
            "score": 0.95,
            "species": ["species_code1", "species_code2"]
        }
    ]
}
The score is a number between 0 and 1 reflecting confidence, and species
lists the species codes of expected lifers.
Only include the JSON in your response, no other text.`)
	return b.String(), nil
}

// modelResponse is the required response shape.
type modelResponse struct {
	Recommendations []struct {
		Location string   `json:"location"`
		Score    float64  `json:"score"`
		Species  []string `json:"species"`
	} `json:"recommendations"`
}

// parseResponse extracts the JSON payload and resolves species codes back
// to species present in the fetched historical sightings. Codes absent from
// that context cannot be attached and are dropped.
func (r *ModelRecommender) parseResponse(text string, window, month model.Sightings) ([]model.Recommendation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrParseResponse)
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseResponse, err)
	}
	if resp.Recommendations == nil {
		return nil, fmt.Errorf("%w: missing recommendations field", ErrParseResponse)
	}

	known := make(map[string]model.Species, len(window)+len(month))
	for sp := range month {
		known[sp.SpeciesCode] = sp
	}
	for sp := range window {
		known[sp.SpeciesCode] = sp // window context wins on conflicts
	}

	recs := make([]model.Recommendation, 0, len(resp.Recommendations))
	for _, rec := range resp.Recommendations {
		seen := make(map[string]struct{}, len(rec.Species))
		species := make([]model.Species, 0, len(rec.Species))
		for _, code := range rec.Species {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			if sp, ok := known[code]; ok {
				species = append(species, sp)
			}
		}
		recs = append(recs, model.Recommendation{
			LocationID: rec.Location,
			Score:      rec.Score * r.scale,
			Species:    species,
		})
	}
	scoring.Sort(recs)
	return recs, nil
}
