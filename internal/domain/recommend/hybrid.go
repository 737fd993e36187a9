package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/scoring"
	"github.com/okian/vireo/pkg/metrics"
)

// weightTolerance is how far from 1.0 supplied weights may sum before they
// are renormalized.
const weightTolerance = 1e-3

// Weighted pairs a sub-recommender with its blend weight.
type Weighted struct {
	Recommender Recommender
	Weight      float64
}

// Hybrid blends a fixed set of sub-recommenders: each location appearing in
// any member's output gets the weight-blended score (members that skipped a
// location contribute zero) and the union of member species lists.
type Hybrid struct {
	members []Weighted
}

// NewHybrid creates a hybrid blend. Weights are renormalized to sum to 1.0
// when the supplied weights do not already (within tolerance).
func NewHybrid(members ...Weighted) (*Hybrid, error) {
	if len(members) == 0 {
		return nil, ErrNoSubRecommenders
	}
	total := 0.0
	for _, m := range members {
		if m.Weight < 0 {
			return nil, fmt.Errorf("%w: %s has weight %v", ErrBadWeights, m.Recommender.Name(), m.Weight)
		}
		total += m.Weight
	}
	if total <= 0 {
		return nil, ErrBadWeights
	}
	normalized := make([]Weighted, len(members))
	copy(normalized, members)
	if math.Abs(total-1.0) > weightTolerance {
		for i := range normalized {
			normalized[i].Weight /= total
		}
	}
	return &Hybrid{members: normalized}, nil
}

// Name identifies the variant.
func (h *Hybrid) Name() string { return "hybrid" }

// Weights returns the normalized weight per member name.
func (h *Hybrid) Weights() map[string]float64 {
	out := make(map[string]float64, len(h.members))
	for _, m := range h.members {
		out[m.Recommender.Name()] = m.Weight
	}
	return out
}

// Recommend invokes every member with the species filter and blends.
func (h *Hybrid) Recommend(ctx context.Context, area model.TargetArea, date time.Time, filter CodeSet) ([]model.Recommendation, error) {
	return h.blend(ctx, func(ctx context.Context, r Recommender) ([]model.Recommendation, error) {
		return r.Recommend(ctx, area, date, filter)
	})
}

// RecommendFromLifeList invokes every member with the life list and blends.
func (h *Hybrid) RecommendFromLifeList(ctx context.Context, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error) {
	return h.blend(ctx, func(ctx context.Context, r Recommender) ([]model.Recommendation, error) {
		return r.RecommendFromLifeList(ctx, area, date, lifeList)
	})
}

// blend runs the members concurrently and merges their outputs. Any member
// failure fails the blend; partial blends would silently skew weights.
func (h *Hybrid) blend(ctx context.Context, call func(context.Context, Recommender) ([]model.Recommendation, error)) ([]model.Recommendation, error) {
	results := make([][]model.Recommendation, len(h.members))
	errs := make([]error, len(h.members))

	var wg sync.WaitGroup
	for i, m := range h.members {
		wg.Add(1)
		go func(i int, r Recommender) {
			defer wg.Done()
			results[i], errs[i] = call(ctx, r)
		}(i, m.Recommender)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			metrics.RecordRecommenderError(h.Name())
			return nil, fmt.Errorf("hybrid member %s: %w", h.members[i].Recommender.Name(), err)
		}
	}

	type blended struct {
		score   float64
		species map[string]model.Species
	}
	byLocation := make(map[string]*blended)
	for i, recs := range results {
		weight := h.members[i].Weight
		for _, rec := range recs {
			b, ok := byLocation[rec.LocationID]
			if !ok {
				b = &blended{species: make(map[string]model.Species)}
				byLocation[rec.LocationID] = b
			}
			b.score += weight * rec.Score
			for _, sp := range rec.Species {
				b.species[sp.SpeciesCode] = sp
			}
		}
	}

	out := make([]model.Recommendation, 0, len(byLocation))
	for loc, b := range byLocation {
		species := make([]model.Species, 0, len(b.species))
		for _, sp := range b.species {
			species = append(species, sp)
		}
		sort.Slice(species, func(i, j int) bool { return species[i].CommonName < species[j].CommonName })
		out = append(out, model.Recommendation{LocationID: loc, Score: b.score, Species: species})
	}
	scoring.Sort(out)
	metrics.ObserveRecommendations(h.Name(), len(out))
	return out, nil
}
