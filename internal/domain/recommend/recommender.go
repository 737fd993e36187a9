// Package recommend defines the hotspot recommender contract and its
// strategy variants: day-window and calendar-month heuristics, a
// model-backed recommender, a weighted hybrid blend, and an explicit
// fallback composition.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/vireo/internal/domain/model"
)

// CodeSet is a set of species codes used to restrict recommendations.
// A nil CodeSet means no restriction.
type CodeSet map[string]struct{}

// NewCodeSet builds a CodeSet from species codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports membership. A nil set contains everything.
func (s CodeSet) Contains(code string) bool {
	if s == nil {
		return true
	}
	_, ok := s[code]
	return ok
}

// Recommender produces ranked hotspot recommendations for a target area and
// date. Implementations are stateless between calls; every invocation is an
// independent read-only computation and may run concurrently with any other.
type Recommender interface {
	// Name identifies the variant for logging, metrics and hybrid weights.
	Name() string

	// Recommend retrieves and aggregates historical sightings restricted to
	// the given species set and converts them into ranked recommendations.
	Recommend(ctx context.Context, area model.TargetArea, date time.Time, filter CodeSet) ([]model.Recommendation, error)

	// RecommendFromLifeList retrieves full historical candidates, drops
	// species already on the life list, and recommends from the remainder.
	RecommendFromLifeList(ctx context.Context, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error)
}

// checkLifeListExclusion verifies no recommended species is on the life
// list. A hit means an upstream filter was bypassed.
func checkLifeListExclusion(recs []model.Recommendation, lifeList model.LifeList) error {
	for _, rec := range recs {
		for _, sp := range rec.Species {
			if lifeList.Seen(sp.SpeciesCode) {
				return fmt.Errorf("%w: species %q recommended at %s is already on the life list",
					model.ErrIntegrity, sp.SpeciesCode, rec.LocationID)
			}
		}
	}
	return nil
}
