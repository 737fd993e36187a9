// Package scoring converts aggregated sightings into ranked location
// recommendations.
package scoring

import (
	"sort"

	"github.com/okian/vireo/internal/domain/model"
)

// Recommendations inverts a species-to-locations map into one recommendation
// per location. The score is the number of distinct species observed there
// and the species list is sorted by common name. The result is ordered by
// score descending; equal scores are broken by ascending location id so
// output is deterministic.
func Recommendations(sightings model.Sightings) []model.Recommendation {
	locsToSpecies := make(map[string]map[model.Species]struct{})
	for sp, locs := range sightings {
		for loc := range locs {
			set, ok := locsToSpecies[loc]
			if !ok {
				set = make(map[model.Species]struct{})
				locsToSpecies[loc] = set
			}
			set[sp] = struct{}{}
		}
	}

	recs := make([]model.Recommendation, 0, len(locsToSpecies))
	for loc, set := range locsToSpecies {
		species := make([]model.Species, 0, len(set))
		for sp := range set {
			species = append(species, sp)
		}
		sort.Slice(species, func(i, j int) bool { return species[i].CommonName < species[j].CommonName })
		recs = append(recs, model.Recommendation{
			LocationID: loc,
			Score:      float64(len(species)),
			Species:    species,
		})
	}

	Sort(recs)
	return recs
}

// Sort orders recommendations by score descending, ties by ascending
// location id.
func Sort(recs []model.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].LocationID < recs[j].LocationID
	})
}
