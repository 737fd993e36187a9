// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"
)

// Species identifies a bird species. The species code is the identity key
// used for life-list membership; full-field equality is used when species
// act as map keys during aggregation.
type Species struct {
	CommonName     string `json:"common_name"`
	SpeciesCode    string `json:"species_code"`
	ScientificName string `json:"scientific_name"`
}

// LifeList maps a species code to the date the observer first recorded it.
// The pipeline only reads life lists.
type LifeList map[string]time.Time

// Seen reports whether the species code is on the life list.
func (l LifeList) Seen(code string) bool {
	_, ok := l[code]
	return ok
}

// Before returns a copy of the life list restricted to species first seen
// strictly before t.
func (l LifeList) Before(t time.Time) LifeList {
	out := make(LifeList, len(l))
	for code, first := range l {
		if first.Before(t) {
			out[code] = first
		}
	}
	return out
}

// LocationSet is a set of location identifiers.
type LocationSet map[string]struct{}

// Sightings maps each species to the set of locations where it was observed.
// A species may appear at many locations and a location may host many species.
type Sightings map[Species]LocationSet

// Add records that sp was observed at loc.
func (s Sightings) Add(sp Species, loc string) {
	set, ok := s[sp]
	if !ok {
		set = make(LocationSet)
		s[sp] = set
	}
	set[loc] = struct{}{}
}

// Clone returns a deep copy. Sightings handed across component boundaries
// are treated as immutable; Clone is for the rare case a caller needs to
// derive a modified view.
func (s Sightings) Clone() Sightings {
	out := make(Sightings, len(s))
	for sp, locs := range s {
		set := make(LocationSet, len(locs))
		for loc := range locs {
			set[loc] = struct{}{}
		}
		out[sp] = set
	}
	return out
}

// Filter returns the subset of sightings whose species satisfy keep.
// Location sets are shared with the receiver; neither side mutates them.
func (s Sightings) Filter(keep func(Species) bool) Sightings {
	out := make(Sightings)
	for sp, locs := range s {
		if keep(sp) {
			out[sp] = locs
		}
	}
	return out
}

// SpeciesList returns the species present, sorted by common name.
func (s Sightings) SpeciesList() []Species {
	out := make([]Species, 0, len(s))
	for sp := range s {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommonName < out[j].CommonName })
	return out
}

// Recommendation is one ranked birding location. For heuristic recommenders
// Score equals the number of distinct species in the list; blended and
// model-backed recommenders set independently computed scores.
type Recommendation struct {
	LocationID string    `json:"location"`
	Score      float64   `json:"score"`
	Species    []Species `json:"species"`
}

// EndToEndEvalDatapoint is one ground-truth evaluation case, produced by an
// offline dataset-construction process and consumed read-only.
type EndToEndEvalDatapoint struct {
	TargetLocation string           `json:"target_location"`
	TargetDate     time.Time        `json:"target_date"`
	LifeList       LifeList         `json:"life_list"`
	GroundTruth    []Recommendation `json:"ground_truth"`
	ObserverID     string           `json:"observer_id"`
}
