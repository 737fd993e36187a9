// Package sightings consolidates per-date observation results into a single
// species-to-locations map.
package sightings

import (
	"github.com/okian/vireo/internal/domain/model"
)

// Merge folds a sequence of sightings maps into one, unioning location sets
// per species. The fold is associative and commutative with the empty map as
// identity, so results are independent of input order or grouping; partial
// merges from a cancelled fan-out remain valid inputs downstream.
func Merge(parts []model.Sightings) model.Sightings {
	merged := make(model.Sightings)
	for _, part := range parts {
		for sp, locs := range part {
			for loc := range locs {
				merged.Add(sp, loc)
			}
		}
	}
	return merged
}

// MergeInto unions src into dst in place. dst must be owned by the caller.
func MergeInto(dst, src model.Sightings) {
	for sp, locs := range src {
		for loc := range locs {
			dst.Add(sp, loc)
		}
	}
}
