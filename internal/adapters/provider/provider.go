// Package provider adapts external observation data sources to the
// retrieval contract the recommenders consume.
package provider

import (
	"context"
	"time"

	"github.com/okian/vireo/internal/domain/model"
)

// Provider is the full data-source capability: per-date observations, the
// taxonomy lookup, and hotspot enumeration.
type Provider interface {
	// SpeciesSeenOnDates returns species observed in the area on the given
	// dates with privacy-flagged observations excluded. Results merged from
	// partial fetches are valid even when the call returns an error.
	SpeciesSeenOnDates(ctx context.Context, area model.TargetArea, dates []time.Time) (model.Sightings, error)

	// SciNameToCode maps scientific names to species codes. The mapping is
	// computed at most once per process and served from memory afterwards.
	SciNameToCode(ctx context.Context) (map[string]string, error)

	// HotspotsInArea lists the hotspot location ids in the area.
	HotspotsInArea(ctx context.Context, area model.TargetArea) ([]string, error)
}
