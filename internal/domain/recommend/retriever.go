package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/vireo/internal/domain/datewindow"
	"github.com/okian/vireo/internal/domain/model"
)

// Source abstracts the external observation data provider. Implementations
// own transport concerns (batching, rate limits, caching); retrievers never
// retry or cache.
type Source interface {
	// SpeciesSeenOnDates returns species observed in the area on the given
	// dates, with privacy-flagged observations already excluded.
	SpeciesSeenOnDates(ctx context.Context, area model.TargetArea, dates []time.Time) (model.Sightings, error)
}

// CandidateSpeciesRetriever fetches the species historically plausible for
// an area and date, before any life-list filtering.
type CandidateSpeciesRetriever interface {
	CandidateSpecies(ctx context.Context, area model.TargetArea, date time.Time) (model.Sightings, error)
}

// DayWindowRetriever queries a ±window day range around the target date in
// each of the previous `years` years.
type DayWindowRetriever struct {
	source Source
	years  int
	window int
}

// NewDayWindowRetriever creates a day-window retriever.
func NewDayWindowRetriever(source Source, years, window int) *DayWindowRetriever {
	return &DayWindowRetriever{source: source, years: years, window: window}
}

// CandidateSpecies retrieves and aggregates sightings over the annual day
// window. Deterministic given identical provider responses.
func (r *DayWindowRetriever) CandidateSpecies(ctx context.Context, area model.TargetArea, date time.Time) (model.Sightings, error) {
	dates, err := datewindow.AnnualWindow(date, r.window, r.years)
	if err != nil {
		return nil, err
	}
	sightings, err := r.source.SpeciesSeenOnDates(ctx, area, dates)
	if err != nil {
		return nil, fmt.Errorf("day-window retrieval for %s: %w", area, err)
	}
	return sightings, nil
}

// CalendarMonthRetriever queries every day of the target date's calendar
// month in each of the previous `years` years.
type CalendarMonthRetriever struct {
	source Source
	years  int
}

// NewCalendarMonthRetriever creates a calendar-month retriever.
func NewCalendarMonthRetriever(source Source, years int) *CalendarMonthRetriever {
	return &CalendarMonthRetriever{source: source, years: years}
}

// CandidateSpecies retrieves and aggregates sightings over the repeated
// calendar month.
func (r *CalendarMonthRetriever) CandidateSpecies(ctx context.Context, area model.TargetArea, date time.Time) (model.Sightings, error) {
	dates := datewindow.CalendarMonthDates(date, r.years)
	sightings, err := r.source.SpeciesSeenOnDates(ctx, area, dates)
	if err != nil {
		return nil, fmt.Errorf("calendar-month retrieval for %s: %w", area, err)
	}
	return sightings, nil
}
