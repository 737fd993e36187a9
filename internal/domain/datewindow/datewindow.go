// Package datewindow generates the historical date sequences the retrievers
// query: symmetric day windows, day windows repeated over previous years,
// and full calendar months repeated over previous years.
package datewindow

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/vireo/internal/domain/model"
)

// Window returns the 2w+1 consecutive days from center-w through center+w,
// ascending. A negative window size is an invalid argument.
func Window(center time.Time, w int) ([]time.Time, error) {
	if w < 0 {
		return nil, fmt.Errorf("%w: window size must be non-negative, got %d", model.ErrInvalidArgument, w)
	}
	dates := make([]time.Time, 0, 2*w+1)
	for i := -w; i <= w; i++ {
		dates = append(dates, midnight(center.AddDate(0, 0, i)))
	}
	return dates, nil
}

// AnnualWindow returns the same month/day as target in each of the `years`
// years strictly before target's year, each expanded by ±w days, sorted
// ascending overall. years <= 0 yields an empty sequence.
//
// A February 29 target is clamped to February 28 in non-leap years.
func AnnualWindow(target time.Time, w, years int) ([]time.Time, error) {
	if w < 0 {
		return nil, fmt.Errorf("%w: window size must be non-negative, got %d", model.ErrInvalidArgument, w)
	}
	var dates []time.Time
	for y := 1; y <= years; y++ {
		anchor := sameMonthDay(target.Year()-y, target)
		window, err := Window(anchor, w)
		if err != nil {
			return nil, err
		}
		dates = append(dates, window...)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// CalendarMonthDates returns every valid day of target's calendar month for
// each of the `years` previous years: most recent previous year first, days
// ascending within a year. years <= 0 yields an empty sequence.
func CalendarMonthDates(target time.Time, years int) []time.Time {
	var dates []time.Time
	for delta := 1; delta <= years; delta++ {
		y := target.Year() - delta
		for day := 1; day <= daysInMonth(y, target.Month()); day++ {
			dates = append(dates, time.Date(y, target.Month(), day, 0, 0, 0, 0, target.Location()))
		}
	}
	return dates
}

// sameMonthDay places target's month/day in the given year, clamping the day
// to the last valid day of that month (Feb 29 -> Feb 28 in non-leap years).
func sameMonthDay(year int, target time.Time) time.Time {
	day := target.Day()
	if max := daysInMonth(year, target.Month()); day > max {
		day = max
	}
	return time.Date(year, target.Month(), day, 0, 0, 0, 0, target.Location())
}

// daysInMonth returns the number of days in the month for the given year.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
