package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/sightings"
)

// fanOutDates fetches each date through fetch with at most `workers`
// concurrent calls and merges the results. Per-date fetches are mutually
// independent, and the merge is associative and commutative, so completion
// order does not matter. Cancelling ctx abandons undispatched dates; the
// partial merge is returned alongside the joined error and remains a valid
// (if incomplete) sightings map.
func fanOutDates(ctx context.Context, workers int, dates []time.Time, fetch func(context.Context, time.Time) (model.Sightings, error)) (model.Sightings, error) {
	if workers < 1 {
		workers = 1
	}

	type result struct {
		part model.Sightings
		err  error
	}

	jobs := make(chan time.Time)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				part, err := fetch(ctx, d)
				if err != nil {
					err = fmt.Errorf("fetch %s: %w", d.Format("2006-01-02"), err)
				}
				results <- result{part: part, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, d := range dates {
			select {
			case jobs <- d:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	merged := make(model.Sightings)
	var errs []error
	for res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		sightings.MergeInto(merged, res.part)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return merged, errors.Join(errs...)
}
