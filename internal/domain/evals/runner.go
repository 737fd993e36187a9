package evals

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/recommend"
	"github.com/okian/vireo/pkg/logger"
	"github.com/okian/vireo/pkg/metrics"
)

// Runner evaluates a recommender over a dataset: an embarrassingly parallel
// map of Evaluate per datapoint followed by the commutative Aggregate fold.
type Runner struct {
	recommender recommend.Recommender
	workers     int
	areaKind    model.AreaKind
	topK        int
	log         logger.Logger
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of concurrent datapoint evaluations.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithAreaKind sets the area kind datapoint target locations are read as.
func WithAreaKind(kind model.AreaKind) RunnerOption {
	return func(r *Runner) {
		if kind != "" {
			r.areaKind = kind
		}
	}
}

// WithTopK truncates each recommendation list to the top k before scoring.
func WithTopK(k int) RunnerOption {
	return func(r *Runner) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(log logger.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a Runner for the given recommender.
func NewRunner(recommender recommend.Recommender, opts ...RunnerOption) *Runner {
	r := &Runner{
		recommender: recommender,
		workers:     runtime.NumCPU(),
		areaKind:    model.AreaLocality,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every datapoint and returns the per-datapoint metrics in
// dataset order plus their aggregate. Datapoints whose recommendation call
// failed are excluded from the aggregate and reported through the joined
// error; metrics for the successful remainder are still valid. Cancelling
// ctx abandons unstarted datapoints.
func (r *Runner) Run(ctx context.Context, dataset []model.EndToEndEvalDatapoint) ([]RecMetrics, AggregateMetrics, error) {
	runID := uuid.NewString()
	r.log.Info(ctx, "starting evaluation run",
		logger.String("run_id", runID),
		logger.String("recommender", r.recommender.Name()),
		logger.Int("datapoints", len(dataset)),
		logger.Int("workers", r.workers),
	)
	start := time.Now()

	type result struct {
		idx     int
		metrics RecMetrics
		err     error
	}

	jobs := make(chan int)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				m, err := r.evaluateDatapoint(ctx, dataset[idx])
				results <- result{idx: idx, metrics: m, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range dataset {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	perDatapoint := make([]RecMetrics, len(dataset))
	var ok []RecMetrics
	var errs []error
	for res := range results {
		if res.err != nil {
			metrics.RecordEvalError()
			errs = append(errs, fmt.Errorf("datapoint %d: %w", res.idx, res.err))
			continue
		}
		metrics.RecordEvalDatapoint()
		perDatapoint[res.idx] = res.metrics
		ok = append(ok, res.metrics)
	}

	agg := Aggregate(ok)
	r.log.Info(ctx, "evaluation run finished",
		logger.String("run_id", runID),
		logger.Int("evaluated", agg.N),
		logger.Int("failed", len(errs)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return perDatapoint, agg, errors.Join(errs...)
}

func (r *Runner) evaluateDatapoint(ctx context.Context, dp model.EndToEndEvalDatapoint) (RecMetrics, error) {
	area, err := model.NewTargetArea(r.areaKind, dp.TargetLocation)
	if err != nil {
		return RecMetrics{}, err
	}
	recs, err := r.recommender.RecommendFromLifeList(ctx, area, dp.TargetDate, dp.LifeList)
	if err != nil {
		return RecMetrics{}, err
	}
	return Evaluate(recs, dp.GroundTruth, r.topK), nil
}
