// Package evals scores recommendation lists against ground truth and
// aggregates the results across a dataset.
package evals

import (
	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/scoring"
)

// RecMetrics holds per-datapoint evaluation counters. FoundLifers,
// MissedLifers and FalsePositives are the mandatory core; the remaining
// fields refine error analysis.
type RecMetrics struct {
	FoundLifers    int     `json:"found_lifers"`
	MissedLifers   int     `json:"missed_lifers"`
	AbsError       float64 `json:"abs_error"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
}

// AggregateMetrics is the field-wise sum of RecMetrics over a dataset plus
// the number of contributing datapoints.
type AggregateMetrics struct {
	N              int     `json:"n"`
	FoundLifers    int     `json:"found_lifers"`
	MissedLifers   int     `json:"missed_lifers"`
	AbsError       float64 `json:"abs_error"`
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
}

// Evaluate scores recommendations against ground truth. Recommendations are
// considered in score-descending order and truncated to the top k when
// k > 0. A correctly identified location earns the ground truth's full
// score there, not the predicted count. Data mismatches never error; every
// mismatch is captured as a metric value. Inputs are not mutated.
func Evaluate(recs, groundTruth []model.Recommendation, k int) RecMetrics {
	ordered := make([]model.Recommendation, len(recs))
	copy(ordered, recs)
	scoring.Sort(ordered)
	if k > 0 && len(ordered) > k {
		ordered = ordered[:k]
	}

	gtByLocation := make(map[string]model.Recommendation, len(groundTruth))
	for _, gt := range groundTruth {
		gtByLocation[gt.LocationID] = gt
	}

	var m RecMetrics
	hits := make(map[string]struct{})
	for _, rec := range ordered {
		gt, ok := gtByLocation[rec.LocationID]
		if !ok {
			m.AbsError += rec.Score
			m.FalsePositives++
			continue
		}
		hits[rec.LocationID] = struct{}{}
		// Full credit for every lifer known to be there, predicted or not.
		m.FoundLifers += int(gt.Score)
		m.AbsError += abs(rec.Score - gt.Score)
		m.TruePositives++
	}

	for loc, gt := range gtByLocation {
		if _, hit := hits[loc]; hit {
			continue
		}
		m.MissedLifers += int(gt.Score)
		m.AbsError += gt.Score
		m.FalseNegatives++
	}
	return m
}

// Aggregate sums metrics field-wise. The reduction is commutative and
// associative, so datasets may be evaluated and folded in any order.
func Aggregate(metrics []RecMetrics) AggregateMetrics {
	agg := AggregateMetrics{N: len(metrics)}
	for _, m := range metrics {
		agg.FoundLifers += m.FoundLifers
		agg.MissedLifers += m.MissedLifers
		agg.AbsError += m.AbsError
		agg.TruePositives += m.TruePositives
		agg.FalsePositives += m.FalsePositives
		agg.FalseNegatives += m.FalseNegatives
	}
	return agg
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
