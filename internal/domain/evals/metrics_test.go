package evals_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vireo/internal/domain/evals"
	"github.com/okian/vireo/internal/domain/model"
)

func TestEvaluate(t *testing.T) {
	convey.Convey("Given recommendations and ground truth", t, func() {
		convey.Convey("When one location is correctly identified and one lifer is missed", func() {
			recs := []model.Recommendation{{LocationID: "loc1", Score: 1}}
			gt := []model.Recommendation{
				{LocationID: "loc1", Score: 1},
				{LocationID: "loc2", Score: 2},
			}
			m := evals.Evaluate(recs, gt, 0)

			convey.Convey("Then found and missed lifers split the ground truth", func() {
				convey.So(m.FoundLifers, convey.ShouldEqual, 1)
				convey.So(m.MissedLifers, convey.ShouldEqual, 2)
				convey.So(m.TruePositives, convey.ShouldEqual, 1)
				convey.So(m.FalsePositives, convey.ShouldEqual, 0)
				convey.So(m.FalseNegatives, convey.ShouldEqual, 1)
				convey.So(m.AbsError, convey.ShouldAlmostEqual, 2) // |1-1| + missed 2
			})
		})

		convey.Convey("When a hit location's predicted count differs from the truth", func() {
			recs := []model.Recommendation{{LocationID: "loc1", Score: 5}}
			gt := []model.Recommendation{{LocationID: "loc1", Score: 3}}
			m := evals.Evaluate(recs, gt, 0)

			convey.Convey("Then the full ground-truth count is credited regardless", func() {
				convey.So(m.FoundLifers, convey.ShouldEqual, 3)
				convey.So(m.AbsError, convey.ShouldAlmostEqual, 2)
			})
		})

		convey.Convey("When a recommended location has no ground truth", func() {
			recs := []model.Recommendation{{LocationID: "loc9", Score: 4}}
			m := evals.Evaluate(recs, nil, 0)

			convey.Convey("Then it counts as a false positive with its score as error", func() {
				convey.So(m.FalsePositives, convey.ShouldEqual, 1)
				convey.So(m.AbsError, convey.ShouldAlmostEqual, 4)
				convey.So(m.FoundLifers, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When there are no recommendations", func() {
			gt := []model.Recommendation{{LocationID: "loc1", Score: 2}}
			m := evals.Evaluate(nil, gt, 0)

			convey.Convey("Then every ground-truth lifer is missed", func() {
				convey.So(m, convey.ShouldResemble, evals.RecMetrics{
					MissedLifers:   2,
					AbsError:       2,
					FalseNegatives: 1,
				})
			})
		})

		convey.Convey("When both sides are empty", func() {
			convey.So(evals.Evaluate(nil, nil, 0), convey.ShouldResemble, evals.RecMetrics{})
		})

		convey.Convey("When truncating to the top k", func() {
			recs := []model.Recommendation{
				{LocationID: "loc2", Score: 1},
				{LocationID: "loc1", Score: 9},
			}
			gt := []model.Recommendation{
				{LocationID: "loc1", Score: 9},
				{LocationID: "loc2", Score: 1},
			}
			m := evals.Evaluate(recs, gt, 1)

			convey.Convey("Then only the highest-scoring recommendations are considered", func() {
				convey.So(m.TruePositives, convey.ShouldEqual, 1)
				convey.So(m.FoundLifers, convey.ShouldEqual, 9)
				convey.So(m.MissedLifers, convey.ShouldEqual, 1)
			})

			convey.Convey("Then the inputs are not reordered", func() {
				convey.So(recs[0].LocationID, convey.ShouldEqual, "loc2")
			})
		})

		convey.Convey("Found plus missed always covers the ground truth", func() {
			recs := []model.Recommendation{
				{LocationID: "a", Score: 2},
				{LocationID: "c", Score: 1},
			}
			gt := []model.Recommendation{
				{LocationID: "a", Score: 3},
				{LocationID: "b", Score: 2},
				{LocationID: "c", Score: 1},
			}
			m := evals.Evaluate(recs, gt, 0)
			total := 0
			for _, g := range gt {
				total += int(g.Score)
			}
			convey.So(m.FoundLifers+m.MissedLifers, convey.ShouldEqual, total)
		})
	})
}

func TestAggregate(t *testing.T) {
	convey.Convey("Given per-datapoint metrics", t, func() {
		ms := []evals.RecMetrics{
			{FoundLifers: 1, MissedLifers: 2, AbsError: 0.5, TruePositives: 1, FalseNegatives: 1},
			{FoundLifers: 3, FalsePositives: 2, AbsError: 1.5, TruePositives: 2},
		}

		convey.Convey("When aggregated", func() {
			agg := evals.Aggregate(ms)

			convey.Convey("Then fields sum and N counts contributors", func() {
				convey.So(agg, convey.ShouldResemble, evals.AggregateMetrics{
					N:              2,
					FoundLifers:    4,
					MissedLifers:   2,
					AbsError:       2,
					TruePositives:  3,
					FalsePositives: 2,
					FalseNegatives: 1,
				})
			})
		})

		convey.Convey("When aggregated in reverse order", func() {
			reversed := []evals.RecMetrics{ms[1], ms[0]}
			convey.So(evals.Aggregate(reversed), convey.ShouldResemble, evals.Aggregate(ms))
		})

		convey.Convey("When empty", func() {
			convey.So(evals.Aggregate(nil), convey.ShouldResemble, evals.AggregateMetrics{})
		})
	})
}
