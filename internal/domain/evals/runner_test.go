package evals_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vireo/internal/domain/evals"
	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/recommend"
)

// mapRecommender serves fixed recommendations per area id and fails on
// areas it does not know.
type mapRecommender struct {
	byArea map[string][]model.Recommendation
}

func (m *mapRecommender) Name() string { return "fixture" }

func (m *mapRecommender) Recommend(_ context.Context, area model.TargetArea, _ time.Time, _ recommend.CodeSet) ([]model.Recommendation, error) {
	return m.lookup(area)
}

func (m *mapRecommender) RecommendFromLifeList(_ context.Context, area model.TargetArea, _ time.Time, _ model.LifeList) ([]model.Recommendation, error) {
	return m.lookup(area)
}

func (m *mapRecommender) lookup(area model.TargetArea) ([]model.Recommendation, error) {
	recs, ok := m.byArea[area.AreaID]
	if !ok {
		return nil, errors.New("no data for area")
	}
	return recs, nil
}

func datapoint(loc string, gt ...model.Recommendation) model.EndToEndEvalDatapoint {
	return model.EndToEndEvalDatapoint{
		TargetLocation: loc,
		TargetDate:     time.Date(2023, time.May, 10, 0, 0, 0, 0, time.UTC),
		GroundTruth:    gt,
		ObserverID:     "obsr1",
	}
}

func TestRunner(t *testing.T) {
	convey.Convey("Given a runner over a fixture recommender", t, func() {
		rec := &mapRecommender{byArea: map[string][]model.Recommendation{
			"L1": {{LocationID: "loc1", Score: 1}},
			"L2": {{LocationID: "loc2", Score: 2}},
		}}

		convey.Convey("When every datapoint succeeds", func() {
			dataset := []model.EndToEndEvalDatapoint{
				datapoint("L1", model.Recommendation{LocationID: "loc1", Score: 1}),
				datapoint("L2", model.Recommendation{LocationID: "loc2", Score: 2}),
			}
			runner := evals.NewRunner(rec, evals.WithWorkers(2))
			per, agg, err := runner.Run(context.Background(), dataset)

			convey.Convey("Then metrics come back in dataset order with a full aggregate", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(per, convey.ShouldHaveLength, 2)
				convey.So(per[0].FoundLifers, convey.ShouldEqual, 1)
				convey.So(per[1].FoundLifers, convey.ShouldEqual, 2)
				convey.So(agg.N, convey.ShouldEqual, 2)
				convey.So(agg.FoundLifers, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When one datapoint fails", func() {
			dataset := []model.EndToEndEvalDatapoint{
				datapoint("L1", model.Recommendation{LocationID: "loc1", Score: 1}),
				datapoint("L404"),
			}
			runner := evals.NewRunner(rec, evals.WithWorkers(2))
			per, agg, err := runner.Run(context.Background(), dataset)

			convey.Convey("Then the failure is reported and excluded from the aggregate", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "datapoint 1")
				convey.So(per, convey.ShouldHaveLength, 2)
				convey.So(agg.N, convey.ShouldEqual, 1)
				convey.So(agg.FoundLifers, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			dataset := []model.EndToEndEvalDatapoint{datapoint("L1")}
			runner := evals.NewRunner(rec, evals.WithWorkers(1))
			_, agg, _ := runner.Run(ctx, dataset)

			convey.Convey("Then unstarted datapoints are abandoned", func() {
				convey.So(agg.N, convey.ShouldBeLessThanOrEqualTo, 1)
			})
		})

		convey.Convey("When a top-k limit is set", func() {
			rec.byArea["L3"] = []model.Recommendation{
				{LocationID: "locA", Score: 5},
				{LocationID: "locB", Score: 1},
			}
			dataset := []model.EndToEndEvalDatapoint{
				datapoint("L3",
					model.Recommendation{LocationID: "locA", Score: 5},
					model.Recommendation{LocationID: "locB", Score: 1},
				),
			}
			runner := evals.NewRunner(rec, evals.WithTopK(1))
			per, _, err := runner.Run(context.Background(), dataset)

			convey.Convey("Then only the top recommendation is scored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(per[0].TruePositives, convey.ShouldEqual, 1)
				convey.So(per[0].MissedLifers, convey.ShouldEqual, 1)
			})
		})
	})
}
