package recommend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/recommend"
)

var (
	avocet = model.Species{CommonName: "American Avocet", SpeciesCode: "ameavo", ScientificName: "Recurvirostra americana"}
	bobo   = model.Species{CommonName: "Bobolink", SpeciesCode: "boboli", ScientificName: "Dolichonyx oryzivorus"}
	cactus = model.Species{CommonName: "Cactus Wren", SpeciesCode: "cacwre", ScientificName: "Campylorhynchus brunneicapillus"}
)

// fakeSource serves canned sightings and records the dates it was asked for.
type fakeSource struct {
	sightings model.Sightings
	err       error
	dates     []time.Time
	calls     int
}

func (f *fakeSource) SpeciesSeenOnDates(_ context.Context, _ model.TargetArea, dates []time.Time) (model.Sightings, error) {
	f.calls++
	f.dates = dates
	if f.err != nil {
		return nil, f.err
	}
	return f.sightings, nil
}

func testArea() model.TargetArea {
	area, _ := model.NewTargetArea(model.AreaLocality, "L840583")
	return area
}

func TestDayWindowRecommender(t *testing.T) {
	convey.Convey("Given a day-window recommender over a fake source", t, func() {
		source := &fakeSource{sightings: model.Sightings{
			avocet: {"L1": {}, "L2": {}},
			bobo:   {"L1": {}},
			cactus: {"L3": {}},
		}}
		rec := recommend.NewDayWindowRecommender(source,
			recommend.WithHistoricalYears(2),
			recommend.WithDayWindow(1),
		)
		target := time.Date(2023, time.May, 10, 0, 0, 0, 0, time.UTC)

		convey.Convey("Then it identifies itself", func() {
			convey.So(rec.Name(), convey.ShouldEqual, "day_window")
		})

		convey.Convey("When recommending without restriction", func() {
			recs, err := rec.Recommend(context.Background(), testArea(), target, nil)

			convey.Convey("Then the source is queried once over the expanded window", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(source.calls, convey.ShouldEqual, 1)
				convey.So(source.dates, convey.ShouldHaveLength, 6) // 2 years x 3 days
			})

			convey.Convey("Then locations rank by distinct species count", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(recs, convey.ShouldResemble, []model.Recommendation{
					{LocationID: "L1", Score: 2, Species: []model.Species{avocet, bobo}},
					{LocationID: "L2", Score: 1, Species: []model.Species{avocet}},
					{LocationID: "L3", Score: 1, Species: []model.Species{cactus}},
				})
			})
		})

		convey.Convey("When recommending with a species filter", func() {
			recs, err := rec.Recommend(context.Background(), testArea(), target, recommend.NewCodeSet("cacwre"))

			convey.Convey("Then only filtered species contribute", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(recs, convey.ShouldResemble, []model.Recommendation{
					{LocationID: "L3", Score: 1, Species: []model.Species{cactus}},
				})
			})
		})

		convey.Convey("When recommending from a life list", func() {
			lifeList := model.LifeList{"ameavo": time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)}
			recs, err := rec.RecommendFromLifeList(context.Background(), testArea(), target, lifeList)

			convey.Convey("Then life-list species never appear in the output", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, r := range recs {
					for _, sp := range r.Species {
						convey.So(lifeList.Seen(sp.SpeciesCode), convey.ShouldBeFalse)
					}
				}
				convey.So(recs, convey.ShouldResemble, []model.Recommendation{
					{LocationID: "L1", Score: 1, Species: []model.Species{bobo}},
					{LocationID: "L3", Score: 1, Species: []model.Species{cactus}},
				})
			})
		})

		convey.Convey("When the source fails", func() {
			source.err = errors.New("upstream down")
			_, err := rec.Recommend(context.Background(), testArea(), target, nil)

			convey.Convey("Then the failure propagates", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "upstream down")
			})
		})
	})
}

func TestCalendarMonthRecommender(t *testing.T) {
	convey.Convey("Given a calendar-month recommender over a fake source", t, func() {
		source := &fakeSource{sightings: model.Sightings{cactus: {"L3": {}}}}
		rec := recommend.NewCalendarMonthRecommender(source, recommend.WithHistoricalYears(2))
		target := time.Date(2023, time.April, 15, 0, 0, 0, 0, time.UTC)

		convey.Convey("Then it identifies itself", func() {
			convey.So(rec.Name(), convey.ShouldEqual, "calendar_month")
		})

		convey.Convey("When recommending", func() {
			recs, err := rec.Recommend(context.Background(), testArea(), target, nil)

			convey.Convey("Then every day of the month is queried for each year", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(source.dates, convey.ShouldHaveLength, 60) // 2 years x 30 April days
				convey.So(recs, convey.ShouldHaveLength, 1)
			})
		})
	})
}

func TestCodeSet(t *testing.T) {
	convey.Convey("Given code sets", t, func() {
		convey.Convey("A nil set contains everything", func() {
			var s recommend.CodeSet
			convey.So(s.Contains("anything"), convey.ShouldBeTrue)
		})

		convey.Convey("A built set contains exactly its members", func() {
			s := recommend.NewCodeSet("ameavo", "boboli")
			convey.So(s.Contains("ameavo"), convey.ShouldBeTrue)
			convey.So(s.Contains("cacwre"), convey.ShouldBeFalse)
		})
	})
}
