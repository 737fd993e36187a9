package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vireo/internal/adapters/http/api"
	"github.com/okian/vireo/internal/domain/model"
)

// fakeDeps implements api.Dependencies with canned responses.
type fakeDeps struct {
	recs     []model.Recommendation
	recErr   error
	hotspots []string
	hotErr   error

	gotRecommender string
	gotArea        model.TargetArea
	gotDate        time.Time
	gotLifeList    model.LifeList
}

func (f *fakeDeps) Recommend(_ context.Context, recommender string, area model.TargetArea, date time.Time, lifeList model.LifeList) ([]model.Recommendation, error) {
	f.gotRecommender = recommender
	f.gotArea = area
	f.gotDate = date
	f.gotLifeList = lifeList
	return f.recs, f.recErr
}

func (f *fakeDeps) Hotspots(context.Context, model.TargetArea) ([]string, error) {
	return f.hotspots, f.hotErr
}

func (f *fakeDeps) Recommenders() []string {
	return []string{"calendar_month", "day_window"}
}

func newTestMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func TestPostRecommendations(t *testing.T) {
	convey.Convey("Given the recommendations route", t, func() {
		deps := &fakeDeps{recs: []model.Recommendation{{LocationID: "L1", Score: 2}}}
		mux := newTestMux(deps)

		body := `{
			"recommender": "day_window",
			"area": {"kind": "locality", "area_id": "L840583"},
			"date": "2023-05-10T00:00:00Z",
			"life_list": {"ameavo": "2020-06-01T00:00:00Z"}
		}`

		convey.Convey("When posting a valid request", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(body)))

			convey.Convey("Then the recommendations come back as JSON", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				var got []model.Recommendation
				convey.So(json.Unmarshal(rec.Body.Bytes(), &got), convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0].LocationID, convey.ShouldEqual, "L1")
			})

			convey.Convey("Then the request fields reach the service", func() {
				convey.So(deps.gotRecommender, convey.ShouldEqual, "day_window")
				convey.So(deps.gotArea.AreaID, convey.ShouldEqual, "L840583")
				convey.So(deps.gotLifeList.Seen("ameavo"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the recommender is unknown", func() {
			rec := httptest.NewRecorder()
			bad := strings.Replace(body, "day_window", "psychic", 1)
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(bad)))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the body is not JSON", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader("nope")))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the date is malformed", func() {
			rec := httptest.NewRecorder()
			bad := strings.Replace(body, "2023-05-10T00:00:00Z", "next tuesday", 1)
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(bad)))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the area is invalid", func() {
			rec := httptest.NewRecorder()
			bad := strings.Replace(body, `"kind": "locality", "area_id": "L840583"`, `"kind": "locality", "area_id": ""`, 1)
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(bad)))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the service fails", func() {
			deps.recErr = errors.New("provider down")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(body)))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusInternalServerError)
		})

		convey.Convey("When the method is GET", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recommendations", nil))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetHotspots(t *testing.T) {
	convey.Convey("Given the hotspots route", t, func() {
		deps := &fakeDeps{hotspots: []string{"L1", "L2"}}
		mux := newTestMux(deps)

		convey.Convey("When requesting hotspots for a county", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hotspots?kind=county&area=US-NY-109", nil))

			convey.Convey("Then the location ids come back", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"L1"`)
			})
		})

		convey.Convey("When the area id is missing", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hotspots?kind=county", nil))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the area kind is unsupported downstream", func() {
			deps.hotErr = model.ErrUnsupportedArea
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hotspots?kind=county&area=US-NY-109", nil))

			convey.So(rec.Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealth(t *testing.T) {
	convey.Convey("Given the health route", t, func() {
		mux := newTestMux(&fakeDeps{})

		convey.Convey("When probing", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.Convey("Then the metrics registry is served", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}
