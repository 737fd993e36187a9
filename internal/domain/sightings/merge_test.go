package sightings_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/vireo/internal/domain/model"
	"github.com/okian/vireo/internal/domain/sightings"
)

var (
	warbler = model.Species{CommonName: "Yellow Warbler", SpeciesCode: "yelwar", ScientificName: "Setophaga petechia"}
	heron   = model.Species{CommonName: "Great Blue Heron", SpeciesCode: "grbher3", ScientificName: "Ardea herodias"}
)

func TestMerge(t *testing.T) {
	convey.Convey("Given sightings from separate dates", t, func() {
		a := model.Sightings{}
		a.Add(warbler, "L1")
		a.Add(warbler, "L2")
		b := model.Sightings{}
		b.Add(warbler, "L2")
		b.Add(heron, "L3")

		convey.Convey("When merged", func() {
			merged := sightings.Merge([]model.Sightings{a, b})

			convey.Convey("Then location sets union per species", func() {
				convey.So(merged, convey.ShouldResemble, model.Sightings{
					warbler: {"L1": {}, "L2": {}},
					heron:   {"L3": {}},
				})
			})
		})

		convey.Convey("When merged in the opposite order", func() {
			convey.Convey("Then the result is identical", func() {
				convey.So(sightings.Merge([]model.Sightings{b, a}), convey.ShouldResemble, sightings.Merge([]model.Sightings{a, b}))
			})
		})

		convey.Convey("When merged with empty maps", func() {
			convey.Convey("Then the empty map is the identity", func() {
				convey.So(sightings.Merge([]model.Sightings{a, {}}), convey.ShouldResemble, sightings.Merge([]model.Sightings{a}))
				convey.So(sightings.Merge(nil), convey.ShouldResemble, model.Sightings{})
			})
		})

		convey.Convey("When merging in place", func() {
			dst := a.Clone()
			sightings.MergeInto(dst, b)

			convey.Convey("Then dst holds the union and src is untouched", func() {
				convey.So(dst, convey.ShouldResemble, sightings.Merge([]model.Sightings{a, b}))
				convey.So(b, convey.ShouldResemble, model.Sightings{
					warbler: {"L2": {}},
					heron:   {"L3": {}},
				})
			})
		})
	})
}
