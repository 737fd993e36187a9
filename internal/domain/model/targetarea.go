package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// AreaKind tags the geographic scope of a query.
type AreaKind string

// Supported area kinds.
const (
	AreaCountry  AreaKind = "country"
	AreaState    AreaKind = "state"
	AreaCounty   AreaKind = "county"
	AreaLocality AreaKind = "locality"
	AreaLatLong  AreaKind = "lat_long"
)

// TargetArea is a geographic scope for a query: a region identifier for the
// country/state/county/locality kinds, or a coordinate pair for lat_long.
type TargetArea struct {
	Kind      AreaKind `json:"kind"      validate:"required,oneof=country state county locality lat_long"`
	AreaID    string   `json:"area_id"   validate:"required_unless=Kind lat_long"`
	Latitude  *float64 `json:"latitude"  validate:"required_if=Kind lat_long"`
	Longitude *float64 `json:"longitude" validate:"required_if=Kind lat_long"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewTargetArea builds an identifier-based target area. Construction fails
// fast on an empty identifier or unknown kind.
func NewTargetArea(kind AreaKind, areaID string) (TargetArea, error) {
	a := TargetArea{Kind: kind, AreaID: areaID}
	if err := a.Validate(); err != nil {
		return TargetArea{}, err
	}
	return a, nil
}

// NewLatLongArea builds a coordinate-based target area.
func NewLatLongArea(lat, lng float64) (TargetArea, error) {
	a := TargetArea{Kind: AreaLatLong, Latitude: &lat, Longitude: &lng}
	if err := a.Validate(); err != nil {
		return TargetArea{}, err
	}
	return a, nil
}

// Validate checks the kind/field combination. lat_long requires both
// coordinates; every other kind requires a non-empty area id.
func (a TargetArea) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: target area: %v", ErrInvalidArgument, err)
	}
	return nil
}

// String renders the area for logs and provider request paths.
func (a TargetArea) String() string {
	if a.Kind == AreaLatLong {
		if a.Latitude == nil || a.Longitude == nil {
			return "lat_long(?)"
		}
		return fmt.Sprintf("lat_long(%.4f,%.4f)", *a.Latitude, *a.Longitude)
	}
	return fmt.Sprintf("%s(%s)", a.Kind, a.AreaID)
}
