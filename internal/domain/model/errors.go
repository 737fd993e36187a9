package model

import (
	"errors"
)

// Sentinel error kinds for the domain. These allow errors.Is/As from callers.
var (
	// ErrInvalidArgument marks validation failures: negative day windows,
	// malformed target areas. Raised before any external call is made.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedArea marks lat/long targeting requested where the
	// backing provider only supports region identifiers.
	ErrUnsupportedArea = errors.New("unsupported target area")

	// ErrIntegrity marks an internal consistency failure, e.g. a
	// recommended species that should have been excluded by a life list.
	ErrIntegrity = errors.New("integrity violation")
)
