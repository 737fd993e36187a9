package recommend

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrParseResponse marks a model-backend reply without a locatable,
	// valid JSON payload in the required recommendations shape.
	ErrParseResponse = errors.New("unparseable model response")

	// ErrNoSubRecommenders marks a hybrid constructed without members.
	ErrNoSubRecommenders = errors.New("hybrid requires at least one sub-recommender")

	// ErrBadWeights marks hybrid weights that cannot be renormalized.
	ErrBadWeights = errors.New("hybrid weights must be positive")
)
