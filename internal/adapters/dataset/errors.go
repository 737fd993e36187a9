package dataset

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrDecode marks a corpus file whose tags or values cannot be
	// reconstructed into domain types.
	ErrDecode = errors.New("dataset decode failure")
)
