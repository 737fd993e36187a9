package provider

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrService marks transport or non-success-status failures from the
	// external data source. The core never retries; retry policy belongs
	// to the provider configuration.
	ErrService = errors.New("data provider failure")

	// ErrCache marks response-cache read/write failures.
	ErrCache = errors.New("response cache failure")
)
