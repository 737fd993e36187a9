package llm

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrService marks transport or non-success-status failures from the
	// model backend, including a tripped circuit breaker.
	ErrService = errors.New("model backend failure")
)
