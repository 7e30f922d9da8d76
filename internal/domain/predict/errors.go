package predict

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrModelUnavailable is returned when no trained bundle is loaded.
	// The scorer fails closed rather than guess.
	ErrModelUnavailable = errors.New("model not trained or loaded")
)
