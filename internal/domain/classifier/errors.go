package classifier

import "errors"

// Sentinel kinds for training errors.
var (
	// ErrNoTrainingData is returned when Train is called with an empty
	// sample set. The trainer fails fast rather than fit a degenerate model.
	ErrNoTrainingData = errors.New("no training data available")
)
