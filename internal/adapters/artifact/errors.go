package artifact

import "errors"

// Sentinel kinds for artifact persistence errors.
var (
	// ErrNotFound is returned by Load when no bundle exists at the path.
	// A fresh deployment with no trained model is a normal state.
	ErrNotFound = errors.New("model artifact not found")
)
