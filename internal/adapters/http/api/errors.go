package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrModelUnavailable = errors.New("model not trained")
	ErrNoTrainingData   = errors.New("no training data available")
	ErrUpstream         = errors.New("upstream failure")
)

// NewKind tags a sentinel error with the operation that produced it.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags a sentinel error with the operation and underlying cause.
func WrapKind(op string, kind error, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
