// Package model contains domain models passed between layers.
package model

import "time"

// Event type values as stored in the analytical event store.
const (
	EventTypeImpression = "impression"
	EventTypeClick      = "click"
)

// Event represents a single ad-serving event row read from the event store.
// Fields mirror the columns consumed from the events table; the store owns
// the full schema.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id"` // shared between an impression and its click
	LineItemID  int       `json:"line_item_id"`
	DeviceType  string    `json:"device_type"`
	Country     string    `json:"country"`
	PublisherID int       `json:"publisher_id"` // 0 means "no publisher"
}

// TrainingSample is one labeled row emitted by the training-set assembler.
// Samples are created once and never mutated; the trainer consumes them as-is.
type TrainingSample struct {
	LineItemID  int
	DeviceType  string
	Country     string
	PublisherID int
	HourOfDay   int
	DayOfWeek   int
	Clicked     int // 1 = click, 0 = impression without click
}

// PredictionContext carries the serving-time inputs for one CTR prediction.
// PublisherID of 0 is the "absent publisher" sentinel; callers without a
// publisher must pass 0.
type PredictionContext struct {
	LineItemID  int
	DeviceType  string
	Country     string
	PublisherID int
	HourOfDay   int
	DayOfWeek   int
}

// Prediction is the scored output for a context. Degraded is set when the
// scorer fell back to the conservative default after an internal fault;
// Cached is set when the result was served from the prediction cache.
type Prediction struct {
	CTRScore   float64
	Confidence float64
	Degraded   bool
	Cached     bool
}
