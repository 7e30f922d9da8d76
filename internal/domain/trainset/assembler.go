// Package trainset assembles class-balanced training samples from raw
// impression/click events.
package trainset

import (
	"context"
	"sort"
	"time"

	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
)

// Default assembly parameters, matching the service-level training defaults.
const (
	DefaultMinImpressions = 100
	// MaxNegativeRatio caps emitted negatives at this multiple of the
	// positives within each context group. The resulting class balance is a
	// deliberate sampling policy: the fitted probability is a likelihood
	// under this induced distribution, not a calibrated absolute CTR.
	MaxNegativeRatio = 3
)

// EventSource supplies raw events for a time window, ordered by timestamp.
// The analytical event store adapter implements this.
type EventSource interface {
	QueryEvents(ctx context.Context, start, end time.Time) ([]model.Event, error)
}

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithMinImpressions sets the minimum impression support per context group.
func WithMinImpressions(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.minImpressions = n
		}
	}
}

// WithLogger sets a custom logger for the assembler.
func WithLogger(l logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// Assembler turns raw events into balanced labeled samples.
type Assembler struct {
	source         EventSource
	minImpressions int
	logger         logger.Logger
}

// New creates an Assembler reading from source.
func New(source EventSource, opts ...Option) *Assembler {
	a := &Assembler{
		source:         source,
		minImpressions: DefaultMinImpressions,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("trainset")
	}
	return a
}

// groupKey is the full context key that defines one trainable unit.
type groupKey struct {
	lineItemID  int
	hourOfDay   int
	dayOfWeek   int
	deviceType  string
	country     string
	publisherID int
}

type groupCounts struct {
	impressions int
	clicks      int
}

// Assemble queries events in [start, end) and emits training samples.
//
// Per context group with I impressions and C clicks: groups with
// I < minImpressions are dropped for lack of statistical support; surviving
// groups emit C positive samples and min(I-C, 3*C) negative samples. An empty
// result is valid and means no usable data in the window.
func (a *Assembler) Assemble(ctx context.Context, start, end time.Time) ([]model.TrainingSample, error) {
	events, err := a.source.QueryEvents(ctx, start, end)
	if err != nil {
		return nil, err
	}
	a.logger.Info(ctx, "fetched events for training",
		logger.Int("events", len(events)),
		logger.String("start", start.Format(time.RFC3339)),
		logger.String("end", end.Format(time.RFC3339)),
	)

	groups := make(map[groupKey]*groupCounts)
	for _, e := range events {
		if e.LineItemID == 0 || e.DeviceType == "" || e.Country == "" {
			continue
		}
		key := groupKey{
			lineItemID:  e.LineItemID,
			hourOfDay:   e.Timestamp.Hour(),
			dayOfWeek:   dayOfWeek(e.Timestamp),
			deviceType:  e.DeviceType,
			country:     e.Country,
			publisherID: e.PublisherID,
		}
		g, ok := groups[key]
		if !ok {
			g = &groupCounts{}
			groups[key] = g
		}
		switch e.EventType {
		case model.EventTypeImpression:
			g.impressions++
		case model.EventTypeClick:
			g.clicks++
		}
	}

	// Deterministic emission order keeps training runs reproducible.
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	var samples []model.TrainingSample
	kept := 0
	for _, k := range keys {
		g := groups[k]
		if g.impressions < a.minImpressions {
			continue
		}
		kept++

		negatives := g.impressions - g.clicks
		if limit := g.clicks * MaxNegativeRatio; negatives > limit {
			negatives = limit
		}

		base := model.TrainingSample{
			LineItemID:  k.lineItemID,
			DeviceType:  k.deviceType,
			Country:     k.country,
			PublisherID: k.publisherID,
			HourOfDay:   k.hourOfDay,
			DayOfWeek:   k.dayOfWeek,
		}
		for i := 0; i < g.clicks; i++ {
			s := base
			s.Clicked = 1
			samples = append(samples, s)
		}
		for i := 0; i < negatives; i++ {
			samples = append(samples, base)
		}
	}

	a.logger.Info(ctx, "assembled training samples",
		logger.Int("groups", len(groups)),
		logger.Int("groupsKept", kept),
		logger.Int("samples", len(samples)),
	)
	return samples, nil
}

// dayOfWeek maps time.Weekday to the 0=Monday..6=Sunday convention used by
// the feature transforms, so Saturday and Sunday are 5 and 6.
func dayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func lessKey(a, b groupKey) bool {
	if a.lineItemID != b.lineItemID {
		return a.lineItemID < b.lineItemID
	}
	if a.hourOfDay != b.hourOfDay {
		return a.hourOfDay < b.hourOfDay
	}
	if a.dayOfWeek != b.dayOfWeek {
		return a.dayOfWeek < b.dayOfWeek
	}
	if a.deviceType != b.deviceType {
		return a.deviceType < b.deviceType
	}
	if a.country != b.country {
		return a.country < b.country
	}
	return a.publisherID < b.publisherID
}
