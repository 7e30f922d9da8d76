// Package predict serves CTR predictions from the currently loaded model
// bundle, with memoization and a conservative degraded fallback.
package predict

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/ctrd/internal/domain/classifier"
	"github.com/okian/ctrd/internal/domain/feature"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
	"github.com/okian/ctrd/pkg/metrics"
)

// Degraded default returned when scoring fails internally: a low CTR at
// medium confidence, so a malfunctioning model never stalls the serving path.
const (
	DegradedCTRScore   = 0.01
	DegradedConfidence = 0.5
)

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithCache sets a custom prediction cache.
func WithCache(c *Cache) Option {
	return func(s *Scorer) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets a custom logger for the scorer.
func WithLogger(l logger.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scorer applies encoder, feature builder, scaler, and classifier to produce
// a probability and confidence. The bundle is held behind an atomic pointer:
// concurrent readers always see either the old or the new bundle whole,
// never a half-swapped mix of classifier and codebooks.
type Scorer struct {
	bundle atomic.Pointer[classifier.Bundle]
	cache  *Cache
	logger logger.Logger
}

// NewScorer creates a Scorer with no bundle loaded. Predict fails closed
// until SwapBundle installs one.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("predict")
	}
	return s
}

// SwapBundle atomically replaces the current bundle. The prediction cache is
// intentionally left untouched (see Cache).
func (s *Scorer) SwapBundle(b *classifier.Bundle) {
	s.bundle.Store(b)
}

// Bundle returns the currently loaded bundle, or nil.
func (s *Scorer) Bundle() *classifier.Bundle {
	return s.bundle.Load()
}

// Loaded reports whether a bundle is available for scoring.
func (s *Scorer) Loaded() bool {
	return s.bundle.Load() != nil
}

// CacheLen returns the number of memoized predictions.
func (s *Scorer) CacheLen() int {
	return s.cache.Len()
}

// Predict scores a context against the current bundle.
//
// With no bundle loaded it returns ErrModelUnavailable, the only error this
// method produces. Any internal fault after that point (shape mismatch,
// corrupt artifact) is logged and converted into the fixed degraded default
// rather than propagated, so the serving path cannot be poisoned by a bad
// model. Contrast with training, which fails loudly.
func (s *Scorer) Predict(ctx context.Context, pc model.PredictionContext) (model.Prediction, error) {
	b := s.bundle.Load()
	if b == nil {
		return model.Prediction{}, ErrModelUnavailable
	}

	key := KeyFor(pc)
	if p, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		p.Cached = true
		return p, nil
	}
	metrics.RecordCacheMiss()

	p := s.score(ctx, b, pc)
	s.cache.Put(key, p)
	metrics.UpdateCacheSize(s.cache.Len())
	return p, nil
}

// score runs the uncached pipeline: encode, engineer, scale, classify.
func (s *Scorer) score(ctx context.Context, b *classifier.Bundle, pc model.PredictionContext) model.Prediction {
	prob, err := s.scoreRaw(b, pc)
	if err != nil {
		metrics.RecordDegradedPrediction()
		s.logger.Error(ctx, "prediction failed, returning degraded default",
			logger.Error(err),
			logger.Int("lineItemID", pc.LineItemID),
		)
		return model.Prediction{
			CTRScore:   DegradedCTRScore,
			Confidence: DegradedConfidence,
			Degraded:   true,
		}
	}

	confidence := prob
	if 1-prob > confidence {
		confidence = 1 - prob
	}
	return model.Prediction{CTRScore: prob, Confidence: confidence}
}

func (s *Scorer) scoreRaw(b *classifier.Bundle, pc model.PredictionContext) (float64, error) {
	if b.Model == nil || b.Scaler == nil || b.Codebooks == nil {
		return 0, fmt.Errorf("bundle is incomplete")
	}

	vec := feature.Vector(pc, b.Codebooks)
	if b.Scaler.Dims() != len(vec) {
		return 0, fmt.Errorf("scaler has %d dims, feature vector has %d", b.Scaler.Dims(), len(vec))
	}

	prob, err := b.Model.PredictProba(b.Scaler.Transform(vec))
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	return prob, nil
}
