// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/ctrd/internal/adapters/artifact"
	"github.com/okian/ctrd/internal/domain/classifier"
	"github.com/okian/ctrd/internal/domain/feature"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/internal/domain/predict"
	"github.com/okian/ctrd/internal/domain/trainset"
	"github.com/okian/ctrd/pkg/logger"
	"github.com/okian/ctrd/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultDaysBack       = 7
	defaultMinImpressions = 100
	defaultMaxDaysBack    = 90
	hoursPerDay           = 24
)

// EventSource is re-exported so callers wire the event store adapter without
// importing the domain package directly.
type EventSource = trainset.EventSource

// ArtifactStore persists and restores the trained bundle.
type ArtifactStore interface {
	Save(b *classifier.Bundle) error
	Load() (*classifier.Bundle, error)
}

// TrainingReport is the outcome of one training run.
type TrainingReport struct {
	SamplesTrained int
	Accuracy       float64
	AUC            float64
}

// ModelStatus describes the currently loaded bundle.
type ModelStatus struct {
	Loaded       bool
	FeatureCount int
	Labels       []int
	TrainedAt    time.Time
	SampleCount  int
}

// Service implements the CTR prediction pipeline behind the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	events    EventSource
	artifacts ArtifactStore
	scorer    *predict.Scorer
	booster   *predict.Booster

	// Configuration
	cacheSize      int
	daysBack       int
	minImpressions int
	maxDaysBack    int

	// trainMu serializes training runs; predictions keep serving from the
	// previous bundle while a run is in flight.
	trainMu sync.Mutex

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEventSource sets the event store the assembler reads from.
func WithEventSource(src EventSource) Option {
	return func(s *Service) {
		if src != nil {
			s.events = src
		}
	}
}

// WithArtifactStore sets the bundle persistence layer.
func WithArtifactStore(store ArtifactStore) Option {
	return func(s *Service) {
		if store != nil {
			s.artifacts = store
		}
	}
}

// WithCacheSize bounds the prediction cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

// WithTrainingDefaults sets the window and support defaults used when a
// train request omits them.
func WithTrainingDefaults(daysBack, minImpressions int) Option {
	return func(s *Service) {
		if daysBack > 0 {
			s.daysBack = daysBack
		}
		if minImpressions > 0 {
			s.minImpressions = minImpressions
		}
	}
}

// WithMaxDaysBack caps the training window a caller may request.
func WithMaxDaysBack(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxDaysBack = days
		}
	}
}

// WithBooster sets a custom boost translator.
func WithBooster(b *predict.Booster) Option {
	return func(s *Service) {
		if b != nil {
			s.booster = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheSize:      predict.DefaultCacheSize,
		daysBack:       defaultDaysBack,
		minImpressions: defaultMinImpressions,
		maxDaysBack:    defaultMaxDaysBack,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the scorer and loads a previously saved bundle if one
// exists. A missing artifact is a normal cold start, not an error.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting CTR prediction service...")

	s.scorer = predict.NewScorer(
		predict.WithCache(predict.NewCache(predict.WithMaxSize(s.cacheSize))),
		predict.WithLogger(s.logger.Named("predict")),
	)
	if s.booster == nil {
		s.booster = predict.NewBooster()
	}

	if s.artifacts != nil {
		bundle, err := s.artifacts.Load()
		switch {
		case err == nil:
			s.scorer.SwapBundle(bundle)
			metrics.UpdateModelLoaded(true)
			s.logger.Info(ctx, "loaded model bundle",
				logger.Int("sampleCount", bundle.SampleCount),
				logger.String("trainedAt", bundle.TrainedAt.Format(time.RFC3339)),
			)
		case errors.Is(err, artifact.ErrNotFound):
			s.logger.Info(ctx, "no model bundle on disk; serving starts after first training run")
		default:
			// A corrupt artifact must not take the process down; the
			// scorer simply stays unloaded until the next training run.
			s.logger.Error(ctx, "failed to load model bundle", logger.Error(err))
		}
	}

	s.started = true
	s.logger.Info(ctx, "CTR prediction service started",
		logger.Int("cacheSize", s.cacheSize),
		logger.Bool("modelLoaded", s.scorer.Loaded()),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "CTR prediction service stopped")
}

// PrepareTrainingSet assembles balanced samples from the last daysBack days.
// Zero arguments fall back to the configured defaults. An empty result means
// no usable data, which Train rejects explicitly.
func (s *Service) PrepareTrainingSet(ctx context.Context, daysBack, minImpressions int) ([]model.TrainingSample, error) {
	if daysBack <= 0 {
		daysBack = s.daysBack
	}
	if daysBack > s.maxDaysBack {
		return nil, fmt.Errorf("days_back %d exceeds maximum %d", daysBack, s.maxDaysBack)
	}
	if minImpressions <= 0 {
		minImpressions = s.minImpressions
	}

	assembler := trainset.New(s.events,
		trainset.WithMinImpressions(minImpressions),
		trainset.WithLogger(s.logger.Named("trainset")),
	)

	end := time.Now().UTC()
	start := end.Add(-time.Duration(daysBack) * hoursPerDay * time.Hour)
	return assembler.Assemble(ctx, start, end)
}

// Train runs the full pipeline: assemble, fit, evaluate, persist, swap.
//
// Runs are exclusive; concurrent callers queue on the training mutex.
// Prediction requests keep serving from the previous bundle until the swap,
// which replaces the whole bundle atomically. The prediction cache is NOT
// cleared (see predict.Cache). On any failure the previously loaded bundle
// stays untouched.
func (s *Service) Train(ctx context.Context, daysBack, minImpressions int) (TrainingReport, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	began := time.Now()

	samples, err := s.PrepareTrainingSet(ctx, daysBack, minImpressions)
	if err != nil {
		metrics.RecordTrainingRun("failure")
		return TrainingReport{}, err
	}

	trainer := classifier.New(classifier.WithLogger(s.logger.Named("classifier")))
	bundle, report, err := trainer.Train(ctx, samples)
	if err != nil {
		if errors.Is(err, classifier.ErrNoTrainingData) {
			metrics.RecordTrainingRun("no_data")
		} else {
			metrics.RecordTrainingRun("failure")
		}
		return TrainingReport{}, err
	}

	if s.artifacts != nil {
		if err := s.artifacts.Save(bundle); err != nil {
			// Persistence faults are hard failures: the new bundle is not
			// swapped in, so memory and disk never disagree.
			metrics.RecordTrainingRun("failure")
			return TrainingReport{}, fmt.Errorf("save model bundle: %w", err)
		}
	}

	s.scorer.SwapBundle(bundle)
	metrics.RecordTrainingRun("success")
	metrics.RecordTrainingDuration(time.Since(began).Seconds())
	metrics.UpdateTrainingSamples(bundle.SampleCount)
	metrics.UpdateModelLoaded(true)
	metrics.UpdateModelQuality(report.Accuracy, report.AUC)

	s.logger.Info(ctx, "training run completed",
		logger.Int("samples", bundle.SampleCount),
		logger.Float64("accuracy", report.Accuracy),
		logger.Float64("auc", report.AUC),
		logger.Float64("durationSeconds", time.Since(began).Seconds()),
	)

	return TrainingReport{
		SamplesTrained: bundle.SampleCount,
		Accuracy:       report.Accuracy,
		AUC:            report.AUC,
	}, nil
}

// Predict scores a context against the current model. It returns
// predict.ErrModelUnavailable when no bundle is loaded.
func (s *Service) Predict(ctx context.Context, pc model.PredictionContext) (model.Prediction, error) {
	began := time.Now()
	p, err := s.scorer.Predict(ctx, pc)
	if err != nil {
		metrics.RecordModelUnavailable()
		return model.Prediction{}, err
	}
	metrics.RecordPrediction()
	metrics.RecordPredictionLatency(float64(time.Since(began).Milliseconds()))
	return p, nil
}

// Boost maps a CTR score to the bounded bid multiplier.
func (s *Service) Boost(ctrScore float64) float64 {
	multiplier := s.booster.Boost(ctrScore)
	metrics.RecordBoostMultiplier(multiplier)
	return multiplier
}

// Status reports on the currently loaded bundle.
func (s *Service) Status() ModelStatus {
	bundle := s.scorer.Bundle()
	if bundle == nil {
		return ModelStatus{}
	}
	return ModelStatus{
		Loaded:       true,
		FeatureCount: feature.VectorSize,
		Labels:       []int{0, 1},
		TrainedAt:    bundle.TrainedAt,
		SampleCount:  bundle.SampleCount,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"cacheSize":   s.cacheSize,
		"modelLoaded": false,
	}

	if s.started {
		status := s.Status()
		stats["modelLoaded"] = status.Loaded
		stats["cacheEntries"] = s.scorer.CacheLen()
		if status.Loaded {
			stats["trainedAt"] = status.TrainedAt.Format(time.RFC3339)
			stats["trainingSamples"] = status.SampleCount
		}
		metrics.UpdateCacheSize(s.scorer.CacheLen())
	}

	return stats
}
