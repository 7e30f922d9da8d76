// Package classifier fits and evaluates the binary CTR classifier.
//
// Codebooks and the scaler are deliberately fit on the FULL sample set before
// the train/test split, mirroring the behavior this pipeline was built
// against. Categories that only occur in the held-out split therefore leak
// into the codebooks, which slightly flatters evaluation metrics. Known
// trade-off, kept for fidelity.
package classifier

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/ctrd/internal/domain/feature"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
)

// Default training configuration constants.
const (
	defaultMaxIterations = 1000
	defaultLearningRate  = 0.1
	defaultL2Penalty     = 1.0
	defaultTestFraction  = 0.2
	defaultRandomSeed    = 42
	gradientTolerance    = 1e-6
	decisionThreshold    = 0.5
)

// Bundle is the atomic unit of trained artifacts. It is produced by one
// training run, immutable afterward, and swapped wholesale into the scorer.
type Bundle struct {
	Model       *Model                       `json:"model"`
	Scaler      *Scaler                      `json:"scaler"`
	Codebooks   map[string]*feature.Codebook `json:"codebooks"`
	TrainedAt   time.Time                    `json:"trained_at"`
	SampleCount int                          `json:"sample_count"`
}

// Report summarizes a training run's held-out evaluation.
type Report struct {
	Accuracy     float64
	AUC          float64
	TrainSamples int
	TestSamples  int
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithMaxIterations bounds the gradient descent loop.
func WithMaxIterations(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.maxIterations = n
		}
	}
}

// WithLearningRate sets the gradient descent step size.
func WithLearningRate(lr float64) Option {
	return func(t *Trainer) {
		if lr > 0 {
			t.learningRate = lr
		}
	}
}

// WithL2Penalty sets the regularization strength.
func WithL2Penalty(l2 float64) Option {
	return func(t *Trainer) {
		if l2 >= 0 {
			t.l2Penalty = l2
		}
	}
}

// WithSeed fixes the split shuffle seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(t *Trainer) {
		t.seed = seed
	}
}

// WithLogger sets a custom logger for the trainer.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// Trainer fits a regularized logistic regression over engineered features.
type Trainer struct {
	maxIterations int
	learningRate  float64
	l2Penalty     float64
	testFraction  float64
	seed          int64
	logger        logger.Logger
}

// New creates a Trainer with default configuration.
func New(opts ...Option) *Trainer {
	t := &Trainer{
		maxIterations: defaultMaxIterations,
		learningRate:  defaultLearningRate,
		l2Penalty:     defaultL2Penalty,
		testFraction:  defaultTestFraction,
		seed:          defaultRandomSeed,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("classifier")
	}
	return t
}

// Train fits codebooks, scaler, and classifier from samples and evaluates on
// a stratified held-out split. It fails fast with ErrNoTrainingData on empty
// input; no artifact is produced in that case.
func (t *Trainer) Train(ctx context.Context, samples []model.TrainingSample) (*Bundle, Report, error) {
	if len(samples) == 0 {
		return nil, Report{}, ErrNoTrainingData
	}

	codebooks := fitCodebooks(samples)

	vectors := make([][]float64, len(samples))
	labels := make([]float64, len(samples))
	for i, s := range samples {
		vectors[i] = feature.Vector(feature.SampleContext(s), codebooks)
		labels[i] = float64(s.Clicked)
	}

	scaler := FitScaler(vectors)
	for i, v := range vectors {
		vectors[i] = scaler.Transform(v)
	}

	trainIdx, testIdx := t.stratifiedSplit(labels)

	m := t.fit(ctx, vectors, labels, trainIdx)

	report := t.evaluate(m, vectors, labels, testIdx)
	report.TrainSamples = len(trainIdx)
	report.TestSamples = len(testIdx)

	t.logger.Info(ctx, "model trained",
		logger.Int("samples", len(samples)),
		logger.Float64("accuracy", report.Accuracy),
		logger.Float64("auc", report.AUC),
	)

	bundle := &Bundle{
		Model:       m,
		Scaler:      scaler,
		Codebooks:   codebooks,
		TrainedAt:   time.Now().UTC(),
		SampleCount: len(samples),
	}
	return bundle, report, nil
}

// fitCodebooks builds one codebook per categorical field over the full set.
func fitCodebooks(samples []model.TrainingSample) map[string]*feature.Codebook {
	values := make(map[string][]string, len(feature.CategoricalFields()))
	for _, s := range samples {
		values[feature.FieldLineItemID] = append(values[feature.FieldLineItemID], feature.IntKey(s.LineItemID))
		values[feature.FieldDeviceType] = append(values[feature.FieldDeviceType], s.DeviceType)
		values[feature.FieldCountry] = append(values[feature.FieldCountry], s.Country)
		values[feature.FieldPublisherID] = append(values[feature.FieldPublisherID], feature.IntKey(s.PublisherID))
	}

	codebooks := make(map[string]*feature.Codebook, len(values))
	for field, vals := range values {
		codebooks[field] = feature.Fit(vals)
	}
	return codebooks
}

// stratifiedSplit shuffles positives and negatives independently with the
// fixed seed and holds out testFraction of each class.
func (t *Trainer) stratifiedSplit(labels []float64) (train, test []int) {
	var positives, negatives []int
	for i, y := range labels {
		if y == 1 {
			positives = append(positives, i)
		} else {
			negatives = append(negatives, i)
		}
	}

	rng := rand.New(rand.NewSource(t.seed)) //nolint:gosec // deterministic split for reproducible training
	for _, class := range [][]int{positives, negatives} {
		rng.Shuffle(len(class), func(i, j int) {
			class[i], class[j] = class[j], class[i]
		})
		holdout := int(math.Round(float64(len(class)) * t.testFraction))
		test = append(test, class[:holdout]...)
		train = append(train, class[holdout:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// fit runs bounded full-batch gradient descent on the training split.
func (t *Trainer) fit(ctx context.Context, vectors [][]float64, labels []float64, trainIdx []int) *Model {
	dims := len(vectors[0])
	m := &Model{Weights: make([]float64, dims)}
	n := float64(len(trainIdx))

	grad := make([]float64, dims)
	for iter := 0; iter < t.maxIterations; iter++ {
		select {
		case <-ctx.Done():
			return m
		default:
		}

		for i := range grad {
			grad[i] = 0
		}
		gradBias := 0.0

		for _, idx := range trainIdx {
			p := sigmoid(dot(m, vectors[idx]))
			residual := p - labels[idx]
			for c, v := range vectors[idx] {
				grad[c] += residual * v
			}
			gradBias += residual
		}

		norm := 0.0
		for c := range grad {
			grad[c] = grad[c]/n + t.l2Penalty*m.Weights[c]/n
			norm += grad[c] * grad[c]
		}
		gradBias /= n
		norm += gradBias * gradBias

		for c := range m.Weights {
			m.Weights[c] -= t.learningRate * grad[c]
		}
		m.Bias -= t.learningRate * gradBias

		if norm < gradientTolerance {
			break
		}
	}
	return m
}

func dot(m *Model, x []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		z += w * x[i]
	}
	return z
}

// evaluate computes accuracy at the 0.5 threshold and ROC AUC on the test
// split. A single-class test split yields AUC 0.5 by convention.
func (t *Trainer) evaluate(m *Model, vectors [][]float64, labels []float64, testIdx []int) Report {
	if len(testIdx) == 0 {
		return Report{Accuracy: 0, AUC: 0.5}
	}

	scores := make([]float64, len(testIdx))
	classes := make([]bool, len(testIdx))
	correct := 0
	positives := 0
	for i, idx := range testIdx {
		p := sigmoid(dot(m, vectors[idx]))
		scores[i] = p
		classes[i] = labels[idx] == 1
		if classes[i] {
			positives++
		}
		predicted := 0.0
		if p >= decisionThreshold {
			predicted = 1
		}
		if predicted == labels[idx] {
			correct++
		}
	}

	accuracy := float64(correct) / float64(len(testIdx))

	if positives == 0 || positives == len(testIdx) {
		return Report{Accuracy: accuracy, AUC: 0.5}
	}

	// stat.ROC requires scores sorted ascending with classes aligned.
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return scores[order[i]] < scores[order[j]] })
	sortedScores := make([]float64, len(scores))
	sortedClasses := make([]bool, len(classes))
	for i, o := range order {
		sortedScores[i] = scores[o]
		sortedClasses[i] = classes[o]
	}

	tpr, fpr, _ := stat.ROC(nil, sortedScores, sortedClasses, nil)
	auc := integrate.Trapezoidal(fpr, tpr)

	return Report{Accuracy: accuracy, AUC: auc}
}
