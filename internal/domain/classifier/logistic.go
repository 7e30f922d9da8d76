package classifier

import (
	"fmt"
	"math"
)

// Model holds fitted logistic regression parameters over standardized
// features. Weight order matches the feature vector layout.
type Model struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// PredictProba returns the predicted click probability for a standardized
// feature vector. It errors if the vector width disagrees with the fitted
// weights; callers on the serving path convert that into a degraded default.
func (m *Model) PredictProba(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("feature vector has %d dims, model expects %d", len(x), len(m.Weights))
	}
	z := m.Bias
	for i, w := range m.Weights {
		z += w * x[i]
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	// Clamp to keep exp from overflowing on extreme inputs.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
