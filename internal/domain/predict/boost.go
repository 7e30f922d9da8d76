package predict

import "math"

// Boost multiplier bounds for the CPC auction.
const (
	DefaultBaselineCTR = 0.01
	DefaultMinBoost    = 0.5
	DefaultMaxBoost    = 2.0
)

// Booster translates CTR scores into bounded bid boost multipliers.
// A score at the baseline maps to 1.0; higher predicted CTR earns a larger
// multiplier, clamped to [min, max].
type Booster struct {
	baselineCTR float64
	minBoost    float64
	maxBoost    float64
}

// BoosterOption applies a configuration option to the Booster.
type BoosterOption func(*Booster)

// WithBaselineCTR sets the CTR that maps to a 1.0 multiplier.
func WithBaselineCTR(ctr float64) BoosterOption {
	return func(b *Booster) {
		if ctr > 0 {
			b.baselineCTR = ctr
		}
	}
}

// WithBoostBounds sets the multiplier clamp range.
func WithBoostBounds(minBoost, maxBoost float64) BoosterOption {
	return func(b *Booster) {
		if minBoost > 0 && maxBoost > minBoost {
			b.minBoost = minBoost
			b.maxBoost = maxBoost
		}
	}
}

// NewBooster creates a Booster with the default 1% baseline and [0.5, 2.0]
// clamp.
func NewBooster(opts ...BoosterOption) *Booster {
	b := &Booster{
		baselineCTR: DefaultBaselineCTR,
		minBoost:    DefaultMinBoost,
		maxBoost:    DefaultMaxBoost,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Boost maps a CTR score to a multiplier. NaN or negative scores clamp to
// the floor instead of propagating garbage into bid math.
func (b *Booster) Boost(ctrScore float64) float64 {
	if math.IsNaN(ctrScore) || ctrScore < 0 {
		return b.minBoost
	}
	multiplier := ctrScore / b.baselineCTR
	if multiplier > b.maxBoost {
		return b.maxBoost
	}
	if multiplier < b.minBoost {
		return b.minBoost
	}
	return multiplier
}
