package classifier

import "gonum.org/v1/gonum/stat"

// Scaler standardizes feature columns to zero mean and unit variance using
// moments fit on the full training set. Parameters are positional: column i
// of every vector must be the same feature at fit and transform time.
type Scaler struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// FitScaler computes per-column means and population standard deviations.
// Constant columns get scale 1 so transforming them yields zero instead of
// dividing by zero.
func FitScaler(rows [][]float64) *Scaler {
	if len(rows) == 0 {
		return &Scaler{}
	}
	cols := len(rows[0])
	s := &Scaler{
		Means:  make([]float64, cols),
		Scales: make([]float64, cols),
	}

	column := make([]float64, len(rows))
	for c := 0; c < cols; c++ {
		for r, row := range rows {
			column[r] = row[c]
		}
		mean := stat.Mean(column, nil)
		scale := stat.PopStdDev(column, nil)
		if scale == 0 {
			scale = 1
		}
		s.Means[c] = mean
		s.Scales[c] = scale
	}
	return s
}

// Transform returns a standardized copy of x.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Means[i]) / s.Scales[i]
	}
	return out
}

// Dims returns the number of feature columns the scaler was fit on.
func (s *Scaler) Dims() int {
	return len(s.Means)
}
