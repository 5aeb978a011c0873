package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GaussianNB is Gaussian naive Bayes.
type GaussianNB struct {
	// VarSmoothing is added to every variance as a fraction of the largest
	// feature variance.
	VarSmoothing float64 `mapstructure:"var_smoothing"`

	Classes []float64
	Priors  []float64
	Means   [][]float64
	Vars    [][]float64
}

// NewGaussianNB returns a model with the usual defaults.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{VarSmoothing: 1e-9}
}

// Fit estimates per-class priors, means and variances.
func (m *GaussianNB) Fit(x [][]float64, y []float64) error {
	p, err := checkTrainingSet(x, y)
	if err != nil {
		return fmt.Errorf("gaussian nb: %w", err)
	}

	m.Classes = classesOf(y)
	labels := encode(y, m.Classes)
	k := len(m.Classes)

	cols := make([][][]float64, k)
	for c := range cols {
		cols[c] = make([][]float64, p)
	}
	for i, row := range x {
		for j, v := range row {
			cols[labels[i]][j] = append(cols[labels[i]][j], v)
		}
	}

	maxVar := 0.0
	for j := 0; j < p; j++ {
		col := make([]float64, len(x))
		for i, row := range x {
			col[i] = row[j]
		}
		_, v := stat.PopMeanVariance(col, nil)
		maxVar = math.Max(maxVar, v)
	}
	eps := m.VarSmoothing * maxVar
	if eps == 0 {
		eps = 1e-9
	}

	m.Priors = make([]float64, k)
	m.Means = make([][]float64, k)
	m.Vars = make([][]float64, k)
	for c := 0; c < k; c++ {
		m.Priors[c] = float64(len(cols[c][0])) / float64(len(x))
		m.Means[c] = make([]float64, p)
		m.Vars[c] = make([]float64, p)
		for j := 0; j < p; j++ {
			mean, v := stat.PopMeanVariance(cols[c][j], nil)
			m.Means[c][j] = mean
			m.Vars[c][j] = v + eps
		}
	}
	return nil
}

// Predict returns the class with the largest log posterior.
func (m *GaussianNB) Predict(x [][]float64) ([]float64, error) {
	if len(m.Classes) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkRows(x, len(m.Means[0])); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	scores := make([]float64, len(m.Classes))
	for i, row := range x {
		for c := range m.Classes {
			s := math.Log(m.Priors[c])
			for j, v := range row {
				d := v - m.Means[c][j]
				s -= 0.5*math.Log(2*math.Pi*m.Vars[c][j]) + d*d/(2*m.Vars[c][j])
			}
			scores[c] = s
		}
		out[i] = m.Classes[floats.MaxIdx(scores)]
	}
	return out, nil
}
