package ml

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// KNN votes among the K nearest training rows by euclidean distance.
type KNN struct {
	K int `mapstructure:"n_neighbors"`
	// Weights is "uniform" or "distance".
	Weights string `mapstructure:"weights"`

	Classes []float64
	X       [][]float64
	Y       []float64
}

// NewKNN returns a model with the usual defaults.
func NewKNN() *KNN {
	return &KNN{K: 5, Weights: "uniform"}
}

// Fit memorises the training set.
func (m *KNN) Fit(x [][]float64, y []float64) error {
	if _, err := checkTrainingSet(x, y); err != nil {
		return fmt.Errorf("knn: %w", err)
	}
	if m.K <= 0 {
		return fmt.Errorf("knn: n_neighbors must be positive, got %d", m.K)
	}
	if m.Weights != "" && m.Weights != "uniform" && m.Weights != "distance" {
		return fmt.Errorf("knn: unknown weights %q", m.Weights)
	}
	m.X = make([][]float64, len(x))
	for i, row := range x {
		m.X[i] = slices.Clone(row)
	}
	m.Y = slices.Clone(y)
	m.Classes = classesOf(y)
	return nil
}

// Predict returns the class with the largest vote; ties go to the smaller class.
func (m *KNN) Predict(x [][]float64) ([]float64, error) {
	if len(m.X) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkRows(x, len(m.X[0])); err != nil {
		return nil, err
	}

	type neighbour struct {
		dist  float64
		label int
	}
	labels := encode(m.Y, m.Classes)
	k := min(m.K, len(m.X))
	out := make([]float64, len(x))
	nb := make([]neighbour, len(m.X))

	for i, row := range x {
		for j, ref := range m.X {
			nb[j] = neighbour{floats.Distance(row, ref, 2), labels[j]}
		}
		sort.SliceStable(nb, func(a, b int) bool { return nb[a].dist < nb[b].dist })

		votes := make([]float64, len(m.Classes))
		for _, n := range nb[:k] {
			if m.Weights == "distance" {
				if n.dist == 0 {
					votes[n.label] += 1e12
					continue
				}
				votes[n.label] += 1 / n.dist
			} else {
				votes[n.label]++
			}
		}
		out[i] = m.Classes[argmax(votes)]
	}
	return out, nil
}
