package ml

import (
	"errors"
	"fmt"
	"math"
)

// AdaBoost is SAMME boosting over depth-limited decision trees.
type AdaBoost struct {
	NEstimators  int     `mapstructure:"n_estimators"`
	LearningRate float64 `mapstructure:"learning_rate"`
	// MaxDepth of each weak learner; 1 gives decision stumps.
	MaxDepth int   `mapstructure:"max_depth"`
	Seed     int64 `mapstructure:"random_state"`

	Classes  []float64
	Learners []*DecisionTree
	Alphas   []float64
}

// NewAdaBoost returns a model with the usual defaults.
func NewAdaBoost() *AdaBoost {
	return &AdaBoost{NEstimators: 50, LearningRate: 1, MaxDepth: 1, Seed: 42}
}

// Fit boosts weak learners until NEstimators are kept, a learner fits the
// weighted data perfectly, or a learner is no better than chance.
func (a *AdaBoost) Fit(x [][]float64, y []float64) error {
	if _, err := checkTrainingSet(x, y); err != nil {
		return fmt.Errorf("adaboost: %w", err)
	}
	if a.NEstimators <= 0 || a.LearningRate <= 0 {
		return fmt.Errorf("adaboost: n_estimators and learning_rate must be positive")
	}

	a.Classes = classesOf(y)
	a.Learners = nil
	a.Alphas = nil
	k := float64(len(a.Classes))
	if k < 2 {
		return fmt.Errorf("adaboost: need at least two classes, got %d", len(a.Classes))
	}

	n := len(x)
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	for m := 0; m < a.NEstimators; m++ {
		learner := &DecisionTree{
			Criterion:       CriterionGini,
			MaxDepth:        max(a.MaxDepth, 1),
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			Seed:            a.Seed + int64(m),
		}
		if err := learner.fit(x, y, w, a.Classes); err != nil {
			return fmt.Errorf("adaboost learner %d: %w", m, err)
		}
		pred, err := learner.Predict(x)
		if err != nil {
			return err
		}

		errW, total := 0.0, 0.0
		for i := range y {
			total += w[i]
			if pred[i] != y[i] {
				errW += w[i]
			}
		}
		errRate := errW / total

		if errRate <= 0 {
			a.Learners = append(a.Learners, learner)
			a.Alphas = append(a.Alphas, 1)
			break
		}
		if errRate >= 1-1/k {
			if len(a.Learners) == 0 {
				return errors.New("adaboost: weak learner is no better than chance")
			}
			break
		}

		alpha := a.LearningRate * (math.Log((1-errRate)/errRate) + math.Log(k-1))
		a.Learners = append(a.Learners, learner)
		a.Alphas = append(a.Alphas, alpha)

		sum := 0.0
		for i := range w {
			if pred[i] != y[i] {
				w[i] *= math.Exp(alpha)
			}
			sum += w[i]
		}
		for i := range w {
			w[i] /= sum
		}
	}
	return nil
}

// Predict returns the class with the largest alpha-weighted vote.
func (a *AdaBoost) Predict(x [][]float64) ([]float64, error) {
	if len(a.Learners) == 0 {
		return nil, ErrNotFitted
	}
	votes := make([][]float64, len(x))
	for i := range votes {
		votes[i] = make([]float64, len(a.Classes))
	}
	for m, learner := range a.Learners {
		pred, err := learner.Predict(x)
		if err != nil {
			return nil, err
		}
		for i, c := range encode(pred, a.Classes) {
			votes[i][c] += a.Alphas[m]
		}
	}
	out := make([]float64, len(x))
	for i, v := range votes {
		out[i] = a.Classes[argmax(v)]
	}
	return out, nil
}
