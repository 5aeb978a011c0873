// Package ml holds the classification models, their metrics and the combined
// preprocessor + model estimator used for inference.
package ml

import (
	"encoding/gob"
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Classifier is a trainable classification model. Labels are float64 class
// values (typically 0 and 1). Hyperparameter fields carry mapstructure tags
// so parameter grids can be decoded straight into a model.
type Classifier interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) ([]float64, error)
}

// ErrNotFitted is returned by Predict on a model that was never fitted.
var ErrNotFitted = errors.New("model is not fitted")

func init() {
	gob.Register(&DecisionTree{})
	gob.Register(&RandomForest{})
	gob.Register(&LogisticRegression{})
	gob.Register(&KNN{})
	gob.Register(&AdaBoost{})
	gob.Register(&GaussianNB{})
}

// checkTrainingSet validates x and y and returns the feature count.
func checkTrainingSet(x [][]float64, y []float64) (int, error) {
	if len(x) == 0 {
		return 0, errors.New("empty training set")
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%d rows but %d labels", len(x), len(y))
	}
	p := len(x[0])
	if p == 0 {
		return 0, errors.New("training set has no features")
	}
	for i, row := range x {
		if len(row) != p {
			return 0, fmt.Errorf("row %d has %d features, expected %d", i, len(row), p)
		}
	}
	return p, nil
}

func checkRows(x [][]float64, p int) error {
	for i, row := range x {
		if len(row) != p {
			return fmt.Errorf("row %d has %d features, model expects %d", i, len(row), p)
		}
	}
	return nil
}

// classesOf returns the sorted distinct labels.
func classesOf(y []float64) []float64 {
	out := slices.Clone(y)
	sort.Float64s(out)
	return slices.Compact(out)
}

// encode maps labels to their index in classes.
func encode(y, classes []float64) []int {
	out := make([]int, len(y))
	for i, v := range y {
		out[i], _ = slices.BinarySearch(classes, v)
	}
	return out
}

// argmax returns the first index of the largest value.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
