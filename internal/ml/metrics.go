package ml

import (
	"slices"

	"github.com/leapstack-labs/leapml/pkg/core"
)

// PositiveLabel is the class counted as positive in confusion counts.
const PositiveLabel = 1.0

// Evaluate scores predictions against true labels. Precision, recall and F1
// are averaged over the classes present in yTrue, weighted by support;
// a class with no predictions contributes zero precision.
func Evaluate(yTrue, yPred []float64) core.ClassificationMetrics {
	var m core.ClassificationMetrics
	n := min(len(yTrue), len(yPred))
	if n == 0 {
		return m
	}

	correct := 0
	support := make(map[float64]int)
	predicted := make(map[float64]int)
	truePos := make(map[float64]int)
	for i := 0; i < n; i++ {
		t, p := yTrue[i], yPred[i]
		support[t]++
		predicted[p]++
		if t == p {
			correct++
			truePos[t]++
		}

		switch {
		case t == PositiveLabel && p == PositiveLabel:
			m.Confusion.TruePositive++
		case t != PositiveLabel && p != PositiveLabel:
			m.Confusion.TrueNegative++
		case t != PositiveLabel:
			m.Confusion.FalsePositive++
		default:
			m.Confusion.FalseNegative++
		}
	}

	m.Accuracy = float64(correct) / float64(n)
	classes := make([]float64, 0, len(support))
	for class := range support {
		classes = append(classes, class)
	}
	// Fixed summation order keeps scores bit-identical across runs.
	slices.Sort(classes)
	for _, class := range classes {
		s := support[class]
		tp := float64(truePos[class])
		var precision, recall, f1 float64
		if predicted[class] > 0 {
			precision = tp / float64(predicted[class])
		}
		recall = tp / float64(s)
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		weight := float64(s) / float64(n)
		m.Precision += weight * precision
		m.Recall += weight * recall
		m.F1Score += weight * f1
	}
	return m
}

// Score predicts x with a fitted model and evaluates against y.
func Score(model Classifier, x [][]float64, y []float64) (core.ClassificationMetrics, error) {
	pred, err := model.Predict(x)
	if err != nil {
		return core.ClassificationMetrics{}, err
	}
	return Evaluate(y, pred), nil
}
