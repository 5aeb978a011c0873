package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is an L2-regularised logistic model trained by batch
// gradient descent. More than two classes are handled one-vs-rest.
type LogisticRegression struct {
	// C is the inverse regularisation strength.
	C            float64 `mapstructure:"C"`
	MaxIter      int     `mapstructure:"max_iter"`
	LearningRate float64 `mapstructure:"learning_rate"`
	Tol          float64 `mapstructure:"tol"`

	Classes []float64
	// One weight vector and bias per binary problem: a single problem for
	// two classes, one per class otherwise.
	Weights [][]float64
	Bias    []float64
}

// NewLogisticRegression returns a model with the usual defaults.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1, MaxIter: 1000, LearningRate: 0.1, Tol: 1e-6}
}

// Fit trains the model.
func (m *LogisticRegression) Fit(x [][]float64, y []float64) error {
	p, err := checkTrainingSet(x, y)
	if err != nil {
		return fmt.Errorf("logistic regression: %w", err)
	}
	if m.C <= 0 {
		return fmt.Errorf("logistic regression: C must be positive, got %v", m.C)
	}
	if m.MaxIter <= 0 || m.LearningRate <= 0 {
		return fmt.Errorf("logistic regression: max_iter and learning_rate must be positive")
	}

	m.Classes = classesOf(y)
	if len(m.Classes) < 2 {
		return fmt.Errorf("logistic regression: need at least two classes, got %d", len(m.Classes))
	}

	n := len(x)
	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.SetRow(i, row)
	}

	positives := m.Classes[1:]
	if len(m.Classes) > 2 {
		positives = m.Classes
	}
	m.Weights = make([][]float64, len(positives))
	m.Bias = make([]float64, len(positives))

	for k, pos := range positives {
		target := make([]float64, n)
		for i, v := range y {
			if v == pos {
				target[i] = 1
			}
		}
		m.Weights[k], m.Bias[k] = m.descend(design, target)
	}
	return nil
}

func (m *LogisticRegression) descend(x *mat.Dense, target []float64) ([]float64, float64) {
	n, p := x.Dims()
	w := mat.NewVecDense(p, nil)
	bias := 0.0
	z := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(p, nil)
	lambda := 1 / (m.C * float64(n))

	for iter := 0; iter < m.MaxIter; iter++ {
		z.MulVec(x, w)
		sumResid := 0.0
		for i := 0; i < n; i++ {
			r := sigmoid(z.AtVec(i)+bias) - target[i]
			resid.SetVec(i, r)
			sumResid += r
		}
		grad.MulVec(x.T(), resid)
		grad.ScaleVec(1/float64(n), grad)
		grad.AddScaledVec(grad, lambda, w)
		gBias := sumResid / float64(n)

		w.AddScaledVec(w, -m.LearningRate, grad)
		bias -= m.LearningRate * gBias

		if math.Sqrt(mat.Dot(grad, grad)+gBias*gBias) < m.Tol {
			break
		}
	}
	return mat.Col(nil, 0, w), bias
}

// Predict returns the most probable class of each row.
func (m *LogisticRegression) Predict(x [][]float64) ([]float64, error) {
	probs, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, p := range probs {
		out[i] = m.Classes[argmax(p)]
	}
	return out, nil
}

// PredictProba returns class probabilities aligned with Classes.
func (m *LogisticRegression) PredictProba(x [][]float64) ([][]float64, error) {
	if len(m.Weights) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkRows(x, len(m.Weights[0])); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(m.Classes) == 2 {
			p1 := sigmoid(floats.Dot(m.Weights[0], row) + m.Bias[0])
			out[i] = []float64{1 - p1, p1}
			continue
		}
		scores := make([]float64, len(m.Classes))
		for k := range m.Classes {
			scores[k] = sigmoid(floats.Dot(m.Weights[k], row) + m.Bias[k])
		}
		if s := floats.Sum(scores); s > 0 {
			floats.Scale(1/s, scores)
		}
		out[i] = scores
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
