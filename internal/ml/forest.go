package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of decision trees with per-split
// feature sampling.
type RandomForest struct {
	NEstimators     int    `mapstructure:"n_estimators"`
	Criterion       string `mapstructure:"criterion"`
	MaxDepth        int    `mapstructure:"max_depth"`
	MinSamplesSplit int    `mapstructure:"min_samples_split"`
	MinSamplesLeaf  int    `mapstructure:"min_samples_leaf"`
	// MaxFeatures is the number of features sampled per split; 0 means sqrt(p).
	MaxFeatures int   `mapstructure:"max_features"`
	Bootstrap   bool  `mapstructure:"bootstrap"`
	Seed        int64 `mapstructure:"random_state"`

	Classes []float64
	Trees   []*DecisionTree
}

// NewRandomForest returns a forest with the usual defaults.
func NewRandomForest() *RandomForest {
	return &RandomForest{
		NEstimators:     100,
		Criterion:       CriterionGini,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
	}
}

// Fit grows NEstimators trees, each on a bootstrap sample when Bootstrap is set.
func (f *RandomForest) Fit(x [][]float64, y []float64) error {
	p, err := checkTrainingSet(x, y)
	if err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	if f.NEstimators <= 0 {
		return fmt.Errorf("random forest: n_estimators must be positive, got %d", f.NEstimators)
	}

	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(p))))
	}

	f.Classes = classesOf(y)
	f.Trees = make([]*DecisionTree, f.NEstimators)
	rng := rand.New(rand.NewSource(f.Seed)) //nolint:gosec // reproducible bagging

	n := len(x)
	for t := range f.Trees {
		sx, sy := x, y
		if f.Bootstrap {
			sx = make([][]float64, n)
			sy = make([]float64, n)
			for i := 0; i < n; i++ {
				j := rng.Intn(n)
				sx[i], sy[i] = x[j], y[j]
			}
		}
		tree := &DecisionTree{
			Criterion:       f.Criterion,
			MaxDepth:        f.MaxDepth,
			MinSamplesSplit: f.MinSamplesSplit,
			MinSamplesLeaf:  f.MinSamplesLeaf,
			MaxFeatures:     maxFeatures,
			Seed:            rng.Int63(),
		}
		if err := tree.fit(sx, sy, nil, f.Classes); err != nil {
			return fmt.Errorf("random forest tree %d: %w", t, err)
		}
		f.Trees[t] = tree
	}
	return nil
}

// Predict averages the trees' class probabilities.
func (f *RandomForest) Predict(x [][]float64) ([]float64, error) {
	probs, err := f.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, p := range probs {
		out[i] = f.Classes[argmax(p)]
	}
	return out, nil
}

// PredictProba returns the mean class probabilities over all trees.
func (f *RandomForest) PredictProba(x [][]float64) ([][]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(x))
	for i := range out {
		out[i] = make([]float64, len(f.Classes))
	}
	for _, t := range f.Trees {
		probs, err := t.PredictProba(x)
		if err != nil {
			return nil, err
		}
		for i, p := range probs {
			for k, v := range p {
				out[i][k] += v / float64(len(f.Trees))
			}
		}
	}
	return out, nil
}
