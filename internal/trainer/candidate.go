// Package trainer runs the per-family hyperparameter search and selects the
// single best model by test F1.
package trainer

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapml/internal/ml"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// Params is one hyperparameter combination, keyed by parameter name.
type Params map[string]any

// Grid maps a parameter name to the values to try.
type Grid map[string][]any

// Candidate is one model family. The selector iterates candidates in
// registry order and never inspects their concrete types.
type Candidate interface {
	Name() string
	Grid() Grid
	Fit(params Params, data core.FeatureMatrix) (ml.Classifier, error)
	Score(model ml.Classifier, data core.FeatureMatrix) (core.ClassificationMetrics, error)
}

// family is a Candidate built from a model constructor. Params are decoded
// onto a fresh model with mapstructure, so grid keys match the model's
// mapstructure tags.
type family struct {
	name     string
	grid     Grid
	newModel func() ml.Classifier
}

// NewCandidate returns a candidate that builds models with newModel.
func NewCandidate(name string, grid Grid, newModel func() ml.Classifier) Candidate {
	return &family{name: name, grid: grid, newModel: newModel}
}

func (f *family) Name() string { return f.name }
func (f *family) Grid() Grid   { return f.grid }

func (f *family) Fit(params Params, data core.FeatureMatrix) (model ml.Classifier, err error) {
	defer func() {
		if r := recover(); r != nil {
			model, err = nil, fmt.Errorf("%s: panic during fit: %v", f.name, r)
		}
	}()

	model = f.newModel()
	if len(params) > 0 {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           model,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(map[string]any(params)); err != nil {
			return nil, fmt.Errorf("%s: invalid parameters: %w", f.name, err)
		}
	}
	if err := model.Fit(data.Features, data.Label); err != nil {
		return nil, err
	}
	return model, nil
}

func (f *family) Score(model ml.Classifier, data core.FeatureMatrix) (core.ClassificationMetrics, error) {
	return ml.Score(model, data.Features, data.Label)
}

// Family names.
const (
	RandomForest       = "random_forest"
	DecisionTree       = "decision_tree"
	LogisticRegression = "logistic_regression"
	AdaBoost           = "adaboost"
	KNN                = "knn"
	GaussianNB         = "gaussian_nb"
)

// FamilyConfig enables a family and optionally replaces its default grid.
type FamilyConfig struct {
	Name string         `koanf:"name"`
	Grid map[string]any `koanf:"grid"`
}

type familyDef struct {
	grid     Grid
	newModel func(seed int64) ml.Classifier
}

// defaultOrder is the registry order used for tie-breaking.
var defaultOrder = []string{RandomForest, DecisionTree, LogisticRegression, AdaBoost, KNN, GaussianNB}

var families = map[string]familyDef{
	RandomForest: {
		grid: Grid{"n_estimators": {8, 16, 32, 64, 128, 256}},
		newModel: func(seed int64) ml.Classifier {
			m := ml.NewRandomForest()
			m.Seed = seed
			return m
		},
	},
	DecisionTree: {
		grid: Grid{"criterion": {ml.CriterionGini, ml.CriterionEntropy, ml.CriterionLogLoss}},
		newModel: func(seed int64) ml.Classifier {
			m := ml.NewDecisionTree()
			m.Seed = seed
			return m
		},
	},
	LogisticRegression: {
		newModel: func(int64) ml.Classifier { return ml.NewLogisticRegression() },
	},
	AdaBoost: {
		grid: Grid{
			"learning_rate": {0.1, 0.01, 0.5, 0.001},
			"n_estimators":  {8, 16, 32, 64, 128, 256},
		},
		newModel: func(seed int64) ml.Classifier {
			m := ml.NewAdaBoost()
			m.Seed = seed
			return m
		},
	},
	KNN: {
		grid:     Grid{"n_neighbors": {3, 5, 7}, "weights": {"uniform", "distance"}},
		newModel: func(int64) ml.Classifier { return ml.NewKNN() },
	},
	GaussianNB: {
		newModel: func(int64) ml.Classifier { return ml.NewGaussianNB() },
	},
}

// FamilyNames lists the known families in default registry order.
func FamilyNames() []string {
	return append([]string(nil), defaultOrder...)
}

// DefaultCandidates returns every family with its default grid.
func DefaultCandidates(seed int64) []Candidate {
	out, _ := BuildCandidates(nil, seed)
	return out
}

// BuildCandidates returns the configured families in configuration order.
// An empty configuration selects every family in default order.
func BuildCandidates(cfgs []FamilyConfig, seed int64) ([]Candidate, error) {
	if len(cfgs) == 0 {
		for _, name := range defaultOrder {
			cfgs = append(cfgs, FamilyConfig{Name: name})
		}
	}

	seen := make(map[string]bool, len(cfgs))
	out := make([]Candidate, 0, len(cfgs))
	for _, c := range cfgs {
		def, ok := families[c.Name]
		if !ok {
			names := FamilyNames()
			sort.Strings(names)
			return nil, fmt.Errorf("unknown model family %q (available: %v)", c.Name, names)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("model family %q configured twice", c.Name)
		}
		seen[c.Name] = true

		grid := def.grid
		if c.Grid != nil {
			g, err := toGrid(c.Grid)
			if err != nil {
				return nil, fmt.Errorf("model family %q: %w", c.Name, err)
			}
			grid = g
		}
		newModel := def.newModel
		out = append(out, NewCandidate(c.Name, grid, func() ml.Classifier { return newModel(seed) }))
	}
	return out, nil
}

// toGrid accepts scalar or list values, as they arrive from YAML.
func toGrid(raw map[string]any) (Grid, error) {
	g := make(Grid, len(raw))
	for k, v := range raw {
		switch vals := v.(type) {
		case []any:
			if len(vals) == 0 {
				return nil, fmt.Errorf("parameter %q has no values", k)
			}
			g[k] = vals
		default:
			g[k] = []any{vals}
		}
	}
	return g, nil
}
