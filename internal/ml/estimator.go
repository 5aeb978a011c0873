package ml

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapml/internal/transform"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// Estimator pairs one fitted preprocessor with one fitted model. The pair is
// fixed when the estimator is built and Predict always transforms first.
type Estimator struct {
	preprocessor *transform.Preprocessor
	model        Classifier
}

// NewEstimator combines a fitted preprocessor and model.
func NewEstimator(pre *transform.Preprocessor, model Classifier) (*Estimator, error) {
	if pre == nil {
		return nil, errors.New("estimator requires a preprocessor")
	}
	if model == nil {
		return nil, errors.New("estimator requires a model")
	}
	return &Estimator{preprocessor: pre, model: model}, nil
}

// Columns returns the raw feature columns the estimator expects, in order.
func (e *Estimator) Columns() []string {
	return e.preprocessor.Columns
}

// Model returns the wrapped model.
func (e *Estimator) Model() Classifier {
	return e.model
}

// Predict transforms raw feature rows and classifies them.
func (e *Estimator) Predict(x [][]float64) ([]float64, error) {
	t, err := e.preprocessor.Transform(x)
	if err != nil {
		return nil, fmt.Errorf("failed to transform input: %w", err)
	}
	return e.model.Predict(t)
}

type estimatorFile struct {
	Preprocessor *transform.Preprocessor
	Model        Classifier
}

type modelFile struct {
	Model Classifier
}

// Save writes the estimator as a single gob file.
func (e *Estimator) Save(path string) error {
	return core.WriteGob(path, estimatorFile{Preprocessor: e.preprocessor, Model: e.model})
}

// LoadEstimator reads an estimator written by Save.
func LoadEstimator(path string) (*Estimator, error) {
	var f estimatorFile
	if err := core.ReadGob(path, &f); err != nil {
		return nil, err
	}
	return NewEstimator(f.Preprocessor, f.Model)
}

// SaveModel writes a bare model.
func SaveModel(path string, model Classifier) error {
	return core.WriteGob(path, modelFile{Model: model})
}

// LoadModel reads a model written by SaveModel.
func LoadModel(path string) (Classifier, error) {
	var f modelFile
	if err := core.ReadGob(path, &f); err != nil {
		return nil, err
	}
	if f.Model == nil {
		return nil, fmt.Errorf("%s holds no model", path)
	}
	return f.Model, nil
}

// LoadServing composes an estimator from separately stored preprocessor and
// model files, the layout serving consumers read.
func LoadServing(preprocessorPath, modelPath string) (*Estimator, error) {
	pre, err := transform.LoadPreprocessor(preprocessorPath)
	if err != nil {
		return nil, err
	}
	model, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	return NewEstimator(pre, model)
}

// MarshalModel encodes a bare model in the SaveModel format.
func MarshalModel(model Classifier) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(modelFile{Model: model}); err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return buf.Bytes(), nil
}
