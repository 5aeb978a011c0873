package transform

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/leapstack-labs/leapml/internal/frame"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// Config controls the transformation stage.
type Config struct {
	// Target is the label column. Empty means the last column.
	Target string
	// LabelMap rewrites label values before training, e.g. {"-1": 0} turns a
	// {-1, 1} target into {0, 1}.
	LabelMap map[string]float64
	Options  Options
}

// Paths are the files the transformer writes.
type Paths struct {
	Object string
	Train  string
	Test   string
}

// Transformer runs the transformation stage.
type Transformer struct {
	cfg    Config
	paths  Paths
	logger *slog.Logger
}

// New creates a transformer.
// If logger is nil, a discard logger is used.
func New(cfg Config, paths Paths, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transformer{cfg: cfg, paths: paths, logger: logger}
}

// Transform fits the preprocessor on the validated train split only, applies
// it to both splits and persists the preprocessor and both matrices.
func (t *Transformer) Transform(_ context.Context, in core.ValidationArtifact) (core.TransformationArtifact, error) {
	train, err := frame.ReadCSV(in.ValidTrainPath)
	if err != nil {
		return core.TransformationArtifact{}, fail(core.ErrArtifactMissing, err)
	}
	test, err := frame.ReadCSV(in.ValidTestPath)
	if err != nil {
		return core.TransformationArtifact{}, fail(core.ErrArtifactMissing, err)
	}

	target := t.cfg.Target
	if target == "" && len(train.Columns) > 0 {
		target = train.Columns[len(train.Columns)-1]
	}

	trainRaw, err := Split(train, target, t.cfg.LabelMap)
	if err != nil {
		return core.TransformationArtifact{}, fail(core.ErrTransformFit, fmt.Errorf("train split: %w", err))
	}
	testRaw, err := SplitColumns(test, trainRaw.Columns, target, t.cfg.LabelMap)
	if err != nil {
		return core.TransformationArtifact{}, fail(core.ErrTransformFit, fmt.Errorf("test split: %w", err))
	}

	pre, err := Fit(trainRaw.Columns, trainRaw.Features, t.cfg.Options)
	if err != nil {
		return core.TransformationArtifact{}, fail(core.ErrTransformFit, err)
	}

	trainX, err := pre.Transform(trainRaw.Features)
	if err != nil {
		return core.TransformationArtifact{}, fail(core.ErrTransformFit, err)
	}
	testX, err := pre.Transform(testRaw.Features)
	if err != nil {
		return core.TransformationArtifact{}, fail(core.ErrTransformFit, err)
	}

	trainM := core.FeatureMatrix{Columns: trainRaw.Columns, Features: trainX, Label: trainRaw.Label}
	testM := core.FeatureMatrix{Columns: trainRaw.Columns, Features: testX, Label: testRaw.Label}

	if err := core.WriteGob(t.paths.Object, pre); err != nil {
		return core.TransformationArtifact{}, fail(core.ErrArtifactWrite, err)
	}
	if err := core.WriteGob(t.paths.Train, trainM); err != nil {
		return core.TransformationArtifact{}, fail(core.ErrArtifactWrite, err)
	}
	if err := core.WriteGob(t.paths.Test, testM); err != nil {
		return core.TransformationArtifact{}, fail(core.ErrArtifactWrite, err)
	}

	t.logger.Info("transformation complete",
		slog.String("target", target),
		slog.Int("features", len(trainM.Columns)),
		slog.String("imputer", pre.Options.Imputer),
		slog.String("scaler", pre.Options.Scaler))

	return core.TransformationArtifact{
		TransformedObjectPath: t.paths.Object,
		TransformedTrainPath:  t.paths.Train,
		TransformedTestPath:   t.paths.Test,
	}, nil
}

// Split separates a table into numeric features (every column except target,
// in table order) and labels. Missing feature cells become NaN; a missing or
// non-numeric label is an error.
func Split(t *frame.Table, target string, labelMap map[string]float64) (core.FeatureMatrix, error) {
	var cols []string
	for _, c := range t.Columns {
		if c != target {
			cols = append(cols, c)
		}
	}
	return SplitColumns(t, cols, target, labelMap)
}

// SplitColumns is Split with an explicit feature column order, so the test
// split lines up with the train split.
func SplitColumns(t *frame.Table, columns []string, target string, labelMap map[string]float64) (core.FeatureMatrix, error) {
	if !t.HasColumn(target) {
		return core.FeatureMatrix{}, fmt.Errorf("target column %q not found", target)
	}
	if len(columns) == 0 {
		return core.FeatureMatrix{}, fmt.Errorf("no feature columns")
	}

	m := core.FeatureMatrix{
		Columns:  columns,
		Features: make([][]float64, t.Len()),
	}
	for i := range m.Features {
		m.Features[i] = make([]float64, len(columns))
	}
	for j, name := range columns {
		vals, err := t.Float64s(name)
		if err != nil {
			return core.FeatureMatrix{}, err
		}
		for i, v := range vals {
			m.Features[i][j] = v
		}
	}

	cells, err := t.Column(target)
	if err != nil {
		return core.FeatureMatrix{}, err
	}
	m.Label = make([]float64, len(cells))
	for i, c := range cells {
		v, err := parseLabel(c, labelMap)
		if err != nil {
			return core.FeatureMatrix{}, fmt.Errorf("row %d: %w", i, err)
		}
		m.Label[i] = v
	}
	return m, nil
}

func parseLabel(cell string, labelMap map[string]float64) (float64, error) {
	if frame.IsMissing(cell) {
		return 0, fmt.Errorf("missing label")
	}
	if v, ok := labelMap[cell]; ok {
		return v, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("label %q is not numeric", cell)
	}
	if mapped, ok := labelMap[strconv.FormatFloat(v, 'g', -1, 64)]; ok {
		return mapped, nil
	}
	return v, nil
}

// LoadPreprocessor reads a preprocessor written by the transformer.
func LoadPreprocessor(path string) (*Preprocessor, error) {
	var p Preprocessor
	if err := core.ReadGob(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadMatrix reads a feature matrix written by the transformer.
func LoadMatrix(path string) (core.FeatureMatrix, error) {
	var m core.FeatureMatrix
	if err := core.ReadGob(path, &m); err != nil {
		return core.FeatureMatrix{}, err
	}
	return m, m.Validate()
}

func fail(kind, cause error) error {
	return core.NewStageError(core.StageTransformation, kind, cause)
}
