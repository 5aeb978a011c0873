package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapml/internal/frame"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// Paths are the files the validator writes.
type Paths struct {
	ValidTrain  string
	ValidTest   string
	DriftReport string
}

// Config controls the validation stage.
type Config struct {
	Schema      SchemaSpec
	Threshold   float64 // drift significance, DefaultSignificance when zero
	FailOnDrift bool
}

// Validator runs the validation stage. A split either passes as a whole or
// the stage fails; rows are never filtered, so the invalid paths of the
// artifact stay empty.
type Validator struct {
	cfg    Config
	paths  Paths
	logger *slog.Logger
}

// New creates a validator.
// If logger is nil, a discard logger is used.
func New(cfg Config, paths Paths, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{cfg: cfg, paths: paths, logger: logger}
}

// Validate gates both splits on the schema, then runs drift detection and
// writes the drift report before any drift failure. A split that fails the
// schema stops the stage before drift is checked.
func (v *Validator) Validate(_ context.Context, in core.IngestionArtifact) (core.ValidationArtifact, error) {
	train, err := frame.ReadCSV(in.TrainPath)
	if err != nil {
		return core.ValidationArtifact{}, fail(core.ErrArtifactMissing, err)
	}
	test, err := frame.ReadCSV(in.TestPath)
	if err != nil {
		return core.ValidationArtifact{}, fail(core.ErrArtifactMissing, err)
	}

	if err := CheckSchema(train, v.cfg.Schema); err != nil {
		return core.ValidationArtifact{}, fail(core.ErrSchemaMismatch, fmt.Errorf("train split: %w", err))
	}
	if err := CheckSchema(test, v.cfg.Schema); err != nil {
		return core.ValidationArtifact{}, fail(core.ErrSchemaMismatch, fmt.Errorf("test split: %w", err))
	}

	report, passed := DetectDrift(train, test, v.cfg.Threshold)
	if err := WriteReport(v.paths.DriftReport, report); err != nil {
		return core.ValidationArtifact{}, fail(core.ErrArtifactWrite, err)
	}
	if !passed {
		v.logger.Warn("data drift detected",
			slog.Any("columns", report.DriftedColumns()),
			slog.String("report", v.paths.DriftReport))
	}

	if !passed && v.cfg.FailOnDrift {
		return core.ValidationArtifact{}, fail(core.ErrDriftDetected,
			fmt.Errorf("drifted columns: %v", report.DriftedColumns()))
	}

	if err := frame.WriteCSV(v.paths.ValidTrain, train); err != nil {
		return core.ValidationArtifact{}, fail(core.ErrArtifactWrite, err)
	}
	if err := frame.WriteCSV(v.paths.ValidTest, test); err != nil {
		return core.ValidationArtifact{}, fail(core.ErrArtifactWrite, err)
	}

	v.logger.Info("validation complete",
		slog.Int("columns", len(train.Columns)),
		slog.Bool("drift_detected", report.DriftDetected))

	return core.ValidationArtifact{
		ValidTrainPath:  v.paths.ValidTrain,
		ValidTestPath:   v.paths.ValidTest,
		DriftReportPath: v.paths.DriftReport,
		DriftDetected:   report.DriftDetected,
	}, nil
}

func fail(kind, cause error) error {
	return core.NewStageError(core.StageValidation, kind, cause)
}
