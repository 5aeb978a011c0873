package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every stage failure carries exactly one of these, so callers can
// match with errors.Is(err, core.ErrSourceEmpty) and friends.
var (
	// ErrSourceEmpty is returned when the source collection holds no records.
	ErrSourceEmpty = errors.New("source returned no records")
	// ErrSourceUnavailable covers connection and authentication failures of the source.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSchemaMismatch is returned when a split does not match the declared columns.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrDriftDetected is returned when drift is configured to fail the run.
	ErrDriftDetected = errors.New("drift detected")
	// ErrTransformFit is returned when the preprocessing transform cannot be fitted.
	ErrTransformFit = errors.New("transform fit failed")
	// ErrArtifactMissing is returned when an upstream stage output cannot be read.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrArtifactWrite is returned when a stage output cannot be persisted.
	ErrArtifactWrite = errors.New("artifact write failed")
	// ErrNoViableModel is returned when every candidate failed to fit.
	ErrNoViableModel = errors.New("no viable model")
	// ErrSink is returned by metric sinks. It is never fatal to a run.
	ErrSink = errors.New("metrics sink failed")
	// ErrInvalidConfig is returned when a stage is constructed with unusable settings.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Stage identifies a pipeline stage.
type Stage string

// Pipeline stages in execution order.
const (
	StageIngestion      Stage = "ingestion"
	StageValidation     Stage = "validation"
	StageTransformation Stage = "transformation"
	StageTraining       Stage = "training"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageIngestion, StageValidation, StageTransformation, StageTraining}

// StageError is the single error type returned by pipeline stages.
// It names the stage that failed, the kind of failure, and the underlying cause.
type StageError struct {
	Stage Stage
	Kind  error
	Cause error
}

// NewStageError builds a StageError for stage with the given kind and cause.
func NewStageError(stage Stage, kind, cause error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Cause: cause}
}

func (e *StageError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s stage: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s stage: %v: %v", e.Stage, e.Kind, e.Cause)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StageError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// StageOf returns the stage recorded in err, if err wraps a StageError.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
