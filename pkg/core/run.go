package core

import "time"

// PipelineState is a state of the pipeline state machine.
type PipelineState string

// Pipeline states. Complete and Failed are terminal.
const (
	StatePending      PipelineState = "pending"
	StateIngesting    PipelineState = "ingesting"
	StateValidating   PipelineState = "validating"
	StateTransforming PipelineState = "transforming"
	StateTraining     PipelineState = "training"
	StateComplete     PipelineState = "complete"
	StateFailed       PipelineState = "failed"
)

// StateFor returns the running state of stage.
func StateFor(stage Stage) PipelineState {
	switch stage {
	case StageIngestion:
		return StateIngesting
	case StageValidation:
		return StateValidating
	case StageTransformation:
		return StateTransforming
	case StageTraining:
		return StateTraining
	}
	return StatePending
}

// Terminal reports whether no further transition is possible.
func (s PipelineState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// RunResult is the outcome of one pipeline execution. Each artifact is set
// once its stage succeeded; a failed run keeps the artifacts of the stages
// before the failure.
type RunResult struct {
	RunID       string        `json:"run_id"`
	Namespace   string        `json:"namespace"`
	State       PipelineState `json:"state"`
	ArtifactDir string        `json:"artifact_dir"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`

	// FailedStage and Err describe Failed(stage, cause).
	FailedStage Stage `json:"failed_stage,omitempty"`
	Err         error `json:"-"`

	Ingestion      *IngestionArtifact      `json:"ingestion,omitempty"`
	Validation     *ValidationArtifact     `json:"validation,omitempty"`
	Transformation *TransformationArtifact `json:"transformation,omitempty"`
	Model          *ModelTrainerArtifact   `json:"model,omitempty"`
}

// ErrorMessage returns the failure message, or "" for a run that did not fail.
func (r *RunResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
