package core

import (
	"context"
	"time"
)

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one pipeline execution.
type Run struct {
	ID          string
	Namespace   string
	Status      RunStatus
	ArtifactDir string
	StartedAt   time.Time
	CompletedAt *time.Time
	FailedStage Stage
	Error       string
}

// StageRunStatus represents the status of a single stage within a run.
type StageRunStatus string

// Stage run status constants.
const (
	StageRunStatusRunning StageRunStatus = "running"
	StageRunStatusSuccess StageRunStatus = "success"
	StageRunStatusFailed  StageRunStatus = "failed"
)

// StageRun represents a single stage execution within a run.
type StageRun struct {
	ID          string
	RunID       string
	Stage       Stage
	Status      StageRunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	ExecutionMS int64
}

// TrackedMetrics is one metric report stored for a run.
type TrackedMetrics struct {
	ID        string
	RunName   string
	Split     string
	ModelName string
	F1Score   float64
	Precision float64
	Recall    float64
	Artifact  []byte
	CreatedAt time.Time
}

// Store defines the interface for run bookkeeping.
type Store interface {
	Close() error

	// Run operations
	CreateRun(namespace, artifactDir string) (*Run, error)
	GetRun(id string) (*Run, error)
	GetLatestRun(namespace string) (*Run, error)
	CompleteRun(id string, status RunStatus, stage Stage, errMsg string) error
	ListRuns(limit int) ([]*Run, error)

	// Stage run operations
	RecordStageRun(stageRun *StageRun) error
	UpdateStageRun(id string, status StageRunStatus, errMsg string, executionMS int64) error
	GetStageRunsForRun(runID string) ([]*StageRun, error)

	// Metric operations
	ListMetrics(runName string) ([]*TrackedMetrics, error)
}

// MetricReport is what a metrics sink receives: a named run, three scalar
// metrics and one artifact blob.
type MetricReport struct {
	RunName   string
	Split     string
	ModelName string
	F1Score   float64
	Precision float64
	Recall    float64
	Artifact  []byte
}

// MetricsSink receives metric reports for the selected model.
type MetricsSink interface {
	Report(ctx context.Context, report MetricReport) error
}
