// Package state records pipeline runs, stage executions and model metrics
// in SQLite. The schema is managed with goose migrations embedded in the
// binary.
package state

import (
	"github.com/leapstack-labs/leapml/pkg/core"
)

// Type aliases for the bookkeeping types defined in pkg/core.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus

	// Run is an alias for core.Run.
	Run = core.Run

	// StageRunStatus is an alias for core.StageRunStatus.
	StageRunStatus = core.StageRunStatus

	// StageRun is an alias for core.StageRun.
	StageRun = core.StageRun

	// TrackedMetrics is an alias for core.TrackedMetrics.
	TrackedMetrics = core.TrackedMetrics
)

// Re-exported status constants.
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusFailed    = core.RunStatusFailed

	StageRunStatusRunning = core.StageRunStatusRunning
	StageRunStatusSuccess = core.StageRunStatusSuccess
	StageRunStatusFailed  = core.StageRunStatusFailed
)

var (
	_ core.Store       = (*SQLiteStore)(nil)
	_ core.MetricsSink = (*SQLiteStore)(nil)
)
