// Package core defines the shared language of the leapml training pipeline.
//
// This package contains:
//   - Stage artifacts (IngestionArtifact, ValidationArtifact, ...)
//   - Metric records (ClassificationMetrics, CandidateResult)
//   - Run bookkeeping types (Run, StageRun, PipelineState)
//   - The stage error taxonomy (StageError and its sentinel kinds)
//   - Source configuration (SourceConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
