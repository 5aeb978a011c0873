package state

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapml/internal/state/sqlcgen"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// RecordStageRun inserts a stage execution. An empty ID is generated and
// written back.
func (s *SQLiteStore) RecordStageRun(sr *core.StageRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if sr.ID == "" {
		sr.ID = generateID()
	}
	if sr.StartedAt.IsZero() {
		sr.StartedAt = time.Now().UTC()
	}

	err := s.queries.InsertStageRun(ctx(), sqlcgen.InsertStageRunParams{
		ID:          sr.ID,
		RunID:       sr.RunID,
		Stage:       string(sr.Stage),
		Status:      string(sr.Status),
		StartedAt:   formatTime(sr.StartedAt),
		CompletedAt: formatNullTime(sr.CompletedAt),
		Error:       optString(sr.Error),
		ExecutionMs: sr.ExecutionMS,
	})
	if err != nil {
		return fmt.Errorf("failed to record stage run: %w", err)
	}
	return nil
}

// UpdateStageRun finishes a stage execution.
func (s *SQLiteStore) UpdateStageRun(id string, status core.StageRunStatus, errMsg string, executionMS int64) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	completedAt := formatTime(time.Now())
	err := s.queries.UpdateStageRun(ctx(), sqlcgen.UpdateStageRunParams{
		Status:      string(status),
		CompletedAt: &completedAt,
		Error:       optString(errMsg),
		ExecutionMs: executionMS,
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("failed to update stage run: %w", err)
	}
	return nil
}

// GetStageRunsForRun returns the stage executions of a run in start order.
func (s *SQLiteStore) GetStageRunsForRun(runID string) ([]*core.StageRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.queries.ListStageRunsForRun(ctx(), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage runs: %w", err)
	}

	out := make([]*core.StageRun, 0, len(rows))
	for _, row := range rows {
		sr, err := convertStageRun(row)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, nil
}

func convertStageRun(row sqlcgen.StageRun) (*core.StageRun, error) {
	startedAt, err := parseTime(row.StartedAt)
	if err != nil {
		return nil, err
	}
	completedAt, err := parseNullTime(row.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &core.StageRun{
		ID:          row.ID,
		RunID:       row.RunID,
		Stage:       core.Stage(row.Stage),
		Status:      core.StageRunStatus(row.Status),
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Error:       derefString(row.Error),
		ExecutionMS: row.ExecutionMs,
	}, nil
}
