package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapml/internal/state/sqlcgen"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// CreateRun creates a new pipeline run.
func (s *SQLiteStore) CreateRun(namespace, artifactDir string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:          generateID(),
		Namespace:   namespace,
		Status:      core.RunStatusRunning,
		ArtifactDir: artifactDir,
		StartedAt:   time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("namespace", namespace))

	err := s.queries.CreateRun(ctx(), sqlcgen.CreateRunParams{
		ID:          run.ID,
		Namespace:   run.Namespace,
		Status:      string(run.Status),
		ArtifactDir: run.ArtifactDir,
		StartedAt:   formatTime(run.StartedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row, err := s.queries.GetRun(ctx(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return convertRun(row)
}

// GetLatestRun retrieves the most recent run of a namespace, or nil if
// there is none.
func (s *SQLiteStore) GetLatestRun(namespace string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row, err := s.queries.GetLatestRun(ctx(), namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // No runs found, return nil without error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return convertRun(row)
}

// CompleteRun marks a run as finished. stage names the failed stage and is
// empty for successful runs.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, stage core.Stage, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	completedAt := formatTime(time.Now())
	n, err := s.queries.CompleteRun(ctx(), sqlcgen.CompleteRunParams{
		Status:      string(status),
		CompletedAt: &completedAt,
		FailedStage: optString(string(stage)),
		Error:       optString(errMsg),
		ID:          id,
	})
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.queries.ListRuns(ctx(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*core.Run, 0, len(rows))
	for _, row := range rows {
		run, err := convertRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// convertRun converts a sqlcgen.Run to a core.Run.
func convertRun(row sqlcgen.Run) (*core.Run, error) {
	startedAt, err := parseTime(row.StartedAt)
	if err != nil {
		return nil, err
	}
	completedAt, err := parseNullTime(row.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &core.Run{
		ID:          row.ID,
		Namespace:   row.Namespace,
		Status:      core.RunStatus(row.Status),
		ArtifactDir: row.ArtifactDir,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		FailedStage: core.Stage(derefString(row.FailedStage)),
		Error:       derefString(row.Error),
	}, nil
}
