package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapml/internal/testutil"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"runs", "stage_runs", "tracked_metrics"} {
		rows, err := store.DB().Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}

	// Migrating again is a no-op.
	require.NoError(t, store.Migrate())
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	first := NewSQLiteStore(nil)
	require.NoError(t, first.Open(path))
	run, err := first.CreateRun("default", "artifacts/x")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := NewSQLiteStore(nil)
	require.NoError(t, second.Open(path))
	defer func() { _ = second.Close() }()
	got, err := second.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "artifacts/x", got.ArtifactDir)
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		status core.RunStatus
		stage  core.Stage
		errMsg string
	}{
		{"completed", core.RunStatusCompleted, "", ""},
		{"failed", core.RunStatusFailed, core.StageValidation, "schema mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)

			run, err := store.CreateRun("phishing", "artifacts/01")
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, core.RunStatusRunning, run.Status)

			require.NoError(t, store.CompleteRun(run.ID, tt.status, tt.stage, tt.errMsg))

			got, err := store.GetRun(run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.stage, got.FailedStage)
			assert.Equal(t, tt.errMsg, got.Error)
			assert.Equal(t, "phishing", got.Namespace)
			require.NotNil(t, got.CompletedAt)
			assert.False(t, got.CompletedAt.Before(got.StartedAt))
		})
	}
}

func TestSQLiteStore_RunQueries(t *testing.T) {
	store := setupTestStore(t)

	none, err := store.GetLatestRun("ns")
	require.NoError(t, err)
	assert.Nil(t, none)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.CreateRun("ns", "")
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	_, err = store.CreateRun("other", "")
	require.NoError(t, err)

	latest, err := store.GetLatestRun("ns")
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.ID)

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, "other", runs[0].Namespace)

	_, err = store.GetRun("missing")
	assert.Error(t, err)
	assert.Error(t, store.CompleteRun("missing", core.RunStatusFailed, "", ""))
}

func TestSQLiteStore_StageRuns(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.CreateRun("ns", "")
	require.NoError(t, err)

	for _, stage := range core.Stages[:2] {
		sr := &core.StageRun{RunID: run.ID, Stage: stage, Status: core.StageRunStatusRunning}
		require.NoError(t, store.RecordStageRun(sr))
		require.NotEmpty(t, sr.ID)
		require.NoError(t, store.UpdateStageRun(sr.ID, core.StageRunStatusSuccess, "", 12))
	}

	runs, err := store.GetStageRunsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, core.StageIngestion, runs[0].Stage)
	assert.Equal(t, core.StageValidation, runs[1].Stage)
	assert.Equal(t, core.StageRunStatusSuccess, runs[1].Status)
	assert.Equal(t, int64(12), runs[1].ExecutionMS)
	assert.NotNil(t, runs[1].CompletedAt)
}

func TestSQLiteStore_Metrics(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Report(ctx, core.MetricReport{
		RunName: "r1", Split: "train", ModelName: "knn", F1Score: 0.9, Precision: 0.8, Recall: 0.95, Artifact: []byte{1, 2},
	}))
	require.NoError(t, store.Report(ctx, core.MetricReport{RunName: "r1", Split: "test", ModelName: "knn", F1Score: 0.7}))
	require.NoError(t, store.Report(ctx, core.MetricReport{RunName: "r2", Split: "test"}))

	ms, err := store.ListMetrics("r1")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "train", ms[0].Split)
	assert.InDelta(t, 0.9, ms[0].F1Score, 1e-12)
	assert.Equal(t, []byte{1, 2}, ms[0].Artifact)
	assert.Equal(t, "test", ms[1].Split)
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.CreateRun("ns", "")
	assert.Error(t, err)
	_, err = store.ListRuns(1)
	assert.Error(t, err)
	assert.Error(t, store.RecordStageRun(&core.StageRun{}))
	assert.ErrorIs(t, store.Report(context.Background(), core.MetricReport{}), core.ErrSink)
	assert.NoError(t, store.Close())
}
