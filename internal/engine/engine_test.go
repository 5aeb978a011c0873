package engine

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapml/internal/ingest"
	"github.com/leapstack-labs/leapml/internal/ml"
	"github.com/leapstack-labs/leapml/internal/testutil"
	"github.com/leapstack-labs/leapml/internal/trainer"
	"github.com/leapstack-labs/leapml/internal/validation"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

func testSchema(columns ...string) validation.SchemaSpec {
	s := validation.SchemaSpec{Version: "1", Target: testutil.LabelColumn}
	for _, c := range columns {
		s.Columns = append(s.Columns, validation.Column{Name: c, Type: "float"})
	}
	return s
}

func testConfig(t *testing.T, src *testutil.MemorySource) Config {
	t.Helper()
	dir := t.TempDir()

	cands, err := trainer.BuildCandidates([]trainer.FamilyConfig{
		{Name: trainer.DecisionTree, Grid: map[string]any{"max_depth": []any{2, 4}}},
		{Name: trainer.LogisticRegression},
		{Name: trainer.GaussianNB},
	}, 42)
	require.NoError(t, err)

	return Config{
		Namespace:      "phishing",
		SourceOverride: src,
		ArtifactsDir:   filepath.Join(dir, "artifacts"),
		FinalDir:       filepath.Join(dir, "final_model"),
		Ingest:         ingest.Config{Database: "db", Collection: "urls", TestRatio: 0.2, Seed: 42},
		Validation:     validation.Config{Schema: testSchema(testutil.SchemaColumns()...)},
		Trainer:        trainer.Config{Folds: 3, Parallelism: 2},
		Candidates:     cands,
		Logger:         testutil.NewTestLogger(t),
		Now:            func() time.Time { return fixedNow },
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_EndToEnd(t *testing.T) {
	src := &testutil.MemorySource{Docs: testutil.SyntheticDocuments(100, 7)}
	e := newTestEngine(t, testConfig(t, src))

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, core.StateComplete, res.State)
	assert.Empty(t, res.FailedStage)
	assert.True(t, src.Closed)
	assert.Equal(t, filepath.Join(e.cfg.ArtifactsDir, "phishing", "03_09_2024_14_05_00"), res.ArtifactDir)
	assert.Equal(t, filepath.Join(e.cfg.FinalDir, "phishing", "model.gob"), res.Model.ModelPath)

	require.NotNil(t, res.Ingestion)
	assert.Equal(t, 100, res.Ingestion.Rows)
	assert.Equal(t, 20, res.Ingestion.TestRows)
	require.NotNil(t, res.Validation)
	require.NotNil(t, res.Transformation)
	require.NotNil(t, res.Model)

	f1 := res.Model.TestMetrics.F1Score
	assert.False(t, math.IsNaN(f1) || math.IsInf(f1, 0))
	assert.GreaterOrEqual(t, f1, 0.0)
	assert.LessOrEqual(t, f1, 1.0)

	est, err := ml.LoadEstimator(res.Model.TrainedModelPath)
	require.NoError(t, err)
	assert.Equal(t, testutil.FeatureColumns, est.Columns())

	_, err = ml.LoadServing(res.Model.PreprocessorPath, res.Model.ModelPath)
	require.NoError(t, err)

	store := e.GetStateStore()
	run, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, run.Status)
	assert.Equal(t, "phishing", run.Namespace)

	stages, err := store.GetStageRunsForRun(res.RunID)
	require.NoError(t, err)
	require.Len(t, stages, len(core.Stages))
	for i, sr := range stages {
		assert.Equal(t, core.Stages[i], sr.Stage)
		assert.Equal(t, core.StageRunStatusSuccess, sr.Status)
	}

	metrics, err := store.ListMetrics(res.RunID)
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Equal(t, trainer.SplitTrain, metrics[0].Split)
	assert.Equal(t, trainer.SplitTest, metrics[1].Split)
	assert.Equal(t, res.Model.BestModel, metrics[1].ModelName)
}

func TestEngine_SourceEmptyStopsBeforeValidation(t *testing.T) {
	src := &testutil.MemorySource{}
	e := newTestEngine(t, testConfig(t, src))

	res, err := e.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSourceEmpty)

	require.NotNil(t, res)
	assert.Equal(t, core.StateFailed, res.State)
	assert.Equal(t, core.StageIngestion, res.FailedStage)
	assert.Nil(t, res.Ingestion)
	assert.Nil(t, res.Validation)
	assert.True(t, src.Closed)

	layout := e.Layout(fixedNow)
	for _, p := range []string{
		layout.ValidTrain(), layout.DriftReport(), layout.TransformedObject(),
		layout.TransformedTrain(), layout.TrainedModel(), layout.FinalModel(),
	} {
		assert.NoFileExists(t, p)
	}

	run, err := e.GetStateStore().GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, run.Status)
	assert.Equal(t, core.StageIngestion, run.FailedStage)

	stages, err := e.GetStateStore().GetStageRunsForRun(res.RunID)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, core.StageRunStatusFailed, stages[0].Status)
}

func TestEngine_FailedStages(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config, *testutil.MemorySource)
		kind      error
		stage     core.Stage
		artifacts func(core.Layout) []string // must exist after the failure
		absent    func(core.Layout) []string // must not exist after the failure
	}{
		{
			name:   "source unavailable",
			mutate: func(_ *Config, src *testutil.MemorySource) { src.FetchErr = errors.New("auth failed") },
			kind:   core.ErrSourceUnavailable,
			stage:  core.StageIngestion,
		},
		{
			name: "unknown source type",
			mutate: func(cfg *Config, _ *testutil.MemorySource) {
				cfg.SourceOverride = nil
				cfg.Source.Type = "carrier_pigeon"
			},
			kind:  core.ErrInvalidConfig,
			stage: core.StageIngestion,
		},
		{
			name: "renamed column",
			mutate: func(cfg *Config, _ *testutil.MemorySource) {
				cols := testutil.SchemaColumns()
				cols[0] = "has_ip"
				cfg.Validation.Schema = testSchema(cols...)
			},
			kind:  core.ErrSchemaMismatch,
			stage: core.StageValidation,
			artifacts: func(l core.Layout) []string {
				return []string{l.Train(), l.Test()}
			},
			absent: func(l core.Layout) []string {
				return []string{l.DriftReport(), l.ValidTrain(), l.TransformedObject()}
			},
		},
		{
			name: "no viable model",
			mutate: func(cfg *Config, _ *testutil.MemorySource) {
				cands, err := trainer.BuildCandidates([]trainer.FamilyConfig{
					{Name: trainer.KNN, Grid: map[string]any{"n_neighbors": []any{0}}},
				}, 1)
				if err != nil {
					panic(err)
				}
				cfg.Candidates = cands
			},
			kind:  core.ErrNoViableModel,
			stage: core.StageTraining,
			artifacts: func(l core.Layout) []string {
				return []string{l.ValidTrain(), l.TransformedObject(), l.TransformedTest()}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &testutil.MemorySource{Docs: testutil.SyntheticDocuments(60, 3)}
			cfg := testConfig(t, src)
			tt.mutate(&cfg, src)
			e := newTestEngine(t, cfg)

			res, err := e.Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			stage, ok := core.StageOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.stage, stage)
			assert.Equal(t, core.StateFailed, res.State)
			assert.Equal(t, tt.stage, res.FailedStage)
			assert.Nil(t, res.Model)

			if tt.artifacts != nil {
				for _, p := range tt.artifacts(e.Layout(fixedNow)) {
					assert.FileExists(t, p)
				}
			}
			if tt.absent != nil {
				for _, p := range tt.absent(e.Layout(fixedNow)) {
					assert.NoFileExists(t, p)
				}
			}
		})
	}
}

func TestEngine_CancelledBeforeStart(t *testing.T) {
	src := &testutil.MemorySource{Docs: testutil.SyntheticDocuments(20, 1)}
	e := newTestEngine(t, testConfig(t, src))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.StageIngestion, res.FailedStage)
	assert.Zero(t, src.Fetches)
}

func TestEngine_DefaultsAndFileStore(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.db")

	e, err := New(Config{
		StatePath:  statePath,
		Source:     core.SourceConfig{Database: "db", Collection: "c"},
		Validation: validation.Config{Schema: testSchema("a", "b")},
	})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, DefaultNamespace, e.Namespace())
	assert.Equal(t, "db", e.cfg.Ingest.Database)
	assert.Equal(t, "c", e.cfg.Ingest.Collection)
	assert.Equal(t, testutil.LabelColumn, e.cfg.Transform.Target)
	assert.Len(t, e.candidates, len(trainer.FamilyNames()))

	_, err = os.Stat(statePath)
	assert.NoError(t, err)
}

func TestEngine_NamespacesDoNotShareArtifacts(t *testing.T) {
	dir := t.TempDir()
	results := map[string]*core.RunResult{}
	for i, ns := range []string{"alpha", "beta"} {
		src := &testutil.MemorySource{Docs: testutil.SyntheticDocuments(60, int64(10+i))}
		cfg := testConfig(t, src)
		cfg.Namespace = ns
		cfg.ArtifactsDir = filepath.Join(dir, "artifacts")
		cfg.FinalDir = filepath.Join(dir, "final_model")
		e := newTestEngine(t, cfg)

		res, err := e.Run(context.Background())
		require.NoError(t, err)
		results[ns] = res
	}

	alpha, beta := results["alpha"], results["beta"]
	assert.Equal(t, filepath.Join(dir, "artifacts", "alpha", "03_09_2024_14_05_00"), alpha.ArtifactDir)
	assert.Equal(t, filepath.Join(dir, "artifacts", "beta", "03_09_2024_14_05_00"), beta.ArtifactDir)
	assert.NotEqual(t, alpha.Ingestion.FeatureStorePath, beta.Ingestion.FeatureStorePath)
	assert.NotEqual(t, alpha.Model.ModelPath, beta.Model.ModelPath)
	assert.NotEqual(t, alpha.Model.TrainedModelPath, beta.Model.TrainedModelPath)

	for _, res := range results {
		assert.FileExists(t, res.Model.ModelPath)
		assert.FileExists(t, res.Model.PreprocessorPath)
		assert.FileExists(t, res.Ingestion.FeatureStorePath)
	}
}

func TestEngine_SameSecondRunsKeepEarlierArtifacts(t *testing.T) {
	failing := &testutil.MemorySource{Docs: testutil.SyntheticDocuments(60, 3)}
	cfg := testConfig(t, failing)
	cfg.Validation.Schema = testSchema("a", "b", "c", "d", "e")
	e := newTestEngine(t, cfg)

	first, err := e.Run(context.Background())
	require.ErrorIs(t, err, core.ErrSchemaMismatch)
	before, err := os.ReadFile(core.Layout{Root: first.ArtifactDir}.Train())
	require.NoError(t, err)

	cfg.SourceOverride = &testutil.MemorySource{Docs: testutil.SyntheticDocuments(80, 4)}
	cfg.Validation.Schema = testSchema(testutil.SchemaColumns()...)
	cfg.Store = e.GetStateStore()
	second, err := newTestEngine(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, e.Layout(fixedNow).Root, first.ArtifactDir)
	assert.Equal(t, e.Layout(fixedNow).Attempt(1).Root, second.ArtifactDir)

	after, err := os.ReadFile(core.Layout{Root: first.ArtifactDir}.Train())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	runs, err := e.GetStateStore().ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotEqual(t, runs[0].ArtifactDir, runs[1].ArtifactDir)
}

func TestEngine_RejectsPathNamespace(t *testing.T) {
	for _, ns := range []string{"../escape", "a/b", ".", ".hidden"} {
		cfg := testConfig(t, &testutil.MemorySource{})
		cfg.Namespace = ns
		_, err := New(cfg)
		assert.ErrorIs(t, err, core.ErrInvalidConfig, ns)
	}
}
