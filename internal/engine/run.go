package engine

// run.go - Pipeline state machine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapml/internal/ingest"
	"github.com/leapstack-labs/leapml/internal/trainer"
	"github.com/leapstack-labs/leapml/internal/transform"
	"github.com/leapstack-labs/leapml/internal/validation"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/leapstack-labs/leapml/pkg/source"
)

// step is one transition of the state machine. It consumes the artifacts
// already in the result and stores its own.
type step struct {
	stage core.Stage
	exec  func(ctx context.Context, res *core.RunResult) error
}

// Run executes one pipeline run: Pending -> Ingesting -> Validating ->
// Transforming -> Training -> Complete. The first failing stage moves the
// run to Failed; the returned error is then a *core.StageError naming that
// stage. Artifacts already written are left in place.
//
// The result is non-nil whenever the run was recorded, including failures.
func (e *Engine) Run(ctx context.Context) (*core.RunResult, error) {
	started := e.now()
	layout, err := e.reserveLayout(started)
	if err != nil {
		return nil, err
	}

	e.logger.Info("starting run", "namespace", e.cfg.Namespace, "artifact_dir", layout.Root)

	run, err := e.store.CreateRun(e.cfg.Namespace, layout.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	e.logger.Debug("created run", "run_id", run.ID)

	res := &core.RunResult{
		RunID:       run.ID,
		Namespace:   e.cfg.Namespace,
		State:       core.StatePending,
		ArtifactDir: layout.Root,
		StartedAt:   started,
	}

	runErr := e.execute(ctx, res, e.steps(layout, run.ID))
	res.Duration = time.Since(started)

	if runErr != nil {
		res.State = core.StateFailed
		res.Err = runErr
		res.FailedStage, _ = core.StageOf(runErr)
		e.logger.Error("run failed", "run_id", run.ID, "stage", string(res.FailedStage), "error", runErr.Error())
		if err := e.store.CompleteRun(run.ID, core.RunStatusFailed, res.FailedStage, runErr.Error()); err != nil {
			e.logger.Warn("failed to record run completion", "run_id", run.ID, "error", err.Error())
		}
		return res, runErr
	}

	res.State = core.StateComplete
	e.logger.Info("run completed", "run_id", run.ID, "best_model", res.Model.BestModel,
		"test_f1", res.Model.TestMetrics.F1Score, "duration", res.Duration.String())
	if err := e.store.CompleteRun(run.ID, core.RunStatusCompleted, "", ""); err != nil {
		e.logger.Warn("failed to record run completion", "run_id", run.ID, "error", err.Error())
	}
	return res, nil
}

// execute walks the steps in order and stops at the first failure.
// Cancellation is honoured at stage boundaries.
func (e *Engine) execute(ctx context.Context, res *core.RunResult, steps []step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return core.NewStageError(s.stage, err, nil)
		}

		res.State = core.StateFor(s.stage)
		e.logger.Debug("stage started", "run_id", res.RunID, "stage", string(s.stage))

		sr := &core.StageRun{RunID: res.RunID, Stage: s.stage, Status: core.StageRunStatusRunning}
		if err := e.store.RecordStageRun(sr); err != nil {
			e.logger.Warn("failed to record stage run", "stage", string(s.stage), "error", err.Error())
		}

		start := time.Now()
		err := s.exec(ctx, res)
		ms := time.Since(start).Milliseconds()

		if err != nil {
			err = asStageError(s.stage, err)
			e.updateStageRun(sr, core.StageRunStatusFailed, err.Error(), ms)
			return err
		}
		e.updateStageRun(sr, core.StageRunStatusSuccess, "", ms)
		e.logger.Info("stage completed", "run_id", res.RunID, "stage", string(s.stage), "ms", ms)
	}
	return nil
}

func (e *Engine) updateStageRun(sr *core.StageRun, status core.StageRunStatus, errMsg string, ms int64) {
	if sr.ID == "" {
		return
	}
	if err := e.store.UpdateStageRun(sr.ID, status, errMsg, ms); err != nil {
		e.logger.Warn("failed to update stage run", "stage", string(sr.Stage), "error", err.Error())
	}
}

// steps builds the four transitions for one run.
func (e *Engine) steps(layout core.Layout, runID string) []step {
	return []step{
		{core.StageIngestion, func(ctx context.Context, res *core.RunResult) error {
			a, err := e.ingest(ctx, layout)
			if err != nil {
				return err
			}
			res.Ingestion = &a
			return nil
		}},
		{core.StageValidation, func(ctx context.Context, res *core.RunResult) error {
			v := validation.New(e.cfg.Validation, validation.Paths{
				ValidTrain:  layout.ValidTrain(),
				ValidTest:   layout.ValidTest(),
				DriftReport: layout.DriftReport(),
			}, e.logger)
			a, err := v.Validate(ctx, *res.Ingestion)
			if err != nil {
				return err
			}
			res.Validation = &a
			return nil
		}},
		{core.StageTransformation, func(ctx context.Context, res *core.RunResult) error {
			t := transform.New(e.cfg.Transform, transform.Paths{
				Object: layout.TransformedObject(),
				Train:  layout.TransformedTrain(),
				Test:   layout.TransformedTest(),
			}, e.logger)
			a, err := t.Transform(ctx, *res.Validation)
			if err != nil {
				return err
			}
			res.Transformation = &a
			return nil
		}},
		{core.StageTraining, func(ctx context.Context, res *core.RunResult) error {
			cfg := e.cfg.Trainer
			if cfg.RunName == "" {
				cfg.RunName = runID
			}
			s := trainer.NewSelector(e.candidates, e.sink, cfg, trainer.Paths{
				TrainedModel:      layout.TrainedModel(),
				FinalModel:        layout.FinalModel(),
				FinalPreprocessor: layout.FinalPreprocessor(),
			}, e.logger)
			a, err := s.SelectBest(ctx, *res.Transformation)
			if err != nil {
				return err
			}
			res.Model = &a
			return nil
		}},
	}
}

// ingest connects the source, runs the ingestor and closes the source.
func (e *Engine) ingest(ctx context.Context, layout core.Layout) (core.IngestionArtifact, error) {
	src := e.cfg.SourceOverride
	if src == nil {
		var err error
		src, err = source.New(e.cfg.Source, e.logger)
		if err != nil {
			return core.IngestionArtifact{}, core.NewStageError(core.StageIngestion, core.ErrInvalidConfig, err)
		}
	}

	if err := src.Connect(ctx, e.cfg.Source); err != nil {
		return core.IngestionArtifact{}, core.NewStageError(core.StageIngestion, core.ErrSourceUnavailable, err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			e.logger.Warn("failed to close source", "error", err.Error())
		}
	}()

	in := ingest.New(src, e.cfg.Ingest, ingest.Paths{
		FeatureStore: layout.FeatureStore(),
		Train:        layout.Train(),
		Test:         layout.Test(),
	}, e.logger)
	return in.Ingest(ctx)
}

// asStageError makes sure every failure names its stage.
func asStageError(stage core.Stage, err error) error {
	var se *core.StageError
	if errors.As(err, &se) {
		return err
	}
	return core.NewStageError(stage, err, nil)
}
