package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/leapstack-labs/leapml/internal/ml"
	"github.com/leapstack-labs/leapml/internal/transform"
	"github.com/leapstack-labs/leapml/pkg/core"
	"golang.org/x/sync/errgroup"
)

// Split names used in sink reports.
const (
	SplitTrain = "train"
	SplitTest  = "test"
)

// Config controls the search.
type Config struct {
	// RunName labels sink reports.
	RunName string
	// Folds for cross-validation on the train split; below 2 uses a holdout.
	Folds int
	// Parallelism bounds concurrent fits; 0 means GOMAXPROCS.
	Parallelism int
	Seed        int64
}

// Paths are the files the selector writes.
type Paths struct {
	// TrainedModel receives the combined preprocessor + model estimator.
	TrainedModel string
	// FinalModel and FinalPreprocessor receive the serving copies.
	FinalModel        string
	FinalPreprocessor string
}

// Selector runs the model selection stage.
type Selector struct {
	candidates []Candidate
	sink       core.MetricsSink
	cfg        Config
	paths      Paths
	logger     *slog.Logger
}

// NewSelector creates a selector over candidates in registry order. A nil
// sink discards reports. If logger is nil, a discard logger is used.
func NewSelector(candidates []Candidate, sink core.MetricsSink, cfg Config, paths Paths, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	return &Selector{candidates: candidates, sink: sink, cfg: cfg, paths: paths, logger: logger}
}

// familyResult is the search outcome of one candidate.
type familyResult struct {
	core.CandidateResult
	model ml.Classifier
}

// SelectBest searches every candidate, picks the model with the strictly
// highest test F1 (earliest candidate on ties), reports its metrics to the
// sink and persists it.
func (s *Selector) SelectBest(ctx context.Context, in core.TransformationArtifact) (core.ModelTrainerArtifact, error) {
	start := time.Now()

	train, err := transform.LoadMatrix(in.TransformedTrainPath)
	if err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrArtifactMissing, err)
	}
	test, err := transform.LoadMatrix(in.TransformedTestPath)
	if err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrArtifactMissing, err)
	}
	pre, err := transform.LoadPreprocessor(in.TransformedObjectPath)
	if err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrArtifactMissing, err)
	}
	if len(s.candidates) == 0 {
		return core.ModelTrainerArtifact{}, fail(core.ErrNoViableModel, errors.New("no candidates registered"))
	}

	results := s.search(ctx, train, test)
	if err := ctx.Err(); err != nil {
		return core.ModelTrainerArtifact{}, core.NewStageError(core.StageTraining, err, nil)
	}

	best, ok := pickBest(results)
	if !ok {
		return core.ModelTrainerArtifact{}, fail(core.ErrNoViableModel, summarizeFailures(results))
	}
	winner := results[best]

	trainMetrics, err := ml.Score(winner.model, train.Features, train.Label)
	if err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrNoViableModel, err)
	}
	testMetrics, err := ml.Score(winner.model, test.Features, test.Label)
	if err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrNoViableModel, err)
	}

	s.logger.Info("selected model",
		slog.String("model", winner.Name),
		slog.Any("params", winner.Params),
		slog.Float64("train_f1", trainMetrics.F1Score),
		slog.Float64("test_f1", testMetrics.F1Score))

	s.report(ctx, winner, trainMetrics, testMetrics)

	est, err := ml.NewEstimator(pre, winner.model)
	if err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrNoViableModel, err)
	}
	if err := est.Save(s.paths.TrainedModel); err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrArtifactWrite, err)
	}
	if err := ml.SaveModel(s.paths.FinalModel, winner.model); err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrArtifactWrite, err)
	}
	if err := core.WriteGob(s.paths.FinalPreprocessor, pre); err != nil {
		return core.ModelTrainerArtifact{}, fail(core.ErrArtifactWrite, err)
	}

	candidates := make([]core.CandidateResult, len(results))
	for i, r := range results {
		candidates[i] = r.CandidateResult
	}

	s.logger.Info("model selection complete",
		slog.Int("families", len(results)),
		slog.Duration("duration", time.Since(start)))

	return core.ModelTrainerArtifact{
		TrainedModelPath: s.paths.TrainedModel,
		ModelPath:        s.paths.FinalModel,
		PreprocessorPath: s.paths.FinalPreprocessor,
		BestModel:        winner.Name,
		BestParams:       winner.Params,
		TrainMetrics:     trainMetrics,
		TestMetrics:      testMetrics,
		Candidates:       candidates,
	}, nil
}

// search evaluates every grid combination of every candidate concurrently,
// then refits each family's best combination on the full train split and
// scores it on the test split. Failures are recorded per family.
func (s *Selector) search(ctx context.Context, train, test core.FeatureMatrix) []familyResult {
	type job struct {
		family int
		combo  int
	}

	grids := make([][]Params, len(s.candidates))
	scores := make([][]float64, len(s.candidates))
	errs := make([][]error, len(s.candidates))
	var jobs []job
	for f, c := range s.candidates {
		grids[f] = Expand(c.Grid())
		scores[f] = make([]float64, len(grids[f]))
		errs[f] = make([]error, len(grids[f]))
		for i := range grids[f] {
			jobs = append(jobs, job{f, i})
		}
	}

	folds := makeFolds(train.Rows(), s.cfg.Folds, s.cfg.Seed)

	// Job errors are kept per combination; the group never fails so one bad
	// combination cannot cancel the others.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[j.family][j.combo] = err
				return nil
			}
			scores[j.family][j.combo], errs[j.family][j.combo] =
				crossValidate(s.candidates[j.family], grids[j.family][j.combo], train, folds)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]familyResult, len(s.candidates))
	rg, rctx := errgroup.WithContext(ctx)
	rg.SetLimit(s.cfg.Parallelism)
	for f, c := range s.candidates {
		rg.Go(func() error {
			results[f] = s.refit(rctx, c, grids[f], scores[f], errs[f], train, test)
			return nil
		})
	}
	_ = rg.Wait()
	return results
}

func (s *Selector) refit(ctx context.Context, c Candidate, grid []Params, scores []float64, errs []error,
	train, test core.FeatureMatrix) familyResult {
	res := familyResult{CandidateResult: core.CandidateResult{Name: c.Name()}}

	bestCombo := -1
	var lastErr error
	for i := range grid {
		if errs[i] != nil {
			lastErr = errs[i]
			continue
		}
		res.Evaluated++
		if bestCombo < 0 || scores[i] > scores[bestCombo] {
			bestCombo = i
		}
	}
	if bestCombo < 0 {
		res.Error = fmt.Sprintf("all %d parameter combinations failed: %v", len(grid), lastErr)
		s.logger.Warn("model family failed", slog.String("model", c.Name()), slog.String("error", res.Error))
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Params = grid[bestCombo]
	res.SearchScore = scores[bestCombo]

	model, err := c.Fit(res.Params, train)
	if err != nil {
		res.Error = fmt.Sprintf("refit failed: %v", err)
		s.logger.Warn("model family failed", slog.String("model", c.Name()), slog.String("error", res.Error))
		return res
	}
	metrics, err := c.Score(model, test)
	if err != nil {
		res.Error = fmt.Sprintf("scoring failed: %v", err)
		s.logger.Warn("model family failed", slog.String("model", c.Name()), slog.String("error", res.Error))
		return res
	}

	res.model = model
	res.TestMetrics = metrics
	s.logger.Debug("model family evaluated",
		slog.String("model", c.Name()),
		slog.Any("params", res.Params),
		slog.Float64("search_score", res.SearchScore),
		slog.Float64("test_f1", metrics.F1Score))
	return res
}

// crossValidate returns the mean F1 of params over folds.
func crossValidate(c Candidate, params Params, data core.FeatureMatrix, folds []fold) (float64, error) {
	total := 0.0
	for _, f := range folds {
		model, err := c.Fit(params, data.Subset(f.train))
		if err != nil {
			return 0, err
		}
		m, err := c.Score(model, data.Subset(f.valid))
		if err != nil {
			return 0, err
		}
		total += m.F1Score
	}
	return total / float64(len(folds)), nil
}

// pickBest returns the index of the successful result with the strictly
// highest test F1; the earliest wins ties.
func pickBest(results []familyResult) (int, bool) {
	best := -1
	for i, r := range results {
		if r.Failed() || r.model == nil {
			continue
		}
		if best < 0 || r.TestMetrics.F1Score > results[best].TestMetrics.F1Score {
			best = i
		}
	}
	return best, best >= 0
}

func (s *Selector) report(ctx context.Context, winner familyResult, trainM, testM core.ClassificationMetrics) {
	if s.sink == nil {
		return
	}
	blob, err := ml.MarshalModel(winner.model)
	if err != nil {
		s.logger.Warn("failed to encode model for metrics sink", slog.String("error", err.Error()))
	}
	for _, r := range []core.MetricReport{
		{RunName: s.cfg.RunName, Split: SplitTrain, ModelName: winner.Name,
			F1Score: trainM.F1Score, Precision: trainM.Precision, Recall: trainM.Recall, Artifact: blob},
		{RunName: s.cfg.RunName, Split: SplitTest, ModelName: winner.Name,
			F1Score: testM.F1Score, Precision: testM.Precision, Recall: testM.Recall, Artifact: blob},
	} {
		if err := s.sink.Report(ctx, r); err != nil {
			if !errors.Is(err, core.ErrSink) {
				err = fmt.Errorf("%w: %w", core.ErrSink, err)
			}
			s.logger.Warn("metrics sink failed",
				slog.String("split", r.Split),
				slog.String("error", err.Error()))
		}
	}
}

func summarizeFailures(results []familyResult) error {
	msgs := make([]string, 0, len(results))
	for _, r := range results {
		msgs = append(msgs, fmt.Sprintf("%s: %s", r.Name, r.Error))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fail(kind, cause error) error {
	return core.NewStageError(core.StageTraining, kind, cause)
}
