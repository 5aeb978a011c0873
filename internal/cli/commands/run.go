package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/leapstack-labs/leapml/internal/cli/output"
	"github.com/leapstack-labs/leapml/internal/engine"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	JSONOutput bool
}

// runOutput is the JSON shape of a finished run.
type runOutput struct {
	*core.RunResult
	Error string `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the training pipeline",
		Long: `Run the full pipeline: ingest the source collection, validate both splits
against the schema and check them for drift, fit the preprocessor, then search
every configured model family and persist the best model.

An interrupt stops the run at the next stage boundary. Artifacts of completed
stages are kept for inspection.`,
		Example: `  # Run with ./leapml.yaml
  leapml run

  # Override the collection and split for one run
  leapml run --collection urls_2024 --test-ratio 0.25

  # Emit the run result as JSON for CI/CD integration
  leapml run --json`,
		Aliases: []string{"train"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output the run result as JSON")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	eng, err := createEngine(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := engine.NewScheduler(cc.Logger)
	job, err := sched.Start(ctx, eng)
	if err != nil {
		return err
	}

	if !opts.JSONOutput && r.EffectiveMode() != output.ModeJSON {
		r.Muted(fmt.Sprintf("Running pipeline for namespace %q...", eng.Namespace()))
	}

	// Wait without ctx: a cancelled run still finishes its current stage.
	res, runErr := job.Wait(context.Background())
	if res == nil {
		return runErr
	}

	if opts.JSONOutput || r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(runOutput{RunResult: res, Error: res.ErrorMessage()}); err != nil {
			return err
		}
		return runErr
	}

	renderRun(r, eng.GetStateStore(), res)
	return runErr
}

// renderRun prints the stages, the candidate table and the outcome of a run.
func renderRun(r *output.Renderer, store core.Store, res *core.RunResult) {
	r.Header(1, "Run "+res.RunID)

	if stages, err := store.GetStageRunsForRun(res.RunID); err == nil {
		for _, sr := range stages {
			detail := fmt.Sprintf("%dms", sr.ExecutionMS)
			if sr.Error != "" {
				detail = sr.Error
			}
			r.StatusLine(string(sr.Stage), string(sr.Status), detail)
		}
	}
	r.Println()

	if res.Validation != nil && res.Validation.DriftDetected {
		r.Warning("drift detected, see " + res.Validation.DriftReportPath)
	}

	if res.Model != nil {
		r.Header(2, "Candidates")
		r.Table([]string{"model", "params", "cv score", "test f1", "status"}, candidateRows(res.Model.Candidates))

		m := res.Model
		r.Success(fmt.Sprintf("Selected %s: test f1 %.4f, precision %.4f, recall %.4f",
			m.BestModel, m.TestMetrics.F1Score, m.TestMetrics.Precision, m.TestMetrics.Recall))
		r.Muted("Model: " + m.TrainedModelPath)
		r.Muted("Serving: " + m.ModelPath)
	}

	if res.State == core.StateFailed {
		r.Error(fmt.Sprintf("Run failed in %s stage: %s", res.FailedStage, res.ErrorMessage()))
		return
	}
	r.Printf("Completed in %s\n", res.Duration.Round(time.Millisecond))
}

func candidateRows(results []core.CandidateResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, c := range results {
		status := "ok"
		f1 := fmt.Sprintf("%.4f", c.TestMetrics.F1Score)
		if c.Failed() {
			status, f1 = "failed: "+c.Error, "-"
		}
		rows = append(rows, []string{
			c.Name,
			formatParams(c.Params),
			fmt.Sprintf("%.4f", c.SearchScore),
			f1,
			status,
		})
	}
	return rows
}

// formatParams renders params as k=v pairs in key order.
func formatParams(p map[string]any) string {
	if len(p) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, " ")
}
