package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapml/internal/cli/output"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/spf13/cobra"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List pipeline runs or show one run",
		Long: `Without arguments, list the most recent runs recorded in the state database.
With a run ID, show its stage executions and the metrics reported for the
selected model.`,
		Example: `  # Recent runs
  leapml runs --limit 5

  # One run in detail, as JSON
  leapml runs 3f2a... -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRun(cmd, args[0])
			}
			return runListRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list")

	return cmd
}

func runListRuns(cmd *cobra.Command, opts *RunsOptions) error {
	cc := NewCommandContext(cmd)
	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*core.Run{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Muted("No runs recorded yet. Start one with: leapml run")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Namespace,
			string(run.Status),
			string(run.FailedStage),
			run.StartedAt.Local().Format(time.DateTime),
			runDuration(run),
		})
	}
	r.Table([]string{"id", "namespace", "status", "failed stage", "started", "duration"}, rows)
	return nil
}

// runDetail is the JSON shape of one run.
type runDetail struct {
	*core.Run
	Stages  []*core.StageRun       `json:"stages"`
	Metrics []*core.TrackedMetrics `json:"metrics"`
}

func runShowRun(cmd *cobra.Command, id string) error {
	cc := NewCommandContext(cmd)
	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	stages, err := store.GetStageRunsForRun(id)
	if err != nil {
		return err
	}
	metrics, err := store.ListMetrics(id)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runDetail{Run: run, Stages: stages, Metrics: metrics})
	}

	r.Header(1, "Run "+run.ID)
	r.Printf("Namespace: %s\nStatus: %s\nArtifacts: %s\nDuration: %s\n\n",
		run.Namespace, run.Status, run.ArtifactDir, runDuration(run))
	if run.Error != "" {
		r.Error(run.Error)
	}

	r.Header(2, "Stages")
	for _, sr := range stages {
		detail := fmt.Sprintf("%dms", sr.ExecutionMS)
		if sr.Error != "" {
			detail = sr.Error
		}
		r.StatusLine(string(sr.Stage), string(sr.Status), detail)
	}

	if len(metrics) > 0 {
		r.Println()
		r.Header(2, "Metrics")
		rows := make([][]string, 0, len(metrics))
		for _, m := range metrics {
			rows = append(rows, []string{
				m.Split, m.ModelName,
				fmt.Sprintf("%.4f", m.F1Score),
				fmt.Sprintf("%.4f", m.Precision),
				fmt.Sprintf("%.4f", m.Recall),
			})
		}
		r.Table([]string{"split", "model", "f1", "precision", "recall"}, rows)
	}
	return nil
}

func runDuration(run *core.Run) string {
	if run.CompletedAt == nil {
		return "-"
	}
	return run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}
