package commands

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapml/internal/cli/output"
	"github.com/leapstack-labs/leapml/internal/validation"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/spf13/cobra"
)

// DriftOptions holds options for the drift command.
type DriftOptions struct {
	RunID string
}

// NewDriftCommand creates the drift command.
func NewDriftCommand() *cobra.Command {
	opts := &DriftOptions{}

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Show the drift report of a run",
		Long: `Show the per-column Kolmogorov-Smirnov drift report written during
validation. Defaults to the latest run of the configured namespace. The
report is written even when validation fails, so failed runs can be
inspected too.`,
		Example: `  # Latest run of the namespace
  leapml drift

  # A specific run
  leapml drift --run 3f2a...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDrift(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "Run ID (default: latest run of the namespace)")

	return cmd
}

func runDrift(cmd *cobra.Command, opts *DriftOptions) error {
	cc := NewCommandContext(cmd)
	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var run *core.Run
	if opts.RunID != "" {
		run, err = store.GetRun(opts.RunID)
	} else {
		run, err = store.GetLatestRun(cc.Cfg.Namespace)
	}
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no runs recorded for namespace %q", cc.Cfg.Namespace)
	}

	path := core.Layout{Root: run.ArtifactDir}.DriftReport()
	report, err := validation.ReadReport(path)
	if err != nil {
		return fmt.Errorf("run %s has no drift report: %w", run.ID, err)
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(report)
	}

	r.Header(1, "Drift report for run "+run.ID)
	names := make([]string, 0, len(report.Columns))
	for name := range report.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		c := report.Columns[name]
		status := "ok"
		switch {
		case c.Skipped:
			status = "skipped"
		case c.Drifted:
			status = "drifted"
		}
		rows = append(rows, []string{name, fmt.Sprintf("%.4f", c.Statistic), fmt.Sprintf("%.4g", c.PValue), status})
	}
	r.Table([]string{"column", "statistic", "p-value", "status"}, rows)

	if report.DriftDetected {
		r.Warning(fmt.Sprintf("drift detected at p < %.2f in: %v", report.Threshold, report.DriftedColumns()))
	} else {
		r.Success(fmt.Sprintf("No drift at p < %.2f", report.Threshold))
	}
	return nil
}
