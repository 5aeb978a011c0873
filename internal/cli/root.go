// Package cli provides the command-line interface for leapml.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapml/internal/cli/commands"
	"github.com/leapstack-labs/leapml/internal/cli/config"
	"github.com/spf13/cobra"

	// Source registrations.
	_ "github.com/leapstack-labs/leapml/pkg/sources/duckdb"
	_ "github.com/leapstack-labs/leapml/pkg/sources/jsonl"
	_ "github.com/leapstack-labs/leapml/pkg/sources/mongo"
	_ "github.com/leapstack-labs/leapml/pkg/sources/postgres"
	_ "github.com/leapstack-labs/leapml/pkg/sources/redis"
	_ "github.com/leapstack-labs/leapml/pkg/sources/sqlite"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leapml",
		Short: "leapml - batch training pipeline",
		Long: `leapml trains a binary classifier from a document collection.

A run ingests the collection into a feature store, splits it, validates both
splits against a schema and tests them for drift, fits a preprocessor on the
train split, then grid-searches every configured model family and persists
the model with the best test F1 score. Runs are tracked in a local state
database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
` + fmt.Sprintf("commit %s, built %s\n", GitCommit, BuildDate))

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./leapml.yaml)")
	pf.String("project-dir", "", "Project root (default: directory of the config file)")
	pf.String("namespace", "", "Namespace runs are recorded under")
	pf.String("state", "", "Path to state database")
	pf.String("artifacts-dir", "", "Directory for per-run artifacts")
	pf.String("final-dir", "", "Directory for the served model and preprocessor")
	pf.String("schema", "", "Path to the schema file")
	pf.String("source-type", "", "Source type (mongo|postgres|duckdb|sqlite|redis|jsonl)")
	pf.String("source-uri", "", "Source connection URI or path")
	pf.String("database", "", "Source database")
	pf.String("collection", "", "Source collection or table")
	pf.Float64("test-ratio", 0, "Fraction of rows held out for testing")
	pf.Int64("seed", 0, "Seed for the split and model search")
	pf.Bool("fail-on-drift", false, "Fail validation when drift is detected")
	pf.Int("folds", 0, "Cross-validation folds for the grid search")
	pf.Int("parallelism", 0, "Candidates searched concurrently")
	pf.String("push-url", "", "Prometheus push gateway URL")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("source-type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mongo", "postgres", "duckdb", "sqlite", "redis", "jsonl"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewPredictCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewDriftCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger returns a text logger on w. Pipeline progress is logged at info
// level, which only shows with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapml.

To load completions:

Bash:
  $ source <(leapml completion bash)

Zsh:
  $ leapml completion zsh > "${fpath[1]}/_leapml"

Fish:
  $ leapml completion fish | source

PowerShell:
  PS> leapml completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
