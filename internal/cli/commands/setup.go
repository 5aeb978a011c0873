package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapml/internal/cli/config"
	"github.com/leapstack-labs/leapml/internal/cli/output"
	"github.com/leapstack-labs/leapml/internal/engine"
	"github.com/leapstack-labs/leapml/internal/ingest"
	"github.com/leapstack-labs/leapml/internal/state"
	"github.com/leapstack-labs/leapml/internal/tracking"
	"github.com/leapstack-labs/leapml/internal/trainer"
	"github.com/leapstack-labs/leapml/internal/transform"
	"github.com/leapstack-labs/leapml/internal/validation"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded (commands constructed directly in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return &config.Config{Namespace: config.DefaultNamespace, StatePath: config.DefaultStateFile}
	}
	return cfg
}

// openStore opens the state database read-write, creating its directory.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if err := ensureParentDir(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}

// createEngine builds a pipeline engine from the CLI configuration.
func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if err := cfg.ValidateForRun(); err != nil {
		return nil, err
	}

	schema, err := validation.LoadSchema(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}

	candidates, err := trainer.BuildCandidates(cfg.Trainer.Models, cfg.Ingestion.Seed)
	if err != nil {
		return nil, err
	}

	if err := ensureParentDir(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	// The state store always receives reports; Prometheus only when a
	// push gateway is configured.
	var sink core.MetricsSink
	if cfg.Tracking.Prometheus.PushURL != "" {
		sink = tracking.NewPrometheus(cfg.Tracking.Prometheus, logger)
	}

	return engine.New(engine.Config{
		Namespace:    cfg.Namespace,
		Source:       *cfg.Source,
		ArtifactsDir: cfg.ArtifactsDir,
		FinalDir:     cfg.FinalDir,
		StatePath:    cfg.StatePath,
		Ingest: ingest.Config{
			Database:    cfg.Source.Database,
			Collection:  cfg.Source.Collection,
			DropColumns: cfg.Ingestion.DropColumns,
			TestRatio:   cfg.Ingestion.TestRatio,
			Seed:        cfg.Ingestion.Seed,
		},
		Validation: validation.Config{
			Schema:      schema,
			Threshold:   cfg.Validation.DriftThreshold,
			FailOnDrift: cfg.Validation.FailOnDrift,
		},
		Transform: transform.Config{
			Target:   cfg.Transform.Target,
			LabelMap: cfg.Transform.LabelMap,
			Options:  cfg.Transform.Options,
		},
		Trainer: trainer.Config{
			Folds:       cfg.Trainer.Folds,
			Parallelism: cfg.Trainer.Parallelism,
			Seed:        cfg.Ingestion.Seed,
		},
		Candidates: candidates,
		Sink:       sink,
		Logger:     logger,
	})
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(dir, 0o750)
}
