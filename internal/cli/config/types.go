// Package config provides configuration management for the leapml CLI.
//
// Configuration is layered with koanf: built-in defaults, then leapml.yaml,
// then LEAPML_ environment variables, then explicitly set command-line flags.
package config

import (
	intconfig "github.com/leapstack-labs/leapml/internal/config"
	"github.com/leapstack-labs/leapml/internal/tracking"
	"github.com/leapstack-labs/leapml/internal/trainer"
	"github.com/leapstack-labs/leapml/internal/transform"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// SourceConfig is an alias for the shared source configuration.
type SourceConfig = core.SourceConfig

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`

	Namespace    string `koanf:"namespace"`
	StatePath    string `koanf:"state_path"`
	ArtifactsDir string `koanf:"artifacts_dir"`
	FinalDir     string `koanf:"final_model_dir"`
	SchemaPath   string `koanf:"schema_path"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	Source     *SourceConfig    `koanf:"source"`
	Ingestion  IngestionConfig  `koanf:"ingestion"`
	Validation ValidationConfig `koanf:"validation"`
	Transform  TransformConfig  `koanf:"transform"`
	Trainer    TrainerConfig    `koanf:"trainer"`
	Tracking   TrackingConfig   `koanf:"tracking"`
}

// IngestionConfig controls cleaning and splitting.
type IngestionConfig struct {
	TestRatio   float64  `koanf:"test_ratio"`
	Seed        int64    `koanf:"seed"`
	DropColumns []string `koanf:"drop_columns"`
}

// ValidationConfig controls drift detection.
type ValidationConfig struct {
	DriftThreshold float64 `koanf:"drift_threshold"`
	FailOnDrift    bool    `koanf:"fail_on_drift"`
}

// TransformConfig controls the preprocessor.
type TransformConfig struct {
	// Target overrides the schema's target column.
	Target            string             `koanf:"target"`
	LabelMap          map[string]float64 `koanf:"label_map"`
	transform.Options `koanf:",squash"`
}

// TrainerConfig controls model selection.
type TrainerConfig struct {
	Folds       int                    `koanf:"folds"`
	Parallelism int                    `koanf:"parallelism"`
	Models      []trainer.FamilyConfig `koanf:"models"`
}

// TrackingConfig configures metric sinks besides the state store.
type TrackingConfig struct {
	Prometheus tracking.PrometheusConfig `koanf:"prometheus"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultNamespace = intconfig.DefaultNamespace
	DefaultStateFile = intconfig.DefaultStateFile
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
