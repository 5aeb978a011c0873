package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	intconfig "github.com/leapstack-labs/leapml/internal/config"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envPrefix selects environment variables. A double underscore nests:
// LEAPML_SOURCE__URI -> source.uri.
const envPrefix = "LEAPML_"

// Package-level config file tracking
var (
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// flagKeys maps flag names whose config key differs from the snake_case name.
var flagKeys = map[string]string{
	"state":         "state_path",
	"final-dir":     "final_model_dir",
	"schema":        "schema_path",
	"source-type":   "source.type",
	"source-uri":    "source.uri",
	"database":      "source.database",
	"collection":    "source.collection",
	"test-ratio":    "ingestion.test_ratio",
	"seed":          "ingestion.seed",
	"fail-on-drift": "validation.fail_on_drift",
	"folds":         "trainer.folds",
	"parallelism":   "trainer.parallelism",
	"push-url":      "tracking.prometheus.push_url",
}

// pathFlags are resolved against the working directory rather than the
// project root when given on the command line.
var pathFlags = map[string]string{
	"state":         "state_path",
	"artifacts-dir": "artifacts_dir",
	"final-dir":     "final_model_dir",
	"schema":        "schema_path",
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Explicit --project-dir flag
//  2. Directory of an explicit config file
//  3. Search upward from CWD for leapml.yaml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if flags != nil && flags.Lookup("project-dir") != nil && flags.Changed("project-dir") {
		if projectDir, _ := flags.GetString("project-dir"); projectDir != "" {
			if abs, err := filepath.Abs(projectDir); err == nil {
				return abs
			}
			return filepath.Clean(projectDir)
		}
	}

	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	cwd, _ := os.Getwd()
	if cwd == "" {
		return "."
	}
	if root := intconfig.FindProjectRoot(cwd, maxUpwardSearchLevels); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig clears the loaded configuration. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	projectRoot := inferProjectRoot(cfgFile, flags)

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"namespace":               DefaultNamespace,
		"state_path":              DefaultStateFile,
		"artifacts_dir":           intconfig.DefaultArtifactsDir,
		"final_model_dir":         intconfig.DefaultFinalDir,
		"schema_path":             intconfig.DefaultSchemaFile,
		"verbose":                 false,
		"output":                  DefaultOutput,
		"ingestion.test_ratio":    intconfig.DefaultTestRatio,
		"ingestion.seed":          intconfig.DefaultSeed,
		"trainer.folds":           intconfig.DefaultFolds,
		"tracking.prometheus.job": "leapml",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = intconfig.FindConfigFile(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (LEAPML_ prefix)
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	flagPaths := make(map[string]string)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed || f.Name == "config" || f.Name == "project-dir" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			if field, ok := pathFlags[f.Name]; ok {
				if abs, err := filepath.Abs(f.Value.String()); err == nil {
					flagPaths[field] = abs
				}
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve relative paths against the project root; flag paths are
	// already absolute relative to CWD.
	cfg.ProjectRoot = projectRoot
	resolve := func(field string, p *string) {
		if abs, ok := flagPaths[field]; ok {
			*p = abs
			return
		}
		*p = resolvePathRelativeTo(*p, projectRoot)
	}
	resolve("state_path", &cfg.StatePath)
	resolve("artifacts_dir", &cfg.ArtifactsDir)
	resolve("final_model_dir", &cfg.FinalDir)
	resolve("schema_path", &cfg.SchemaPath)

	if cfg.Source != nil {
		expandSourceEnvVars(cfg.Source)
		intconfig.ApplySourceDefaults(cfg.Source)
		if intconfig.FileBased(strings.ToLower(cfg.Source.Type)) && !strings.Contains(cfg.Source.URI, "://") {
			cfg.Source.URI = resolvePathRelativeTo(cfg.Source.URI, projectRoot)
		}
	}

	if cfg.Ingestion.TestRatio <= 0 || cfg.Ingestion.TestRatio >= 1 {
		return nil, fmt.Errorf("ingestion.test_ratio must be in (0, 1), got %v", cfg.Ingestion.TestRatio)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// ValidateForRun checks the settings a pipeline run needs beyond the
// defaults: a usable source.
func (c *Config) ValidateForRun() error {
	if err := intconfig.ValidateSource(c.Source); err != nil {
		return fmt.Errorf("invalid source configuration: %w", err)
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandSourceEnvVars expands environment variables in sensitive source fields.
func expandSourceEnvVars(s *SourceConfig) {
	s.URI = expandEnvVars(s.URI)
	s.Host = expandEnvVars(s.Host)
	s.Username = expandEnvVars(s.Username)
	s.Password = expandEnvVars(s.Password)
	s.Database = expandEnvVars(s.Database)
}
