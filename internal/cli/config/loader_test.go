package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapml/internal/testutil"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapml/pkg/sources/jsonl"
)

const sampleConfig = `namespace: phishing
state_path: state/leapml.db
schema_path: config/schema.yaml
source:
  type: jsonl
  uri: data
  database: netsec
  collection: urls
ingestion:
  test_ratio: 0.25
  seed: 7
  drop_columns: [scraped_at]
validation:
  fail_on_drift: true
transform:
  label_map:
    "-1": 0
  scaler: minmax
trainer:
  folds: 5
  models:
    - name: decision_tree
      grid:
        max_depth: [2, 4]
    - name: gaussian_nb
tracking:
  prometheus:
    push_url: http://pushgateway:9091
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "leapml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("project-dir", "", "")
	fs.String("state", "", "")
	fs.String("namespace", "", "")
	fs.String("collection", "", "")
	fs.Float64("test-ratio", 0, "")
	fs.BoolP("verbose", "v", false, "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	dir := t.TempDir()

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--project-dir", dir}))

	cfg, err := LoadConfig("", fs)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, DefaultNamespace, cfg.Namespace)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, filepath.Join(dir, "artifacts"), cfg.ArtifactsDir)
	assert.Equal(t, filepath.Join(dir, "final_model"), cfg.FinalDir)
	assert.InDelta(t, 0.2, cfg.Ingestion.TestRatio, 1e-12)
	assert.Equal(t, int64(42), cfg.Ingestion.Seed)
	assert.Equal(t, 3, cfg.Trainer.Folds)
	assert.Equal(t, "leapml", cfg.Tracking.Prometheus.Job)
	assert.Nil(t, cfg.Source)
	assert.Empty(t, GetConfigFileUsed())

	assert.Error(t, cfg.ValidateForRun())
}

func TestLoadConfig_File(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, sampleConfig)
	root := filepath.Dir(path)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
	assert.Equal(t, "phishing", cfg.Namespace)
	assert.Equal(t, filepath.Join(root, "state", "leapml.db"), cfg.StatePath)
	assert.Equal(t, filepath.Join(root, "config", "schema.yaml"), cfg.SchemaPath)

	require.NotNil(t, cfg.Source)
	assert.Equal(t, "jsonl", cfg.Source.Type)
	assert.Equal(t, filepath.Join(root, "data"), cfg.Source.URI)
	assert.Equal(t, "urls", cfg.Source.Collection)
	require.NoError(t, cfg.ValidateForRun())

	assert.InDelta(t, 0.25, cfg.Ingestion.TestRatio, 1e-12)
	assert.Equal(t, int64(7), cfg.Ingestion.Seed)
	assert.Equal(t, []string{"scraped_at"}, cfg.Ingestion.DropColumns)
	assert.True(t, cfg.Validation.FailOnDrift)
	assert.Equal(t, map[string]float64{"-1": 0}, cfg.Transform.LabelMap)
	assert.Equal(t, "minmax", cfg.Transform.Scaler)
	assert.Equal(t, 5, cfg.Trainer.Folds)
	require.Len(t, cfg.Trainer.Models, 2)
	assert.Equal(t, "decision_tree", cfg.Trainer.Models[0].Name)
	assert.Contains(t, cfg.Trainer.Models[0].Grid, "max_depth")
	assert.Equal(t, "http://pushgateway:9091", cfg.Tracking.Prometheus.PushURL)
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Cleanup(ResetConfig)
	path := writeConfig(t, sampleConfig)

	t.Setenv("LEAPML_NAMESPACE", "from-env")
	t.Setenv("LEAPML_SOURCE__COLLECTION", "env_urls")
	t.Setenv("LEAPML_INGESTION__SEED", "99")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--namespace", "from-flag", "--state", "flag.db"}))

	cfg, err := LoadConfig(path, fs)
	require.NoError(t, err)

	cwd, _ := os.Getwd()
	assert.Equal(t, "from-flag", cfg.Namespace)
	assert.Equal(t, filepath.Join(cwd, "flag.db"), cfg.StatePath)
	assert.Equal(t, "env_urls", cfg.Source.Collection)
	assert.Equal(t, int64(99), cfg.Ingestion.Seed)
}

func TestLoadConfig_ExpandsSecrets(t *testing.T) {
	t.Cleanup(ResetConfig)
	t.Setenv("PG_PASSWORD", "s3cret")
	path := writeConfig(t, `source:
  type: postgres
  host: db.internal
  password: ${PG_PASSWORD}
  username: ${PG_USER_UNSET}
  database: netsec
  collection: urls
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Source.Password)
	assert.Equal(t, "${PG_USER_UNSET}", cfg.Source.Username)
	assert.Equal(t, 5432, cfg.Source.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Cleanup(ResetConfig)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")

	_, err = LoadConfig(writeConfig(t, "ingestion:\n  test_ratio: 1.5\n"), nil)
	assert.ErrorContains(t, err, "test_ratio")

	_, err = LoadConfig(writeConfig(t, "source: [not, a, map]\n"), nil)
	assert.ErrorContains(t, err, "unable to decode config")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := testutil.NewTestLogger(t)
	assert.Same(t, logger, GetLogger(WithLogger(context.Background(), logger)))
}
