package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapml/internal/cli/config"
	clitestutil "github.com/leapstack-labs/leapml/internal/cli/testutil"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHelpListsCommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"run", "predict", "runs", "drift", "version", "completion"} {
		assert.Contains(t, out, name)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapml v"+Version)
}

func TestCompletionWritesToCommandOutput(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapml")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestPersistentFlagsOverrideConfig(t *testing.T) {
	dir := clitestutil.SetupTestProject(t, 60)
	state := filepath.Join(t.TempDir(), "state.db")

	out, err := execute(t, "run", "--json",
		"--config", filepath.Join(dir, "leapml.yaml"),
		"--namespace", "nightly",
		"--state", state,
		"--test-ratio", "0.25",
	)
	require.NoError(t, err, out)

	var res core.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "nightly", res.Namespace)
	assert.Equal(t, core.StateComplete, res.State)
	require.NotNil(t, res.Ingestion)
	assert.Equal(t, 15, res.Ingestion.TestRows)

	cfg := config.GetCurrentConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, state, cfg.StatePath)
	assert.FileExists(t, state)
}

func TestRunFailureReturnsError(t *testing.T) {
	dir := clitestutil.SetupTestProject(t, 30)

	_, err := execute(t, "run", "--json",
		"--config", filepath.Join(dir, "leapml.yaml"),
		"--collection", "missing",
	)
	assert.Error(t, err)
}

func TestInvalidTestRatio(t *testing.T) {
	dir := clitestutil.SetupTestProject(t, 10)

	_, err := execute(t, "runs", "--config", filepath.Join(dir, "leapml.yaml"), "--test-ratio", "1.5")
	assert.ErrorContains(t, err, "test_ratio")
}
