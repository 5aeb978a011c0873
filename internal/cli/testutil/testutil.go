// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapml/internal/cli/output"
	datautil "github.com/leapstack-labs/leapml/internal/testutil"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// Project database and collection written by SetupTestProject.
const (
	Database   = "netsec"
	Collection = "urls"
)

// SetupTestProject creates a temporary project with a leapml.yaml, a schema
// and a jsonl dataset of n synthetic records. Returns the project root.
func SetupTestProject(t *testing.T, n int) string {
	t.Helper()

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data", Database)
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		t.Fatalf("failed to create directory %s: %v", dataDir, err)
	}

	config := `namespace: phishing
schema_path: schema.yaml
source:
  type: jsonl
  uri: data
  database: ` + Database + `
  collection: ` + Collection + `
ingestion:
  test_ratio: 0.2
  seed: 42
trainer:
  folds: 3
  models:
    - name: decision_tree
      grid:
        max_depth: [2, 3]
    - name: gaussian_nb
`
	writeFile(t, filepath.Join(tmpDir, "leapml.yaml"), config)

	var schema strings.Builder
	schema.WriteString("version: \"1\"\ntarget: " + datautil.LabelColumn + "\ncolumns:\n")
	for _, c := range datautil.SchemaColumns() {
		schema.WriteString("  - " + c + ": float\n")
	}
	writeFile(t, filepath.Join(tmpDir, "schema.yaml"), schema.String())

	var lines bytes.Buffer
	for _, doc := range datautil.SyntheticDocuments(n, 11) {
		lines.Write(encodeDocument(t, doc))
		lines.WriteByte('\n')
	}
	writeFile(t, filepath.Join(dataDir, Collection+".jsonl"), lines.String())

	return tmpDir
}

// encodeDocument marshals a document as a JSON object in field order.
func encodeDocument(t *testing.T, doc core.Document) []byte {
	t.Helper()
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range doc {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			t.Fatalf("failed to encode key: %v", err)
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			t.Fatalf("failed to encode value: %v", err)
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}
