package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
		assert.Equal(t, tt.want, r.EffectiveMode(), "mode=%q tty=%v", tt.mode, tt.isTTY)
	}
}

func TestRenderer_NonTTYHasNoEscapes(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)

	r.Header(1, "Run")
	r.Success("done")
	r.StatusLine("ingestion", "success", "12ms")
	r.StatusLine("training", "failed", "")
	r.Muted("quiet")
	r.Warning("careful")
	r.Error("broken")

	assert.NotContains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "Run\n───")
	assert.Contains(t, out.String(), "✓ done")
	assert.Contains(t, out.String(), "✓ ingestion  12ms")
	assert.Contains(t, out.String(), "✗ training")
	assert.Contains(t, errOut.String(), "! careful")
	assert.Contains(t, errOut.String(), "✗ broken")
}

func TestRenderer_Table(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)
	r.Header(2, "Candidates")
	r.Table([]string{"model", "f1"}, [][]string{{"knn", "0.91"}, {"gaussian_nb", "0.88"}})

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "## Candidates\n"))
	assert.Contains(t, strings.ToLower(s), "| model | f1 |")
	assert.Contains(t, s, "| --- |")
	assert.Contains(t, s, "| knn | 0.91 |")

	r, out, _ = newTestRenderer(ModeText, false)
	r.Table([]string{"model"}, [][]string{{"knn"}})
	assert.Contains(t, out.String(), "┌")
	assert.Contains(t, out.String(), "knn")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"rows": 3}))
	assert.JSONEq(t, `{"rows": 3}`, out.String())
}
