package jsonl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapml/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	content := `{"_id": "a1", "x": 1, "y": 2.5, "Result": 1}

{"_id": "a2", "x": -1, "y": null, "Result": 0}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phishing.jsonl"), []byte(content), 0600))

	ctx := context.Background()
	src := New(nil)
	require.NoError(t, src.Connect(ctx, source.Config{URI: dir}))

	docs, err := src.Fetch(ctx, "", "phishing")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "_id", docs[0][0].Key)
	assert.Equal(t, "Result", docs[0][3].Key)

	y, ok := docs[1].Get("y")
	assert.True(t, ok)
	assert.Nil(t, y)
}

func TestSource_FetchSubdirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ml"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ml", "net.jsonl"), []byte(`{"a":1}`+"\n"), 0600))

	src := New(nil)
	require.NoError(t, src.Connect(context.Background(), source.Config{URI: dir}))
	docs, err := src.Fetch(context.Background(), "ml", "net")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSource_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jsonl"), []byte("not json\n"), 0600))

	src := New(nil)
	_, err := src.Fetch(context.Background(), "", "bad")
	assert.Error(t, err, "fetch before connect")

	assert.Error(t, src.Connect(context.Background(), source.Config{URI: filepath.Join(dir, "missing")}))
	require.NoError(t, src.Connect(context.Background(), source.Config{URI: dir}))

	_, err = src.Fetch(context.Background(), "", "bad")
	assert.Error(t, err)

	_, err = src.Fetch(context.Background(), "", "absent")
	assert.Error(t, err)
}

func TestSource_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.jsonl"), nil, 0600))

	src := New(nil)
	require.NoError(t, src.Connect(context.Background(), source.Config{URI: dir}))
	docs, err := src.Fetch(context.Background(), "", "empty")
	require.NoError(t, err)
	assert.Empty(t, docs)
}
