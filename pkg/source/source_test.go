package source

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownSourceError_Error(t *testing.T) {
	err := &UnknownSourceError{
		Type:      "fake_store",
		Available: []string{"jsonl", "mongo"},
	}

	msg := err.Error()

	assert.Contains(t, msg, "fake_store")
	assert.Contains(t, msg, "leapml.yaml", "error should mention config file")
}

type stubSource struct{}

func (stubSource) Connect(context.Context, Config) error { return nil }
func (stubSource) Fetch(context.Context, string, string) ([]Document, error) {
	return nil, nil
}
func (stubSource) Close() error { return nil }

func TestRegister(t *testing.T) {
	Register("test_source_internal", func(_ *slog.Logger) Source { return stubSource{} })

	assert.True(t, IsRegistered("test_source_internal"))
	assert.Contains(t, List(), "test_source_internal")

	src, err := New(Config{Type: "test_source_internal"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, src)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "source type not specified", err.Error())

	_, err = New(Config{Type: "does_not_exist"}, nil)
	var unknown *UnknownSourceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "does_not_exist", unknown.Type)
}

func TestDecodeDocument(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"b": 1, "a": 2.5, "c": "x", "d": null, "e": {"n": 1}, "f": true}`))
	require.NoError(t, err)

	keys := make([]string, len(doc))
	for i, f := range doc {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{"b", "a", "c", "d", "e", "f"}, keys, "key order must be preserved")
	assert.Equal(t, int64(1), doc[0].Value)
	assert.InDelta(t, 2.5, doc[1].Value, 1e-12)
	assert.Equal(t, "x", doc[2].Value)
	assert.Nil(t, doc[3].Value)
	assert.Equal(t, `{"n": 1}`, doc[4].Value)
	assert.Equal(t, true, doc[5].Value)
}

func TestDecodeDocument_NotObject(t *testing.T) {
	_, err := DecodeDocument([]byte(`[1, 2]`))
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"phishing"`, QuoteIdent("phishing"))
	assert.Equal(t, `"main"."phishing"`, QuoteIdent("main.phishing"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
}
