package redis

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapml/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "ml:phishing", Key("ml", "phishing"))
	assert.Equal(t, "phishing", Key("", "phishing"))
}

func TestBuildOptions(t *testing.T) {
	opts, err := buildOptions(source.Config{})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 0, opts.DB)

	opts, err = buildOptions(source.Config{Host: "cache", Port: 6380, Password: "pw", Options: map[string]string{"db": "3"}})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	opts, err = buildOptions(source.Config{URI: "redis://:secret@redis.local:6390/2"})
	require.NoError(t, err)
	assert.Equal(t, "redis.local:6390", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	_, err = buildOptions(source.Config{Options: map[string]string{"db": "x"}})
	assert.Error(t, err)
}

func TestSource_FetchWithoutConnect(t *testing.T) {
	_, err := New(nil).Fetch(context.Background(), "ml", "phishing")
	assert.Error(t, err)
	assert.NoError(t, New(nil).Close())
}
