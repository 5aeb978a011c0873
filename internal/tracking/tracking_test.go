package tracking

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/leapstack-labs/leapml/pkg/core"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ calls int }

func (f *failing) Report(context.Context, core.MetricReport) error {
	f.calls++
	return errors.New("unreachable")
}

func TestMulti(t *testing.T) {
	first, second := &failing{}, &failing{}
	err := Multi{first, Noop{}, nil, second}.Report(context.Background(), core.MetricReport{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSink)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)

	assert.NoError(t, Multi{Noop{}}.Report(context.Background(), core.MetricReport{}))
}

func TestPrometheus_LocalOnly(t *testing.T) {
	p := NewPrometheus(PrometheusConfig{}, nil)
	err := p.Report(context.Background(), core.MetricReport{
		RunName: "r1", Split: "test", ModelName: "knn", F1Score: 0.8, Precision: 0.7, Recall: 0.9, Artifact: []byte("abc"),
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.8, promtest.ToFloat64(p.f1.WithLabelValues("r1", "test", "knn")), 1e-9)
	assert.InDelta(t, 3.0, promtest.ToFloat64(p.size.WithLabelValues("r1", "test", "knn")), 1e-9)
	count, err := promtest.GatherAndCount(p.Registry())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPrometheus_Push(t *testing.T) {
	var (
		mu     sync.Mutex
		paths  []string
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := NewPrometheus(PrometheusConfig{PushURL: srv.URL, Job: "train"}, nil)
	require.NoError(t, p.Report(context.Background(), core.MetricReport{RunName: "r2", Split: "train", ModelName: "nb", F1Score: 1}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 1)
	assert.True(t, strings.HasPrefix(paths[0], "/metrics/job/train/run/r2"), paths[0])
	assert.NotEmpty(t, bodies[0])
}

func TestPrometheus_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewPrometheus(PrometheusConfig{PushURL: srv.URL}, nil)
	err := p.Report(context.Background(), core.MetricReport{RunName: "r3"})
	assert.ErrorIs(t, err, core.ErrSink)
}
