package engine

import (
	"context"
	"testing"
	"time"

	"github.com/leapstack-labs/leapml/internal/testutil"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner finishes only when release is closed.
type blockingRunner struct {
	ns      string
	started chan struct{}
	release chan struct{}
}

func newBlockingRunner(ns string) *blockingRunner {
	return &blockingRunner{ns: ns, started: make(chan struct{}), release: make(chan struct{})}
}

func (r *blockingRunner) Namespace() string { return r.ns }

func (r *blockingRunner) Run(ctx context.Context) (*core.RunResult, error) {
	close(r.started)
	select {
	case <-r.release:
		return &core.RunResult{Namespace: r.ns, State: core.StateComplete}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestScheduler_OneRunPerNamespace(t *testing.T) {
	s := NewScheduler(testutil.NewTestLogger(t))
	ctx := context.Background()

	first := newBlockingRunner("a")
	job, err := s.Start(ctx, first)
	require.NoError(t, err)
	<-first.started
	assert.True(t, s.Running("a"))

	_, err = s.Start(ctx, newBlockingRunner("a"))
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	other := newBlockingRunner("b")
	otherJob, err := s.Start(ctx, other)
	require.NoError(t, err)

	close(first.release)
	res, err := job.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StateComplete, res.State)
	assert.False(t, s.Running("a"))

	again := newBlockingRunner("a")
	againJob, err := s.Start(ctx, again)
	require.NoError(t, err)

	close(other.release)
	close(again.release)
	s.Wait()

	for _, j := range []*Job{otherJob, againJob} {
		select {
		case <-j.Done():
		default:
			t.Fatalf("job %s not done after Wait", j.Namespace)
		}
	}
}

func TestScheduler_CancelAndWaitTimeout(t *testing.T) {
	s := NewScheduler(nil)
	ctx, cancel := context.WithCancel(context.Background())

	r := newBlockingRunner("a")
	job, err := s.Start(ctx, r)
	require.NoError(t, err)
	<-r.started

	short, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stop()
	_, err = job.Wait(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cancel()
	_, err = job.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_RunsEngine(t *testing.T) {
	src := &testutil.MemorySource{Docs: testutil.SyntheticDocuments(40, 5)}
	e := newTestEngine(t, testConfig(t, src))
	s := NewScheduler(nil)

	job, err := s.Start(context.Background(), e)
	require.NoError(t, err)

	res, err := job.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.StateComplete, res.State)
	assert.Equal(t, "phishing", job.Namespace)
}
