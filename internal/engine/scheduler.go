package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapml/pkg/core"
)

// ErrAlreadyRunning is returned by Scheduler.Start when the namespace
// already has a run in progress.
var ErrAlreadyRunning = errors.New("pipeline already running for namespace")

// Runner is anything that executes one pipeline run for a namespace.
// *Engine implements it.
type Runner interface {
	Namespace() string
	Run(ctx context.Context) (*core.RunResult, error)
}

// Scheduler starts pipeline runs in the background, at most one per
// namespace at a time.
type Scheduler struct {
	mu      sync.Mutex
	running map[string]*Job
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// Job is a run started by the scheduler.
type Job struct {
	Namespace string

	done   chan struct{}
	result *core.RunResult
	err    error
}

// NewScheduler creates a scheduler.
// If logger is nil, a discard logger is used.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{running: make(map[string]*Job), logger: logger}
}

// Start runs r in a new goroutine and returns immediately. The run uses ctx,
// so cancelling it stops the run at the next stage boundary.
func (s *Scheduler) Start(ctx context.Context, r Runner) (*Job, error) {
	ns := r.Namespace()

	s.mu.Lock()
	if _, busy := s.running[ns]; busy {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	job := &Job{Namespace: ns, done: make(chan struct{})}
	s.running[ns] = job
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug("scheduling run", "namespace", ns)

	go func() {
		defer s.wg.Done()
		job.result, job.err = r.Run(ctx)

		s.mu.Lock()
		delete(s.running, ns)
		s.mu.Unlock()
		close(job.done)
	}()

	return job, nil
}

// Running reports whether namespace has a run in progress.
func (s *Scheduler) Running(namespace string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[namespace]
	return ok
}

// Wait blocks until every started run has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Done is closed when the run has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the run finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (*core.RunResult, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
