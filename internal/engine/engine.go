// Package engine runs the training pipeline: ingestion, validation,
// transformation and model selection, in that order, recording every run and
// stage transition in the state store.
package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/leapstack-labs/leapml/internal/ingest"
	"github.com/leapstack-labs/leapml/internal/state"
	"github.com/leapstack-labs/leapml/internal/tracking"
	"github.com/leapstack-labs/leapml/internal/trainer"
	"github.com/leapstack-labs/leapml/internal/transform"
	"github.com/leapstack-labs/leapml/internal/validation"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/leapstack-labs/leapml/pkg/source"
)

// DefaultNamespace is used when Config.Namespace is empty.
const DefaultNamespace = "default"

// maxRootAttempts bounds the suffixes tried for runs started in the same second.
const maxRootAttempts = 1000

// Namespaces name artifact and serving directories, so they must be a
// single path element.
var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Engine orchestrates pipeline runs.
type Engine struct {
	cfg        Config
	store      core.Store
	ownsStore  bool
	sink       core.MetricsSink
	candidates []trainer.Candidate
	logger     *slog.Logger
	now        func() time.Time
}

// Config holds engine configuration.
type Config struct {
	// Namespace groups runs of one logical model.
	Namespace string
	// Source selects and configures the upstream data source.
	Source source.Config
	// SourceOverride, when set, is used instead of looking Source.Type up in
	// the source registry. It is still connected with Source and closed.
	SourceOverride source.Source

	// ArtifactsDir receives one timestamped directory per run, under the
	// namespace.
	ArtifactsDir string
	// FinalDir receives the serving copies of the selected model, under the
	// namespace.
	FinalDir string
	// StatePath is the SQLite state database; empty means in-memory.
	StatePath string
	// Store replaces the SQLite store opened from StatePath.
	Store core.Store

	Ingest     ingest.Config
	Validation validation.Config
	Transform  transform.Config
	Trainer    trainer.Config
	// Candidates is the model registry in tie-break order. Empty means
	// trainer.DefaultCandidates.
	Candidates []trainer.Candidate
	// Sink receives selected-model reports in addition to the state store.
	Sink core.MetricsSink

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Now overrides the clock used to name artifact directories.
	Now func() time.Time
}

// New creates an engine and opens its state store.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if !namespacePattern.MatchString(cfg.Namespace) {
		return nil, fmt.Errorf("%w: namespace %q must be letters, digits, '_', '-' or '.', starting with a letter or digit",
			core.ErrInvalidConfig, cfg.Namespace)
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "artifacts"
	}
	if cfg.FinalDir == "" {
		cfg.FinalDir = "final_model"
	}
	if cfg.Ingest.Database == "" {
		cfg.Ingest.Database = cfg.Source.Database
	}
	if cfg.Ingest.Collection == "" {
		cfg.Ingest.Collection = cfg.Source.Collection
	}
	if cfg.Transform.Target == "" {
		cfg.Transform.Target = cfg.Validation.Schema.Target
	}
	if cfg.Trainer.Seed == 0 {
		cfg.Trainer.Seed = cfg.Ingest.Seed
	}

	logger.Debug("initializing engine", "namespace", cfg.Namespace, "source", cfg.Source.Type)

	e := &Engine{
		cfg:        cfg,
		store:      cfg.Store,
		candidates: cfg.Candidates,
		logger:     logger,
		now:        cfg.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if len(e.candidates) == 0 {
		e.candidates = trainer.DefaultCandidates(cfg.Trainer.Seed)
	}

	if e.store == nil {
		path := cfg.StatePath
		if path == "" {
			path = ":memory:"
		}
		store := state.NewSQLiteStore(logger)
		if err := store.Open(path); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		e.store = store
		e.ownsStore = true
	}

	sinks := tracking.Multi{}
	if s, ok := e.store.(core.MetricsSink); ok {
		sinks = append(sinks, s)
	}
	if cfg.Sink != nil {
		sinks = append(sinks, cfg.Sink)
	}
	e.sink = sinks

	return e, nil
}

// Close releases the state store if the engine opened it.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")
	if e.ownsStore && e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Namespace returns the namespace runs are recorded under.
func (e *Engine) Namespace() string {
	return e.cfg.Namespace
}

// GetStateStore returns the state store.
func (e *Engine) GetStateStore() core.Store {
	return e.store
}

// Layout returns the base artifact layout for a run started at ts.
func (e *Engine) Layout(ts time.Time) core.Layout {
	return core.NewLayout(e.cfg.ArtifactsDir, e.cfg.FinalDir, e.cfg.Namespace, ts)
}

// reserveLayout creates the root directory of a run started at ts. A root
// already taken by an earlier run gets a numeric suffix, so a run never
// writes into another run's artifacts.
func (e *Engine) reserveLayout(ts time.Time) (core.Layout, error) {
	base := e.Layout(ts)
	if err := os.MkdirAll(filepath.Dir(base.Root), 0o750); err != nil {
		return core.Layout{}, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	for n := 0; n < maxRootAttempts; n++ {
		l := base.Attempt(n)
		err := os.Mkdir(l.Root, 0o750)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return core.Layout{}, fmt.Errorf("failed to create run directory: %w", err)
		}
	}
	return core.Layout{}, fmt.Errorf("no free run directory for %s after %d attempts", base.Root, maxRootAttempts)
}
