// Package ingest pulls raw records from a source, cleans them, persists the
// feature-store snapshot and writes a seeded train/test split.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapml/internal/frame"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/leapstack-labs/leapml/pkg/source"
)

// IdentityColumn is the synthetic id column document stores inject.
const IdentityColumn = "_id"

// Config controls what is fetched and how it is split.
type Config struct {
	Database    string
	Collection  string
	DropColumns []string // dropped in addition to IdentityColumn
	TestRatio   float64
	Seed        int64
}

// Paths are the files the ingestor writes.
type Paths struct {
	FeatureStore string
	Train        string
	Test         string
}

// Ingestor runs the ingestion stage.
type Ingestor struct {
	src    source.Source
	cfg    Config
	paths  Paths
	logger *slog.Logger
}

// New creates an ingestor reading from an already connected source.
// If logger is nil, a discard logger is used.
func New(src source.Source, cfg Config, paths Paths, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ingestor{src: src, cfg: cfg, paths: paths, logger: logger}
}

// Ingest fetches, cleans, persists and splits the configured collection.
// Either a complete artifact is returned or a *core.StageError for the
// ingestion stage.
func (i *Ingestor) Ingest(ctx context.Context) (core.IngestionArtifact, error) {
	start := time.Now()

	if i.cfg.TestRatio <= 0 || i.cfg.TestRatio >= 1 {
		return core.IngestionArtifact{}, fail(core.ErrInvalidConfig,
			fmt.Errorf("test ratio must be in (0, 1), got %v", i.cfg.TestRatio))
	}

	table, err := i.fetch(ctx)
	if err != nil {
		return core.IngestionArtifact{}, err
	}

	cleaned, dropped := Clean(table, append([]string{IdentityColumn}, i.cfg.DropColumns...))
	if dropped > 0 {
		i.logger.Warn("dropped rows with missing values",
			slog.Int("dropped", dropped),
			slog.Int("remaining", cleaned.Len()))
	}
	if cleaned.Len() == 0 {
		return core.IngestionArtifact{}, fail(core.ErrSourceEmpty,
			fmt.Errorf("all %d records in %s contain missing values", table.Len(), i.cfg.Collection))
	}

	if err := frame.WriteCSV(i.paths.FeatureStore, cleaned); err != nil {
		return core.IngestionArtifact{}, fail(core.ErrArtifactWrite, err)
	}

	trainIdx, testIdx := Split(cleaned.Len(), i.cfg.TestRatio, i.cfg.Seed)
	train, test := cleaned.Take(trainIdx), cleaned.Take(testIdx)

	if err := frame.WriteCSV(i.paths.Train, train); err != nil {
		return core.IngestionArtifact{}, fail(core.ErrArtifactWrite, err)
	}
	if err := frame.WriteCSV(i.paths.Test, test); err != nil {
		return core.IngestionArtifact{}, fail(core.ErrArtifactWrite, err)
	}

	i.logger.Info("ingestion complete",
		slog.Int("rows", cleaned.Len()),
		slog.Int("train_rows", train.Len()),
		slog.Int("test_rows", test.Len()),
		slog.Duration("duration", time.Since(start)))

	return core.IngestionArtifact{
		FeatureStorePath: i.paths.FeatureStore,
		TrainPath:        i.paths.Train,
		TestPath:         i.paths.Test,
		Rows:             cleaned.Len(),
		TrainRows:        train.Len(),
		TestRows:         test.Len(),
	}, nil
}

func (i *Ingestor) fetch(ctx context.Context) (*frame.Table, error) {
	if i.src == nil {
		return nil, fail(core.ErrSourceUnavailable, errors.New("no source configured"))
	}

	i.logger.Debug("fetching records",
		slog.String("database", i.cfg.Database),
		slog.String("collection", i.cfg.Collection))

	docs, err := i.src.Fetch(ctx, i.cfg.Database, i.cfg.Collection)
	if err != nil {
		return nil, fail(core.ErrSourceUnavailable, err)
	}
	if len(docs) == 0 {
		return nil, fail(core.ErrSourceEmpty,
			fmt.Errorf("no records in %s.%s", i.cfg.Database, i.cfg.Collection))
	}
	return frame.FromDocuments(docs), nil
}

// Clean drops the named columns (absent ones are ignored) and every row
// that has a missing value. It returns the cleaned table and the number of
// rows removed.
func Clean(t *frame.Table, drop []string) (*frame.Table, int) {
	return t.DropColumns(drop...).DropMissing()
}

func fail(kind, cause error) error {
	return core.NewStageError(core.StageIngestion, kind, cause)
}
