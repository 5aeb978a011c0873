// Package sqlite provides a SQLite source for leapml backed by the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapml/pkg/source"

	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	source.Register("sqlite", func(logger *slog.Logger) source.Source { return New(logger) })
}

// Source implements source.Source for SQLite.
type Source struct {
	source.BaseSQLSource
}

// New creates a new SQLite source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		BaseSQLSource: source.BaseSQLSource{Logger: logger},
	}
}

// Connect opens the SQLite file named by the URI (or Database when no URI is
// set). ":memory:" opens a private in-memory database.
func (s *Source) Connect(ctx context.Context, cfg source.Config) error {
	path := cfg.URI
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// Fetch reads every row of the table named by collection. SQLite has a single
// schema per file so database is ignored.
func (s *Source) Fetch(ctx context.Context, _ string, collection string) ([]source.Document, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection not specified")
	}
	return s.FetchQuery(ctx, "SELECT * FROM "+source.QuoteIdent(collection)) //nolint:gosec // identifier is quoted
}
