// Package duckdb provides a DuckDB source for leapml. A collection is either
// a table in the database file or a CSV / Parquet / JSON file that DuckDB
// reads directly.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapml/pkg/source"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	source.Register("duckdb", func(logger *slog.Logger) source.Source { return New(logger) })
}

// Source implements source.Source for DuckDB.
type Source struct {
	source.BaseSQLSource
}

// New creates a new DuckDB source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		BaseSQLSource: source.BaseSQLSource{Logger: logger},
	}
}

// Connect opens the DuckDB database. Use ":memory:" or an empty URI for an
// in-memory database.
func (s *Source) Connect(ctx context.Context, cfg source.Config) error {
	path := cfg.URI
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// Fetch reads every row of the collection.
func (s *Source) Fetch(ctx context.Context, database, collection string) ([]source.Document, error) {
	query, err := buildQuery(database, collection)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("fetching duckdb collection", slog.String("query", query))
	return s.FetchQuery(ctx, query)
}

// buildQuery maps a collection name to a DuckDB SELECT. File collections use
// the matching reader function; anything else is a (schema-qualified) table.
func buildQuery(database, collection string) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("collection not specified")
	}

	ext := strings.ToLower(filepath.Ext(collection))
	literal := "'" + strings.ReplaceAll(collection, "'", "''") + "'"
	switch ext {
	case ".csv":
		return fmt.Sprintf("SELECT * FROM read_csv_auto(%s, header=true)", literal), nil
	case ".parquet":
		return fmt.Sprintf("SELECT * FROM read_parquet(%s)", literal), nil
	case ".json", ".jsonl", ".ndjson":
		return fmt.Sprintf("SELECT * FROM read_json_auto(%s)", literal), nil
	}

	table := collection
	if database != "" && !strings.Contains(collection, ".") {
		table = database + "." + collection
	}
	return "SELECT * FROM " + source.QuoteIdent(table), nil //nolint:gosec // identifier is quoted
}
