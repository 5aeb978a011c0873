// Package postgres provides a PostgreSQL source for leapml.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/leapstack-labs/leapml/pkg/source"
)

func init() {
	source.Register("postgres", func(logger *slog.Logger) source.Source { return New(logger) })
}

// Source implements source.Source for PostgreSQL.
type Source struct {
	source.BaseSQLSource
}

// New creates a new PostgreSQL source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		BaseSQLSource: source.BaseSQLSource{Logger: logger},
	}
}

// Connect establishes a connection to PostgreSQL.
func (s *Source) Connect(ctx context.Context, cfg source.Config) error {
	dsn := buildPostgresDSN(cfg)

	s.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// Fetch reads every row of a table. The database name selects the schema
// when the collection is not already schema-qualified.
func (s *Source) Fetch(ctx context.Context, database, collection string) ([]source.Document, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection not specified")
	}
	table := collection
	if schema := s.Cfg.Options["schema"]; schema != "" && !strings.Contains(collection, ".") {
		table = schema + "." + collection
	}
	s.Logger.Debug("fetching postgres table", slog.String("database", database), slog.String("table", table))
	return s.FetchQuery(ctx, "SELECT * FROM "+source.QuoteIdent(table)) //nolint:gosec // identifier is quoted
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg source.Config) string {
	if cfg.URI != "" {
		return cfg.URI
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		fmt.Sprintf("host=%s", host),
		fmt.Sprintf("port=%d", port),
	}
	if cfg.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", cfg.Password))
	}
	if cfg.Database != "" {
		parts = append(parts, fmt.Sprintf("dbname=%s", cfg.Database))
	}
	parts = append(parts, fmt.Sprintf("sslmode=%s", sslmode))

	return strings.Join(parts, " ")
}
