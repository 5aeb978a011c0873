// Package source provides the upstream data source contract for the
// ingestion stage, a registry of source implementations, and helpers shared
// by the implementations.
//
// Concrete sources live in pkg/sources/ subdirectories and register themselves
// in init(). Import them with a blank identifier to make them available:
//
//	import _ "github.com/leapstack-labs/leapml/pkg/sources/mongo"
package source

import (
	"context"

	"github.com/leapstack-labs/leapml/pkg/core"
)

// Type aliases so implementations need only import this package.
type (
	// Config is an alias for core.SourceConfig.
	Config = core.SourceConfig

	// Document is an alias for core.Document.
	Document = core.Document

	// Field is an alias for core.Field.
	Field = core.Field
)

// Source fetches raw records for the ingestion stage.
type Source interface {
	// Connect establishes a connection using the provided config.
	// Connection and authentication failures are reported here.
	Connect(ctx context.Context, cfg Config) error

	// Fetch returns every record of collection in database.
	Fetch(ctx context.Context, database, collection string) ([]Document, error)

	// Close releases the connection.
	Close() error
}
