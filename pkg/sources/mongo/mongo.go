// Package mongo provides a MongoDB document source for leapml.
//
// Importing this package registers the "mongo" source type:
//
//	import _ "github.com/leapstack-labs/leapml/pkg/sources/mongo"
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapml/pkg/source"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func init() {
	source.Register("mongo", func(logger *slog.Logger) source.Source { return New(logger) })
}

// defaultTimeout bounds connect and server selection when the config sets none.
const defaultTimeout = 30 * time.Second

// Source implements source.Source for MongoDB.
type Source struct {
	client *mongo.Client
	logger *slog.Logger
}

// New creates a new MongoDB source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{logger: logger}
}

// Connect establishes the MongoDB connection and pings the primary.
func (s *Source) Connect(ctx context.Context, cfg source.Config) error {
	uri := buildMongoURI(cfg)

	timeout := defaultTimeout
	if v, ok := cfg.Options["timeout"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	s.logger.Debug("connecting to mongo", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s.client = client
	return nil
}

// Fetch returns every document of the collection, keeping field order.
func (s *Source) Fetch(ctx context.Context, database, collection string) ([]source.Document, error) {
	if s.client == nil {
		return nil, fmt.Errorf("mongo connection not established")
	}

	coll := s.client.Database(database).Collection(collection)
	s.logger.Info("fetching collection", slog.String("database", database), slog.String("collection", collection))

	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s.%s: %w", database, collection, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []bson.D
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to read collection %s.%s: %w", database, collection, err)
	}

	docs := make([]source.Document, len(results))
	for i, r := range results {
		docs[i] = convertDocument(r)
	}

	s.logger.Debug("fetched documents", slog.Int("count", len(docs)))
	return docs, nil
}

// Close disconnects the client.
func (s *Source) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// convertDocument flattens a bson.D into a source document. Nested documents
// are rendered with their extended JSON form.
func convertDocument(d bson.D) source.Document {
	doc := make(source.Document, len(d))
	for i, e := range d {
		val := e.Value
		switch v := val.(type) {
		case bson.D, bson.A, bson.M:
			if raw, err := bson.MarshalExtJSON(bson.M{"v": v}, false, false); err == nil {
				val = strings.TrimSuffix(strings.TrimPrefix(string(raw), `{"v":`), "}")
			}
		}
		doc[i] = source.Field{Key: e.Key, Value: val}
	}
	return doc
}

// buildMongoURI builds a MongoDB connection URI.
func buildMongoURI(cfg source.Config) string {
	if cfg.URI != "" {
		return cfg.URI
	}

	var uri strings.Builder
	uri.WriteString("mongodb://")

	if cfg.Username != "" {
		uri.WriteString(cfg.Username)
		if cfg.Password != "" {
			uri.WriteString(":")
			uri.WriteString(cfg.Password)
		}
		uri.WriteString("@")
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 27017
	}
	fmt.Fprintf(&uri, "%s:%d", host, port)

	if cfg.Database != "" {
		uri.WriteString("/")
		uri.WriteString(cfg.Database)
	}
	return uri.String()
}
