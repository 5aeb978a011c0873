// Package redis provides a Redis source for leapml. A collection is a Redis
// list whose elements are JSON objects, one record per element.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/leapstack-labs/leapml/pkg/source"
	goredis "github.com/redis/go-redis/v9"
)

func init() {
	source.Register("redis", func(logger *slog.Logger) source.Source { return New(logger) })
}

// Source implements source.Source for Redis.
type Source struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// New creates a new Redis source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{logger: logger}
}

// NewWithClient wraps an existing client. Used by tests and by callers that
// manage their own Redis connection.
func NewWithClient(client goredis.UniversalClient, logger *slog.Logger) *Source {
	s := New(logger)
	s.client = client
	return s
}

// Connect creates the client and pings the server.
func (s *Source) Connect(ctx context.Context, cfg source.Config) error {
	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	s.client = client
	return nil
}

// Fetch reads the list stored at Key(database, collection) and decodes each
// element as a JSON object.
func (s *Source) Fetch(ctx context.Context, database, collection string) ([]source.Document, error) {
	if s.client == nil {
		return nil, fmt.Errorf("source connection not established")
	}

	key := Key(database, collection)
	s.logger.Debug("fetching redis list", slog.String("key", key))

	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read redis list %q: %w", key, err)
	}

	docs := make([]source.Document, 0, len(items))
	for i, item := range items {
		doc, err := source.DecodeDocument([]byte(item))
		if err != nil {
			return nil, fmt.Errorf("redis list %q element %d: %w", key, i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Close closes the client.
func (s *Source) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Key returns the list key for a collection: "<database>:<collection>", or
// just the collection when database is empty.
func Key(database, collection string) string {
	if database == "" {
		return collection
	}
	return database + ":" + collection
}

func buildOptions(cfg source.Config) (*goredis.Options, error) {
	if cfg.URI != "" {
		opts, err := goredis.ParseURL(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("invalid redis uri: %w", err)
		}
		return opts, nil
	}

	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	opts := &goredis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if db, ok := cfg.Options["db"]; ok {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db option %q: %w", db, err)
		}
		opts.DB = n
	}
	return opts, nil
}
