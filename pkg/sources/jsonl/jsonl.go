// Package jsonl provides a newline-delimited JSON file source for leapml.
// The database is a directory and each collection is "<collection>.jsonl"
// inside it.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapml/pkg/source"
)

func init() {
	source.Register("jsonl", func(logger *slog.Logger) source.Source { return New(logger) })
}

const maxLine = 16 * 1024 * 1024

// Source implements source.Source for JSONL files.
type Source struct {
	root   string
	logger *slog.Logger
}

// New creates a new JSONL source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{logger: logger}
}

// Connect records the base directory (URI, else Database, else ".").
func (s *Source) Connect(_ context.Context, cfg source.Config) error {
	root := cfg.URI
	if root == "" {
		root = cfg.Database
	}
	if root == "" {
		root = "."
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to open jsonl directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("jsonl source root %q is not a directory", root)
	}
	s.root = root
	return nil
}

// Fetch reads one document per non-blank line. A database argument names a
// subdirectory of the root.
func (s *Source) Fetch(ctx context.Context, database, collection string) ([]source.Document, error) {
	if s.root == "" {
		return nil, fmt.Errorf("source connection not established")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection not specified")
	}

	name := collection
	if !strings.HasSuffix(name, ".jsonl") {
		name += ".jsonl"
	}
	path := filepath.Join(s.root, database, name)
	if database != "" && filepath.Base(s.root) == database {
		path = filepath.Join(s.root, name)
	}

	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}
	defer func() { _ = f.Close() }()

	s.logger.Debug("reading jsonl collection", slog.String("path", path))

	var docs []source.Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		doc, err := source.DecodeDocument(b)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	return docs, nil
}

// Close is a no-op.
func (s *Source) Close() error { return nil }
