// Package config holds the project-level configuration shared by the CLI
// and the engine: defaults, config file discovery and source validation.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/leapstack-labs/leapml/pkg/source"
)

// ValidateSource checks that the source type is registered and that the
// collection to ingest is named.
func ValidateSource(s *core.SourceConfig) error {
	if s == nil || s.Type == "" {
		return fmt.Errorf("source type is required")
	}

	// Use source registry as single source of truth
	s.Type = strings.ToLower(s.Type)
	if !source.IsRegistered(s.Type) {
		return &source.UnknownSourceError{
			Type:      s.Type,
			Available: source.List(),
		}
	}

	if s.Collection == "" {
		return fmt.Errorf("source collection is required")
	}
	return nil
}

// FileBased reports whether the source reads a local file or directory,
// so its URI can be resolved against the project root.
func FileBased(sourceType string) bool {
	switch sourceType {
	case "duckdb", "sqlite", "jsonl":
		return true
	}
	return false
}
