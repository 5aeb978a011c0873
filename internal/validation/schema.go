// Package validation checks ingested splits against the declared schema and
// reports distribution drift between train and test.
package validation

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapml/internal/frame"
	"gopkg.in/yaml.v3"
)

// Column is one declared column. Type is informational except that the
// numeric types (int*, float*, number) require parseable numbers.
type Column struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Numeric reports whether the declared type requires numeric cells.
func (c Column) Numeric() bool {
	t := strings.ToLower(c.Type)
	return strings.HasPrefix(t, "int") || strings.HasPrefix(t, "float") || t == "number"
}

// UnmarshalYAML accepts "name", {name: type} or {name: ..., type: ...}.
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		c.Name = node.Value
		return nil
	case yaml.MappingNode:
		var full struct {
			Name string `yaml:"name"`
			Type string `yaml:"type"`
		}
		if err := node.Decode(&full); err == nil && full.Name != "" {
			c.Name, c.Type = full.Name, full.Type
			return nil
		}
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: column must be a name or a single name: type pair", node.Line)
		}
		c.Name = node.Content[0].Value
		c.Type = node.Content[1].Value
		return nil
	default:
		return fmt.Errorf("line %d: invalid column declaration", node.Line)
	}
}

// SchemaSpec is the declared layout of the dataset.
type SchemaSpec struct {
	Version string   `yaml:"version,omitempty" json:"version,omitempty"`
	Target  string   `yaml:"target,omitempty" json:"target,omitempty"`
	Columns []Column `yaml:"columns" json:"columns"`
}

// Names returns the declared column names in declaration order.
func (s SchemaSpec) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// LoadSchema reads a schema file.
func LoadSchema(path string) (SchemaSpec, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return SchemaSpec{}, fmt.Errorf("failed to read schema: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes a YAML schema document.
func ParseSchema(data []byte) (SchemaSpec, error) {
	var s SchemaSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return SchemaSpec{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	if len(s.Columns) == 0 {
		return SchemaSpec{}, fmt.Errorf("schema declares no columns")
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return SchemaSpec{}, fmt.Errorf("schema column with empty name")
		}
		if seen[c.Name] {
			return SchemaSpec{}, fmt.Errorf("schema column %q declared twice", c.Name)
		}
		seen[c.Name] = true
	}
	if s.Target != "" && !seen[s.Target] {
		return SchemaSpec{}, fmt.Errorf("target %q is not a declared column", s.Target)
	}
	return s, nil
}

// ValidateColumns reports whether t has exactly the declared columns: the
// same count and every declared name present. Column order is not checked.
func ValidateColumns(t *frame.Table, schema SchemaSpec) bool {
	if len(t.Columns) != len(schema.Columns) {
		return false
	}
	for _, c := range schema.Columns {
		if !slices.Contains(t.Columns, c.Name) {
			return false
		}
	}
	return true
}

// CheckSchema explains why t does not match schema, or returns nil. Beyond
// ValidateColumns it requires numeric columns to parse as numbers.
func CheckSchema(t *frame.Table, schema SchemaSpec) error {
	if !ValidateColumns(t, schema) {
		var missing, extra []string
		for _, c := range schema.Columns {
			if !t.HasColumn(c.Name) {
				missing = append(missing, c.Name)
			}
		}
		names := schema.Names()
		for _, c := range t.Columns {
			if !slices.Contains(names, c) {
				extra = append(extra, c)
			}
		}
		return fmt.Errorf("expected %d columns, found %d (missing %v, unexpected %v)",
			len(schema.Columns), len(t.Columns), missing, extra)
	}
	for _, c := range schema.Columns {
		if !c.Numeric() {
			continue
		}
		if _, err := t.Float64s(c.Name); err != nil {
			return err
		}
	}
	return nil
}
