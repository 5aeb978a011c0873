package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/leapml/internal/frame"
	"gopkg.in/yaml.v3"
)

// DefaultSignificance is the p-value below which a column counts as drifted.
const DefaultSignificance = 0.05

// ColumnDrift is the test outcome for one column.
type ColumnDrift struct {
	Statistic float64 `yaml:"statistic" json:"statistic"`
	PValue    float64 `yaml:"p_value" json:"p_value"`
	Drifted   bool    `yaml:"drift_status" json:"drift_status"`
	// Skipped is set for columns that are not numeric in both splits.
	Skipped bool `yaml:"skipped,omitempty" json:"skipped,omitempty"`
}

// DriftReport maps every shared column to its test result.
type DriftReport struct {
	Threshold     float64                `yaml:"threshold" json:"threshold"`
	DriftDetected bool                   `yaml:"drift_detected" json:"drift_detected"`
	Columns       map[string]ColumnDrift `yaml:"columns" json:"columns"`
}

// DriftedColumns returns the names of drifted columns, sorted.
func (r DriftReport) DriftedColumns() []string {
	var out []string
	for name, c := range r.Columns {
		if c.Drifted {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// DetectDrift tests every column present in both tables. A threshold <= 0
// means DefaultSignificance. passed is true when no column drifted.
func DetectDrift(train, test *frame.Table, threshold float64) (DriftReport, bool) {
	if threshold <= 0 {
		threshold = DefaultSignificance
	}
	report := DriftReport{Threshold: threshold, Columns: make(map[string]ColumnDrift)}

	for _, name := range train.Columns {
		if !test.HasColumn(name) {
			continue
		}
		x, errX := train.Float64s(name)
		y, errY := test.Float64s(name)
		if errX != nil || errY != nil {
			report.Columns[name] = ColumnDrift{PValue: 1, Skipped: true}
			continue
		}
		res := KSTest(x, y)
		drifted := res.PValue < threshold
		report.Columns[name] = ColumnDrift{Statistic: res.Statistic, PValue: res.PValue, Drifted: drifted}
		if drifted {
			report.DriftDetected = true
		}
	}
	return report, !report.DriftDetected
}

// WriteReport persists the report as YAML, creating parent directories.
func WriteReport(path string, report DriftReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode drift report: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write drift report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (DriftReport, error) {
	data, err := os.ReadFile(path) //nolint:gosec // artifact path
	if err != nil {
		return DriftReport{}, fmt.Errorf("failed to read drift report: %w", err)
	}
	var r DriftReport
	if err := yaml.Unmarshal(data, &r); err != nil {
		return DriftReport{}, fmt.Errorf("failed to parse drift report: %w", err)
	}
	return r, nil
}
