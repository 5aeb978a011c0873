package testutil

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/leapstack-labs/leapml/pkg/core"
)

// LabelColumn is the target column produced by SyntheticDocuments.
const LabelColumn = "Result"

// FeatureColumns are the feature columns produced by SyntheticDocuments.
var FeatureColumns = []string{"having_ip", "url_length", "ssl_state", "web_traffic"}

// SchemaColumns returns the five declared columns of the synthetic dataset.
func SchemaColumns() []string {
	return append(append([]string(nil), FeatureColumns...), LabelColumn)
}

// SyntheticDocuments returns n records with an "_id" column, four numeric
// features and a binary label. Class 1 rows are shifted so the classes are
// separable by most models.
func SyntheticDocuments(n int, seed int64) []core.Document {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test data
	docs := make([]core.Document, n)
	for i := range docs {
		label := int64(i % 2)
		shift := float64(label) * 2
		docs[i] = core.Document{
			{Key: "_id", Value: fmt.Sprintf("id-%03d", i)},
			{Key: "having_ip", Value: rng.NormFloat64() + shift},
			{Key: "url_length", Value: rng.NormFloat64() - shift},
			{Key: "ssl_state", Value: rng.NormFloat64()*0.5 + shift},
			{Key: "web_traffic", Value: rng.Float64()},
			{Key: LabelColumn, Value: label},
		}
	}
	return docs
}

// MemorySource serves a fixed document set. It satisfies source.Source.
type MemorySource struct {
	Docs     []core.Document
	FetchErr error
	Fetches  int
	Closed   bool
}

// Connect is a no-op.
func (m *MemorySource) Connect(context.Context, core.SourceConfig) error { return nil }

// Fetch returns the configured documents or error.
func (m *MemorySource) Fetch(context.Context, string, string) ([]core.Document, error) {
	m.Fetches++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Docs, nil
}

// Close marks the source closed.
func (m *MemorySource) Close() error {
	m.Closed = true
	return nil
}
