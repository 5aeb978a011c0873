package state

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapml/internal/state/sqlcgen"
	"github.com/leapstack-labs/leapml/pkg/core"
)

// Report stores a metric report. It makes the store usable as the
// selector's metrics sink.
func (s *SQLiteStore) Report(ctx context.Context, r core.MetricReport) error {
	if s.db == nil {
		return fmt.Errorf("%w: database not opened", core.ErrSink)
	}

	err := s.queries.InsertTrackedMetric(ctx, sqlcgen.InsertTrackedMetricParams{
		ID:        generateID(),
		RunName:   r.RunName,
		Split:     r.Split,
		ModelName: r.ModelName,
		F1Score:   r.F1Score,
		Precision: r.Precision,
		Recall:    r.Recall,
		Artifact:  r.Artifact,
		CreatedAt: formatTime(time.Now()),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to store metrics: %w", core.ErrSink, err)
	}
	return nil
}

// ListMetrics returns the metric reports of a run in insertion order.
func (s *SQLiteStore) ListMetrics(runName string) ([]*core.TrackedMetrics, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.queries.ListTrackedMetrics(ctx(), runName)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	out := make([]*core.TrackedMetrics, 0, len(rows))
	for _, row := range rows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &core.TrackedMetrics{
			ID:        row.ID,
			RunName:   row.RunName,
			Split:     row.Split,
			ModelName: row.ModelName,
			F1Score:   row.F1Score,
			Precision: row.Precision,
			Recall:    row.Recall,
			Artifact:  row.Artifact,
			CreatedAt: createdAt,
		})
	}
	return out, nil
}
