// Package tracking provides metrics sinks for selected-model reports.
// Sinks never fail a run: errors are wrapped with core.ErrSink and the
// selector logs them.
package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapml/pkg/core"
)

// Noop discards every report.
type Noop struct{}

// Report implements core.MetricsSink.
func (Noop) Report(context.Context, core.MetricReport) error { return nil }

// Multi fans a report out to several sinks. Every sink is called even when
// an earlier one fails.
type Multi []core.MetricsSink

// Report implements core.MetricsSink.
func (m Multi) Report(ctx context.Context, r core.MetricReport) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", core.ErrSink, errors.Join(errs...))
}
