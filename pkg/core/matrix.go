package core

import "fmt"

// FeatureMatrix is the numeric hand-off between the transformer and the selector.
// Features and Label are kept apart so no stage has to rely on column position.
type FeatureMatrix struct {
	Columns  []string
	Features [][]float64
	Label    []float64
}

// Rows returns the number of samples.
func (m FeatureMatrix) Rows() int {
	return len(m.Features)
}

// Validate checks that the matrix is rectangular and labels line up with rows.
func (m FeatureMatrix) Validate() error {
	if len(m.Features) != len(m.Label) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ", len(m.Features), len(m.Label))
	}
	for i, row := range m.Features {
		if len(row) != len(m.Columns) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(m.Columns))
		}
	}
	return nil
}

// Subset returns the rows at idx. Row slices are shared, not copied.
func (m FeatureMatrix) Subset(idx []int) FeatureMatrix {
	out := FeatureMatrix{
		Columns:  m.Columns,
		Features: make([][]float64, len(idx)),
		Label:    make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.Features[i] = m.Features[j]
		out.Label[i] = m.Label[j]
	}
	return out
}

// Stacked returns the matrix with the label appended as the last column.
func (m FeatureMatrix) Stacked() [][]float64 {
	out := make([][]float64, len(m.Features))
	for i, row := range m.Features {
		r := make([]float64, len(row)+1)
		copy(r, row)
		r[len(row)] = m.Label[i]
		out[i] = r
	}
	return out
}
