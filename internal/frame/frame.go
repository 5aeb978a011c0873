// Package frame provides the in-memory tabular dataset passed between the
// ingestion, validation and transformation stages, plus its CSV persistence.
package frame

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapml/pkg/core"
)

// Table is a row-oriented table of string cells with named columns.
// An empty cell is a missing value.
type Table struct {
	Columns []string
	Rows    [][]string
}

// missingTokens are cell values treated as missing, compared case-insensitively.
var missingTokens = []string{"", "na", "nan", "null", "none", "<nil>"}

// IsMissing reports whether a cell holds a missing value.
func IsMissing(cell string) bool {
	return slices.Contains(missingTokens, strings.ToLower(strings.TrimSpace(cell)))
}

// FromDocuments builds a table from source documents. Columns appear in
// first-seen order; fields absent from a document become missing cells.
func FromDocuments(docs []core.Document) *Table {
	t := &Table{}
	index := make(map[string]int)
	for _, doc := range docs {
		for _, f := range doc {
			if _, ok := index[f.Key]; !ok {
				index[f.Key] = len(t.Columns)
				t.Columns = append(t.Columns, f.Key)
			}
		}
	}

	t.Rows = make([][]string, len(docs))
	for i, doc := range docs {
		row := make([]string, len(t.Columns))
		for _, f := range doc {
			row[index[f.Key]] = FormatValue(f.Value)
		}
		t.Rows[i] = row
	}
	return t
}

// FormatValue renders a heterogeneous source value as a cell.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		if math.IsNaN(float64(x)) {
			return ""
		}
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint8, uint16, uint32, uint64, int8, int16, uint:
		return fmt.Sprintf("%d", x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// HasColumn reports whether the table has a column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// DropColumns returns a copy of the table without the named columns.
// Names that are not present are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	keep := make([]int, 0, len(t.Columns))
	out := &Table{}
	for i, c := range t.Columns {
		if slices.Contains(names, c) {
			continue
		}
		keep = append(keep, i)
		out.Columns = append(out.Columns, c)
	}

	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(keep))
		for j, i := range keep {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// DropMissing returns a copy of the table without rows that hold any missing cell,
// along with the number of dropped rows.
func (t *Table) DropMissing() (*Table, int) {
	out := &Table{Columns: slices.Clone(t.Columns)}
	dropped := 0
	for _, row := range t.Rows {
		if slices.ContainsFunc(row, IsMissing) {
			dropped++
			continue
		}
		out.Rows = append(out.Rows, slices.Clone(row))
	}
	return out, dropped
}

// Take returns the rows at idx, in that order.
func (t *Table) Take(idx []int) *Table {
	out := &Table{Columns: slices.Clone(t.Columns), Rows: make([][]string, len(idx))}
	for i, j := range idx {
		out.Rows[i] = slices.Clone(t.Rows[j])
	}
	return out
}

// Column returns the raw cells of a column.
func (t *Table) Column(name string) ([]string, error) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Float64s parses a column as numbers. Missing cells become NaN.
func (t *Table) Float64s(name string) ([]float64, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for r, c := range cells {
		if IsMissing(c) {
			out[r] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %q is not numeric", name, r, c)
		}
		out[r] = v
	}
	return out, nil
}

// NumericColumns reports which columns parse as numbers for every non-missing cell.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if _, err := t.Float64s(c); err == nil {
			out = append(out, c)
		}
	}
	return out
}
