package validation

import (
	"context"
	"math/rand"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/leapstack-labs/leapml/internal/frame"
	"github.com/leapstack-labs/leapml/internal/testutil"
	"github.com/leapstack-labs/leapml/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema(t *testing.T) {
	data := []byte(`
version: "1"
target: Result
columns:
  - having_ip: int64
  - name: url_length
    type: float64
  - ssl_state
  - Result: int64
`)
	s, err := ParseSchema(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"having_ip", "url_length", "ssl_state", "Result"}, s.Names())
	assert.True(t, s.Columns[0].Numeric())
	assert.True(t, s.Columns[1].Numeric())
	assert.False(t, s.Columns[2].Numeric())

	_, err = ParseSchema([]byte("columns: []"))
	assert.Error(t, err)
	_, err = ParseSchema([]byte("columns: [a, a]"))
	assert.Error(t, err)
	_, err = ParseSchema([]byte("target: z\ncolumns: [a]"))
	assert.Error(t, err)
}

func TestValidateColumns(t *testing.T) {
	schema := SchemaSpec{Columns: []Column{{Name: "a"}, {Name: "b"}, {Name: "c"}}}

	tests := []struct {
		name    string
		columns []string
		want    bool
	}{
		{"exact", []string{"a", "b", "c"}, true},
		{"reordered", []string{"c", "a", "b"}, true},
		{"renamed same count", []string{"a", "b", "x"}, false},
		{"missing", []string{"a", "b"}, false},
		{"extra", []string{"a", "b", "c", "d"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateColumns(&frame.Table{Columns: tt.columns}, schema))
		})
	}
}

func TestCheckSchema_NumericColumns(t *testing.T) {
	schema := SchemaSpec{Columns: []Column{{Name: "a", Type: "float64"}, {Name: "b"}}}
	ok := &frame.Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1.5", "x"}}}
	bad := &frame.Table{Columns: []string{"a", "b"}, Rows: [][]string{{"abc", "x"}}}

	assert.NoError(t, CheckSchema(ok, schema))
	assert.Error(t, CheckSchema(bad, schema))
}

func TestKSTest(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	same := KSTest(x, x)
	assert.Zero(t, same.Statistic)
	assert.InDelta(t, 1.0, same.PValue, 1e-9)

	shifted := make([]float64, len(x))
	for i, v := range x {
		shifted[i] = v + 100
	}
	far := KSTest(x, shifted)
	assert.InDelta(t, 1.0, far.Statistic, 1e-9)
	assert.Less(t, far.PValue, 0.05)

	empty := KSTest(nil, x)
	assert.Equal(t, 1.0, empty.PValue)
}

func TestKolmogorovQ(t *testing.T) {
	assert.Equal(t, 1.0, kolmogorovQ(0))
	assert.InDelta(t, 1.0, kolmogorovQ(0.1), 1e-6)
	// Known value Q(1.0) ~ 0.26999967.
	assert.InDelta(t, 0.27, kolmogorovQ(1.0), 1e-3)
	assert.Less(t, kolmogorovQ(3), 1e-6)
}

func TestDetectDrift(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	train := &frame.Table{Columns: []string{"stable", "shifted", "label"}}
	for i := 0; i < 200; i++ {
		train.Rows = append(train.Rows, []string{
			fmtF(rng.NormFloat64()), fmtF(rng.NormFloat64()), "a",
		})
	}

	identical, passed := DetectDrift(train, train, 0)
	assert.True(t, passed)
	assert.False(t, identical.DriftDetected)
	assert.Equal(t, DefaultSignificance, identical.Threshold)
	for _, name := range []string{"stable", "shifted"} {
		assert.InDelta(t, 1.0, identical.Columns[name].PValue, 1e-9)
		assert.False(t, identical.Columns[name].Drifted)
	}
	assert.True(t, identical.Columns["label"].Skipped)

	test := &frame.Table{Columns: train.Columns}
	for _, r := range train.Rows {
		v, _ := strconv.ParseFloat(r[1], 64)
		test.Rows = append(test.Rows, []string{r[0], fmtF(v + 5), r[2]})
	}

	report, passed := DetectDrift(train, test, 0.05)
	assert.False(t, passed)
	assert.True(t, report.DriftDetected)
	assert.Less(t, report.Columns["shifted"].PValue, 0.05)
	assert.False(t, report.Columns["stable"].Drifted)
	assert.Equal(t, []string{"shifted"}, report.DriftedColumns())
}

func TestValidator(t *testing.T) {
	dir := t.TempDir()
	docs := testutil.SyntheticDocuments(60, 2)
	table := frame.FromDocuments(docs).DropColumns("_id")
	train := table.Take(seq(0, 40))
	test := table.Take(seq(40, 60))

	in := core.IngestionArtifact{
		TrainPath: filepath.Join(dir, "train.csv"),
		TestPath:  filepath.Join(dir, "test.csv"),
	}
	require.NoError(t, frame.WriteCSV(in.TrainPath, train))
	require.NoError(t, frame.WriteCSV(in.TestPath, test))

	paths := Paths{
		ValidTrain:  filepath.Join(dir, "validated", "train.csv"),
		ValidTest:   filepath.Join(dir, "validated", "test.csv"),
		DriftReport: filepath.Join(dir, "drift_report", "report.yaml"),
	}
	schema := SchemaSpec{}
	for _, c := range testutil.SchemaColumns() {
		schema.Columns = append(schema.Columns, Column{Name: c, Type: "float64"})
	}

	t.Run("passes", func(t *testing.T) {
		art, err := New(Config{Schema: schema}, paths, testutil.NewTestLogger(t)).Validate(context.Background(), in)
		require.NoError(t, err)
		assert.FileExists(t, art.ValidTrainPath)
		assert.FileExists(t, art.ValidTestPath)
		assert.Empty(t, art.InvalidTrainPath)
		assert.Empty(t, art.InvalidTestPath)

		report, err := ReadReport(art.DriftReportPath)
		require.NoError(t, err)
		assert.Len(t, report.Columns, len(schema.Columns))
	})

	t.Run("schema mismatch stops before drift", func(t *testing.T) {
		p := paths
		p.DriftReport = filepath.Join(dir, "mismatch", "report.yaml")
		p.ValidTrain = filepath.Join(dir, "mismatch", "train.csv")
		bad := SchemaSpec{Columns: append(append([]Column(nil), schema.Columns[:4]...), Column{Name: "other"})}

		_, err := New(Config{Schema: bad}, p, nil).Validate(context.Background(), in)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrSchemaMismatch)
		assert.ErrorContains(t, err, "train split")
		stage, _ := core.StageOf(err)
		assert.Equal(t, core.StageValidation, stage)

		assert.NoFileExists(t, p.DriftReport)
		assert.NoFileExists(t, p.ValidTrain)
	})

	t.Run("test split mismatch stops before drift", func(t *testing.T) {
		renamed := frame.FromDocuments(docs).DropColumns("_id").Take(seq(40, 60))
		renamed.Columns[0] = "has_ip"
		bad := in
		bad.TestPath = filepath.Join(dir, "renamed", "test.csv")
		require.NoError(t, frame.WriteCSV(bad.TestPath, renamed))

		p := paths
		p.DriftReport = filepath.Join(dir, "renamed", "report.yaml")

		_, err := New(Config{Schema: schema}, p, nil).Validate(context.Background(), bad)
		assert.ErrorIs(t, err, core.ErrSchemaMismatch)
		assert.ErrorContains(t, err, "test split")
		assert.NoFileExists(t, p.DriftReport)
	})

	t.Run("fail on drift writes report first", func(t *testing.T) {
		shifted := frame.FromDocuments(docs).DropColumns("_id").Take(seq(40, 60))
		for _, r := range shifted.Rows {
			v, err := strconv.ParseFloat(r[1], 64)
			require.NoError(t, err)
			r[1] = fmtF(v + 50)
		}
		drifted := in
		drifted.TestPath = filepath.Join(dir, "drifted", "test.csv")
		require.NoError(t, frame.WriteCSV(drifted.TestPath, shifted))

		p := paths
		p.DriftReport = filepath.Join(dir, "drifted", "report.yaml")
		p.ValidTrain = filepath.Join(dir, "drifted", "valid_train.csv")

		_, err := New(Config{Schema: schema, FailOnDrift: true}, p, nil).Validate(context.Background(), drifted)
		assert.ErrorIs(t, err, core.ErrDriftDetected)

		report, err := ReadReport(p.DriftReport)
		require.NoError(t, err)
		assert.Contains(t, report.DriftedColumns(), shifted.Columns[1])
		assert.NoFileExists(t, p.ValidTrain)
	})

	t.Run("missing split", func(t *testing.T) {
		missing := in
		missing.TestPath = filepath.Join(dir, "nope.csv")
		_, err := New(Config{Schema: schema}, paths, nil).Validate(context.Background(), missing)
		assert.ErrorIs(t, err, core.ErrArtifactMissing)
	})
}

func fmtF(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
