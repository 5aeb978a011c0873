// Package transform fits the numeric preprocessing (imputation then scaling)
// on the train split and applies it to both splits.
package transform

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Imputer strategies.
const (
	ImputeKNN    = "knn"
	ImputeMedian = "median"
	ImputeMean   = "mean"
)

// Scaler strategies.
const (
	ScaleNone     = "none"
	ScaleStandard = "standard"
	ScaleMinMax   = "minmax"
	ScaleRobust   = "robust"
)

// Options selects the preprocessing strategies.
type Options struct {
	Imputer   string `koanf:"imputer"`
	Neighbors int    `koanf:"neighbors"`
	Scaler    string `koanf:"scaler"`
}

func (o Options) withDefaults() Options {
	if o.Imputer == "" {
		o.Imputer = ImputeKNN
	}
	if o.Neighbors <= 0 {
		o.Neighbors = 3
	}
	if o.Scaler == "" {
		o.Scaler = ScaleStandard
	}
	return o
}

// Preprocessor is a fitted imputer followed by a fitted scaler. Its fields
// are exported so it can be persisted with encoding/gob.
type Preprocessor struct {
	Columns []string
	Options Options

	// Fill holds per-column replacement values for median/mean imputation.
	Fill []float64
	// Reference holds the train rows the knn imputer draws neighbours from.
	Reference [][]float64

	// Scaled value is (x - Center[j]) / Scale[j].
	Center []float64
	Scale  []float64
}

// Fit learns imputation and scaling parameters from x. NaN marks a missing
// value. Fit never sees anything but the rows it is given.
func Fit(columns []string, x [][]float64, opts Options) (*Preprocessor, error) {
	opts = opts.withDefaults()
	if len(x) == 0 {
		return nil, errors.New("cannot fit preprocessor on zero rows")
	}
	width := len(columns)
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), width)
		}
	}

	p := &Preprocessor{Columns: slices.Clone(columns), Options: opts}

	cols := make([][]float64, width)
	for j := range cols {
		cols[j] = presentValues(x, j)
		if len(cols[j]) == 0 {
			return nil, fmt.Errorf("column %q has no observed values", columns[j])
		}
	}

	switch opts.Imputer {
	case ImputeKNN:
		p.Reference = make([][]float64, len(x))
		for i, row := range x {
			p.Reference[i] = slices.Clone(row)
		}
	case ImputeMedian, ImputeMean:
		p.Fill = make([]float64, width)
		for j, c := range cols {
			if opts.Imputer == ImputeMedian {
				p.Fill[j] = quantile(c, 0.5)
			} else {
				p.Fill[j] = stat.Mean(c, nil)
			}
		}
	default:
		return nil, fmt.Errorf("unknown imputer %q", opts.Imputer)
	}

	imputed, err := p.impute(x)
	if err != nil {
		return nil, err
	}

	p.Center = make([]float64, width)
	p.Scale = make([]float64, width)
	for j := 0; j < width; j++ {
		c := column(imputed, j)
		switch opts.Scaler {
		case ScaleNone:
			p.Center[j], p.Scale[j] = 0, 1
		case ScaleStandard:
			p.Center[j], p.Scale[j] = stat.PopMeanStdDev(c, nil)
		case ScaleMinMax:
			p.Center[j] = floats.Min(c)
			p.Scale[j] = floats.Max(c) - p.Center[j]
		case ScaleRobust:
			p.Center[j] = quantile(c, 0.5)
			p.Scale[j] = quantile(c, 0.75) - quantile(c, 0.25)
		default:
			return nil, fmt.Errorf("unknown scaler %q", opts.Scaler)
		}
		if p.Scale[j] == 0 || math.IsNaN(p.Scale[j]) {
			p.Scale[j] = 1
		}
	}
	return p, nil
}

// Transform imputes and scales x with the fitted parameters. x is not modified.
func (p *Preprocessor) Transform(x [][]float64) ([][]float64, error) {
	out, err := p.impute(x)
	if err != nil {
		return nil, err
	}
	for _, row := range out {
		for j := range row {
			row[j] = (row[j] - p.Center[j]) / p.Scale[j]
		}
	}
	return out, nil
}

// Bounds returns the per-column (min, max) the min-max scaler was fitted on.
// ok is false for other scalers.
func (p *Preprocessor) Bounds() (lo, hi []float64, ok bool) {
	if p.Options.Scaler != ScaleMinMax {
		return nil, nil, false
	}
	lo = slices.Clone(p.Center)
	hi = make([]float64, len(lo))
	for j := range lo {
		hi[j] = lo[j] + p.Scale[j]
	}
	return lo, hi, true
}

func (p *Preprocessor) impute(x [][]float64) ([][]float64, error) {
	width := len(p.Columns)
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), width)
		}
		r := slices.Clone(row)
		for j, v := range r {
			if !math.IsNaN(v) {
				continue
			}
			if p.Options.Imputer == ImputeKNN {
				r[j] = p.knnValue(row, j)
			} else {
				r[j] = p.Fill[j]
			}
		}
		out[i] = r
	}
	return out, nil
}

// knnValue averages feature j over the nearest reference rows that observe
// it, using the NaN-aware euclidean distance.
func (p *Preprocessor) knnValue(row []float64, j int) float64 {
	type cand struct {
		dist  float64
		value float64
	}
	var cands []cand
	for _, ref := range p.Reference {
		if math.IsNaN(ref[j]) {
			continue
		}
		d, ok := nanEuclidean(row, ref)
		if !ok {
			continue
		}
		cands = append(cands, cand{d, ref[j]})
	}
	if len(cands) == 0 {
		// No comparable neighbour; fall back to the column mean.
		return stat.Mean(presentValues(p.Reference, j), nil)
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })
	k := min(p.Options.Neighbors, len(cands))
	sum := 0.0
	for _, c := range cands[:k] {
		sum += c.value
	}
	return sum / float64(k)
}

// nanEuclidean is sqrt(n/present * sum of squared differences over the
// coordinates observed in both rows). ok is false when no coordinate is shared.
func nanEuclidean(a, b []float64) (float64, bool) {
	sum, present := 0.0, 0
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sum += d * d
		present++
	}
	if present == 0 {
		return 0, false
	}
	return math.Sqrt(float64(len(a)) / float64(present) * sum), true
}

func presentValues(x [][]float64, j int) []float64 {
	out := make([]float64, 0, len(x))
	for _, row := range x {
		if !math.IsNaN(row[j]) {
			out = append(out, row[j])
		}
	}
	return out
}

func column(x [][]float64, j int) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = row[j]
	}
	return out
}

// quantile uses linear interpolation between order statistics.
func quantile(v []float64, q float64) float64 {
	s := slices.Clone(v)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}
