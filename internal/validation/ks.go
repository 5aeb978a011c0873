package validation

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// KSResult is the outcome of a two-sample Kolmogorov-Smirnov test.
type KSResult struct {
	Statistic float64
	PValue    float64
}

// KSTest runs the two-sample Kolmogorov-Smirnov test. NaN values are
// ignored. An empty sample yields statistic 0 and p-value 1.
func KSTest(x, y []float64) KSResult {
	a, b := sortedFinite(x), sortedFinite(y)
	if len(a) == 0 || len(b) == 0 {
		return KSResult{Statistic: 0, PValue: 1}
	}

	d := stat.KolmogorovSmirnov(a, nil, b, nil)
	n, m := float64(len(a)), float64(len(b))
	en := math.Sqrt(n * m / (n + m))
	return KSResult{
		Statistic: d,
		PValue:    kolmogorovQ((en + 0.12 + 0.11/en) * d),
	}
}

// kolmogorovQ is the survival function of the Kolmogorov distribution,
// Q(l) = 2 * sum_{j>=1} (-1)^(j-1) exp(-2 j^2 l^2).
func kolmogorovQ(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	const eps1, eps2 = 1e-3, 1e-8

	a2 := -2 * lambda * lambda
	fac, sum, prev := 2.0, 0.0, 0.0
	for j := 1; j <= 100; j++ {
		term := fac * math.Exp(a2*float64(j*j))
		sum += term
		if math.Abs(term) <= eps1*prev || math.Abs(term) <= eps2*sum {
			return math.Min(math.Max(sum, 0), 1)
		}
		fac = -fac
		prev = math.Abs(term)
	}
	// The series does not converge for very small lambda, where Q is 1.
	return 1
}

func sortedFinite(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, f := range v {
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}
