package trainer

import (
	"math/rand"
	"sort"
)

// Expand returns every combination of g. Keys are expanded in sorted order
// with the last key varying fastest, so the order is stable. An empty grid
// yields a single empty combination (model defaults).
func Expand(g Grid) []Params {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []Params{{}}
	for _, k := range keys {
		next := make([]Params, 0, len(out)*len(g[k]))
		for _, base := range out {
			for _, v := range g[k] {
				p := make(Params, len(base)+1)
				for bk, bv := range base {
					p[bk] = bv
				}
				p[k] = v
				next = append(next, p)
			}
		}
		out = next
	}
	return out
}

// fold is one train/validation partition of row indices.
type fold struct {
	train []int
	valid []int
}

// makeFolds shuffles n rows with seed and cuts k contiguous folds. With
// k < 2, or too few rows for k folds, it falls back to a single holdout of
// a fifth of the rows.
func makeFolds(n, k int, seed int64) []fold {
	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // reproducible folds

	if k < 2 || n < 2*k {
		cut := n - max(1, n/5)
		if cut < 1 {
			return []fold{{train: perm, valid: perm}}
		}
		return []fold{{train: perm[:cut], valid: perm[cut:]}}
	}

	folds := make([]fold, k)
	for f := 0; f < k; f++ {
		lo, hi := f*n/k, (f+1)*n/k
		folds[f].valid = append([]int(nil), perm[lo:hi]...)
		folds[f].train = append(append([]int(nil), perm[:lo]...), perm[hi:]...)
	}
	return folds
}
