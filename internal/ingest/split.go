package ingest

import (
	"math"
	"math/rand"
	"sort"
)

// TestSize returns the number of test rows for n rows at ratio: ceil(ratio*n),
// kept within [0, n].
func TestSize(n int, ratio float64) int {
	if n <= 0 || ratio <= 0 {
		return 0
	}
	k := int(math.Ceil(ratio * float64(n)))
	if k > n {
		k = n
	}
	return k
}

// Split shuffles row indices with a seeded generator and returns the train
// and test index sets, each in ascending row order. The same n, ratio and
// seed always produce the same partition.
func Split(n int, ratio float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // reproducible split, not security
	k := TestSize(n, ratio)

	test = append([]int(nil), perm[:k]...)
	train = append([]int(nil), perm[k:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test
}
