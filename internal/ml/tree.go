package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split criteria.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
	CriterionLogLoss = "log_loss"
)

// DecisionTree is a CART classifier. The fitted tree is stored as a flat
// node slice so it encodes with gob.
type DecisionTree struct {
	Criterion           string  `mapstructure:"criterion"`
	MaxDepth            int     `mapstructure:"max_depth"` // 0 means unlimited
	MinSamplesSplit     int     `mapstructure:"min_samples_split"`
	MinSamplesLeaf      int     `mapstructure:"min_samples_leaf"`
	MaxFeatures         int     `mapstructure:"max_features"` // 0 means all features
	MinImpurityDecrease float64 `mapstructure:"min_impurity_decrease"`
	Seed                int64   `mapstructure:"random_state"`

	Classes  []float64
	Features int
	Nodes    []TreeNode
}

// TreeNode is one node of a fitted tree. Rows with x[Feature] <= Threshold go
// to Left.
type TreeNode struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Probs     []float64
}

// NewDecisionTree returns a tree with the usual defaults.
func NewDecisionTree() *DecisionTree {
	return &DecisionTree{
		Criterion:       CriterionGini,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// Fit grows the tree with uniform sample weights.
func (t *DecisionTree) Fit(x [][]float64, y []float64) error {
	return t.FitWeighted(x, y, nil)
}

// FitWeighted grows the tree with per-sample weights (nil means uniform).
func (t *DecisionTree) FitWeighted(x [][]float64, y, w []float64) error {
	return t.fit(x, y, w, nil)
}

// fit grows the tree. classes overrides the label set so that trees grown
// on bootstrap samples agree on probability layout.
func (t *DecisionTree) fit(x [][]float64, y, w, classes []float64) error {
	p, err := checkTrainingSet(x, y)
	if err != nil {
		return fmt.Errorf("decision tree: %w", err)
	}
	switch t.Criterion {
	case "", CriterionGini, CriterionEntropy, CriterionLogLoss:
	default:
		return fmt.Errorf("decision tree: unknown criterion %q", t.Criterion)
	}
	if w == nil {
		w = make([]float64, len(y))
		for i := range w {
			w[i] = 1
		}
	}
	if classes == nil {
		classes = classesOf(y)
	}

	t.Classes = classes
	t.Features = p
	t.Nodes = t.Nodes[:0]

	b := &treeBuilder{
		tree:     t,
		x:        x,
		y:        encode(y, classes),
		w:        w,
		k:        len(classes),
		rng:      rand.New(rand.NewSource(t.Seed)), //nolint:gosec // reproducible feature sampling
		minLeaf:  max(t.MinSamplesLeaf, 1),
		minSplit: max(t.MinSamplesSplit, 2),
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	b.build(idx, 0)
	return nil
}

// Predict returns the most probable class of each row.
func (t *DecisionTree) Predict(x [][]float64) ([]float64, error) {
	probs, err := t.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, p := range probs {
		out[i] = t.Classes[argmax(p)]
	}
	return out, nil
}

// PredictProba returns class probabilities aligned with Classes.
func (t *DecisionTree) PredictProba(x [][]float64) ([][]float64, error) {
	if len(t.Nodes) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkRows(x, t.Features); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = t.leaf(row).Probs
	}
	return out, nil
}

func (t *DecisionTree) leaf(row []float64) *TreeNode {
	n := &t.Nodes[0]
	for !n.Leaf {
		if row[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n
}

// Depth returns the depth of the fitted tree (a single leaf has depth 0).
func (t *DecisionTree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

type treeBuilder struct {
	tree     *DecisionTree
	x        [][]float64
	y        []int
	w        []float64
	k        int
	rng      *rand.Rand
	minLeaf  int
	minSplit int
}

func (b *treeBuilder) counts(idx []int) ([]float64, float64) {
	c := make([]float64, b.k)
	total := 0.0
	for _, i := range idx {
		c[b.y[i]] += b.w[i]
		total += b.w[i]
	}
	return c, total
}

func (b *treeBuilder) impurity(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	switch b.tree.Criterion {
	case CriterionEntropy, CriterionLogLoss:
		h := 0.0
		for _, c := range counts {
			if c > 0 {
				p := c / total
				h -= p * math.Log2(p)
			}
		}
		return h
	default:
		g := 1.0
		for _, c := range counts {
			p := c / total
			g -= p * p
		}
		return g
	}
}

func (b *treeBuilder) leaf(counts []float64, total float64) int {
	probs := make([]float64, b.k)
	for i, c := range counts {
		if total > 0 {
			probs[i] = c / total
		}
	}
	b.tree.Nodes = append(b.tree.Nodes, TreeNode{Leaf: true, Probs: probs})
	return len(b.tree.Nodes) - 1
}

func (b *treeBuilder) build(idx []int, depth int) int {
	counts, total := b.counts(idx)
	parent := b.impurity(counts, total)

	if parent == 0 || len(idx) < b.minSplit ||
		(b.tree.MaxDepth > 0 && depth >= b.tree.MaxDepth) {
		return b.leaf(counts, total)
	}

	feature, threshold, gain, ok := b.bestSplit(idx, parent, total)
	if !ok || gain <= 0 || gain < b.tree.MinImpurityDecrease {
		return b.leaf(counts, total)
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	self := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, TreeNode{Feature: feature, Threshold: threshold})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.Nodes[self].Left = l
	b.tree.Nodes[self].Right = r
	return self
}

// bestSplit scans every candidate threshold of the sampled features and
// returns the one with the largest weighted impurity decrease.
func (b *treeBuilder) bestSplit(idx []int, parent, total float64) (int, float64, float64, bool) {
	p := len(b.x[0])
	features := b.rng.Perm(p)
	if m := b.tree.MaxFeatures; m > 0 && m < p {
		features = features[:m]
	}
	sort.Ints(features)

	bestFeature, bestThreshold, bestGain := -1, 0.0, math.Inf(-1)
	sorted := make([]int, len(idx))

	for _, f := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		left := make([]float64, b.k)
		right, _ := b.counts(sorted)
		leftW, rightW := 0.0, total

		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			left[b.y[i]] += b.w[i]
			right[b.y[i]] -= b.w[i]
			leftW += b.w[i]
			rightW -= b.w[i]

			v, next := b.x[i][f], b.x[sorted[pos+1]][f]
			if v == next {
				continue
			}
			nLeft := pos + 1
			if nLeft < b.minLeaf || len(sorted)-nLeft < b.minLeaf {
				continue
			}

			child := (leftW*b.impurity(left, leftW) + rightW*b.impurity(right, rightW)) / total
			gain := parent - child
			if gain > bestGain {
				bestFeature, bestThreshold, bestGain = f, v+(next-v)/2, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain, bestFeature >= 0
}
