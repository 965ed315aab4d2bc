// Package tree implements CART decision trees for regression and
// classification, with optional per-split feature subsampling (used by
// random forests) and minimal cost-complexity pruning.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

const pureEps = 1e-12

// node is one tree node. Leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     []float64 // mean target (regression) or class proportions
	nSamples  int
	impurity  float64
}

// cart is a fitted binary tree stored as a flat node slice rooted at 0.
type cart struct {
	nodes     []node
	nFeatures int
}

type builder struct {
	p        params
	cols     [][]float64 // column-major copy of X
	target   []float64   // y for regression, class index for classification
	nClasses int         // 0 for regression
	rng      *rand.Rand
	nodes    []node
}

// columns copies X into column-major slices for fast split sweeps.
func columns(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		col := make([]float64, r)
		for i := 0; i < r; i++ {
			col[i] = X.At(i, j)
		}
		cols[j] = col
	}
	return cols
}

// grow builds a tree over the rows in idx. idx may contain repeated rows
// (bootstrap samples); each occurrence counts as one sample.
func grow(p params, X mat.Matrix, target []float64, nClasses int, idx []int) *cart {
	_, nFeatures := X.Dims()
	b := &builder{
		p:        p,
		cols:     columns(X),
		target:   target,
		nClasses: nClasses,
		rng:      rand.New(rand.NewPCG(uint64(p.randomState), uint64(p.randomState))),
	}
	rows := make([]int, len(idx))
	copy(rows, idx)
	b.build(rows, 0)

	t := &cart{nodes: b.nodes, nFeatures: nFeatures}
	t.prune(p.ccpAlpha, len(idx))
	return t
}

func (b *builder) build(idx []int, depth int) int {
	impurity, value := b.nodeStats(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{
		feature:  -1,
		left:     -1,
		right:    -1,
		value:    value,
		nSamples: len(idx),
		impurity: impurity,
	})

	n := len(idx)
	if (b.p.maxDepth >= 0 && depth >= b.p.maxDepth) ||
		n < b.p.minSamplesSplit ||
		n < 2*b.p.minSamplesLeaf ||
		impurity <= pureEps {
		return id
	}

	feature, threshold, ok := b.findSplit(idx)
	if !ok {
		return id
	}

	left := make([]int, 0, n)
	right := make([]int, 0, n)
	col := b.cols[feature]
	for _, i := range idx {
		if col[i] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id].feature = feature
	b.nodes[id].threshold = threshold
	b.nodes[id].left = l
	b.nodes[id].right = r
	return id
}

func (b *builder) nodeStats(idx []int) (float64, []float64) {
	n := float64(len(idx))
	if b.nClasses == 0 {
		var sum, sq float64
		for _, i := range idx {
			sum += b.target[i]
			sq += b.target[i] * b.target[i]
		}
		mean := sum / n
		return math.Max(sq/n-mean*mean, 0), []float64{mean}
	}

	counts := make([]float64, b.nClasses)
	for _, i := range idx {
		counts[int(b.target[i])]++
	}
	impurity := b.classImpurity(counts, n)
	for k := range counts {
		counts[k] /= n
	}
	return impurity, counts
}

func (b *builder) classImpurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	if b.p.criterion == "entropy" {
		var h float64
		for _, c := range counts {
			if c > 0 {
				p := c / n
				h -= p * math.Log2(p)
			}
		}
		return h
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

// featureOrder returns the order in which features are tried at one split
// and how many non-constant features must be evaluated before stopping.
func (b *builder) featureOrder() ([]int, int) {
	p := len(b.cols)
	if b.p.maxFeatures <= 0 || b.p.maxFeatures >= p {
		all := make([]int, p)
		for j := range all {
			all[j] = j
		}
		return all, p
	}
	return b.rng.Perm(p), b.p.maxFeatures
}

// findSplit returns the split with the lowest weighted child impurity.
// Features that are constant within the node do not count towards
// max_features, so the search goes on until a valid split is found or
// every feature was tried. Earlier candidates win ties.
func (b *builder) findSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	minLeaf := b.p.minSamplesLeaf
	best := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	order, limit := b.featureOrder()
	evaluated := 0
	sorted := make([]int, n)
	for _, f := range order {
		if evaluated >= limit {
			break
		}
		col := b.cols[f]
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return col[sorted[a]] < col[sorted[c]] })

		score, pos := b.sweep(sorted, col, minLeaf)
		if pos < 0 {
			continue
		}
		evaluated++
		if !(score < best) {
			continue
		}
		lo, hi := col[sorted[pos-1]], col[sorted[pos]]
		threshold := lo + (hi-lo)/2
		if threshold >= hi {
			threshold = lo
		}
		best, bestFeature, bestThreshold = score, f, threshold
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// sweep scans split positions of rows sorted by col. A split at pos puts
// sorted[:pos] on the left. It returns the best score and position, or
// pos == -1 when no valid split exists.
func (b *builder) sweep(sorted []int, col []float64, minLeaf int) (float64, int) {
	n := len(sorted)
	best, bestPos := math.Inf(1), -1

	if b.nClasses == 0 {
		var total, totalSq float64
		for _, i := range sorted {
			total += b.target[i]
			totalSq += b.target[i] * b.target[i]
		}
		var sum, sq float64
		for pos := 1; pos < n; pos++ {
			y := b.target[sorted[pos-1]]
			sum += y
			sq += y * y
			if pos < minLeaf || n-pos < minLeaf || col[sorted[pos-1]] == col[sorted[pos]] {
				continue
			}
			nl, nr := float64(pos), float64(n-pos)
			leftSSE := sq - sum*sum/nl
			rightSSE := (totalSq - sq) - (total-sum)*(total-sum)/nr
			if score := (leftSSE + rightSSE) / float64(n); score < best {
				best, bestPos = score, pos
			}
		}
		return best, bestPos
	}

	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)
	for _, i := range sorted {
		right[int(b.target[i])]++
	}
	for pos := 1; pos < n; pos++ {
		k := int(b.target[sorted[pos-1]])
		left[k]++
		right[k]--
		if pos < minLeaf || n-pos < minLeaf || col[sorted[pos-1]] == col[sorted[pos]] {
			continue
		}
		nl, nr := float64(pos), float64(n-pos)
		score := (nl*b.classImpurity(left, nl) + nr*b.classImpurity(right, nr)) / float64(n)
		if score < best {
			best, bestPos = score, pos
		}
	}
	return best, bestPos
}

// prune applies minimal cost-complexity pruning: the internal node with the
// smallest effective alpha is collapsed until every remaining one exceeds alpha.
func (t *cart) prune(alpha float64, nTotal int) {
	if alpha <= 0 || len(t.nodes) == 0 {
		return
	}
	total := float64(nTotal)

	for {
		weakest, minG := -1, math.Inf(1)

		var walk func(id int) (float64, int)
		walk = func(id int) (float64, int) {
			nd := &t.nodes[id]
			own := nd.impurity * float64(nd.nSamples) / total
			if nd.feature < 0 {
				return own, 1
			}
			lr, ll := walk(nd.left)
			rr, rl := walk(nd.right)
			risk, leaves := lr+rr, ll+rl
			if g := (own - risk) / float64(leaves-1); g < minG {
				minG, weakest = g, id
			}
			return risk, leaves
		}
		walk(0)

		if weakest < 0 || minG > alpha {
			break
		}
		t.nodes[weakest].feature = -1
		t.nodes[weakest].left = -1
		t.nodes[weakest].right = -1
	}
	t.compact()
}

// compact drops nodes no longer reachable from the root.
func (t *cart) compact() {
	out := make([]node, 0, len(t.nodes))
	var copyNode func(id int) int
	copyNode = func(id int) int {
		nd := t.nodes[id]
		newID := len(out)
		out = append(out, nd)
		if nd.feature >= 0 {
			l := copyNode(nd.left)
			r := copyNode(nd.right)
			out[newID].left = l
			out[newID].right = r
		}
		return newID
	}
	copyNode(0)
	t.nodes = out
}

// leaf returns the leaf reached by row i of X.
func (t *cart) leaf(X mat.Matrix, i int) *node {
	id := 0
	for t.nodes[id].feature >= 0 {
		nd := &t.nodes[id]
		if X.At(i, nd.feature) <= nd.threshold {
			id = nd.left
		} else {
			id = nd.right
		}
	}
	return &t.nodes[id]
}

func (t *cart) depth() int {
	var walk func(id int) int
	walk = func(id int) int {
		nd := t.nodes[id]
		if nd.feature < 0 {
			return 0
		}
		return 1 + max(walk(nd.left), walk(nd.right))
	}
	return walk(0)
}

func (t *cart) nLeaves() int {
	count := 0
	for _, nd := range t.nodes {
		if nd.feature < 0 {
			count++
		}
	}
	return count
}

// importances returns the normalized total impurity decrease per feature.
func (t *cart) importances() []float64 {
	imp := make([]float64, t.nFeatures)
	for _, nd := range t.nodes {
		if nd.feature < 0 {
			continue
		}
		l, r := t.nodes[nd.left], t.nodes[nd.right]
		imp[nd.feature] += float64(nd.nSamples)*nd.impurity -
			float64(l.nSamples)*l.impurity - float64(r.nSamples)*r.impurity
	}
	var sum float64
	for _, v := range imp {
		sum += v
	}
	if sum > 0 {
		for j := range imp {
			imp[j] /= sum
		}
	}
	return imp
}

// validate checks hyperparameters and training data before growing a tree.
func (p params) validate(X, y mat.Matrix, criteria ...string) error {
	known := false
	for _, c := range criteria {
		if p.criterion == c {
			known = true
		}
	}
	if !known {
		return errors.NewValidationError("criterion", "unsupported criterion", p.criterion)
	}
	if p.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", p.minSamplesSplit)
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", p.minSamplesLeaf)
	}
	if p.maxFeatures < 0 {
		return errors.NewValidationError("max_features", "must be non-negative", p.maxFeatures)
	}
	if p.ccpAlpha < 0 {
		return errors.NewValidationError("ccp_alpha", "must be non-negative", p.ccpAlpha)
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "tree: fit")
	}
	yr, yc := y.Dims()
	if yr != r {
		return errors.NewDimensionError("Fit", r, yr, 0)
	}
	if yc != 1 {
		return errors.NewValueError("Fit", "y must be a column vector (n×1 matrix)")
	}
	return nil
}

func checkIndices(idx []int, nRows int) error {
	if len(idx) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "tree: no training rows")
	}
	for _, i := range idx {
		if i < 0 || i >= nRows {
			return errors.NewValueError("FitIndices", "row index out of range")
		}
	}
	return nil
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (p *params) get() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         p.criterion,
		"max_depth":         p.maxDepth,
		"min_samples_split": p.minSamplesSplit,
		"min_samples_leaf":  p.minSamplesLeaf,
		"max_features":      p.maxFeatures,
		"ccp_alpha":         p.ccpAlpha,
		"random_state":      p.randomState,
	}
}
