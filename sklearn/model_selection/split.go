package model_selection

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// Fold is one train/validation partition of the training rows.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter partitions rows into cross-validation folds.
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	GetNSplits() int
	String() string
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomSeed int64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

func (kf *KFold) String() string {
	return fmt.Sprintf("kfold(k=%d)", kf.NSplits)
}

// Split generates train/test indices for each fold. Fold sizes differ by at
// most one; the first n%k folds get the extra row.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits(kf.NSplits, nSamples); err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		shuffle(indices, kf.RandomSeed)
	}

	testFold := make([]int, nSamples)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits
	current := 0
	for f := 0; f < kf.NSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		for _, idx := range indices[current : current+size] {
			testFold[idx] = f
		}
		current += size
	}
	return assemble(testFold, kf.NSplits, indices), nil
}

// StratifiedKFold implements stratified k-fold cross-validation
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int64) *StratifiedKFold {
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, RandomSeed: randomSeed}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

func (skf *StratifiedKFold) String() string {
	return fmt.Sprintf("stratified_kfold(k=%d)", skf.NSplits)
}

// Split deals the rows of each class round-robin over the folds, so every
// fold keeps roughly the class proportions of y. Classes are visited in
// ascending label order.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits(skf.NSplits, nSamples); err != nil {
		return nil, err
	}
	if y == nil {
		return nil, errors.NewValueError("StratifiedKFold.Split", "y is required for stratification")
	}
	if yRows, _ := y.Dims(); yRows != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, yRows, 0)
	}

	byClass := make(map[float64][]int)
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		byClass[label] = append(byClass[label], i)
	}
	labels := make([]float64, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	testFold := make([]int, nSamples)
	next := 0
	for c, label := range labels {
		rows := byClass[label]
		if skf.Shuffle {
			shuffle(rows, skf.RandomSeed+int64(c))
		}
		for _, idx := range rows {
			testFold[idx] = next
			next = (next + 1) % skf.NSplits
		}
	}

	order := make([]int, nSamples)
	for i := range order {
		order[i] = i
	}
	return assemble(testFold, skf.NSplits, order), nil
}

func checkSplits(k, n int) error {
	if k < 2 {
		return errors.NewValidationError("n_splits", "must be at least 2", k)
	}
	if k > n {
		return errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot exceed the number of samples (%d)", n), k)
	}
	return nil
}

func shuffle(indices []int, seed int64) {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}

// assemble builds folds from the held-out fold of every row. Test rows are
// listed in order; train rows in ascending index.
func assemble(testFold []int, k int, order []int) []Fold {
	folds := make([]Fold, k)
	for _, idx := range order {
		f := testFold[idx]
		folds[f].Test = append(folds[f].Test, idx)
	}
	for f := range folds {
		folds[f].Train = make([]int, 0, len(testFold)-len(folds[f].Test))
		for idx, tf := range testFold {
			if tf != f {
				folds[f].Train = append(folds[f].Train, idx)
			}
		}
	}
	return folds
}

// Plan selects how configurations are scored: cross-validation folds or
// the out-of-bag rows of a bagging model.
type Plan struct {
	splitter Splitter
	oob      bool
}

// CV scores configurations on the folds produced by s.
func CV(s Splitter) Plan {
	return Plan{splitter: s}
}

// OOB scores configurations on out-of-bag predictions. The model family
// must support bagging.
func OOB() Plan {
	return Plan{oob: true}
}

// IsOOB reports whether the plan uses out-of-bag estimates.
func (p Plan) IsOOB() bool {
	return p.oob
}

// Splitter returns the fold splitter, nil for an OOB plan.
func (p Plan) Splitter() Splitter {
	return p.splitter
}

func (p Plan) String() string {
	if p.oob {
		return "oob"
	}
	if p.splitter == nil {
		return "none"
	}
	return p.splitter.String()
}
