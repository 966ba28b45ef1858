// Package model_selection implements data splitting, cross-validation,
// hyperparameter grid search, and the generic fit-tune-evaluate trainer
// written once against the estimator capability interfaces.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// Fold is one train/validation partition of a cross-validation scheme.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter generates cross-validation folds.
type Splitter interface {
	Split(X, y mat.Matrix) ([]Fold, error)
	NumSplits() int
}

// KFold is a plain k-fold splitter with optional seeded shuffling.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold splitter. Fewer than 2 splits falls back to 5.
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// NumSplits returns the number of folds.
func (kf *KFold) NumSplits() int { return kf.NSplits }

// Split generates train/test indices for each fold.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if nSamples < kf.NSplits {
		return nil, errors.NewInsufficientDataError("KFold.Split", kf.NSplits, nSamples, "fewer rows than folds")
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[current:current+testSize])

		trainIndices := make([]int, 0, nSamples-testSize)
		trainIndices = append(trainIndices, indices[:current]...)
		trainIndices = append(trainIndices, indices[current+testSize:]...)

		folds[i] = Fold{TrainIndices: trainIndices, TestIndices: testIndices}
		current += testSize
	}
	return folds, nil
}

// StratifiedKFold builds folds that preserve the class proportions of y in
// every fold.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a stratified k-fold splitter. Fewer than 2
// splits falls back to 5.
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// NumSplits returns the number of folds.
func (skf *StratifiedKFold) NumSplits() int { return skf.NSplits }

// Split generates stratified train/test indices for each fold. It fails
// with InsufficientDataError when the smallest class has fewer rows than
// there are folds, since such folds cannot preserve the class distribution.
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	yRows, _ := y.Dims()
	if yRows != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, yRows, 0)
	}

	classes, classIndices := groupByClass(y)
	for _, label := range classes {
		if len(classIndices[label]) < skf.NSplits {
			return nil, errors.NewInsufficientDataError("StratifiedKFold.Split",
				skf.NSplits, len(classIndices[label]), "smallest class has fewer rows than folds")
		}
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(skf.Seed, skf.Seed))
		for _, label := range classes {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.NSplits)

	// Distribute each class across folds in turn.
	for _, label := range classes {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		current := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			folds[i].TestIndices = append(folds[i].TestIndices, indices[current:current+testSize]...)
			current += testSize
		}
	}

	// Train sets are everything outside the fold's test set.
	for i := range folds {
		inTest := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			inTest[idx] = true
		}
		for j := 0; j < nSamples; j++ {
			if !inTest[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}
	return folds, nil
}

// TrainTestSplit partitions row indices into a training and a held-out
// evaluation set, stratified by the class distribution of y and shuffled
// with the given seed. testFraction must be in (0, 1).
func TrainTestSplit(y mat.Matrix, testFraction float64, seed uint64) (trainIdx, testIdx []int, err error) {
	n, _ := y.Dims()
	if n == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.NewValueError("TrainTestSplit", "testFraction must be in (0, 1)")
	}

	classes, classIndices := groupByClass(y)
	r := rand.New(rand.NewPCG(seed, seed))

	for _, label := range classes {
		indices := classIndices[label]
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(testFraction * float64(len(indices))))
		if nTest < 1 && len(indices) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}

	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, errors.NewInsufficientDataError("TrainTestSplit", 2, n, "both partitions must be non-empty")
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return trainIdx, testIdx, nil
}

// groupByClass collects row indices per label value, with labels sorted so
// that iteration order is deterministic.
func groupByClass(y mat.Matrix) ([]float64, map[float64][]int) {
	n, _ := y.Dims()
	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		label := y.At(i, 0)
		classIndices[label] = append(classIndices[label], i)
	}

	classes := make([]float64, 0, len(classIndices))
	for label := range classIndices {
		classes = append(classes, label)
	}
	sort.Float64s(classes)
	return classes, classIndices
}

// Subset copies the selected rows of X and y into new matrices, preserving
// the order of indices.
func Subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSub := mat.NewDense(len(indices), xCols, nil)
	ySub := mat.NewDense(len(indices), yCols, nil)
	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSub.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySub.Set(i, j, y.At(idx, j))
		}
	}
	return xSub, ySub
}
