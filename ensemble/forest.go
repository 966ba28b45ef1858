// Package ensemble implements bagged tree ensembles.
package ensemble

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/core/parallel"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
	"github.com/YuminosukeSato/lifeboat/tree"
)

// RandomForestClassifier fits decision trees on bootstrap samples and
// averages their class distributions.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	NEstimators     int
	MaxDepth        int // 0 means no depth limit
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 means sqrt(nFeatures)
	Criterion       string
	RandomState     uint64

	// Fitted state
	Trees     []*tree.DecisionTreeClassifier
	ClassList []int
	NFeatures int
}

// RandomForestOption is a functional option for RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) RandomForestOption {
	return func(f *RandomForestClassifier) { f.NEstimators = n }
}

// WithMaxDepth limits each tree's depth; 0 means unlimited.
func WithMaxDepth(d int) RandomForestOption {
	return func(f *RandomForestClassifier) { f.MaxDepth = d }
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func WithMinSamplesSplit(n int) RandomForestOption {
	return func(f *RandomForestClassifier) { f.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum child size a split must produce.
func WithMinSamplesLeaf(n int) RandomForestOption {
	return func(f *RandomForestClassifier) { f.MinSamplesLeaf = n }
}

// WithMaxFeatures sets the per-split feature sample size; 0 uses sqrt.
func WithMaxFeatures(k int) RandomForestOption {
	return func(f *RandomForestClassifier) { f.MaxFeatures = k }
}

// WithCriterion selects the impurity measure, "gini" or "entropy".
func WithCriterion(c string) RandomForestOption {
	return func(f *RandomForestClassifier) { f.Criterion = c }
}

// WithSeed sets the base seed; tree i derives its own seed from it.
func WithSeed(seed uint64) RandomForestOption {
	return func(f *RandomForestClassifier) { f.RandomState = seed }
}

// NewRandomForestClassifier creates a forest with sensible defaults.
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	f := &RandomForestClassifier{
		state:           model.NewStateManager(),
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		RandomState:     1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit trains NEstimators trees on bootstrap resamples of X, y.
func (f *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, _ := y.Dims()
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "RandomForestClassifier.Fit")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if f.NEstimators < 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "n_estimators must be at least 1")
	}

	maxFeatures := f.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(nFeatures)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	f.Trees = make([]*tree.DecisionTreeClassifier, f.NEstimators)
	treeErrs := make([]error, f.NEstimators)

	parallel.Parallelize(f.NEstimators, func(start, end int) {
		for i := start; i < end; i++ {
			seed := f.RandomState + uint64(i)
			r := rand.New(rand.NewPCG(seed, seed))

			bootX, bootY := bootstrap(X, y, nSamples, nFeatures, r)
			t := tree.NewDecisionTreeClassifier(
				tree.WithMaxDepth(f.MaxDepth),
				tree.WithMinSamplesSplit(f.MinSamplesSplit),
				tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
				tree.WithMaxFeatures(maxFeatures),
				tree.WithCriterion(f.Criterion),
				tree.WithSeed(seed),
			)
			if err := t.Fit(bootX, bootY); err != nil {
				treeErrs[i] = errors.Wrapf(err, "tree %d", i)
				continue
			}
			f.Trees[i] = t
		}
	})
	for _, err := range treeErrs {
		if err != nil {
			return err
		}
	}

	// Class list from the full training labels, not any one bootstrap.
	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		labels[i] = int(y.At(i, 0))
	}
	f.ClassList = distinctSorted(labels)
	f.NFeatures = nFeatures

	f.state.SetDimensions(nFeatures, nSamples)
	f.state.SetFitted()
	return nil
}

// Predict returns the majority-vote class per row.
func (f *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, k := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		best := 0
		for j := 1; j < k; j++ {
			if proba.At(i, j) > proba.At(i, best) {
				best = j
			}
		}
		out.Set(i, 0, float64(f.ClassList[best]))
	}
	return out, nil
}

// PredictProba averages the per-tree class distributions.
func (f *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := f.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	if c != f.NFeatures {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", f.NFeatures, c, 1)
	}

	sum := mat.NewDense(n, len(f.ClassList), nil)
	classPos := make(map[int]int, len(f.ClassList))
	for k, cl := range f.ClassList {
		classPos[cl] = k
	}
	for _, t := range f.Trees {
		proba, err := t.PredictProba(X)
		if err != nil {
			return nil, err
		}
		// Tree class lists can be a subset of the forest's when a
		// bootstrap misses a class.
		treeClasses := t.Classes()
		for i := 0; i < n; i++ {
			for j, cl := range treeClasses {
				pos := classPos[cl]
				sum.Set(i, pos, sum.At(i, pos)+proba.At(i, j))
			}
		}
	}
	sum.Scale(1/float64(len(f.Trees)), sum)
	return sum, nil
}

// Score returns the mean accuracy on X against y.
func (f *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := y.Dims()
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "RandomForestClassifier.Score")
	}
	correct := 0
	for i := 0; i < n; i++ {
		if y.At(i, 0) == pred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// Classes returns the class labels seen during fitting, sorted.
func (f *RandomForestClassifier) Classes() []int {
	out := make([]int, len(f.ClassList))
	copy(out, f.ClassList)
	return out
}

// GetParams returns the hyperparameters.
func (f *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      f.NEstimators,
		"max_depth":         f.MaxDepth,
		"min_samples_split": f.MinSamplesSplit,
		"min_samples_leaf":  f.MinSamplesLeaf,
		"max_features":      f.MaxFeatures,
		"criterion":         f.Criterion,
	}
}

// SetParams sets hyperparameters by name; unknown names are an error.
func (f *RandomForestClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_estimators":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("RandomForestClassifier.SetParams", "n_estimators must be an integer")
			}
			f.NEstimators = v
		case "max_depth":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("RandomForestClassifier.SetParams", "max_depth must be an integer")
			}
			f.MaxDepth = v
		case "min_samples_split":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("RandomForestClassifier.SetParams", "min_samples_split must be an integer")
			}
			f.MinSamplesSplit = v
		case "min_samples_leaf":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("RandomForestClassifier.SetParams", "min_samples_leaf must be an integer")
			}
			f.MinSamplesLeaf = v
		case "max_features":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("RandomForestClassifier.SetParams", "max_features must be an integer")
			}
			f.MaxFeatures = v
		case "criterion":
			v, ok := value.(string)
			if !ok || (v != "gini" && v != "entropy") {
				return errors.NewValueError("RandomForestClassifier.SetParams", `criterion must be "gini" or "entropy"`)
			}
			f.Criterion = v
		default:
			return errors.NewValueError("RandomForestClassifier.SetParams", "unknown parameter "+key)
		}
	}
	return nil
}

// Save writes the fitted forest to path.
func (f *RandomForestClassifier) Save(path string) error {
	if err := f.state.RequireFitted("RandomForestClassifier", "Save"); err != nil {
		return err
	}
	return model.SaveGob(path, f)
}

// Load reads a fitted forest from path.
func (f *RandomForestClassifier) Load(path string) error {
	if err := model.LoadGob(path, f); err != nil {
		return err
	}
	if f.state == nil {
		f.state = model.NewStateManager()
	}
	f.state.SetFitted()
	return nil
}

// bootstrap draws nSamples rows with replacement.
func bootstrap(X, y mat.Matrix, nSamples, nFeatures int, r *rand.Rand) (mat.Matrix, mat.Matrix) {
	bx := mat.NewDense(nSamples, nFeatures, nil)
	by := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		src := r.IntN(nSamples)
		mat.Row(row, src, X)
		bx.SetRow(i, row)
		by.Set(i, 0, y.At(src, 0))
	}
	return bx, by
}

func distinctSorted(labels []int) []int {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	out := make([]int, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}
