// Package tree implements a CART-style decision tree classifier.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// DecisionTreeClassifier grows a binary tree by greedy impurity-minimizing
// splits on numeric features.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	MaxDepth        int    // 0 means no depth limit
	MinSamplesSplit int    // minimum samples to attempt a split
	MinSamplesLeaf  int    // minimum samples required in each child
	MaxFeatures     int    // 0 means all features; >0 samples that many per split
	Criterion       string // "gini" or "entropy"
	RandomState     uint64 // seed for feature subsampling

	// Fitted state
	Root      *Node
	ClassList []int
	NFeatures int
}

// Node is one tree node. Exported fields keep gob persistence working.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64 // x <= Threshold goes left
	Left      *Node
	Right     *Node
	Probas    []float64 // leaf class distribution, aligned with ClassList
	Pred      int       // index into ClassList of the majority class
}

// DecisionTreeOption is a functional option for DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// WithMaxDepth limits the tree depth; 0 means unlimited.
func WithMaxDepth(d int) DecisionTreeOption {
	return func(t *DecisionTreeClassifier) { t.MaxDepth = d }
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum child size a split must produce.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures samples that many candidate features per split.
func WithMaxFeatures(k int) DecisionTreeOption {
	return func(t *DecisionTreeClassifier) { t.MaxFeatures = k }
}

// WithCriterion selects the impurity measure, "gini" or "entropy".
func WithCriterion(c string) DecisionTreeOption {
	return func(t *DecisionTreeClassifier) { t.Criterion = c }
}

// WithSeed sets the seed for feature subsampling.
func WithSeed(seed uint64) DecisionTreeOption {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier creates a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	t := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		RandomState:     1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit grows the tree on X and integer labels y.
func (t *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, _ := y.Dims()
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "DecisionTreeClassifier.Fit")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, yRows, 0)
	}

	rows := matRows(X)
	labels := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		labels[i] = int(y.At(i, 0))
	}

	t.ClassList = distinctSorted(labels)
	t.NFeatures = nFeatures

	classIdx := make(map[int]int, len(t.ClassList))
	for k, c := range t.ClassList {
		classIdx[c] = k
	}

	idx := make([]int, nSamples)
	for i := range idx {
		idx[i] = i
	}

	r := rand.New(rand.NewPCG(t.RandomState, t.RandomState))
	t.Root = t.grow(rows, labels, classIdx, idx, 0, r)

	t.state.SetDimensions(nFeatures, nSamples)
	t.state.SetFitted()
	return nil
}

// Predict returns one class label per row.
func (t *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := t.PredictProba(X)
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
		out.Set(i, 0, float64(t.ClassList[best]))
	}
	return out, nil
}

// PredictProba returns the leaf class distribution for every row.
func (t *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := t.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", t.NFeatures, c, 1)
	}

	out := mat.NewDense(n, len(t.ClassList), nil)
	row := make([]float64, c)
	for i := 0; i < n; i++ {
		mat.Row(row, i, X)
		node := t.Root
		for !node.Leaf {
			if row[node.Feature] <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		for j, p := range node.Probas {
			out.Set(i, j, p)
		}
	}
	return out, nil
}

// Score returns the mean accuracy on X against y.
func (t *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := y.Dims()
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "DecisionTreeClassifier.Score")
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
func (t *DecisionTreeClassifier) Classes() []int {
	out := make([]int, len(t.ClassList))
	copy(out, t.ClassList)
	return out
}

// GetParams returns the hyperparameters.
func (t *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"max_features":      t.MaxFeatures,
		"criterion":         t.Criterion,
	}
}

// SetParams sets hyperparameters by name; unknown names are an error.
func (t *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "max_depth":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("DecisionTreeClassifier.SetParams", "max_depth must be an integer")
			}
			t.MaxDepth = v
		case "min_samples_split":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("DecisionTreeClassifier.SetParams", "min_samples_split must be an integer")
			}
			t.MinSamplesSplit = v
		case "min_samples_leaf":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("DecisionTreeClassifier.SetParams", "min_samples_leaf must be an integer")
			}
			t.MinSamplesLeaf = v
		case "max_features":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("DecisionTreeClassifier.SetParams", "max_features must be an integer")
			}
			t.MaxFeatures = v
		case "criterion":
			v, ok := value.(string)
			if !ok || (v != "gini" && v != "entropy") {
				return errors.NewValueError("DecisionTreeClassifier.SetParams", `criterion must be "gini" or "entropy"`)
			}
			t.Criterion = v
		default:
			return errors.NewValueError("DecisionTreeClassifier.SetParams", "unknown parameter "+key)
		}
	}
	return nil
}

// Save writes the fitted tree to path.
func (t *DecisionTreeClassifier) Save(path string) error {
	if err := t.state.RequireFitted("DecisionTreeClassifier", "Save"); err != nil {
		return err
	}
	return model.SaveGob(path, t)
}

// Load reads a fitted tree from path.
func (t *DecisionTreeClassifier) Load(path string) error {
	if err := model.LoadGob(path, t); err != nil {
		return err
	}
	if t.state == nil {
		t.state = model.NewStateManager()
	}
	t.state.SetFitted()
	return nil
}

// grow recursively builds the tree from the samples in idx.
func (t *DecisionTreeClassifier) grow(rows [][]float64, labels []int, classIdx map[int]int, idx []int, depth int, r *rand.Rand) *Node {
	counts := make([]int, len(t.ClassList))
	for _, i := range idx {
		counts[classIdx[labels[i]]]++
	}

	leaf := func() *Node {
		return &Node{Leaf: true, Probas: countsToProbas(counts), Pred: argmax(counts)}
	}

	if isPure(counts) || len(idx) < t.MinSamplesSplit {
		return leaf()
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return leaf()
	}

	nFeatures := len(rows[0])
	features := make([]int, nFeatures)
	for j := range features {
		features[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < nFeatures {
		r.Shuffle(nFeatures, func(i, j int) {
			features[i], features[j] = features[j], features[i]
		})
		features = features[:t.MaxFeatures]
		sort.Ints(features)
	}

	parent := t.impurity(counts)
	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for _, f := range features {
		gain, threshold, ok := t.bestSplitOnFeature(rows, labels, classIdx, idx, f, parent)
		if ok && gain > bestGain {
			bestGain, bestFeature, bestThreshold = gain, f, threshold
		}
	}

	if bestFeature < 0 {
		return leaf()
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if rows[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &Node{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      t.grow(rows, labels, classIdx, left, depth+1, r),
		Right:     t.grow(rows, labels, classIdx, right, depth+1, r),
	}
}

// bestSplitOnFeature scans the midpoints between distinct sorted values of
// one feature and returns the best impurity gain.
func (t *DecisionTreeClassifier) bestSplitOnFeature(rows [][]float64, labels []int, classIdx map[int]int, idx []int, f int, parent float64) (gain, threshold float64, ok bool) {
	type pair struct {
		v float64
		c int // class index
	}
	sorted := make([]pair, len(idx))
	for k, i := range idx {
		sorted[k] = pair{rows[i][f], classIdx[labels[i]]}
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a].v < sorted[b].v })

	total := len(sorted)
	leftCounts := make([]int, len(t.ClassList))
	rightCounts := make([]int, len(t.ClassList))
	for _, p := range sorted {
		rightCounts[p.c]++
	}

	for s := 1; s < total; s++ {
		leftCounts[sorted[s-1].c]++
		rightCounts[sorted[s-1].c]--
		if sorted[s].v == sorted[s-1].v {
			continue
		}
		if s < t.MinSamplesLeaf || total-s < t.MinSamplesLeaf {
			continue
		}

		weighted := float64(s)/float64(total)*t.impurity(leftCounts) +
			float64(total-s)/float64(total)*t.impurity(rightCounts)
		if g := parent - weighted; g > gain {
			gain = g
			threshold = (sorted[s-1].v + sorted[s].v) / 2
			ok = true
		}
	}
	return gain, threshold, ok
}

func (t *DecisionTreeClassifier) impurity(counts []int) float64 {
	if t.Criterion == "entropy" {
		return entropyFromCounts(counts)
	}
	return giniFromCounts(counts)
}

func giniFromCounts(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		g -= p * p
	}
	return g
}

func entropyFromCounts(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		e -= p * math.Log2(p)
	}
	return e
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	probas := make([]float64, len(counts))
	if total == 0 {
		return probas
	}
	for i, c := range counts {
		probas[i] = float64(c) / float64(total)
	}
	return probas
}

func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
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

func matRows(X mat.Matrix) [][]float64 {
	n, c := X.Dims()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, X)
	}
	return rows
}
