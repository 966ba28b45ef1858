// Package neighbors implements k-nearest-neighbor classification.
package neighbors

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/core/parallel"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// KNeighborsClassifier predicts by majority vote among the k training rows
// closest in squared Euclidean distance.
type KNeighborsClassifier struct {
	state *model.StateManager

	// Hyperparameters
	NNeighbors int

	// Fitted state
	XTrain    *mat.Dense
	YTrain    []int
	ClassList []int
	NFeatures int
}

// KNNOption is a functional option for KNeighborsClassifier.
type KNNOption func(*KNeighborsClassifier)

// WithNNeighbors sets k.
func WithNNeighbors(k int) KNNOption {
	return func(c *KNeighborsClassifier) { c.NNeighbors = k }
}

// NewKNeighborsClassifier creates a classifier with k=5 by default.
func NewKNeighborsClassifier(opts ...KNNOption) *KNeighborsClassifier {
	c := &KNeighborsClassifier{
		state:      model.NewStateManager(),
		NNeighbors: 5,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit stores the training data.
func (c *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, _ := y.Dims()
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KNeighborsClassifier.Fit")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", nSamples, yRows, 0)
	}
	if c.NNeighbors < 1 {
		return errors.NewValueError("KNeighborsClassifier.Fit", "n_neighbors must be at least 1")
	}
	if c.NNeighbors > nSamples {
		return errors.NewInsufficientDataError("KNeighborsClassifier.Fit", c.NNeighbors, nSamples,
			"need at least n_neighbors training samples")
	}

	c.XTrain = mat.DenseCopyOf(X)
	c.YTrain = make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		c.YTrain[i] = int(y.At(i, 0))
	}
	c.ClassList = distinctSorted(c.YTrain)
	c.NFeatures = nFeatures

	c.state.SetDimensions(nFeatures, nSamples)
	c.state.SetFitted()
	return nil
}

// Predict returns the majority-vote class per row, smaller label winning ties.
func (c *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := c.PredictProba(X)
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
		out.Set(i, 0, float64(c.ClassList[best]))
	}
	return out, nil
}

// PredictProba returns the neighbor vote fractions per class.
func (c *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := c.state.RequireFitted("KNeighborsClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	n, cols := X.Dims()
	if cols != c.NFeatures {
		return nil, errors.NewDimensionError("KNeighborsClassifier.PredictProba", c.NFeatures, cols, 1)
	}

	classPos := make(map[int]int, len(c.ClassList))
	for k, cl := range c.ClassList {
		classPos[cl] = k
	}
	nTrain, _ := c.XTrain.Dims()
	out := mat.NewDense(n, len(c.ClassList), nil)

	parallel.Parallelize(n, func(start, end int) {
		query := make([]float64, cols)
		dists := make([]neighborDist, nTrain)
		for i := start; i < end; i++ {
			mat.Row(query, i, X)
			for j := 0; j < nTrain; j++ {
				d := 0.0
				for f := 0; f < cols; f++ {
					diff := query[f] - c.XTrain.At(j, f)
					d += diff * diff
				}
				dists[j] = neighborDist{dist: d, label: c.YTrain[j]}
			}
			sort.Slice(dists, func(a, b int) bool {
				if dists[a].dist != dists[b].dist {
					return dists[a].dist < dists[b].dist
				}
				return dists[a].label < dists[b].label
			})
			for _, nb := range dists[:c.NNeighbors] {
				pos := classPos[nb.label]
				out.Set(i, pos, out.At(i, pos)+1)
			}
			for j := range c.ClassList {
				out.Set(i, j, out.At(i, j)/float64(c.NNeighbors))
			}
		}
	})
	return out, nil
}

// Score returns the mean accuracy on X against y.
func (c *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := y.Dims()
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "KNeighborsClassifier.Score")
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
func (c *KNeighborsClassifier) Classes() []int {
	out := make([]int, len(c.ClassList))
	copy(out, c.ClassList)
	return out
}

// GetParams returns the hyperparameters.
func (c *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_neighbors": c.NNeighbors,
	}
}

// SetParams sets hyperparameters by name; unknown names are an error.
func (c *KNeighborsClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "n_neighbors":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("KNeighborsClassifier.SetParams", "n_neighbors must be an integer")
			}
			c.NNeighbors = v
		default:
			return errors.NewValueError("KNeighborsClassifier.SetParams", "unknown parameter "+key)
		}
	}
	return nil
}

// Save writes the fitted classifier to path.
func (c *KNeighborsClassifier) Save(path string) error {
	if err := c.state.RequireFitted("KNeighborsClassifier", "Save"); err != nil {
		return err
	}
	return model.SaveGob(path, c)
}

// Load reads a fitted classifier from path.
func (c *KNeighborsClassifier) Load(path string) error {
	if err := model.LoadGob(path, c); err != nil {
		return err
	}
	if c.state == nil {
		c.state = model.NewStateManager()
	}
	c.state.SetFitted()
	return nil
}

type neighborDist struct {
	dist  float64
	label int
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
