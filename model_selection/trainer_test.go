package model_selection

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/metrics"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// thresholdClassifier predicts 1 when the first feature exceeds its cut.
// The cut is tunable, which gives the grid search something real to rank.
type thresholdClassifier struct {
	mu     sync.Mutex
	cut    float64
	fitted bool
}

func (c *thresholdClassifier) Fit(X, y mat.Matrix) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fitted = true
	return nil
}

func (c *thresholdClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fitted {
		return nil, errors.NewNotFittedError("thresholdClassifier", "Predict")
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if X.At(i, 0) > c.cut {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

func (c *thresholdClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "cut":
			c.cut = value.(float64)
		default:
			return errors.NewValueError("thresholdClassifier.SetParams", "unknown parameter "+key)
		}
	}
	return nil
}

// separableData builds rows whose first feature cleanly separates the
// classes at 0.5.
func separableData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			X.Set(i, 0, float64(i%10)/100) // 0.00 .. 0.08
		} else {
			X.Set(i, 0, 1+float64(i%10)/100) // 1.01 .. 1.09
			y.Set(i, 0, 1)
		}
		X.Set(i, 1, float64(i))
	}
	return X, y
}

func TestTrainSelectsBestCut(t *testing.T) {
	X, y := separableData(100)

	spec := Spec{
		Name: "threshold",
		New:  func() Estimator { return &thresholdClassifier{} },
		Grid: Grid{"cut": {-5.0, 0.5, 5.0}},
	}

	result, err := Train(X, y, spec, Options{Folds: 5, Seed: 11})
	require.NoError(t, err)

	assert.Equal(t, "threshold", result.ModelName)
	assert.Equal(t, 0.5, result.BestParams["cut"])
	assert.InDelta(t, 1.0, result.CVScore, 1e-12)
	assert.InDelta(t, 1.0, result.HoldoutScore, 1e-12)
	require.NotNil(t, result.Confusion)
}

func TestTrainTieBreakKeepsFirstSeen(t *testing.T) {
	X, y := separableData(100)

	// Both cuts separate perfectly; the first enumerated value must win.
	spec := Spec{
		Name: "threshold",
		New:  func() Estimator { return &thresholdClassifier{} },
		Grid: Grid{"cut": {0.3, 0.7}},
	}

	result, err := Train(X, y, spec, Options{Folds: 5, Seed: 11})
	require.NoError(t, err)
	assert.Equal(t, 0.3, result.BestParams["cut"])
}

func TestTrainEmptyGrid(t *testing.T) {
	X, y := separableData(60)

	spec := Spec{
		Name: "threshold",
		New:  func() Estimator { return &thresholdClassifier{cut: 0.5} },
	}

	result, err := Train(X, y, spec, Options{Folds: 5, Seed: 3})
	require.NoError(t, err)
	assert.Empty(t, result.BestParams)
	assert.InDelta(t, 1.0, result.CVScore, 1e-12)
}

func TestTrainDeterministic(t *testing.T) {
	X, y := separableData(80)

	spec := Spec{
		Name: "threshold",
		New:  func() Estimator { return &thresholdClassifier{} },
		Grid: Grid{"cut": {-5.0, 0.5, 5.0}},
	}
	opts := Options{Folds: 5, Seed: 21}

	a, err := Train(X, y, spec, opts)
	require.NoError(t, err)
	b, err := Train(X, y, spec, opts)
	require.NoError(t, err)

	assert.Equal(t, a.BestParams, b.BestParams)
	assert.Equal(t, a.CVScore, b.CVScore)
	assert.Equal(t, a.CVStd, b.CVStd)
	assert.Equal(t, a.HoldoutScore, b.HoldoutScore)
}

// foldAccuracy fits on a fold's training rows and scores its validation rows.
func foldAccuracy(t *testing.T, X, y mat.Matrix, fold Fold) float64 {
	t.Helper()

	est := &thresholdClassifier{cut: 0.5}
	trainX, trainY := Subset(X, y, fold.TrainIndices)
	require.NoError(t, est.Fit(trainX, trainY))

	valX, valY := Subset(X, y, fold.TestIndices)
	pred, err := est.Predict(valX)
	require.NoError(t, err)

	acc, err := metrics.Accuracy(valY, pred)
	require.NoError(t, err)
	return acc
}

func TestFoldScoreIgnoresRowsOutsideValidation(t *testing.T) {
	X, y := separableData(60)
	// Flip a few labels so each fold's accuracy depends on which rows land
	// in its validation set.
	for i := 0; i < 60; i += 7 {
		y.Set(i, 0, 1-y.At(i, 0))
	}

	folds, err := NewStratifiedKFold(5, true, 7).Split(X, y)
	require.NoError(t, err)

	sawMisclassified := false
	for fi, fold := range folds {
		want := foldAccuracy(t, X, y, fold)
		if want < 1.0 {
			sawMisclassified = true
		}

		// Rearrange every row outside this fold's validation set among
		// their own positions. Validation rows stay where they are, so the
		// fold metric must not move.
		outside := append([]int(nil), fold.TrainIndices...)
		shuffled := append([]int(nil), outside...)
		r := rand.New(rand.NewPCG(3, 3))
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		permX := mat.DenseCopyOf(X)
		permY := mat.DenseCopyOf(y)
		for k, src := range outside {
			dst := shuffled[k]
			permX.SetRow(dst, mat.Row(nil, src, X))
			permY.Set(dst, 0, y.At(src, 0))
		}

		got := foldAccuracy(t, permX, permY, fold)
		assert.InDelta(t, want, got, 1e-12, "fold %d metric changed", fi)
	}
	assert.True(t, sawMisclassified, "every fold scored 1.0, nothing to detect")
}

func TestTrainInsufficientData(t *testing.T) {
	// 3 positive rows cannot fill 10 folds.
	X := mat.NewDense(40, 1, nil)
	y := mat.NewDense(40, 1, nil)
	for i := 0; i < 3; i++ {
		y.Set(i, 0, 1)
	}

	spec := Spec{
		Name: "threshold",
		New:  func() Estimator { return &thresholdClassifier{} },
	}

	_, err := Train(X, y, spec, Options{Folds: 10, Seed: 1})
	var insufficient *errors.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
}

func TestTrainGridWithoutSetter(t *testing.T) {
	X, y := separableData(60)

	spec := Spec{
		Name: "rigid",
		New:  func() Estimator { return rigidEstimator{} },
		Grid: Grid{"cut": {0.5}},
	}

	_, err := Train(X, y, spec, Options{Folds: 5, Seed: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ParameterSetter")
}

// rigidEstimator has no tunable parameters.
type rigidEstimator struct{}

func (rigidEstimator) Fit(X, y mat.Matrix) error { return nil }
func (rigidEstimator) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	return mat.NewDense(n, 1, nil), nil
}

func TestCompareReturnsOneRowPerSpec(t *testing.T) {
	X, y := separableData(100)

	specs := []Spec{
		{Name: "first", New: func() Estimator { return &thresholdClassifier{cut: 0.5} }},
		{Name: "second", New: func() Estimator { return &thresholdClassifier{cut: -10} }},
	}

	evals, err := Compare(X, y, specs, Options{Folds: 5, Seed: 9})
	require.NoError(t, err)
	require.Len(t, evals, 2)

	// Output order follows spec order regardless of completion order.
	assert.Equal(t, "first", evals[0].Model)
	assert.Equal(t, "second", evals[1].Model)
	assert.InDelta(t, 1.0, evals[0].CVAccuracy, 1e-12)
	assert.Less(t, evals[1].CVAccuracy, 1.0)
}
