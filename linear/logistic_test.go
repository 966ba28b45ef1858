package linear

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

func separableXY(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		jitter := float64(i%7) / 10
		if i%2 == 0 {
			X.Set(i, 0, -2-jitter)
			X.Set(i, 1, -1+jitter/2)
		} else {
			X.Set(i, 0, 2+jitter)
			X.Set(i, 1, 1-jitter/2)
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func TestLogisticRegressionFitPredict(t *testing.T) {
	X, y := separableXY(60)

	lr := NewLogisticRegression(WithSeed(5))
	require.NoError(t, lr.Fit(X, y))

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, []int{0, 1}, lr.Classes())
}

func TestLogisticRegressionPredictProba(t *testing.T) {
	X, y := separableXY(60)

	lr := NewLogisticRegression(WithSeed(5))
	require.NoError(t, lr.Fit(X, y))

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)

	rows, cols := proba.Dims()
	require.Equal(t, 60, rows)
	require.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}
}

func TestLogisticRegressionRequiresTwoClasses(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{1, 1, 1, 1})

	lr := NewLogisticRegression()
	err := lr.Fit(X, y)
	require.Error(t, err)
}

func TestLogisticRegressionSeededDeterminism(t *testing.T) {
	X, y := separableXY(60)

	a := NewLogisticRegression(WithSeed(9))
	b := NewLogisticRegression(WithSeed(9))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	assert.Equal(t, a.Coef, b.Coef)
	assert.Equal(t, a.Intercept, b.Intercept)
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	_, err := lr.Predict(mat.NewDense(1, 2, []float64{0, 0}))

	var notFitted *errors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)
}

func TestLogisticRegressionSetParams(t *testing.T) {
	lr := NewLogisticRegression()
	require.NoError(t, lr.SetParams(map[string]interface{}{
		"c":        10.0,
		"max_iter": 500,
	}))
	assert.Equal(t, 10.0, lr.C)
	assert.Equal(t, 500, lr.MaxIter)

	assert.Error(t, lr.SetParams(map[string]interface{}{"solver": "lbfgs"}))
}

func TestLogisticRegressionSaveLoad(t *testing.T) {
	X, y := separableXY(60)

	lr := NewLogisticRegression(WithSeed(5))
	require.NoError(t, lr.Fit(X, y))

	path := filepath.Join(t.TempDir(), "logistic.gob")
	require.NoError(t, lr.Save(path))

	loaded := NewLogisticRegression()
	require.NoError(t, loaded.Load(path))

	orig, err := lr.Predict(X)
	require.NoError(t, err)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(orig, got))
}
