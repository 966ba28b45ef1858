package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestVarianceThreshold(t *testing.T) {
	// Column 1 is constant, column 0 and 2 vary.
	X := mat.NewDense(4, 3, []float64{
		1, 5, 10,
		2, 5, 20,
		3, 5, 30,
		4, 5, 40,
	})

	vt := NewVarianceThreshold(1e-8)
	Xt, err := vt.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, vt.Kept)
	_, cols := Xt.Dims()
	assert.Equal(t, 2, cols)
	assert.Equal(t, 10.0, Xt.At(0, 1))
}

func TestVarianceThresholdAllFiltered(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 2,
		1, 2,
		1, 2,
	})

	vt := NewVarianceThreshold(1e-8)
	require.NoError(t, vt.Fit(X))
	_, err := vt.Transform(X)
	assert.Error(t, err)
}

func TestCorrelationFilter(t *testing.T) {
	// Column 2 is an exact linear copy of column 0; the later column is
	// the one dropped.
	X := mat.NewDense(5, 3, []float64{
		1, 9, 2,
		2, 3, 4,
		3, 7, 6,
		4, 1, 8,
		5, 5, 10,
	})

	cf := NewCorrelationFilter(0.90)
	Xt, err := cf.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, cf.Kept)
	_, cols := Xt.Dims()
	assert.Equal(t, 2, cols)
}

func TestCorrelationFilterKeepsWeaklyCorrelated(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 9,
		2, 2,
		3, 7,
		4, 1,
	})

	cf := NewCorrelationFilter(0.90)
	require.NoError(t, cf.Fit(X))
	assert.Equal(t, []int{0, 1}, cf.Kept)
}
