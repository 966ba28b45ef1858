package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// BoxCox applies a per-column power transform to reduce skew. The lambda for
// each column is fitted by maximizing the Box-Cox profile log-likelihood
// over a fixed grid. Columns with two or fewer distinct values (dummies,
// missingness indicators) are passed through untouched, and every
// transformed column is shifted by a fitted constant so all values are
// strictly positive.
type BoxCox struct {
	state *model.StateManager

	// Lambda is the fitted exponent per column; meaningful only where
	// Applied is true.
	Lambda []float64

	// Shift is the fitted additive offset per column making values positive.
	Shift []float64

	// Applied marks the columns the transform acts on.
	Applied []bool

	// NFeatures is the number of features seen during fitting.
	NFeatures int
}

// lambdaGrid is the search grid for the profile log-likelihood.
// Matches the conventional [-2, 2] range at 0.1 resolution.
var lambdaGrid = func() []float64 {
	grid := make([]float64, 0, 41)
	for l := -2.0; l <= 2.0+1e-9; l += 0.1 {
		grid = append(grid, math.Round(l*10) / 10)
	}
	return grid
}()

// NewBoxCox creates an unfitted BoxCox transformer.
func NewBoxCox() *BoxCox {
	return &BoxCox{state: model.NewStateManager()}
}

// Fit chooses a lambda and shift per eligible column.
func (b *BoxCox) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "BoxCox.Fit")
	}

	b.NFeatures = c
	b.Lambda = make([]float64, c)
	b.Shift = make([]float64, c)
	b.Applied = make([]bool, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			col[i] = X.At(i, j)
		}

		distinct := countDistinct(col)
		if distinct < 2 {
			return errors.Wrapf(errors.ErrZeroVariance, "BoxCox.Fit: column %d", j)
		}
		if distinct <= 2 {
			// Binary columns carry no skew worth transforming.
			continue
		}

		minVal := col[0]
		for _, v := range col[1:] {
			if v < minVal {
				minVal = v
			}
		}
		shift := 0.0
		if minVal <= 0 {
			shift = 1 - minVal
		}

		shifted := make([]float64, r)
		for i, v := range col {
			shifted[i] = v + shift
		}

		b.Applied[j] = true
		b.Shift[j] = shift
		b.Lambda[j] = fitLambda(shifted)
	}

	b.state.SetDimensions(c, r)
	b.state.SetFitted()
	return nil
}

// Transform applies the fitted power transform.
func (b *BoxCox) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := b.state.RequireFitted("BoxCox", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != b.NFeatures {
		return nil, errors.NewDimensionError("BoxCox.Transform", b.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		if !b.Applied[j] {
			for i := 0; i < r; i++ {
				result.Set(i, j, X.At(i, j))
			}
			continue
		}
		for i := 0; i < r; i++ {
			v := X.At(i, j) + b.Shift[j]
			if v <= 0 {
				// Test-time value below anything seen in training; clamp to
				// a small positive value rather than producing NaN.
				v = 1e-8
			}
			result.Set(i, j, boxcox(v, b.Lambda[j]))
		}
	}
	return result, nil
}

// FitTransform fits the transformer and transforms the same data.
func (b *BoxCox) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := b.Fit(X); err != nil {
		return nil, err
	}
	return b.Transform(X)
}

// boxcox evaluates the transform for a single positive value.
func boxcox(x, lambda float64) float64 {
	if math.Abs(lambda) < 1e-12 {
		return math.Log(x)
	}
	return (math.Pow(x, lambda) - 1) / lambda
}

// fitLambda maximizes the profile log-likelihood of the Box-Cox transform
// over the grid. x must be strictly positive.
func fitLambda(x []float64) float64 {
	n := float64(len(x))

	logSum := 0.0
	for _, v := range x {
		logSum += math.Log(v)
	}

	best := 1.0
	bestLL := math.Inf(-1)
	z := make([]float64, len(x))
	for _, lambda := range lambdaGrid {
		for i, v := range x {
			z[i] = boxcox(v, lambda)
		}
		variance := populationVariance(z)
		if variance <= 0 {
			continue
		}
		ll := -n/2*math.Log(variance) + (lambda-1)*logSum
		if ll > bestLL {
			bestLL = ll
			best = lambda
		}
	}
	return best
}

func populationVariance(x []float64) float64 {
	n := float64(len(x))
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= n

	ss := 0.0
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	return ss / n
}

func countDistinct(x []float64) int {
	seen := make(map[float64]struct{}, 8)
	for _, v := range x {
		seen[v] = struct{}{}
		if len(seen) > 2 {
			break
		}
	}
	return len(seen)
}
