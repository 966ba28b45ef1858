package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// VarianceThreshold drops columns whose training variance does not exceed
// the threshold. Such columns are nearly constant and carry no
// discriminative value.
type VarianceThreshold struct {
	state *model.StateManager

	// Threshold is the minimum variance a column must exceed to be kept.
	Threshold float64

	// Kept holds the retained column indices, in input order.
	Kept []int

	// NFeatures is the number of features seen during fitting.
	NFeatures int
}

// NewVarianceThreshold creates a filter with the given threshold.
func NewVarianceThreshold(threshold float64) *VarianceThreshold {
	return &VarianceThreshold{state: model.NewStateManager(), Threshold: threshold}
}

// Fit records which columns to keep.
func (v *VarianceThreshold) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "VarianceThreshold.Fit")
	}

	v.NFeatures = c
	v.Kept = v.Kept[:0]
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		if stat.Variance(col, nil) > v.Threshold {
			v.Kept = append(v.Kept, j)
		}
	}

	v.state.SetDimensions(c, r)
	v.state.SetFitted()
	return nil
}

// Transform selects the kept columns.
func (v *VarianceThreshold) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := v.state.RequireFitted("VarianceThreshold", "Transform"); err != nil {
		return nil, err
	}
	return selectColumns("VarianceThreshold.Transform", X, v.NFeatures, v.Kept)
}

// FitTransform fits the filter and transforms the same data.
func (v *VarianceThreshold) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := v.Fit(X); err != nil {
		return nil, err
	}
	return v.Transform(X)
}

// CorrelationFilter drops one column of every pair whose absolute Pearson
// correlation exceeds the threshold. The later column in input order is the
// one dropped, which makes the selection deterministic.
type CorrelationFilter struct {
	state *model.StateManager

	// Threshold is the absolute correlation above which a pair is redundant.
	Threshold float64

	// Kept holds the retained column indices, in input order.
	Kept []int

	// NFeatures is the number of features seen during fitting.
	NFeatures int
}

// NewCorrelationFilter creates a filter with the given threshold.
func NewCorrelationFilter(threshold float64) *CorrelationFilter {
	return &CorrelationFilter{state: model.NewStateManager(), Threshold: threshold}
}

// Fit records which columns survive the pairwise correlation pruning.
func (f *CorrelationFilter) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "CorrelationFilter.Fit")
	}

	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		cols[j] = make([]float64, r)
		mat.Col(cols[j], j, X)
	}

	dropped := make([]bool, c)
	for a := 0; a < c; a++ {
		if dropped[a] {
			continue
		}
		for b := a + 1; b < c; b++ {
			if dropped[b] {
				continue
			}
			corr := stat.Correlation(cols[a], cols[b], nil)
			if !math.IsNaN(corr) && math.Abs(corr) > f.Threshold {
				dropped[b] = true
			}
		}
	}

	f.NFeatures = c
	f.Kept = f.Kept[:0]
	for j := 0; j < c; j++ {
		if !dropped[j] {
			f.Kept = append(f.Kept, j)
		}
	}

	f.state.SetDimensions(c, r)
	f.state.SetFitted()
	return nil
}

// Transform selects the kept columns.
func (f *CorrelationFilter) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := f.state.RequireFitted("CorrelationFilter", "Transform"); err != nil {
		return nil, err
	}
	return selectColumns("CorrelationFilter.Transform", X, f.NFeatures, f.Kept)
}

// FitTransform fits the filter and transforms the same data.
func (f *CorrelationFilter) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := f.Fit(X); err != nil {
		return nil, err
	}
	return f.Transform(X)
}

// selectColumns copies the kept columns of X into a new matrix.
func selectColumns(op string, X mat.Matrix, nFeatures int, kept []int) (mat.Matrix, error) {
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewDimensionError(op, nFeatures, c, 1)
	}
	if len(kept) == 0 {
		return nil, errors.NewValueError(op, "every column was filtered out")
	}

	result := mat.NewDense(r, len(kept), nil)
	for out, j := range kept {
		for i := 0; i < r; i++ {
			result.Set(i, out, X.At(i, j))
		}
	}
	return result, nil
}
