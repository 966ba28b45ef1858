package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// MissingLevel is the dummy level assigned to missing categorical values, so
// missingness itself becomes a category.
const MissingLevel = "missing"

// TableEncoder turns a raw table into a numeric matrix. For every predictor
// it records a binary was-missing indicator; categorical columns are one-hot
// encoded with a drop-none policy (one dummy per training level, missing as
// its own level); numeric columns are imputed with the training median.
//
// The level sets and medians learned from training data are replayed
// verbatim at transform time. A test-time level never seen in training
// produces an all-zero dummy row under the default policy, or an
// UnknownCategoryError when Strict is set.
type TableEncoder struct {
	state *model.StateManager

	// Strict makes unseen categorical levels an error instead of an
	// all-zero dummy row.
	Strict bool

	// Columns is the fitted per-column encoding plan, in input column order.
	Columns []ColumnPlan

	names []string
}

// ColumnPlan is the fitted encoding of one input column.
type ColumnPlan struct {
	Name        string
	Categorical bool

	// Median is the training median, used to impute missing numeric values.
	Median float64

	// Levels are the sorted training levels; one dummy each.
	Levels []string
}

// NewTableEncoder creates an unfitted encoder.
func NewTableEncoder() *TableEncoder {
	return &TableEncoder{state: model.NewStateManager()}
}

// Fit learns the encoding plan from the training table.
func (e *TableEncoder) Fit(t *dataset.Table) error {
	if t.NumRows() == 0 || t.NumCols() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "TableEncoder.Fit")
	}

	e.Columns = e.Columns[:0]
	for _, col := range t.Columns() {
		plan := ColumnPlan{Name: col.Name}
		if col.Kind == dataset.Numeric {
			med, err := median(col.Floats)
			if err != nil {
				return errors.Wrapf(err, "TableEncoder.Fit: column %q", col.Name)
			}
			plan.Median = med
		} else {
			plan.Categorical = true
			plan.Levels = observedLevels(col.Strings)
		}
		e.Columns = append(e.Columns, plan)
	}

	e.names = e.buildNames()
	e.state.SetDimensions(len(e.names), t.NumRows())
	e.state.SetFitted()
	return nil
}

// Transform encodes a table using the fitted plan. The table must contain
// every fitted column; extra columns are an error so that train and test
// stay structurally identical.
func (e *TableEncoder) Transform(t *dataset.Table) (*mat.Dense, error) {
	if err := e.state.RequireFitted("TableEncoder", "Transform"); err != nil {
		return nil, err
	}
	if t.NumCols() != len(e.Columns) {
		return nil, errors.NewTransformStateMismatchError("TableEncoder",
			"column count differs from fitted table")
	}

	rows := t.NumRows()
	out := mat.NewDense(rows, len(e.names), nil)

	j := 0
	for _, plan := range e.Columns {
		col, err := t.Column(plan.Name)
		if err != nil {
			return nil, errors.NewTransformStateMismatchError("TableEncoder",
				"fitted column "+plan.Name+" not present")
		}

		if plan.Categorical {
			if col.Kind != dataset.String {
				return nil, errors.NewTransformStateMismatchError("TableEncoder",
					"column "+plan.Name+" was categorical at fit time")
			}
			levelIdx := make(map[string]int, len(plan.Levels))
			for k, lv := range plan.Levels {
				levelIdx[lv] = k
			}
			for i := 0; i < rows; i++ {
				val := col.Strings[i]
				if val == "" {
					val = MissingLevel
				}
				if k, ok := levelIdx[val]; ok {
					out.Set(i, j+k, 1)
				} else if e.Strict {
					return nil, errors.NewUnknownCategoryError(plan.Name, val)
				}
				// Unseen level: the dummy block stays all zero.
				if col.IsMissing(i) {
					out.Set(i, j+len(plan.Levels), 1)
				}
			}
			j += len(plan.Levels) + 1
			continue
		}

		if col.Kind != dataset.Numeric {
			return nil, errors.NewTransformStateMismatchError("TableEncoder",
				"column "+plan.Name+" was numeric at fit time")
		}
		for i := 0; i < rows; i++ {
			v := col.Floats[i]
			if math.IsNaN(v) {
				out.Set(i, j, plan.Median)
				out.Set(i, j+1, 1)
			} else {
				out.Set(i, j, v)
			}
		}
		j += 2
	}

	return out, nil
}

// FitTransform fits the encoder and transforms the same table.
func (e *TableEncoder) FitTransform(t *dataset.Table) (*mat.Dense, error) {
	if err := e.Fit(t); err != nil {
		return nil, err
	}
	return e.Transform(t)
}

// FeatureNames returns the output column names in matrix order: per
// categorical column one dummy per level plus a missing indicator, per
// numeric column the value plus a missing indicator.
func (e *TableEncoder) FeatureNames() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

func (e *TableEncoder) buildNames() []string {
	var names []string
	for _, plan := range e.Columns {
		if plan.Categorical {
			for _, lv := range plan.Levels {
				names = append(names, plan.Name+"_"+lv)
			}
			names = append(names, plan.Name+"_na")
			continue
		}
		names = append(names, plan.Name, plan.Name+"_na")
	}
	return names
}

// observedLevels returns the distinct non-missing levels plus MissingLevel
// when any value is missing, sorted for a stable dummy ordering.
func observedLevels(values []string) []string {
	seen := make(map[string]bool)
	hasMissing := false
	for _, v := range values {
		if v == "" {
			hasMissing = true
			continue
		}
		seen[v] = true
	}

	levels := make([]string, 0, len(seen)+1)
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	if hasMissing {
		levels = append(levels, MissingLevel)
	}
	return levels
}

// median returns the median of the non-NaN values.
func median(values []float64) (float64, error) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0, errors.ErrEmptyData
	}

	sort.Float64s(clean)
	n := len(clean)
	if n%2 == 1 {
		return clean[n/2], nil
	}
	return (clean[n/2-1] + clean[n/2]) / 2, nil
}
