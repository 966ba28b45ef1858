// Package diagnostics computes dataset summaries and renders exploratory
// plots for a Table.
package diagnostics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// ColumnSummary describes one column of a table.
type ColumnSummary struct {
	Name    string
	Kind    dataset.ColumnKind
	Count   int // non-missing values
	Missing int

	// Numeric columns only.
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64

	// String columns only.
	Distinct int
	Top      string // most frequent level, ties broken by name
	TopCount int
}

// Summarize computes a summary for every column in table order.
func Summarize(tbl *dataset.Table) []ColumnSummary {
	cols := tbl.Columns()
	out := make([]ColumnSummary, 0, len(cols))
	for _, col := range cols {
		s := ColumnSummary{Name: col.Name, Kind: col.Kind}
		switch col.Kind {
		case dataset.Numeric:
			values := make([]float64, 0, col.Len())
			for i := 0; i < col.Len(); i++ {
				if col.IsMissing(i) {
					s.Missing++
					continue
				}
				values = append(values, col.Floats[i])
			}
			s.Count = len(values)
			if s.Count > 0 {
				sort.Float64s(values)
				s.Mean = stat.Mean(values, nil)
				if s.Count > 1 {
					s.Std = math.Sqrt(stat.Variance(values, nil))
				}
				s.Min = values[0]
				s.Max = values[len(values)-1]
				s.Q25 = stat.Quantile(0.25, stat.Empirical, values, nil)
				s.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
				s.Q75 = stat.Quantile(0.75, stat.Empirical, values, nil)
			}
		case dataset.String:
			counts := make(map[string]int)
			for i := 0; i < col.Len(); i++ {
				if col.IsMissing(i) {
					s.Missing++
					continue
				}
				counts[col.Strings[i]]++
				s.Count++
			}
			s.Distinct = len(counts)
			levels := make([]string, 0, len(counts))
			for l := range counts {
				levels = append(levels, l)
			}
			sort.Strings(levels)
			for _, l := range levels {
				if counts[l] > s.TopCount {
					s.Top = l
					s.TopCount = counts[l]
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// LevelRate is the mean of a numeric target within one level of a
// categorical column.
type LevelRate struct {
	Level string
	Count int
	Rate  float64
}

// RateByLevel groups the rows of a numeric target column by the levels of a
// string column and returns the per-level mean, sorted by level.
func RateByLevel(tbl *dataset.Table, target, by string) ([]LevelRate, error) {
	tc, err := tbl.Column(target)
	if err != nil {
		return nil, err
	}
	if tc.Kind != dataset.Numeric {
		return nil, errors.NewValueError("diagnostics.RateByLevel", "target column must be numeric: "+target)
	}
	bc, err := tbl.Column(by)
	if err != nil {
		return nil, err
	}
	if bc.Kind != dataset.String {
		return nil, errors.NewValueError("diagnostics.RateByLevel", "grouping column must be categorical: "+by)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := 0; i < tc.Len(); i++ {
		if tc.IsMissing(i) || bc.IsMissing(i) {
			continue
		}
		level := bc.Strings[i]
		sums[level] += tc.Floats[i]
		counts[level]++
	}

	levels := make([]string, 0, len(counts))
	for l := range counts {
		levels = append(levels, l)
	}
	sort.Strings(levels)

	out := make([]LevelRate, 0, len(levels))
	for _, l := range levels {
		out = append(out, LevelRate{Level: l, Count: counts[l], Rate: sums[l] / float64(counts[l])})
	}
	return out, nil
}

// CorrelationMatrix computes pairwise Pearson correlations over the numeric
// columns, skipping rows where either value is missing. The returned matrix
// is indexed by the returned names.
func CorrelationMatrix(tbl *dataset.Table) ([]string, [][]float64, error) {
	var names []string
	var cols []*dataset.Column
	for _, col := range tbl.Columns() {
		if col.Kind == dataset.Numeric {
			names = append(names, col.Name)
			cols = append(cols, col)
		}
	}
	if len(names) == 0 {
		return nil, nil, errors.NewValueError("diagnostics.CorrelationMatrix", "table has no numeric columns")
	}

	m := make([][]float64, len(cols))
	for i := range m {
		m[i] = make([]float64, len(cols))
		m[i][i] = 1
	}
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			r := pairwiseCorrelation(cols[i], cols[j])
			m[i][j] = r
			m[j][i] = r
		}
	}
	return names, m, nil
}

func pairwiseCorrelation(a, b *dataset.Column) float64 {
	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		if a.IsMissing(i) || b.IsMissing(i) {
			continue
		}
		xs = append(xs, a.Floats[i])
		ys = append(ys, b.Floats[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}
