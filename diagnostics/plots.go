package diagnostics

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// SaveHistogram renders a histogram of one numeric column to filename.
// Missing values are skipped. The file format follows the extension
// (.png, .svg, .pdf).
func SaveHistogram(tbl *dataset.Table, name, filename string, bins int) error {
	col, err := tbl.Column(name)
	if err != nil {
		return err
	}
	if col.Kind != dataset.Numeric {
		return errors.NewValueError("diagnostics.SaveHistogram", "column must be numeric: "+name)
	}
	if bins < 1 {
		bins = 16
	}

	values := make(plotter.Values, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		values = append(values, col.Floats[i])
	}
	if len(values) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "diagnostics.SaveHistogram")
	}

	p := plot.New()
	p.Title.Text = "Distribution of " + name
	p.X.Label.Text = name
	p.Y.Label.Text = "count"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return errors.Wrap(err, "diagnostics.SaveHistogram")
	}
	p.Add(h)

	if err := p.Save(5*vg.Inch, 4*vg.Inch, filename); err != nil {
		return errors.Wrap(err, "diagnostics.SaveHistogram")
	}
	return nil
}

// SaveCorrelationHeatmap renders the numeric-column correlation matrix as a
// heat map to filename.
func SaveCorrelationHeatmap(tbl *dataset.Table, filename string) error {
	names, m, err := CorrelationMatrix(tbl)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Correlation matrix"
	p.X.Tick.Marker = nameTicks{names: names}
	p.Y.Tick.Marker = nameTicks{names: names}

	hm := plotter.NewHeatMap(correlationGrid{m: m}, palette.Heat(12, 1))
	hm.Min = -1
	hm.Max = 1
	p.Add(hm)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, filename); err != nil {
		return errors.Wrap(err, "diagnostics.SaveCorrelationHeatmap")
	}
	return nil
}

// correlationGrid adapts a square correlation matrix to plotter.GridXYZ.
type correlationGrid struct {
	m [][]float64
}

func (g correlationGrid) Dims() (int, int)   { return len(g.m), len(g.m) }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }
func (g correlationGrid) Z(c, r int) float64 { return g.m[r][c] }

// nameTicks labels integer axis positions with column names.
type nameTicks struct {
	names []string
}

func (t nameTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, name := range t.names {
		v := float64(i)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: name})
	}
	return ticks
}
