package preprocessing

import (
	"unicode/utf8"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// Derivation replaces a sparse text column with a low-cardinality category
// built from its first character, keeping missing values missing.
type Derivation struct {
	From string
	To   string
}

// Pipeline is the full feature transformation: column dropping, first-char
// derivation, missing indicators, one-hot encoding, median imputation,
// near-zero-variance and correlation pruning, Box-Cox, and standardization,
// in that order. It is fitted exactly once, on training data; the fitted
// state is replayed unchanged on any later table.
type Pipeline struct {
	state *model.StateManager

	drop        []string
	derivations []Derivation

	encoder  *TableEncoder
	variance *VarianceThreshold
	corr     *CorrelationFilter
	boxcox   *BoxCox
	scaler   *StandardScaler

	names []string
}

// PipelineOption is a functional option for Pipeline.
type PipelineOption func(*Pipeline)

// WithDrop drops the named columns before any other step.
func WithDrop(names ...string) PipelineOption {
	return func(p *Pipeline) { p.drop = append(p.drop, names...) }
}

// WithFirstCharDerivation derives column to from the first character of
// column from, then drops from.
func WithFirstCharDerivation(from, to string) PipelineOption {
	return func(p *Pipeline) {
		p.derivations = append(p.derivations, Derivation{From: from, To: to})
	}
}

// WithVarianceThreshold overrides the near-zero-variance cutoff.
func WithVarianceThreshold(threshold float64) PipelineOption {
	return func(p *Pipeline) { p.variance.Threshold = threshold }
}

// WithCorrelationThreshold overrides the pairwise correlation cutoff.
func WithCorrelationThreshold(threshold float64) PipelineOption {
	return func(p *Pipeline) { p.corr.Threshold = threshold }
}

// WithStrictLevels makes unseen categorical levels a transform-time error
// instead of an all-zero dummy row.
func WithStrictLevels(strict bool) PipelineOption {
	return func(p *Pipeline) { p.encoder.Strict = strict }
}

// NewPipeline creates an unfitted pipeline with the default thresholds:
// variance 1e-8, correlation 0.90.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		state:    model.NewStateManager(),
		encoder:  NewTableEncoder(),
		variance: NewVarianceThreshold(1e-8),
		corr:     NewCorrelationFilter(0.90),
		boxcox:   NewBoxCox(),
		scaler:   NewStandardScalerDefault(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fit learns every stage's state from the training table, feeding each
// stage the previous stage's training output.
func (p *Pipeline) Fit(t *dataset.Table) error {
	if p.state.IsFitted() {
		return errors.NewValueError("Pipeline.Fit", "pipeline is already fitted; it must be fit exactly once")
	}

	prepared, err := p.prepare(t)
	if err != nil {
		return err
	}

	X, err := p.encoder.FitTransform(prepared)
	if err != nil {
		return err
	}
	names := p.encoder.FeatureNames()

	Xv, err := p.variance.FitTransform(X)
	if err != nil {
		return err
	}
	names = pick(names, p.variance.Kept)

	Xc, err := p.corr.FitTransform(Xv)
	if err != nil {
		return err
	}
	names = pick(names, p.corr.Kept)

	Xb, err := p.boxcox.FitTransform(Xc)
	if err != nil {
		return err
	}

	if err := p.scaler.Fit(Xb); err != nil {
		return err
	}

	p.names = names
	p.state.SetDimensions(len(names), t.NumRows())
	p.state.SetFitted()
	return nil
}

// Transform replays the fitted state on a table. It never refits.
func (p *Pipeline) Transform(t *dataset.Table) (*mat.Dense, error) {
	if err := p.state.RequireFitted("Pipeline", "Transform"); err != nil {
		return nil, err
	}

	prepared, err := p.prepare(t)
	if err != nil {
		return nil, err
	}

	X, err := p.encoder.Transform(prepared)
	if err != nil {
		return nil, err
	}
	Xv, err := p.variance.Transform(X)
	if err != nil {
		return nil, err
	}
	Xc, err := p.corr.Transform(Xv)
	if err != nil {
		return nil, err
	}
	Xb, err := p.boxcox.Transform(Xc)
	if err != nil {
		return nil, err
	}
	Xs, err := p.scaler.Transform(Xb)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(Xs), nil
}

// FitTransform fits on the table and returns its transformed features.
func (p *Pipeline) FitTransform(t *dataset.Table) (*mat.Dense, error) {
	if err := p.Fit(t); err != nil {
		return nil, err
	}
	return p.Transform(t)
}

// FeatureNames returns the final feature column names in matrix order.
func (p *Pipeline) FeatureNames() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// IsFitted reports whether Fit has completed.
func (p *Pipeline) IsFitted() bool { return p.state.IsFitted() }

// prepare applies the stateless row-wise steps: column drops and first-char
// derivations. These need no fitted state, so fit and transform share them.
func (p *Pipeline) prepare(t *dataset.Table) (*dataset.Table, error) {
	out := t.Drop(p.drop...)
	for _, d := range p.derivations {
		col, err := out.Column(d.From)
		if err != nil {
			return nil, err
		}
		if col.Kind != dataset.String {
			return nil, errors.NewDataFormatError(t.Source, d.From, "first-char derivation needs a string column")
		}
		derived := make([]string, len(col.Strings))
		for i, v := range col.Strings {
			if v != "" {
				r, _ := utf8.DecodeRuneInString(v)
				derived[i] = string(r)
			}
		}
		out = out.Drop(d.From)
		if err := out.AddString(d.To, derived); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// pick selects names by kept indices.
func pick(names []string, kept []int) []string {
	out := make([]string, len(kept))
	for i, j := range kept {
		out[i] = names[j]
	}
	return out
}
