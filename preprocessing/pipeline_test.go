package preprocessing

import (
	"math"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/dataset"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

func pipelineTable(t *testing.T, source string, rows int) *dataset.Table {
	t.Helper()

	age := make([]float64, rows)
	fare := make([]float64, rows)
	sex := make([]string, rows)
	cabin := make([]string, rows)
	id := make([]float64, rows)
	for i := 0; i < rows; i++ {
		id[i] = float64(i + 1)
		age[i] = 18 + float64(i%40)
		fare[i] = 7.25 + 3.1*float64(i%13)
		if i%2 == 0 {
			sex[i] = "male"
		} else {
			sex[i] = "female"
		}
		switch i % 4 {
		case 0:
			cabin[i] = "C85"
		case 1:
			cabin[i] = "E46"
		default:
			cabin[i] = ""
		}
	}
	// Some missing ages.
	if rows > 3 {
		age[3] = math.NaN()
	}
	if rows > 11 {
		age[11] = math.NaN()
	}

	tbl := dataset.NewTable(source)
	require.NoError(t, tbl.AddNumeric("passengerid", id))
	require.NoError(t, tbl.AddNumeric("age", age))
	require.NoError(t, tbl.AddNumeric("fare", fare))
	require.NoError(t, tbl.AddString("sex", sex))
	require.NoError(t, tbl.AddString("cabin", cabin))
	return tbl
}

func newTestPipeline() *Pipeline {
	return NewPipeline(
		WithDrop("passengerid"),
		WithFirstCharDerivation("cabin", "deck"),
	)
}

func TestPipelineFitTransform(t *testing.T) {
	train := pipelineTable(t, "train", 40)

	p := newTestPipeline()
	X, err := p.FitTransform(train)
	require.NoError(t, err)

	rows, cols := X.Dims()
	assert.Equal(t, 40, rows)
	assert.Equal(t, len(p.FeatureNames()), cols)
	assert.NotContains(t, p.FeatureNames(), "passengerid")
	assert.Contains(t, p.FeatureNames(), "deck_C")
}

func TestPipelineDerivationKeepsMultiByteFirstRune(t *testing.T) {
	rows := 16
	value := make([]float64, rows)
	section := make([]string, rows)
	for i := 0; i < rows; i++ {
		value[i] = float64(i)
		switch i % 4 {
		case 0:
			section[i] = "Ø85"
		case 1:
			section[i] = "E46"
		default:
			section[i] = ""
		}
	}

	tbl := dataset.NewTable("train")
	require.NoError(t, tbl.AddNumeric("value", value))
	require.NoError(t, tbl.AddString("section", section))

	p := NewPipeline(WithFirstCharDerivation("section", "wing"))
	_, err := p.FitTransform(tbl)
	require.NoError(t, err)

	// The derived level is the first rune, never a broken first byte.
	assert.Contains(t, p.FeatureNames(), "wing_Ø")
	assert.Contains(t, p.FeatureNames(), "wing_E")
	for _, name := range p.FeatureNames() {
		assert.True(t, utf8.ValidString(name), "feature name %q is not valid UTF-8", name)
	}
}

func TestPipelineTransformIdempotent(t *testing.T) {
	train := pipelineTable(t, "train", 40)
	other := pipelineTable(t, "other", 24)

	p := newTestPipeline()
	require.NoError(t, p.Fit(train))

	first, err := p.Transform(other)
	require.NoError(t, err)
	second, err := p.Transform(other)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(first, second, 1e-15))
}

func TestPipelineColumnSetInvariance(t *testing.T) {
	train := pipelineTable(t, "train", 40)
	test := pipelineTable(t, "test", 12)

	p := newTestPipeline()
	trainX, err := p.FitTransform(train)
	require.NoError(t, err)
	testX, err := p.Transform(test)
	require.NoError(t, err)

	_, trainCols := trainX.Dims()
	testRows, testCols := testX.Dims()
	assert.Equal(t, trainCols, testCols)
	assert.Equal(t, 12, testRows)
}

func TestPipelineFitExactlyOnce(t *testing.T) {
	train := pipelineTable(t, "train", 40)

	p := newTestPipeline()
	require.NoError(t, p.Fit(train))

	err := p.Fit(train)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly once")
}

func TestPipelineTransformBeforeFit(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Transform(pipelineTable(t, "test", 8))

	var notFitted *errors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)
}

func TestPipelineSeededDeterminism(t *testing.T) {
	a := newTestPipeline()
	b := newTestPipeline()
	require.NoError(t, a.Fit(pipelineTable(t, "train", 40)))
	require.NoError(t, b.Fit(pipelineTable(t, "train", 40)))

	other := pipelineTable(t, "other", 16)
	Xa, err := a.Transform(other)
	require.NoError(t, err)
	Xb, err := b.Transform(other)
	require.NoError(t, err)

	assert.Equal(t, a.FeatureNames(), b.FeatureNames())
	assert.True(t, mat.EqualApprox(Xa, Xb, 1e-15))
}
