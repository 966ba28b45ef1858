package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not fitted",
			err:  NewNotFittedError("Pipeline", "Transform"),
			want: "lifeboat: Pipeline: this estimator is not fitted yet. Call Fit() before using Transform()",
		},
		{
			name: "unknown category",
			err:  NewUnknownCategoryError("embarked", "Q"),
			want: `lifeboat: column "embarked": categorical level "Q" was never seen during fitting`,
		},
		{
			name: "insufficient data",
			err:  NewInsufficientDataError("StratifiedKFold.Split", 10, 3, "smallest class has fewer rows than folds"),
			want: "lifeboat: StratifiedKFold.Split: insufficient data: need at least 10, got 3 (smallest class has fewer rows than folds)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorsAsRoundTrip(t *testing.T) {
	err := Wrap(NewDimensionError("Fit", 4, 3, 1), "outer context")

	var dim *DimensionError
	require.True(t, As(err, &dim))
	assert.Equal(t, 4, dim.Expected)
	assert.Equal(t, 3, dim.Got)
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(err error) { captured = err })
	defer SetWarningHandler(nil)

	warning := NewConvergenceWarning("LogisticRegression", 200, "")
	Warn(warning)

	require.NotNil(t, captured)
	var conv *ConvergenceWarning
	assert.True(t, As(captured, &conv))
}
