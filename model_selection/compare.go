package model_selection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// Evaluation is one row of the model comparison table.
type Evaluation struct {
	Model           string
	CVAccuracy      float64
	CVStd           float64
	HoldoutAccuracy float64
	Precision       float64
	Recall          float64
	F1              float64
	BestParams      Params
}

// Compare trains every spec on the same features and target and returns one
// table row per model family, in spec order. The trainings share no mutable
// state, so they run concurrently; no ranking is applied — choosing a model
// from the table is the caller's decision.
func Compare(X, y mat.Matrix, specs []Spec, opts Options) ([]Evaluation, error) {
	if len(specs) == 0 {
		return nil, errors.NewValueError("Compare", "no model specs given")
	}

	evals := make([]Evaluation, len(specs))
	errs := make([]error, len(specs))

	done := make(chan struct{})
	for i := range specs {
		go func(i int) {
			defer func() { done <- struct{}{} }()

			result, err := Train(X, y, specs[i], opts)
			if err != nil {
				errs[i] = errors.Wrapf(err, "Compare: %s", specs[i].Name)
				return
			}
			evals[i] = Evaluation{
				Model:           result.ModelName,
				CVAccuracy:      result.CVScore,
				CVStd:           result.CVStd,
				HoldoutAccuracy: result.HoldoutScore,
				BestParams:      result.BestParams,
			}
			if result.Confusion != nil {
				evals[i].Precision = result.Confusion.Precision()
				evals[i].Recall = result.Confusion.Recall()
				evals[i].F1 = result.Confusion.F1()
			}
		}(i)
	}
	for range specs {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return evals, nil
}
