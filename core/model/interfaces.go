package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for trainable estimators.
type Fitter interface {
	// Fit trains the estimator on feature matrix X and target y.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for estimators that produce predictions.
type Predictor interface {
	// Predict returns one prediction per row of X, as an (n, 1) matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for estimators that can score themselves.
type Scorer interface {
	// Score returns the mean accuracy (classification) on X against y.
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier is the capability set the generic trainer is written against:
// one implementation per model family, a single trainer for all of them.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns per-class probability estimates, shape
	// (n_samples, n_classes) with columns ordered by Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting, sorted.
	Classes() []int
}

// ParameterGetter is the interface for estimators that expose their
// hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface the grid search uses to configure a
// candidate before fitting.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}

// Transformer is the interface for feature transformations with learned
// state. Fit learns from training data only; Transform replays the learned
// state on any dataset.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Persistable is the interface for artifacts that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
