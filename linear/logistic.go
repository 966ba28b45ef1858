// Package linear implements the logistic regression classifier.
package linear

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// LogisticRegression is a binary classifier trained by full-batch gradient
// descent with L2 regularization and an adaptive learning rate schedule.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	C            float64 // inverse regularization strength
	MaxIter      int
	Tol          float64
	FitIntercept bool
	RandomState  uint64 // seed for weight initialization

	// Fitted parameters
	Coef      []float64
	Intercept float64
	ClassList []int
	NFeatures int
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// WithC sets the inverse regularization strength.
func WithC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.C = c }
}

// WithMaxIter sets the maximum number of gradient descent iterations.
func WithMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.MaxIter = maxIter }
}

// WithTol sets the gradient-norm stopping tolerance.
func WithTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.Tol = tol }
}

// WithFitIntercept controls whether an intercept term is trained.
func WithFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.FitIntercept = fit }
}

// WithSeed sets the seed for weight initialization.
func WithSeed(seed uint64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.RandomState = seed }
}

// NewLogisticRegression creates a classifier with sensible defaults.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		C:            1.0,
		MaxIter:      200,
		Tol:          1e-4,
		FitIntercept: true,
		RandomState:  1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit trains the classifier. y must hold exactly two distinct labels.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 {
		return errors.Wrap(errors.ErrEmptyData, "LogisticRegression.Fit")
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	lr.ClassList = extractClasses(y)
	if len(lr.ClassList) != 2 {
		return errors.NewValueError("LogisticRegression.Fit", "exactly two classes are required")
	}
	lr.NFeatures = nFeatures

	// 0/1 encode against the larger class label.
	positive := lr.ClassList[1]
	target := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == positive {
			target[i] = 1
		}
	}

	r := rand.New(rand.NewPCG(lr.RandomState, lr.RandomState))
	lr.Coef = make([]float64, nFeatures)
	for j := range lr.Coef {
		lr.Coef[j] = r.NormFloat64() * 0.01
	}
	lr.Intercept = 0

	lambda := 1.0 / lr.C
	const baseLearningRate = 1.0

	converged := false
	for iter := 0; iter < lr.MaxIter; iter++ {
		gradW := make([]float64, nFeatures)
		gradB := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.Intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.Coef[j]
			}
			residual := sigmoid(z) - target[i]
			gradB += residual
			for j := 0; j < nFeatures; j++ {
				gradW[j] += residual * X.At(i, j)
			}
		}

		for j := range gradW {
			gradW[j] = gradW[j]/float64(nSamples) + lambda*lr.Coef[j]/float64(nSamples)
		}
		gradB /= float64(nSamples)

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range lr.Coef {
			lr.Coef[j] -= learningRate * gradW[j]
		}
		if lr.FitIntercept {
			lr.Intercept -= learningRate * gradB
		}

		maxGrad := math.Abs(gradB)
		for _, g := range gradW {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.Tol {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.MaxIter, ""))
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// Predict returns one class label per row.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	n, _ := proba.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if proba.At(i, 1) >= 0.5 {
			out.Set(i, 0, float64(lr.ClassList[1]))
		} else {
			out.Set(i, 0, float64(lr.ClassList[0]))
		}
	}
	return out, nil
}

// PredictProba returns (n, 2) class probabilities ordered by Classes().
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.NFeatures, c, 1)
	}

	out := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		z := lr.Intercept
		for j := 0; j < lr.NFeatures; j++ {
			z += X.At(i, j) * lr.Coef[j]
		}
		p := sigmoid(z)
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

// Score returns the mean accuracy on X against y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return accuracy(y, pred)
}

// Classes returns the class labels seen during fitting, sorted.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.ClassList))
	copy(out, lr.ClassList)
	return out
}

// GetParams returns the hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"c":             lr.C,
		"max_iter":      lr.MaxIter,
		"tol":           lr.Tol,
		"fit_intercept": lr.FitIntercept,
	}
}

// SetParams sets hyperparameters by name; unknown names are an error.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "c":
			v, ok := model.ToFloat(value)
			if !ok {
				return errors.NewValueError("LogisticRegression.SetParams", "c must be numeric")
			}
			lr.C = v
		case "max_iter":
			v, ok := model.ToInt(value)
			if !ok {
				return errors.NewValueError("LogisticRegression.SetParams", "max_iter must be an integer")
			}
			lr.MaxIter = v
		case "tol":
			v, ok := model.ToFloat(value)
			if !ok {
				return errors.NewValueError("LogisticRegression.SetParams", "tol must be numeric")
			}
			lr.Tol = v
		case "fit_intercept":
			v, ok := model.ToBool(value)
			if !ok {
				return errors.NewValueError("LogisticRegression.SetParams", "fit_intercept must be a bool")
			}
			lr.FitIntercept = v
		default:
			return errors.NewValueError("LogisticRegression.SetParams", "unknown parameter "+key)
		}
	}
	return nil
}

// Save writes the fitted model to path.
func (lr *LogisticRegression) Save(path string) error {
	if err := lr.state.RequireFitted("LogisticRegression", "Save"); err != nil {
		return err
	}
	return model.SaveGob(path, lr)
}

// Load reads a fitted model from path.
func (lr *LogisticRegression) Load(path string) error {
	if err := model.LoadGob(path, lr); err != nil {
		return err
	}
	if lr.state == nil {
		lr.state = model.NewStateManager()
	}
	lr.state.SetFitted()
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// extractClasses returns the distinct integer labels of y, sorted.
func extractClasses(y mat.Matrix) []int {
	n, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		seen[int(y.At(i, 0))] = true
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}

func accuracy(y, pred mat.Matrix) (float64, error) {
	n, _ := y.Dims()
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "accuracy")
	}
	correct := 0
	for i := 0; i < n; i++ {
		if y.At(i, 0) == pred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}
