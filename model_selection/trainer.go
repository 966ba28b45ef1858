package model_selection

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/core/model"
	"github.com/YuminosukeSato/lifeboat/metrics"
	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// TaskMode selects the metric the trainer optimizes: accuracy (higher is
// better) for classification, mean squared error (lower is better) for
// regression.
type TaskMode int

const (
	// Classification optimizes mean fold accuracy.
	Classification TaskMode = iota
	// Regression optimizes mean fold MSE.
	Regression
)

// Estimator is the capability set the trainer is written against. Every
// model family implements it once; the trainer exists once for all of them.
type Estimator interface {
	model.Fitter
	model.Predictor
}

// Spec describes one untrained model family: a factory producing a fresh
// estimator with default hyperparameters, and the grid to search. The
// factory must bake in any seed the family needs so that repeated runs are
// reproducible.
type Spec struct {
	Name string
	New  func() Estimator
	Grid Grid
}

// Options configures a training run.
type Options struct {
	// Mode selects the optimization metric. Default Classification.
	Mode TaskMode

	// Folds is the cross-validation fold count. Default 5.
	Folds int

	// HoldoutFraction is the share of rows held out for the final
	// evaluation, never touched by the search. Default 0.2.
	HoldoutFraction float64

	// Seed drives every stochastic step: the holdout split and the fold
	// shuffling. There is no process-wide seeding, so concurrent training
	// runs stay independent and reproducible.
	Seed uint64
}

func (o Options) withDefaults() Options {
	if o.Folds == 0 {
		o.Folds = 5
	}
	if o.HoldoutFraction == 0 {
		o.HoldoutFraction = 0.2
	}
	return o
}

// Result is a fitted artifact with its selection and evaluation metrics.
type Result struct {
	ModelName string

	// BestParams is the configuration chosen by the fold search. Empty when
	// the grid was empty.
	BestParams Params

	// CVScore is the mean fold metric of the chosen configuration, CVStd
	// its standard deviation across folds.
	CVScore float64
	CVStd   float64

	// HoldoutScore is the single evaluation on the held-out partition,
	// reported alongside the fold-search metric but never used for
	// selection.
	HoldoutScore float64

	// Confusion is the holdout confusion matrix; classification mode only.
	Confusion *metrics.ConfusionMatrix

	// Model is the chosen configuration refit on the entire training
	// partition. Immutable after fitting.
	Model Estimator
}

// Train runs the full fit-tune-evaluate sequence:
//
//  1. stratified holdout split by the target's class distribution,
//  2. stratified k-fold folds built from the training partition only,
//  3. grid search scored by the mean fold metric,
//  4. deterministic selection (ties keep the first-seen configuration),
//  5. refit of the winner on the whole training partition,
//  6. one evaluation on the held-out partition.
//
// Selection never sees the held-out rows, and every random draw comes from
// a generator seeded with opts.Seed.
func Train(X, y mat.Matrix, spec Spec, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	n, _ := X.Dims()
	yRows, yCols := y.Dims()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Train")
	}
	if yRows != n {
		return nil, errors.NewDimensionError("Train", n, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewValueError("Train", "y must be a column vector")
	}
	if spec.New == nil {
		return nil, errors.NewValueError("Train", "spec has no estimator factory")
	}

	trainIdx, holdIdx, err := splitForMode(y, opts)
	if err != nil {
		return nil, err
	}
	trainX, trainY := Subset(X, y, trainIdx)
	holdX, holdY := Subset(X, y, holdIdx)

	folds, err := foldsForMode(trainX, trainY, opts)
	if err != nil {
		return nil, err
	}

	candidates := spec.Grid.Enumerate()
	best := -1
	var bestMean, bestStd float64

	for ci, params := range candidates {
		mean, std, err := scoreCandidate(trainX, trainY, spec, params, folds, opts.Mode)
		if err != nil {
			return nil, errors.Wrapf(err, "Train: %s candidate %d", spec.Name, ci)
		}
		// Strict improvement only: ties keep the first-seen configuration.
		if best == -1 || better(opts.Mode, mean, bestMean) {
			best, bestMean, bestStd = ci, mean, std
		}
	}

	// Refit the selected configuration on the entire training partition.
	chosen, err := configure(spec, candidates[best])
	if err != nil {
		return nil, err
	}
	if err := chosen.Fit(trainX, trainY); err != nil {
		return nil, errors.Wrapf(err, "Train: %s refit", spec.Name)
	}

	holdPred, err := chosen.Predict(holdX)
	if err != nil {
		return nil, errors.Wrapf(err, "Train: %s holdout prediction", spec.Name)
	}
	holdScore, err := scoreForMode(opts.Mode, holdY, holdPred)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ModelName:    spec.Name,
		BestParams:   candidates[best],
		CVScore:      bestMean,
		CVStd:        bestStd,
		HoldoutScore: holdScore,
		Model:        chosen,
	}
	if opts.Mode == Classification {
		result.Confusion, err = metrics.NewConfusionMatrix(holdY, holdPred)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// scoreCandidate evaluates one configuration across all folds in parallel
// and returns the mean and standard deviation of the fold metric. Fold
// results are aggregated commutatively, so no ordering is required.
func scoreCandidate(X, y mat.Matrix, spec Spec, params Params, folds []Fold, mode TaskMode) (mean, std float64, err error) {
	scores := make([]float64, len(folds))
	errs := make([]error, len(folds))

	done := make(chan struct{})
	for i := range folds {
		go func(i int) {
			defer func() { done <- struct{}{} }()

			foldX, foldY := Subset(X, y, folds[i].TrainIndices)
			valX, valY := Subset(X, y, folds[i].TestIndices)

			est, cfgErr := configure(spec, params)
			if cfgErr != nil {
				errs[i] = cfgErr
				return
			}
			if fitErr := est.Fit(foldX, foldY); fitErr != nil {
				errs[i] = errors.Wrapf(fitErr, "fold %d fit", i)
				return
			}
			pred, predErr := est.Predict(valX)
			if predErr != nil {
				errs[i] = errors.Wrapf(predErr, "fold %d predict", i)
				return
			}
			scores[i], errs[i] = scoreForMode(mode, valY, pred)
		}(i)
	}
	for range folds {
		<-done
	}

	for _, e := range errs {
		if e != nil {
			return 0, 0, e
		}
	}

	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	if len(scores) > 1 {
		ss := 0.0
		for _, s := range scores {
			d := s - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(scores)-1))
	}
	return mean, std, nil
}

// configure builds a fresh estimator and applies the candidate parameters.
func configure(spec Spec, params Params) (Estimator, error) {
	est := spec.New()
	if len(params) == 0 {
		return est, nil
	}
	setter, ok := est.(model.ParameterSetter)
	if !ok {
		return nil, errors.NewValueError("Train", spec.Name+" has a grid but does not implement ParameterSetter")
	}
	if err := setter.SetParams(params); err != nil {
		return nil, errors.Wrapf(err, "Train: %s SetParams", spec.Name)
	}
	return est, nil
}

func splitForMode(y mat.Matrix, opts Options) (trainIdx, holdIdx []int, err error) {
	if opts.Mode == Classification {
		return TrainTestSplit(y, opts.HoldoutFraction, opts.Seed)
	}
	// Regression targets have no classes to stratify over; fall back to a
	// plain shuffled split via single-fold KFold semantics.
	folds, err := NewKFold(int(math.Round(1/opts.HoldoutFraction)), true, opts.Seed).Split(y, y)
	if err != nil {
		return nil, nil, err
	}
	return folds[0].TrainIndices, folds[0].TestIndices, nil
}

func foldsForMode(X, y mat.Matrix, opts Options) ([]Fold, error) {
	if opts.Mode == Classification {
		return NewStratifiedKFold(opts.Folds, true, opts.Seed).Split(X, y)
	}
	return NewKFold(opts.Folds, true, opts.Seed).Split(X, y)
}

func scoreForMode(mode TaskMode, yTrue, yPred mat.Matrix) (float64, error) {
	if mode == Classification {
		return metrics.Accuracy(yTrue, yPred)
	}
	return metrics.MSE(yTrue, yPred)
}

// better reports whether score improves on incumbent under the mode's
// metric direction.
func better(mode TaskMode, score, incumbent float64) bool {
	if mode == Classification {
		return score > incumbent
	}
	return score < incumbent
}
