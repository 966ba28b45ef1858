// Package metrics implements the evaluation metrics used for model
// comparison: classification accuracy and friends, plus the regression
// losses used when the trainer runs in regression mode.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// column0 validates that yTrue and yPred are aligned (n, 1) matrices and
// returns the row count.
func column0(op string, yTrue, yPred mat.Matrix) (int, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewValueError(op, "labels must be column vectors")
	}
	if rPred != rTrue {
		return 0, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	return rTrue, nil
}

// Accuracy returns the fraction of exactly matching labels.
func Accuracy(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := column0("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.At(i, 0) == yPred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// LogLoss returns the negative mean log-likelihood of binary predictions.
// proba holds the predicted probability of the positive class; predictions
// are clipped away from 0 and 1 so the log stays finite.
func LogLoss(yTrue, proba mat.Matrix) (float64, error) {
	n, err := column0("LogLoss", yTrue, proba)
	if err != nil {
		return 0, err
	}

	const eps = 1e-15
	loss := 0.0
	for i := 0; i < n; i++ {
		p := proba.At(i, 0)
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		if yTrue.At(i, 0) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// ConfusionMatrix holds binary classification counts with 1 as the positive
// class.
type ConfusionMatrix struct {
	TruePositive  int
	TrueNegative  int
	FalsePositive int
	FalseNegative int
}

// NewConfusionMatrix tallies binary labels (0/1).
func NewConfusionMatrix(yTrue, yPred mat.Matrix) (*ConfusionMatrix, error) {
	n, err := column0("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	cm := &ConfusionMatrix{}
	for i := 0; i < n; i++ {
		truth := yTrue.At(i, 0) == 1
		pred := yPred.At(i, 0) == 1
		switch {
		case truth && pred:
			cm.TruePositive++
		case !truth && !pred:
			cm.TrueNegative++
		case !truth && pred:
			cm.FalsePositive++
		default:
			cm.FalseNegative++
		}
	}
	return cm, nil
}

// Precision returns TP / (TP + FP), or 0 when nothing was predicted positive.
func (cm *ConfusionMatrix) Precision() float64 {
	denom := cm.TruePositive + cm.FalsePositive
	if denom == 0 {
		return 0
	}
	return float64(cm.TruePositive) / float64(denom)
}

// Recall returns TP / (TP + FN), or 0 when no positives exist.
func (cm *ConfusionMatrix) Recall() float64 {
	denom := cm.TruePositive + cm.FalseNegative
	if denom == 0 {
		return 0
	}
	return float64(cm.TruePositive) / float64(denom)
}

// F1 returns the harmonic mean of precision and recall.
func (cm *ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
