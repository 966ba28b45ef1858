package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MSE returns the mean squared error.
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := column0("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		diff := yTrue.At(i, 0) - yPred.At(i, 0)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE returns the root mean squared error.
func RMSE(yTrue, yPred mat.Matrix) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := column0("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.At(i, 0) - yPred.At(i, 0))
	}
	return sum / float64(n), nil
}

// R2 returns the coefficient of determination. A constant target yields 0.
func R2(yTrue, yPred mat.Matrix) (float64, error) {
	n, err := column0("R2", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	mean := 0.0
	for i := 0; i < n; i++ {
		mean += yTrue.At(i, 0)
	}
	mean /= float64(n)

	ssTot, ssRes := 0.0, 0.0
	for i := 0; i < n; i++ {
		d := yTrue.At(i, 0) - mean
		ssTot += d * d
		r := yTrue.At(i, 0) - yPred.At(i, 0)
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
