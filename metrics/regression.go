// Package metrics provides evaluation metrics for research pipelines and an
// accumulating collector for batch-wise evaluation.
package metrics

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gridflow/core/parallel"
	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

// parallelThreshold is the vector length above which the squared-error sum
// is computed in parallel chunks.
const parallelThreshold = 10000

// MSE computes the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewValueError("MSE", "vector length mismatch")
	}

	var mu sync.Mutex
	var sum float64
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		var local float64
		for i := start; i < end; i++ {
			diff := yTrue.AtVec(i) - yPred.AtVec(i)
			local += diff * diff
		}
		mu.Lock()
		sum += local
		mu.Unlock()
	})

	return sum / float64(n), nil
}

// RMSE computes the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE computes the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewValueError("MAE", "vector length mismatch")
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score computes the coefficient of determination. A constant target
// yields an UndefinedMetricWarning and a score of 0.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewValueError("R2Score", "vector length mismatch")
	}

	var mean float64
	for i := 0; i < n; i++ {
		mean += yTrue.AtVec(i)
	}
	mean /= float64(n)

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		res := yTrue.AtVec(i) - yPred.AtVec(i)
		tot := yTrue.AtVec(i) - mean
		ssRes += res * res
		ssTot += tot * tot
	}

	if ssTot == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("r2_score", "constant target values", 0.0))
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}
