package errors

import (
	"math"
)

// CheckNumericalStability returns an error when values contain NaN or Inf.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// IsFiniteMetric reports whether a collected metric value can be stored as a
// regular measurement. NaN and Inf values are stored too, but callers warn
// with DivergedMetricWarning first.
func IsFiniteMetric(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// SafeDivide divides with protection against a (near-)zero denominator,
// returning 0 instead of Inf.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-10 {
		return 0
	}
	return numerator / denominator
}
