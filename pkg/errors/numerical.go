package errors

import (
	"math"
)

// CheckFinite returns a NumericalInstabilityError when any of values is NaN or
// ±Inf. column names the offending column in the error.
func CheckFinite(operation, column string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, column, values)
		}
	}
	return nil
}

// NonDegenerate returns value when it is a usable positive divisor, otherwise
// fallback. ok reports whether value was kept.
func NonDegenerate(value, fallback float64) (_ float64, ok bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fallback, false
	}
	return value, true
}
