// Package stats provides the order statistics used to fit the robust scaler.
//
// Quantiles use linear interpolation between closest ranks (Hyndman-Fan type 7),
// the default of NumPy and pandas. NaN values are skipped everywhere; an input
// without any non-NaN value yields NaN.
package stats

import (
	"math"
	"slices"
)

// Well-known quantile levels.
const (
	QuantileMedian = 0.5
)

// Sorted returns an ascending copy of values with NaN removed.
func Sorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// QuantileSorted returns the p-quantile of an ascending, NaN-free slice.
// p must be in [0, 1]. Returns NaN for an empty slice.
func QuantileSorted(sorted []float64, p float64) float64 {
	count := len(sorted)
	if count == 0 {
		return math.NaN()
	}

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)
	// ±Inf neighbours would produce NaN through Inf*0
	if frac == 0 {
		return sorted[lower]
	}
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Quantile returns the p-quantile of values, skipping NaN.
// The input slice is not modified.
func Quantile(values []float64, p float64) float64 {
	return QuantileSorted(Sorted(values), p)
}

// Median returns the 0.5 quantile of values, skipping NaN.
func Median(values []float64) float64 {
	return Quantile(values, QuantileMedian)
}

// MedianAbove returns the median of the values of an ascending, NaN-free slice
// that are strictly greater than threshold, or NaN when there are none.
func MedianAbove(sorted []float64, threshold float64) float64 {
	i, _ := slices.BinarySearch(sorted, threshold)
	for i < len(sorted) && sorted[i] <= threshold {
		i++
	}
	return QuantileSorted(sorted[i:], QuantileMedian)
}

// MedianBelow returns the median of the values of an ascending, NaN-free slice
// that are strictly less than threshold, or NaN when there are none.
func MedianBelow(sorted []float64, threshold float64) float64 {
	i, _ := slices.BinarySearch(sorted, threshold)
	return QuantileSorted(sorted[:i], QuantileMedian)
}

// IsIntegral reports whether every value equals its integer truncation.
// Any NaN or ±Inf makes the column non-integral. An empty slice is not integral.
func IsIntegral(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return false
		}
	}
	return true
}

// CountNaN returns the number of NaN entries in values.
func CountNaN(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
