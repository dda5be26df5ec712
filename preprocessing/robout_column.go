package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/robout/core/stats"
	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
)

// saturationTolerance absorbs the rounding of y*scale+mean around the 0 and 1
// boundaries of the sigmoid so that a saturated value still maps to its
// outlier fill.
const saturationTolerance = 1e-12

// ColumnStats は1列分の学習済み統計量
// Ignored columns only carry Name and Kind; every statistic is NaN.
type ColumnStats struct {
	Name    string
	Kind    table.Kind
	Ignored bool
	// Integer は全ての値が整数の場合 true。逆変換で整数に丸める
	Integer bool

	Median        float64
	UpperQuantile float64
	LowerQuantile float64
	// Spread is UpperQuantile-LowerQuantile, or 1 when that collapses to zero
	Spread float64

	// PositiveOutlierFill / NegativeOutlierFill replace +Inf / -Inf on inversion.
	// NaN when no value lies beyond the quantile.
	PositiveOutlierFill float64
	NegativeOutlierFill float64

	PostNormMean  float64
	PostNormScale float64
}

func ignoredColumn(name string, kind table.Kind) ColumnStats {
	nan := math.NaN()
	return ColumnStats{
		Name: name, Kind: kind, Ignored: true,
		Median: nan, UpperQuantile: nan, LowerQuantile: nan, Spread: nan,
		PositiveOutlierFill: nan, NegativeOutlierFill: nan,
		PostNormMean: nan, PostNormScale: nan,
	}
}

func (c *ColumnStats) sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-(x-c.Median)/c.Spread))
}

// scaleIn maps a raw value to the scaled space. Identity for ignored columns.
func (c *ColumnStats) scaleIn(x float64) float64 {
	if c.Ignored {
		return x
	}
	return (c.sigmoid(x) - c.PostNormMean) / c.PostNormScale
}

// scaleOut maps a scaled value back to original units, substituting the
// outlier fills for ±Inf. Identity for ignored columns. Values outside the
// sigmoid's range yield NaN.
func (c *ColumnStats) scaleOut(y float64) float64 {
	if c.Ignored {
		return y
	}

	u := y*c.PostNormScale + c.PostNormMean
	switch {
	case u > 1 && u-1 <= saturationTolerance:
		u = 1
	case u < 0 && -u <= saturationTolerance:
		u = 0
	}

	x := c.Median - c.Spread*math.Log(1/u-1)
	switch {
	case math.IsInf(x, 1):
		return c.PositiveOutlierFill
	case math.IsInf(x, -1):
		return c.NegativeOutlierFill
	}
	return x
}

// restore is scaleOut followed by integer restoration for Integer columns.
func (c *ColumnStats) restore(op string, y float64) (float64, error) {
	x := c.scaleOut(y)
	if !c.Integer {
		return x, nil
	}
	if math.IsNaN(x) {
		return 0, errors.NewValueError(op,
			fmt.Sprintf("cannot restore NaN in integer column '%s' (scaled value %g)", c.Name, y))
	}
	r := math.Round(x)
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return 0, errors.NewValueError(op,
			fmt.Sprintf("value %g overflows integer column '%s'", x, c.Name))
	}
	return r, nil
}

// fitColumn computes the statistics of one non-ignored column. Warnings for
// degenerate statistics are returned for the caller to emit in column order.
func fitColumn(op string, col *table.Column, lowerQ, upperQ float64, mode Normalization) (ColumnStats, []error, error) {
	values := col.Values()
	sorted := stats.Sorted(values)
	if len(sorted) == 0 {
		return ColumnStats{}, nil, errors.NewInvalidColumnError(op, col.Name, "column has no numeric values")
	}

	c := ColumnStats{
		Name:          col.Name,
		Kind:          col.Kind,
		Integer:       col.Kind == table.Int || stats.IsIntegral(values),
		Median:        stats.QuantileSorted(sorted, stats.QuantileMedian),
		UpperQuantile: stats.QuantileSorted(sorted, upperQ),
		LowerQuantile: stats.QuantileSorted(sorted, lowerQ),
	}
	// sorted ends carry any ±Inf of the column
	if err := errors.CheckFinite(op, col.Name, sorted[0], sorted[len(sorted)-1]); err != nil {
		return ColumnStats{}, nil, err
	}

	c.PositiveOutlierFill = stats.MedianAbove(sorted, c.UpperQuantile)
	c.NegativeOutlierFill = stats.MedianBelow(sorted, c.LowerQuantile)

	var warnings []error
	raw := c.UpperQuantile - c.LowerQuantile
	spread, ok := errors.NonDegenerate(raw, 1)
	if !ok {
		warnings = append(warnings, errors.NewDegenerateRangeWarning(col.Name, "quantile spread", raw, spread))
	}
	c.Spread = spread

	if mean, scale, fixed := mode.fixedAffine(); fixed {
		c.PostNormMean, c.PostNormScale = mean, scale
		return c, warnings, nil
	}

	sig := make([]float64, 0, len(sorted))
	for _, v := range values {
		if !math.IsNaN(v) {
			sig = append(sig, c.sigmoid(v))
		}
	}
	mean, std := stat.MeanStdDev(sig, nil)
	c.PostNormMean = mean

	scale, ok := errors.NonDegenerate(std, 1)
	if !ok {
		warnings = append(warnings, errors.NewDegenerateRangeWarning(col.Name, "standard deviation", std, scale))
	}
	c.PostNormScale = scale
	return c, warnings, nil
}
