package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
)

func TestReconstructionReport(t *testing.T) {
	original := table.MustNew(
		table.NewFloatColumn("price", []float64{1, 2, math.NaN(), 4}),
		table.NewIntColumn("qty", []int64{5, 5, 5, 5}),
		table.NewStringColumn("city", []string{"a", "b", "c", "d"}),
		table.NewFloatColumn("only_original", []float64{1, 2, 3, 4}),
	)
	restored := table.MustNew(
		table.NewIntColumn("qty", []int64{5, 5, 5, 6}),
		table.NewFloatColumn("price", []float64{1, 2.5, 3, 4}),
		table.NewStringColumn("city", []string{"a", "b", "c", "d"}),
	)

	report, err := ReconstructionReport(original, restored)
	require.NoError(t, err)
	require.Len(t, report, 2)

	price := report[0]
	assert.Equal(t, "price", price.Column)
	assert.Equal(t, 3, price.Compared)
	assert.Equal(t, 1, price.Skipped)
	assert.InDelta(t, 0.5/3, price.MAE, 1e-12)
	assert.InDelta(t, math.Sqrt(0.25/3), price.RMSE, 1e-12)
	assert.Equal(t, 0.5, price.MaxError)
	assert.False(t, math.IsNaN(price.R2))

	qty := report[1]
	assert.Equal(t, "qty", qty.Column)
	assert.Equal(t, 1.0, qty.MaxError)
	// 元の列に分散が無い場合 R2 は NaN
	assert.True(t, math.IsNaN(qty.R2))
}

func TestReconstructionReport_Errors(t *testing.T) {
	a := table.MustNew(table.NewFloatColumn("x", []float64{1, 2}))

	_, err := ReconstructionReport(a, table.MustNew(table.NewFloatColumn("x", []float64{1})))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = ReconstructionReport(a, table.MustNew(table.NewFloatColumn("y", []float64{1, 2})))
	var inputErr *errors.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))

	_, err = ReconstructionReport(nil, a)
	assert.True(t, errors.As(err, &inputErr))
}

func TestReconstructionReport_AllNaN(t *testing.T) {
	nan := math.NaN()
	a := table.MustNew(table.NewFloatColumn("x", []float64{nan, nan}))

	report, err := ReconstructionReport(a, a)
	require.NoError(t, err)
	assert.Equal(t, 0, report[0].Compared)
	assert.Equal(t, 2, report[0].Skipped)
	assert.True(t, math.IsNaN(report[0].MAE))
}
