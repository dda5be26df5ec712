package tableio

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
)

func sampleTable() *table.Table {
	return table.MustNew(
		table.NewIntColumn("id", []int64{1, 2, 3}),
		table.NewFloatColumn("price", []float64{0.49169521, math.NaN(), 1000.25}),
		table.NewStringColumn("city", []string{"tokyo", "", "osaka"}),
	)
}

func assertSameTable(t *testing.T, want, got *table.Table) {
	t.Helper()
	require.Equal(t, want.Names(), got.Names())
	id, _ := got.Column("id")
	assert.Equal(t, table.Int, id.Kind)
	assert.Equal(t, []int64{1, 2, 3}, id.Ints)

	price, _ := got.Column("price")
	require.Equal(t, table.Float, price.Kind)
	assert.Equal(t, 0.49169521, price.Floats[0])
	assert.True(t, math.IsNaN(price.Floats[1]))
	assert.Equal(t, 1000.25, price.Floats[2])

	city, _ := got.Column("city")
	assert.Equal(t, []string{"tokyo", "", "osaka"}, city.Strings)
}

func TestCSVRoundTrip(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))
	assert.True(t, strings.HasPrefix(buf.String(), "id,price,city\n1,0.49169521,tokyo\n"))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assertSameTable(t, sampleTable(), got)
}

func TestReadWriteFiles(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data"+ext)
			require.NoError(t, Write(path, sampleTable()))

			got, err := Read(path)
			require.NoError(t, err)
			assertSameTable(t, sampleTable(), got)
		})
	}
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = ReadCSV(strings.NewReader("a,b\n1\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a,a\n1,2\n"))
	var inputErr *errors.InvalidInputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("x.CSV")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)

	_, err = FormatFromPath("x.parquet")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))

	_, err = Read(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
