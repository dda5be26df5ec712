package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/robout/pkg/errors"
)

// FromRecords builds a table from a header row and text records, inferring each
// column's kind:
//
//   - every cell parses as an integer: Int
//   - every non-empty cell parses as a float: Float (empty cells become NaN and a
//     DataConversionWarning is raised)
//   - otherwise, or when every cell is empty: String
//
// Records shorter or longer than the header are rejected.
func FromRecords(header []string, records [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, errors.NewInvalidInputError("table.FromRecords", "header is empty")
	}
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, errors.NewInvalidInputError("table.FromRecords",
				fmt.Sprintf("record %d has %d fields, header has %d", i+1, len(rec), len(header)))
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		cells := make([]string, len(records))
		for i, rec := range records {
			cells[i] = rec[j]
		}
		cols[j] = inferColumn(strings.TrimSpace(name), cells)
	}
	return New(cols...)
}

func inferColumn(name string, cells []string) *Column {
	if ints, ok := parseInts(cells); ok {
		return NewIntColumn(name, ints)
	}
	if floats, missing, ok := parseFloats(cells); ok {
		if missing > 0 {
			errors.Warn(errors.NewDataConversionWarning("string", "float64",
				fmt.Sprintf("column '%s': %d empty cells read as NaN", name, missing)))
		}
		return NewFloatColumn(name, floats)
	}
	return NewStringColumn(name, cells)
}

func parseInts(cells []string) ([]int64, bool) {
	if len(cells) == 0 {
		return nil, false
	}
	out := make([]int64, len(cells))
	for i, s := range cells {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseFloats(cells []string) (_ []float64, missing int, ok bool) {
	out := make([]float64, len(cells))
	for i, s := range cells {
		s = strings.TrimSpace(s)
		if s == "" {
			out[i] = math.NaN()
			missing++
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, 0, false
		}
		out[i] = v
	}
	if missing == len(cells) {
		return nil, 0, false
	}
	return out, missing, true
}
