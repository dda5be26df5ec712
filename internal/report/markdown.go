// Package report renders tables as markdown and distributions as PNG
// histograms for the robout CLI.
package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
)

// DefaultMaxCols is the chunk width used when Options.MaxCols is zero.
const DefaultMaxCols = 10

// ellipsis marks a chunk that continues in the next table.
const ellipsis = "..."

// Options controls MarkdownTable.
type Options struct {
	// MaxCols は1つの表に並べる列数（Transpose の場合は行数）
	MaxCols int
	// Transpose renders every column as a row headed by its name.
	Transpose bool
}

func (o Options) maxCols() int {
	if o.MaxCols <= 0 {
		return DefaultMaxCols
	}
	return o.MaxCols
}

// MarkdownTable renders t as one or more pipe tables separated by a blank
// line. Numeric columns are formatted by magnitude:
//
//	max |x| > 100    integer (truncated)
//	max |x| > 0.1    3 decimals
//	max |x| > 1e-4   6 decimals
//	max |x| > 1e-6   9 decimals
//	otherwise        12 significant digits
//
// Every chunk except the last carries a trailing "..." column (a trailing
// "..." row when transposed).
func MarkdownTable(t *table.Table, opts Options) (string, error) {
	if t == nil {
		return "", errors.NewInvalidInputError("report.MarkdownTable", "table is nil")
	}

	names := t.Names()
	cells := formatColumns(t)
	n := opts.maxCols()

	var chunks []string
	if !opts.Transpose {
		for start := 0; start < len(names); start += n {
			end := min(start+n, len(names))
			header := append([]string(nil), names[start:end]...)
			rows := make([][]string, t.NumRows())
			for i := range rows {
				row := make([]string, 0, end-start+1)
				for j := start; j < end; j++ {
					row = append(row, cells[j][i])
				}
				rows[i] = row
			}
			if end < len(names) {
				header = append(header, ellipsis)
				for i := range rows {
					rows[i] = append(rows[i], "")
				}
			}
			chunks = append(chunks, render(header, rows))
		}
		return strings.Join(chunks, "\n"), nil
	}

	// 転置: 元の行をヘッダーに、列を行に
	rowCount := t.NumRows()
	if rowCount == 0 {
		return render([]string{" "}, columnRows(names, cells, 0, 0)), nil
	}
	for start := 0; start < rowCount; start += n {
		end := min(start+n, rowCount)
		header := []string{" "}
		for i := start; i < end; i++ {
			header = append(header, strconv.Itoa(i))
		}
		rows := columnRows(names, cells, start, end)
		if end < rowCount {
			filler := make([]string, len(header))
			filler[0] = ellipsis
			rows = append(rows, filler)
		}
		chunks = append(chunks, render(header, rows))
	}
	return strings.Join(chunks, "\n"), nil
}

func columnRows(names []string, cells [][]string, start, end int) [][]string {
	rows := make([][]string, len(names))
	for j, name := range names {
		row := make([]string, 0, end-start+1)
		row = append(row, name)
		row = append(row, cells[j][start:end]...)
		rows[j] = row
	}
	return rows
}

func render(header []string, rows [][]string) string {
	var b strings.Builder
	w := tablewriter.NewWriter(&b)
	w.SetHeader(header)
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)
	w.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	w.SetCenterSeparator("|")
	w.AppendBulk(rows)
	w.Render()
	return b.String()
}

// InsertTable replaces every "<name>.table" placeholder in md with the
// rendered table.
func InsertTable(md, name string, t *table.Table, opts Options) (string, error) {
	rendered, err := MarkdownTable(t, opts)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(md, name+".table", rendered), nil
}

// formatColumns returns the display text of every cell, column-major.
func formatColumns(t *table.Table) [][]string {
	out := make([][]string, t.NumCols())
	for j, c := range t.Columns() {
		cells := make([]string, t.NumRows())
		switch c.Kind {
		case table.Float:
			format := magnitudeFormat(c.Floats)
			for i, v := range c.Floats {
				cells[i] = format(v)
			}
		default:
			for i := range cells {
				cells[i] = c.Cell(i)
			}
		}
		out[j] = cells
	}
	return out
}

// magnitudeFormat picks a formatter from the largest finite absolute value.
func magnitudeFormat(values []float64) func(float64) string {
	var maxAbs float64
	for _, v := range values {
		if a := math.Abs(v); !math.IsNaN(a) && !math.IsInf(a, 0) && a > maxAbs {
			maxAbs = a
		}
	}

	decimals := -1
	switch {
	case maxAbs > 100:
		return func(v float64) string {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return formatSpecial(v)
			}
			return strconv.FormatInt(int64(v), 10)
		}
	case maxAbs > 0.1:
		decimals = 3
	case maxAbs > 1e-4:
		decimals = 6
	case maxAbs > 1e-6:
		decimals = 9
	}

	return func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return formatSpecial(v)
		}
		if decimals >= 0 {
			p := math.Pow(10, float64(decimals))
			v = math.Round(v*p) / p
		}
		return strconv.FormatFloat(v, 'g', 12, 64)
	}
}

func formatSpecial(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case v > 0:
		return "inf"
	default:
		return "-inf"
	}
}
