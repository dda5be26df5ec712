package tableio

import (
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
)

// DefaultSheet is the sheet written by WriteXLSX.
const DefaultSheet = "Sheet1"

// ReadXLSX reads sheet (the first sheet when empty) with its first row as the
// header. Cells are read raw so numbers keep full precision. Rows shorter than
// the header are padded with empty cells.
func ReadXLSX(path, sheet string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q of %s", sheet, path)
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "sheet %q of %s has no header", sheet, path)
	}

	header := rows[0]
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make([]string, len(header))
		copy(rec, row)
		records = append(records, rec)
	}
	return table.FromRecords(header, records)
}

// WriteXLSX writes t to a new workbook with a single sheet. Numbers are stored
// as numeric cells; NaN is left blank.
func WriteXLSX(path string, t *table.Table) error {
	if t == nil {
		return errors.NewInvalidInputError("tableio.WriteXLSX", "table is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(DefaultSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write xlsx header")
	}

	row := make([]interface{}, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.Columns() {
			row[j] = cellValue(c, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address xlsx row")
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write xlsx row %d", i+1)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}

func cellValue(c *table.Column, i int) interface{} {
	switch c.Kind {
	case table.Int:
		return c.Ints[i]
	case table.String:
		return c.Strings[i]
	default:
		if v := c.Floats[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
		return c.Cell(i)
	}
}
