// Package tableio reads and writes tables as CSV or XLSX files.
package tableio

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
)

// Format is a tabular file format.
type Format int

const (
	CSV Format = iota
	XLSX
)

func (f Format) String() string {
	if f == XLSX {
		return "xlsx"
	}
	return "csv"
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".xlsx":
		return XLSX, nil
	default:
		return 0, errors.Wrapf(errors.ErrUnsupportedFormat, "table file %s (use .csv or .xlsx)", path)
	}
}

// Read loads a table from a .csv or .xlsx file. The first row is the header
// and column kinds are inferred by table.FromRecords.
func Read(path string) (*table.Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	if format == XLSX {
		return ReadXLSX(path, "")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return t, nil
}

// Write stores t as a .csv or .xlsx file, replacing any existing file.
func Write(path string, t *table.Table) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if format == XLSX {
		return WriteXLSX(path, t)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}

// ReadCSV parses CSV with a header row.
func ReadCSV(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse csv")
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no header")
	}
	return table.FromRecords(rows[0], rows[1:])
}

// WriteCSV writes t with a header row. NaN is written as an empty cell.
func WriteCSV(w io.Writer, t *table.Table) error {
	if t == nil {
		return errors.NewInvalidInputError("tableio.WriteCSV", "table is nil")
	}

	writer := csv.NewWriter(w)
	header, records := t.Records()
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	if err := writer.WriteAll(records); err != nil {
		return errors.Wrap(err, "failed to write csv records")
	}
	return nil
}
