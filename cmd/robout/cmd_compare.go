package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/robout/core/model"
	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/internal/report"
	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/preprocessing"
)

type compareFlags struct {
	input    string
	column   string
	state    string
	template string
	name     string
	output   string
}

func newCompareCmd(a *app) *cobra.Command {
	f := &compareFlags{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare robust outlier scaling with standard and min-max scaling",
		Long: `Scale one column three ways and print the raw values next to the
robust outlier, standard and min-max results as a markdown table. Rows where
the column is missing are dropped.

With --template the table replaces the "<name>.table" placeholder of the
given markdown file.

Examples:
  robout compare -i data.csv --column price
  robout compare -i data.csv --column price --template README.tmpl.md --name price -o README.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(a, f, cmd)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input table (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.column, "column", "", "numeric column to compare")
	cmd.Flags().StringVar(&f.state, "state", "", "fitted scaler; the input is fitted when empty")
	cmd.Flags().StringVar(&f.template, "template", "", "markdown template with a <name>.table placeholder")
	cmd.Flags().StringVar(&f.name, "name", "compare", "placeholder name used with --template")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file; stdout when empty")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func runCompare(a *app, f *compareFlags, cmd *cobra.Command) error {
	t, err := a.readTable(f.input)
	if err != nil {
		return err
	}
	cmp, err := a.comparisonTable(t, f.column, f.state)
	if err != nil {
		return err
	}

	var md string
	if f.template == "" {
		md, err = report.MarkdownTable(cmp, a.reportOptions())
	} else {
		var tmpl []byte
		if tmpl, err = os.ReadFile(f.template); err != nil {
			return errors.Wrapf(err, "read template %s", f.template)
		}
		md, err = report.InsertTable(string(tmpl), f.name, cmp, a.reportOptions())
	}
	if err != nil {
		return err
	}

	if f.output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	}
	return os.WriteFile(f.output, []byte(md), 0o644)
}

// comparisonTable builds raw/robout/standard/minmax columns for one column.
func (a *app) comparisonTable(t *table.Table, column, statePath string) (*table.Table, error) {
	selected, err := t.Select(column)
	if err != nil {
		return nil, err
	}
	if !selected.ColumnAt(0).IsNumeric() {
		return nil, errors.NewInvalidColumnError("robout.compare", column, "column is not numeric")
	}

	s, err := a.scalerFor(statePath, selected)
	if err != nil {
		return nil, err
	}
	scaled, err := s.TransformTable(selected)
	if err != nil {
		return nil, err
	}

	raw := selected.ColumnAt(0).Values()
	robout := scaled.ColumnAt(0).Values()
	keepRaw, keepRobout := make([]float64, 0, len(raw)), make([]float64, 0, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) {
			continue
		}
		keepRaw = append(keepRaw, v)
		keepRobout = append(keepRobout, robout[i])
	}
	if len(keepRaw) == 0 {
		return nil, errors.NewInvalidColumnError("robout.compare", column, "column has no numeric values")
	}

	cols := []*table.Column{
		table.NewFloatColumn("raw", keepRaw),
		table.NewFloatColumn("robout", keepRobout),
	}
	X := mat.NewDense(len(keepRaw), 1, keepRaw)
	baselines := []struct {
		name   string
		scaler model.Transformer
	}{
		{"standard", preprocessing.NewStandardScalerDefault()},
		{"minmax", preprocessing.NewMinMaxScalerDefault()},
	}
	for _, b := range baselines {
		out, err := b.scaler.FitTransform(X)
		if err != nil {
			return nil, err
		}
		cols = append(cols, table.NewFloatColumn(b.name, mat.Col(nil, 0, out)))
	}
	return table.New(cols...)
}
