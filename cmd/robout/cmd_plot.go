package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/robout/internal/report"
	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/pkg/log"
)

type plotFlags struct {
	input  string
	column string
	state  string
	output string
}

func newPlotCmd(a *app) *cobra.Command {
	f := &plotFlags{}
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw raw and scaled histograms of one column as PNG",
		Long: `Draw the histogram of a column before and after scaling side by side.
The number of bins comes from --bins (or report.bins in the config file).

Example:
  robout plot -i data.csv --column price -o price.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(a, f)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input table (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.column, "column", "", "numeric column to plot")
	cmd.Flags().StringVar(&f.state, "state", "", "fitted scaler; the input is fitted when empty")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "PNG file to write")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("column")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runPlot(a *app, f *plotFlags) (err error) {
	t, err := a.readTable(f.input)
	if err != nil {
		return err
	}
	raw, err := numericColumn(t, f.column)
	if err != nil {
		return err
	}
	selected, err := t.Select(f.column)
	if err != nil {
		return err
	}

	s, err := a.scalerFor(f.state, selected)
	if err != nil {
		return err
	}
	scaledTable, err := s.TransformTable(selected)
	if err != nil {
		return err
	}
	scaled, err := numericColumn(scaledTable, f.column)
	if err != nil {
		return err
	}

	out, err := os.Create(f.output)
	if err != nil {
		return errors.Wrapf(err, "create %s", f.output)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := report.HistogramPNG(out, raw, scaled, f.column, a.cfg.Report.Bins); err != nil {
		return err
	}
	a.logger.Info("histogram written", log.PathKey, f.output, log.ColumnKey, f.column)
	return nil
}
