package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/internal/report"
	"github.com/YuminosukeSato/robout/metrics"
	"github.com/YuminosukeSato/robout/pkg/log"
)

type roundtripFlags struct {
	input string
	state string
}

func newRoundtripCmd(a *app) *cobra.Command {
	f := &roundtripFlags{}
	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Report the reconstruction error of transform followed by inverse",
		Long: `Scale the input table, invert the result and print per-column error
metrics between the input and the restored table.

Examples:
  robout roundtrip -i data.csv
  robout roundtrip -i data.csv --state scaler.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			errs, err := runRoundtrip(a, f)
			if err != nil {
				return err
			}
			md, err := report.MarkdownTable(reconstructionTable(errs), a.reportOptions())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input table (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.state, "state", "", "fitted scaler; the input is fitted when empty")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runRoundtrip(a *app, f *roundtripFlags) ([]metrics.ColumnError, error) {
	t, err := a.readTable(f.input)
	if err != nil {
		return nil, err
	}

	s, err := a.scalerFor(f.state, t)
	if err != nil {
		return nil, err
	}

	scaled, err := s.TransformTable(t)
	if err != nil {
		return nil, err
	}
	restored, err := s.InverseTransformTable(scaled)
	if err != nil {
		return nil, err
	}
	errs, err := metrics.ReconstructionReport(t, restored)
	if err != nil {
		return nil, err
	}

	for _, e := range errs {
		a.logger.Info("reconstruction error",
			log.OperationKey, log.OperationScore,
			log.ColumnKey, e.Column,
			log.RMSEKey, e.RMSE,
			log.MaxErrorKey, e.MaxError,
			log.R2ScoreKey, e.R2,
		)
	}
	return errs, nil
}

func reconstructionTable(errs []metrics.ColumnError) *table.Table {
	n := len(errs)
	names := make([]string, n)
	compared, skipped := make([]int64, n), make([]int64, n)
	mae, rmse, maxErr, r2 := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, e := range errs {
		names[i] = e.Column
		compared[i] = int64(e.Compared)
		skipped[i] = int64(e.Skipped)
		mae[i], rmse[i], maxErr[i], r2[i] = e.MAE, e.RMSE, e.MaxError, e.R2
	}
	return table.MustNew(
		table.NewStringColumn("column", names),
		table.NewIntColumn("compared", compared),
		table.NewIntColumn("skipped", skipped),
		table.NewFloatColumn("mae", mae),
		table.NewFloatColumn("rmse", rmse),
		table.NewFloatColumn("max_error", maxErr),
		table.NewFloatColumn("r2", r2),
	)
}
