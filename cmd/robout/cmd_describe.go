package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/internal/report"
	"github.com/YuminosukeSato/robout/preprocessing"
)

type describeFlags struct {
	state  string
	output string
}

func newDescribeCmd(a *app) *cobra.Command {
	f := &describeFlags{}
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the fitted statistics of a saved scaler as markdown",
		Long: `Print one row per fitted column with its median, quantiles, spread,
outlier fills and post-normalization affine.

Examples:
  robout describe --state scaler.json
  robout describe --state scaler.json --transpose -o stats.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadScaler(f.state)
			if err != nil {
				return err
			}
			md, err := report.MarkdownTable(statsTable(s.Stats()), a.reportOptions())
			if err != nil {
				return err
			}
			if f.output == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			return os.WriteFile(f.output, []byte(md), 0o644)
		},
	}
	cmd.Flags().StringVar(&f.state, "state", "", "fitted scaler saved by fit")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "markdown file; stdout when empty")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

// statsTable lays out fitted statistics one column per row.
func statsTable(stats []preprocessing.ColumnStats) *table.Table {
	n := len(stats)
	var (
		names, kinds, ignored, integer = make([]string, n), make([]string, n), make([]string, n), make([]string, n)
		median, lower, upper, spread   = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
		posFill, negFill, mean, scale  = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	)
	for i, c := range stats {
		names[i] = c.Name
		kinds[i] = c.Kind.String()
		ignored[i] = strconv.FormatBool(c.Ignored)
		integer[i] = strconv.FormatBool(c.Integer)
		median[i] = c.Median
		lower[i] = c.LowerQuantile
		upper[i] = c.UpperQuantile
		spread[i] = c.Spread
		posFill[i] = c.PositiveOutlierFill
		negFill[i] = c.NegativeOutlierFill
		mean[i] = c.PostNormMean
		scale[i] = c.PostNormScale
	}
	return table.MustNew(
		table.NewStringColumn("column", names),
		table.NewStringColumn("kind", kinds),
		table.NewStringColumn("ignored", ignored),
		table.NewStringColumn("integer", integer),
		table.NewFloatColumn("median", median),
		table.NewFloatColumn("lower_quantile", lower),
		table.NewFloatColumn("upper_quantile", upper),
		table.NewFloatColumn("spread", spread),
		table.NewFloatColumn("positive_outlier_fill", posFill),
		table.NewFloatColumn("negative_outlier_fill", negFill),
		table.NewFloatColumn("post_norm_mean", mean),
		table.NewFloatColumn("post_norm_scale", scale),
	)
}
