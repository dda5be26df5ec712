package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/log"
	"github.com/YuminosukeSato/robout/preprocessing"
)

// applyFlags are shared by transform and inverse.
type applyFlags struct {
	input  string
	output string
	state  string
}

func (f *applyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input table (.csv or .xlsx)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output table (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.state, "state", "", "fitted scaler saved by fit")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("state")
}

func newTransformCmd(a *app) *cobra.Command {
	f := &applyFlags{}
	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Scale a table with a previously fitted scaler",
		Long: `Scale the columns of the input table with the statistics saved by fit.
The input may hold any subset of the fitted columns.

Example:
  robout transform -i new.csv -o scaled.csv --state scaler.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(a, f, log.OperationTransform, (*preprocessing.RobustOutlierScaler).TransformTable)
		},
	}
	f.register(cmd)
	return cmd
}

func newInverseCmd(a *app) *cobra.Command {
	f := &applyFlags{}
	cmd := &cobra.Command{
		Use:   "inverse",
		Short: "Restore original values from a scaled table",
		Long: `Invert the scaling of a table produced by fit or transform. Saturated
values are restored to the outlier fill of their column and integer columns
are rounded back to integers.

Example:
  robout inverse -i scaled.csv -o restored.csv --state scaler.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(a, f, log.OperationInverseTransform, (*preprocessing.RobustOutlierScaler).InverseTransformTable)
		},
	}
	f.register(cmd)
	return cmd
}

func runApply(a *app, f *applyFlags, operation string,
	apply func(*preprocessing.RobustOutlierScaler, *table.Table) (*table.Table, error)) error {
	s, err := a.loadScaler(f.state)
	if err != nil {
		return err
	}
	t, err := a.readTable(f.input)
	if err != nil {
		return err
	}
	out, err := apply(s, t)
	if err != nil {
		a.logFailure(operation+" failed", err, f.input)
		return err
	}
	a.logger.Debug("table processed", log.OperationKey, operation, log.PhaseKey, log.PhaseInference)
	return a.writeTable(f.output, out)
}
