package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/robout/pkg/log"
)

type fitFlags struct {
	input  string
	output string
	state  string
}

func newFitCmd(a *app) *cobra.Command {
	f := &fitFlags{}
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the scaler on a table and write the scaled table",
		Long: `Fit the scaler on every numeric column of the input table, write the
scaled table and save the fitted state for later transform and inverse runs.

Examples:
  robout fit -i data.csv -o scaled.csv --state scaler.json
  robout fit -i data.xlsx -o scaled.xlsx --state scaler.yaml --ignore id`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFit(a, f)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input table (.csv or .xlsx)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "scaled output table; skipped when empty")
	cmd.Flags().StringVar(&f.state, "state", "", "where to save the fitted scaler (.json, .yaml or .gob)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func runFit(a *app, f *fitFlags) error {
	start := time.Now()

	t, err := a.readTable(f.input)
	if err != nil {
		return err
	}
	s, err := a.newScaler()
	if err != nil {
		return err
	}
	scaled, err := s.FitTransformTable(t)
	if err != nil {
		a.logFailure("fit failed", err, f.input)
		return err
	}
	if f.output != "" {
		if err := a.writeTable(f.output, scaled); err != nil {
			return err
		}
	}
	if err := s.Save(f.state); err != nil {
		a.logFailure("failed to save state", err, f.state)
		return err
	}

	a.logger.Info("scaler saved",
		log.OperationKey, log.OperationFitTransform,
		log.PathKey, f.state,
		log.FeaturesKey, len(s.Columns()),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}
