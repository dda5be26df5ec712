package main

import (
	"fmt"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/internal/report"
	"github.com/YuminosukeSato/robout/internal/tableio"
	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/pkg/log"
	"github.com/YuminosukeSato/robout/preprocessing"
)

// newScaler creates an unfitted scaler from the resolved configuration.
func (a *app) newScaler() (*preprocessing.RobustOutlierScaler, error) {
	opts, err := a.cfg.ScalerOptions()
	if err != nil {
		return nil, err
	}
	return preprocessing.NewRobustOutlierScaler(append(opts, preprocessing.WithLogger(a.logger))...)
}

// loadScaler restores a fitted scaler. The saved configuration wins over flags.
func (a *app) loadScaler(path string) (*preprocessing.RobustOutlierScaler, error) {
	s, err := preprocessing.LoadRobustOutlierScaler(path, preprocessing.WithLogger(a.logger))
	if err != nil {
		a.logFailure("failed to load state", err, path)
		return nil, err
	}
	return s, nil
}

// scalerFor loads the scaler saved at statePath, or fits a new one on t when
// statePath is empty.
func (a *app) scalerFor(statePath string, t *table.Table) (*preprocessing.RobustOutlierScaler, error) {
	if statePath != "" {
		return a.loadScaler(statePath)
	}
	s, err := a.newScaler()
	if err != nil {
		return nil, err
	}
	if err := s.FitTable(t); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *app) readTable(path string) (*table.Table, error) {
	t, err := tableio.Read(path)
	if err != nil {
		a.logFailure("failed to read table", err, path)
		return nil, err
	}
	a.logger.Info("table loaded",
		log.PathKey, path,
		log.SamplesKey, t.NumRows(),
		log.FeaturesKey, t.NumCols(),
	)
	return t, nil
}

func (a *app) writeTable(path string, t *table.Table) error {
	if err := tableio.Write(path, t); err != nil {
		a.logFailure("failed to write table", err, path)
		return err
	}
	a.logger.Info("table written", log.PathKey, path, log.SamplesKey, t.NumRows())
	return nil
}

func (a *app) reportOptions() report.Options {
	return report.Options{MaxCols: a.cfg.Report.MaxCols, Transpose: a.cfg.Report.Transpose}
}

func (a *app) logFailure(msg string, err error, path string) {
	a.logger.Error(msg, err,
		log.PathKey, path,
		log.ErrorCodeKey, errorCode(err),
		log.ErrorTypeKey, fmt.Sprintf("%T", errors.UnwrapAll(err)),
	)
}

// errorCode maps an error to the code logged under log.ErrorCodeKey.
func errorCode(err error) string {
	var (
		notFitted *errors.NotFittedError
		dimErr    *errors.DimensionError
		inputErr  *errors.InvalidInputError
		cfgErr    *errors.InvalidConfigError
		unknown   *errors.UnknownColumnError
	)
	switch {
	case errors.As(err, &notFitted):
		return log.ErrorNotFitted
	case errors.As(err, &dimErr):
		return log.ErrorDimensionMismatch
	case errors.As(err, &unknown):
		return log.ErrorUnknownColumn
	case errors.As(err, &cfgErr):
		return log.ErrorInvalidConfig
	case errors.Is(err, errors.ErrEmptyData):
		return log.ErrorEmptyData
	case errors.As(err, &inputErr):
		return log.ErrorInvalidInput
	default:
		return ""
	}
}

// numericColumn returns the non-NaN values of a numeric column.
func numericColumn(t *table.Table, name string) ([]float64, error) {
	const op = "robout.column"
	c, ok := t.Column(name)
	if !ok {
		return nil, errors.NewUnknownColumnError(op, name, t.Names())
	}
	if !c.IsNumeric() {
		return nil, errors.NewInvalidColumnError(op, name, "column is not numeric")
	}
	values := c.Values()
	out := values[:0]
	for _, v := range values {
		if v == v {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, errors.NewInvalidColumnError(op, name, "column has no numeric values")
	}
	return out, nil
}
