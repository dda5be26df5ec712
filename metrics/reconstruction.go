package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
)

// ColumnError は1列分の復元誤差
type ColumnError struct {
	Column string
	// Compared is the number of row pairs where both values were non-NaN.
	Compared int
	// Skipped counts rows where either side was NaN.
	Skipped  int
	MAE      float64
	RMSE     float64
	MaxError float64
	// R2 is NaN when the original column has no variance.
	R2 float64
}

// ReconstructionReport は元の表と逆変換後の表を列ごとに比較する
//
// 両方の表にある数値列だけを元の表の列順で比較する。
// 行数が違う場合は DimensionError、比較できる列が無い場合は InvalidInputError。
func ReconstructionReport(original, restored *table.Table) ([]ColumnError, error) {
	const op = "metrics.ReconstructionReport"
	if original == nil || restored == nil {
		return nil, errors.NewInvalidInputError(op, "table is nil")
	}
	if original.NumRows() != restored.NumRows() {
		return nil, errors.NewDimensionError(op, original.NumRows(), restored.NumRows(), 0)
	}

	var report []ColumnError
	for _, oc := range original.Columns() {
		rc, ok := restored.Column(oc.Name)
		if !ok || !oc.IsNumeric() || !rc.IsNumeric() {
			continue
		}
		ce, err := compareColumn(oc.Name, oc.Values(), rc.Values())
		if err != nil {
			return nil, err
		}
		report = append(report, ce)
	}
	if len(report) == 0 {
		return nil, errors.NewInvalidInputError(op, "no numeric column present in both tables")
	}
	return report, nil
}

func compareColumn(name string, want, got []float64) (ColumnError, error) {
	ce := ColumnError{Column: name}

	a := make([]float64, 0, len(want))
	b := make([]float64, 0, len(got))
	for i := range want {
		if math.IsNaN(want[i]) || math.IsNaN(got[i]) {
			ce.Skipped++
			continue
		}
		a = append(a, want[i])
		b = append(b, got[i])
	}
	ce.Compared = len(a)
	if ce.Compared == 0 {
		ce.MAE, ce.RMSE, ce.MaxError, ce.R2 = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return ce, nil
	}

	yTrue := mat.NewVecDense(len(a), a)
	yPred := mat.NewVecDense(len(b), b)

	var err error
	if ce.MAE, err = MAE(yTrue, yPred); err != nil {
		return ce, err
	}
	if ce.RMSE, err = RMSE(yTrue, yPred); err != nil {
		return ce, err
	}
	if ce.MaxError, err = MaxError(yTrue, yPred); err != nil {
		return ce, err
	}
	ce.R2, err = R2Score(yTrue, yPred)
	if err != nil {
		var valErr *errors.ValueError
		if !errors.As(err, &valErr) {
			return ce, err
		}
		ce.R2 = math.NaN()
	}
	return ce, nil
}
