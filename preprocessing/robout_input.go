package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/pkg/log"
)

// inputKind records the shape a caller supplied so the result can mirror it.
type inputKind int

const (
	inputTable inputKind = iota
	inputMatrix
	inputRows
)

func (k inputKind) String() string {
	switch k {
	case inputMatrix:
		return "matrix"
	case inputRows:
		return "rows"
	default:
		return "table"
	}
}

// boundaryInput is the normalized form of an Any-entrypoint argument. For
// matrix and rows input, matrix is kept so the scaler can map columns by position.
type boundaryInput struct {
	kind   inputKind
	table  *table.Table
	matrix mat.Matrix
}

func detectInput(op string, data any) (boundaryInput, error) {
	switch v := data.(type) {
	case *table.Table:
		if v == nil {
			return boundaryInput{}, errors.NewInvalidInputError(op, "table is nil")
		}
		return boundaryInput{kind: inputTable, table: v}, nil
	case table.Table:
		return boundaryInput{kind: inputTable, table: &v}, nil
	case [][]float64:
		t, err := table.FromRows(v)
		if err != nil {
			return boundaryInput{}, err
		}
		m, err := t.ToMatrix()
		if err != nil {
			return boundaryInput{}, err
		}
		return boundaryInput{kind: inputRows, table: t, matrix: m}, nil
	case mat.Matrix:
		if isNilMatrix(v) {
			return boundaryInput{}, errors.NewInvalidInputError(op, "matrix is nil")
		}
		t, err := table.FromMatrix(v)
		if err != nil {
			return boundaryInput{}, err
		}
		return boundaryInput{kind: inputMatrix, table: t, matrix: v}, nil
	case nil:
		return boundaryInput{}, errors.NewInvalidInputError(op, "input is nil")
	default:
		return boundaryInput{}, errors.NewInvalidInputError(op,
			fmt.Sprintf("unsupported input type %T (want *table.Table, mat.Matrix or [][]float64)", data))
	}
}

func isNilMatrix(m mat.Matrix) bool {
	switch v := m.(type) {
	case *mat.Dense:
		return v == nil
	case *mat.VecDense:
		return v == nil
	}
	return false
}

// mirror converts a result table back into the caller's input shape.
func mirror(kind inputKind, t *table.Table) (any, error) {
	switch kind {
	case inputMatrix:
		return t.ToMatrix()
	case inputRows:
		return t.Rows()
	default:
		return t, nil
	}
}

// FitTransformAny accepts *table.Table, table.Table, mat.Matrix or [][]float64
// and returns the scaled data in the same shape (*table.Table, *mat.Dense or
// [][]float64).
func (s *RobustOutlierScaler) FitTransformAny(data any) (_ any, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.FitTransformAny")

	const op = "RobustOutlierScaler.FitTransformAny"
	in, err := detectInput(op, data)
	if err != nil {
		return nil, err
	}
	fs, err := s.fit(op, in.table)
	if err != nil {
		return nil, err
	}
	out, err := s.apply(op, fs, in.table, false)
	if err != nil {
		return nil, err
	}
	return mirror(in.kind, out)
}

// TransformAny is TransformTable or Transform depending on the shape of data,
// with the result in the same shape.
func (s *RobustOutlierScaler) TransformAny(data any) (_ any, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.TransformAny")
	return s.applyAny("RobustOutlierScaler.TransformAny", "TransformAny", data, false)
}

// InverseTransformAny is InverseTransformTable or InverseTransform depending
// on the shape of data, with the result in the same shape.
func (s *RobustOutlierScaler) InverseTransformAny(data any) (_ any, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.InverseTransformAny")
	return s.applyAny("RobustOutlierScaler.InverseTransformAny", "InverseTransformAny", data, true)
}

func (s *RobustOutlierScaler) applyAny(op, method string, data any, inverse bool) (any, error) {
	in, err := detectInput(op, data)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("input detected", log.OperationKey, operationName(inverse), log.InputKindKey, in.kind.String())

	switch in.kind {
	case inputTable:
		return s.applyLocked(op, method, in.table, inverse)
	default:
		m, err := s.applyMatrix(op, method, in.matrix, inverse)
		if err != nil {
			return nil, err
		}
		if in.kind == inputRows {
			return denseRows(m), nil
		}
		return m, nil
	}
}

func denseRows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
