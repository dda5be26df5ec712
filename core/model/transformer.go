package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/robout/core/table"
)

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer は変換を元の単位に戻せる Transformer
type InverseTransformer interface {
	Transformer

	// InverseTransform は変換後のデータを元のスケールに戻す
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// TableTransformer is a reversible transformer over labeled tables.
// Columns are matched by name rather than position.
type TableTransformer interface {
	FitTable(t *table.Table) error
	FitTransformTable(t *table.Table) (*table.Table, error)
	TransformTable(t *table.Table) (*table.Table, error)
	InverseTransformTable(t *table.Table) (*table.Table, error)
}
