package preprocessing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/robout/core/model"
	"github.com/YuminosukeSato/robout/core/parallel"
	"github.com/YuminosukeSato/robout/core/stats"
	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/pkg/log"
)

const roboutModelName = "RobustOutlierScaler"

var (
	_ model.InverseTransformer = (*RobustOutlierScaler)(nil)
	_ model.TableTransformer   = (*RobustOutlierScaler)(nil)
	_ model.ParameterGetter    = (*RobustOutlierScaler)(nil)
	_ model.Persistable        = (*RobustOutlierScaler)(nil)
	_ model.ParamsExporter     = (*RobustOutlierScaler)(nil)
)

// Default configuration of RobustOutlierScaler.
const (
	DefaultLowerQuantile = 0.1
	DefaultUpperQuantile = 0.9
	// DefaultParallelThreshold is the number of cells (rows*columns) above
	// which columns are processed concurrently.
	DefaultParallelThreshold = 100_000
)

// RobustOutlierScaler は外れ値を保持したまま可逆にスケーリングするスケーラー
//
// 各列を中央値と分位点幅で中心化した後シグモイドで圧縮する:
//
//	y = 1 / (1 + exp(-(x - median) / (q_upper - q_lower)))
//
// 分位点の範囲内ではほぼ線形、外れ値は 0 または 1 に向かって圧縮されるが
// 捨てられない。その後 Normalization に応じたアフィン変換を行う。
// 逆変換は対数による厳密な逆関数で、飽和して ±Inf になった値は
// 分位点の外側にある値の中央値（outlier fill）で置き換える。
//
// 文字列を含む列と WithIgnore で指定した列は両方向で素通しになる。
//
// Transform と InverseTransform は学習済みの状態を読むだけなので並行に呼び出せる。
// Fit は状態を丸ごと置き換える。
type RobustOutlierScaler struct {
	state *model.StateManager

	lowerQuantile     float64
	upperQuantile     float64
	normalization     Normalization
	ignore            map[string]struct{}
	parallelThreshold int
	logger            log.Logger

	fitted *fittedState
}

// fittedState is replaced as a whole by every fit and never mutated afterwards.
type fittedState struct {
	columns []ColumnStats
	index   map[string]int
}

func (f *fittedState) names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

func (f *fittedState) lookup(op, name string) (*ColumnStats, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, errors.NewUnknownColumnError(op, name, f.names())
	}
	return &f.columns[i], nil
}

// Option configures a RobustOutlierScaler.
type Option func(*RobustOutlierScaler)

// WithQuantileRange sets the quantile levels bounding the "normal" range.
// Both must lie in (0, 1) with lower < upper.
func WithQuantileRange(lower, upper float64) Option {
	return func(s *RobustOutlierScaler) {
		s.lowerQuantile = lower
		s.upperQuantile = upper
	}
}

// WithNormalization sets the post-sigmoid normalization mode.
func WithNormalization(n Normalization) Option {
	return func(s *RobustOutlierScaler) {
		s.normalization = n
	}
}

// WithIgnore lists columns passed through unchanged.
func WithIgnore(columns ...string) Option {
	return func(s *RobustOutlierScaler) {
		for _, c := range columns {
			s.ignore[c] = struct{}{}
		}
	}
}

// WithLogger replaces the default "preprocessing.robout" logger.
func WithLogger(logger log.Logger) Option {
	return func(s *RobustOutlierScaler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithParallelThreshold sets the cell count above which columns are fitted and
// transformed concurrently. 0 always fans out.
func WithParallelThreshold(cells int) Option {
	return func(s *RobustOutlierScaler) {
		s.parallelThreshold = cells
	}
}

// NewRobustOutlierScaler は新しいRobustOutlierScalerを作成する
//
// 使用例:
//
//	scaler, err := preprocessing.NewRobustOutlierScaler(
//	    preprocessing.WithQuantileRange(0.1, 0.9),
//	    preprocessing.WithNormalization(preprocessing.UnitInterval),
//	    preprocessing.WithIgnore("id"),
//	)
//	scaled, err := scaler.FitTransformTable(t)
//	restored, err := scaler.InverseTransformTable(scaled)
func NewRobustOutlierScaler(opts ...Option) (*RobustOutlierScaler, error) {
	s := &RobustOutlierScaler{
		state:             model.NewStateManager(),
		lowerQuantile:     DefaultLowerQuantile,
		upperQuantile:     DefaultUpperQuantile,
		normalization:     Standardize,
		ignore:            make(map[string]struct{}),
		parallelThreshold: DefaultParallelThreshold,
		logger:            log.GetLoggerWithName("preprocessing.robout"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.validateConfig(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RobustOutlierScaler) validateConfig() error {
	lo, hi := s.lowerQuantile, s.upperQuantile
	if math.IsNaN(lo) || lo <= 0 || lo >= 1 {
		return errors.NewInvalidConfigError("lower_quantile", "must be in (0, 1)", lo)
	}
	if math.IsNaN(hi) || hi <= 0 || hi >= 1 {
		return errors.NewInvalidConfigError("upper_quantile", "must be in (0, 1)", hi)
	}
	if hi <= lo {
		return errors.NewInvalidConfigError("upper_quantile",
			fmt.Sprintf("must be greater than lower_quantile (%g)", lo), hi)
	}
	if !s.normalization.Valid() {
		return errors.NewInvalidConfigError("normalization",
			"must be one of standardize, unit_interval, signed_unit_interval", int(s.normalization))
	}
	if s.parallelThreshold < 0 {
		return errors.NewInvalidConfigError("parallel_threshold", "must be >= 0", s.parallelThreshold)
	}
	return nil
}

// ===========================================================================
//
//	学習
//
// ===========================================================================

// FitTable は表から列ごとの統計量を学習する
func (s *RobustOutlierScaler) FitTable(t *table.Table) (err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.FitTable")
	_, err = s.fit("RobustOutlierScaler.FitTable", t)
	return err
}

// FitTransformTable は学習し、学習に使った表をスケーリングして返す
func (s *RobustOutlierScaler) FitTransformTable(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.FitTransformTable")

	const op = "RobustOutlierScaler.FitTransformTable"
	fs, err := s.fit(op, t)
	if err != nil {
		return nil, err
	}
	return s.apply(op, fs, t, false)
}

// Fit は行列から学習する。列は "0".."n-1" と名付けられる
func (s *RobustOutlierScaler) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.Fit")

	t, err := table.FromMatrix(X)
	if err != nil {
		return err
	}
	_, err = s.fit("RobustOutlierScaler.Fit", t)
	return err
}

// FitTransform は行列から学習し、同じ行列をスケーリングする
func (s *RobustOutlierScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.FitTransform")

	const op = "RobustOutlierScaler.FitTransform"
	t, err := table.FromMatrix(X)
	if err != nil {
		return nil, err
	}
	fs, err := s.fit(op, t)
	if err != nil {
		return nil, err
	}
	out, err := s.apply(op, fs, t, false)
	if err != nil {
		return nil, err
	}
	return out.ToMatrix()
}

func (s *RobustOutlierScaler) fit(op string, t *table.Table) (*fittedState, error) {
	if t == nil {
		return nil, errors.NewInvalidInputError(op, "table is nil")
	}
	if t.NumRows() == 0 {
		return nil, errors.NewInvalidInputError(op, "table has no rows")
	}
	if err := s.validateConfig(); err != nil {
		return nil, err
	}

	start := time.Now()
	cols := t.Columns()
	fs := &fittedState{
		columns: make([]ColumnStats, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	warnings := make([][]error, len(cols))

	work := t.NumRows() * len(cols)
	err := parallel.ForEach(len(cols), work, s.parallelThreshold, func(j int) error {
		col := cols[j]
		if s.isIgnored(col) {
			fs.columns[j] = ignoredColumn(col.Name, col.Kind)
			return nil
		}
		c, w, err := fitColumn(op, col, s.lowerQuantile, s.upperQuantile, s.normalization)
		if err != nil {
			return err
		}
		fs.columns[j] = c
		warnings[j] = w
		return nil
	})
	if err != nil {
		s.logger.Error("fit failed", err, log.OperationKey, log.OperationFit)
		return nil, err
	}

	ignored := 0
	for j, c := range fs.columns {
		fs.index[c.Name] = j
		if c.Ignored {
			ignored++
		}
		for _, w := range warnings[j] {
			errors.Warn(w)
		}
	}

	if err := s.state.Commit(len(cols), t.NumRows(), func() error {
		s.fitted = fs
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("fit completed",
		log.ModelNameKey, roboutModelName,
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, t.NumRows(),
		log.FeaturesKey, len(cols),
		log.IgnoredKey, ignored,
		log.NormalizationKey, s.normalization.String(),
		log.QuantileLowerKey, s.lowerQuantile,
		log.QuantileUpperKey, s.upperQuantile,
		log.WorkersKey, workersFor(len(cols), work, s.parallelThreshold),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	if s.logger.Enabled(context.Background(), log.LevelDebug) {
		for _, c := range fs.columns {
			if c.Ignored {
				s.logger.Debug("column ignored", log.ColumnKey, c.Name, log.ColumnKindKey, c.Kind.String())
				continue
			}
			col, _ := t.Column(c.Name)
			s.logger.Debug("column fitted",
				log.ColumnKey, c.Name,
				log.ColumnKindKey, c.Kind.String(),
				log.MissingKey, stats.CountNaN(col.Values()),
				log.MedianKey, c.Median,
				log.SpreadKey, c.Spread,
				log.MeanKey, c.PostNormMean,
				log.ScaleKey, c.PostNormScale,
			)
		}
	}
	return fs, nil
}

func (s *RobustOutlierScaler) isIgnored(col *table.Column) bool {
	if col.Kind == table.String {
		return true
	}
	_, ok := s.ignore[col.Name]
	return ok
}

func workersFor(items, work, threshold int) int {
	if work <= threshold {
		return 1
	}
	return parallel.Workers(items)
}

// ===========================================================================
//
//	変換・逆変換
//
// ===========================================================================

// TransformTable は学習済みの統計量で表をスケーリングする
//
// 学習時に無かった列は UnknownColumnError。学習した列の一部だけを渡してもよい。
func (s *RobustOutlierScaler) TransformTable(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.TransformTable")
	return s.applyLocked("RobustOutlierScaler.TransformTable", "TransformTable", t, false)
}

// InverseTransformTable はスケーリングされた表を元の単位に戻す
//
// 整数列は Int 列として返る。飽和して ±Inf になる値は outlier fill に置き換わる。
func (s *RobustOutlierScaler) InverseTransformTable(t *table.Table) (_ *table.Table, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.InverseTransformTable")
	return s.applyLocked("RobustOutlierScaler.InverseTransformTable", "InverseTransformTable", t, true)
}

// Transform は行列をスケーリングする。列は位置で学習済みの列に対応する
func (s *RobustOutlierScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.Transform")
	return s.applyMatrix("RobustOutlierScaler.Transform", "Transform", X, false)
}

// InverseTransform は行列を元の単位に戻す。整数列は整数値の float64 になる
func (s *RobustOutlierScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.InverseTransform")
	return s.applyMatrix("RobustOutlierScaler.InverseTransform", "InverseTransform", X, true)
}

func (s *RobustOutlierScaler) snapshot(method string) (*fittedState, error) {
	var fs *fittedState
	err := s.state.Read(roboutModelName, method, func() error {
		fs = s.fitted
		return nil
	})
	return fs, err
}

func (s *RobustOutlierScaler) applyLocked(op, method string, t *table.Table, inverse bool) (*table.Table, error) {
	fs, err := s.snapshot(method)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NewInvalidInputError(op, "table is nil")
	}
	return s.apply(op, fs, t, inverse)
}

func (s *RobustOutlierScaler) applyMatrix(op, method string, X mat.Matrix, inverse bool) (mat.Matrix, error) {
	fs, err := s.snapshot(method)
	if err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewInvalidInputError(op, "matrix is nil")
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewInvalidInputError(op, "matrix is empty")
	}
	if c != len(fs.columns) {
		return nil, errors.NewDimensionError(op, len(fs.columns), c, 1)
	}

	cols := make([]*table.Column, c)
	for j := 0; j < c; j++ {
		values := make([]float64, r)
		for i := 0; i < r; i++ {
			values[i] = X.At(i, j)
		}
		cols[j] = table.NewFloatColumn(fs.columns[j].Name, values)
	}
	t, err := table.New(cols...)
	if err != nil {
		return nil, err
	}

	out, err := s.apply(op, fs, t, inverse)
	if err != nil {
		return nil, err
	}
	return out.ToMatrix()
}

// apply runs scaleIn (or restore when inverse) over every column of t against
// the given fitted state. It never touches s.fitted.
func (s *RobustOutlierScaler) apply(op string, fs *fittedState, t *table.Table, inverse bool) (*table.Table, error) {
	if t.NumRows() == 0 {
		return nil, errors.NewInvalidInputError(op, "table has no rows")
	}

	in := t.Columns()
	plan := make([]*ColumnStats, len(in))
	for j, col := range in {
		c, err := fs.lookup(op, col.Name)
		if err != nil {
			return nil, err
		}
		if !c.Ignored && !col.IsNumeric() {
			return nil, errors.NewInvalidColumnError(op, col.Name, "column was fitted as numeric but holds strings")
		}
		plan[j] = c
	}

	out := make([]*table.Column, len(in))
	work := t.NumRows() * len(in)
	err := parallel.ForEach(len(in), work, s.parallelThreshold, func(j int) error {
		col, c := in[j], plan[j]
		if c.Ignored {
			out[j] = col.Clone()
			return nil
		}

		values := col.Values()
		if !inverse {
			for i, v := range values {
				values[i] = c.scaleIn(v)
			}
			out[j] = table.NewFloatColumn(col.Name, values)
			return nil
		}

		if !c.Integer {
			for i, v := range values {
				values[i] = c.scaleOut(v)
			}
			out[j] = table.NewFloatColumn(col.Name, values)
			return nil
		}

		ints := make([]int64, len(values))
		for i, v := range values {
			x, err := c.restore(op, v)
			if err != nil {
				return err
			}
			ints[i] = int64(x)
		}
		out[j] = table.NewIntColumn(col.Name, ints)
		return nil
	})
	if err != nil {
		s.logger.Error("apply failed", err, log.OperationKey, operationName(inverse))
		return nil, err
	}

	s.logger.Debug("columns applied",
		log.OperationKey, operationName(inverse),
		log.SamplesKey, t.NumRows(),
		log.FeaturesKey, len(in),
	)
	return table.New(out...)
}

func operationName(inverse bool) string {
	if inverse {
		return log.OperationInverseTransform
	}
	return log.OperationTransform
}

// ===========================================================================
//
//	列ごとのアクセス
//
// ===========================================================================

// ScaleIn は1つの値を列 col の学習済み変換でスケーリングする
func (s *RobustOutlierScaler) ScaleIn(col string, x float64) (_ float64, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.ScaleIn")

	fs, err := s.snapshot("ScaleIn")
	if err != nil {
		return 0, err
	}
	c, err := fs.lookup("RobustOutlierScaler.ScaleIn", col)
	if err != nil {
		return 0, err
	}
	return c.scaleIn(x), nil
}

// ScaleOut は1つのスケーリング済みの値を元の単位に戻す。整数列では丸めた値を返す
func (s *RobustOutlierScaler) ScaleOut(col string, y float64) (_ float64, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.ScaleOut")

	const op = "RobustOutlierScaler.ScaleOut"
	fs, err := s.snapshot("ScaleOut")
	if err != nil {
		return 0, err
	}
	c, err := fs.lookup(op, col)
	if err != nil {
		return 0, err
	}
	return c.restore(op, y)
}

// ColumnStats returns the fitted statistics of col.
func (s *RobustOutlierScaler) ColumnStats(col string) (ColumnStats, error) {
	fs, err := s.snapshot("ColumnStats")
	if err != nil {
		return ColumnStats{}, err
	}
	c, err := fs.lookup("RobustOutlierScaler.ColumnStats", col)
	if err != nil {
		return ColumnStats{}, err
	}
	return *c, nil
}

// Stats returns the fitted statistics of every column in fit order, or nil
// before the first fit.
func (s *RobustOutlierScaler) Stats() []ColumnStats {
	fs, err := s.snapshot("Stats")
	if err != nil {
		return nil
	}
	return append([]ColumnStats(nil), fs.columns...)
}

// Columns returns the fitted column names in fit order, or nil before the first fit.
func (s *RobustOutlierScaler) Columns() []string {
	fs, err := s.snapshot("Columns")
	if err != nil {
		return nil
	}
	return fs.names()
}

// IsFitted reports whether the scaler has been fitted.
func (s *RobustOutlierScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// Normalization returns the configured normalization mode.
func (s *RobustOutlierScaler) Normalization() Normalization {
	return s.normalization
}

// QuantileRange returns the configured lower and upper quantile levels.
func (s *RobustOutlierScaler) QuantileRange() (lower, upper float64) {
	return s.lowerQuantile, s.upperQuantile
}

// IgnoredColumns returns the configured ignore list, sorted.
func (s *RobustOutlierScaler) IgnoredColumns() []string {
	names := make([]string, 0, len(s.ignore))
	for name := range s.ignore {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetParams はスケーラーのパラメータを取得する
func (s *RobustOutlierScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"lower_quantile": s.lowerQuantile,
		"upper_quantile": s.upperQuantile,
		"normalization":  s.normalization.String(),
		"ignore":         s.IgnoredColumns(),
	}
}

// String はスケーラーの文字列表現を返す
func (s *RobustOutlierScaler) String() string {
	base := fmt.Sprintf("RobustOutlierScaler(lower_quantile=%g, upper_quantile=%g, normalization=%s",
		s.lowerQuantile, s.upperQuantile, s.normalization)
	if ignore := s.IgnoredColumns(); len(ignore) > 0 {
		base += fmt.Sprintf(", ignore=[%s]", strings.Join(ignore, ", "))
	}
	if !s.IsFitted() {
		return base + ")"
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("%s, n_features=%d)", base, nFeatures)
}
