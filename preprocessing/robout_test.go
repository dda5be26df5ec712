package preprocessing

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/pkg/log"
)

const tol = 1e-9

// silentLogger keeps test output clean.
func silentLogger() log.Logger {
	logger, _ := log.NewTestLogger(log.LevelError)
	return logger
}

func newScaler(t *testing.T, opts ...Option) *RobustOutlierScaler {
	t.Helper()
	opts = append([]Option{WithLogger(silentLogger())}, opts...)
	s, err := NewRobustOutlierScaler(opts...)
	require.NoError(t, err)
	return s
}

// captureWarnings routes errors.Warn into a slice for the duration of the test.
func captureWarnings(t *testing.T) func() []error {
	t.Helper()
	var (
		mu       sync.Mutex
		warnings []error
	)
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, w)
	})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return func() []error {
		mu.Lock()
		defer mu.Unlock()
		return append([]error(nil), warnings...)
	}
}

// createOutlierData はテスト用のデータを生成する（正規分布 + 大きな外れ値）
func createOutlierData(rows int) *table.Table {
	// シードを固定して再現性を確保
	rng := rand.New(rand.NewPCG(42, 42))

	a := make([]float64, rows)
	b := make([]float64, rows)
	for i := range a {
		a[i] = rng.NormFloat64()*3 + 10
		b[i] = rng.ExpFloat64() * 100
	}
	// 外れ値を混ぜる
	a[0], a[1] = 40, -25
	b[2] = 5000
	return table.MustNew(
		table.NewFloatColumn("a", a),
		table.NewFloatColumn("b", b),
	)
}

func floatsOf(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()
	c, ok := tbl.Column(name)
	require.True(t, ok, "column %s missing", name)
	return c.Values()
}

func TestRobustOutlierScaler_Defaults(t *testing.T) {
	s := newScaler(t)

	lo, hi := s.QuantileRange()
	assert.Equal(t, DefaultLowerQuantile, lo)
	assert.Equal(t, DefaultUpperQuantile, hi)
	assert.Equal(t, Standardize, s.Normalization())
	assert.Empty(t, s.IgnoredColumns())
	assert.False(t, s.IsFitted())
	assert.Nil(t, s.Columns())
	assert.Nil(t, s.Stats())
	assert.Equal(t,
		"RobustOutlierScaler(lower_quantile=0.1, upper_quantile=0.9, normalization=standardize)",
		s.String())
}

func TestRobustOutlierScaler_InvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		param string
	}{
		{"lower above upper", WithQuantileRange(0.9, 0.1), "upper_quantile"},
		{"equal quantiles", WithQuantileRange(0.5, 0.5), "upper_quantile"},
		{"lower zero", WithQuantileRange(0, 0.5), "lower_quantile"},
		{"upper one", WithQuantileRange(0.1, 1), "upper_quantile"},
		{"lower NaN", WithQuantileRange(math.NaN(), 0.5), "lower_quantile"},
		{"unknown mode", WithNormalization(Normalization(7)), "normalization"},
		{"negative threshold", WithParallelThreshold(-1), "parallel_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRobustOutlierScaler(tt.opt)
			require.Error(t, err)

			var cfgErr *errors.InvalidConfigError
			require.True(t, errors.As(err, &cfgErr), "got %T: %v", err, err)
			assert.Equal(t, tt.param, cfgErr.ParamName)
		})
	}
}

func TestRobustOutlierScaler_OutlierScenario(t *testing.T) {
	s := newScaler(t, WithNormalization(UnitInterval))
	data := table.MustNew(table.NewFloatColumn("x", []float64{10, 20, 30, 40, 1000}))

	scaled, err := s.FitTransformTable(data)
	require.NoError(t, err)

	st, err := s.ColumnStats("x")
	require.NoError(t, err)
	assert.InDelta(t, 30, st.Median, tol)
	assert.InDelta(t, 616, st.UpperQuantile, tol)
	assert.InDelta(t, 14, st.LowerQuantile, tol)
	assert.InDelta(t, 602, st.Spread, tol)
	assert.Equal(t, 1000.0, st.PositiveOutlierFill)
	assert.Equal(t, 10.0, st.NegativeOutlierFill)
	assert.True(t, st.Integer)
	assert.Equal(t, 0.0, st.PostNormMean)
	assert.Equal(t, 1.0, st.PostNormScale)

	want := []float64{0.4917, 0.4958, 0.5, 0.5042, 0.8336}
	got := floatsOf(t, scaled, "x")
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "row %d", i)
	}

	// 外れ値は圧縮されるが捨てられない
	restored, err := s.InverseTransformTable(scaled)
	require.NoError(t, err)
	col, _ := restored.Column("x")
	assert.Equal(t, table.Int, col.Kind)
	assert.Equal(t, []int64{10, 20, 30, 40, 1000}, col.Ints)
}

func TestRobustOutlierScaler_IntegerPreservation(t *testing.T) {
	s := newScaler(t)
	data := table.MustNew(table.NewIntColumn("n", []int64{1, 2, 3, 100, 5}))

	scaled, err := s.FitTransformTable(data)
	require.NoError(t, err)

	st, err := s.ColumnStats("n")
	require.NoError(t, err)
	assert.InDelta(t, 3, st.Median, tol)
	assert.InDelta(t, 62, st.UpperQuantile, tol)
	assert.InDelta(t, 1.4, st.LowerQuantile, tol)
	assert.Equal(t, 100.0, st.PositiveOutlierFill)
	assert.Equal(t, 1.0, st.NegativeOutlierFill)

	c, _ := scaled.Column("n")
	assert.Equal(t, table.Float, c.Kind)

	restored, err := s.InverseTransformTable(scaled)
	require.NoError(t, err)
	c, _ = restored.Column("n")
	require.Equal(t, table.Int, c.Kind)
	assert.Equal(t, []int64{1, 2, 3, 100, 5}, c.Ints)
}

func TestRobustOutlierScaler_RoundTrip(t *testing.T) {
	for _, mode := range []Normalization{Standardize, UnitInterval, SignedUnitInterval} {
		t.Run(mode.String(), func(t *testing.T) {
			s := newScaler(t, WithNormalization(mode))
			data := createOutlierData(500)

			scaled, err := s.FitTransformTable(data)
			require.NoError(t, err)
			restored, err := s.InverseTransformTable(scaled)
			require.NoError(t, err)

			for _, name := range []string{"a", "b"} {
				want := floatsOf(t, data, name)
				got := floatsOf(t, restored, name)
				for i := range want {
					assert.InEpsilon(t, want[i], got[i], 1e-6, "%s[%d]", name, i)
				}
			}
		})
	}
}

func TestRobustOutlierScaler_OutputRange(t *testing.T) {
	tests := []struct {
		mode   Normalization
		lo, hi float64
	}{
		{UnitInterval, 0, 1},
		{SignedUnitInterval, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			s := newScaler(t, WithNormalization(tt.mode))
			scaled, err := s.FitTransformTable(createOutlierData(300))
			require.NoError(t, err)

			for _, name := range []string{"a", "b"} {
				for _, v := range floatsOf(t, scaled, name) {
					assert.GreaterOrEqual(t, v, tt.lo)
					assert.LessOrEqual(t, v, tt.hi)
				}
			}
		})
	}
}

func TestRobustOutlierScaler_StandardizeMoments(t *testing.T) {
	s := newScaler(t)
	scaled, err := s.FitTransformTable(createOutlierData(1000))
	require.NoError(t, err)

	for _, name := range []string{"a", "b"} {
		mean, std := stat.MeanStdDev(floatsOf(t, scaled, name), nil)
		assert.InDelta(t, 0, mean, 1e-9, name)
		assert.InDelta(t, 1, std, 1e-9, name)
	}
}

func TestRobustOutlierScaler_Monotonic(t *testing.T) {
	s := newScaler(t)
	require.NoError(t, s.FitTable(createOutlierData(200)))

	grid := make([]float64, 0, 401)
	for x := -200.0; x <= 200; x++ {
		grid = append(grid, x)
	}
	prev := math.Inf(-1)
	for _, x := range grid {
		y, err := s.ScaleIn("a", x)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, y, prev, "x=%v", x)
		prev = y
	}
}

func TestRobustOutlierScaler_SaturationUsesOutlierFill(t *testing.T) {
	s := newScaler(t, WithNormalization(UnitInterval))
	require.NoError(t, s.FitTable(table.MustNew(
		table.NewFloatColumn("x", []float64{10, 20, 30, 40, 1000}),
	)))

	hi, err := s.ScaleOut("x", 1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, hi)

	lo, err := s.ScaleOut("x", 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, lo)

	// 丸め誤差でわずかに範囲外でも飽和として扱う
	hi, err = s.ScaleOut("x", 1+1e-14)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, hi)
}

func TestRobustOutlierScaler_SaturationSignedUnitInterval(t *testing.T) {
	s := newScaler(t, WithNormalization(SignedUnitInterval))
	require.NoError(t, s.FitTable(table.MustNew(
		table.NewFloatColumn("x", []float64{1.5, 2.5, 3.5, 4.5, 999.5}),
	)))

	out, err := s.InverseTransformTable(table.MustNew(
		table.NewFloatColumn("x", []float64{-1, 1}),
	))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 999.5}, floatsOf(t, out, "x"))
}

func TestRobustOutlierScaler_IgnoredColumnsAreIdentity(t *testing.T) {
	s := newScaler(t, WithIgnore("id"))
	data := table.MustNew(
		table.NewIntColumn("id", []int64{101, 102, 103, 104}),
		table.NewStringColumn("city", []string{"tokyo", "osaka", "", "nagoya"}),
		table.NewFloatColumn("v", []float64{1.5, 2.5, 3.5, 80}),
	)

	scaled, err := s.FitTransformTable(data)
	require.NoError(t, err)

	id, _ := scaled.Column("id")
	assert.Equal(t, table.Int, id.Kind)
	assert.Equal(t, []int64{101, 102, 103, 104}, id.Ints)
	city, _ := scaled.Column("city")
	assert.Equal(t, []string{"tokyo", "osaka", "", "nagoya"}, city.Strings)

	st, err := s.ColumnStats("city")
	require.NoError(t, err)
	assert.True(t, st.Ignored)
	assert.True(t, math.IsNaN(st.Median))

	restored, err := s.InverseTransformTable(scaled)
	require.NoError(t, err)
	id, _ = restored.Column("id")
	assert.Equal(t, []int64{101, 102, 103, 104}, id.Ints)
	city, _ = restored.Column("city")
	assert.Equal(t, []string{"tokyo", "osaka", "", "nagoya"}, city.Strings)
	for i, v := range floatsOf(t, restored, "v") {
		assert.InEpsilon(t, data.ColumnAt(2).Floats[i], v, 1e-9)
	}
}

func TestRobustOutlierScaler_NaNPropagates(t *testing.T) {
	s := newScaler(t)
	data := table.MustNew(table.NewFloatColumn("x", []float64{1.5, math.NaN(), 2.5, 3.5, 90}))

	scaled, err := s.FitTransformTable(data)
	require.NoError(t, err)
	got := floatsOf(t, scaled, "x")
	assert.True(t, math.IsNaN(got[1]))

	restored, err := s.InverseTransformTable(scaled)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(floatsOf(t, restored, "x")[1]))
}

func TestRobustOutlierScaler_IntegerNaNIsValueError(t *testing.T) {
	s := newScaler(t, WithNormalization(UnitInterval))
	require.NoError(t, s.FitTable(table.MustNew(table.NewIntColumn("n", []int64{1, 2, 3}))))

	_, err := s.InverseTransformTable(table.MustNew(
		table.NewFloatColumn("n", []float64{0.5, math.NaN()}),
	))
	var valErr *errors.ValueError
	require.True(t, errors.As(err, &valErr), "got %v", err)

	// シグモイドの値域外も NaN になり整数に戻せない
	_, err = s.ScaleOut("n", 2)
	assert.True(t, errors.As(err, &valErr))
}

func TestRobustOutlierScaler_FitTransformMatchesTransform(t *testing.T) {
	data := createOutlierData(200)

	s1 := newScaler(t)
	direct, err := s1.FitTransformTable(data)
	require.NoError(t, err)

	s2 := newScaler(t)
	require.NoError(t, s2.FitTable(data))
	twoStep, err := s2.TransformTable(data)
	require.NoError(t, err)

	for _, name := range []string{"a", "b"} {
		assert.Equal(t, floatsOf(t, direct, name), floatsOf(t, twoStep, name))
	}
}

func TestRobustOutlierScaler_RefitReplacesState(t *testing.T) {
	s := newScaler(t)
	require.NoError(t, s.FitTable(createOutlierData(50)))
	require.NoError(t, s.FitTable(table.MustNew(table.NewFloatColumn("z", []float64{1, 2, 3}))))

	assert.Equal(t, []string{"z"}, s.Columns())
	_, err := s.ColumnStats("a")
	var unknown *errors.UnknownColumnError
	assert.True(t, errors.As(err, &unknown))
}

func TestRobustOutlierScaler_SubsetAndUnknownColumns(t *testing.T) {
	s := newScaler(t)
	require.NoError(t, s.FitTable(createOutlierData(100)))

	subset, err := s.TransformTable(table.MustNew(table.NewFloatColumn("b", []float64{1, 2, 3})))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, subset.Names())

	_, err = s.TransformTable(table.MustNew(table.NewFloatColumn("c", []float64{1})))
	var unknown *errors.UnknownColumnError
	require.True(t, errors.As(err, &unknown), "got %v", err)
	assert.Equal(t, "c", unknown.Column)
	assert.ElementsMatch(t, []string{"a", "b"}, unknown.Known)
}

func TestRobustOutlierScaler_StringsInNumericColumn(t *testing.T) {
	s := newScaler(t)
	require.NoError(t, s.FitTable(table.MustNew(table.NewFloatColumn("a", []float64{1, 2, 3}))))

	_, err := s.TransformTable(table.MustNew(table.NewStringColumn("a", []string{"x"})))
	var inputErr *errors.InvalidInputError
	require.True(t, errors.As(err, &inputErr), "got %v", err)
	assert.Equal(t, "a", inputErr.Column)
}

func TestRobustOutlierScaler_NotFitted(t *testing.T) {
	s := newScaler(t)
	data := table.MustNew(table.NewFloatColumn("a", []float64{1}))

	calls := map[string]func() error{
		"TransformTable":        func() error { _, err := s.TransformTable(data); return err },
		"InverseTransformTable": func() error { _, err := s.InverseTransformTable(data); return err },
		"Transform":             func() error { _, err := s.Transform(mat.NewDense(1, 1, nil)); return err },
		"InverseTransform":      func() error { _, err := s.InverseTransform(mat.NewDense(1, 1, nil)); return err },
		"ScaleIn":               func() error { _, err := s.ScaleIn("a", 1); return err },
		"ScaleOut":              func() error { _, err := s.ScaleOut("a", 1); return err },
		"ExportParams":          func() error { _, err := s.ExportParams(); return err },
		"Save":                  func() error { return s.Save(filepath.Join(t.TempDir(), "s.json")) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			var nf *errors.NotFittedError
			assert.True(t, errors.As(call(), &nf))
		})
	}
}

func TestRobustOutlierScaler_FitErrors(t *testing.T) {
	t.Run("infinite value", func(t *testing.T) {
		s := newScaler(t)
		err := s.FitTable(table.MustNew(table.NewFloatColumn("x", []float64{1, 2, math.Inf(1)})))
		var numErr *errors.NumericalInstabilityError
		require.True(t, errors.As(err, &numErr), "got %v", err)
		assert.Equal(t, "x", numErr.Column)
		assert.False(t, s.IsFitted())
	})

	t.Run("all NaN column", func(t *testing.T) {
		s := newScaler(t)
		err := s.FitTable(table.MustNew(table.NewFloatColumn("x", []float64{math.NaN(), math.NaN()})))
		var inputErr *errors.InvalidInputError
		require.True(t, errors.As(err, &inputErr), "got %v", err)
		assert.Equal(t, "x", inputErr.Column)
	})

	t.Run("nil table", func(t *testing.T) {
		s := newScaler(t)
		var inputErr *errors.InvalidInputError
		assert.True(t, errors.As(s.FitTable(nil), &inputErr))
	})

	t.Run("failed fit keeps previous state", func(t *testing.T) {
		s := newScaler(t)
		require.NoError(t, s.FitTable(table.MustNew(table.NewFloatColumn("ok", []float64{1, 2, 3}))))
		require.Error(t, s.FitTable(table.MustNew(table.NewFloatColumn("bad", []float64{math.Inf(-1)}))))
		assert.Equal(t, []string{"ok"}, s.Columns())
	})
}

func TestRobustOutlierScaler_DegenerateWarnings(t *testing.T) {
	warnings := captureWarnings(t)

	s := newScaler(t)
	scaled, err := s.FitTransformTable(table.MustNew(
		table.NewFloatColumn("const", []float64{5, 5, 5, 5}),
		table.NewFloatColumn("ok", []float64{1, 2, 3, 4}),
	))
	require.NoError(t, err)

	got := warnings()
	require.Len(t, got, 2)
	var w *errors.DegenerateRangeWarning
	require.True(t, errors.As(got[0], &w))
	assert.Equal(t, "const", w.Column)
	assert.Equal(t, "quantile spread", w.Statistic)
	require.True(t, errors.As(got[1], &w))
	assert.Equal(t, "standard deviation", w.Statistic)

	st, _ := s.ColumnStats("const")
	assert.Equal(t, 1.0, st.Spread)
	assert.Equal(t, 1.0, st.PostNormScale)
	for _, v := range floatsOf(t, scaled, "const") {
		assert.Equal(t, 0.0, v)
	}
}

func TestRobustOutlierScaler_SingleRow(t *testing.T) {
	captureWarnings(t)

	s := newScaler(t)
	out, err := s.FitTransform(mat.NewDense(1, 2, []float64{3, -7}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.At(0, 0))
	assert.Equal(t, 0.0, out.At(0, 1))

	back, err := s.InverseTransform(out)
	require.NoError(t, err)
	assert.Equal(t, 3.0, back.At(0, 0))
	assert.Equal(t, -7.0, back.At(0, 1))
}

func TestRobustOutlierScaler_Matrix(t *testing.T) {
	s := newScaler(t, WithNormalization(UnitInterval))
	X := mat.NewDense(5, 2, []float64{
		10, 0.25,
		20, 0.5,
		30, 0.75,
		40, 1.25,
		1000, 9.5,
	})

	scaled, err := s.FitTransform(X)
	require.NoError(t, err)
	r, c := scaled.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []string{"0", "1"}, s.Columns())
	assert.InDelta(t, 0.5, scaled.At(2, 0), tol)

	back, err := s.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-9))

	// 整数列は整数値に丸められる
	v := back.At(4, 0)
	assert.Equal(t, math.Round(v), v)

	_, err = s.Transform(mat.NewDense(2, 3, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr), "got %v", err)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestRobustOutlierScaler_ParallelMatchesSequential(t *testing.T) {
	data := createOutlierData(2000)

	seq := newScaler(t, WithParallelThreshold(math.MaxInt))
	par := newScaler(t, WithParallelThreshold(0))

	a, err := seq.FitTransformTable(data)
	require.NoError(t, err)
	b, err := par.FitTransformTable(data)
	require.NoError(t, err)

	for _, name := range data.Names() {
		assert.Equal(t, floatsOf(t, a, name), floatsOf(t, b, name))
	}
	assert.Equal(t, seq.Stats(), par.Stats())
}

func TestRobustOutlierScaler_ConcurrentTransform(t *testing.T) {
	s := newScaler(t)
	data := createOutlierData(300)
	want, err := s.FitTransformTable(data)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*table.Table, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.TransformTable(data)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, floatsOf(t, want, "a"), floatsOf(t, results[i], "a"))
	}
}

func TestRobustOutlierScaler_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	s, err := NewRobustOutlierScaler(WithLogger(logger), WithIgnore("id"))
	require.NoError(t, err)

	require.NoError(t, s.FitTable(table.MustNew(
		table.NewIntColumn("id", []int64{1, 2, 3}),
		table.NewFloatColumn("v", []float64{0.5, 1.5, 9}),
	)))

	assert.True(t, logger.ContainsMessage("fit completed"))
	assert.True(t, logger.ContainsField(log.OperationKey, log.OperationFit))
	assert.True(t, logger.ContainsField(log.IgnoredKey, float64(1)))
	assert.True(t, logger.ContainsField(log.ColumnKey, "v"))
	assert.True(t, logger.ContainsMessage("column ignored"))
	assert.Equal(t, 1, logger.CountLevel("INFO"))

	logger.Clear()
	require.Error(t, s.FitTable(table.MustNew(table.NewFloatColumn("v", []float64{math.Inf(1)}))))
	assert.Equal(t, 1, logger.CountLevel("ERROR"))
	assert.True(t, logger.ContainsMessage("fit failed"))
}

func TestRobustOutlierScaler_String(t *testing.T) {
	s := newScaler(t, WithNormalization(SignedUnitInterval), WithIgnore("b", "a"), WithQuantileRange(0.25, 0.75))
	require.NoError(t, s.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})))

	assert.Equal(t,
		"RobustOutlierScaler(lower_quantile=0.25, upper_quantile=0.75, normalization=signed_unit_interval, ignore=[a, b], n_features=2)",
		s.String())

	params := s.GetParams()
	assert.Equal(t, "signed_unit_interval", params["normalization"])
	assert.Equal(t, []string{"a", "b"}, params["ignore"])
}

func TestRobustOutlierScaler_StatsOrder(t *testing.T) {
	s := newScaler(t)
	require.NoError(t, s.FitTable(table.MustNew(
		table.NewFloatColumn("z", []float64{1, 2}),
		table.NewFloatColumn("a", []float64{3, 4}),
	)))

	names := make([]string, 0, 2)
	for _, st := range s.Stats() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"z", "a"}, names)
	assert.False(t, sort.StringsAreSorted(s.Columns()))
}
