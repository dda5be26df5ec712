package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/robout/core/model"
	"github.com/YuminosukeSato/robout/core/table"
	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/pkg/log"
)

// Keys of the per-column statistics in model.ColumnParams.Values.
const (
	StatMedian              = "median"
	StatUpperQuantile       = "upper_quantile"
	StatLowerQuantile       = "lower_quantile"
	StatSpread              = "spread"
	StatPositiveOutlierFill = "positive_outlier_fill"
	StatNegativeOutlierFill = "negative_outlier_fill"
	StatPostNormMean        = "post_norm_mean"
	StatPostNormScale       = "post_norm_scale"
)

// Hyperparameter keys of the exported params.
const (
	paramLowerQuantile = "lower_quantile"
	paramUpperQuantile = "upper_quantile"
	paramNormalization = "normalization"
	paramIgnore        = "ignore"
)

// ExportParams は学習済みの状態を model.FittedParams として書き出す
// Non-finite statistics (an absent outlier fill) are left out.
func (s *RobustOutlierScaler) ExportParams() (_ *model.FittedParams, err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.ExportParams")

	fs, err := s.snapshot("ExportParams")
	if err != nil {
		return nil, err
	}
	nFeatures, nSamples := s.state.GetDimensions()

	p := &model.FittedParams{
		ModelType: roboutModelName,
		Version:   model.ParamsVersion,
		Hyperparameters: map[string]interface{}{
			paramLowerQuantile: s.lowerQuantile,
			paramUpperQuantile: s.upperQuantile,
			paramNormalization: s.normalization.String(),
			paramIgnore:        s.IgnoredColumns(),
		},
		Columns:   make([]model.ColumnParams, len(fs.columns)),
		NFeatures: nFeatures,
		NSamples:  nSamples,
		IsFitted:  true,
	}

	for i, c := range fs.columns {
		cp := model.ColumnParams{
			Name:    c.Name,
			Kind:    c.Kind.String(),
			Ignored: c.Ignored,
			Integer: c.Integer,
		}
		if !c.Ignored {
			cp.SetValue(StatMedian, c.Median)
			cp.SetValue(StatUpperQuantile, c.UpperQuantile)
			cp.SetValue(StatLowerQuantile, c.LowerQuantile)
			cp.SetValue(StatSpread, c.Spread)
			cp.SetValue(StatPositiveOutlierFill, c.PositiveOutlierFill)
			cp.SetValue(StatNegativeOutlierFill, c.NegativeOutlierFill)
			cp.SetValue(StatPostNormMean, c.PostNormMean)
			cp.SetValue(StatPostNormScale, c.PostNormScale)
		}
		p.Columns[i] = cp
	}
	return p, nil
}

// ImportParams は書き出された状態を読み込み、設定と学習済み統計量を置き換える
func (s *RobustOutlierScaler) ImportParams(p *model.FittedParams) (err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.ImportParams")

	const op = "RobustOutlierScaler.ImportParams"
	if p == nil {
		return errors.NewInvalidInputError(op, "params are nil")
	}
	if err := p.Validate(); err != nil {
		return errors.NewModelError(op, "invalid params", err)
	}
	if p.ModelType != roboutModelName {
		return errors.NewModelError(op, fmt.Sprintf("params belong to %s", p.ModelType), nil)
	}
	if !p.IsFitted {
		return errors.NewModelError(op, "params are not fitted", nil)
	}

	cfg, err := configFromParams(p)
	if err != nil {
		return err
	}
	if err := cfg.validateConfig(); err != nil {
		return err
	}

	fs := &fittedState{
		columns: make([]ColumnStats, len(p.Columns)),
		index:   make(map[string]int, len(p.Columns)),
	}
	for i, cp := range p.Columns {
		c, err := columnFromParams(op, cp)
		if err != nil {
			return err
		}
		fs.columns[i] = c
		fs.index[c.Name] = i
	}

	err = s.state.Commit(len(fs.columns), p.NSamples, func() error {
		s.lowerQuantile = cfg.lowerQuantile
		s.upperQuantile = cfg.upperQuantile
		s.normalization = cfg.normalization
		s.ignore = cfg.ignore
		s.fitted = fs
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("params imported",
		log.FeaturesKey, len(fs.columns),
		log.NormalizationKey, cfg.normalization.String(),
	)
	return nil
}

func configFromParams(p *model.FittedParams) (*RobustOutlierScaler, error) {
	const op = "RobustOutlierScaler.ImportParams"

	lower, ok := p.FloatParam(paramLowerQuantile)
	if !ok {
		return nil, errors.NewModelError(op, "missing hyperparameter "+paramLowerQuantile, nil)
	}
	upper, ok := p.FloatParam(paramUpperQuantile)
	if !ok {
		return nil, errors.NewModelError(op, "missing hyperparameter "+paramUpperQuantile, nil)
	}
	modeName, ok := p.StringParam(paramNormalization)
	if !ok {
		return nil, errors.NewModelError(op, "missing hyperparameter "+paramNormalization, nil)
	}
	mode, err := ParseNormalization(modeName)
	if err != nil {
		return nil, err
	}
	ignore, ok := p.StringsParam(paramIgnore)
	if !ok {
		return nil, errors.NewModelError(op, "hyperparameter "+paramIgnore+" must be a list of strings", nil)
	}

	cfg := &RobustOutlierScaler{
		lowerQuantile: lower,
		upperQuantile: upper,
		normalization: mode,
		ignore:        make(map[string]struct{}, len(ignore)),
	}
	for _, name := range ignore {
		cfg.ignore[name] = struct{}{}
	}
	return cfg, nil
}

func parseKind(s string) (table.Kind, bool) {
	for _, k := range []table.Kind{table.Float, table.Int, table.String} {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

func columnFromParams(op string, cp model.ColumnParams) (ColumnStats, error) {
	kind, ok := parseKind(cp.Kind)
	if !ok {
		return ColumnStats{}, errors.NewModelError(op, fmt.Sprintf("column '%s' has unknown kind %q", cp.Name, cp.Kind), nil)
	}
	if cp.Ignored {
		return ignoredColumn(cp.Name, kind), nil
	}

	c := ColumnStats{
		Name:                cp.Name,
		Kind:                kind,
		Integer:             cp.Integer,
		Median:              cp.Value(StatMedian),
		UpperQuantile:       cp.Value(StatUpperQuantile),
		LowerQuantile:       cp.Value(StatLowerQuantile),
		Spread:              cp.Value(StatSpread),
		PositiveOutlierFill: cp.Value(StatPositiveOutlierFill),
		NegativeOutlierFill: cp.Value(StatNegativeOutlierFill),
		PostNormMean:        cp.Value(StatPostNormMean),
		PostNormScale:       cp.Value(StatPostNormScale),
	}

	required := []struct {
		key   string
		value float64
	}{
		{StatMedian, c.Median},
		{StatSpread, c.Spread},
		{StatPostNormMean, c.PostNormMean},
		{StatPostNormScale, c.PostNormScale},
	}
	for _, r := range required {
		if math.IsNaN(r.value) {
			return ColumnStats{}, errors.NewModelError(op, fmt.Sprintf("column '%s' is missing %s", cp.Name, r.key), nil)
		}
	}
	if c.Spread <= 0 || c.PostNormScale <= 0 {
		return ColumnStats{}, errors.NewModelError(op, fmt.Sprintf("column '%s' has a non-positive scale", cp.Name), nil)
	}
	return c, nil
}

// Save は学習済みの状態をファイルに保存する（.json / .yaml / .gob）
func (s *RobustOutlierScaler) Save(path string) (err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.Save")

	p, err := s.ExportParams()
	if err != nil {
		return err
	}
	if err := model.SaveParams(p, path); err != nil {
		return err
	}
	s.logger.Info("state saved", log.PathKey, path)
	return nil
}

// Load はファイルから学習済みの状態を読み込む
func (s *RobustOutlierScaler) Load(path string) (err error) {
	defer errors.Recover(&err, "RobustOutlierScaler.Load")

	p, err := model.LoadParams(path)
	if err != nil {
		return err
	}
	return s.ImportParams(p)
}

// LoadRobustOutlierScaler creates a scaler from a saved state file.
func LoadRobustOutlierScaler(path string, opts ...Option) (*RobustOutlierScaler, error) {
	s, err := NewRobustOutlierScaler(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}
