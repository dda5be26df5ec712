package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ParamsVersion is written into every export and checked on import.
const ParamsVersion = "1"

// FittedParams はモデルの学習済みパラメータを表す構造体（シリアライゼーション用）
type FittedParams struct {
	// ModelType はモデルの種類（RobustOutlierScaler等）
	ModelType string `json:"model_type" yaml:"model_type"`

	// Version はフォーマットのバージョン（互換性チェック用）
	Version string `json:"version" yaml:"version"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters" yaml:"hyperparameters"`

	// Columns は列ごとの学習済み統計量（学習時の列順）
	Columns []ColumnParams `json:"columns" yaml:"columns"`

	NFeatures int `json:"n_features" yaml:"n_features"`
	NSamples  int `json:"n_samples" yaml:"n_samples"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted" yaml:"is_fitted"`
}

// ColumnParams holds the fitted statistics of one column. Values only carries
// finite numbers; an absent key reads back as NaN.
type ColumnParams struct {
	Name    string             `json:"name" yaml:"name"`
	Kind    string             `json:"kind" yaml:"kind"`
	Ignored bool               `json:"ignored" yaml:"ignored"`
	Integer bool               `json:"integer,omitempty" yaml:"integer,omitempty"`
	Values  map[string]float64 `json:"values,omitempty" yaml:"values,omitempty"`
}

// Value returns the statistic stored under key, or NaN when it is absent.
func (c ColumnParams) Value(key string) float64 {
	if v, ok := c.Values[key]; ok {
		return v
	}
	return math.NaN()
}

// SetValue stores v under key. Non-finite values are not stored.
func (c *ColumnParams) SetValue(key string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		delete(c.Values, key)
		return
	}
	if c.Values == nil {
		c.Values = make(map[string]float64)
	}
	c.Values[key] = v
}

// ToJSON はFittedParamsをJSON形式にシリアライズ
func (p *FittedParams) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// FromJSON はJSON形式からFittedParamsをデシリアライズ
func (p *FittedParams) FromJSON(data []byte) error {
	return json.Unmarshal(data, p)
}

// Validate はFittedParamsの妥当性を検証
func (p *FittedParams) Validate() error {
	if p.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}
	if p.Version == "" {
		return fmt.Errorf("version is required")
	}
	if p.Version != ParamsVersion {
		return fmt.Errorf("unsupported params version %q (expected %q)", p.Version, ParamsVersion)
	}
	if !p.IsFitted && len(p.Columns) > 0 {
		return fmt.Errorf("unfitted model should not have column statistics")
	}
	if p.IsFitted && len(p.Columns) == 0 {
		return fmt.Errorf("fitted model must have column statistics")
	}

	seen := make(map[string]struct{}, len(p.Columns))
	for i, c := range p.Columns {
		if c.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Clone はFittedParamsのディープコピーを作成
func (p *FittedParams) Clone() *FittedParams {
	clone := &FittedParams{
		ModelType:       p.ModelType,
		Version:         p.Version,
		NFeatures:       p.NFeatures,
		NSamples:        p.NSamples,
		IsFitted:        p.IsFitted,
		Hyperparameters: make(map[string]interface{}, len(p.Hyperparameters)),
		Columns:         make([]ColumnParams, len(p.Columns)),
	}

	for k, v := range p.Hyperparameters {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		clone.Hyperparameters[k] = v
	}

	for i, c := range p.Columns {
		cc := c
		if c.Values != nil {
			cc.Values = make(map[string]float64, len(c.Values))
			for k, v := range c.Values {
				cc.Values[k] = v
			}
		}
		clone.Columns[i] = cc
	}
	return clone
}

// FloatParam reads a numeric hyperparameter. JSON and YAML decode numbers as
// float64 or int, both are accepted.
func (p *FittedParams) FloatParam(key string) (float64, bool) {
	switch v := p.Hyperparameters[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// StringParam reads a string hyperparameter.
func (p *FittedParams) StringParam(key string) (string, bool) {
	s, ok := p.Hyperparameters[key].(string)
	return s, ok
}

// StringsParam reads a list-of-strings hyperparameter. Decoders produce
// []interface{}, callers building params by hand use []string.
func (p *FittedParams) StringsParam(key string) ([]string, bool) {
	switch v := p.Hyperparameters[key].(type) {
	case nil:
		return nil, true
	case []string:
		return append([]string(nil), v...), true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// ColumnNames returns the fitted column names in fit order.
func (p *FittedParams) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}

// ValueKeys returns the sorted union of statistic keys over all columns.
func (p *FittedParams) ValueKeys() []string {
	set := make(map[string]struct{})
	for _, c := range p.Columns {
		for k := range c.Values {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
