// Package config loads the robout CLI configuration.
//
// Sources are applied in order, later ones winning:
// built-in defaults, a YAML file, ROBOUT_* environment variables and finally
// command line flags that were set explicitly.
package config

import (
	"bytes"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/robout/pkg/errors"
	"github.com/YuminosukeSato/robout/preprocessing"
)

// EnvPrefix is the prefix of every environment variable, e.g.
// ROBOUT_SCALER_UPPER_QUANTILE or ROBOUT_LOGGING_LEVEL.
const EnvPrefix = "ROBOUT"

// Config represents the complete CLI configuration
type Config struct {
	Scaler  ScalerConfig  `yaml:"scaler" envconfig:"SCALER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Report  ReportConfig  `yaml:"report" envconfig:"REPORT"`
}

// ScalerConfig mirrors the RobustOutlierScaler options.
type ScalerConfig struct {
	LowerQuantile     float64  `yaml:"lower_quantile" envconfig:"LOWER_QUANTILE" validate:"gt=0,lt=1,ltfield=UpperQuantile"`
	UpperQuantile     float64  `yaml:"upper_quantile" envconfig:"UPPER_QUANTILE" validate:"gt=0,lt=1"`
	Normalization     string   `yaml:"normalization" envconfig:"NORMALIZATION" validate:"required,normalization"`
	Ignore            []string `yaml:"ignore" envconfig:"IGNORE" validate:"dive,required"`
	ParallelThreshold int      `yaml:"parallel_threshold" envconfig:"PARALLEL_THRESHOLD" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Console bool   `yaml:"console" envconfig:"CONSOLE"`
}

// ReportConfig controls markdown and plot output.
type ReportConfig struct {
	MaxCols   int  `yaml:"max_cols" envconfig:"MAX_COLS" validate:"gte=1"`
	Transpose bool `yaml:"transpose" envconfig:"TRANSPOSE"`
	Bins      int  `yaml:"bins" envconfig:"BINS" validate:"gte=1,lte=1000"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scaler: ScalerConfig{
			LowerQuantile:     preprocessing.DefaultLowerQuantile,
			UpperQuantile:     preprocessing.DefaultUpperQuantile,
			Normalization:     preprocessing.Standardize.String(),
			ParallelThreshold: preprocessing.DefaultParallelThreshold,
		},
		Logging: LoggingConfig{
			Level:   "warn",
			Console: true,
		},
		Report: ReportConfig{
			MaxCols: 10,
			Bins:    30,
		},
	}
}

// Flag names registered by RegisterFlags.
const (
	FlagConfig        = "config"
	FlagLower         = "lower"
	FlagUpper         = "upper"
	FlagNormalization = "normalization"
	FlagIgnore        = "ignore"
	FlagLogLevel      = "log-level"
	FlagMaxCols       = "max-cols"
	FlagTranspose     = "transpose"
	FlagBins          = "bins"
)

// RegisterFlags adds the configuration flags to fs with the built-in defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "YAML configuration file")
	fs.Float64(FlagLower, d.Scaler.LowerQuantile, "lower quantile of the normal range")
	fs.Float64(FlagUpper, d.Scaler.UpperQuantile, "upper quantile of the normal range")
	fs.String(FlagNormalization, d.Scaler.Normalization, "standardize, unit_interval or signed_unit_interval")
	fs.StringSlice(FlagIgnore, nil, "columns passed through unchanged")
	fs.String(FlagLogLevel, d.Logging.Level, "debug, info, warn or error")
	fs.Int(FlagMaxCols, d.Report.MaxCols, "columns per markdown table chunk")
	fs.Bool(FlagTranspose, d.Report.Transpose, "render markdown tables with columns as rows")
	fs.Int(FlagBins, d.Report.Bins, "histogram bins")
}

// Load builds the configuration. path may be empty; when fs is non-nil and
// path is empty the --config flag is consulted.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if path == "" && fs != nil {
		if f := fs.Lookup(FlagConfig); f != nil {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// Load from environment variables. Unset variables keep the value above.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config from env")
	}

	if fs != nil {
		if err := cfg.applyFlags(fs); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path. Keys it does not set keep their values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return err == nil && f != nil && f.Changed
	}

	if changed(FlagLower) {
		c.Scaler.LowerQuantile, err = fs.GetFloat64(FlagLower)
	}
	if changed(FlagUpper) {
		c.Scaler.UpperQuantile, err = fs.GetFloat64(FlagUpper)
	}
	if changed(FlagNormalization) {
		c.Scaler.Normalization, err = fs.GetString(FlagNormalization)
	}
	if changed(FlagIgnore) {
		c.Scaler.Ignore, err = fs.GetStringSlice(FlagIgnore)
	}
	if changed(FlagLogLevel) {
		c.Logging.Level, err = fs.GetString(FlagLogLevel)
	}
	if changed(FlagMaxCols) {
		c.Report.MaxCols, err = fs.GetInt(FlagMaxCols)
	}
	if changed(FlagTranspose) {
		c.Report.Transpose, err = fs.GetBool(FlagTranspose)
	}
	if changed(FlagBins) {
		c.Report.Bins, err = fs.GetInt(FlagBins)
	}
	return errors.Wrap(err, "failed to read flags")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("normalization", func(fl validator.FieldLevel) bool {
		_, err := preprocessing.ParseNormalization(fl.Field().String())
		return err == nil
	})

	// Use YAML tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field and reports the first violation as an
// InvalidConfigError naming the YAML path of the field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, "config validation failed")
	}
	fe := verrs[0]
	// Namespace is "Config.scaler.lower_quantile"
	param := fe.Namespace()
	if i := strings.Index(param, "."); i >= 0 {
		param = param[i+1:]
	}
	reason := "failed '" + fe.Tag() + "' rule"
	if fe.Param() != "" {
		reason += " (" + fe.Param() + ")"
	}
	return errors.NewInvalidConfigError(param, reason, fe.Value())
}

// ScalerOptions converts the scaler section into constructor options.
func (c *Config) ScalerOptions() ([]preprocessing.Option, error) {
	mode, err := preprocessing.ParseNormalization(c.Scaler.Normalization)
	if err != nil {
		return nil, err
	}
	return []preprocessing.Option{
		preprocessing.WithQuantileRange(c.Scaler.LowerQuantile, c.Scaler.UpperQuantile),
		preprocessing.WithNormalization(mode),
		preprocessing.WithIgnore(c.Scaler.Ignore...),
		preprocessing.WithParallelThreshold(c.Scaler.ParallelThreshold),
	}, nil
}
