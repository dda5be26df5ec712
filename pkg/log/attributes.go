// Package log defines standard attribute keys for scaling operations.
//
// These keys follow a hierarchical naming convention (e.g., "model.name",
// "data.samples") so that fit, transform and inverse transform records can be
// filtered the same way regardless of which command or library call emitted
// them.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of transformer.
	// Examples: "RobustOutlierScaler", "StandardScaler", "MinMaxScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "transform", "inverse_transform", "fit_transform"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package or command is logging.
	// Examples: "preprocessing.robout", "cmd.fit", "tableio"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows in the table.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of columns in the table.
	FeaturesKey = "data.features"

	// ColumnKey names the column a record refers to.
	ColumnKey = "data.column"

	// ColumnKindKey is the column kind: "float", "int" or "string".
	ColumnKindKey = "data.column_kind"

	// InputKindKey is the shape the caller supplied: "table" or "matrix".
	InputKindKey = "data.input_kind"

	// IgnoredKey counts columns passed through untouched.
	IgnoredKey = "data.ignored"

	// MissingKey counts NaN cells skipped while computing statistics.
	MissingKey = "data.missing"

	// PathKey is a file read or written by the command line tool.
	PathKey = "io.path"
)

// Scaler Configuration and Fitted Statistics
const (
	// NormalizationKey is the configured normalization mode.
	NormalizationKey = "scaler.normalization"

	// QuantileLowerKey and QuantileUpperKey are the configured quantile range.
	QuantileLowerKey = "scaler.quantile_lower"
	QuantileUpperKey = "scaler.quantile_upper"

	// MedianKey, SpreadKey, MeanKey and ScaleKey are fitted per-column statistics.
	MedianKey = "stats.median"
	SpreadKey = "stats.spread"
	MeanKey   = "stats.mean"
	ScaleKey  = "stats.scale"

	// WorkersKey is the number of goroutines used for a column fan-out.
	WorkersKey = "perf.workers"
)

// Performance and Quality Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// MaxErrorKey is the largest absolute reconstruction error of a round trip.
	MaxErrorKey = "metrics.max_error"

	// RMSEKey is the root mean squared reconstruction error.
	RMSEKey = "metrics.rmse"

	// R2ScoreKey records R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Populated automatically when an error is the first field of Error().
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit              = "fit"
	OperationTransform        = "transform"
	OperationInverseTransform = "inverse_transform"
	OperationFitTransform     = "fit_transform"
	OperationScore            = "score"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorInvalidConfig     = "INVALID_CONFIG"
	ErrorUnknownColumn     = "UNKNOWN_COLUMN"
)
