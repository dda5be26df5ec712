package log

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	rerrors "github.com/YuminosukeSato/robout/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelDebug)

	logger := provider.GetLoggerWithName("preprocessing.robout").With(ModelNameKey, "RobustOutlierScaler")
	logger.Info("fit completed", SamplesKey, 5, FeaturesKey, 2, SpreadKey, math.NaN())

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["message"] != "fit completed" {
		t.Errorf("message = %v", e["message"])
	}
	if e[ComponentKey] != "preprocessing.robout" {
		t.Errorf("component = %v", e[ComponentKey])
	}
	if e[ModelNameKey] != "RobustOutlierScaler" {
		t.Errorf("model = %v", e[ModelNameKey])
	}
	if e[SamplesKey] != 5.0 {
		t.Errorf("samples = %v", e[SamplesKey])
	}
	if e[SpreadKey] != "NaN" {
		t.Errorf("NaN float should be encoded as a string, got %v", e[SpreadKey])
	}
}

func TestZerologLoggerError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	err := rerrors.NewUnknownColumnError("RobustOutlierScaler.Transform", "z", []string{"a"})
	logger.Error("transform failed", err, OperationKey, OperationTransform)

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if !strings.Contains(e[zerolog.ErrorFieldName].(string), "column 'z'") {
		t.Errorf("error field = %v", e[zerolog.ErrorFieldName])
	}
	if _, ok := e[StacktraceKey]; !ok {
		t.Error("expected stack trace for an error built with WithStack")
	}
	if e[OperationKey] != OperationTransform {
		t.Errorf("operation = %v", e[OperationKey])
	}
}

func TestZerologLoggerObjectField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	w := rerrors.NewDegenerateRangeWarning("x", "quantile spread", 0, 1)
	logger.Warn(w.Error(), "warning", w)

	entries := decodeLines(t, &buf)
	obj, ok := entries[0]["warning"].(map[string]interface{})
	if !ok {
		t.Fatalf("warning should be logged as an object, got %T", entries[0]["warning"])
	}
	if obj["column"] != "x" || obj["type"] != "DegenerateRangeWarning" {
		t.Errorf("warning object = %v", obj)
	}
}

func TestZerologProviderSetLevel(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelWarn)
	ctx := context.Background()

	if provider.GetLogger().Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	provider.GetLogger().Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}

	provider.SetLevel(LevelDebug)
	if !provider.GetLogger().Enabled(ctx, LevelDebug) {
		t.Error("debug should be enabled after SetLevel")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	err := SetupLogger("verbose", false)
	var cfgErr *rerrors.InvalidConfigError
	if !rerrors.As(err, &cfgErr) {
		t.Fatalf("expected InvalidConfigError, got %v", err)
	}
}

func TestGlobalProvider(t *testing.T) {
	provider, buf := NewTestLoggerProvider(LevelDebug)
	SetProvider(provider)
	defer SetProvider(NewZerologProvider(&bytes.Buffer{}, LevelWarn))

	GetLoggerWithName("tableio").Debug("read file", PathKey, "in.csv")

	if !strings.Contains(buf.String(), `"ml.component":"tableio"`) {
		t.Errorf("named logger should carry the component, got %s", buf.String())
	}
}
