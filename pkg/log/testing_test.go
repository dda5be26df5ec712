package log

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
)

// TestLoggerInterface tests the Logger interface implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationTransform)
	testLogger.Warn("warning message", ColumnKey, "price")
	testLogger.Error("error message", fmt.Errorf("test error"), ErrorCodeKey, ErrorUnknownColumn)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}

	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}

	if !testLogger.ContainsField("key1", "value1") {
		t.Error("Expected field key1=value1 not found")
	}
	if !testLogger.ContainsField("number", 42.0) { // JSON unmarshaling converts numbers to float64
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField("error", "test error") {
		t.Error("leading error should be stored under \"error\"")
	}
	if !testLogger.ContainsField(ErrorCodeKey, ErrorUnknownColumn) {
		t.Error("fields after the leading error should be kept")
	}
}

// TestLoggerWith tests the With method for context-aware logging
func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(
		ModelNameKey, "RobustOutlierScaler",
		NormalizationKey, "unit_interval",
	)
	contextLogger.Info("contextual message", OperationKey, OperationFit)

	if !testLogger.ContainsField(ModelNameKey, "RobustOutlierScaler") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(NormalizationKey, "unit_interval") {
		t.Error("Normalization context not found")
	}
	if !testLogger.ContainsField(OperationKey, OperationFit) {
		t.Error("Operation field not found")
	}
}

// TestLoggerEnabled tests the Enabled method
func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) {
		t.Error("Logger should be enabled for Info level")
	}
	if !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Error level")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	testLogger.Info("this should appear")

	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}
	if !testLogger.ContainsMessage("this should appear") {
		t.Error("Info message should appear when level is Info")
	}
}

func TestLoggerNonFiniteFloats(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	testLogger.Debug("column stats",
		ColumnKey, "x",
		MedianKey, math.NaN(),
		SpreadKey, math.Inf(1),
	)

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if entries[0][MedianKey] != "NaN" {
		t.Errorf("median = %v, want \"NaN\"", entries[0][MedianKey])
	}
	if entries[0][SpreadKey] != "+Inf" {
		t.Errorf("spread = %v, want \"+Inf\"", entries[0][SpreadKey])
	}
}

// TestLoggerProviderIntegration tests the LoggerProvider interface
func TestLoggerProviderIntegration(t *testing.T) {
	provider, buffer := NewTestLoggerProvider(LevelDebug)

	provider.GetLogger().Info("provider test message")
	provider.GetLoggerWithName("preprocessing.robout").Info("named logger message")

	lines := buffer.String()
	for _, want := range []string{"provider test message", "named logger message", "preprocessing.robout"} {
		if !strings.Contains(lines, want) {
			t.Errorf("%q not found in provider output", want)
		}
	}

	provider.SetLevel(LevelError)
	provider.GetLogger().Info("suppressed")
	if strings.Contains(buffer.String(), "suppressed") {
		t.Error("SetLevel should suppress lower levels")
	}
}

// TestConcurrentLogging tests thread safety of logging
func TestConcurrentLogging(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	const numGoroutines = 8
	const messagesPerGoroutine = 20

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			child := testLogger.With("goroutine_id", id)
			for j := 0; j < messagesPerGoroutine; j++ {
				child.Info(fmt.Sprintf("goroutine %d message %d", id, j), "message_id", j)
			}
		}(i)
	}
	wg.Wait()

	entries, err := testLogger.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}
	if len(entries) != numGoroutines*messagesPerGoroutine {
		t.Errorf("Expected %d log entries, got %d", numGoroutines*messagesPerGoroutine, len(entries))
	}
	if got := testLogger.CountLevel("INFO"); got != numGoroutines*messagesPerGoroutine {
		t.Errorf("CountLevel(INFO) = %d", got)
	}
}

// BenchmarkLogging benchmarks logging performance
func BenchmarkLogging(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)
	contextLogger := testLogger.With(ModelNameKey, "RobustOutlierScaler")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		contextLogger.Info("benchmark message",
			"iteration", i,
			OperationKey, OperationTransform,
			SamplesKey, 1000,
		)
	}
}
