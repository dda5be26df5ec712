package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestRecover(t *testing.T) {
	t.Run("no panic leaves result untouched", func(t *testing.T) {
		run := func() (err error) {
			defer Recover(&err, "RobustOutlierScaler.Fit")
			return nil
		}
		if err := run(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("string panic becomes PanicError", func(t *testing.T) {
		run := func() (err error) {
			defer Recover(&err, "RobustOutlierScaler.Fit")
			panic("index out of range")
		}
		err := run()

		var panicErr *PanicError
		if !As(err, &panicErr) {
			t.Fatalf("expected *PanicError, got %T", err)
		}
		if panicErr.Operation != "RobustOutlierScaler.Fit" {
			t.Errorf("Operation = %s", panicErr.Operation)
		}
		if panicErr.PanicValue != "index out of range" {
			t.Errorf("PanicValue = %v", panicErr.PanicValue)
		}
		if panicErr.StackTrace == "" {
			t.Error("StackTrace should not be empty")
		}
	})

	t.Run("panic after error keeps original reachable", func(t *testing.T) {
		run := func() (err error) {
			defer Recover(&err, "RobustOutlierScaler.Transform")
			err = ErrEmptyData
			panic("boom")
		}
		err := run()

		if !Is(err, ErrEmptyData) {
			t.Errorf("original error should be reachable: %v", err)
		}
		if !strings.Contains(err.Error(), "panic in RobustOutlierScaler.Transform: boom") {
			t.Errorf("message should mention the panic: %s", err.Error())
		}
	})
}

func TestPanicError_Interface(t *testing.T) {
	tests := []struct {
		name       string
		value      interface{}
		wantUnwrap bool
	}{
		{"string value", "test panic", false},
		{"error value", fmt.Errorf("wrapped cause"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			panicErr := NewPanicError("TestOperation", tt.value)

			want := fmt.Sprintf("panic in TestOperation: %v", tt.value)
			if panicErr.Error() != want {
				t.Errorf("Error() = %s, want %s", panicErr.Error(), want)
			}

			if got := panicErr.Unwrap() != nil; got != tt.wantUnwrap {
				t.Errorf("Unwrap() != nil is %v, want %v", got, tt.wantUnwrap)
			}

			str := panicErr.String()
			if !strings.Contains(str, "Stack trace:") {
				t.Error("String() should include the stack trace")
			}
		})
	}
}

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name      string
		fn        func() error
		wantErr   bool
		wantPanic bool
	}{
		{
			name:    "successful execution",
			fn:      func() error { return nil },
			wantErr: false,
		},
		{
			name:    "normal error",
			fn:      func() error { return NewValueError("op", "bad value") },
			wantErr: true,
		},
		{
			name: "nil map write",
			fn: func() error {
				var m map[string]float64
				m["x"] = 1
				return nil
			},
			wantErr:   true,
			wantPanic: true,
		},
		{
			name: "slice out of range",
			fn: func() error {
				values := []float64{1, 2, 3}
				idx := len(values)
				_ = values[idx]
				return nil
			},
			wantErr:   true,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("TestOperation", tt.fn)

			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeExecute() error = %v, wantErr %v", err, tt.wantErr)
			}

			var panicErr *PanicError
			if As(err, &panicErr) != tt.wantPanic {
				t.Errorf("PanicError detection = %v, want %v (err: %v)", !tt.wantPanic, tt.wantPanic, err)
			}
		})
	}
}
