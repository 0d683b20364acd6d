package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "datalab: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "datalab: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestPipelineErrorTypes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		check   func(error) bool
	}{
		{
			name:    "config error",
			err:     NewConfigError("missing_values.fill_value", "required when policy is fill"),
			wantMsg: "datalab: invalid configuration for 'missing_values.fill_value': required when policy is fill",
			check: func(err error) bool {
				var target *ConfigError
				return As(err, &target) && target.Field == "missing_values.fill_value"
			},
		},
		{
			name:    "column not found",
			err:     NewColumnNotFoundError("HandleOutliers", "price"),
			wantMsg: "datalab: HandleOutliers: column 'price' not found",
			check: func(err error) bool {
				var target *ColumnNotFoundError
				return As(err, &target) && target.Column == "price"
			},
		},
		{
			name:    "format error",
			err:     NewFormatError("target 'label'", "no numeric values"),
			wantMsg: "datalab: target 'label': no numeric values",
			check: func(err error) bool {
				var target *FormatError
				return As(err, &target)
			},
		},
		{
			name:    "unsupported algorithm",
			err:     NewUnsupportedAlgorithmError("svm", []string{"kmeans", "pca"}),
			wantMsg: "datalab: unsupported algorithm 'svm' (supported: [kmeans pca])",
			check: func(err error) bool {
				var target *UnsupportedAlgorithmError
				return As(err, &target) && target.Algorithm == "svm"
			},
		},
		{
			name:    "degenerate input",
			err:     NewDegenerateInputError("ZScores", "standard deviation is zero"),
			wantMsg: "datalab: ZScores: degenerate input: standard deviation is zero",
			check: func(err error) bool {
				var target *DegenerateInputError
				return As(err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
			if !tt.check(tt.err) {
				t.Errorf("type assertion failed for %T", tt.err)
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 3, 2, 1)

	want := "datalab: Predict: dimension mismatch on axis 1 (features). Expected 3, got 2"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
}

func TestWrapPreservesType(t *testing.T) {
	base := NewColumnNotFoundError("Select", "age")
	wrapped := Wrapf(base, "loading %s", "people.csv")

	var target *ColumnNotFoundError
	if !As(wrapped, &target) {
		t.Fatal("wrapped error should still be a *ColumnNotFoundError")
	}
	if !strings.HasPrefix(wrapped.Error(), "loading people.csv: ") {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestWarn(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("silhouette", "only one cluster"))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if got[0].Error() != "'silhouette' is undefined: only one cluster" {
		t.Errorf("unexpected warning message: %s", got[0].Error())
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("ok", []float64{1, 2, 3}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := CheckNumericalStability("predict", []float64{1, nan()})
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if numErr.Operation != "predict" {
		t.Errorf("Operation = %s, want predict", numErr.Operation)
	}
}

func TestSafeDivide(t *testing.T) {
	if got := SafeDivide(1, 0); got != 0 {
		t.Errorf("SafeDivide(1, 0) = %v, want 0", got)
	}
	if got := SafeDivide(6, 3); got != 2 {
		t.Errorf("SafeDivide(6, 3) = %v, want 2", got)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
