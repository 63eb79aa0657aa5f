package errors

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if err := CheckMatrix("normalize", ok, 0); err != nil {
		t.Errorf("Expected finite matrix to pass, got %v", err)
	}

	bad := mat.NewDense(2, 2, []float64{1, math.Inf(1), math.NaN(), 4})
	err := CheckMatrix("normalize", bad, 0)
	if err == nil {
		t.Fatal("Expected error for non-finite values")
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Expected numerical instability to be an invalid-input error")
	}

	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatal("Expected *NumericalInstabilityError")
	}
	if len(numErr.Values) != 2 {
		t.Errorf("Expected 2 offending values, got %d", len(numErr.Values))
	}
}

func TestCheckScalarAndSlice(t *testing.T) {
	if err := CheckScalar("loss", 0.25, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckScalar("loss", math.NaN(), 3); err == nil {
		t.Error("Expected NaN to be rejected")
	}
	if err := CheckNumericalStability("weights", []float64{0, -1, math.Inf(-1)}, 1); err == nil {
		t.Error("Expected -Inf to be rejected")
	}
}

func TestStabilizeLog(t *testing.T) {
	if got := StabilizeLog(0); math.IsInf(got, -1) {
		t.Error("StabilizeLog(0) must be finite")
	}
	if got := StabilizeLog(1); got != 0 {
		t.Errorf("StabilizeLog(1) = %v, want 0", got)
	}
}
