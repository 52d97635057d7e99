package interp

import "testing"

func TestLerp(t *testing.T) {
	if got := Lerp(0.5, 0, 10); got != 5 {
		t.Errorf("Lerp(0.5, 0, 10) = %v, want 5", got)
	}
	if got := Lerp(0, 3, 7); got != 3 {
		t.Errorf("Lerp(0, 3, 7) = %v, want 3", got)
	}
	if got := Lerp(1, 3, 7); got != 7 {
		t.Errorf("Lerp(1, 3, 7) = %v, want 7", got)
	}
}

func TestBinarySearchBracket(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}

	lo, frac, ok := BinarySearchBracket(xs, 1.5)
	if !ok || lo != 1 || frac != 0.5 {
		t.Errorf("BinarySearchBracket(xs, 1.5) = (%d, %v, %v), want (1, 0.5, true)", lo, frac, ok)
	}

	if _, _, ok := BinarySearchBracket(xs, -1); ok {
		t.Error("expected out-of-range low query to fail")
	}
	if _, _, ok := BinarySearchBracket(xs, 4); ok {
		t.Error("expected query at upper bound to fail (half-open interval)")
	}
	if _, _, ok := BinarySearchBracket(xs, 10); ok {
		t.Error("expected out-of-range high query to fail")
	}
}
