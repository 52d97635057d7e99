package xi

import "testing"

func TestEvalInterpolatesLinearly(t *testing.T) {
	table, err := NewIsotropic([]float64{0, 1, 2, 3}, []float64{10, 8, 6, 4})
	if err != nil {
		t.Fatal(err)
	}

	got, ok := table.Eval(1.5)
	if !ok {
		t.Fatal("expected Eval(1.5) to succeed")
	}
	if got != 7 {
		t.Errorf("Eval(1.5) = %v, want 7", got)
	}
}

func TestEvalOutOfRange(t *testing.T) {
	table, err := NewIsotropic([]float64{0, 1, 2}, []float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := table.Eval(-1); ok {
		t.Error("expected Eval(-1) to fail (below table)")
	}
	if _, ok := table.Eval(5); ok {
		t.Error("expected Eval(5) to fail (above table)")
	}
}

func TestEvalMuBilinear(t *testing.T) {
	r := []float64{0, 1}
	mu := []float64{0, 1}
	xi := [][]float64{
		{0, 10}, // r=0: mu=0 -> 0, mu=1 -> 10
		{4, 14}, // r=1: mu=0 -> 4, mu=1 -> 14
	}
	table, err := NewAnisotropic(r, mu, xi)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := table.EvalMu(0.5, 0.5)
	if !ok {
		t.Fatal("expected EvalMu(0.5, 0.5) to succeed")
	}
	want := 7.0 // average of the 4 corners: (0+10+4+14)/4
	if got != want {
		t.Errorf("EvalMu(0.5, 0.5) = %v, want %v", got, want)
	}
}

func TestEvalMuWithoutMuAxis(t *testing.T) {
	table, err := NewIsotropic([]float64{0, 1}, []float64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := table.EvalMu(0.5, 0.5); ok {
		t.Error("expected EvalMu to fail on an isotropic table (no Mu axis)")
	}
}

func TestNewIsotropicRejectsMismatch(t *testing.T) {
	if _, err := NewIsotropic([]float64{0, 1}, []float64{1}); err == nil {
		t.Error("expected error for mismatched r/xi lengths")
	}
	if _, err := NewIsotropic([]float64{0}, []float64{1}); err == nil {
		t.Error("expected error for too-short table")
	}
}
