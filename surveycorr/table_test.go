package surveycorr

import "testing"

func TestIdentityAlwaysOne(t *testing.T) {
	table := Identity()
	got, ok := table.Correction(5, 100)
	if !ok || got != 1 {
		t.Errorf("Identity Correction = (%v, %v), want (1, true)", got, ok)
	}
}

func TestLegendreCorrectionInterpolates(t *testing.T) {
	table := &Table{
		Kind:  KindLegendre,
		Modes: []float64{0, 2, 4},
		Values: [][]float64{
			{1.0, 0.9, 0.8},
		},
	}
	got, ok := table.Correction(0, 1)
	if !ok {
		t.Fatal("expected Correction to succeed")
	}
	if got != 0.95 {
		t.Errorf("Correction(0, 1) = %v, want 0.95", got)
	}
}

func TestCorrectionRejectsOutOfRangeBin(t *testing.T) {
	table := &Table{Kind: KindPower, Modes: []float64{0, 1}, Values: [][]float64{{1, 1}}}
	if _, ok := table.Correction(5, 0.5); ok {
		t.Error("expected Correction to fail for out-of-range bin")
	}
}
