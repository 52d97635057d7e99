package jackknife

import "testing"

func TestProductTableComputesOuterProductSum(t *testing.T) {
	ResetCache()
	a := &Weights{W: [][]float64{
		{1, 2},
		{3, 4},
	}}
	b := &Weights{W: [][]float64{
		{5, 6},
		{7, 8},
	}}

	table := ProductTable(a, b)
	// table[0][0] = 1*5 + 3*7 = 26
	// table[0][1] = 1*6 + 3*8 = 30
	// table[1][0] = 2*5 + 4*7 = 38
	// table[1][1] = 2*6 + 4*8 = 44
	want := [][]float64{{26, 30}, {38, 44}}
	for i := range want {
		for j := range want[i] {
			if table[i][j] != want[i][j] {
				t.Errorf("table[%d][%d] = %v, want %v", i, j, table[i][j], want[i][j])
			}
		}
	}
}

func TestProductTableReusesMemoizedResult(t *testing.T) {
	ResetCache()
	a := &Weights{W: [][]float64{{1, 0}, {0, 1}}}
	b := &Weights{W: [][]float64{{1, 0}, {0, 1}}}

	first := ProductTable(a, b)
	second := ProductTable(a, b)

	// Same pointer pair must return the identical cached slice.
	if &first[0][0] != &second[0][0] {
		t.Error("expected ProductTable to return the memoized table for the same (a, b) pair")
	}
}

func TestNBinsAndNRegions(t *testing.T) {
	w := &Weights{W: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	if w.NRegions() != 2 {
		t.Errorf("NRegions() = %d, want 2", w.NRegions())
	}
	if w.NBins() != 3 {
		t.Errorf("NBins() = %d, want 3", w.NBins())
	}
}
