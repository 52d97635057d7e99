package grid

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/rascalc/catalog"
)

func smallCatalog() catalog.Particles {
	p := catalog.NewParticles(6)
	pos := [][3]float64{
		{0.1, 0.1, 0.1},
		{0.2, 0.2, 0.2},
		{1.1, 0.1, 0.1},
		{0.1, 1.1, 0.1},
		{1.1, 1.1, 1.1},
		{1.2, 1.1, 1.1},
	}
	for i, v := range pos {
		p.X[i], p.Y[i], p.Z[i] = v[0], v[1], v[2]
		p.W[i] = 1.0
		p.Tracer[i] = 1
	}
	p.Tracer[5] = 2
	return p
}

func TestBuildPartitionsParticles(t *testing.T) {
	p := smallCatalog()
	g, err := Build(p, 1.0, false, [3]float64{2, 2, 2})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if g.NP() != 6 {
		t.Errorf("NP() = %d, want 6", g.NP())
	}
	if g.NP1()+g.NP2() != g.NP() {
		t.Errorf("NP1+NP2 = %d, want %d", g.NP1()+g.NP2(), g.NP())
	}
	if g.Norm() != 6.0 {
		t.Errorf("Norm() = %v, want 6", g.Norm())
	}

	// every particle belongs to exactly one cell, and filled cells
	// are precisely those with count > 0.
	totalInFilled := 0
	for n := 0; n < g.NFilled(); n++ {
		c := g.Cell(g.Filled(n))
		if c.Count <= 0 {
			t.Errorf("filled cell %d has non-positive count %d", g.Filled(n), c.Count)
		}
		totalInFilled += c.Count
	}
	if totalInFilled != g.NP() {
		t.Errorf("sum of filled cell counts = %d, want %d", totalInFilled, g.NP())
	}

	for id1 := range make([]struct{}, g.dims[0]*g.dims[1]*g.dims[2]) {
		c := g.Cell(id1)
		if c.Count == 0 {
			continue
		}
		found := false
		for n := 0; n < g.NFilled(); n++ {
			if g.Filled(n) == id1 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("cell %d has count %d but is missing from filled list", id1, c.Count)
		}
	}
}

func TestTestCellSentinel(t *testing.T) {
	p := smallCatalog()
	g, err := Build(p, 1.0, false, [3]float64{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := g.TestCell([3]int{-1, 0, 0}); ok {
		t.Error("expected TestCell to reject negative coordinate")
	}
	if _, ok := g.TestCell([3]int{100, 0, 0}); ok {
		t.Error("expected TestCell to reject out-of-range coordinate")
	}
	if id1, ok := g.TestCell([3]int{0, 0, 0}); !ok || id1 != 0 {
		t.Errorf("TestCell({0,0,0}) = (%d, %v), want (0, true)", id1, ok)
	}
}

func TestCellSepPeriodicWraps(t *testing.T) {
	p := smallCatalog()
	g, err := Build(p, 1.0, true, [3]float64{4, 4, 4})
	if err != nil {
		t.Fatal(err)
	}

	// dims[0] should be 5 (4/1 + 1); a delta of 4 should wrap to -1 cell.
	sep := g.CellSep([3]int{4, 0, 0})
	wantSep := g.CellSep([3]int{-1, 0, 0})
	if sep != wantSep {
		t.Errorf("periodic CellSep({4,0,0}) = %v, want wrap-equivalent to %v", sep, wantSep)
	}
}

func TestCellSepNonPeriodicIsRaw(t *testing.T) {
	p := smallCatalog()
	g, err := Build(p, 1.0, false, [3]float64{4, 4, 4})
	if err != nil {
		t.Fatal(err)
	}
	sep := g.CellSep([3]int{3, -2, 0})
	if sep != [3]float64{3.0, -2.0, 0.0} {
		t.Errorf("non-periodic CellSep({3,-2,0}) = %v, want (3,-2,0)", sep)
	}
}

func TestDrawParticleRejectsEmptyAndOutOfRange(t *testing.T) {
	p := smallCatalog()
	g, err := Build(p, 1.0, false, [3]float64{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))

	if _, ok := g.DrawParticle(rng, len(g.cells)+10); ok {
		t.Error("expected DrawParticle to reject out-of-range cell id")
	}

	found := false
	for n := 0; n < g.NFilled(); n++ {
		id1 := g.Filled(n)
		idx, ok := g.DrawParticle(rng, id1)
		if !ok {
			t.Errorf("DrawParticle on filled cell %d returned ok=false", id1)
		}
		c := g.Cell(id1)
		if idx < c.Start || idx >= c.Start+c.Count {
			t.Errorf("drawn index %d outside cell span [%d,%d)", idx, c.Start, c.Start+c.Count)
		}
		found = true
	}
	if !found {
		t.Fatal("expected at least one filled cell")
	}
}

func TestMaxNPIsGridWideMax(t *testing.T) {
	p := smallCatalog()
	g, err := Build(p, 1.0, false, [3]float64{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	maxSeen := 0
	for n := 0; n < g.NFilled(); n++ {
		c := g.Cell(g.Filled(n))
		if c.Count > maxSeen {
			maxSeen = c.Count
		}
	}
	if g.MaxNP() != maxSeen {
		t.Errorf("MaxNP() = %d, want %d", g.MaxNP(), maxSeen)
	}
}
