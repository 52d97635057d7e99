package compute

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pthm-cable/rascalc/catalog"
	"github.com/pthm-cable/rascalc/config"
	"github.com/pthm-cable/rascalc/grid"
	"github.com/pthm-cable/rascalc/randdraw"
)

func testCatalog(n int, seed int64) catalog.Particles {
	rng := rand.New(rand.NewSource(seed))
	p := catalog.NewParticles(n)
	for i := 0; i < n; i++ {
		p.X[i] = rng.Float64() * 20
		p.Y[i] = rng.Float64() * 20
		p.Z[i] = rng.Float64() * 20
		p.W[i] = 1
		if i%3 == 0 {
			p.Tracer[i] = 2
		} else {
			p.Tracer[i] = 1
		}
	}
	return p
}

func testIntegral(t *testing.T, nthread, maxLoops int) *Integral {
	t.Helper()
	particles := testCatalog(200, 1)
	g, err := grid.Build(particles, 2.0, false, [3]float64{20, 20, 20})
	if err != nil {
		t.Fatalf("grid.Build: %v", err)
	}

	cfg := &config.Config{
		Covariance: config.CovarianceConfig{
			NBin: 3, MBin: 2, N2: 2, N3: 2, N4: 2,
			MaxLoops: maxLoops, NThread: nthread,
			Seed: 7, Variant: config.VariantAngular,
		},
		Convergence: config.ConvergenceConfig{Window: 3, C4Tolerance: 0.01},
	}

	return &Integral{
		Grid:      g,
		CubeDraws: randdraw.NewCubeSampler(3),
		Params:    cfg,
		LOS:       [3]float64{0, 0, 1},
		RMax:      6,
	}
}

func TestRunSmoke(t *testing.T) {
	in := testIntegral(t, 2, 20)
	result, err := in.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Loops == 0 {
		t.Errorf("expected at least one loop to run")
	}
	if result.Accumulator == nil {
		t.Fatal("expected a non-nil accumulator result")
	}
}

func TestRunMultiTracerExactlySevenCombos(t *testing.T) {
	in := testIntegral(t, 1, 5)
	results, err := in.RunMultiTracer(context.Background())
	if err != nil {
		t.Fatalf("RunMultiTracer: %v", err)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 tracer-combo results, got %d", len(results))
	}
	if len(TracerCombos) != 7 {
		t.Fatalf("TracerCombos has %d rows, want 7", len(TracerCombos))
	}
}

func TestRunIsDeterministicSingleThreaded(t *testing.T) {
	in1 := testIntegral(t, 1, 10)
	in2 := testIntegral(t, 1, 10)

	r1, err := in1.Run(context.Background())
	if err != nil {
		t.Fatalf("Run 1: %v", err)
	}
	r2, err := in2.Run(context.Background())
	if err != nil {
		t.Fatalf("Run 2: %v", err)
	}

	if r1.Cnt2 != r2.Cnt2 || r1.Cnt3 != r2.Cnt3 || r1.Cnt4 != r2.Cnt4 {
		t.Errorf("expected identical accepted-draw counts with nthread=1 and identical seed: (%d,%d,%d) vs (%d,%d,%d)",
			r1.Cnt2, r1.Cnt3, r1.Cnt4, r2.Cnt2, r2.Cnt3, r2.Cnt4)
	}
}

func TestRunConvergesEarlyWithTightTolerance(t *testing.T) {
	in := testIntegral(t, 1, 1000)
	in.Params.Convergence.C4Tolerance = 1e9 // trivially satisfied every loop
	in.Params.Convergence.Window = 5

	result, err := in.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Converged {
		t.Errorf("expected early convergence with a trivial tolerance")
	}
	if result.Loops > 50 {
		t.Errorf("expected convergence well before max_loops=1000, got %d loops", result.Loops)
	}
}

// TestRunConvergesNaturallyWithinLoopBudget is a scaled-down analogue of
// S2: with the library's default convergence tolerance (not an
// artificially loosened one), a run over a modest catalog still finishes
// within its max_loops budget, either by natural convergence or by
// exhausting the budget — both are acceptable outcomes here since S2's
// full scale (10^4 particles, 200 loops) is too slow for a unit test, but
// the loop must still terminate and report a loop count that respects the
// configured budget either way.
func TestRunConvergesNaturallyWithinLoopBudget(t *testing.T) {
	in := testIntegral(t, 2, 40)
	result, err := in.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Loops > 40 {
		t.Errorf("expected Loops <= max_loops=40, got %d", result.Loops)
	}
	if result.Converged && result.Loops < in.Params.Convergence.Window {
		t.Errorf("cannot report convergence before window=%d loops have run, got %d", in.Params.Convergence.Window, result.Loops)
	}
}

func TestSelector(t *testing.T) {
	cases := []struct{ i1, i2, want int }{
		{1, 1, 0},
		{2, 2, 1},
		{1, 2, 2},
		{2, 1, 2},
	}
	for _, c := range cases {
		if got := selector(c.i1, c.i2); got != c.want {
			t.Errorf("selector(%d,%d) = %d, want %d", c.i1, c.i2, got, c.want)
		}
	}
}
