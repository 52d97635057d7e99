// Package compute implements the ComputeIntegral driver: the outer
// Monte Carlo loop that draws particle quadruplets and folds them into an
// accumulator.Accumulator until convergence or the configured loop budget
// is spent.
//
// Grounded on the teacher's game/parallel.go worker-pool shape
// (parallelState/workerScratch/sync.WaitGroup), generalized from a static
// entity-chunk partition to dynamic scheduling over a shared atomic loop
// counter, since here the per-iteration cost is data-dependent on
// acceptance rates rather than a fixed per-entity cost.
package compute

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/rascalc/accumulator"
	"github.com/pthm-cable/rascalc/config"
	"github.com/pthm-cable/rascalc/grid"
	"github.com/pthm-cable/rascalc/jackknife"
	"github.com/pthm-cable/rascalc/randdraw"
	"github.com/pthm-cable/rascalc/surveycorr"
	"github.com/pthm-cable/rascalc/xi"
)

// TracerCombos is the ordered multi-tracer iteration table: iteration n
// visits tracer quadruple TracerCombos[n], read as four decimal digits
// (e.g. 1122 means tracers (1,1,2,2)). Resolves the spec's
// iter_no -> (I1,I2,I3,I4) mapping explicitly rather than leaving it
// implicit in a loop counter.
var TracerCombos = [7][4]int{
	{1, 1, 1, 1},
	{1, 1, 1, 2},
	{1, 1, 2, 2},
	{1, 2, 2, 2},
	{2, 2, 2, 2},
	{1, 1, 2, 1},
	{1, 2, 1, 2},
}

// selector picks which of the three collaborator slots (self-pairs of
// tracer 1, self-pairs of tracer 2, or a cross-tracer pairing) a given
// (i1, i2) tracer pair belongs to.
func selector(i1, i2 int) int {
	if i1 == i2 {
		if i1 == 1 {
			return 0
		}
		return 1
	}
	return 2
}

// Integral wires together the grid, tabulated inputs, and sampling
// distributions the driver needs. Params.Covariance.Variant selects the
// accumulator implementation built by Run.
//
// Unlike SPEC_FULL.md's literal Grids [3]*grid.Grid, a single Grid
// suffices here: catalog.Particles already carries a per-particle tracer
// tag and grid.Cell already tracks per-cell NP1/NP2 partition counts, so
// the three-grid split the spec's C source used to keep tracer catalogs
// physically separate has no purpose once tracer membership is a field
// rather than a separate array (see DESIGN.md).
type Integral struct {
	Grid       *grid.Grid
	Xi         *xi.Table
	CubeDraws  *randdraw.CubeSampler
	XiDraws    *randdraw.XiSampler // nil falls back to CubeDraws for every draw
	Jackknife  *jackknife.Weights
	SurveyCorr *surveycorr.Table
	Params     *config.Config
	LOS        [3]float64
	// RMax is the outer radial (or wavenumber, for the Power variant)
	// bin edge; separations at or beyond it fall outside the accumulator's
	// support.
	RMax float64

	// Combo is the tracer quadruple this Run call restricts draws to
	// (I1 for the primary cell's particles, I2/I3/I4 for the drawn
	// partner/third/fourth), one row of TracerCombos. The zero value
	// {0,0,0,0} disables filtering (every particle accepted), which is
	// the single-tracer behavior.
	Combo [4]int

	// RegionOf maps a particle index to its jackknife region; required
	// (non-nil) whenever Jackknife is set.
	RegionOf func(particleIndex int) int

	// JKWeights holds the per-region, per-bin jackknife weight set for
	// each of the three collaborator slots selector returns (self-pairs
	// of tracer 1, self-pairs of tracer 2, cross-tracer pairs). Required
	// (all three non-nil) for the product-weighted C4_jack fold; a nil
	// slot falls back to the single-region RegionOf indicator fold.
	JKWeights [3]*jackknife.Weights
}

// Result is the outcome of one Run.
type Result struct {
	Accumulator      accumulator.Accumulator
	Loops            int
	Converged        bool
	Elapsed          time.Duration
	Cnt2, Cnt3, Cnt4 int

	// JackknifeProductTable is the (I1,I2)x(I3,I4) outer-product weight
	// table §4.4 precomputes alongside the per-quad C4_jack fold (nil if
	// Jackknife/JKWeights weren't supplied for this Combo). It's the same
	// table jackknife.ProductTable sums over regions; Fourth folds its
	// unsummed per-region summand directly, and this is kept for callers
	// that need the collapsed table (e.g. a post-hoc consistency check).
	JackknifeProductTable [][]float64
}

func (in *Integral) newAccumulator() (accumulator.Accumulator, error) {
	nbin, mbin := in.Params.Covariance.NBin, in.Params.Covariance.MBin
	rMax := in.RMax
	nRegions := 0
	if in.Jackknife != nil {
		nRegions = in.Jackknife.NRegions()
	}

	switch in.Params.Covariance.Variant {
	case config.VariantAngular:
		return accumulator.NewAngular(nbin, mbin, rMax, nRegions), nil
	case config.VariantLegendre:
		return accumulator.NewLegendre(nbin, mbin, rMax, nRegions), nil
	case config.VariantPower:
		corr := in.SurveyCorr
		if corr == nil {
			corr = surveycorr.Identity()
		}
		return accumulator.NewPower(nbin, mbin, rMax, corr, nRegions), nil
	default:
		return nil, fmt.Errorf("compute: unknown variant %q", in.Params.Covariance.Variant)
	}
}

// drawDeeper picks the third/fourth-particle sampler: the |ξ(r)| proposal when
// available, otherwise the same 1/r² proposal used for the second
// particle.
func (in *Integral) drawDeeper(rng *rand.Rand) ([3]int, float64) {
	if in.XiDraws != nil {
		return in.XiDraws.Draw(rng)
	}
	return in.CubeDraws.Draw(rng)
}

// Run executes the Monte Carlo loop until max_loops is spent or the C4
// Frobenius delta has been below tolerance in Params.Convergence.Window
// outer loops. The convergence counter only climbs: a loop above tolerance
// does not reset it, so those loops need not be consecutive. Per §9's explicit
// caution, only the C4 delta gates the convergence counter; C2/C3 deltas
// are still computed and logged.
func (in *Integral) Run(ctx context.Context) (*Result, error) {
	if err := in.Params.Covariance.Validate(runtime.NumCPU()); err != nil {
		return nil, err
	}
	if in.Jackknife != nil && in.RegionOf == nil {
		return nil, fmt.Errorf("compute: RegionOf is required when Jackknife is set")
	}

	global, err := in.newAccumulator()
	if err != nil {
		return nil, err
	}

	nthread := in.Params.Covariance.NThread
	maxLoops := in.Params.Covariance.MaxLoops
	window := in.Params.Convergence.Window
	if window <= 0 {
		window = 1
	}

	var nLoop int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	convergenceCounter := 0
	converged := false
	loopsDone := 0 // outer loops folded into global
	start := time.Now()

	var firstErr error
	var errOnce sync.Once
	setErr := func(err error) {
		errOnce.Do(func() { firstErr = err })
	}

	for w := 0; w < nthread; w++ {
		wg.Add(1)
		go func(threadIdx int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(in.Params.Covariance.Seed * int64(threadIdx+1)))
			local, err := in.newAccumulator()
			if err != nil {
				setErr(err)
				return
			}
			scratch := newWorkerScratch()

			for {
				if ctx.Err() != nil {
					return
				}
				n := atomic.AddInt64(&nLoop, 1)
				if n > int64(maxLoops) {
					return
				}

				in.runOneLoop(rng, local, scratch)

				mu.Lock()
				if converged {
					mu.Unlock()
					return
				}
				deltas := global.FrobeniusDifferenceSum(local, int(n))
				local.Reset()
				loopsDone++
				logLoopProgress(int(n), maxLoops, deltas, time.Since(start))

				if deltas.F4 < in.Params.Convergence.C4Tolerance {
					convergenceCounter++
				}
				if convergenceCounter >= window {
					converged = true
				}
				mu.Unlock()

				if converged {
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	cnt2, cnt3, cnt4 := global.Counts()
	norm := in.Grid.Norm()
	global.Normalize(accumulator.NormFactors{
		N1: norm, N2: norm, N3: norm, N4: norm,
		Pairs:     float64(cnt2),
		Triples:   float64(cnt3),
		Quads:     float64(cnt4),
		PowerNorm: in.Params.Covariance.PowerNorm,
	})

	jkAB := in.JKWeights[selector(in.Combo[0], in.Combo[1])]
	jkCD := in.JKWeights[selector(in.Combo[2], in.Combo[3])]
	var productTable [][]float64
	if jkAB != nil && jkCD != nil {
		productTable = jackknife.ProductTable(jkAB, jkCD)
	}

	result := &Result{
		Accumulator:           global,
		Loops:                 loopsDone,
		Converged:             converged,
		Elapsed:               time.Since(start),
		Cnt2:                  cnt2, Cnt3: cnt3, Cnt4: cnt4,
		JackknifeProductTable: productTable,
	}
	logFinal(result)
	return result, nil
}

// workerScratch holds per-worker reusable buffers, grown on demand to the
// longest primary-particle list seen and reused across iterations,
// following game/parallel.go's workerScratch reuse idiom.
type workerScratch struct {
	prim    []int
	binIJ   []int
	wIJ     []float64
	basisIJ [][]float64
	xiIK    []float64
	wIJK    []float64
	binIK   []int
	basisIK [][]float64
}

func newWorkerScratch() *workerScratch {
	return &workerScratch{}
}

func ensureIntLen(buf []int, n int) []int {
	if cap(buf) < n {
		return make([]int, n)
	}
	return buf[:n]
}

func ensureFloatLen(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}

func ensureBasisLen(buf [][]float64, n int) [][]float64 {
	if cap(buf) < n {
		return make([][]float64, n)
	}
	return buf[:n]
}

// runOneLoop executes a single outer loop's worth of draws (one random
// primary cell, N2 second-particle draws each fanning out to N3 third and
// N4 fourth draws), folding every accepted quadruplet into local.
func (in *Integral) runOneLoop(rng *rand.Rand, local accumulator.Accumulator, scratch *workerScratch) {
	g := in.Grid
	if g.NFilled() == 0 {
		return
	}
	id1 := g.Filled(rng.Intn(g.NFilled()))
	cell := g.Cell(id1)
	if cell.NP() == 0 {
		return
	}

	particles := g.Particles()
	scratch.prim = scratch.prim[:0]
	for i := cell.Start; i < cell.Start+cell.Count; i++ {
		if in.Combo[0] != 0 && int(particles.Tracer[i]) != in.Combo[0] {
			continue
		}
		scratch.prim = append(scratch.prim, i)
	}
	n := len(scratch.prim)
	if n == 0 {
		return
	}
	scratch.binIJ = ensureIntLen(scratch.binIJ, n)
	scratch.wIJ = ensureFloatLen(scratch.wIJ, n)
	scratch.basisIJ = ensureBasisLen(scratch.basisIJ, n)
	scratch.xiIK = ensureFloatLen(scratch.xiIK, n)
	scratch.wIJK = ensureFloatLen(scratch.wIJK, n)
	scratch.binIK = ensureIntLen(scratch.binIK, n)
	scratch.basisIK = ensureBasisLen(scratch.basisIK, n)

	params := in.Params.Covariance
	coord := g.CellIDFrom1D(id1)

	// The (I1,I2) and (I3,I4) jackknife weight slots this Combo draws
	// from, resolved once per outer loop since Combo is fixed for the
	// whole Run. Either may be nil (no jackknife, or that slot's weights
	// were never supplied), in which case Fourth falls back to the
	// simpler single-region RegionOf fold.
	jkAB := in.JKWeights[selector(in.Combo[0], in.Combo[1])]
	jkCD := in.JKWeights[selector(in.Combo[2], in.Combo[3])]

	for n2 := 0; n2 < params.N2; n2++ {
		delta2, p2raw := in.CubeDraws.Draw(rng)
		jCoord := addCoord(coord, delta2)
		jID1, ok := g.TestCell(jCoord)
		if !ok {
			continue
		}
		jCell := g.Cell(jID1)
		if jCell.NP() == 0 {
			continue
		}
		j, ok := drawParticleWithTracer(g, rng, jID1, int8(in.Combo[1]))
		if !ok {
			continue
		}
		p2 := p2raw / (float64(cell.NP()) * float64(params.N2))

		// Angular mode splits the marginal into p21/p22 when the partner
		// cell mixes both tracer partitions, so Second can pick the
		// correct denominator for whichever partition it actually drew
		// from (§4.3/§4.4).
		var p21, p22 float64
		if in.Params.Covariance.Variant == config.VariantAngular && jCell.NP1 > 0 && jCell.NP2 > 0 {
			p21 = p2 * float64(jCell.NP()) / float64(jCell.NP1)
			p22 = p2 * float64(jCell.NP()) / float64(jCell.NP2)
		}

		local.Second(&accumulator.SecondCtx{
			PrimParticles:    g.Particles(),
			PartnerParticles: g.Particles(),
			Prim:             scratch.prim,
			J:                j,
			P2:               p2,
			P21:              p21,
			P22:              p22,
			LOS:              in.LOS,
			RegionOf:         in.RegionOf,
			BinIJ:            scratch.binIJ,
			WIJ:              scratch.wIJ,
			BasisIJ:          scratch.basisIJ,
		})

		for n3 := 0; n3 < params.N3; n3++ {
			delta3, p3raw := in.drawDeeper(rng)
			kCoord := addCoord(jCoord, delta3)
			kID1, ok := g.TestCell(kCoord)
			if !ok {
				continue
			}
			kCell := g.Cell(kID1)
			if kCell.NP() == 0 {
				continue
			}
			k, ok := drawParticleWithTracer(g, rng, kID1, int8(in.Combo[2]))
			if !ok {
				continue
			}
			// Carries forward p2 per spec.md §4.4's p3 := p3*p2/tln: C3
			// divides by the joint (i,j,k) proposal probability, not just
			// the marginal N3 draw.
			p3 := p3raw * p2 / float64(params.N3)

			local.Third(&accumulator.ThirdCtx{
				KParticles: g.Particles(),
				Prim:       scratch.prim,
				K:          k,
				LOS:        in.LOS,
				BinIJ:      scratch.binIJ,
				WIJ:        scratch.wIJ,
				BasisIJ:    scratch.basisIJ,
				P3:         p3,
				RegionOf:   in.RegionOf,
				XiTable:    in.Xi,
				XiIK:       scratch.xiIK,
				WIJK:       scratch.wIJK,
				BinIK:      scratch.binIK,
				BasisIK:    scratch.basisIK,
			})

			for n4 := 0; n4 < params.N4; n4++ {
				delta4, p4raw := in.drawDeeper(rng)
				lCoord := addCoord(kCoord, delta4)
				lID1, ok := g.TestCell(lCoord)
				if !ok {
					continue
				}
				lCell := g.Cell(lID1)
				if lCell.NP() == 0 {
					continue
				}
				l, ok := drawParticleWithTracer(g, rng, lID1, int8(in.Combo[3]))
				if !ok {
					continue
				}
				// Carries forward p3 per spec.md §4.4's p4 := p4*p3/fln.
				p4 := p4raw * p3 / float64(params.N4)

				local.Fourth(&accumulator.FourthCtx{
					KParticles:  g.Particles(),
					K:           k,
					LParticles:  g.Particles(),
					Prim:        scratch.prim,
					L:           l,
					LOS:         in.LOS,
					BinIJ:       scratch.binIJ,
					BasisIJ:     scratch.basisIJ,
					WIJK:        scratch.wIJK,
					XiIK:        scratch.xiIK,
					BinIK:       scratch.binIK,
					BasisIK:     scratch.basisIK,
					P4:          p4,
					RegionOf:    in.RegionOf,
					JKWeightsAB: jkAB,
					JKWeightsCD: jkCD,
				})
			}
		}
	}
}

func addCoord(c [3]int, delta [3]int) [3]int {
	return [3]int{c[0] + delta[0], c[1] + delta[1], c[2] + delta[2]}
}

// drawParticleWithTracer draws a uniformly random particle from the named
// cell restricted to the given tracer tag; tracer == 0 disables filtering
// and defers to grid.Grid.DrawParticle directly. Cells are small relative
// to the branching factors this sampler is built for, so a linear scan to
// collect matches is simpler than maintaining a second per-tracer cell
// index and is fast enough in practice.
func drawParticleWithTracer(g *grid.Grid, rng *rand.Rand, cellID1 int, tracer int8) (int, bool) {
	if tracer == 0 {
		return g.DrawParticle(rng, cellID1)
	}
	cell := g.Cell(cellID1)
	particles := g.Particles()
	matches := make([]int, 0, cell.Count)
	for i := cell.Start; i < cell.Start+cell.Count; i++ {
		if particles.Tracer[i] == tracer {
			matches = append(matches, i)
		}
	}
	if len(matches) == 0 {
		return 0, false
	}
	return matches[rng.Intn(len(matches))], true
}

// RunMultiTracer runs the integral once per row of TracerCombos (per
// spec.md §6's multi_tracers option), returning one Result (with its own
// accumulator) per combo in TracerCombos order; the combos' accumulators
// are not summed together. Every run shares the same
// Integral's Grid/Xi/Draws/Jackknife/SurveyCorr/Params; only Combo varies.
func (in *Integral) RunMultiTracer(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, len(TracerCombos))
	for _, combo := range TracerCombos {
		run := *in
		run.Combo = combo
		result, err := run.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("compute: combo %v: %w", combo, err)
		}
		Logf("combo %v (slot %d): %d loops, converged=%v", combo, selector(combo[0], combo[1]), result.Loops, result.Converged)
		results = append(results, result)
	}
	return results, nil
}
