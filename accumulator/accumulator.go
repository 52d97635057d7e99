// Package accumulator implements the IntegralAccumulator: per-bin partial
// sums for C2, C3, C4 (and their jackknife variants), folded by the
// second/third/fourth kernels as the driver draws particle quadruplets.
//
// The binning scheme (Angular-µ, Legendre, Power) is a build-time choice
// in the original design; here it is ordinary runtime polymorphism behind
// the Accumulator interface (per spec.md §9's redesign note), with three
// concrete implementations in angular.go, legendre.go, power.go.
//
// Array arithmetic (SumInts, Normalize, the Frobenius norm) is
// grounded on the teacher's gonum.org/v1/gonum dependency via
// gonum.org/v1/gonum/floats, generalizing its use from cmd/optimize's
// CMA-ES objective and systems/simd_bench_test.go's blas32 benchmark to
// flat accumulator-array arithmetic.
package accumulator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/rascalc/catalog"
	"github.com/pthm-cable/rascalc/jackknife"
	"github.com/pthm-cable/rascalc/xi"
)

// NoBin is the sentinel bin index for an out-of-support separation.
const NoBin = -1

// NormFactors carries the normalization denominators for Normalize: grid
// weight norms and the total attempted sample counts used as
// Monte-Carlo-average denominators.
type NormFactors struct {
	N1, N2, N3, N4       float64 // grid weight norms
	Pairs, Triples, Quads float64 // attempted sample totals
	PowerNorm             float64 // carried for the Power variant; Normalize does not apply it
}

// FrobeniusDeltas reports the relative Frobenius-norm change between
// consecutive outer loops, the convergence proxy of spec.md §4.3 and §4.4.
type FrobeniusDeltas struct {
	F2, F3, F4    float64
	F2J, F3J, F4J float64 // jackknife variants; zero if jackknife is disabled
}

// SecondCtx carries the inputs and pre-sized output buffers for Second.
// Prim holds the primary particle indices being processed this draw (the
// precomputed particle list of the current i-cell, reused across all
// N2·N3·N4 draws per spec.md §4.4); PrimParticles/PartnerParticles are the
// catalogs those indices and J index into.
type SecondCtx struct {
	PrimParticles    *catalog.Particles
	PartnerParticles *catalog.Particles
	Prim             []int
	J                int
	P2               float64
	// P21, P22 hold the partitioned proposal probabilities used by the
	// Angular variant when two tracer partitions are mixed in the same
	// cell; zero means "no partition in effect" and P2 is used directly.
	P21, P22 float64
	LOS      [3]float64

	// RegionOf maps a particle index to its jackknife region; nil
	// disables the jackknife fold even if the accumulator was built with
	// jackknife support.
	RegionOf func(particleIndex int) int

	// Outputs, pre-sized to len(Prim) by the caller (and reused across
	// draws to avoid per-draw allocation, matching the teacher's
	// workerScratch reuse idiom in game/parallel.go).
	BinIJ []int
	WIJ   []float64
	// BasisIJ[i] is the per-primary basis vector (length MBin()),
	// threaded forward into Third/Fourth exactly as spec.md's "poly_ij"
	// scratch is reused for both directions.
	BasisIJ [][]float64
}

// ThirdCtx carries the inputs and outputs for Third.
type ThirdCtx struct {
	KParticles *catalog.Particles
	Prim       []int
	K          int
	LOS        [3]float64
	BinIJ      []int
	WIJ        []float64
	BasisIJ    [][]float64
	P3         float64

	// RegionOf maps a particle index to its jackknife region; nil
	// disables the jackknife fold even if the accumulator was built with
	// jackknife support.
	RegionOf func(particleIndex int) int

	// XiTable evaluates the correlation function ξ(r_ik) folded into C3;
	// nil treats ξ as 1 everywhere (no correlation weighting), which a
	// caller that never supplied a correlation-function table relies on.
	XiTable *xi.Table

	XiIK    []float64
	WIJK    []float64
	BinIK   []int
	BasisIK [][]float64
}

// FourthCtx carries the inputs for Fourth.
type FourthCtx struct {
	KParticles *catalog.Particles
	K          int
	LParticles *catalog.Particles
	Prim       []int
	L          int
	LOS        [3]float64
	BinIJ      []int
	BasisIJ    [][]float64
	WIJK       []float64
	XiIK       []float64
	BinIK      []int
	BasisIK    [][]float64
	P4         float64

	// RegionOf maps a particle index to its jackknife region; nil
	// disables the jackknife fold even if the accumulator was built with
	// jackknife support.
	RegionOf func(particleIndex int) int

	// JKWeightsAB/JKWeightsCD are the per-region, per-bin jackknife weight
	// sets for the (I1,I2) and (I3,I4) tracer pairs respectively. Fourth
	// folds C4_jack[region] using the same per-region summand that
	// jackknife.ProductTable collapses over regions:
	// JKWeightsAB.W[region][binIJ] * JKWeightsCD.W[region][binKL]. If
	// either is nil, Fourth falls back to the single-region RegionOf fold
	// (and folds no jackknife term when RegionOf is nil too).
	JKWeightsAB *jackknife.Weights
	JKWeightsCD *jackknife.Weights
}

// Accumulator holds per-bin partial sums for C2, C3, C4 (and jackknife
// variants), and the kernels that fold particle draws into them.
type Accumulator interface {
	// Second folds a (i, j) draw into C2.
	Second(ctx *SecondCtx)
	// Third folds a (i, j, k) draw into C3, given Second's outputs.
	Third(ctx *ThirdCtx)
	// Fourth folds a (i, j, k, l) draw into C4, given Third's outputs.
	Fourth(ctx *FourthCtx)

	// SumInts adds other's arrays element-wise into this accumulator.
	SumInts(other Accumulator)
	// Reset zeros all arrays and counts.
	Reset()
	// Normalize divides each array by the appropriate normalization.
	Normalize(n NormFactors)
	// FrobeniusDifferenceSum folds local into this, then reports the
	// relative Frobenius-norm change for C2/C3/C4 (and jackknife
	// variants) between the pre-fold and post-fold snapshots.
	FrobeniusDifferenceSum(local Accumulator, nLoop int) FrobeniusDeltas
	// SaveIntegrals writes the C2/C3/C4 arrays under dir/<variant subdir>.
	SaveIntegrals(dir, tag string, final bool) error
	// SaveJackknifeIntegrals writes the jackknife-region arrays.
	SaveJackknifeIntegrals(dir, tag string) error

	// Counts returns the accepted-contribution counters (cnt2, cnt3, cnt4).
	Counts() (cnt2, cnt3, cnt4 int)
	// NBin, MBin expose the bin-shape parameters (for tests and callers
	// that need to size external buffers).
	NBin() int
	MBin() int
	// SubDir names the output subdirectory for this variant, per spec.md
	// §6 (CovMatrices/, CovMatricesJack/, PowerCovMatrices/, etc).
	SubDir() string
}

// totalBins returns NBin*MBin, the combined (radial, secondary) bin count.
func totalBins(nbin, mbin int) int {
	return nbin * mbin
}

// base holds the state and array arithmetic shared by all three variants.
// Embedded by angular/legendre/power's concrete types, which supply the
// variant-specific radial/secondary binning via the variantKernel
// interface.
type base struct {
	nbin, mbin int
	rMax       float64

	c2, c3, c4 []float64
	cnt2, cnt3, cnt4 int

	jackknife  bool
	nRegions   int
	c2j, c3j, c4j [][]float64 // [region][bin...]
}

func newBase(nbin, mbin int, rMax float64, nRegions int) base {
	tb := totalBins(nbin, mbin)
	b := base{
		nbin: nbin,
		mbin: mbin,
		rMax: rMax,
		c2:   make([]float64, tb),
		c3:   make([]float64, tb*tb),
		c4:   make([]float64, tb*tb),
	}
	if nRegions > 0 {
		b.jackknife = true
		b.nRegions = nRegions
		b.c2j = make([][]float64, nRegions)
		b.c3j = make([][]float64, nRegions)
		b.c4j = make([][]float64, nRegions)
		for r := 0; r < nRegions; r++ {
			b.c2j[r] = make([]float64, tb)
			b.c3j[r] = make([]float64, tb*tb)
			b.c4j[r] = make([]float64, tb*tb)
		}
	}
	return b
}

func (b *base) Counts() (int, int, int) { return b.cnt2, b.cnt3, b.cnt4 }
func (b *base) NBin() int               { return b.nbin }
func (b *base) MBin() int               { return b.mbin }

func (b *base) reset() {
	zero(b.c2)
	zero(b.c3)
	zero(b.c4)
	b.cnt2, b.cnt3, b.cnt4 = 0, 0, 0
	for r := 0; r < b.nRegions; r++ {
		zero(b.c2j[r])
		zero(b.c3j[r])
		zero(b.c4j[r])
	}
}

func zero(xs []float64) {
	for i := range xs {
		xs[i] = 0
	}
}

func (b *base) sumFrom(o *base) {
	floats.Add(b.c2, o.c2)
	floats.Add(b.c3, o.c3)
	floats.Add(b.c4, o.c4)
	b.cnt2 += o.cnt2
	b.cnt3 += o.cnt3
	b.cnt4 += o.cnt4
	for r := 0; r < b.nRegions && r < o.nRegions; r++ {
		floats.Add(b.c2j[r], o.c2j[r])
		floats.Add(b.c3j[r], o.c3j[r])
		floats.Add(b.c4j[r], o.c4j[r])
	}
}

func (b *base) normalize(n NormFactors) {
	if n.Pairs > 0 {
		floats.Scale(1/(n.N1*n.N2*n.Pairs), b.c2)
	}
	if n.Triples > 0 {
		floats.Scale(1/(n.N1*n.N2*n.N3*n.Triples), b.c3)
	}
	if n.Quads > 0 {
		floats.Scale(1/(n.N1*n.N2*n.N3*n.N4*n.Quads), b.c4)
	}
	for r := 0; r < b.nRegions; r++ {
		if n.Pairs > 0 {
			floats.Scale(1/(n.N1*n.N2*n.Pairs), b.c2j[r])
		}
		if n.Triples > 0 {
			floats.Scale(1/(n.N1*n.N2*n.N3*n.Triples), b.c3j[r])
		}
		if n.Quads > 0 {
			floats.Scale(1/(n.N1*n.N2*n.N3*n.N4*n.Quads), b.c4j[r])
		}
	}
}

// relativeNorm returns ||current-previous|| / ||current|| (0 if current is
// all-zero).
func relativeNorm(current, previous []float64) float64 {
	norm := floats.Norm(current, 2)
	if norm == 0 {
		return 0
	}
	diff := make([]float64, len(current))
	copy(diff, current)
	floats.Sub(diff, previous)
	return floats.Norm(diff, 2) / norm
}

func (b *base) frobeniusDifferenceSum(o *base) FrobeniusDeltas {
	prevC2 := append([]float64(nil), b.c2...)
	prevC3 := append([]float64(nil), b.c3...)
	prevC4 := append([]float64(nil), b.c4...)

	var prevC2j, prevC3j, prevC4j [][]float64
	if b.jackknife {
		prevC2j = cloneRows(b.c2j)
		prevC3j = cloneRows(b.c3j)
		prevC4j = cloneRows(b.c4j)
	}

	b.sumFrom(o)

	deltas := FrobeniusDeltas{
		F2: relativeNorm(b.c2, prevC2),
		F3: relativeNorm(b.c3, prevC3),
		F4: relativeNorm(b.c4, prevC4),
	}
	if b.jackknife {
		deltas.F2J = relativeNormRows(b.c2j, prevC2j)
		deltas.F3J = relativeNormRows(b.c3j, prevC3j)
		deltas.F4J = relativeNormRows(b.c4j, prevC4j)
	}
	return deltas
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// relativeNormRows computes the Frobenius norm across all regions treated
// as one flattened array, matching how a single jackknife C_k tensor's
// convergence would be judged as a whole rather than region-by-region.
func relativeNormRows(current, previous [][]float64) float64 {
	var normSq, diffSq float64
	for r := range current {
		normSq += floats.Dot(current[r], current[r])
		diff := make([]float64, len(current[r]))
		copy(diff, current[r])
		floats.Sub(diff, previous[r])
		diffSq += floats.Dot(diff, diff)
	}
	if normSq == 0 {
		return 0
	}
	return sqrtf(diffSq) / sqrtf(normSq)
}

func sqrtf(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

func bin2Index(mbin, rBin, secondary int) int {
	return rBin*mbin + secondary
}

func c3Index(totalBins, ij, ik int) int {
	return ij*totalBins + ik
}

func validateVariantInputs(prim []int, binIJ []int, wIJ []float64) error {
	if len(binIJ) != len(prim) || len(wIJ) != len(prim) {
		return fmt.Errorf("accumulator: output buffers must be pre-sized to len(Prim)=%d, got binIJ=%d wIJ=%d", len(prim), len(binIJ), len(wIJ))
	}
	return nil
}
