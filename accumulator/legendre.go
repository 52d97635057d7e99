package accumulator

// legendreKernel bins pair separations into nbin radial shells, and
// decomposes the µ dependence into the first mbin even-order Legendre
// multipoles P_0, P_2, P_4, ... instead of discretizing µ directly.
type legendreKernel struct {
	nbin, mbin int
	rMax       float64
}

func (k legendreKernel) radialBin(r float64) (int, bool) {
	if r < 0 || r >= k.rMax {
		return NoBin, false
	}
	bin := int(r / k.rMax * float64(k.nbin))
	if bin >= k.nbin {
		bin = k.nbin - 1
	}
	return bin, true
}

func (k legendreKernel) basis(_ int, _ float64, mu float64) []float64 {
	out := make([]float64, k.mbin)
	for ell := 0; ell < k.mbin; ell++ {
		out[ell] = legendreP(2*ell, mu)
	}
	return out
}

// legendreP evaluates the ordinary Legendre polynomial P_n(x) via Bonnet's
// recurrence: (n+1) P_{n+1}(x) = (2n+1) x P_n(x) - n P_{n-1}(x). No pack
// dependency supplies Legendre polynomials directly (gonum's integrate and
// stat packages stop short of orthogonal-polynomial evaluation), so this
// is a small self-contained recurrence rather than a library call.
func legendreP(n int, x float64) float64 {
	if n == 0 {
		return 1
	}
	if n == 1 {
		return x
	}
	pPrev, pCur := 1.0, x
	for k := 1; k < n; k++ {
		pNext := ((2*float64(k)+1)*x*pCur - float64(k)*pPrev) / float64(k+1)
		pPrev, pCur = pCur, pNext
	}
	return pCur
}

// NewLegendre builds the Legendre-multipole variant: nbin radial shells
// out to rMax, each decomposed into mbin even multipoles (P_0, P_2, ...,
// P_2(mbin-1)). nRegions > 0 enables jackknife accumulation.
func NewLegendre(nbin, mbin int, rMax float64, nRegions int) Accumulator {
	kernel := legendreKernel{nbin: nbin, mbin: mbin, rMax: rMax}
	return newGenericAccumulator(kernel, "CovMatrices", nbin, mbin, rMax, nRegions)
}
