package accumulator

import "math"

// variantKernel is the binning strategy shared by Second/Third/Fourth: how
// a separation maps to a radial bin, and how a (radial bin, separation,
// cosine-to-line-of-sight) triple maps to a basis vector of length MBin.
//
// Angular's basis is a one-hot vector selecting the µ-bin; Legendre's is
// the even Legendre polynomials evaluated at µ; Power's is a
// survey-corrected Fourier kernel evaluated at a wavenumber mode. All three
// degenerate to the same C2/C3/C4 folding code below, which is the
// generalization this package uses in place of three separately-coded
// kernel bodies (see DESIGN.md).
type variantKernel interface {
	// radialBin maps a pair separation r to a radial bin, or ok=false if r
	// falls outside [0, rMax).
	radialBin(r float64) (bin int, ok bool)
	// basis returns the length-MBin decomposition of the pair (r, mu)
	// within radial bin rb.
	basis(rb int, r, mu float64) []float64
}

// cosineToLOS returns the cosine of the angle between the pair separation
// (from a to b) and the fixed line-of-sight vector.
func cosineToLOS(a, b, los [3]float64) float64 {
	sep := [3]float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	r := math.Sqrt(sep[0]*sep[0] + sep[1]*sep[1] + sep[2]*sep[2])
	if r == 0 {
		return 0
	}
	losLen := math.Sqrt(los[0]*los[0] + los[1]*los[1] + los[2]*los[2])
	if losLen == 0 {
		return 0
	}
	dot := sep[0]*los[0] + sep[1]*los[1] + sep[2]*los[2]
	return dot / (r * losLen)
}

func separation(a, b [3]float64) float64 {
	dx, dy, dz := b[0]-a[0], b[1]-a[1], b[2]-a[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// foldSecond accumulates w*basis[a]/p2 into c2[rb*mbin+a] for every
// secondary index a, per spec.md §4.4's second() kernel.
func foldSecond(c2 []float64, mbin, rb int, w, p2 float64, basis []float64) {
	if p2 == 0 {
		return
	}
	for a, ba := range basis {
		c2[bin2Index(mbin, rb, a)] += w * ba / p2
	}
}

// foldOuter accumulates the outer product of two basis vectors, scaled by
// w/p, into a full (nbin*mbin)^2-shaped array: out[(rbA*mbin+a)*tb +
// (rbB*mbin+b)] += w/p * basisA[a] * basisB[b]. This is the shared C3/C4
// folding rule: for Angular's one-hot basis vectors it reduces to a single
// nonzero term exactly matching a scalar-bin kernel; for Legendre/Power it
// produces genuine cross-multipole (or cross-mode) terms, which is the
// natural generalization of the spec's scalar bin index to a vector basis.
func foldOuter(out []float64, mbin, tb, rbA, rbB int, w, p float64, basisA, basisB []float64) {
	if p == 0 {
		return
	}
	scale := w / p
	for a, ba := range basisA {
		if ba == 0 {
			continue
		}
		ij := bin2Index(mbin, rbA, a)
		for b, bb := range basisB {
			ik := bin2Index(mbin, rbB, b)
			out[c3Index(tb, ij, ik)] += scale * ba * bb
		}
	}
}

// foldOuterWeighted is foldOuter with an extra scalar multiplier per
// (ij, ik) flattened bin pair, used for the jackknife product-weighted
// C4_jack fold: weight(ij, ik) supplies the per-region jackknife summand
// jackknife.ProductTable itself would sum over regions.
func foldOuterWeighted(out []float64, mbin, tb, rbA, rbB int, w, p float64, basisA, basisB []float64, weight func(ij, ik int) float64) {
	if p == 0 {
		return
	}
	scale := w / p
	for a, ba := range basisA {
		if ba == 0 {
			continue
		}
		ij := bin2Index(mbin, rbA, a)
		for b, bb := range basisB {
			ik := bin2Index(mbin, rbB, b)
			jkw := weight(ij, ik)
			if jkw == 0 {
				continue
			}
			out[c3Index(tb, ij, ik)] += scale * ba * bb * jkw
		}
	}
}
