package accumulator

// angularKernel bins pair separations into nbin radial shells and mbin
// equal-width µ bins in [-1, 1], the original Angular-µ scheme. Its basis
// is a one-hot vector: a pair contributes to exactly one (r, µ) cell.
type angularKernel struct {
	nbin, mbin int
	rMax       float64
}

func (k angularKernel) radialBin(r float64) (int, bool) {
	if r < 0 || r >= k.rMax {
		return NoBin, false
	}
	bin := int(r / k.rMax * float64(k.nbin))
	if bin >= k.nbin {
		bin = k.nbin - 1
	}
	return bin, true
}

func (k angularKernel) basis(rb int, r, mu float64) []float64 {
	out := make([]float64, k.mbin)
	if mu < -1 || mu > 1 {
		return out
	}
	// map [-1, 1] to [0, mbin)
	idx := int((mu + 1) / 2 * float64(k.mbin))
	if idx >= k.mbin {
		idx = k.mbin - 1
	}
	if idx < 0 {
		idx = 0
	}
	out[idx] = 1
	return out
}

// NewAngular builds the Angular-µ variant: nbin radial shells out to rMax,
// each split into mbin linear µ bins. nRegions > 0 enables jackknife
// accumulation with that many regions.
func NewAngular(nbin, mbin int, rMax float64, nRegions int) Accumulator {
	kernel := angularKernel{nbin: nbin, mbin: mbin, rMax: rMax}
	return newGenericAccumulator(kernel, "CovMatrices", nbin, mbin, rMax, nRegions)
}
