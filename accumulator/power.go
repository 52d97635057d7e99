package accumulator

import (
	"math"

	"github.com/pthm-cable/rascalc/surveycorr"
)

// powerKernel bins pair separations into nbin wavenumber shells (labeled
// by k rather than r) and decomposes the angular dependence into mbin
// even Legendre multipoles, the same way legendreKernel does for
// configuration space. Each basis entry is additionally weighted by the
// spherical Bessel kernel j0(k*r) (the real-space/Fourier-space pair
// kernel for the monopole FFT-based estimator) and by the survey-window
// correction for that (bin, mode) looked up in the supplied
// surveycorr.Table.
type powerKernel struct {
	nbin, mbin int
	kMax       float64
	corr       *surveycorr.Table
}

func (k powerKernel) radialBin(r float64) (int, bool) {
	if r < 0 || r >= k.kMax {
		return NoBin, false
	}
	bin := int(r / k.kMax * float64(k.nbin))
	if bin >= k.nbin {
		bin = k.nbin - 1
	}
	return bin, true
}

func (k powerKernel) basis(rb int, r, mu float64) []float64 {
	kVal := (float64(rb) + 0.5) * k.kMax / float64(k.nbin)
	out := make([]float64, k.mbin)
	for ell := 0; ell < k.mbin; ell++ {
		mode := float64(2 * ell)
		corr, ok := k.corr.Correction(rb, mode)
		if !ok {
			corr = 1
		}
		out[ell] = corr * legendreP(2*ell, mu) * sphericalBesselJ0(kVal*r)
	}
	return out
}

// sphericalBesselJ0 evaluates j0(x) = sin(x)/x (j0(0) = 1), the Fourier
// kernel relating a configuration-space pair separation to the monopole
// power-spectrum mode.
func sphericalBesselJ0(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

// NewPower builds the Power-spectrum variant: nbin wavenumber shells out
// to kMax, each decomposed into mbin even multipoles, with survey-window
// corrections applied per corr. nRegions > 0 enables jackknife
// accumulation.
func NewPower(nbin, mbin int, kMax float64, corr *surveycorr.Table, nRegions int) Accumulator {
	kernel := powerKernel{nbin: nbin, mbin: mbin, kMax: kMax, corr: corr}
	return newGenericAccumulator(kernel, "PowerCovMatrices", nbin, mbin, kMax, nRegions)
}
