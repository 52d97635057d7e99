package accumulator

import (
	"math"
	"testing"

	"github.com/pthm-cable/rascalc/surveycorr"
)

func TestSphericalBesselJ0AtZeroIsOne(t *testing.T) {
	if got := sphericalBesselJ0(0); got != 1 {
		t.Errorf("j0(0) = %v, want 1", got)
	}
}

func TestPowerBasisUsesIdentityCorrection(t *testing.T) {
	k := powerKernel{nbin: 2, mbin: 2, kMax: 1, corr: surveycorr.Identity()}
	basis := k.basis(0, 0.0, 1.0)
	// At r=0, j0(k*0)=1, so each entry should equal P_2ell(1) = 1.
	for ell, v := range basis {
		if math.Abs(v-1) > 1e-9 {
			t.Errorf("basis[%d] = %v, want 1", ell, v)
		}
	}
}

func TestPowerVariantSubDir(t *testing.T) {
	acc := NewPower(2, 2, 1, surveycorr.Identity(), 0)
	if acc.SubDir() != "PowerCovMatrices" {
		t.Errorf("SubDir() = %q, want PowerCovMatrices", acc.SubDir())
	}
}
