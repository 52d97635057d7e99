// Package surveycorr provides geometric window-function corrections for
// the Legendre and Power accumulator variants. Like xi.Table, the
// correction values themselves are supplied by an external collaborator
// (computed from the survey's angular/radial selection function); this
// package only evaluates the tabulated correction.
package surveycorr

import "github.com/pthm-cable/rascalc/internal/interp"

// Table holds a per-(radial bin, mode) multiplicative correction, indexed
// by bin and by either Legendre multipole ℓ or Fourier wavenumber k
// depending on Kind.
type Table struct {
	Kind   Kind
	Modes  []float64   // ℓ values (Legendre) or k samples (Power)
	Values [][]float64 // Values[bin][mode]
}

// Kind selects which accumulator variant a Table corrects for.
type Kind int

const (
	KindIdentity Kind = iota
	KindLegendre
	KindPower
)

// Identity returns a no-op correction, used for Angular mode which needs
// no window-function correction.
func Identity() *Table {
	return &Table{Kind: KindIdentity}
}

// Correction returns the multiplicative correction for the given radial
// bin at the given mode value (ℓ or k). Identity tables always return 1.
// ok is false if mode falls outside the table's support.
func (t *Table) Correction(bin int, mode float64) (value float64, ok bool) {
	if t.Kind == KindIdentity {
		return 1, true
	}
	if bin < 0 || bin >= len(t.Values) {
		return 0, false
	}
	lo, frac, ok := interp.BinarySearchBracket(t.Modes, mode)
	if !ok {
		return 0, false
	}
	row := t.Values[bin]
	return interp.Lerp(frac, row[lo], row[lo+1]), true
}
