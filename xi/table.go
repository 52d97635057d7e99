// Package xi evaluates the two-point correlation function ξ(r) or ξ(r,µ)
// by table interpolation. Constructing the table from raw survey/simulation
// input is an external collaborator's job (see spec.md's Non-goals); this
// package only evaluates an already-tabulated function at arbitrary
// separations.
//
// Grounded on the teacher's systems/noise.go lattice-lookup-then-blend
// idiom (Noise3D walks a precomputed permutation table and linearly
// blends corner values via lerp); here the lattice is a sorted table of
// physical separations rather than a hashed noise lattice, and the blend
// uses internal/interp's shared Lerp/BinarySearchBracket helpers.
package xi

import (
	"fmt"

	"github.com/pthm-cable/rascalc/internal/interp"
)

// Table holds a tabulated correlation function, optionally as a function
// of both separation r and angle cosine µ.
type Table struct {
	R    []float64   // sorted ascending separations
	Mu   []float64   // sorted ascending µ samples; nil for an isotropic table
	Xi   [][]float64 // Xi[i] is ξ at R[i] for each Mu (or a single-element row if Mu is nil)
}

// NewIsotropic builds a Table from parallel r, xi slices (ξ(r) only).
func NewIsotropic(r, xi []float64) (*Table, error) {
	if len(r) != len(xi) {
		return nil, fmt.Errorf("xi: r and xi length mismatch: %d vs %d", len(r), len(xi))
	}
	if len(r) < 2 {
		return nil, fmt.Errorf("xi: table needs at least 2 samples, got %d", len(r))
	}
	rows := make([][]float64, len(r))
	for i, v := range xi {
		rows[i] = []float64{v}
	}
	return &Table{R: r, Xi: rows}, nil
}

// NewAnisotropic builds a Table from a grid of ξ(r, µ) values; xi[i][j] is
// ξ at R[i], Mu[j].
func NewAnisotropic(r, mu []float64, xi [][]float64) (*Table, error) {
	if len(r) != len(xi) {
		return nil, fmt.Errorf("xi: r and xi row count mismatch: %d vs %d", len(r), len(xi))
	}
	for i, row := range xi {
		if len(row) != len(mu) {
			return nil, fmt.Errorf("xi: row %d has %d columns, want %d (len(mu))", i, len(row), len(mu))
		}
	}
	return &Table{R: r, Mu: mu, Xi: xi}, nil
}

// Eval evaluates ξ(r) from the first column of the table: the only column
// of an isotropic table, or the Mu[0] column of an anisotropic one. ok is
// false if r falls outside the table's support.
func (t *Table) Eval(r float64) (value float64, ok bool) {
	lo, frac, ok := interp.BinarySearchBracket(t.R, r)
	if !ok {
		return 0, false
	}
	a := t.Xi[lo][0]
	b := t.Xi[lo+1][0]
	return interp.Lerp(frac, a, b), true
}

// EvalMu evaluates ξ(r, µ) by bilinear interpolation over both axes. ok is
// false if (r, µ) falls outside the table's support, or the table has no
// µ axis.
func (t *Table) EvalMu(r, mu float64) (value float64, ok bool) {
	if t.Mu == nil {
		return 0, false
	}
	rLo, rFrac, ok := interp.BinarySearchBracket(t.R, r)
	if !ok {
		return 0, false
	}
	muLo, muFrac, ok := interp.BinarySearchBracket(t.Mu, mu)
	if !ok {
		return 0, false
	}

	x00 := t.Xi[rLo][muLo]
	x01 := t.Xi[rLo][muLo+1]
	x10 := t.Xi[rLo+1][muLo]
	x11 := t.Xi[rLo+1][muLo+1]

	row0 := interp.Lerp(muFrac, x00, x01)
	row1 := interp.Lerp(muFrac, x10, x11)
	return interp.Lerp(rFrac, row0, row1), true
}
