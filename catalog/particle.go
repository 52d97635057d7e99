// Package catalog defines the particle data this system samples from.
// Loading real survey catalogs is an external collaborator's job (see
// spec.md's Non-goals); this package only defines the immutable in-memory
// shape the Grid builds on, plus a minimal fixture loader for tests.
package catalog

import "fmt"

// Particles is a structure-of-arrays particle set: positions, weight, and
// tracer-class tag, one slot per particle. Immutable once constructed,
// matching the spec's "Particle... Immutable after load" data model.
//
// The SoA layout mirrors the teacher's mass-carrying particle pool
// (X, Y, Mass []float32 with a parallel Active []bool), generalized from
// 2D float32 to 3D float64 and from a dynamic pool to a fixed, sorted-once
// set.
type Particles struct {
	X, Y, Z []float64
	W       []float64
	Tracer  []int8
}

// Len returns the number of particles.
func (p *Particles) Len() int {
	return len(p.X)
}

// Pos returns the 3D position of particle i.
func (p *Particles) Pos(i int) [3]float64 {
	return [3]float64{p.X[i], p.Y[i], p.Z[i]}
}

// Validate checks internal consistency: all slices the same length, and
// every tracer tag is 1 or 2.
func (p *Particles) Validate() error {
	n := p.Len()
	for name, s := range map[string]int{"Y": len(p.Y), "Z": len(p.Z), "W": len(p.W), "Tracer": len(p.Tracer)} {
		if s != n {
			return fmt.Errorf("catalog: %s has length %d, want %d", name, s, n)
		}
	}
	for i, tag := range p.Tracer {
		if tag != 1 && tag != 2 {
			return fmt.Errorf("catalog: particle %d has invalid tracer tag %d", i, tag)
		}
	}
	return nil
}

// NewParticles allocates a Particles set with n empty slots.
func NewParticles(n int) Particles {
	return Particles{
		X:      make([]float64, n),
		Y:      make([]float64, n),
		Z:      make([]float64, n),
		W:      make([]float64, n),
		Tracer: make([]int8, n),
	}
}
