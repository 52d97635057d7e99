// Package grid partitions a catalog of particles into a uniform 3D cell
// grid, and answers the cell-coordinate arithmetic and random-particle-draw
// queries the Monte Carlo sampler needs.
//
// Grounded on the teacher's systems/spatial.go SpatialGrid: a cell-size,
// world-size, toroidal-wrap spatial index over entities. This generalizes
// that runtime-mutable bucket grid into the spec's immutable,
// contiguous-particle-array grid: particles are sorted into cell order
// once at Build time rather than inserted per tick.
package grid

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/pthm-cable/rascalc/catalog"
)

// Cell is an immutable (start, count) span into the grid's sorted particle
// array, plus per-tracer partition counts and the cell's cubic coordinate.
type Cell struct {
	Start, Count int
	NP1, NP2     int // particle counts by tracer partition within this cell
	Coord        [3]int
}

// NP returns the total particle count in the cell.
func (c Cell) NP() int {
	return c.Count
}

// Grid is a uniform 3D partition of a particle set, which may hold both
// tracer partitions (counted per cell in NP1/NP2). Immutable after Build.
type Grid struct {
	cells      []Cell
	particles  catalog.Particles // reordered into cell-contiguous order
	dims       [3]int
	filled     []int // 1D ids of cells with Count > 0
	cellSize   float64
	periodic   bool
	boxSize    [3]float64
	norm       float64 // total particle weight
	maxNP      int
	np1, np2   int // grid-wide tracer partition totals
}

// Build partitions particles into a uniform grid of the given cell size
// over a box of boxSize, optionally with periodic (wrapping) topology.
func Build(particles catalog.Particles, cellSize float64, periodic bool, boxSize [3]float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("grid: cellSize must be positive, got %v", cellSize)
	}
	if err := particles.Validate(); err != nil {
		return nil, err
	}

	var dims [3]int
	for d := 0; d < 3; d++ {
		if boxSize[d] <= 0 {
			return nil, fmt.Errorf("grid: boxSize[%d] must be positive, got %v", d, boxSize[d])
		}
		dims[d] = int(boxSize[d]/cellSize) + 1
	}

	n := particles.Len()
	coordOf := make([][3]int, n)
	cellIDOf := make([]int, n)
	for i := 0; i < n; i++ {
		coord := cellCoord(particles.Pos(i), cellSize, dims)
		coordOf[i] = coord
		cellIDOf[i] = id1From3(coord, dims)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cellIDOf[order[a]] < cellIDOf[order[b]]
	})

	sorted := catalog.NewParticles(n)
	for newIdx, oldIdx := range order {
		sorted.X[newIdx] = particles.X[oldIdx]
		sorted.Y[newIdx] = particles.Y[oldIdx]
		sorted.Z[newIdx] = particles.Z[oldIdx]
		sorted.W[newIdx] = particles.W[oldIdx]
		sorted.Tracer[newIdx] = particles.Tracer[oldIdx]
	}

	ncells := dims[0] * dims[1] * dims[2]
	cells := make([]Cell, ncells)
	for c := range cells {
		cells[c].Coord = id3From1(c, dims)
	}

	var norm float64
	var gridNP1, gridNP2 int
	maxNP := 0
	pos := 0
	for pos < n {
		start := pos
		cellID := cellIDOf[order[pos]]
		np1, np2 := 0, 0
		for pos < n && cellIDOf[order[pos]] == cellID {
			norm += sorted.W[pos]
			if sorted.Tracer[pos] == 1 {
				np1++
				gridNP1++
			} else {
				np2++
				gridNP2++
			}
			pos++
		}
		count := pos - start
		cells[cellID].Start = start
		cells[cellID].Count = count
		cells[cellID].NP1 = np1
		cells[cellID].NP2 = np2
		if count > maxNP {
			maxNP = count
		}
	}

	filled := make([]int, 0, len(cells))
	for id, c := range cells {
		if c.Count > 0 {
			filled = append(filled, id)
		}
	}

	return &Grid{
		cells:     cells,
		particles: sorted,
		dims:      dims,
		filled:    filled,
		cellSize:  cellSize,
		periodic:  periodic,
		boxSize:   boxSize,
		norm:      norm,
		maxNP:     maxNP,
		np1:       gridNP1,
		np2:       gridNP2,
	}, nil
}

func cellCoord(pos [3]float64, cellSize float64, dims [3]int) [3]int {
	var c [3]int
	for d := 0; d < 3; d++ {
		idx := int(pos[d] / cellSize)
		if idx < 0 {
			idx = 0
		} else if idx >= dims[d] {
			idx = dims[d] - 1
		}
		c[d] = idx
	}
	return c
}

func id1From3(c [3]int, dims [3]int) int {
	return c[0] + dims[0]*(c[1]+dims[1]*c[2])
}

func id3From1(id1 int, dims [3]int) [3]int {
	x := id1 % dims[0]
	rest := id1 / dims[0]
	y := rest % dims[1]
	z := rest / dims[1]
	return [3]int{x, y, z}
}

// TestCell returns the 1D cell index for a 3D cell coordinate, and false
// (the "not in grid" sentinel) if the coordinate lies outside the grid's
// bounds.
func (g *Grid) TestCell(id3 [3]int) (id1 int, ok bool) {
	for d := 0; d < 3; d++ {
		if id3[d] < 0 || id3[d] >= g.dims[d] {
			return 0, false
		}
	}
	return id1From3(id3, g.dims), true
}

// CellIDFrom1D returns the 3D cell coordinate for a 1D cell index.
func (g *Grid) CellIDFrom1D(id1 int) [3]int {
	return id3From1(id1, g.dims)
}

// CellSep returns the spatial displacement corresponding to a
// cell-coordinate delta. Under periodic geometry this wraps to the
// shortest image, matching the teacher's ToroidalDelta; under
// non-periodic geometry it is the raw offset.
func (g *Grid) CellSep(delta [3]int) [3]float64 {
	var sep [3]float64
	for d := 0; d < 3; d++ {
		dd := delta[d]
		if g.periodic {
			half := g.dims[d] / 2
			if dd > half {
				dd -= g.dims[d]
			} else if dd < -half {
				dd += g.dims[d]
			}
		}
		sep[d] = float64(dd) * g.cellSize
	}
	return sep
}

// Filled returns the 1D id of the n-th nonempty cell.
func (g *Grid) Filled(n int) int {
	return g.filled[n]
}

// NFilled returns the number of nonempty cells.
func (g *Grid) NFilled() int {
	return len(g.filled)
}

// Cell returns the cell at the given 1D index.
func (g *Grid) Cell(id1 int) Cell {
	return g.cells[id1]
}

// Particles returns the grid's particle array, sorted into cell order.
func (g *Grid) Particles() *catalog.Particles {
	return &g.particles
}

// NP returns the total particle count in the grid.
func (g *Grid) NP() int {
	return g.particles.Len()
}

// NP1 returns the grid-wide particle count for tracer partition 1.
func (g *Grid) NP1() int {
	return g.np1
}

// NP2 returns the grid-wide particle count for tracer partition 2.
func (g *Grid) NP2() int {
	return g.np2
}

// MaxNP returns the maximum particle count in any single cell, used to
// size per-thread scratch buffers.
func (g *Grid) MaxNP() int {
	return g.maxNP
}

// Norm returns the total particle weight in the grid.
func (g *Grid) Norm() float64 {
	return g.norm
}

// DrawParticle draws a uniformly random particle index from the named
// cell. ok is false if the cell is empty (or out of range).
func (g *Grid) DrawParticle(rng *rand.Rand, cellID1 int) (particleIndex int, ok bool) {
	if cellID1 < 0 || cellID1 >= len(g.cells) {
		return 0, false
	}
	c := g.cells[cellID1]
	if c.Count == 0 {
		return 0, false
	}
	return c.Start + rng.Intn(c.Count), true
}
