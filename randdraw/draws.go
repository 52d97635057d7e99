// Package randdraw implements the biased cell-offset samplers the Monte
// Carlo integrator uses to propose partner/third/fourth particles: one
// distribution proportional to 1/r², one proportional to |ξ(r)|. Both
// return the ratio of the proposal probability to uniform sampling over
// the same support, which the accumulator divides out as an importance
// weight.
//
// Grounded on the teacher's systems/noise.go precompute-once-sample-many
// idiom (NewPerlinNoise builds a permutation table once; Noise3D walks it
// repeatedly) and its rand.New(rand.NewSource(seed)) construction
// (game/game.go, systems/particle_resource.go, systems/noise.go).
package randdraw

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/rascalc/xi"
)

// lattice enumerates every integer displacement within a cube of the
// given radius (Chebyshev distance <= maxR), in a fixed deterministic
// order so cumulative-weight tables are reproducible given a seed.
func lattice(maxR int) [][3]int {
	var deltas [][3]int
	for x := -maxR; x <= maxR; x++ {
		for y := -maxR; y <= maxR; y++ {
			for z := -maxR; z <= maxR; z++ {
				deltas = append(deltas, [3]int{x, y, z})
			}
		}
	}
	return deltas
}

// cumulativeSampler draws an index from a fixed discrete distribution via
// inverse-CDF binary search, and reports the probability ratio to uniform
// sampling over the same n-element support.
type cumulativeSampler struct {
	deltas [][3]int
	cum    []float64 // cumulative weight, cum[len-1] == total
	total  float64
}

func newCumulativeSampler(deltas [][3]int, weights []float64) *cumulativeSampler {
	cum := make([]float64, len(weights))
	running := 0.0
	for i, w := range weights {
		running += w
		cum[i] = running
	}
	return &cumulativeSampler{deltas: deltas, cum: cum, total: running}
}

func (s *cumulativeSampler) draw(rng *rand.Rand) (delta [3]int, p float64) {
	target := rng.Float64() * s.total
	idx := sort.SearchFloat64s(s.cum, target)
	if idx >= len(s.cum) {
		idx = len(s.cum) - 1
	}

	weight := s.cum[idx]
	if idx > 0 {
		weight -= s.cum[idx-1]
	}

	n := float64(len(s.deltas))
	proposalProb := weight / s.total
	uniformProb := 1.0 / n
	return s.deltas[idx], proposalProb / uniformProb
}

// CubeSampler draws cell displacements with probability proportional to
// 1/r² on the integer lattice within a finite radius, reflecting the
// 1/r² falloff typical of pair counts.
type CubeSampler struct {
	sampler *cumulativeSampler
}

// NewCubeSampler builds a CubeSampler over displacements with Chebyshev
// distance <= maxR. The zero displacement (same-cell draw) is assigned
// the same weight as unit separation, since 1/r² diverges at r=0.
func NewCubeSampler(maxR int) *CubeSampler {
	deltas := lattice(maxR)
	weights := make([]float64, len(deltas))
	for i, d := range deltas {
		r2 := float64(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
		if r2 == 0 {
			r2 = 1
		}
		weights[i] = 1.0 / r2
	}
	return &CubeSampler{sampler: newCumulativeSampler(deltas, weights)}
}

// Draw samples a displacement and returns the ratio of its 1/r² proposal
// probability to uniform sampling over the same support. p is guaranteed
// strictly positive for any displacement in the support.
func (c *CubeSampler) Draw(rng *rand.Rand) (delta [3]int, p float64) {
	return c.sampler.draw(rng)
}

// XiSampler draws cell displacements with probability proportional to
// |ξ(r)|, evaluated by table lookup against an already-tabulated
// correlation function. Separations outside the table's support, and
// separations where ξ evaluates to zero, fall back to a floor weight (the
// smallest nonzero |ξ| in the table, or 1e-6 if there is none), so every
// lattice point keeps strictly positive probability.
type XiSampler struct {
	sampler *cumulativeSampler
}

// NewXiSampler builds an XiSampler over displacements with Chebyshev
// distance <= maxR, weighted by |ξ(r * cellSize)|.
func NewXiSampler(table *xi.Table, cellSize float64, maxR int) *XiSampler {
	deltas := lattice(maxR)
	weights := make([]float64, len(deltas))

	floor := minPositiveXi(table)
	for i, d := range deltas {
		r := cellSize * vectorLen(d)
		value, ok := table.Eval(r)
		w := floor
		if ok {
			w = absf(value)
			if w == 0 {
				w = floor
			}
		}
		weights[i] = w
	}
	return &XiSampler{sampler: newCumulativeSampler(deltas, weights)}
}

// Draw samples a displacement and returns the ratio of its |ξ(r)|
// proposal probability to uniform sampling over the same support.
func (x *XiSampler) Draw(rng *rand.Rand) (delta [3]int, p float64) {
	return x.sampler.draw(rng)
}

func vectorLen(d [3]int) float64 {
	return math.Sqrt(float64(d[0]*d[0] + d[1]*d[1] + d[2]*d[2]))
}

func minPositiveXi(table *xi.Table) float64 {
	const fallback = 1e-6
	min := -1.0
	for _, row := range table.Xi {
		for _, v := range row {
			av := absf(v)
			if av > 0 && (min < 0 || av < min) {
				min = av
			}
		}
	}
	if min < 0 {
		return fallback
	}
	return min
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
