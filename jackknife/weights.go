// Package jackknife supplies per-(bin, region) jackknife weights and the
// precomputed bin-pair product-weight tables the four-point kernel needs.
// Computing the weights themselves from a region partition is an external
// collaborator's job; this package stores and combines already-computed
// weights.
//
// Grounded on the teacher's telemetry/collector.go windowed accumulation
// pattern: values are aggregated along one dimension (there, a tick
// window; here, a jackknife region) and folded down via a simple sum.
package jackknife

import "sync"

// Weights holds per-region, per-bin weights: W[region][bin].
type Weights struct {
	W [][]float64
}

// NBins returns the number of bins.
func (w *Weights) NBins() int {
	if len(w.W) == 0 {
		return 0
	}
	return len(w.W[0])
}

// NRegions returns the number of jackknife regions.
func (w *Weights) NRegions() int {
	return len(w.W)
}

// productCache memoizes ProductTable results by the pointer identity of
// the (a, b) pair: §4.4 requires that when tracer indices imply
// (1,2)=(3,4), the driver reuse the already-stored product table rather
// than recomputing it.
type productCache struct {
	mu    sync.Mutex
	cache map[productKey][][]float64
}

type productKey struct {
	a, b *Weights
}

var globalCache = &productCache{cache: make(map[productKey][][]float64)}

// ProductTable computes (or returns the memoized) outer-product table
// between two region-weight sets: table[b1][b2] = Σ_regions a.W[region][b1]
// * b.W[region][b2]. Both a and b must have the same NRegions().
func ProductTable(a, b *Weights) [][]float64 {
	key := productKey{a, b}

	globalCache.mu.Lock()
	if cached, ok := globalCache.cache[key]; ok {
		globalCache.mu.Unlock()
		return cached
	}
	globalCache.mu.Unlock()

	nbinsA := a.NBins()
	nbinsB := b.NBins()
	table := make([][]float64, nbinsA)
	for i := range table {
		table[i] = make([]float64, nbinsB)
	}

	nregions := a.NRegions()
	for region := 0; region < nregions; region++ {
		rowA := a.W[region]
		rowB := b.W[region]
		for b1, wa := range rowA {
			if wa == 0 {
				continue
			}
			for b2, wb := range rowB {
				table[b1][b2] += wa * wb
			}
		}
	}

	globalCache.mu.Lock()
	globalCache.cache[key] = table
	globalCache.mu.Unlock()

	return table
}

// ResetCache clears the memoized product tables. Exposed for tests; a
// long-running process has no reason to call this since Weights instances
// are immutable once built.
func ResetCache() {
	globalCache.mu.Lock()
	globalCache.cache = make(map[productKey][][]float64)
	globalCache.mu.Unlock()
}
