// Package interp provides the small table-lookup helpers shared by xi.Table
// and surveycorr.Table: bracket a query value in a sorted slice, then blend
// linearly between the two bracketing samples.
package interp

// Lerp blends linearly between a and b by fraction t in [0, 1].
func Lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// BinarySearchBracket finds the index lo such that xs[lo] <= x < xs[lo+1],
// and returns the fraction of x between xs[lo] and xs[lo+1]. ok is false
// if x falls outside [xs[0], xs[len(xs)-1]).
func BinarySearchBracket(xs []float64, x float64) (lo int, frac float64, ok bool) {
	n := len(xs)
	if n < 2 || x < xs[0] || x >= xs[n-1] {
		return 0, 0, false
	}

	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}

	span := xs[lo+1] - xs[lo]
	if span <= 0 {
		return lo, 0, true
	}
	return lo, (x - xs[lo]) / span, true
}
