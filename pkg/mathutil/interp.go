// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"
	"sort"
)

// Interp evaluates the piecewise-linear interpolant through the points
// (xs[i], ys[i]) at q. xs must be sorted ascending. Queries outside
// [xs[0], xs[len-1]] clamp to the corresponding endpoint value. With an
// empty xs the result is NaN.
func Interp(q float64, xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return math.NaN()
	}
	if q <= xs[0] {
		return ys[0]
	}
	if q >= xs[n-1] {
		return ys[n-1]
	}

	// Smallest i with xs[i] >= q; the guards above ensure 0 < i < n.
	i := sort.SearchFloat64s(xs, q)
	if xs[i] == q {
		return ys[i]
	}

	t := (q - xs[i-1]) / (xs[i] - xs[i-1])
	return ys[i-1] + t*(ys[i]-ys[i-1])
}
