// Package aggregate combines per-item savings curves into one
// prepositioning spend schedule over their common savings range.
package aggregate

import (
	"sort"

	"github.com/sigmaun/prepo/internal/curve"
	"github.com/sigmaun/prepo/pkg/mathutil"
	"go.uber.org/zap"
)

// Level is one row of the combined schedule: the total prepositioning spend
// across all items at a common net marginal savings value.
type Level struct {
	NetSavings float64
	TotalSpend float64
}

// Schedule is the combined spend schedule, ordered by ascending net savings.
type Schedule []Level

// Combine intersects the curves' net-savings ranges and, by inverse linear
// interpolation, sums the spend every item needs to reach each common
// savings value. The boolean is false when the ranges share no interior
// overlap - an expected outcome that calls for a wider level sweep, not an
// error.
//
// Interpolation assumes each curve's net savings is monotone in spend; when
// sampling noise breaks monotonicity, the (savings, spend) pairs are still
// sorted by savings and interpolated in that order.
func Combine(logger *zap.Logger, curves []curve.Curve) (Schedule, bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(curves) == 0 {
		return nil, false
	}

	lo, hi := curves[0].NetRange()
	for _, c := range curves[1:] {
		curveLo, curveHi := c.NetRange()
		lo = mathutil.Max(lo, curveLo)
		hi = mathutil.Min(hi, curveHi)
	}
	if lo >= hi {
		logger.Info("savings curves share no common range; widen the level sweep",
			zap.String("op", "aggregate.Combine"),
			zap.Float64("lowerBound", lo),
			zap.Float64("upperBound", hi),
		)
		return nil, false
	}

	// Distinct net savings values inside the overlap, across all curves.
	seen := make(map[float64]bool)
	var values []float64
	for _, c := range curves {
		for _, point := range c.Points {
			m := point.NetSavings
			if m < lo || m > hi || seen[m] {
				continue
			}
			seen[m] = true
			values = append(values, m)
		}
	}
	sort.Float64s(values)

	schedule := make(Schedule, len(values))
	for i, m := range values {
		schedule[i].NetSavings = m
	}
	for _, c := range curves {
		savings, spend := sortedBySavings(c)
		for i, m := range values {
			schedule[i].TotalSpend += mathutil.Interp(m, savings, spend)
		}
	}

	logger.Info("aggregated savings curves",
		zap.String("op", "aggregate.Combine"),
		zap.Int("curves", len(curves)),
		zap.Int("levels", len(schedule)),
		zap.Float64("lowerBound", lo),
		zap.Float64("upperBound", hi),
	)

	return schedule, true
}

// sortedBySavings returns one curve's (net savings, spend) pairs ordered by
// ascending savings, the orientation the interpolation requires.
func sortedBySavings(c curve.Curve) ([]float64, []float64) {
	points := make([]curve.Point, len(c.Points))
	copy(points, c.Points)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].NetSavings < points[j].NetSavings
	})

	savings := make([]float64, len(points))
	spend := make([]float64, len(points))
	for i, point := range points {
		savings[i] = point.NetSavings
		spend[i] = float64(point.Level)
	}
	return savings, spend
}
