// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/sigmaun/prepo/internal/curve"
)

// FindCurve finds an item's savings curve by name in the results slice.
// Returns a pointer to the curve if found, nil otherwise.
func FindCurve(results []curve.Curve, item string) *curve.Curve {
	for i := range results {
		if results[i].Item == item {
			return &results[i]
		}
	}
	return nil
}

// FindPoint finds the point for a given prepositioning level within a curve.
// Returns a pointer to the point if found, nil otherwise.
func FindPoint(result *curve.Curve, level int) *curve.Point {
	if result == nil {
		return nil
	}
	for i := range result.Points {
		if result.Points[i].Level == level {
			return &result.Points[i]
		}
	}
	return nil
}
