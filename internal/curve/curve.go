// Package curve defines the data structures related to savings curves and
// includes functions for estimating them level by level.
package curve

import (
	"fmt"

	"github.com/sigmaun/prepo/internal/config"
	"github.com/sigmaun/prepo/internal/simulate"
	"github.com/sigmaun/prepo/pkg/adapters"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Point is one estimated row of an item's savings curve: the four
// trial-quantity means at a prepositioning level, and the marginal-value
// formula applied to them.
type Point struct {
	Item          string
	Level         int     // prepositioning investment, currency units
	CostPremium   float64 // E[max(ratio-1, 0)]
	DemandTail    float64 // E[P[demand > level]]
	ShortfallTail float64 // E[P[shortfall > level]]
	CrossTerm     float64 // E[premium * (demand tail - shortfall tail)]
	GrossSavings  float64 // (shortage multiplier - 1) * shortfall tail + cross term
	HoldingCost   float64 // holding rate * mean disaster interval, constant per item
	NetSavings    float64 // gross savings net of holding cost
}

// Curve holds one item's savings curve, ordered by ascending level.
type Curve struct {
	Item   string
	Points []Point
}

// NetRange returns the lowest and highest net savings on the curve.
func (c Curve) NetRange() (float64, float64) {
	if len(c.Points) == 0 {
		return 0, 0
	}

	min, max := c.Points[0].NetSavings, c.Points[0].NetSavings
	for _, point := range c.Points[1:] {
		if point.NetSavings < min {
			min = point.NetSavings
		}
		if point.NetSavings > max {
			max = point.NetSavings
		}
	}
	return min, max
}

// GetCurves estimates the savings curve for every calibrated item, in input
// order. The random source seeds one sampler shared across items; with
// reseeding enabled every (item, level) batch draws the same stream anyway.
func GetCurves(logger *zap.Logger, src simulate.Source, conf config.Configuration, calib config.Calibration) ([]Curve, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sampler := simulate.NewSampler(src, logger)

	var results []Curve
	for _, item := range calib.Items {
		result, err := ComputeCurve(logger, sampler, item, calib.MeanInterval, conf.Simulation)
		if err != nil {
			return results, fmt.Errorf("item %s: %w", item.Name, err)
		}

		logger.Info("computed savings curve",
			zap.String("op", "curve.GetCurves"),
			zap.String("item", item.Name),
			zap.Int("points", len(result.Points)),
		)
		results = append(results, result)
	}

	return results, nil
}

// ComputeCurve sweeps the prepositioning level for one item and reduces each
// level's trial batch to a curve point. With reseeding on, repeated calls
// reproduce bit-identical curves.
func ComputeCurve(logger *zap.Logger, sampler *simulate.Sampler, item config.ItemParameters, meanInterval float64, sim config.SimulationConfig) (Curve, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sim.LevelStep < 1 {
		return Curve{}, fmt.Errorf("%w: sweep level step must be at least 1, got %d",
			simulate.ErrInvalidParameter, sim.LevelStep)
	}
	if sim.MinLevel > sim.MaxLevel {
		return Curve{}, fmt.Errorf("%w: sweep minimum level %d exceeds maximum level %d",
			simulate.ErrInvalidParameter, sim.MinLevel, sim.MaxLevel)
	}

	model := adapters.ItemModel(item)
	holdingCost := item.HoldingRate * meanInterval

	result := Curve{Item: item.Name}
	for level := sim.MinLevel; level <= sim.MaxLevel; level += sim.LevelStep {
		trials, err := sampler.Sample(model, level, sim.Samples, sim.ReseedEnabled())
		if err != nil {
			return Curve{}, err
		}

		point := reducePoint(item.Name, level, trials, item.ShortageMultiplier, holdingCost)
		result.Points = append(result.Points, point)

		logger.Debug("estimated savings point",
			zap.String("op", "curve.ComputeCurve"),
			zap.String("item", item.Name),
			zap.Int("level", level),
			zap.Float64("netSavings", point.NetSavings),
		)
	}

	return result, nil
}

// reducePoint averages a trial batch and applies the marginal-value formula.
func reducePoint(item string, level int, trials []simulate.Trial, shortageMultiplier, holdingCost float64) Point {
	premiums := make([]float64, len(trials))
	demandTails := make([]float64, len(trials))
	shortfallTails := make([]float64, len(trials))
	crossTerms := make([]float64, len(trials))
	for i, trial := range trials {
		premiums[i] = trial.CostPremium
		demandTails[i] = trial.DemandTail
		shortfallTails[i] = trial.ShortfallTail
		crossTerms[i] = trial.CrossTerm
	}

	point := Point{
		Item:          item,
		Level:         level,
		CostPremium:   stat.Mean(premiums, nil),
		DemandTail:    stat.Mean(demandTails, nil),
		ShortfallTail: stat.Mean(shortfallTails, nil),
		CrossTerm:     stat.Mean(crossTerms, nil),
		HoldingCost:   holdingCost,
	}
	point.GrossSavings = (shortageMultiplier-1)*point.ShortfallTail + point.CrossTerm
	point.NetSavings = point.GrossSavings - point.HoldingCost
	return point
}
