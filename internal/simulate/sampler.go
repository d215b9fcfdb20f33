// Package simulate implements the joint stochastic model of local sourcing
// cost, demand, and local supply, and draws Monte Carlo trial batches from
// it. One trial realizes the cost ratio, evaluates the demand and shortfall
// tail probabilities at the prepositioning level under study, and forms the
// cross term that feeds the marginal-savings formula.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sigmaun/prepo/pkg/constants"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidParameter marks distribution or sweep parameters the model is
// undefined for. Computations stop with it rather than emit NaN rows.
var ErrInvalidParameter = errors.New("simulate: invalid parameter")

// Source is the random stream the sampler consumes: always an explicit
// handle, never package-global state. *rand.PCG satisfies it.
type Source interface {
	rand.Source
	Seed(seed1, seed2 uint64)
}

// Item is the sampling view of one candidate item: the cost-ratio
// distribution plus the currency-scaled demand and local-supply models.
type Item struct {
	Name string

	CostRatioMean  float64
	CostRatioStdev float64
	CostRatioMin   float64
	CostRatioMax   float64

	DemandBase  float64
	DemandSlope float64
	DemandStdev float64

	SupplyZeroProb float64
	SupplyBase     float64
	SupplySlope    float64
	SupplyStdev    float64

	Correlation float64
}

// Validate rejects parameters the joint model is undefined for.
func (item Item) Validate() error {
	if item.CostRatioStdev <= 0 {
		return fmt.Errorf("%w: item %s cost ratio spread must be positive, got %v",
			ErrInvalidParameter, item.Name, item.CostRatioStdev)
	}
	if item.CostRatioMin > item.CostRatioMax {
		return fmt.Errorf("%w: item %s cost ratio bounds inverted, %v > %v",
			ErrInvalidParameter, item.Name, item.CostRatioMin, item.CostRatioMax)
	}
	if item.DemandStdev <= 0 {
		return fmt.Errorf("%w: item %s demand spread must be positive, got %v",
			ErrInvalidParameter, item.Name, item.DemandStdev)
	}
	if item.SupplyStdev <= 0 {
		return fmt.Errorf("%w: item %s supply spread must be positive, got %v",
			ErrInvalidParameter, item.Name, item.SupplyStdev)
	}
	return nil
}

// shortfallStdev returns the conditional shortfall spread, or an
// ErrInvalidParameter error when the correlation makes its variance
// negative. That condition is reachable from real calibrations and must be
// rejected, not clamped.
func (item Item) shortfallStdev() (float64, error) {
	radicand := item.DemandStdev*item.DemandStdev + item.SupplyStdev*item.SupplyStdev -
		2*item.Correlation*item.DemandStdev*item.SupplyStdev
	if radicand < 0 {
		return 0, fmt.Errorf("%w: item %s shortfall variance is negative (%v) for correlation %v",
			ErrInvalidParameter, item.Name, radicand, item.Correlation)
	}
	return math.Sqrt(radicand), nil
}

// Trial is one Monte Carlo draw at a given (item, level). Trials are
// ephemeral: a batch is generated, reduced to means, and dropped.
type Trial struct {
	CostRatio      float64 // realized local/prepo sourcing cost ratio
	CostPremium    float64 // max(ratio-1, 0), the premium paid for local sourcing
	DemandMean     float64 // conditional demand mean given the ratio
	DemandTail     float64 // P[demand > level]
	ShortfallMean  float64 // conditional shortfall mean; zero on zero-supply trials
	ShortfallStdev float64
	ShortfallTail  float64 // P[shortfall > level]
	CrossTerm      float64 // premium * (demand tail - shortfall tail)
}

// Sampler draws trial batches from one explicit random source.
type Sampler struct {
	src    Source
	logger *zap.Logger
}

// NewSampler creates a sampler that owns the given random source. If logger
// is nil, it will use a no-op logger to prevent panics. A nil source falls
// back to a fresh fixed-seed stream.
func NewSampler(src Source, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if src == nil {
		src = rand.NewPCG(constants.SampleSeed, 0)
	}
	return &Sampler{src: src, logger: logger}
}

// Sample draws n independent trials for one item at one prepositioning
// level. When reseed is true the source is reset to the fixed batch seed
// immediately beforehand, so every level's batch consumes an identical
// stream and level-to-level comparisons are not drowned by sampling noise.
// Each trial consumes exactly two draws regardless of the zero-supply
// branch, keeping reseeded batches aligned draw-for-draw across levels.
func (s *Sampler) Sample(item Item, level int, n int, reseed bool) ([]Trial, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: sample size must be at least 1, got %d", ErrInvalidParameter, n)
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	shortfallStdev, err := item.shortfallStdev()
	if err != nil {
		return nil, err
	}

	if reseed {
		s.src.Seed(constants.SampleSeed, 0)
	}

	// The truncated cost ratio is drawn by inverse CDF over the truncation
	// interval's probability mass.
	ratioLo := distuv.UnitNormal.CDF((item.CostRatioMin - item.CostRatioMean) / item.CostRatioStdev)
	ratioHi := distuv.UnitNormal.CDF((item.CostRatioMax - item.CostRatioMean) / item.CostRatioStdev)
	ratioDraw := distuv.Uniform{Min: ratioLo, Max: ratioHi, Src: s.src}
	zeroDraw := distuv.Uniform{Min: 0, Max: 1, Src: s.src}

	x := float64(level)
	trials := make([]Trial, n)
	for i := range trials {
		ratio := truncatedRatio(ratioDraw.Rand(), item)
		premium := math.Max(ratio-1, 0)

		demandMean := item.DemandBase + item.DemandSlope*ratio
		demandTail := distuv.Normal{Mu: demandMean, Sigma: item.DemandStdev}.Survival(x)

		trial := Trial{
			CostRatio:   ratio,
			CostPremium: premium,
			DemandMean:  demandMean,
			DemandTail:  demandTail,
		}

		if zeroDraw.Rand() < item.SupplyZeroProb {
			// No local supply this trial; the shortfall is the whole demand.
			trial.ShortfallTail = demandTail
		} else {
			supplyMean := item.SupplyBase + item.SupplySlope*ratio
			trial.ShortfallMean = demandMean - supplyMean
			trial.ShortfallStdev = shortfallStdev
			trial.ShortfallTail = survival(trial.ShortfallMean, shortfallStdev, x)
		}

		trial.CrossTerm = premium * (trial.DemandTail - trial.ShortfallTail)
		trials[i] = trial
	}

	s.logger.Debug("sampled trial batch",
		zap.String("op", "simulate.Sample"),
		zap.String("item", item.Name),
		zap.Int("level", level),
		zap.Int("trials", n),
		zap.Bool("reseed", reseed),
	)

	return trials, nil
}

// truncatedRatio maps a uniform draw from the truncation interval's CDF mass
// back through the normal quantile. The quantile can escape the interval by
// an ulp, or diverge when the interval mass underflows to a CDF tail, so the
// result is pinned to the truncation bounds.
func truncatedRatio(u float64, item Item) float64 {
	ratio := item.CostRatioMean + item.CostRatioStdev*distuv.UnitNormal.Quantile(u)
	if ratio < item.CostRatioMin {
		return item.CostRatioMin
	}
	if ratio > item.CostRatioMax {
		return item.CostRatioMax
	}
	return ratio
}

// survival is the normal survival function with a degenerate-spread case: a
// zero spread (correlation exactly one with equal spreads) collapses the
// shortfall to its mean, making the tail a step function.
func survival(mean, stdev, x float64) float64 {
	if stdev == 0 {
		if x < mean {
			return 1
		}
		return 0
	}
	return distuv.Normal{Mu: mean, Sigma: stdev}.Survival(x)
}
