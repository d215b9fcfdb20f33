// Package adapters provides adapter implementations between different package interfaces.
package adapters

import (
	"github.com/sigmaun/prepo/internal/config"
	"github.com/sigmaun/prepo/internal/simulate"
	"github.com/sigmaun/prepo/pkg/mathutil"
)

// ItemModel converts a calibrated item record into its sampling model.
// Demand and supply parameters are expressed per natural unit in the
// calibration table and scale by the unit cost into currency units here;
// the zero-supply probability clamps to [0, 1].
func ItemModel(item config.ItemParameters) simulate.Item {
	return simulate.Item{
		Name:           item.Name,
		CostRatioMean:  item.CostRatioMean,
		CostRatioStdev: item.CostRatioStdev,
		CostRatioMin:   item.CostRatioMin,
		CostRatioMax:   item.CostRatioMax,
		DemandBase:     item.DemandBase * item.UnitCost,
		DemandSlope:    item.DemandSlope * item.UnitCost,
		DemandStdev:    item.DemandStdev * item.UnitCost,
		SupplyZeroProb: mathutil.Min(mathutil.Max(0, item.SupplyZeroProb), 1),
		SupplyBase:     item.SupplyBase * item.UnitCost,
		SupplySlope:    item.SupplySlope * item.UnitCost,
		SupplyStdev:    item.SupplyStdev * item.UnitCost,
		Correlation:    item.Correlation,
	}
}

// ItemModels converts calibration item records to sampling models in input order.
func ItemModels(items []config.ItemParameters) []simulate.Item {
	if items == nil {
		return nil
	}

	models := make([]simulate.Item, 0, len(items))
	for _, item := range items {
		models = append(models, ItemModel(item))
	}
	return models
}
