package validation

import "fmt"

// ValidateSupplyZeroProb warns when the zero-supply probability lies outside
// [0, 1]; the sampling model clamps it rather than failing.
func ValidateSupplyZeroProb(itemName string, zeroProb float64) string {
	if zeroProb < 0 || zeroProb > 1 {
		return fmt.Sprintf("Item '%s' has zero-supply probability %v outside [0, 1] - value will be clamped",
			itemName, zeroProb)
	}
	return ""
}

// ValidateShortfallSpread warns when the demand/supply spreads and
// correlation make the shortfall variance negative; sampling rejects such
// items, so surfacing it at load time saves a wasted run.
func ValidateShortfallSpread(itemName string, demandStdev, supplyStdev, correlation float64) string {
	radicand := demandStdev*demandStdev + supplyStdev*supplyStdev - 2*correlation*demandStdev*supplyStdev
	if radicand < 0 {
		return fmt.Sprintf("Item '%s' has negative shortfall variance (spreads %v/%v, correlation %v) - sampling will fail",
			itemName, demandStdev, supplyStdev, correlation)
	}
	return ""
}

// CalibrationValidator performs calibration and sweep validation
type CalibrationValidator struct {
	Sweep        SweepInfo
	Items        []ItemInfo
	MeanInterval float64
}

// SweepInfo represents sweep configuration information
type SweepInfo struct {
	MinLevel  int
	MaxLevel  int
	LevelStep int
}

// ItemInfo represents item calibration information
type ItemInfo struct {
	Name           string
	MeanInterval   float64
	SupplyZeroProb float64
	DemandStdev    float64
	SupplyStdev    float64
	Correlation    float64
}

// ValidateAll validates the entire calibration and returns warnings
func (cv *CalibrationValidator) ValidateAll() []string {
	var warnings []string

	seen := make(map[string]bool)
	for i, item := range cv.Items {
		if seen[item.Name] {
			warnings = append(warnings, fmt.Sprintf("Item '%s' appears more than once - curves will share the same label", item.Name))
		}
		seen[item.Name] = true

		if warning := ValidateSupplyZeroProb(item.Name, item.SupplyZeroProb); warning != "" {
			warnings = append(warnings, warning)
		}

		if warning := ValidateShortfallSpread(item.Name, item.DemandStdev, item.SupplyStdev, item.Correlation); warning != "" {
			warnings = append(warnings, warning)
		}

		// Only the first row's disaster interval is consumed.
		if i > 0 && item.MeanInterval != cv.MeanInterval {
			warnings = append(warnings, fmt.Sprintf("Item '%s' sets mean disaster interval %v but the run uses %v from the first row",
				item.Name, item.MeanInterval, cv.MeanInterval))
		}
	}

	if cv.Sweep.LevelStep > 0 && cv.Sweep.MinLevel <= cv.Sweep.MaxLevel {
		if cv.Sweep.MinLevel == cv.Sweep.MaxLevel {
			warnings = append(warnings, fmt.Sprintf("Sweep covers the single level %d - curves cannot be aggregated", cv.Sweep.MinLevel))
		} else if cv.Sweep.MinLevel+cv.Sweep.LevelStep > cv.Sweep.MaxLevel {
			warnings = append(warnings, fmt.Sprintf("Sweep step %d exceeds the range %d-%d - only one level will be computed",
				cv.Sweep.LevelStep, cv.Sweep.MinLevel, cv.Sweep.MaxLevel))
		}
	}

	return warnings
}
