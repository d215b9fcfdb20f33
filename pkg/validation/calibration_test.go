package validation

import (
	"strings"
	"testing"
)

func TestValidateSupplyZeroProb(t *testing.T) {
	tests := []struct {
		name        string
		prob        float64
		wantWarning bool
	}{
		{
			name:        "Probability inside unit interval",
			prob:        0.3,
			wantWarning: false,
		},
		{
			name:        "Zero boundary",
			prob:        0,
			wantWarning: false,
		},
		{
			name:        "One boundary",
			prob:        1,
			wantWarning: false,
		},
		{
			name:        "Negative probability",
			prob:        -0.1,
			wantWarning: true,
		},
		{
			name:        "Probability above one",
			prob:        1.2,
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateSupplyZeroProb("blankets", tt.prob)

			if tt.wantWarning && warning == "" {
				t.Errorf("ValidateSupplyZeroProb(%v) expected warning but got none", tt.prob)
			}
			if !tt.wantWarning && warning != "" {
				t.Errorf("ValidateSupplyZeroProb(%v) unexpected warning: %s", tt.prob, warning)
			}
			if tt.wantWarning && !strings.Contains(warning, "blankets") {
				t.Errorf("ValidateSupplyZeroProb(%v) warning should name the item: %s", tt.prob, warning)
			}
		})
	}
}

func TestValidateShortfallSpread(t *testing.T) {
	tests := []struct {
		name        string
		demandStdev float64
		supplyStdev float64
		correlation float64
		wantWarning bool
	}{
		{
			name:        "Independent spreads",
			demandStdev: 20,
			supplyStdev: 15,
			correlation: 0,
			wantWarning: false,
		},
		{
			name:        "Full correlation with equal spreads is degenerate but valid",
			demandStdev: 20,
			supplyStdev: 20,
			correlation: 1,
			wantWarning: false,
		},
		{
			name:        "Correlation above one turns the variance negative",
			demandStdev: 20,
			supplyStdev: 15,
			correlation: 2,
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateShortfallSpread("blankets", tt.demandStdev, tt.supplyStdev, tt.correlation)

			if tt.wantWarning && warning == "" {
				t.Errorf("ValidateShortfallSpread() expected warning but got none")
			}
			if !tt.wantWarning && warning != "" {
				t.Errorf("ValidateShortfallSpread() unexpected warning: %s", warning)
			}
		})
	}
}

func validValidator() CalibrationValidator {
	return CalibrationValidator{
		Sweep: SweepInfo{MinLevel: 0, MaxLevel: 200, LevelStep: 50},
		Items: []ItemInfo{
			{Name: "blankets", MeanInterval: 10, SupplyZeroProb: 0.3, DemandStdev: 20, SupplyStdev: 15},
			{Name: "water", MeanInterval: 10, SupplyZeroProb: 0.1, DemandStdev: 12, SupplyStdev: 10},
		},
		MeanInterval: 10,
	}
}

func TestValidateAllCleanCalibration(t *testing.T) {
	validator := validValidator()

	warnings := validator.ValidateAll()
	if len(warnings) != 0 {
		t.Errorf("ValidateAll() on clean calibration returned warnings: %v", warnings)
	}
}

func TestValidateAllWarnings(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*CalibrationValidator)
		wantWarning string
	}{
		{
			name: "Duplicate item names",
			mutate: func(cv *CalibrationValidator) {
				cv.Items[1].Name = "blankets"
			},
			wantWarning: "appears more than once",
		},
		{
			name: "Zero-supply probability outside unit interval",
			mutate: func(cv *CalibrationValidator) {
				cv.Items[0].SupplyZeroProb = 1.4
			},
			wantWarning: "will be clamped",
		},
		{
			name: "Negative shortfall variance",
			mutate: func(cv *CalibrationValidator) {
				cv.Items[1].Correlation = 3
			},
			wantWarning: "sampling will fail",
		},
		{
			name: "Later row sets a different disaster interval",
			mutate: func(cv *CalibrationValidator) {
				cv.Items[1].MeanInterval = 25
			},
			wantWarning: "the run uses 10 from the first row",
		},
		{
			name: "Single-level sweep",
			mutate: func(cv *CalibrationValidator) {
				cv.Sweep.MinLevel, cv.Sweep.MaxLevel = 100, 100
			},
			wantWarning: "single level",
		},
		{
			name: "Step wider than the sweep range",
			mutate: func(cv *CalibrationValidator) {
				cv.Sweep.LevelStep = 500
			},
			wantWarning: "only one level will be computed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := validValidator()
			tt.mutate(&validator)

			warnings := validator.ValidateAll()
			found := false
			for _, warning := range warnings {
				if strings.Contains(warning, tt.wantWarning) {
					found = true
				}
			}
			if !found {
				t.Errorf("ValidateAll() = %v, expected a warning containing %q", warnings, tt.wantWarning)
			}
		})
	}
}

func TestValidateAllFirstRowIntervalNotFlagged(t *testing.T) {
	// The first row defines the run interval, so it can never conflict with
	// itself even when later rows agree with it.
	validator := validValidator()
	validator.Items = validator.Items[:1]

	warnings := validator.ValidateAll()
	for _, warning := range warnings {
		if strings.Contains(warning, "mean disaster interval") {
			t.Errorf("ValidateAll() flagged the first row's interval: %s", warning)
		}
	}
}

func TestValidateAllEmptyItems(t *testing.T) {
	validator := CalibrationValidator{
		Sweep: SweepInfo{MinLevel: 0, MaxLevel: 200, LevelStep: 50},
	}

	warnings := validator.ValidateAll()
	if len(warnings) != 0 {
		t.Errorf("ValidateAll() with no items returned warnings: %v", warnings)
	}
}
