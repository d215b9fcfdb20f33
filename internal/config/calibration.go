package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Calibration column order. The input table is positional: header names are
// checked, but it is the order below that defines the contract.
const (
	colItem = iota
	colMeanInterval
	colHoldingRate
	colShortageMultiplier
	colUnitCost
	colCostRatioMean
	colCostRatioStdev
	colCostRatioMin
	colCostRatioMax
	colDemandBase
	colDemandSlope
	colDemandStdev
	colSupplyZeroProb
	colSupplyBase
	colSupplySlope
	colSupplyStdev
	colCorrelation
)

var calibrationColumns = []string{
	"item", "m_T", "h", "v", "c",
	"mean_a", "stdev_a", "min_a", "max_a",
	"m_D", "a_D", "stdev_D",
	"Q0", "m_Q", "a_Q", "stdev_Q",
	"rho",
}

// ItemParameters holds the calibrated model for one candidate relief-supply
// item, immutable once loaded. Demand and supply parameters are expressed
// per natural unit here; the sampling model scales them by UnitCost into
// currency units.
type ItemParameters struct {
	Name string

	// MeanInterval is this row's mean time between disaster events. Only
	// the first row's value is consumed for a run; see Calibration.
	MeanInterval float64

	HoldingRate        float64 // holding cost rate per unit of investment per interval
	ShortageMultiplier float64 // cost multiplier applied to unmet demand
	UnitCost           float64 // prepositioned cost per natural unit

	CostRatioMean  float64 // local-to-prepo sourcing cost ratio, normal mean
	CostRatioStdev float64
	CostRatioMin   float64 // truncation bounds on the cost ratio
	CostRatioMax   float64

	DemandBase  float64 // demand mean intercept
	DemandSlope float64 // demand mean slope in the cost ratio
	DemandStdev float64

	SupplyZeroProb float64 // probability local supply is exactly zero
	SupplyBase     float64 // supply mean intercept
	SupplySlope    float64 // supply mean slope in the cost ratio
	SupplyStdev    float64

	Correlation float64 // demand/supply noise correlation
}

// Validate rejects parameter combinations the model is undefined for.
func (item ItemParameters) Validate() error {
	if item.Name == "" {
		return fmt.Errorf("item name must not be empty")
	}
	if item.UnitCost <= 0 {
		return fmt.Errorf("item %s: unit cost must be positive, got %v", item.Name, item.UnitCost)
	}
	if item.HoldingRate <= 0 {
		return fmt.Errorf("item %s: holding rate must be positive, got %v", item.Name, item.HoldingRate)
	}
	if item.ShortageMultiplier <= 1 {
		return fmt.Errorf("item %s: shortage multiplier must exceed 1, got %v", item.Name, item.ShortageMultiplier)
	}
	if item.CostRatioStdev <= 0 {
		return fmt.Errorf("item %s: cost ratio spread must be positive, got %v", item.Name, item.CostRatioStdev)
	}
	if item.CostRatioMin > item.CostRatioMax {
		return fmt.Errorf("item %s: cost ratio bounds inverted, %v > %v", item.Name, item.CostRatioMin, item.CostRatioMax)
	}
	if item.CostRatioMean < item.CostRatioMin || item.CostRatioMean > item.CostRatioMax {
		return fmt.Errorf("item %s: cost ratio mean %v outside bounds [%v, %v]",
			item.Name, item.CostRatioMean, item.CostRatioMin, item.CostRatioMax)
	}
	if item.DemandStdev <= 0 {
		return fmt.Errorf("item %s: demand spread must be positive, got %v", item.Name, item.DemandStdev)
	}
	if item.SupplyStdev <= 0 {
		return fmt.Errorf("item %s: supply spread must be positive, got %v", item.Name, item.SupplyStdev)
	}
	if item.Correlation < -1 || item.Correlation > 1 {
		return fmt.Errorf("item %s: correlation must lie in [-1, 1], got %v", item.Name, item.Correlation)
	}
	return nil
}

// Calibration holds the item table for one run.
//
// MeanInterval is taken only from the first item row; every other row's
// value is ignored. That quirk is part of the input contract, not a bug to
// fix. Inter-disaster times are nominally exponential with this mean, but
// the distribution is never sampled: only the mean enters the holding-cost
// constant.
type Calibration struct {
	Items        []ItemParameters
	MeanInterval float64
}

// LoadCalibration loads the CSV-formatted item table at the given path.
func LoadCalibration(path string) (*Calibration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration table: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	calib, err := LoadCalibrationFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("calibration table %s: %w", path, err)
	}
	return calib, nil
}

// LoadCalibrationFromReader parses an item table from r. The table must
// carry the header row and one row per item.
func LoadCalibrationFromReader(r io.Reader) (*Calibration, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("calibration table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration header: %w", err)
	}
	if err := checkCalibrationHeader(header); err != nil {
		return nil, err
	}

	calib := &Calibration{}
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read calibration row %d: %w", row, err)
		}

		item, err := parseItemRow(record, row)
		if err != nil {
			return nil, err
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		calib.Items = append(calib.Items, item)
		row++
	}

	if len(calib.Items) == 0 {
		return nil, fmt.Errorf("calibration table has no item rows")
	}

	calib.MeanInterval = calib.Items[0].MeanInterval
	if calib.MeanInterval <= 0 {
		return nil, fmt.Errorf("mean disaster interval must be positive, got %v", calib.MeanInterval)
	}

	return calib, nil
}

func checkCalibrationHeader(header []string) error {
	if len(header) != len(calibrationColumns) {
		return fmt.Errorf("calibration header has %d columns, expected %d", len(header), len(calibrationColumns))
	}
	for i, name := range calibrationColumns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return fmt.Errorf("calibration header column %d is %q, expected %q", i, strings.TrimSpace(header[i]), name)
		}
	}
	return nil
}

func parseItemRow(record []string, row int) (ItemParameters, error) {
	if len(record) != len(calibrationColumns) {
		return ItemParameters{}, fmt.Errorf("row %d has %d columns, expected %d", row, len(record), len(calibrationColumns))
	}

	values := make([]float64, len(calibrationColumns))
	for i := colMeanInterval; i <= colCorrelation; i++ {
		raw := strings.TrimSpace(record[i])
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ItemParameters{}, fmt.Errorf("row %d: invalid %s value %q: %w", row, calibrationColumns[i], raw, err)
		}
		values[i] = val
	}

	return ItemParameters{
		Name:               strings.TrimSpace(record[colItem]),
		MeanInterval:       values[colMeanInterval],
		HoldingRate:        values[colHoldingRate],
		ShortageMultiplier: values[colShortageMultiplier],
		UnitCost:           values[colUnitCost],
		CostRatioMean:      values[colCostRatioMean],
		CostRatioStdev:     values[colCostRatioStdev],
		CostRatioMin:       values[colCostRatioMin],
		CostRatioMax:       values[colCostRatioMax],
		DemandBase:         values[colDemandBase],
		DemandSlope:        values[colDemandSlope],
		DemandStdev:        values[colDemandStdev],
		SupplyZeroProb:     values[colSupplyZeroProb],
		SupplyBase:         values[colSupplyBase],
		SupplySlope:        values[colSupplySlope],
		SupplyStdev:        values[colSupplyStdev],
		Correlation:        values[colCorrelation],
	}, nil
}
