// Package output provides utilities for formatting and displaying savings
// curve results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sigmaun/prepo/internal/aggregate"
	"github.com/sigmaun/prepo/internal/curve"
	"github.com/sigmaun/prepo/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurveColumns is the header of the per-level results table.
var CurveColumns = []string{"item", "x", "E[P_a]", "E[P_D]", "E[P_S]", "E[P_cx]", "m_s", "m_c", "m"}

// ScheduleColumns is the header of the aggregated spend table.
var ScheduleColumns = []string{"m", "total_x"}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(curves []curve.Curve) {
	p := message.NewPrinter(language.English)
	for _, result := range curves {
		fmt.Printf("--- Savings curve for item %s ---\n", result.Item)
		fmt.Printf("     x | E[P_a]   | E[P_D]   | E[P_S]   | E[P_cx]  | m_s      | m_c      | m\n")
		fmt.Printf("     _ | ______   | ______   | ______   | _______  | ___      | ___      | _\n")
		for _, point := range result.Points {
			_, _ = p.Printf("%6d | %.6f | %.6f | %.6f | %.6f | %.6f | %.6f | %.6f\n",
				point.Level, point.CostPremium, point.DemandTail, point.ShortfallTail,
				point.CrossTerm, point.GrossSavings, point.HoldingCost, point.NetSavings)
		}
		if len(curves) > 1 {
			fmt.Printf("\n")
		}
	}
}

// PrettySchedule outputs the aggregated spend schedule in human-readable form.
func PrettySchedule(schedule aggregate.Schedule) {
	p := message.NewPrinter(language.English)
	fmt.Printf("--- Aggregated prepositioning schedule ---\n")
	fmt.Printf("m        | total spend\n")
	fmt.Printf("_        | ___________\n")
	for _, level := range schedule {
		_, _ = p.Printf("%.6f | %s\n", level.NetSavings, format.Currency(level.TotalSpend))
	}
}

// CsvFormat outputs the per-level table in comma-separated value format.
func CsvFormat(curves []curve.Curve) {
	_ = WriteCsv(os.Stdout, curves)
}

// WriteCsv writes the per-level table to w: one row per (item, level),
// items in input order, levels ascending within an item.
func WriteCsv(w io.Writer, curves []curve.Curve) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CurveColumns); err != nil {
		return err
	}
	for _, result := range curves {
		for _, point := range result.Points {
			record := []string{
				point.Item,
				strconv.Itoa(point.Level),
				format.Rate(point.CostPremium),
				format.Rate(point.DemandTail),
				format.Rate(point.ShortfallTail),
				format.Rate(point.CrossTerm),
				format.Rate(point.GrossSavings),
				format.Rate(point.HoldingCost),
				format.Rate(point.NetSavings),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCsvFile writes the per-level table to the named file.
func WriteCsvFile(path string, curves []curve.Curve) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteCsv(f, curves); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// CsvString returns the per-level table as a CSV document.
func CsvString(curves []curve.Curve) string {
	var builder strings.Builder
	_ = WriteCsv(&builder, curves)
	return builder.String()
}

// WriteScheduleCsv writes the aggregated spend table to w.
func WriteScheduleCsv(w io.Writer, schedule aggregate.Schedule) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(ScheduleColumns); err != nil {
		return err
	}
	for _, level := range schedule {
		record := []string{
			format.Rate(level.NetSavings),
			fmt.Sprintf("%.2f", level.TotalSpend),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ScheduleCsvString returns the aggregated spend table as a CSV document.
func ScheduleCsvString(schedule aggregate.Schedule) string {
	var builder strings.Builder
	_ = WriteScheduleCsv(&builder, schedule)
	return builder.String()
}
