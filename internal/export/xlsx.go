package export

import (
	"fmt"

	"forestval/internal/rotation"

	"github.com/xuri/excelize/v2"
)

const (
	tableSheet   = "Valuation"
	summarySheet = "Summary"
)

var tableHeader = []string{
	"t", "measure", "cost", "revenue", "result",
	"npv_cost", "npv_revenue", "fpv_cost", "fpv_revenue", "npv", "fpv",
}

// Workbook renders a valuation as an XLSX file: the derived table on one
// sheet and the parameters and summary scalars on another.
func Workbook(p rotation.Params, v *rotation.Valuation) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", tableSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(tableHeader))
	for i, h := range tableHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(tableSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1D2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(tableHeader))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(tableSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if err := f.SetPanes(tableSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	for i, r := range v.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			r.T, r.Measure, r.Cost, r.Revenue, r.Result,
			r.NPVCost, r.NPVRevenue, r.FPVCost, r.FPVRevenue, r.NPV, r.FPV,
		}
		if err := f.SetSheetRow(tableSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row t=%d: %w", r.T, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"rotation_length", p.RotationLength},
		{"interest_rate", p.InterestRate},
		{"flat_yearly_cost", p.FlatYearlyCost},
		{"flat_yearly_revenue", p.FlatYearlyRevenue},
		{"terminal_year", v.TerminalYear},
		{"npv_cumulative", v.NPV},
		{"fpv_cumulative", v.FPV},
		{"land_expectation_value", v.LEV},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
