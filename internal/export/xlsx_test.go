package export

import (
	"bytes"
	"testing"

	"forestval/internal/rotation"

	"github.com/xuri/excelize/v2"
)

func TestWorkbook(t *testing.T) {
	entries := []rotation.Entry{
		{T: 0, Measure: "reforest", Cost: 100},
		{T: 1},
		{T: 2, Measure: "harvest", Revenue: 400},
	}
	params := rotation.Params{RotationLength: 2, InterestRate: 4}
	v, err := rotation.Compute(entries, params)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	data, err := Workbook(params, v)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(tableSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows: got=%d want=4", len(rows))
	}
	if rows[0][0] != "t" || rows[0][10] != "fpv" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "reforest" || rows[3][1] != "harvest" {
		t.Fatalf("unexpected measures: %v / %v", rows[1], rows[3])
	}

	lev, err := f.GetCellValue(summarySheet, "A8")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if lev != "land_expectation_value" {
		t.Fatalf("summary label: got=%q", lev)
	}
}
