// Package export writes filtered result rows as CSV and XLSX tables.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ansel1/merry"
	"github.com/xuri/excelize/v2"

	"Sismik/internal/perf"
)

const sheetName = "Results"

var Header = []string{
	"Earthquake Level", "Load Combination", "Story", "SH", "KH", "GO",
	"Max X Drift", "Avg X Drift", "Max Y Drift", "Avg Y Drift", "Max N/N0", "Avg N/N0",
}

func text(row perf.ResultRow) []string {
	return []string{
		string(row.EarthquakeLevel), row.LoadCombination, row.Story, row.SH, row.KH, row.GO,
		formatNumber(row.MaxXDrift), formatNumber(row.AvgXDrift),
		formatNumber(row.MaxYDrift), formatNumber(row.AvgYDrift),
		formatNumber(row.MaxNN0), formatNumber(row.AvgNN0),
	}
}

func formatNumber(n perf.Number) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func WriteCSV(w io.Writer, rows []perf.ResultRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return merry.Prepend(err, "write csv header")
	}
	for _, row := range rows {
		if err := cw.Write(text(row)); err != nil {
			return merry.Prepend(err, "write csv row")
		}
	}
	cw.Flush()
	return merry.Wrap(cw.Error())
}

// WriteXLSX writes one sheet with a bold header. Numeric cells stay numbers;
// missing values are left empty.
func WriteXLSX(w io.Writer, rows []perf.ResultRow) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return merry.Prepend(err, "name sheet")
	}
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return merry.Prepend(err, "write header")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return merry.Prepend(err, "header style")
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return merry.Prepend(err, "apply header style")
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			string(row.EarthquakeLevel), row.LoadCombination, row.Story, row.SH, row.KH, row.GO,
			cellValue(row.MaxXDrift), cellValue(row.AvgXDrift),
			cellValue(row.MaxYDrift), cellValue(row.AvgYDrift),
			cellValue(row.MaxNN0), cellValue(row.AvgNN0),
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return merry.Prependf(err, "write row %d", i+2)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return merry.Prepend(err, "freeze header")
	}
	_, err = f.WriteTo(w)
	return merry.Prepend(err, "write workbook")
}

func cellValue(n perf.Number) interface{} {
	if !n.Valid {
		return nil
	}
	return n.Value
}
