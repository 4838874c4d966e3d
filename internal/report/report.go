// Package report renders story performance evaluations as PDF documents.
package report

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ansel1/merry"
	"github.com/phpdave11/gofpdf"

	"Sismik/internal/perf"
)

// DejaVu covers the Turkish letters the core PDF fonts cannot encode.
//
//go:embed fonts/DejaVuSansCondensed.ttf
var fontRegular []byte

//go:embed fonts/DejaVuSansCondensed-Bold.ttf
var fontBold []byte

const family = "DejaVu"

type Meta struct {
	Project   string
	Version   int
	Author    string
	Generated time.Time
}

var performanceNames = map[perf.PerformanceLevel]string{
	perf.SH: "SH - Sınırlı Hasar",
	perf.KH: "KH - Kontrollü Hasar",
	perf.GO: "GO - Göçmenin Önlenmesi",
}

func hexRGB(c perf.ColorToken) (int, int, int) {
	s := string(c)
	if len(s) != 7 {
		return 255, 255, 255
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 255, 255, 255
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 5, 64)
}

var columns = []struct {
	title string
	width float64
}{
	{"Story", 50}, {"Verdict", 25}, {"Max drift", 28}, {"Avg drift", 28}, {"Max N/N0", 28}, {"Avg N/N0", 28},
}

// Render writes an A4 report for ev. ev must come from complete criteria.
func Render(w io.Writer, meta Meta, ev perf.Evaluation) error {
	if !ev.Complete {
		return merry.New("evaluation is incomplete")
	}
	if meta.Generated.IsZero() {
		meta.Generated = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(family, "", fontRegular)
	pdf.AddUTF8FontFromBytes(family, "B", fontBold)
	pdf.SetTitle("Story performance report", true)
	pdf.SetAuthor(meta.Author, true)
	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.Cell(0, 10, "Story Performance Report")
	pdf.Ln(12)

	pdf.SetFont(family, "", 11)
	lines := []string{
		fmt.Sprintf("Project: %s", meta.Project),
		fmt.Sprintf("Version: %d", meta.Version),
		fmt.Sprintf("Earthquake level: %s", ev.Criteria.Earthquake),
		fmt.Sprintf("Performance level: %s", performanceNames[ev.Criteria.Performance]),
		fmt.Sprintf("Direction: %s", ev.Criteria.Direction),
		fmt.Sprintf("Date: %s", meta.Generated.Format("2006-01-02")),
	}
	if meta.Author != "" {
		lines = append(lines, fmt.Sprintf("Author: %s", meta.Author))
	}
	for _, l := range lines {
		pdf.Cell(0, 6, l)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	building := perf.Pass
	if ev.Building != nil {
		building = *ev.Building
	}
	pdf.SetFont(family, "B", 12)
	r, g, b := hexRGB(perf.VerdictColor(building))
	pdf.SetTextColor(r, g, b)
	pdf.Cell(0, 8, fmt.Sprintf("Building: %s (%d of %d stories failed)", building, ev.Summary.Failed, ev.Summary.Stories))
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(12)

	pdf.SetFont(family, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 10)
	for _, s := range ev.Stories {
		pdf.CellFormat(columns[0].width, 7, s.Story, "1", 0, "L", false, 0, "")
		r, g, b := hexRGB(ev.Colors[s.Story])
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(columns[1].width, 7, string(s.Verdict), "1", 0, "C", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		for i, v := range []*float64{s.MaxDrift, s.AvgDrift, s.MaxNN0, s.AvgNN0} {
			pdf.CellFormat(columns[i+2].width, 7, formatValue(v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(ev.Stories) == 0 {
		pdf.SetFont(family, "", 10)
		pdf.Cell(0, 8, "No stories match the selected criteria.")
	}

	if err := pdf.Output(w); err != nil {
		return merry.Prepend(err, "render report")
	}
	return nil
}
