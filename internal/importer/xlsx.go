package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/ansel1/merry"
	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"

	"Sismik/internal/perf"
)

type column int

const (
	colEarthquake column = iota
	colCombination
	colStory
	colSH
	colKH
	colGO
	colMaxXDrift
	colAvgXDrift
	colMaxYDrift
	colAvgYDrift
	colMaxNN0
	colAvgNN0
	numColumns
)

// headerAliases lists, per column, the normalized header spellings the
// analysis exports use in English and Turkish.
var headerAliases = map[string]column{
	"earthquakelevel": colEarthquake,
	"earthquake":      colEarthquake,
	"depremdüzeyi":    colEarthquake,
	"depremseviyesi":  colEarthquake,
	"loadcombination": colCombination,
	"combination":     colCombination,
	"combo":           colCombination,
	"yükkombinasyonu": colCombination,
	"kombinasyon":     colCombination,
	"story":           colStory,
	"floor":           colStory,
	"kat":             colStory,
	"sh":              colSH,
	"kh":              colKH,
	"go":              colGO,
	"maxxdrift":       colMaxXDrift,
	"maksxöteleme":    colMaxXDrift,
	"avgxdrift":       colAvgXDrift,
	"ortxöteleme":     colAvgXDrift,
	"maxydrift":       colMaxYDrift,
	"maksyöteleme":    colMaxYDrift,
	"avgydrift":       colAvgYDrift,
	"ortyöteleme":     colAvgYDrift,
	"maxnn0":          colMaxNN0,
	"maksnn0":         colMaxNN0,
	"avgnn0":          colAvgNN0,
	"ortnn0":          colAvgNN0,
	"maximumxdrift":   colMaxXDrift,
	"averagexdrift":   colAvgXDrift,
	"maximumydrift":   colMaxYDrift,
	"averageydrift":   colAvgYDrift,
	"maximumnn0":      colMaxNN0,
	"averagenn0":      colAvgNN0,
}

var headerReplacer = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "", "/", "", "(", "", ")", "", "\t", "")

func normalizeHeader(s string) string {
	s = strings.ReplaceAll(s, "İ", "i")
	s = strings.ReplaceAll(s, "I", "ı")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "ı", "i")
	return headerReplacer.Replace(s)
}

// ParseXLSX reads the first sheet of a workbook. The first row is the header;
// columns are matched by name, so their order does not matter.
func ParseXLSX(r io.Reader) (Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Dataset{}, merry.Prepend(invalid("results file is not a valid workbook"), err.Error())
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return Dataset{}, merry.Prepend(err, "read sheet")
	}
	if len(rows) == 0 {
		return Dataset{}, invalid("results sheet is empty")
	}

	index := make([]int, numColumns)
	for i := range index {
		index[i] = -1
	}
	for i, h := range rows[0] {
		if c, ok := headerAliases[normalizeHeader(h)]; ok && index[c] < 0 {
			index[c] = i
		}
	}
	if index[colStory] < 0 {
		return Dataset{}, invalid("results sheet has no story column")
	}
	if index[colEarthquake] < 0 {
		return Dataset{}, invalid("results sheet has no earthquake level column")
	}

	var merr *multierror.Error
	ds := Dataset{Rows: []perf.ResultRow{}}
	for i, cells := range rows[1:] {
		line := i + 2
		if blank(cells) {
			continue
		}
		cell := func(c column) string {
			if index[c] < 0 || index[c] >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[index[c]])
		}
		num := func(c column) perf.Number {
			raw := cell(c)
			n := perf.ParseNumber(raw)
			if raw != "" && !n.Valid {
				merr = multierror.Append(merr, fmt.Errorf("row %d: %q is not a number", line, raw))
			}
			return n
		}
		row := perf.ResultRow{
			EarthquakeLevel: perf.EarthquakeLevel(cell(colEarthquake)),
			LoadCombination: cell(colCombination),
			Story:           cell(colStory),
			SH:              cell(colSH),
			KH:              cell(colKH),
			GO:              cell(colGO),
			MaxXDrift:       num(colMaxXDrift),
			AvgXDrift:       num(colAvgXDrift),
			MaxYDrift:       num(colMaxYDrift),
			AvgYDrift:       num(colAvgYDrift),
			MaxNN0:          num(colMaxNN0),
			AvgNN0:          num(colAvgNN0),
		}
		if row.Story == "" {
			merr = multierror.Append(merr, fmt.Errorf("row %d: missing story", line))
			continue
		}
		ds.Rows = append(ds.Rows, normalize(row))
	}
	ds.Warnings = warnings(merr)
	return ds, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
