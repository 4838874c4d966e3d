package perf

import "strings"

// Load combination markers for the seismic direction and sign.
var directionTokens = map[Direction][2]string{
	DirX: {"Dx+", "Dx-"},
	DirY: {"Dy+", "Dy-"},
}

// Matches reports whether row passes the earthquake and direction tests.
// Performance level never filters rows.
func (c Criteria) Matches(row ResultRow) bool {
	if c.Earthquake != "" && row.EarthquakeLevel != c.Earthquake {
		return false
	}
	if c.Direction != "" {
		tokens, ok := directionTokens[c.Direction]
		if !ok || row.LoadCombination == "" {
			return false
		}
		if !strings.Contains(row.LoadCombination, tokens[0]) && !strings.Contains(row.LoadCombination, tokens[1]) {
			return false
		}
	}
	return true
}

// Filter returns the rows matching c in input order.
func Filter(rows []ResultRow, c Criteria) []ResultRow {
	out := make([]ResultRow, 0, len(rows))
	if c.IsEmpty() {
		return append(out, rows...)
	}
	for _, row := range rows {
		if c.Matches(row) {
			out = append(out, row)
		}
	}
	return out
}
