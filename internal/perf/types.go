package perf

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type EarthquakeLevel string

const (
	DD1 EarthquakeLevel = "DD-1"
	DD2 EarthquakeLevel = "DD-2"
	DD3 EarthquakeLevel = "DD-3"
)

type PerformanceLevel string

const (
	SH PerformanceLevel = "SH" // limited damage
	KH PerformanceLevel = "KH" // controlled damage
	GO PerformanceLevel = "GO" // collapse prevention
)

type Direction string

const (
	DirX Direction = "X"
	DirY Direction = "Y"
)

type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
)

// Outcome markers written by the analysis software into the SH/KH/GO columns.
const (
	MarkerPass = "Sağlıyor"
	MarkerFail = "Sağlamıyor"
)

// Number is a numeric cell from the results dataset. Cells that are missing,
// empty or not a finite number have Valid == false.
type Number struct {
	Value float64
	Valid bool
}

func Num(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// ParseNumber accepts both "0.003" and "0,003".
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Number{}
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return Num(v)
}

func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON never fails: anything that is not a usable number becomes
// an invalid Number so that one bad cell does not reject a whole dataset.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = Number{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*n = ParseNumber(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	*n = Num(v)
	return nil
}

// ResultRow is one story under one load combination.
type ResultRow struct {
	EarthquakeLevel EarthquakeLevel `json:"earthquake_level"`
	LoadCombination string          `json:"load_combination"`
	Story           string          `json:"story"`
	SH              string          `json:"sh"`
	KH              string          `json:"kh"`
	GO              string          `json:"go"`
	MaxXDrift       Number          `json:"max_x_drift"`
	AvgXDrift       Number          `json:"avg_x_drift"`
	MaxYDrift       Number          `json:"max_y_drift"`
	AvgYDrift       Number          `json:"avg_y_drift"`
	MaxNN0          Number          `json:"max_n_n0"`
	AvgNN0          Number          `json:"avg_n_n0"`
}

// Outcome returns the marker stored in the column of the given level.
func (r ResultRow) Outcome(level PerformanceLevel) (string, bool) {
	switch level {
	case SH:
		return r.SH, true
	case KH:
		return r.KH, true
	case GO:
		return r.GO, true
	}
	return "", false
}

type StoryStats struct {
	MaxXDrift *float64 `json:"max_x_drift"`
	AvgXDrift *float64 `json:"avg_x_drift"`
	MaxYDrift *float64 `json:"max_y_drift"`
	AvgYDrift *float64 `json:"avg_y_drift"`
	MaxNN0    *float64 `json:"max_n_n0"`
	AvgNN0    *float64 `json:"avg_n_n0"`
}

type StoryPerformance struct {
	Story            string     `json:"story"`
	Verdict          Verdict    `json:"verdict"`
	IsCurrentVersion bool       `json:"is_current_version"`
	MaxDrift         *float64   `json:"max_drift"`
	AvgDrift         *float64   `json:"avg_drift"`
	MaxNN0           *float64   `json:"max_n_n0"`
	AvgNN0           *float64   `json:"avg_n_n0"`
	Stats            StoryStats `json:"stats"`
}

func (s StoryPerformance) Failed() bool { return s.Verdict == Fail }

// Dataset is the set of rows loaded for one project version.
type Dataset struct {
	VersionID int64       `json:"version_id"`
	IsCurrent bool        `json:"is_current"`
	Rows      []ResultRow `json:"rows"`
}
