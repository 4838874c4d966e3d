package perf

import (
	"math"
	"strings"
)

type StoryGroup struct {
	Story string
	Rows  []ResultRow
}

type Groups []StoryGroup

func (g Groups) Lookup(story string) ([]ResultRow, bool) {
	story = strings.TrimSpace(story)
	for _, x := range g {
		if x.Story == story {
			return x.Rows, true
		}
	}
	return nil, false
}

func (g Groups) Stories() []string {
	out := make([]string, len(g))
	for i, x := range g {
		out[i] = x.Story
	}
	return out
}

// Aggregate groups rows by story in first-seen order. Rows without a story
// label belong to no group.
func Aggregate(rows []ResultRow) Groups {
	var groups Groups
	index := make(map[string]int)
	for _, row := range rows {
		story := strings.TrimSpace(row.Story)
		if story == "" {
			continue
		}
		i, ok := index[story]
		if !ok {
			i = len(groups)
			index[story] = i
			groups = append(groups, StoryGroup{Story: story})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// Summarize takes the maximum of every statistic across rows. The avg fields
// are already averaged per row by the analysis software, so the story value
// is the largest of those averages, not a new mean.
func Summarize(rows []ResultRow) StoryStats {
	var maxXDrift, avgXDrift, maxYDrift, avgYDrift, maxNN0, avgNN0 extremum
	for _, row := range rows {
		maxXDrift.add(row.MaxXDrift)
		avgXDrift.add(row.AvgXDrift)
		maxYDrift.add(row.MaxYDrift)
		avgYDrift.add(row.AvgYDrift)
		maxNN0.add(row.MaxNN0)
		avgNN0.add(row.AvgNN0)
	}
	return StoryStats{
		MaxXDrift: maxXDrift.ptr(),
		AvgXDrift: avgXDrift.ptr(),
		MaxYDrift: maxYDrift.ptr(),
		AvgYDrift: avgYDrift.ptr(),
		MaxNN0:    maxNN0.ptr(),
		AvgNN0:    avgNN0.ptr(),
	}
}

// Drift returns the max and avg drift of the given direction.
func (s StoryStats) Drift(d Direction) (max, avg *float64) {
	switch d {
	case DirX:
		return s.MaxXDrift, s.AvgXDrift
	case DirY:
		return s.MaxYDrift, s.AvgYDrift
	}
	return nil, nil
}

type extremum struct {
	n Number
}

func (e *extremum) add(v Number) {
	if !v.Valid || math.IsNaN(v.Value) || math.IsInf(v.Value, 0) {
		return
	}
	if !e.n.Valid || v.Value > e.n.Value {
		e.n = v
	}
}

func (e extremum) ptr() *float64 { return e.n.Ptr() }
