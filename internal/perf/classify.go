package perf

import "strings"

// Classify gives every story in rows a verdict for the performance level.
// One failing row fails the whole story.
func Classify(rows []ResultRow, level PerformanceLevel, dir Direction) []StoryPerformance {
	if len(rows) == 0 {
		return nil
	}
	switch level {
	case SH, KH, GO:
	default:
		return nil
	}
	groups := Aggregate(rows)
	out := make([]StoryPerformance, 0, len(groups))
	for _, g := range groups {
		verdict := Pass
		for _, row := range g.Rows {
			marker, _ := row.Outcome(level)
			if IsFailMarker(marker) {
				verdict = Fail
				break
			}
		}
		stats := Summarize(g.Rows)
		maxDrift, avgDrift := stats.Drift(dir)
		out = append(out, StoryPerformance{
			Story:    g.Story,
			Verdict:  verdict,
			MaxDrift: maxDrift,
			AvgDrift: avgDrift,
			MaxNN0:   stats.MaxNN0,
			AvgNN0:   stats.AvgNN0,
			Stats:    stats,
		})
	}
	return out
}

func IsFailMarker(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), MarkerFail)
}

// BuildingVerdict fails if any story fails.
func BuildingVerdict(stories []StoryPerformance) Verdict {
	for _, s := range stories {
		if s.Failed() {
			return Fail
		}
	}
	return Pass
}
