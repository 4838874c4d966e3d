package perf

type ColorToken string

// Colors applied by the 3D viewer to story geometry.
const (
	ColorPass ColorToken = "#2e7d32"
	ColorFail ColorToken = "#c62828"
)

func VerdictColor(v Verdict) ColorToken {
	if v == Fail {
		return ColorFail
	}
	return ColorPass
}

// Colorize maps every story to its verdict color.
func Colorize(stories []StoryPerformance) map[string]ColorToken {
	out := make(map[string]ColorToken, len(stories))
	for _, s := range stories {
		out[s.Story] = VerdictColor(s.Verdict)
	}
	return out
}
