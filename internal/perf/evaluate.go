package perf

type Options struct {
	// CurrentVersion marks every story as belonging to the version shown as
	// current. The engine never decides this itself.
	CurrentVersion bool
}

type Summary struct {
	Stories int `json:"stories"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
}

type Evaluation struct {
	Criteria Criteria              `json:"criteria"`
	Complete bool                  `json:"complete"`
	Rows     []ResultRow           `json:"rows"`
	Stories  []StoryPerformance    `json:"stories"`
	Colors   map[string]ColorToken `json:"colors"`
	Building *Verdict              `json:"building"`
	Summary  Summary               `json:"summary"`
}

// Evaluate runs the whole pipeline for one selection. Rows are always
// filtered; stories, colors and the building verdict are only produced once
// all three criteria are selected.
func Evaluate(rows []ResultRow, c Criteria, opts Options) Evaluation {
	ev := Evaluation{
		Criteria: c,
		Complete: c.IsComplete(),
		Rows:     Filter(rows, c),
		Stories:  []StoryPerformance{},
		Colors:   map[string]ColorToken{},
	}
	if !ev.Complete {
		return ev
	}
	stories := Classify(ev.Rows, c.Performance, c.Direction)
	SortStories(stories)
	for i := range stories {
		stories[i].IsCurrentVersion = opts.CurrentVersion
		if stories[i].Failed() {
			ev.Summary.Failed++
		} else {
			ev.Summary.Passed++
		}
	}
	if stories != nil {
		ev.Stories = stories
	}
	ev.Summary.Stories = len(stories)
	ev.Colors = Colorize(stories)
	building := BuildingVerdict(stories)
	ev.Building = &building
	return ev
}
