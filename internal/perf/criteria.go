package perf

import (
	"net/http"
	"strings"

	"github.com/ansel1/merry"
)

var ErrInvalidCriteria = merry.New("invalid criteria").WithHTTPCode(http.StatusBadRequest)

// Criteria is the user's selection. Every field is optional; the zero value
// selects nothing and filters nothing.
type Criteria struct {
	Earthquake  EarthquakeLevel  `json:"earthquake,omitempty"`
	Performance PerformanceLevel `json:"performance,omitempty"`
	Direction   Direction        `json:"direction,omitempty"`
}

func (c Criteria) IsEmpty() bool {
	return c.Earthquake == "" && c.Performance == "" && c.Direction == ""
}

// IsComplete reports whether results may be classified and shown.
func (c Criteria) IsComplete() bool {
	return c.Earthquake != "" && c.Performance != "" && c.Direction != ""
}

func (c Criteria) ToggleEarthquake(l EarthquakeLevel) Criteria {
	if c.Earthquake == l {
		c.Earthquake = ""
	} else {
		c.Earthquake = l
	}
	return c
}

func (c Criteria) TogglePerformance(l PerformanceLevel) Criteria {
	if c.Performance == l {
		c.Performance = ""
	} else {
		c.Performance = l
	}
	return c
}

func (c Criteria) ToggleDirection(d Direction) Criteria {
	if c.Direction == d {
		c.Direction = ""
	} else {
		c.Direction = d
	}
	return c
}

// ParseCriteria reads criteria from user input. Blank values stay unselected.
func ParseCriteria(earthquake, performance, direction string) (Criteria, error) {
	var c Criteria
	switch v := EarthquakeLevel(strings.ToUpper(strings.TrimSpace(earthquake))); v {
	case "", DD1, DD2, DD3:
		c.Earthquake = v
	default:
		return Criteria{}, merry.Prependf(ErrInvalidCriteria.Here(), "earthquake level %q", earthquake).
			WithUserMessagef("unknown earthquake level %q", earthquake)
	}
	switch v := PerformanceLevel(strings.ToUpper(strings.TrimSpace(performance))); v {
	case "", SH, KH, GO:
		c.Performance = v
	default:
		return Criteria{}, merry.Prependf(ErrInvalidCriteria.Here(), "performance level %q", performance).
			WithUserMessagef("unknown performance level %q", performance)
	}
	switch v := Direction(strings.ToUpper(strings.TrimSpace(direction))); v {
	case "", DirX, DirY:
		c.Direction = v
	default:
		return Criteria{}, merry.Prependf(ErrInvalidCriteria.Here(), "direction %q", direction).
			WithUserMessagef("unknown direction %q", direction)
	}
	return c, nil
}
