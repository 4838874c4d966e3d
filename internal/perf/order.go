package perf

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	rankBasement = iota
	rankGround
	rankFloor
	rankOther
)

var (
	reBasement = regexp.MustCompile(`(?i)(bodrum|basement|^b\d+$)`)
	reGround   = regexp.MustCompile(`(?i)(zemin|ground|^gf$)`)
	reFloorNum = regexp.MustCompile(`-?\d+`)
)

type storyKey struct {
	rank  int
	floor int
	label string
}

func storyOrderKey(label string) storyKey {
	s := strings.TrimSpace(label)
	switch {
	case reBasement.MatchString(s):
		return storyKey{rank: rankBasement, floor: -basementDepth(s), label: s}
	case reGround.MatchString(s):
		return storyKey{rank: rankGround, label: s}
	}
	if m := reFloorNum.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return storyKey{rank: rankFloor, floor: n, label: s}
		}
	}
	return storyKey{rank: rankOther, label: s}
}

// deeper basements come first: "2. Bodrum" before "1. Bodrum" before "Bodrum"
func basementDepth(s string) int {
	if m := reFloorNum.FindString(s); m != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(m, "-")); err == nil {
			return n
		}
	}
	return 0
}

func (a storyKey) less(b storyKey) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if a.floor != b.floor {
		return a.floor < b.floor
	}
	return a.label < b.label
}

// LessStory orders story labels for display: basements, ground floor,
// numbered floors ascending, then everything else by label.
func LessStory(a, b string) bool {
	return storyOrderKey(a).less(storyOrderKey(b))
}

// SortStories sorts in place in display order.
func SortStories(stories []StoryPerformance) {
	sort.SliceStable(stories, func(i, j int) bool {
		return LessStory(stories[i].Story, stories[j].Story)
	})
}
