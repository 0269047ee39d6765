package chord

import (
	"math"
	"sort"
	"strings"

	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/util"
)

var PitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Chord is a sorted set of distinct pitch classes.
type Chord = []int

func PitchClass(pitch int) int {
	return ((pitch % 12) + 12) % 12
}

// Label renders a chord with pitch class names, e.g. "C-E-G".
func Label(c Chord) string {
	names := make([]string, 0, len(c))
	for _, pc := range c {
		names = append(names, PitchClassNames[PitchClass(pc)])
	}
	return strings.Join(names, "-")
}

// Extract groups notes into quarter second windows by onset and keeps the
// windows holding at least MinChordSize distinct pitch classes, earliest
// window first.
func Extract(notes []model.Note) []Chord {
	windows := make(map[int64]map[int]bool)
	for _, n := range notes {
		w := int64(math.Floor(n.Onset * constants.ChordWindowsPerSecond))
		if windows[w] == nil {
			windows[w] = make(map[int]bool)
		}
		windows[w][PitchClass(n.Pitch)] = true
	}

	var chords []Chord
	for _, w := range util.GetSortedKeys(windows) {
		classes := windows[w]
		if len(classes) < constants.MinChordSize {
			continue
		}
		c := util.GetKeys(classes)
		sort.Ints(c)
		chords = append(chords, c)
	}
	return chords
}

func contains(outer, inner Chord) bool {
	present := make(map[int]bool, len(outer))
	for _, pc := range outer {
		present[pc] = true
	}
	for _, pc := range inner {
		if !present[pc] {
			return false
		}
	}
	return true
}

// Common keeps the chords of a that are contained in some chord of b.
func Common(a, b []Chord) []Chord {
	var res []Chord
	for _, c := range a {
		for _, other := range b {
			if contains(other, c) {
				res = append(res, c)
				break
			}
		}
	}
	return res
}

func HarmonicSimilarity(notes1, notes2 []model.Note) float64 {
	chords1 := Extract(notes1)
	chords2 := Extract(notes2)
	common := Common(chords1, chords2)
	return float64(len(common)) / float64(max(len(chords1), len(chords2), 1))
}

// CommonLabels names at most limit chords shared by both note lists.
func CommonLabels(notes1, notes2 []model.Note, limit int) []string {
	res := []string{}
	for _, c := range Common(Extract(notes1), Extract(notes2)) {
		if len(res) == limit {
			break
		}
		res = append(res, Label(c))
	}
	return res
}
