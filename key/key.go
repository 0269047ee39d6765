package key

import (
	"github.com/jsphweid/midicompare/chord"
	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/model"
)

// DetectKey returns the pitch class carrying the most total note duration.
// Ties go to the lowest pitch class.
func DetectKey(notes []model.Note) int {
	var weights [12]float64
	for _, n := range notes {
		weights[chord.PitchClass(n.Pitch)] += n.Duration
	}
	best := 0
	for pc := 1; pc < len(weights); pc++ {
		if weights[pc] > weights[best] {
			best = pc
		}
	}
	return best
}

// Distance is the shorter way round the twelve pitch classes, 0 to 6.
func Distance(key1, key2 int) int {
	d := chord.PitchClass(key1) - chord.PitchClass(key2)
	if d < 0 {
		d = -d
	}
	return min(d, 12-d)
}

func Name(key int) string {
	return chord.PitchClassNames[chord.PitchClass(key)]
}

// KeySimilarity is 0 when both lists are empty. A single empty side is
// treated as C, the key DetectKey reports for no notes.
func KeySimilarity(notes1, notes2 []model.Note) float64 {
	if len(notes1) == 0 && len(notes2) == 0 {
		return 0
	}
	d := Distance(DetectKey(notes1), DetectKey(notes2))
	return 1 - float64(d)/constants.MaxKeyDistance
}
