package rhythm

import (
	"math"
	"sort"

	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/util"
)

// Pattern returns the inter-onset intervals of notes in sixteenth second
// steps, in onset order.
func Pattern(notes []model.Note) []int {
	onsets := make([]float64, 0, len(notes))
	for _, n := range notes {
		onsets = append(onsets, n.Onset)
	}
	sort.Float64s(onsets)

	var res []int
	for i := 1; i < len(onsets); i++ {
		res = append(res, int(math.Round((onsets[i]-onsets[i-1])*constants.RhythmGrid)))
	}
	return res
}

// RhythmSimilarity counts the intervals of notes1 whose value occurs anywhere
// in notes2 and divides by the longer pattern.
func RhythmSimilarity(notes1, notes2 []model.Note) float64 {
	pattern1 := Pattern(notes1)
	pattern2 := Pattern(notes2)
	present := make(map[int]bool, len(pattern2))
	for _, v := range pattern2 {
		present[v] = true
	}

	var common int
	for _, v := range pattern1 {
		if present[v] {
			common++
		}
	}
	return float64(common) / float64(max(len(pattern1), len(pattern2), 1))
}

// EstimateTempo derives beats per minute from the mean gap between
// consecutive notes, rounded to a whole number.
func EstimateTempo(notes []model.Note) float64 {
	mean := constants.DefaultMeanInterval
	if len(notes) > 1 {
		var sum float64
		for i := 1; i < len(notes); i++ {
			sum += notes[i].Onset - notes[i-1].Onset
		}
		mean = sum / float64(len(notes)-1)
	}
	return math.Round(60 / math.Max(mean, constants.MinMeanInterval))
}

func TempoSimilarity(tempo1, tempo2 float64) float64 {
	top := math.Max(tempo1, tempo2)
	if top <= 0 {
		return 0
	}
	return 1 - util.Abs(tempo1-tempo2)/top
}
