package chord

import (
	"fmt"
	"testing"

	"github.com/jsphweid/midicompare/model"
	"github.com/stretchr/testify/assert"
)

func notesAt(onset float64, pitches ...int) []model.Note {
	var res []model.Note
	for _, p := range pitches {
		res = append(res, model.Note{Pitch: p, Onset: onset, Duration: 0.5, Velocity: 80})
	}
	return res
}

func TestMatchingTriadIsFullySimilar(t *testing.T) {
	a := notesAt(0, 60, 64, 67)
	b := notesAt(0, 60, 64, 67)

	assert := assert.New(t)
	assert.Len(Extract(a), 1)
	assert.Equal(1.0, HarmonicSimilarity(a, b))
}

func TestExtractNeedsThreeDistinctPitchClasses(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(Extract(notesAt(0, 60, 72, 64)))
	assert.Equal([]Chord{{0, 4, 7}}, Extract(notesAt(0, 67, 60, 76, 64)))
}

func TestExtractGroupsByQuarterSecondWindow(t *testing.T) {
	var notes []model.Note
	notes = append(notes, notesAt(1.0, 62, 65)...)
	notes = append(notes, notesAt(1.2, 69)...)
	notes = append(notes, notesAt(0.3, 60, 64)...)
	notes = append(notes, notesAt(0.0, 67)...)

	// 0.3 falls in window 1 and 0.0 in window 0 so the c chord never forms
	assert.Equal(t, []Chord{{2, 5, 9}}, Extract(notes))
}

func TestSubsetChordIsCommon(t *testing.T) {
	a := notesAt(0, 60, 64, 67)
	b := notesAt(0, 60, 64, 67, 70)

	assert := assert.New(t)
	assert.Equal(1.0, HarmonicSimilarity(a, b))
	// a seventh chord is not contained in a triad
	assert.Equal(0.0, HarmonicSimilarity(b, a))
}

func TestSimilarityDividesByLargerChordCount(t *testing.T) {
	a := notesAt(0, 60, 64, 67)
	var b []model.Note
	b = append(b, notesAt(0, 60, 64, 67)...)
	b = append(b, notesAt(1, 62, 65, 69)...)
	assert.Equal(t, 0.5, HarmonicSimilarity(a, b))
}

func TestEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, HarmonicSimilarity(nil, nil))
}

func TestLabels(t *testing.T) {
	cases := []struct {
		chord    Chord
		expected string
	}{
		{Chord{0, 4, 7}, "C-E-G"},
		{Chord{1, 6, 10}, "C#-F#-A#"},
		{Chord{2, 5, 9, 11}, "D-F-A-B"},
	}
	for _, c := range cases {
		name := fmt.Sprintf("labels chord %v", c.chord)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, c.expected, Label(c.chord))
		})
	}
}

func TestCommonLabelsRespectsLimit(t *testing.T) {
	var notes []model.Note
	for i := 0; i < 8; i++ {
		notes = append(notes, notesAt(float64(i), 60+i, 64+i, 67+i)...)
	}
	labels := CommonLabels(notes, notes, 5)
	assert.Len(t, labels, 5)
	assert.Equal(t, "C-E-G", labels[0])
	assert.Equal(t, "C#-F-G#", labels[1])
}

func TestPitchClassWrapsNegative(t *testing.T) {
	assert.Equal(t, 11, PitchClass(-1))
	assert.Equal(t, 0, PitchClass(120))
}
