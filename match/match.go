package match

import (
	"fmt"
	"math"

	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/util"
)

// NoteKey identifies a note by pitch and onset rounded to 10ms. Two notes
// with the same key are the same note.
type NoteKey struct {
	Pitch int
	Onset int64
}

func KeyOf(n model.Note) NoteKey {
	return NoteKey{Pitch: n.Pitch, Onset: int64(math.Round(n.Onset * constants.OnsetQuantum))}
}

func (k NoteKey) String() string {
	return fmt.Sprintf("%v_%.2f", k.Pitch, float64(k.Onset)/constants.OnsetQuantum)
}

type NoteSet = map[NoteKey]bool

func CreateNoteSet(notes []model.Note) NoteSet {
	res := make(NoteSet, len(notes))
	for _, n := range notes {
		res[KeyOf(n)] = true
	}
	return res
}

func Intersect(a, b NoteSet) NoteSet {
	res := make(NoteSet)
	for k := range a {
		if b[k] {
			res[k] = true
		}
	}
	return res
}

// Common returns the notes of doc whose key is in keys, in document order.
func Common(doc model.Document, keys NoteSet) []model.Note {
	res := []model.Note{}
	for _, n := range doc.Flatten() {
		if keys[KeyOf(n)] {
			res = append(res, n)
		}
	}
	return res
}

func OutputLabel(doc1, doc2 model.Document) string {
	return fmt.Sprintf("common_notes_%v_%v", doc1.Label, doc2.Label)
}

// Compare matches the notes of two documents. The output document holds the
// notes of doc1 that also occur in doc2.
func Compare(doc1, doc2 model.Document) model.ComparisonResult {
	set1 := CreateNoteSet(doc1.Flatten())
	set2 := CreateNoteSet(doc2.Flatten())
	common := Intersect(set1, set2)

	return model.ComparisonResult{
		Similarity:      util.Ratio(len(common), max(len(set1), len(set2))),
		CommonNoteCount: len(common),
		TotalNotes1:     len(set1),
		TotalNotes2:     len(set2),
		Output:          model.NewDocument(OutputLabel(doc1, doc2), Common(doc1, common)),
	}
}
