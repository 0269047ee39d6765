package model

import "slices"

// Note is a single pitched event. Times are in seconds from document start.
type Note struct {
	Pitch    int     `json:"midi"`
	Onset    float64 `json:"time"`
	Duration float64 `json:"duration"`
	Velocity int     `json:"velocity"`
}

type Track struct {
	Notes []Note `json:"notes"`
}

type Document struct {
	Label    string  `json:"name"`
	Tracks   []Track `json:"tracks"`
	Duration float64 `json:"duration"`
}

// Flatten returns the notes of every track in track order.
func (d Document) Flatten() []Note {
	var res []Note
	for _, t := range d.Tracks {
		res = append(res, t.Notes...)
	}
	return res
}

// Clone returns a copy that shares no slices with d.
func (d Document) Clone() Document {
	res := d
	if d.Tracks != nil {
		res.Tracks = make([]Track, len(d.Tracks))
		for i, t := range d.Tracks {
			res.Tracks[i] = Track{Notes: slices.Clone(t.Notes)}
		}
	}
	return res
}

func (d Document) NumNotes() int {
	var n int
	for _, t := range d.Tracks {
		n += len(t.Notes)
	}
	return n
}

// NewDocument wraps notes in a single track document whose duration covers
// the end of the last sounding note.
func NewDocument(label string, notes []Note) Document {
	var end float64
	for _, n := range notes {
		if n.Onset+n.Duration > end {
			end = n.Onset + n.Duration
		}
	}
	if notes == nil {
		notes = []Note{}
	}
	return Document{
		Label:    label,
		Tracks:   []Track{{Notes: notes}},
		Duration: end,
	}
}
