package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/midicompare/model"
	"github.com/mdobak/go-xerrors"
	"gitlab.com/gomidi/midi/v2/smf"
)

type pressKey struct {
	channel uint8
	key     uint8
}

type pressed struct {
	onset    int64
	velocity uint8
}

// ReadMidiFile decodes the file at path into a document labelled with its
// base name.
func ReadMidiFile(path string) (model.Document, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, xerrors.New("error reading midi file", err)
	}
	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadDocument(label, bytes.NewReader(dat))
}

func ReadDocument(label string, r io.Reader) (doc model.Document, e error) {
	// the smf reader panics on some malformed input
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			doc = model.Document{}
			e = errors.New(fmt.Sprint("error parsing midi file: ", r))
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return model.Document{}, xerrors.New("error parsing midi file", err)
	}

	doc.Label = label
	for _, events := range s.Tracks {
		var absTicks int64
		var track model.Track
		open := make(map[pressKey]pressed)

		release := func(k pressKey, at int64) {
			p, ok := open[k]
			if !ok {
				return
			}
			delete(open, k)
			onset := microsToSeconds(s.TimeAt(p.onset))
			track.Notes = append(track.Notes, model.Note{
				Pitch:    int(k.key),
				Onset:    onset,
				Duration: microsToSeconds(s.TimeAt(at)) - onset,
				Velocity: int(p.velocity),
			})
		}

		for _, event := range events {
			absTicks += int64(event.Delta)
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				k := pressKey{channel: channel, key: key}
				release(k, absTicks)
				if velocity > 0 {
					open[k] = pressed{onset: absTicks, velocity: velocity}
				}
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				release(pressKey{channel: channel, key: key}, absTicks)
			}
		}
		for k := range open {
			release(k, absTicks)
		}
		if len(track.Notes) == 0 {
			continue
		}

		sort.SliceStable(track.Notes, func(i, j int) bool {
			return track.Notes[i].Onset < track.Notes[j].Onset
		})
		for _, n := range track.Notes {
			if n.Onset+n.Duration > doc.Duration {
				doc.Duration = n.Onset + n.Duration
			}
		}
		doc.Tracks = append(doc.Tracks, track)
	}
	return doc, nil
}

func microsToSeconds(micros int64) float64 {
	return float64(micros) / 1e6
}
