package midi

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/util"
)

const (
	noteOnStatus  = 0x90
	noteOffStatus = 0x80
	metaPrefix    = 0xFF
)

var (
	headerChunk = []byte{
		'M', 'T', 'h', 'd',
		0x00, 0x00, 0x00, 0x06, // header length
		0x00, 0x00, // format 0
		0x00, 0x01, // one track
		byte(constants.TicksPerQuarter >> 8), byte(constants.TicksPerQuarter & 0xFF),
	}
	timeSignature = []byte{0x00, metaPrefix, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}
	tempo         = []byte{
		0x00, metaPrefix, 0x51, 0x03,
		byte(constants.MicrosPerQuarter >> 16 & 0xFF),
		byte(constants.MicrosPerQuarter >> 8 & 0xFF),
		byte(constants.MicrosPerQuarter & 0xFF),
	}
	endOfTrack = []byte{metaPrefix, 0x2F, 0x00}
)

// VelocitySource supplies velocities for notes that carry none.
// *rand.Rand and util.LockedRand both satisfy it.
type VelocitySource interface {
	Intn(n int) int
}

// Encoder writes format 0 standard midi files at 96 ticks per quarter and a
// fixed 120 bpm.
type Encoder struct {
	velocities VelocitySource
}

func NewEncoder(velocities VelocitySource) *Encoder {
	return &Encoder{velocities: velocities}
}

type event struct {
	tick     int64
	status   byte
	key      byte
	velocity byte
}

// Encode writes every note at its own onset. The track ends at the later of
// the last note off and duration.
func (e *Encoder) Encode(duration float64, notes []model.Note) []byte {
	events := e.schedule(notes)
	end := secondsToTicks(duration)
	if len(events) > 0 && events[len(events)-1].tick > end {
		end = events[len(events)-1].tick
	}
	return writeFile(events, end)
}

// Phrase lays pitches out as quarter notes separated by quarter rests, keeping
// at most MaxPhraseNotes of them.
func (e *Encoder) Phrase(pitches []int) []model.Note {
	if len(pitches) > constants.MaxPhraseNotes {
		pitches = pitches[:constants.MaxPhraseNotes]
	}
	quarter := float64(constants.TicksPerQuarter) / constants.TicksPerSecond
	notes := make([]model.Note, 0, len(pitches))
	for i, p := range pitches {
		notes = append(notes, model.Note{
			Pitch:    util.Clamp(p, 0, 127),
			Onset:    float64(i) * 2 * quarter,
			Duration: quarter,
			Velocity: e.synthesizeVelocity(),
		})
	}
	return notes
}

// EncodePhrase encodes Phrase(pitches). The track ends right after the last
// note so duration only feeds the returned document.
func (e *Encoder) EncodePhrase(label string, duration float64, pitches []int) ([]byte, model.Document) {
	notes := e.Phrase(pitches)
	events := e.schedule(notes)
	var end int64
	if len(events) > 0 {
		end = events[len(events)-1].tick
	}
	doc := model.NewDocument(label, notes)
	if duration > doc.Duration {
		doc.Duration = duration
	}
	return writeFile(events, end), doc
}

func (e *Encoder) synthesizeVelocity() int {
	if e.velocities == nil {
		return constants.SynthVelocityBase
	}
	return constants.SynthVelocityBase + e.velocities.Intn(constants.SynthVelocityRange)
}

func (e *Encoder) schedule(notes []model.Note) []event {
	events := make([]event, 0, len(notes)*2)
	for _, n := range notes {
		key := byte(util.Clamp(n.Pitch, 0, 127))
		velocity := n.Velocity
		if velocity <= 0 {
			velocity = e.synthesizeVelocity()
		}
		velocity = util.Clamp(velocity, constants.MinVelocity, 127)

		length := n.Duration
		if length <= 0 {
			length = constants.DefaultNoteLength
		}
		on := secondsToTicks(n.Onset)
		off := secondsToTicks(n.Onset + length)
		if off <= on {
			off = on + 1
		}
		events = append(events,
			event{tick: on, status: noteOnStatus, key: key, velocity: byte(velocity)},
			event{tick: off, status: noteOffStatus, key: key},
		)
	}

	// note offs go first when events share a tick
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].status == noteOffStatus && events[j].status == noteOnStatus
	})
	return events
}

// maxVarLen is the largest value a four byte variable length quantity holds.
const maxVarLen = 0x0FFFFFFF

func secondsToTicks(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	ticks := math.Round(seconds * constants.TicksPerSecond)
	if ticks > maxVarLen {
		return maxVarLen
	}
	return int64(ticks)
}

func writeFile(events []event, end int64) []byte {
	var track []byte
	track = append(track, timeSignature...)
	track = append(track, tempo...)

	var last int64
	for _, evt := range events {
		track = appendVarLen(track, uint32(evt.tick-last))
		track = append(track, evt.status, evt.key, evt.velocity)
		last = evt.tick
	}
	track = appendVarLen(track, uint32(end-last))
	track = append(track, endOfTrack...)

	res := make([]byte, 0, len(headerChunk)+8+len(track))
	res = append(res, headerChunk...)
	res = append(res, 'M', 'T', 'r', 'k')
	res = binary.BigEndian.AppendUint32(res, uint32(len(track)))
	return append(res, track...)
}

// appendVarLen writes v as a variable length quantity: seven bits per byte,
// high bit set on every byte but the last. Values past maxVarLen are clamped.
func appendVarLen(buf []byte, v uint32) []byte {
	v = min(v, maxVarLen)
	var tmp [4]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7F)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7F) | 0x80
	}
	return append(buf, tmp[i:]...)
}
