package audio

import (
	"math"

	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/util"
)

var defaultTriad = []int{60, 64, 67}

// Extract turns samples into at most maxEvents pitches, one per loud enough
// chunk. Louder chunks map to higher pitches. The whole buffer is analysed.
// The result always has at least three pitches.
func Extract(samples []float64, sampleRate int, maxEvents int) []int {
	if maxEvents <= 0 {
		maxEvents = constants.MaxAudioEvents
	}

	chunkSize := (len(samples) + maxEvents - 1) / maxEvents
	if chunkSize < constants.MinChunkSize {
		chunkSize = constants.MinChunkSize
	}

	var pitches []int
	for i := 0; i < len(samples) && len(pitches) < maxEvents; i += chunkSize {
		end := i + chunkSize
		if end > len(samples) {
			end = len(samples)
		}
		level := rms(samples[i:end])
		if level > constants.RMSThreshold {
			pitch := constants.BasePitch + int(math.Floor(level*constants.PitchSpan))
			pitches = append(pitches, util.Clamp(pitch, 0, 127))
		}
	}

	switch len(pitches) {
	case 0:
		return append([]int(nil), defaultTriad...)
	case 1:
		root := pitches[0]
		return []int{root, util.Clamp(root+4, 0, 127), util.Clamp(root+7, 0, 127)}
	}
	return pitches
}

func rms(chunk []float64) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var sum float64
	for _, s := range chunk {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(chunk)))
}
