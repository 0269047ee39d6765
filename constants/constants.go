package constants

import (
	"os"
	"strconv"
	"time"
)

func GetListenAddr() string {
	addr := os.Getenv("LISTEN_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

// GetCacheSize is the number of conversion results kept in memory.
func GetCacheSize() int {
	size, err := strconv.Atoi(os.Getenv("CACHE_SIZE"))
	if err != nil || size <= 0 {
		return 128
	}
	return size
}

// GetRandomSeed seeds velocity synthesis and fallback scale selection.
// Without RANDOM_SEED set every process gets its own seed.
func GetRandomSeed() int64 {
	seed, err := strconv.ParseInt(os.Getenv("RANDOM_SEED"), 10, 64)
	if err != nil {
		return time.Now().UnixNano()
	}
	return seed
}

func GetLogLevel() string {
	return os.Getenv("LOG_LEVEL")
}

// blend weights for the enhanced similarity score
const (
	NoteWeight     = 0.4
	HarmonicWeight = 0.3
	RhythmWeight   = 0.2
	KeyWeight      = 0.1
)

// onsets are compared at 1/OnsetQuantum seconds (10ms)
const OnsetQuantum = 100

// chord windows are 1/ChordWindowsPerSecond wide
const ChordWindowsPerSecond = 4

const MinChordSize = 3

// inter-onset intervals are quantized to 1/RhythmGrid seconds
const RhythmGrid = 16

const MaxCommonChords = 5

const (
	MinMeanInterval float64 = 0.1
	// used when a document has fewer than two notes
	DefaultMeanInterval float64 = 1
)

const MaxKeyDistance = 6

const (
	TicksPerQuarter   = 96
	MicrosPerQuarter  = 500000
	TicksPerSecond    = TicksPerQuarter * 1000000 / MicrosPerQuarter
	MaxPhraseNotes    = 8
	DefaultNoteLength = 0.5
	MinVelocity       = 1
	// synthesized velocities fall in [64, 96)
	SynthVelocityBase  = 64
	SynthVelocityRange = 32
	// enhanced output is played back at least this loud
	EnhancedMinVelocity = 89
)

const (
	RMSThreshold      = 0.15
	MinChunkSize      = 1024
	MaxAudioEvents    = 12
	MaxAudioSeconds   = 30
	FallbackSeconds   = 4
	BasePitch         = 48
	PitchSpan         = 36
	DefaultConfidence = 0.85
	ConfidenceSpread  = 0.1
)
