package model

type ComparisonResult struct {
	Similarity      float64  `json:"similarity"`
	CommonNoteCount int      `json:"common_notes"`
	TotalNotes1     int      `json:"total_notes_1"`
	TotalNotes2     int      `json:"total_notes_2"`
	Output          Document `json:"output"`

	// encoded Output, filled in by the engine
	OutputMidi []byte `json:"output_midi,omitempty"`
}

type TempoAnalysis struct {
	Tempo1     float64 `json:"file1_tempo"`
	Tempo2     float64 `json:"file2_tempo"`
	Similarity float64 `json:"tempo_similarity"`
}

type KeySignatures struct {
	Key1     string `json:"file1_key"`
	Key2     string `json:"file2_key"`
	Distance int    `json:"key_distance"`
}

type AnalysisDetails struct {
	CommonChords    []string      `json:"common_chords"`
	CommonIntervals []int         `json:"common_intervals"`
	Tempo           TempoAnalysis `json:"tempo_analysis"`
	Keys            KeySignatures `json:"key_signatures"`
}

// EnhancedComparisonResult carries the blended score in Similarity and the
// plain note-set score in NoteSimilarity.
type EnhancedComparisonResult struct {
	ComparisonResult
	NoteSimilarity     float64         `json:"note_similarity"`
	HarmonicSimilarity float64         `json:"harmonic_similarity"`
	RhythmSimilarity   float64         `json:"rhythm_similarity"`
	KeySimilarity      float64         `json:"key_similarity"`
	Details            AnalysisDetails `json:"analysis_details"`
}
