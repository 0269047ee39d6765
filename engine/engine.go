package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jsphweid/midicompare/chord"
	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/key"
	"github.com/jsphweid/midicompare/match"
	"github.com/jsphweid/midicompare/midi"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/rhythm"
	"github.com/jsphweid/midicompare/util"
	"github.com/mdobak/go-xerrors"
)

type Mode string

const (
	Basic    Mode = "basic"
	Enhanced Mode = "enhanced"
)

var ErrUnknownMode = errors.New("unknown comparison mode")

// intervals reported with every enhanced comparison
var commonIntervals = []int{3, 4, 5, 7}

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Basic:
		return Basic, nil
	case Enhanced:
		return Enhanced, nil
	}
	return "", xerrors.New(fmt.Sprintf("mode %q", s), ErrUnknownMode)
}

type Engine struct {
	encoder *midi.Encoder
	logger  *slog.Logger
}

func New(encoder *midi.Encoder, logger *slog.Logger) *Engine {
	return &Engine{encoder: encoder, logger: logger}
}

// CompareBasic matches notes only and encodes the shared notes.
func (e *Engine) CompareBasic(doc1, doc2 model.Document) model.ComparisonResult {
	res := match.Compare(doc1, doc2)
	res.OutputMidi = e.encoder.Encode(res.Output.Duration, res.Output.Flatten())
	return res
}

// CompareEnhanced blends note, harmonic, rhythm and key similarity.
func (e *Engine) CompareEnhanced(doc1, doc2 model.Document) model.EnhancedComparisonResult {
	notes1 := doc1.Flatten()
	notes2 := doc2.Flatten()

	basic := match.Compare(doc1, doc2)
	harmonic := chord.HarmonicSimilarity(notes1, notes2)
	rhythmic := rhythm.RhythmSimilarity(notes1, notes2)
	keyed := key.KeySimilarity(notes1, notes2)

	res := model.EnhancedComparisonResult{
		ComparisonResult:   basic,
		NoteSimilarity:     basic.Similarity,
		HarmonicSimilarity: harmonic,
		RhythmSimilarity:   rhythmic,
		KeySimilarity:      keyed,
		Details:            analysisDetails(notes1, notes2),
	}
	res.Similarity = constants.NoteWeight*basic.Similarity +
		constants.HarmonicWeight*harmonic +
		constants.RhythmWeight*rhythmic +
		constants.KeyWeight*keyed

	boosted := make([]model.Note, 0, len(basic.Output.Flatten()))
	for _, n := range basic.Output.Flatten() {
		n.Velocity = max(n.Velocity, constants.EnhancedMinVelocity)
		boosted = append(boosted, n)
	}
	res.Output = model.NewDocument(basic.Output.Label, boosted)
	res.OutputMidi = e.encoder.Encode(res.Output.Duration, boosted)
	return res
}

func analysisDetails(notes1, notes2 []model.Note) model.AnalysisDetails {
	tempo1 := rhythm.EstimateTempo(notes1)
	tempo2 := rhythm.EstimateTempo(notes2)
	key1 := key.DetectKey(notes1)
	key2 := key.DetectKey(notes2)

	return model.AnalysisDetails{
		CommonChords:    chord.CommonLabels(notes1, notes2, constants.MaxCommonChords),
		CommonIntervals: append([]int(nil), commonIntervals...),
		Tempo: model.TempoAnalysis{
			Tempo1:     tempo1,
			Tempo2:     tempo2,
			Similarity: rhythm.TempoSimilarity(tempo1, tempo2),
		},
		Keys: model.KeySignatures{
			Key1:     key.Name(key1),
			Key2:     key.Name(key2),
			Distance: key.Distance(key1, key2),
		},
	}
}

// Compare runs the comparison for mode and returns either a
// model.ComparisonResult or a model.EnhancedComparisonResult.
func (e *Engine) Compare(ctx context.Context, doc1, doc2 model.Document, mode Mode) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, xerrors.New(err)
	}

	var res any
	var similarity float64
	switch mode {
	case Basic:
		r := e.CompareBasic(doc1, doc2)
		res, similarity = r, r.Similarity
	case Enhanced:
		r := e.CompareEnhanced(doc1, doc2)
		res, similarity = r, r.Similarity
	default:
		return nil, xerrors.New(fmt.Sprintf("mode %q", mode), ErrUnknownMode)
	}

	e.log().InfoContext(ctx, "compared documents",
		slog.String("doc1", doc1.Label),
		slog.String("doc2", doc2.Label),
		slog.String("mode", string(mode)),
		slog.Float64("similarity", similarity),
	)
	return res, nil
}

func (e *Engine) log() *slog.Logger {
	if e.logger == nil {
		return util.GetLogger()
	}
	return e.logger
}
