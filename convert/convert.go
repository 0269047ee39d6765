package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jsphweid/midicompare/audio"
	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/midi"
	"github.com/jsphweid/midicompare/model"
	"github.com/mdobak/go-xerrors"
	"golang.org/x/sync/singleflight"
)

// ErrCancelled is returned when the caller's context ends before the
// conversion finished. Cancelled conversions are never cached.
var ErrCancelled = errors.New("conversion cancelled")

// Fingerprint identifies an input file for caching.
type Fingerprint struct {
	Name    string
	Size    int64
	ModTime time.Time
}

func (f Fingerprint) Key() string {
	return fmt.Sprintf("%v-%v-%v", f.Name, f.Size, f.ModTime.UnixMilli())
}

type Stage string

const (
	Uploading    Stage = "uploading"
	Processing   Stage = "processing"
	Transcribing Stage = "transcribing"
	Generating   Stage = "generating"
	Complete     Stage = "complete"
)

type Progress struct {
	Stage   Stage
	Percent int
	Message string
}

var stages = []Progress{
	{Stage: Uploading, Percent: 20, Message: "Uploading audio file..."},
	{Stage: Processing, Percent: 40, Message: "Analyzing audio content..."},
	{Stage: Transcribing, Percent: 70, Message: "Transcribing musical notes..."},
	{Stage: Generating, Percent: 90, Message: "Generating MIDI file..."},
}

type Request struct {
	Fingerprint Fingerprint
	Data        []byte
	// OnProgress, if set, is called as each stage starts
	OnProgress func(Progress)
}

type Result struct {
	Filename       string
	Document       model.Document
	Midi           []byte
	Confidence     float64
	ProcessingTime time.Duration
	Fallback       bool
	Cached         bool
}

// clone copies r so callers can change their result without touching the
// cached one.
func (r Result) clone() Result {
	r.Document = r.Document.Clone()
	r.Midi = slices.Clone(r.Midi)
	return r
}

// Random drives fallback scale choice and confidence. util.LockedRand
// satisfies it.
type Random interface {
	Intn(n int) int
	Float64() float64
}

type Converter struct {
	cache   Cache
	group   singleflight.Group
	encoder *midi.Encoder
	random  Random
	logger  *slog.Logger

	decode func(data []byte) (audio.Samples, error)
}

func NewConverter(cache Cache, encoder *midi.Encoder, random Random, logger *slog.Logger) *Converter {
	return &Converter{
		cache:   cache,
		encoder: encoder,
		random:  random,
		logger:  logger,
		decode: func(data []byte) (audio.Samples, error) {
			return audio.DecodeWav(bytes.NewReader(data))
		},
	}
}

func cancelled(err error) error {
	return xerrors.New(ErrCancelled, err)
}

// Convert turns audio into a midi document. Concurrent calls for the same
// fingerprint share one conversion and finished results are served from the
// cache.
func (c *Converter) Convert(ctx context.Context, req Request) (Result, error) {
	key := req.Fingerprint.Key()
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, cancelled(err)
		}
		if r, ok := c.cache.Get(key); ok {
			c.logger.InfoContext(ctx, "using cached conversion", slog.String("key", key))
			r.Cached = true
			return r.clone(), nil
		}

		ch := c.group.DoChan(key, func() (any, error) {
			if r, ok := c.cache.Get(key); ok {
				r.Cached = true
				return r, nil
			}
			r, err := c.convert(ctx, req)
			if err != nil {
				return nil, err
			}
			c.cache.Add(key, r)
			return r, nil
		})

		select {
		case <-ctx.Done():
			return Result{}, cancelled(ctx.Err())
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(Result).clone(), nil
			}
			// the caller that started the shared conversion went away
			if errors.Is(res.Err, ErrCancelled) && ctx.Err() == nil {
				continue
			}
			return Result{}, res.Err
		}
	}
}

func (c *Converter) convert(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	label := strings.TrimSuffix(req.Fingerprint.Name, filepath.Ext(req.Fingerprint.Name))
	report := func(p Progress) error {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		if req.OnProgress != nil {
			req.OnProgress(p)
		}
		return nil
	}

	if err := report(stages[0]); err != nil {
		return Result{}, err
	}
	if err := report(stages[1]); err != nil {
		return Result{}, err
	}

	res := Result{Filename: label + "_converted.mid"}
	samples, err := c.decode(req.Data)
	if err != nil {
		c.logger.WarnContext(ctx, "falling back to scale fragment",
			slog.String("file", req.Fingerprint.Name),
			slog.Any("error", err),
		)
		if err := report(stages[3]); err != nil {
			return Result{}, err
		}
		scale := audio.FallbackScale(c.random)
		res.Filename = label + "_fallback.mid"
		res.Fallback = true
		res.Midi, res.Document = c.encoder.EncodePhrase(label+"_fallback", constants.FallbackSeconds, scale.Pitches)
	} else {
		if err := report(stages[2]); err != nil {
			return Result{}, err
		}
		pitches := audio.Extract(samples.Data, samples.SampleRate, constants.MaxAudioEvents)

		if err := report(stages[3]); err != nil {
			return Result{}, err
		}
		duration := min(samples.Duration(), constants.MaxAudioSeconds)
		res.Midi, res.Document = c.encoder.EncodePhrase(label+"_converted", duration, pitches)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, cancelled(err)
	}
	if req.OnProgress != nil {
		req.OnProgress(Progress{Stage: Complete, Percent: 100, Message: "Conversion completed!"})
	}

	res.Confidence = constants.DefaultConfidence + c.random.Float64()*constants.ConfidenceSpread
	res.ProcessingTime = time.Since(started)
	c.logger.InfoContext(ctx, "converted audio",
		slog.String("file", req.Fingerprint.Name),
		slog.Bool("fallback", res.Fallback),
		slog.Int("notes", res.Document.NumNotes()),
		slog.Duration("took", res.ProcessingTime),
	)
	return res, nil
}
