package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/midicompare/constants"
	"github.com/jsphweid/midicompare/convert"
	"github.com/jsphweid/midicompare/engine"
	"github.com/jsphweid/midicompare/midi"
	"github.com/jsphweid/midicompare/model"
	"github.com/jsphweid/midicompare/util"
	"github.com/mdobak/go-xerrors"
)

type app struct {
	engine    *engine.Engine
	converter *convert.Converter
}

func newApp(seed int64, cacheSize int) (*app, error) {
	logger := util.GetLogger()
	rnd := util.NewLockedRand(seed)
	encoder := midi.NewEncoder(rnd)
	cache, err := convert.NewLRUCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &app{
		engine:    engine.New(encoder, logger),
		converter: convert.NewConverter(cache, encoder, rnd, logger),
	}, nil
}

func newAppFromEnv() (*app, error) {
	return newApp(constants.GetRandomSeed(), constants.GetCacheSize())
}

func isAudioPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// loadDocument reads a midi file, or converts a wav file first.
func (a *app) loadDocument(ctx context.Context, path string, onProgress func(convert.Progress)) (model.Document, error) {
	if !isAudioPath(path) {
		return midi.ReadMidiFile(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return model.Document{}, xerrors.New(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, xerrors.New(err)
	}
	res, err := a.converter.Convert(ctx, convert.Request{
		Fingerprint: convert.Fingerprint{Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()},
		Data:        data,
		OnProgress:  onProgress,
	})
	if err != nil {
		return model.Document{}, err
	}
	return res.Document, nil
}
